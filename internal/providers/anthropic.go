// internal/providers/anthropic.go
package providers

import (
	"context"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Display ids in the model list map to these wire ids
var anthropicWireModels = map[string]string{
	"claude-opus-4.5":   "claude-opus-4-5",
	"claude-sonnet-4.5": "claude-sonnet-4-5",
	"claude-haiku-3.5":  "claude-3-5-haiku-latest",
}

// AnthropicProvider speaks the messages API
type AnthropicProvider struct {
	baseProvider
	baseURL    string
	httpClient *http.Client
}

func NewAnthropicProvider(apiKey, model, baseURL string) *AnthropicProvider {
	if baseURL == "" {
		baseURL = Anthropic.BaseURL()
	}
	return &AnthropicProvider{
		baseProvider: newBaseProvider(Anthropic, apiKey, model),
		baseURL:      baseURL,
		httpClient:   sharedClient,
	}
}

func (p *AnthropicProvider) GenerateResponse(ctx context.Context, prompt string, maxTokens int) (string, error) {
	key, model := p.credentials()
	if key == "" {
		return "", ErrInvalidAPIKey
	}
	if wire, ok := anthropicWireModels[model]; ok {
		model = wire
	}

	client := anthropic.NewClient(
		option.WithAPIKey(key),
		option.WithBaseURL(p.baseURL),
		option.WithHTTPClient(p.httpClient),
		option.WithMaxRetries(0),
	)

	var raw *http.Response
	msg, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}, option.WithResponseInto(&raw))
	if err != nil {
		return "", classify(raw, err)
	}

	for _, block := range msg.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return strings.TrimSpace(block.Text), nil
		}
	}
	return "", ErrInvalidResponse
}

func (p *AnthropicProvider) ValidateKey(ctx context.Context, key string) bool {
	return validateKey(ctx, p, key)
}
