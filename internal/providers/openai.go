// internal/providers/openai.go
package providers

import (
	"context"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	coachSystemPrompt = "You are an interview coach helping users prepare for job interviews."
	temperature       = 0.7
)

// OpenAIProvider speaks the chat-completions format. DeepSeek, xAI and
// Minimax expose the same API and reuse it with their own base URL.
type OpenAIProvider struct {
	baseProvider
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIProvider creates an adapter for an OpenAI-compatible vendor
func NewOpenAIProvider(kind Type, apiKey, model, baseURL string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = kind.BaseURL()
	}
	return &OpenAIProvider{
		baseProvider: newBaseProvider(kind, apiKey, model),
		baseURL:      baseURL,
		httpClient:   sharedClient,
	}
}

// GenerateResponse sends prompt as the user turn after the coach system message
func (p *OpenAIProvider) GenerateResponse(ctx context.Context, prompt string, maxTokens int) (string, error) {
	key, model := p.credentials()
	if key == "" {
		return "", ErrInvalidAPIKey
	}

	client := openai.NewClient(
		option.WithAPIKey(key),
		option.WithBaseURL(p.baseURL),
		option.WithHTTPClient(p.httpClient),
		option.WithMaxRetries(0),
	)

	var raw *http.Response
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(coachSystemPrompt),
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(int64(maxTokens)),
		Temperature: openai.Float(temperature),
	}, option.WithResponseInto(&raw))
	if err != nil {
		return "", classify(raw, err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrInvalidResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrInvalidResponse
	}
	return text, nil
}

func (p *OpenAIProvider) ValidateKey(ctx context.Context, key string) bool {
	return validateKey(ctx, p, key)
}
