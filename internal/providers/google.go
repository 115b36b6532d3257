// internal/providers/google.go
package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/genai"
)

// GoogleProvider speaks the Gemini generateContent API
type GoogleProvider struct {
	baseProvider
	baseURL    string
	httpClient *http.Client
}

func NewGoogleProvider(apiKey, model, baseURL string) *GoogleProvider {
	if baseURL == "" {
		baseURL = Google.BaseURL()
	}
	return &GoogleProvider{
		baseProvider: newBaseProvider(Google, apiKey, model),
		baseURL:      baseURL,
		httpClient:   sharedClient,
	}
}

func (p *GoogleProvider) GenerateResponse(ctx context.Context, prompt string, maxTokens int) (string, error) {
	key, model := p.credentials()
	if key == "" {
		return "", ErrInvalidAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      key,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  p.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: p.baseURL},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
		Temperature:     genai.Ptr[float32](temperature),
	})
	if err != nil {
		return "", classifyGenai(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrInvalidResponse
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && strings.TrimSpace(part.Text) != "" {
			return strings.TrimSpace(part.Text), nil
		}
	}
	return "", ErrInvalidResponse
}

func (p *GoogleProvider) ValidateKey(ctx context.Context, key string) bool {
	return validateKey(ctx, p, key)
}

// classifyGenai maps genai errors; the SDK reports status through APIError
// instead of exposing the raw response.
func classifyGenai(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.Code
		if code == 0 {
			switch apiErr.Status {
			case "UNAUTHENTICATED":
				code = http.StatusUnauthorized
			case "RESOURCE_EXHAUSTED":
				code = http.StatusTooManyRequests
			}
		}
		return fmt.Errorf("%w: %v", statusError(code), err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	// anything else failed while decoding the body
	return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
}
