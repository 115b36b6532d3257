// internal/providers/provider.go
package providers

import (
	"context"
	"log/slog"
	"sync"
)

// Request parameters for key validation
const (
	validatePrompt    = "Hi"
	validateMaxTokens = 5
)

// Provider is the capability every vendor adapter implements
type Provider interface {
	// Type returns the vendor this adapter talks to
	Type() Type

	Model() string
	SetModel(model string)

	APIKey() string
	SetAPIKey(key string)

	// GenerateResponse sends a single prompt and returns the first text the vendor produced
	GenerateResponse(ctx context.Context, prompt string, maxTokens int) (string, error)

	// ValidateKey installs key if a minimal request with it succeeds.
	// On failure the previous key is restored and false is returned.
	ValidateKey(ctx context.Context, key string) bool
}

// baseProvider holds the credentials shared by all adapters
type baseProvider struct {
	mu     sync.RWMutex
	kind   Type
	apiKey string
	model  string
}

func newBaseProvider(kind Type, apiKey, model string) baseProvider {
	if model == "" {
		model = kind.DefaultModel()
	}
	return baseProvider{kind: kind, apiKey: apiKey, model: model}
}

func (b *baseProvider) Type() Type {
	return b.kind
}

func (b *baseProvider) Model() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model
}

func (b *baseProvider) SetModel(model string) {
	if model == "" {
		model = b.kind.DefaultModel()
	}
	b.mu.Lock()
	b.model = model
	b.mu.Unlock()
}

func (b *baseProvider) APIKey() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.apiKey
}

func (b *baseProvider) SetAPIKey(key string) {
	b.mu.Lock()
	b.apiKey = key
	b.mu.Unlock()
}

// credentials returns key and model under one lock
func (b *baseProvider) credentials() (string, string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.apiKey, b.model
}

// validateKey sends the validation request to p with key swapped in
func validateKey(ctx context.Context, p Provider, key string) bool {
	prev := p.APIKey()
	p.SetAPIKey(key)
	if _, err := p.GenerateResponse(ctx, validatePrompt, validateMaxTokens); err != nil {
		slog.Debug("api key check failed", "provider", string(p.Type()), "error", err)
		p.SetAPIKey(prev)
		return false
	}
	slog.Debug("api key check succeeded", "provider", string(p.Type()))
	return true
}

// New builds the adapter for kind. An empty baseURL selects the vendor default.
func New(kind Type, apiKey, model, baseURL string) Provider {
	if baseURL == "" {
		baseURL = kind.BaseURL()
	}
	switch kind.Family() {
	case FamilyAnthropic:
		return NewAnthropicProvider(apiKey, model, baseURL)
	case FamilyGoogle:
		return NewGoogleProvider(apiKey, model, baseURL)
	default:
		return NewOpenAIProvider(kind, apiKey, model, baseURL)
	}
}
