// internal/ai/client.go
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"voiceflow/internal/providers"
)

const followUpMaxTokens = 100

// Source resolves adapters. *providers.Registry satisfies it.
type Source interface {
	Active() (providers.Provider, error)
	Get(t providers.Type) providers.Provider
}

// Client turns a question plus script context into a suggestion via the active provider.
// It holds no session state.
type Client struct {
	source    Source
	followUps *cache.Cache // nil disables caching

	mu     sync.RWMutex
	custom string
}

// NewClient creates a client. followUpTTL <= 0 disables the follow-up cache.
func NewClient(source Source, followUpTTL time.Duration) *Client {
	c := &Client{source: source}
	if followUpTTL > 0 {
		c.followUps = cache.New(followUpTTL, 2*followUpTTL)
	}
	return c
}

// SetCustomInstructions sets the text used by ModeCustom
func (c *Client) SetCustomInstructions(s string) {
	c.mu.Lock()
	c.custom = s
	c.mu.Unlock()
}

func (c *Client) customInstructions() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.custom
}

// GenerateInterviewResponse builds the prompt and asks the active provider for
// maxLength*2 tokens.
func (c *Client) GenerateInterviewResponse(ctx context.Context, question, scriptContext string, mode Mode, style Style, maxLength int) (string, error) {
	p, err := c.source.Active()
	if err != nil {
		return "", err
	}

	prompt := buildPrompt(question, scriptContext, mode, style, maxLength, c.customInstructions())
	start := time.Now()
	text, err := p.GenerateResponse(ctx, prompt, maxLength*2)
	if err != nil {
		slog.Warn("suggestion request failed", "provider", string(p.Type()), "model", p.Model(), "error", err)
		return "", fmt.Errorf("generate suggestion: %w", err)
	}
	slog.Debug("suggestion received", "provider", string(p.Type()), "words", len(strings.Fields(text)), "elapsed", time.Since(start))
	return text, nil
}

// GenerateFollowUps asks for up to three follow-up questions. Results are cached
// per provider, model and question.
func (c *Client) GenerateFollowUps(ctx context.Context, question string) ([]string, error) {
	p, err := c.source.Active()
	if err != nil {
		return nil, err
	}

	key := string(p.Type()) + "|" + p.Model() + "|" + strings.TrimSpace(question)
	if c.followUps != nil {
		if v, ok := c.followUps.Get(key); ok {
			return append([]string(nil), v.([]string)...), nil
		}
	}

	raw, err := p.GenerateResponse(ctx, followUpPrompt(question, p.Type().Family()), followUpMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("generate follow-ups: %w", err)
	}

	questions := ParseFollowUps(raw)
	if c.followUps != nil && len(questions) > 0 {
		c.followUps.Set(key, questions, cache.DefaultExpiration)
	}
	return append([]string(nil), questions...), nil
}

// ValidateKey checks key with the adapter for t. The adapter keeps the key on success.
func (c *Client) ValidateKey(ctx context.Context, t providers.Type, key string) bool {
	p := c.source.Get(t)
	if p == nil {
		return false
	}
	return p.ValidateKey(ctx, key)
}
