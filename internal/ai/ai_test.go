// internal/ai/ai_test.go
package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voiceflow/internal/providers"
)

// mockProvider records calls and returns canned output
type mockProvider struct {
	mu        sync.Mutex
	kind      providers.Type
	key       string
	reply     string
	err       error
	prompts   []string
	maxTokens []int
}

func (m *mockProvider) Type() providers.Type { return m.kind }
func (m *mockProvider) Model() string        { return "test-model" }
func (m *mockProvider) SetModel(string)      {}
func (m *mockProvider) APIKey() string       { return m.key }
func (m *mockProvider) SetAPIKey(k string)   { m.key = k }

func (m *mockProvider) GenerateResponse(_ context.Context, prompt string, maxTokens int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	m.maxTokens = append(m.maxTokens, maxTokens)
	return m.reply, m.err
}

func (m *mockProvider) ValidateKey(_ context.Context, key string) bool {
	if key == "good" {
		m.key = key
		return true
	}
	return false
}

func (m *mockProvider) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

type mockSource struct {
	active providers.Provider
}

func (s *mockSource) Active() (providers.Provider, error) {
	if s.active == nil {
		return nil, providers.ErrNoProviderSelected
	}
	return s.active, nil
}

func (s *mockSource) Get(t providers.Type) providers.Provider {
	if s.active != nil && s.active.Type() == t {
		return s.active
	}
	return nil
}

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("Why this role?", "I build APIs.", ModeSTARMethod, StyleConcise, 80)
	want := "Interview Question: Why this role?\n\n" +
		"Script/Context: I build APIs.\n\n" +
		"Structure the response using STAR method (Situation, Task, Action, Result).\n\n" +
		"Be brief and to the point, get to the answer quickly.\n\n" +
		"Keep the response to approximately 80 words.\n\n" +
		"Suggested Response:"
	assert.Equal(t, want, got)
}

func TestBuildPromptIsPure(t *testing.T) {
	for _, m := range AllModes {
		for _, s := range AllStyles {
			a := BuildPrompt("q", "ctx", m, s, 100)
			b := BuildPrompt("q", "ctx", m, s, 100)
			assert.Equal(t, a, b)
			assert.Contains(t, a, m.instruction())
			assert.Contains(t, a, s.instruction())
		}
	}
}

func TestBuildPromptCustomInstructions(t *testing.T) {
	got := buildPrompt("q", "ctx", ModeCustom, StyleProfessional, 50, "Answer like a pirate")
	assert.Contains(t, got, "Respond according to custom instructions if provided.\nCustom instructions: Answer like a pirate\n\n")

	// ignored outside custom mode
	got = buildPrompt("q", "ctx", ModeInterviewCoach, StyleProfessional, 50, "Answer like a pirate")
	assert.NotContains(t, got, "pirate")
}

func TestParseFollowUps(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"blank lines and cap", "Q1\n\nQ2\nQ3\nQ4", []string{"Q1", "Q2", "Q3"}},
		{"numbered", "1. What next?\n2) Why?\n3. How?", []string{"What next?", "Why?", "How?"}},
		{"bullets", "- One?\n* Two?\n  \n", []string{"One?", "Two?"}},
		{"empty", "\n \n", nil},
		{"crlf", "A?\r\nB?", []string{"A?", "B?"}},
		{"leading digits kept", "2024 goals?", []string{"2024 goals?"}},
		{"decimal kept", "3.5 years at Acme: what did you learn?\nQ2", []string{"3.5 years at Acme: what did you learn?", "Q2"}},
		{"marker without space kept", "2)b", []string{"2)b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFollowUps(tt.raw))
		})
	}
}

func TestGenerateInterviewResponse(t *testing.T) {
	p := &mockProvider{kind: providers.Anthropic, reply: "Suggested answer"}
	c := NewClient(&mockSource{active: p}, 0)

	got, err := c.GenerateInterviewResponse(context.Background(), "q", "ctx", ModeInterviewCoach, StyleDetailed, 120)
	require.NoError(t, err)
	assert.Equal(t, "Suggested answer", got)
	assert.Equal(t, []int{240}, p.maxTokens)
	assert.Equal(t, BuildPrompt("q", "ctx", ModeInterviewCoach, StyleDetailed, 120), p.prompts[0])
}

func TestGenerateWithoutProvider(t *testing.T) {
	c := NewClient(&mockSource{}, time.Minute)

	_, err := c.GenerateInterviewResponse(context.Background(), "q", "ctx", ModeInterviewCoach, StyleProfessional, 100)
	assert.ErrorIs(t, err, providers.ErrNoProviderSelected)

	_, err = c.GenerateFollowUps(context.Background(), "q")
	assert.ErrorIs(t, err, providers.ErrNoProviderSelected)
}

func TestGenerateErrorKeepsTaxonomy(t *testing.T) {
	p := &mockProvider{kind: providers.OpenAI, err: providers.ErrRateLimited}
	c := NewClient(&mockSource{active: p}, 0)

	_, err := c.GenerateInterviewResponse(context.Background(), "q", "ctx", ModeInterviewCoach, StyleProfessional, 100)
	assert.True(t, errors.Is(err, providers.ErrRateLimited))
}

func TestGenerateFollowUps(t *testing.T) {
	p := &mockProvider{kind: providers.OpenAI, reply: "A?\nB?\nC?\nD?"}
	c := NewClient(&mockSource{active: p}, time.Minute)

	got, err := c.GenerateFollowUps(context.Background(), "Tell me about a conflict")
	require.NoError(t, err)
	assert.Equal(t, []string{"A?", "B?", "C?"}, got)
	assert.Equal(t, []int{followUpMaxTokens}, p.maxTokens)
	assert.True(t, strings.HasSuffix(p.prompts[0], "one per line, no numbering."))

	// cached
	got[0] = "mutated"
	again, err := c.GenerateFollowUps(context.Background(), "Tell me about a conflict")
	require.NoError(t, err)
	assert.Equal(t, []string{"A?", "B?", "C?"}, again)
	assert.Equal(t, 1, p.calls())
}

func TestFollowUpPromptByFamily(t *testing.T) {
	assert.True(t, strings.HasSuffix(followUpPrompt("q", providers.FamilyAnthropic), "one per line."))
	assert.True(t, strings.HasSuffix(followUpPrompt("q", providers.FamilyGoogle), "one per line."))
	assert.Contains(t, followUpPrompt("Why Go?", providers.FamilyOpenAI), "Question: Why Go?")
}

func TestFollowUpsNotCachedWhenDisabled(t *testing.T) {
	p := &mockProvider{kind: providers.Google, reply: "A?"}
	c := NewClient(&mockSource{active: p}, 0)

	_, _ = c.GenerateFollowUps(context.Background(), "q")
	_, _ = c.GenerateFollowUps(context.Background(), "q")
	assert.Equal(t, 2, p.calls())
}

func TestValidateKey(t *testing.T) {
	p := &mockProvider{kind: providers.OpenAI, key: "old"}
	c := NewClient(&mockSource{active: p}, 0)

	assert.False(t, c.ValidateKey(context.Background(), providers.OpenAI, "bad"))
	assert.Equal(t, "old", p.key)
	assert.True(t, c.ValidateKey(context.Background(), providers.OpenAI, "good"))
	assert.Equal(t, "good", p.key)
	assert.False(t, c.ValidateKey(context.Background(), providers.Google, "good"))
}

func TestParseModeAndStyle(t *testing.T) {
	modes := map[string]Mode{
		"coach":           ModeInterviewCoach,
		"Interview Coach": ModeInterviewCoach,
		"qa":              ModeQAGenerator,
		"Q&A Generator":   ModeQAGenerator,
		"star":            ModeSTARMethod,
		"STAR Method":     ModeSTARMethod,
		"keywords":        ModeKeywordBooster,
		"custom":          ModeCustom,
	}
	for in, want := range modes {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("haiku")
	assert.Error(t, err)

	styles := map[string]Style{
		"professional":    StyleProfessional,
		"Casual/Friendly": StyleCasual,
		"casual":          StyleCasual,
		"concise":         StyleConcise,
		"Detailed":        StyleDetailed,
	}
	for in, want := range styles {
		got, err := ParseStyle(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err = ParseStyle("sarcastic")
	assert.Error(t, err)
}

func TestConfidence(t *testing.T) {
	script := "I migrated our billing service to Go and cut latency in half."

	assert.Equal(t, 0.0, Confidence("", script))
	assert.Equal(t, 0.0, Confidence("Astronomy telescopes galaxies", script))
	assert.Equal(t, 1.0, Confidence("Migrated billing service latency", script))

	c := Confidence("I migrated billing and enjoyed gardening", script)
	assert.Greater(t, c, 0.0)
	assert.Less(t, c, 1.0)
}
