// internal/providers/providers_test.go
package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newVendor starts a server that answers every request with status and body
func newVendor(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32, *atomic.Value) {
	t.Helper()
	var hits atomic.Int32
	var last atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		data, _ := io.ReadAll(r.Body)
		last.Store(string(data))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits, &last
}

const (
	openAIOK    = `{"id":"x","object":"chat.completion","created":1,"model":"gpt-5.1","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  I led the migration.  "}}]}`
	anthropicOK = `{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5","content":[{"type":"text","text":"I led the migration."}],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1}}`
	googleOK    = `{"candidates":[{"content":{"role":"model","parts":[{"text":"I led the migration."}]}}]}`

	openAIErr    = `{"error":{"message":"boom","type":"error"}}`
	anthropicErr = `{"type":"error","error":{"type":"error","message":"boom"}}`
)

type adapterCase struct {
	name    string
	make    func(key, baseURL string) Provider
	ok      string
	errBody func(code int) string
	empty   string // 200 with no text
}

func adapterCases() []adapterCase {
	return []adapterCase{
		{
			name:    "openai",
			make:    func(key, u string) Provider { return NewOpenAIProvider(OpenAI, key, "", u) },
			ok:      openAIOK,
			errBody: func(int) string { return openAIErr },
			empty:   `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`,
		},
		{
			name:    "deepseek",
			make:    func(key, u string) Provider { return NewOpenAIProvider(DeepSeek, key, "", u) },
			ok:      openAIOK,
			errBody: func(int) string { return openAIErr },
			empty:   `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`,
		},
		{
			name:    "anthropic",
			make:    func(key, u string) Provider { return NewAnthropicProvider(key, "", u) },
			ok:      anthropicOK,
			errBody: func(int) string { return anthropicErr },
			empty:   `{"id":"msg_1","type":"message","role":"assistant","model":"m","content":[]}`,
		},
		{
			name: "google",
			make: func(key, u string) Provider { return NewGoogleProvider(key, "", u) },
			ok:   googleOK,
			errBody: func(code int) string {
				status := "INTERNAL"
				switch code {
				case 401:
					status = "UNAUTHENTICATED"
				case 429:
					status = "RESOURCE_EXHAUSTED"
				}
				b, _ := json.Marshal(map[string]any{"error": map[string]any{"code": code, "message": "boom", "status": status}})
				return string(b)
			},
			empty: `{"candidates":[]}`,
		},
	}
}

func TestGenerateResponseSuccess(t *testing.T) {
	for _, tc := range adapterCases() {
		t.Run(tc.name, func(t *testing.T) {
			srv, hits, _ := newVendor(t, http.StatusOK, tc.ok)
			p := tc.make("sk-test", srv.URL+"/")

			text, err := p.GenerateResponse(context.Background(), "Tell me about yourself", 200)
			require.NoError(t, err)
			assert.Equal(t, "I led the migration.", text)
			assert.Equal(t, int32(1), hits.Load())
		})
	}
}

func TestGenerateResponseEmptyKeyMakesNoRequest(t *testing.T) {
	for _, tc := range adapterCases() {
		t.Run(tc.name, func(t *testing.T) {
			srv, hits, _ := newVendor(t, http.StatusOK, tc.ok)
			p := tc.make("", srv.URL+"/")

			_, err := p.GenerateResponse(context.Background(), "hello", 10)
			assert.ErrorIs(t, err, ErrInvalidAPIKey)
			assert.Equal(t, int32(0), hits.Load())
		})
	}
}

func TestGenerateResponseStatusMapping(t *testing.T) {
	statuses := []struct {
		code int
		want error
	}{
		{http.StatusUnauthorized, ErrInvalidAPIKey},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusInternalServerError, ErrNetwork},
		{http.StatusForbidden, ErrNetwork},
	}
	for _, tc := range adapterCases() {
		for _, st := range statuses {
			t.Run(tc.name+"/"+http.StatusText(st.code), func(t *testing.T) {
				srv, hits, _ := newVendor(t, st.code, tc.errBody(st.code))
				p := tc.make("sk-test", srv.URL+"/")

				_, err := p.GenerateResponse(context.Background(), "hello", 10)
				assert.ErrorIs(t, err, st.want)
				assert.Equal(t, int32(1), hits.Load(), "no retries")
			})
		}
	}
}

func TestGenerateResponseMalformedBody(t *testing.T) {
	for _, tc := range adapterCases() {
		t.Run(tc.name+"/garbage", func(t *testing.T) {
			srv, _, _ := newVendor(t, http.StatusOK, `{not json`)
			p := tc.make("sk-test", srv.URL+"/")

			_, err := p.GenerateResponse(context.Background(), "hello", 10)
			assert.ErrorIs(t, err, ErrInvalidResponse)
		})
		t.Run(tc.name+"/missing text", func(t *testing.T) {
			srv, _, _ := newVendor(t, http.StatusOK, tc.empty)
			p := tc.make("sk-test", srv.URL+"/")

			_, err := p.GenerateResponse(context.Background(), "hello", 10)
			assert.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}

func TestGenerateResponseUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/"
	srv.Close()

	p := NewOpenAIProvider(OpenAI, "sk-test", "", url)
	_, err := p.GenerateResponse(context.Background(), "hello", 10)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestGenerateResponseCancelled(t *testing.T) {
	srv, _, _ := newVendor(t, http.StatusOK, openAIOK)
	p := NewOpenAIProvider(OpenAI, "sk-test", "", srv.URL+"/")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.GenerateResponse(ctx, "hello", 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenAIRequestBody(t *testing.T) {
	srv, _, last := newVendor(t, http.StatusOK, openAIOK)
	p := NewOpenAIProvider(XAI, "sk-test", "grok-2", srv.URL+"/")

	_, err := p.GenerateResponse(context.Background(), "the prompt", 64)
	require.NoError(t, err)

	var body struct {
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal([]byte(last.Load().(string)), &body))
	assert.Equal(t, "grok-2", body.Model)
	assert.Equal(t, 64, body.MaxTokens)
	assert.InDelta(t, 0.7, body.Temperature, 1e-9)
	require.Len(t, body.Messages, 2)
	assert.Equal(t, "system", body.Messages[0].Role)
	assert.Equal(t, coachSystemPrompt, body.Messages[0].Content)
	assert.Equal(t, "user", body.Messages[1].Role)
	assert.Equal(t, "the prompt", body.Messages[1].Content)
}

func TestAnthropicRequestBody(t *testing.T) {
	srv, _, last := newVendor(t, http.StatusOK, anthropicOK)
	p := NewAnthropicProvider("sk-ant", "claude-haiku-3.5", srv.URL+"/")

	_, err := p.GenerateResponse(context.Background(), "the prompt", 32)
	require.NoError(t, err)

	body := last.Load().(string)
	assert.Contains(t, body, `"model":"claude-3-5-haiku-latest"`)
	assert.Contains(t, body, `"max_tokens":32`)
	assert.Contains(t, body, "the prompt")
}

func TestValidateKey(t *testing.T) {
	for _, tc := range adapterCases() {
		t.Run(tc.name+"/success installs key", func(t *testing.T) {
			srv, _, _ := newVendor(t, http.StatusOK, tc.ok)
			p := tc.make("old-key", srv.URL+"/")

			assert.True(t, p.ValidateKey(context.Background(), "new-key"))
			assert.Equal(t, "new-key", p.APIKey())
		})
		t.Run(tc.name+"/failure restores key", func(t *testing.T) {
			srv, _, _ := newVendor(t, http.StatusUnauthorized, tc.errBody(401))
			p := tc.make("old-key", srv.URL+"/")

			assert.False(t, p.ValidateKey(context.Background(), "bad-key"))
			assert.Equal(t, "old-key", p.APIKey())
		})
	}
}

func TestValidateKeyEmptyCandidate(t *testing.T) {
	srv, hits, _ := newVendor(t, http.StatusOK, openAIOK)
	p := NewOpenAIProvider(OpenAI, "old-key", "", srv.URL+"/")

	assert.False(t, p.ValidateKey(context.Background(), ""))
	assert.Equal(t, "old-key", p.APIKey())
	assert.Equal(t, int32(0), hits.Load())
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Rate limited. Please wait and try again.", UserMessage(ErrRateLimited))
	assert.Equal(t, "Invalid API key. Please check your settings.", UserMessage(classify(&http.Response{StatusCode: 401}, io.EOF)))
	assert.Equal(t, "No AI provider selected. Please configure an API key.", UserMessage(ErrNoProviderSelected))
	assert.Empty(t, UserMessage(nil))
	assert.True(t, strings.HasPrefix(UserMessage(classify(nil, io.ErrUnexpectedEOF)), "Network error"))
}
