// internal/providers/types.go
package providers

import (
	"fmt"
	"strings"
)

// Type identifies an AI vendor
type Type string

const (
	OpenAI    Type = "openai"
	Anthropic Type = "anthropic"
	Google    Type = "google"
	DeepSeek  Type = "deepseek"
	XAI       Type = "xai"
	Minimax   Type = "minimax"
)

// AllTypes lists every supported vendor in display order
var AllTypes = []Type{OpenAI, Anthropic, Google, DeepSeek, XAI, Minimax}

// Family is the wire format an adapter speaks
type Family int

const (
	FamilyOpenAI Family = iota
	FamilyAnthropic
	FamilyGoogle
)

type typeInfo struct {
	name    string
	family  Family
	models  []string
	model   string // default wire model
	baseURL string
	envVar  string
}

var typeTable = map[Type]typeInfo{
	OpenAI: {
		name:    "OpenAI",
		family:  FamilyOpenAI,
		models:  []string{"gpt-5.2", "gpt-5.1", "gpt-realtime-mini"},
		model:   "gpt-5.1",
		baseURL: "https://api.openai.com/v1/",
		envVar:  "OPENAI_API_KEY",
	},
	Anthropic: {
		name:    "Anthropic",
		family:  FamilyAnthropic,
		models:  []string{"claude-opus-4.5", "claude-sonnet-4.5", "claude-haiku-3.5"},
		model:   "claude-sonnet-4.5",
		baseURL: "https://api.anthropic.com/",
		envVar:  "ANTHROPIC_API_KEY",
	},
	Google: {
		name:    "Google",
		family:  FamilyGoogle,
		models:  []string{"gemini-2.5-pro", "gemini-2.0-flash"},
		model:   "gemini-2.0-flash",
		baseURL: "https://generativelanguage.googleapis.com/",
		envVar:  "GEMINI_API_KEY",
	},
	DeepSeek: {
		name:    "DeepSeek",
		family:  FamilyOpenAI,
		models:  []string{"deepseek-chat", "deepseek-coder"},
		model:   "deepseek-chat",
		baseURL: "https://api.deepseek.com/v1/",
		envVar:  "DEEPSEEK_API_KEY",
	},
	XAI: {
		name:    "xAI",
		family:  FamilyOpenAI,
		models:  []string{"grok-2", "grok-2-vision"},
		model:   "grok-2",
		baseURL: "https://api.x.ai/v1/",
		envVar:  "XAI_API_KEY",
	},
	Minimax: {
		name:    "Minimax",
		family:  FamilyOpenAI,
		models:  []string{"text-01"},
		model:   "text-01",
		baseURL: "https://api.minimax.io/v1/",
		envVar:  "MINIMAX_API_KEY",
	},
}

// String returns the display name
func (t Type) String() string {
	if info, ok := typeTable[t]; ok {
		return info.name
	}
	return string(t)
}

// Valid reports whether t is a known vendor
func (t Type) Valid() bool {
	_, ok := typeTable[t]
	return ok
}

// Family returns the wire format used for t
func (t Type) Family() Family {
	return typeTable[t].family
}

// Models returns the selectable model identifiers for t
func (t Type) Models() []string {
	models := typeTable[t].models
	out := make([]string, len(models))
	copy(out, models)
	return out
}

// DefaultModel returns the model used when none is configured
func (t Type) DefaultModel() string {
	return typeTable[t].model
}

// BaseURL returns the vendor endpoint root (with trailing slash)
func (t Type) BaseURL() string {
	return typeTable[t].baseURL
}

// EnvVar returns the environment variable consulted for the API key
func (t Type) EnvVar() string {
	return typeTable[t].envVar
}

// HasModel reports whether model is in the fixed list for t
func (t Type) HasModel(model string) bool {
	for _, m := range typeTable[t].models {
		if m == model {
			return true
		}
	}
	return false
}

// ParseType accepts the identifier or display name, case-insensitively
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range AllTypes {
		if s == string(t) || s == strings.ToLower(t.String()) {
			return t, nil
		}
	}
	switch s {
	case "gpt", "chatgpt":
		return OpenAI, nil
	case "claude":
		return Anthropic, nil
	case "gemini":
		return Google, nil
	case "grok", "x.ai":
		return XAI, nil
	}
	return "", fmt.Errorf("unknown provider %q", s)
}
