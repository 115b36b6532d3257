// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"voiceflow/internal/providers"
	"voiceflow/internal/session"
)

type ProviderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
	APIKey  string `yaml:"api_key,omitempty"`
}

type Config struct {
	Variant   string                    `yaml:"variant"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	AI        struct {
		Provider             string `yaml:"provider,omitempty"`
		Mode                 string `yaml:"mode,omitempty"`
		Style                string `yaml:"style,omitempty"`
		CustomInstructions   string `yaml:"custom_instructions,omitempty"`
		MaxResponseLength    int    `yaml:"max_response_length"`
		ShowFollowUps        *bool  `yaml:"show_follow_ups,omitempty"`
		RequestTimeout       int    `yaml:"request_timeout_seconds"`
		MinRequestInterval   int    `yaml:"min_request_interval_ms"`
		FollowUpCacheMinutes int    `yaml:"follow_up_cache_minutes"`
	} `yaml:"ai"`
	Voice struct {
		Command     string   `yaml:"command,omitempty"`
		Args        []string `yaml:"args,omitempty"`
		ControlPort int      `yaml:"control_port"` // 0 disables the control server
	} `yaml:"voice"`
	Display struct {
		TickHz        int     `yaml:"tick_hz"`
		PointsPerLine float64 `yaml:"points_per_line"`
	} `yaml:"display"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file,omitempty"`
	} `yaml:"log"`
}

// Load reads .env from the working directory and then the default config file
func Load() (*Config, error) {
	return LoadFile(ConfigPath())
}

// LoadFile loads path. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Parse expands ${VAR} references and decodes data
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := defaultConfig()
	cfg.Providers = nil
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Variant = session.VoiceFlow.String()
	cfg.Providers = make(map[string]ProviderConfig)
	for _, t := range providers.AllTypes {
		cfg.Providers[string(t)] = ProviderConfig{Enabled: true}
	}
	cfg.AI.Mode = "coach"
	cfg.AI.Style = "professional"
	cfg.AI.MaxResponseLength = session.DefaultResponseLength
	cfg.AI.RequestTimeout = 30
	cfg.AI.MinRequestInterval = 1000
	cfg.AI.FollowUpCacheMinutes = 30
	cfg.Display.TickHz = 60
	cfg.Display.PointsPerLine = 24
	cfg.Log.Level = "info"
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Variant == "" {
		cfg.Variant = session.VoiceFlow.String()
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
		for _, t := range providers.AllTypes {
			cfg.Providers[string(t)] = ProviderConfig{Enabled: true}
		}
	}
	if cfg.AI.MaxResponseLength == 0 {
		cfg.AI.MaxResponseLength = session.DefaultResponseLength
	}
	if cfg.AI.RequestTimeout == 0 {
		cfg.AI.RequestTimeout = 30
	}
	if cfg.Display.TickHz == 0 {
		cfg.Display.TickHz = 60
	}
	if cfg.Display.PointsPerLine == 0 {
		cfg.Display.PointsPerLine = 24
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func ConfigPath() string {
	configDir, _ := os.UserConfigDir()
	if configDir == "" {
		configDir = os.ExpandEnv("$HOME/.config")
	}
	return filepath.Join(configDir, "voiceflow", "config.yaml")
}

// SessionVariant parses the variant setting
func (c *Config) SessionVariant() (session.Variant, error) {
	return session.ParseVariant(c.Variant)
}

// ProviderSettings converts the providers section for the registry. Unknown
// vendor names are reported as an error.
func (c *Config) ProviderSettings() (map[providers.Type]providers.Settings, error) {
	out := make(map[providers.Type]providers.Settings, len(c.Providers))
	for name, pc := range c.Providers {
		t, err := providers.ParseType(name)
		if err != nil {
			return nil, fmt.Errorf("providers.%s: %w", name, err)
		}
		out[t] = providers.Settings{
			Enabled: pc.Enabled,
			Model:   pc.Model,
			BaseURL: pc.BaseURL,
			APIKey:  pc.APIKey,
		}
	}
	return out, nil
}

// Preferences returns the ai section as session defaults. Persisted
// preferences are merged over these.
func (c *Config) Preferences() session.Preferences {
	var p session.Preferences
	if c.AI.Provider != "" {
		p.Provider = session.Ptr(c.AI.Provider)
		if pc, ok := c.lookupProvider(c.AI.Provider); ok && pc.Model != "" {
			p.Model = session.Ptr(pc.Model)
		}
	}
	if c.AI.Mode != "" {
		p.Mode = session.Ptr(c.AI.Mode)
	}
	if c.AI.Style != "" {
		p.Style = session.Ptr(c.AI.Style)
	}
	if c.AI.MaxResponseLength != 0 {
		p.MaxResponseLength = session.Ptr(c.AI.MaxResponseLength)
	}
	p.ShowFollowUps = c.AI.ShowFollowUps
	return p
}

func (c *Config) lookupProvider(name string) (ProviderConfig, bool) {
	t, err := providers.ParseType(name)
	if err != nil {
		return ProviderConfig{}, false
	}
	for k, pc := range c.Providers {
		if kt, err := providers.ParseType(k); err == nil && kt == t {
			return pc, true
		}
	}
	return ProviderConfig{}, false
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.AI.RequestTimeout) * time.Second
}

func (c *Config) MinRequestInterval() time.Duration {
	return time.Duration(c.AI.MinRequestInterval) * time.Millisecond
}

func (c *Config) FollowUpTTL() time.Duration {
	return time.Duration(c.AI.FollowUpCacheMinutes) * time.Minute
}

// KeySource is a credential store. *keychain.Store satisfies it.
type KeySource interface {
	Get(t providers.Type) (string, bool)
}

// Where an API key came from
const (
	KeySourceNone     = ""
	KeySourceKeychain = "keychain"
	KeySourceConfig   = "config"
	KeySourceEnv      = "env"
)

// ResolveAPIKey finds the key for t: keychain first, then the config file,
// then the vendor environment variable. keys may be nil.
func (c *Config) ResolveAPIKey(t providers.Type, keys KeySource) (key, source string) {
	if keys != nil {
		if k, ok := keys.Get(t); ok && k != "" {
			return k, KeySourceKeychain
		}
	}
	if pc, ok := c.lookupProvider(string(t)); ok {
		if k := strings.TrimSpace(pc.APIKey); k != "" {
			return k, KeySourceConfig
		}
	}
	if env := t.EnvVar(); env != "" {
		if k := strings.TrimSpace(os.Getenv(env)); k != "" {
			return k, KeySourceEnv
		}
	}
	return "", KeySourceNone
}
