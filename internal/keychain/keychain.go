// internal/keychain/keychain.go
package keychain

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"

	"voiceflow/internal/providers"
)

// ServiceName groups every VoiceFlow secret in the OS credential store
const ServiceName = "com.voiceflow.app"

// passwordEnv unlocks the encrypted-file fallback without a terminal prompt
const passwordEnv = "VOICEFLOW_KEYRING_PASSWORD"

// ErrPasswordRequired is returned by the non-interactive prompt when the
// encrypted-file fallback needs a password and none is configured
var ErrPasswordRequired = errors.New("keyring password required: set " + passwordEnv)

// Store keeps one API key per provider
type Store struct {
	ring keyring.Keyring
}

// Open connects to the platform credential store. Where no native store
// exists, keys go to an encrypted file under dataDir. interactive allows a
// terminal password prompt for that file; the full-screen overlay owns the
// terminal and passes false.
func Open(dataDir string, interactive bool) (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:              ServiceName,
		KeychainTrustApplication: true,
		LibSecretCollectionName:  "login",
		FileDir:                  filepath.Join(dataDir, "keys"),
		FilePasswordFunc:         PasswordPrompt(interactive),
	})
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return New(ring), nil
}

// PasswordPrompt returns the file backend's password source: the
// VOICEFLOW_KEYRING_PASSWORD value when set, else a terminal prompt when
// interactive, else a prompt that fails with ErrPasswordRequired.
func PasswordPrompt(interactive bool) keyring.PromptFunc {
	if pw := os.Getenv(passwordEnv); pw != "" {
		return keyring.FixedStringPrompt(pw)
	}
	if interactive {
		return keyring.TerminalPrompt
	}
	return func(string) (string, error) {
		return "", ErrPasswordRequired
	}
}

// New wraps an existing keyring
func New(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Save stores key for t, replacing any previous value
func (s *Store) Save(t providers.Type, key string) error {
	err := s.ring.Set(keyring.Item{
		Key:         string(t),
		Data:        []byte(key),
		Label:       fmt.Sprintf("VoiceFlow %s API key", t),
		Description: "API key",
	})
	if err != nil {
		return fmt.Errorf("save %s key: %w", t, err)
	}
	slog.Info("api key saved", "provider", string(t))
	return nil
}

// Get returns the stored key for t. A missing entry returns "", false.
func (s *Store) Get(t providers.Type) (string, bool) {
	item, err := s.ring.Get(string(t))
	if err != nil {
		if !errors.Is(err, keyring.ErrKeyNotFound) {
			slog.Warn("keyring read failed", "provider", string(t), "error", err)
		}
		return "", false
	}
	if len(item.Data) == 0 {
		return "", false
	}
	return string(item.Data), true
}

// Delete removes the key for t. A missing entry is not an error.
func (s *Store) Delete(t providers.Type) error {
	err := s.ring.Remove(string(t))
	if err == nil || errors.Is(err, keyring.ErrKeyNotFound) || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("delete %s key: %w", t, err)
}

// DeleteAll removes the key of every provider
func (s *Store) DeleteAll() error {
	var errs []error
	for _, t := range providers.AllTypes {
		if err := s.Delete(t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stored lists the providers that currently have a key
func (s *Store) Stored() []providers.Type {
	var out []providers.Type
	for _, t := range providers.AllTypes {
		if _, ok := s.Get(t); ok {
			out = append(out, t)
		}
	}
	return out
}
