package main

import (
	"fmt"
	"log/slog"

	"voiceflow/internal/ai"
	"voiceflow/internal/config"
	"voiceflow/internal/db"
	"voiceflow/internal/keychain"
	"voiceflow/internal/orchestrator"
	"voiceflow/internal/providers"
	"voiceflow/internal/session"
)

// services are the long-lived pieces shared by the overlay and the one-shot commands
type services struct {
	cfg      *config.Config
	dataDir  string
	store    *session.Store
	db       *db.Store // nil when the database could not be opened
	keys     *keychain.Store
	registry *providers.Registry
	ai       *ai.Client
	orch     *orchestrator.Orchestrator

	// persist saves the session preferences on close
	persist bool
}

// newServices wires the shared services. interactive is false for the
// full-screen overlay, which must never block on a terminal prompt.
func newServices(f *rootFlags, interactive bool) (*services, error) {
	cfg := f.cfg
	variant, err := cfg.SessionVariant()
	if err != nil {
		return nil, err
	}
	settings, err := cfg.ProviderSettings()
	if err != nil {
		return nil, err
	}

	s := &services{cfg: cfg, dataDir: f.dataDir}

	s.db, err = db.Open()
	if err != nil {
		slog.Warn("history and preferences disabled", "error", err)
		s.db = nil
	}

	s.keys, err = keychain.Open(f.dataDir, interactive)
	if err != nil {
		slog.Warn("keychain unavailable, using config and environment keys only", "error", err)
		s.keys = nil
	}

	prefs := cfg.Preferences()
	if s.db != nil {
		saved, err := s.db.LoadPreferences()
		if err != nil {
			slog.Warn("failed to load preferences", "error", err)
		} else {
			prefs = prefs.Merge(saved)
		}
	}
	s.store = session.NewStore(variant, prefs)

	s.registry = providers.NewRegistry(settings)
	s.ai = ai.NewClient(s.registry, cfg.FollowUpTTL())
	s.ai.SetCustomInstructions(cfg.AI.CustomInstructions)

	var history orchestrator.History
	if s.db != nil {
		history = s.db
	}
	s.orch = orchestrator.New(s.store, s.ai, history, orchestrator.Options{
		Timeout:     cfg.RequestTimeout(),
		MinInterval: cfg.MinRequestInterval(),
	})

	if st := s.store.Snapshot(); st.Provider != "" {
		if err := s.selectProvider(st.Provider, st.Model); err != nil {
			slog.Warn("failed to restore provider", "provider", st.Provider, "error", err)
		}
	}
	return s, nil
}

func (s *services) keySource() config.KeySource {
	if s.keys == nil {
		return nil
	}
	return s.keys
}

// selectProvider activates t with the best available key
func (s *services) selectProvider(t providers.Type, model string) error {
	key, source := s.cfg.ResolveAPIKey(t, s.keySource())
	p, err := s.registry.Select(t, key, model)
	if err != nil {
		return err
	}
	s.store.SetProvider(t, p.Model())
	s.store.SetAPIKey(key)
	slog.Debug("api key resolved", "provider", t, "source", source)
	if key == "" {
		return fmt.Errorf("no API key for %s: run `voiceflow keys set %s` or set %s", t, t, t.EnvVar())
	}
	return nil
}

// close waits for in-flight requests and releases the database
func (s *services) close() {
	s.orch.Close()
	if s.db == nil {
		return
	}
	if s.persist {
		if err := s.db.SavePreferences(s.store.Snapshot().Preferences()); err != nil {
			slog.Error("failed to save preferences", "error", err)
		}
	}
	if err := s.db.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
}
