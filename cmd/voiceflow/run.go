package main

import (
	"context"
	"log/slog"
	"time"

	"voiceflow/internal/script"
	"voiceflow/internal/scroll"
	"voiceflow/internal/ui"
	"voiceflow/internal/voice"
)

// scriptSaveDelay batches bursts of script edits into one write
const scriptSaveDelay = 500 * time.Millisecond

func runOverlay(ctx context.Context, f *rootFlags) error {
	svc, err := newServices(f, false)
	if err != nil {
		return err
	}
	svc.persist = true
	defer svc.close()

	if svc.db != nil {
		autosave := svc.db.AutosaveScript(svc.store, scriptSaveDelay)
		defer autosave.Stop()
	}

	cfg := svc.cfg
	if f.scriptPath != "" {
		text, err := script.Load(f.scriptPath)
		if err != nil {
			return err
		}
		svc.store.SetScript(text)
	}

	engine := scroll.NewEngine(svc.store, cfg.Display.TickHz)
	defer engine.Close()

	listener := voice.NewListener(svc.store, cfg.Voice.Command, cfg.Voice.Args, func(question string) {
		if _, err := svc.orch.Request(ctx, question); err != nil {
			slog.Debug("transcript not sent for a suggestion", "error", err)
		}
	})
	defer listener.Stop()

	model := ui.New(ui.Deps{
		Store:         svc.store,
		Engine:        engine,
		Orchestrator:  svc.orch,
		AI:            svc.ai,
		Registry:      svc.registry,
		Keys:          svc.keys,
		DB:            svc.db,
		Listener:      listener,
		Config:        cfg,
		DataDir:       svc.dataDir,
		PointsPerLine: cfg.Display.PointsPerLine,
	})

	if port := cfg.Voice.ControlPort; port > 0 {
		server := voice.NewServer(svc.store, listener, model.Dispatcher())
		addr, err := server.Start(port)
		if err != nil {
			slog.Error("control server failed to start", "port", port, "error", err)
		} else {
			slog.Info("control server listening", "addr", addr)
			defer server.Stop()
		}
	}

	return ui.Run(ctx, model)
}
