// internal/db/autosave.go
package db

import (
	"log/slog"
	"sync"
	"time"

	"voiceflow/internal/session"
)

// ScriptAutosave writes the session script to the database shortly after each
// change, so a killed process keeps the last loaded or edited script.
type ScriptAutosave struct {
	db    *Store
	delay time.Duration

	mu      sync.Mutex
	last    string
	dirty   bool
	timer   *time.Timer
	stopped bool

	unsubscribe func()
}

// AutosaveScript subscribes to store and saves script changes after delay
// has passed without a further change.
func (s *Store) AutosaveScript(store *session.Store, delay time.Duration) *ScriptAutosave {
	a := &ScriptAutosave{db: s, delay: delay, last: store.Snapshot().Script}
	a.unsubscribe = store.Subscribe(a.observe)
	return a
}

// observe runs on the mutating goroutine for every store change, including
// scroll ticks, so it only compares and re-arms the timer.
func (a *ScriptAutosave) observe(st session.State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped || st.Script == a.last {
		return
	}
	a.last = st.Script
	a.dirty = true
	if a.timer == nil {
		a.timer = time.AfterFunc(a.delay, a.Flush)
	} else {
		a.timer.Reset(a.delay)
	}
}

// Flush saves a pending change now
func (a *ScriptAutosave) Flush() {
	a.mu.Lock()
	if !a.dirty {
		a.mu.Unlock()
		return
	}
	text := a.last
	a.dirty = false
	a.mu.Unlock()

	if err := a.db.SaveScript(text); err != nil {
		slog.Error("failed to save script", "error", err)
		return
	}
	slog.Debug("script saved", "bytes", len(text))
}

// Stop unsubscribes and writes any pending change
func (a *ScriptAutosave) Stop() {
	a.unsubscribe()
	a.mu.Lock()
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
	}
	a.mu.Unlock()
	a.Flush()
}
