// internal/db/autosave_test.go
package db

import (
	"testing"
	"time"

	"voiceflow/internal/session"
)

func savedScript(t *testing.T, store *Store) string {
	t.Helper()
	p, err := store.LoadPreferences()
	if err != nil {
		t.Fatalf("LoadPreferences() failed: %v", err)
	}
	if p.Script == nil {
		return ""
	}
	return *p.Script
}

func TestAutosaveScriptAfterDelay(t *testing.T) {
	store := openTestStore(t)
	sess := session.NewStore(session.VoiceFlow, session.Preferences{})

	a := store.AutosaveScript(sess, 10*time.Millisecond)
	defer a.Stop()

	sess.SetScript("first draft")
	sess.AppendToScript("more")

	deadline := time.Now().Add(2 * time.Second)
	for savedScript(t, store) != "first draft\n\nmore" {
		if time.Now().After(deadline) {
			t.Fatalf("script not saved, got %q", savedScript(t, store))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestAutosaveScriptStopFlushes(t *testing.T) {
	store := openTestStore(t)
	sess := session.NewStore(session.VoiceFlow, session.Preferences{})

	a := store.AutosaveScript(sess, time.Hour)
	sess.SetScript("hello")
	a.Stop()

	if got := savedScript(t, store); got != "hello" {
		t.Errorf("saved script = %q, want hello", got)
	}

	sess.SetScript("after stop")
	a.Flush()
	if got := savedScript(t, store); got != "hello" {
		t.Errorf("saved script after Stop = %q, want hello", got)
	}
}

func TestAutosaveScriptIgnoresOtherChanges(t *testing.T) {
	store := openTestStore(t)
	sess := session.NewStore(session.VoiceFlow, session.Preferences{})

	a := store.AutosaveScript(sess, time.Hour)
	sess.SetSpeed(2)
	sess.SetScrolling(true)
	sess.Advance()
	a.Stop()

	p, err := store.LoadPreferences()
	if err != nil {
		t.Fatal(err)
	}
	if p.Script != nil {
		t.Errorf("script saved without a script change: %q", *p.Script)
	}
}

func TestAutosaveScriptClear(t *testing.T) {
	store := openTestStore(t)
	sess := session.NewStore(session.VoiceFlow, session.Preferences{Script: session.Ptr("old")})
	if err := store.SaveScript("old"); err != nil {
		t.Fatal(err)
	}

	a := store.AutosaveScript(sess, time.Hour)
	sess.ClearScript()
	a.Stop()

	if got := savedScript(t, store); got != "" {
		t.Errorf("saved script = %q, want empty", got)
	}
}
