// internal/scroll/engine_test.go
package scroll

import (
	"math"
	"testing"
	"time"

	"voiceflow/internal/session"
)

func newTestEngine(hz int) (*Engine, *session.Store) {
	store := session.NewStore(session.VoiceFlow, session.Preferences{})
	return NewEngine(store, hz), store
}

func TestTickRequiresScrolling(t *testing.T) {
	e, store := newTestEngine(60)
	if e.Tick() {
		t.Error("Tick should not advance when stopped")
	}
	if got := store.Snapshot().Offset; got != 0 {
		t.Errorf("Offset = %v, want 0", got)
	}
}

func TestTicksAccumulateSpeed(t *testing.T) {
	e, store := newTestEngine(60)
	e.SetSpeed(1.6)
	store.SetScrolling(true)

	for i := 0; i < 30; i++ {
		e.Tick()
	}
	if got := store.Snapshot().Offset; math.Abs(got-48) > 1e-9 {
		t.Errorf("Offset = %v, want 48", got)
	}
}

func TestStartStop(t *testing.T) {
	e, store := newTestEngine(1000)
	e.Start()
	if !e.Running() || !store.Snapshot().Scrolling {
		t.Fatal("Start should run the ticker and set scrolling")
	}

	deadline := time.Now().Add(2 * time.Second)
	for store.Snapshot().Offset == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if store.Snapshot().Offset == 0 {
		t.Fatal("offset never advanced")
	}

	e.Stop()
	e.Stop() // idempotent
	if e.Running() || store.Snapshot().Scrolling {
		t.Fatal("Stop should halt scrolling")
	}

	frozen := store.Snapshot().Offset
	time.Sleep(20 * time.Millisecond)
	if got := store.Snapshot().Offset; got != frozen {
		t.Errorf("offset moved after Stop: %v -> %v", frozen, got)
	}
}

func TestStartReplacesTicker(t *testing.T) {
	e, store := newTestEngine(1000)
	e.Start()
	e.Start()
	e.Stop()

	frozen := store.Snapshot().Offset
	time.Sleep(20 * time.Millisecond)
	if got := store.Snapshot().Offset; got != frozen {
		t.Errorf("a second ticker survived Stop: %v -> %v", frozen, got)
	}
}

func TestToggle(t *testing.T) {
	e, _ := newTestEngine(60)
	if !e.Toggle() {
		t.Error("first Toggle should start")
	}
	if e.Toggle() {
		t.Error("second Toggle should stop")
	}
}

func TestResetIsIdempotent(t *testing.T) {
	e, store := newTestEngine(60)
	store.SetScrolling(true)
	e.Tick()
	e.Start()

	for i := 0; i < 2; i++ {
		e.Reset()
		st := store.Snapshot()
		if st.Offset != 0 || st.Scrolling || e.Running() {
			t.Fatalf("reset %d: offset=%v scrolling=%v running=%v", i, st.Offset, st.Scrolling, e.Running())
		}
	}
}

func TestJumpBackNeverNegative(t *testing.T) {
	e, store := newTestEngine(60)
	store.SetScrolling(true)
	for i := 0; i < 30; i++ {
		e.Tick()
	}
	e.JumpBack()
	if got := store.Snapshot().Offset; got != 0 {
		t.Errorf("Offset = %v, want 0", got)
	}
}

func TestSpeedSteps(t *testing.T) {
	e, _ := newTestEngine(60)
	if got := e.IncreaseSpeed(); math.Abs(got-1.3) > 1e-9 {
		t.Errorf("IncreaseSpeed = %v, want 1.3", got)
	}
	e.SetSpeed(session.MinSpeed)
	if got := e.DecreaseSpeed(); got != session.MinSpeed {
		t.Errorf("DecreaseSpeed below min = %v", got)
	}
}

func TestCloseDisablesStart(t *testing.T) {
	e, store := newTestEngine(60)
	e.Start()
	e.Close()
	e.Start()
	if e.Running() || store.Snapshot().Scrolling {
		t.Error("Start after Close should do nothing")
	}
}

func TestDefaultTickRate(t *testing.T) {
	e, _ := newTestEngine(0)
	if e.Interval() != time.Second/60 {
		t.Errorf("Interval = %v", e.Interval())
	}
}
