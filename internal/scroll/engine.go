// internal/scroll/engine.go
package scroll

import (
	"log/slog"
	"sync"
	"time"

	"voiceflow/internal/session"
)

// DefaultTickHz matches the display refresh the overlay was tuned for
const DefaultTickHz = 60

// Engine drives the scroll offset held in a session store. At most one
// ticker runs at a time.
type Engine struct {
	store    *session.Store
	interval time.Duration

	mu     sync.Mutex
	stop   chan struct{}
	done   chan struct{}
	closed bool
}

// NewEngine creates an engine ticking tickHz times per second
func NewEngine(store *session.Store, tickHz int) *Engine {
	if tickHz <= 0 {
		tickHz = DefaultTickHz
	}
	return &Engine{
		store:    store,
		interval: time.Second / time.Duration(tickHz),
	}
}

// Interval returns the time between ticks
func (e *Engine) Interval() time.Duration {
	return e.interval
}

// Start begins scrolling. A ticker that is already running is replaced.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.stopTickerLocked()
	e.store.SetScrolling(true)

	stop := make(chan struct{})
	done := make(chan struct{})
	e.stop, e.done = stop, done
	go e.run(stop, done)
	slog.Debug("scroll started", "interval", e.interval)
}

func (e *Engine) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Tick performs one step: offset += speed while scrolling
func (e *Engine) Tick() bool {
	return e.store.Advance()
}

// Stop halts scrolling and keeps the offset. Safe to call repeatedly.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTickerLocked()
	e.store.SetScrolling(false)
}

// Toggle starts or stops scrolling and returns the new state
func (e *Engine) Toggle() bool {
	if e.Running() {
		e.Stop()
		return false
	}
	e.Start()
	return e.Running()
}

// Reset stops scrolling and rewinds to the top
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTickerLocked()
	e.store.ResetScroll()
}

func (e *Engine) JumpBack() {
	e.store.JumpBack()
}

func (e *Engine) SetSpeed(v float64) float64 {
	return e.store.SetSpeed(v)
}

func (e *Engine) IncreaseSpeed() float64 {
	return e.store.AdjustSpeed(session.SpeedStep)
}

func (e *Engine) DecreaseSpeed() float64 {
	return e.store.AdjustSpeed(-session.SpeedStep)
}

// Running reports whether a ticker is active
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stop != nil
}

// Close stops the engine for good; later Start calls do nothing
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTickerLocked()
	e.store.SetScrolling(false)
	e.closed = true
}

// stopTickerLocked waits for the ticker goroutine to exit so no tick lands after it returns
func (e *Engine) stopTickerLocked() {
	if e.stop == nil {
		return
	}
	close(e.stop)
	<-e.done
	e.stop, e.done = nil, nil
}
