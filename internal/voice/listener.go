// internal/voice/listener.go
// Transcription feed for the overlay.
// Speech-to-text runs out of process; this package reads its output.
package voice

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"voiceflow/internal/session"
)

var (
	ErrNoVoiceCommand   = errors.New("no speech-to-text command configured")
	ErrAlreadyListening = errors.New("already listening")
)

// Event is one line of recognizer output
type Event struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
	Error string `json:"error,omitempty"`
}

// ParseLine decodes a recognizer line. JSON objects are decoded as events,
// anything else is treated as finalized plain text. Blank lines report false.
func ParseLine(line string) (Event, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Event{}, false
	}
	if strings.HasPrefix(line, "{") {
		var ev Event
		if err := json.Unmarshal([]byte(line), &ev); err == nil {
			if ev.Error == "" && strings.TrimSpace(ev.Text) == "" && !ev.Final {
				return Event{}, false
			}
			return ev, true
		}
	}
	return Event{Text: line, Final: true}, true
}

// Listener runs the recognizer command and feeds its events into the store
type Listener struct {
	store      *session.Store
	command    string
	args       []string
	onQuestion func(string)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	gen    int
}

// NewListener creates a listener. onQuestion receives each finalized
// transcript segment while AI suggestions are enabled; it may be nil.
func NewListener(store *session.Store, command string, args []string, onQuestion func(string)) *Listener {
	return &Listener{
		store:      store,
		command:    strings.TrimSpace(command),
		args:       append([]string(nil), args...),
		onQuestion: onQuestion,
	}
}

// Start launches the recognizer. The process lives until Stop, ctx
// cancellation, or its own exit.
func (l *Listener) Start(ctx context.Context) error {
	if l.command == "" {
		l.store.SetError(ErrNoVoiceCommand.Error())
		return ErrNoVoiceCommand
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return ErrAlreadyListening
	}

	procCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(procCtx, l.command, l.args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		err = fmt.Errorf("start recognizer: %w", err)
		l.store.SetError(err.Error())
		return err
	}

	l.gen++
	gen := l.gen
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done

	l.store.ClearError()
	l.store.SetListening(true)
	slog.Info("listening started", "command", l.command)

	go l.run(procCtx, cmd, stdout, stderr, gen, done)
	return nil
}

func (l *Listener) run(ctx context.Context, cmd *exec.Cmd, stdout, stderr io.Reader, gen int, done chan struct{}) {
	defer close(done)

	var stderrBuf strings.Builder
	var errWG sync.WaitGroup
	errWG.Add(1)
	go func() {
		defer errWG.Done()
		sc := bufio.NewScanner(stderr)
		for sc.Scan() {
			stderrBuf.WriteString(sc.Text())
			stderrBuf.WriteString("\n")
		}
	}()

	scanner := bufio.NewScanner(stdout)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	stopped := false
	for scanner.Scan() {
		ev, ok := ParseLine(scanner.Text())
		if !ok {
			continue
		}
		if ev.Error != "" {
			l.finish(gen, ev.Error)
			stopped = true
			break
		}
		l.Handle(ev)
	}
	if stopped {
		// drain so the process is not blocked on a full pipe
		_, _ = io.Copy(io.Discard, stdout)
	}

	errWG.Wait()
	err := cmd.Wait()

	if stopped {
		return
	}
	if ctx.Err() != nil {
		l.finish(gen, "")
		return
	}
	if err != nil {
		msg := strings.TrimSpace(stderrBuf.String())
		if msg == "" {
			msg = err.Error()
		}
		slog.Warn("recognizer exited", "error", err)
		l.finish(gen, "Speech recognition failed: "+msg)
		return
	}
	l.finish(gen, "")
}

// finish clears listening state if gen is still the current session and
// records msg as the session error when set
func (l *Listener) finish(gen int, msg string) {
	l.mu.Lock()
	if gen != l.gen || l.cancel == nil {
		l.mu.Unlock()
		return
	}
	cancel := l.cancel
	l.cancel = nil
	l.done = nil
	l.store.SetListening(false)
	if msg != "" {
		l.store.SetError(msg)
	}
	l.mu.Unlock()

	cancel()
}

// Handle applies one recognizer event to the session
func (l *Listener) Handle(ev Event) {
	if ev.Error != "" {
		l.Stop()
		l.store.SetError(ev.Error)
		return
	}
	if !ev.Final {
		l.store.SetPartialTranscript(strings.TrimSpace(ev.Text))
		return
	}

	text := strings.TrimSpace(ev.Text)
	l.store.CommitTranscript(text)
	if text == "" || l.onQuestion == nil {
		return
	}
	if l.store.Snapshot().AIEnabled {
		l.onQuestion(text)
	}
}

// Stop ends the recognizer and waits for it to exit
func (l *Listener) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel = nil
	l.done = nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	l.mu.Lock()
	if l.cancel == nil {
		l.store.SetListening(false)
	}
	l.mu.Unlock()
	slog.Info("listening stopped")
}

// Toggle starts or stops listening and reports the new state
func (l *Listener) Toggle(ctx context.Context) (bool, error) {
	if l.Listening() {
		l.Stop()
		return false, nil
	}
	if err := l.Start(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Clear drops both finalized and partial transcript text
func (l *Listener) Clear() {
	l.store.ClearTranscript()
}

func (l *Listener) Listening() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}
