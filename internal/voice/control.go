// internal/voice/control.go
// Local HTTP control surface so an external voice assistant or hotkey daemon
// can drive the overlay.
package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"voiceflow/internal/session"
)

// Intent names understood by POST /voice/command
type Intent string

const (
	IntentToggleScroll      Intent = "TOGGLE_SCROLL"
	IntentReset             Intent = "RESET"
	IntentJumpBack          Intent = "JUMP_BACK"
	IntentFaster            Intent = "FASTER"
	IntentSlower            Intent = "SLOWER"
	IntentAcceptSuggestion  Intent = "ACCEPT_SUGGESTION"
	IntentDismissSuggestion Intent = "DISMISS_SUGGESTION"
	IntentToggleOverlay     Intent = "TOGGLE_OVERLAY"
	IntentToggleMirror      Intent = "TOGGLE_MIRROR"
	IntentAsk               Intent = "ASK"
)

var knownIntents = map[Intent]bool{
	IntentToggleScroll:      true,
	IntentReset:             true,
	IntentJumpBack:          true,
	IntentFaster:            true,
	IntentSlower:            true,
	IntentAcceptSuggestion:  true,
	IntentDismissSuggestion: true,
	IntentToggleOverlay:     true,
	IntentToggleMirror:      true,
	IntentAsk:               true,
}

// Command is a classified control request
type Command struct {
	Intent Intent
	Arg    string
}

// Dispatcher delivers a command to whoever owns the event loop. It reports
// false when the command was dropped.
type Dispatcher func(Command) bool

// Matched in order; the first hit wins.
var intentPatterns = []struct {
	intent  Intent
	pattern *regexp.Regexp
}{
	{IntentAsk, regexp.MustCompile(`^(?:ask|question|suggest(?:ion)?(?:\s+for)?)\s*[:,]?\s+(.+)$`)},
	{IntentReset, regexp.MustCompile(`\b(?:reset|restart|(?:back\s+)?to\s+the\s+(?:top|start|beginning))\b`)},
	{IntentJumpBack, regexp.MustCompile(`\b(?:jump|go|skip|scroll)\s+back\b|\brewind\b`)},
	{IntentFaster, regexp.MustCompile(`\bfaster\b|\bspeed\s+up\b`)},
	{IntentSlower, regexp.MustCompile(`\bslower\b|\bslow\s+down\b`)},
	{IntentAcceptSuggestion, regexp.MustCompile(`\baccept\b|\binsert\b|\buse\s+(?:it|that|the\s+suggestion)\b`)},
	{IntentDismissSuggestion, regexp.MustCompile(`\bdismiss\b|\bdiscard\b|\breject\b|\bclear\s+(?:the\s+)?suggestion\b`)},
	{IntentToggleOverlay, regexp.MustCompile(`\b(?:hide|show|toggle)\s+(?:the\s+)?(?:overlay|prompter|teleprompter)\b`)},
	{IntentToggleMirror, regexp.MustCompile(`\bmirror\b`)},
	{IntentToggleScroll, regexp.MustCompile(`\b(?:play|pause|resume|start|stop|toggle)\b`)},
}

// Classify maps spoken text to a command
func Classify(text string) (Command, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return Command{}, false
	}
	for _, p := range intentPatterns {
		m := p.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		cmd := Command{Intent: p.intent}
		if p.intent == IntentAsk && len(m) > 1 {
			cmd.Arg = strings.TrimSpace(m[1])
		}
		return cmd, true
	}
	return Command{}, false
}

// Server is the local control endpoint
type Server struct {
	store    *session.Store
	listener *Listener
	dispatch Dispatcher

	mu         sync.Mutex
	httpServer *http.Server
	addr       string
}

// NewServer creates a control server. listener may be nil, in which case
// transcript pushes are rejected.
func NewServer(store *session.Store, listener *Listener, dispatch Dispatcher) *Server {
	return &Server{store: store, listener: listener, dispatch: dispatch}
}

// Handler returns the route table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// GET /voice/status - speakable status
	mux.HandleFunc("/voice/status", s.handleStatus)

	// POST /voice/command - spoken or pre-classified commands
	mux.HandleFunc("/voice/command", s.handleCommand)

	// POST /voice/transcript - recognizer events pushed from outside
	mux.HandleFunc("/voice/transcript", s.handleTranscript)

	mux.HandleFunc("/voice/health", s.handleHealth)
	return localOnly(mux)
}

// localOnly rejects anything a browser page could send: requests carrying an
// Origin, requests addressed to a non-loopback Host, and POST bodies that are
// not JSON.
func localOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Origin") != "" {
			http.Error(w, "Cross-origin requests not allowed", http.StatusForbidden)
			return
		}
		if !isLoopbackHost(r.Host) {
			http.Error(w, "Forbidden host", http.StatusForbidden)
			return
		}
		if r.Method == http.MethodPost {
			mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mt != "application/json" {
				http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func isLoopbackHost(hostport string) bool {
	host, _, err := net.SplitHostPort(hostport)
	if err != nil {
		host = hostport
	}
	host = strings.Trim(host, "[]")
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Start listens on 127.0.0.1:port (0 picks a free port) and serves in the
// background. The bound address is returned.
func (s *Server) Start(port int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpServer != nil {
		return s.addr, nil
	}

	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		return "", fmt.Errorf("control server listen: %w", err)
	}

	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	s.httpServer = srv
	s.addr = ln.Addr().String()

	slog.Info("control server started", "addr", s.addr)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("control server error", "error", err)
		}
	}()
	return s.addr, nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop() error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.addr = ""
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"service":   "voiceflow-control",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	st := s.store.Snapshot()
	writeJSON(w, http.StatusOK, StatusResponse{
		Scrolling:     st.Scrolling,
		Speed:         st.Speed,
		WordCount:     st.WordCount,
		Listening:     st.Listening,
		Pending:       st.Pending,
		HasSuggestion: st.HasSuggestion(),
		Speakable:     SpeakableStatus(st),
	})
}

// SpeakableStatus describes the session in one or two sentences
func SpeakableStatus(st session.State) string {
	var b strings.Builder
	switch {
	case st.WordCount == 0:
		b.WriteString("No script loaded.")
	case st.Scrolling:
		fmt.Fprintf(&b, "Scrolling at %.1fx. %d words in the script.", st.Speed, st.WordCount)
	default:
		fmt.Fprintf(&b, "Paused. %d words in the script.", st.WordCount)
	}
	switch {
	case st.Pending:
		b.WriteString(" Waiting for a suggestion.")
	case st.HasSuggestion():
		b.WriteString(" A suggestion is ready.")
	}
	if st.ErrorMessage != "" {
		b.WriteString(" Error: ")
		b.WriteString(st.ErrorMessage)
	}
	return b.String()
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	var req CommandRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, s.processCommand(req))
}

func (s *Server) processCommand(req CommandRequest) CommandResponse {
	var cmd Command
	if req.Intent != "" {
		intent := Intent(strings.ToUpper(strings.TrimSpace(req.Intent)))
		if !knownIntents[intent] {
			return CommandResponse{Speakable: "I don't know that command.", Error: "unknown intent"}
		}
		cmd = Command{Intent: intent, Arg: strings.TrimSpace(req.Text)}
	} else {
		var ok bool
		cmd, ok = Classify(req.Text)
		if !ok {
			return CommandResponse{Speakable: "I didn't understand that command.", Error: "unrecognized command"}
		}
	}

	resp := CommandResponse{Intent: string(cmd.Intent)}
	if s.dispatch == nil {
		resp.Speakable = "The overlay is not running."
		resp.Error = "no dispatcher"
		return resp
	}

	st := s.store.Snapshot()
	switch cmd.Intent {
	case IntentAsk:
		if cmd.Arg == "" {
			resp.Speakable = "What should I ask?"
			resp.Error = "empty question"
			return resp
		}
		if !st.AIEnabled {
			resp.Speakable = "AI suggestions are turned off."
			resp.Error = "ai disabled"
			return resp
		}
		resp.Speakable = "Working on a suggestion."
	case IntentAcceptSuggestion, IntentDismissSuggestion:
		if !st.HasSuggestion() {
			resp.Speakable = "There is no suggestion right now."
			resp.Error = "no suggestion"
			return resp
		}
		if cmd.Intent == IntentAcceptSuggestion {
			resp.Speakable = "Suggestion added to the script."
		} else {
			resp.Speakable = "Suggestion dismissed."
		}
	case IntentToggleScroll:
		if st.Scrolling {
			resp.Speakable = "Pausing."
		} else {
			resp.Speakable = "Scrolling."
		}
	case IntentReset:
		resp.Speakable = "Back to the top."
	case IntentJumpBack:
		resp.Speakable = "Jumping back."
	case IntentFaster:
		resp.Speakable = "Faster."
	case IntentSlower:
		resp.Speakable = "Slower."
	case IntentToggleOverlay:
		resp.Speakable = "Toggling the overlay."
	case IntentToggleMirror:
		resp.Speakable = "Toggling mirror mode."
	}

	slog.Debug("control command", "intent", string(cmd.Intent))
	if !s.dispatch(cmd) {
		resp.Speakable = "The overlay is busy. Try again."
		resp.Error = "busy"
		return resp
	}
	resp.Success = true
	return resp
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.listener == nil {
		http.Error(w, "Transcription not available", http.StatusServiceUnavailable)
		return
	}

	var ev Event
	if err := json.NewDecoder(io.LimitReader(r.Body, 64*1024)).Decode(&ev); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	s.listener.Handle(ev)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("control response write failed", "error", err)
	}
}

// --- Request/Response types ---

// StatusResponse is returned by GET /voice/status
type StatusResponse struct {
	Scrolling     bool    `json:"scrolling"`
	Speed         float64 `json:"speed"`
	WordCount     int     `json:"word_count"`
	Listening     bool    `json:"listening"`
	Pending       bool    `json:"pending"`
	HasSuggestion bool    `json:"has_suggestion"`
	Speakable     string  `json:"speakable"`
}

// CommandRequest is accepted by POST /voice/command
type CommandRequest struct {
	Text   string `json:"text"`   // spoken command, or the question for ASK
	Intent string `json:"intent"` // optional pre-classified intent
}

// CommandResponse is returned by POST /voice/command
type CommandResponse struct {
	Success   bool   `json:"success"`
	Intent    string `json:"intent,omitempty"`
	Speakable string `json:"speakable"`
	Error     string `json:"error,omitempty"`
}
