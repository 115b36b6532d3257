// internal/voice/control_test.go
package voice

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	cmds []Command
}

func (d *recordingDispatcher) dispatch(c Command) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cmds = append(d.cmds, c)
	return true
}

func (d *recordingDispatcher) commands() []Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Command(nil), d.cmds...)
}

// newLocalRequest builds a request the way a local client sends it
func newLocalRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Host = "127.0.0.1:7777"
	req.Header.Set("Content-Type", "application/json")
	return req
}

// TestClassify tests phrase to intent matching
func TestClassify(t *testing.T) {
	tests := []struct {
		text       string
		wantIntent Intent
		wantArg    string
		wantOK     bool
	}{
		{"play", IntentToggleScroll, "", true},
		{"Pause", IntentToggleScroll, "", true},
		{"start scrolling", IntentToggleScroll, "", true},
		{"reset", IntentReset, "", true},
		{"go back to the top", IntentReset, "", true},
		{"jump back", IntentJumpBack, "", true},
		{"rewind a bit", IntentJumpBack, "", true},
		{"faster please", IntentFaster, "", true},
		{"speed up", IntentFaster, "", true},
		{"slow down", IntentSlower, "", true},
		{"accept", IntentAcceptSuggestion, "", true},
		{"use that", IntentAcceptSuggestion, "", true},
		{"dismiss", IntentDismissSuggestion, "", true},
		{"clear the suggestion", IntentDismissSuggestion, "", true},
		{"hide the overlay", IntentToggleOverlay, "", true},
		{"mirror mode", IntentToggleMirror, "", true},
		{"ask: why should we hire you", IntentAsk, "why should we hire you", true},
		{"ask how do you handle going faster", IntentAsk, "how do you handle going faster", true},
		{"what's the weather", "", "", false},
		{"   ", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := Classify(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("Classify(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if got.Intent != tt.wantIntent {
				t.Errorf("intent = %q, want %q", got.Intent, tt.wantIntent)
			}
			if got.Arg != tt.wantArg {
				t.Errorf("arg = %q, want %q", got.Arg, tt.wantArg)
			}
		})
	}
}

// TestHandleHealth tests the health endpoint
func TestHandleHealth(t *testing.T) {
	s := NewServer(newTestStore(true), nil, nil)

	tests := []struct {
		name       string
		method     string
		wantStatus int
	}{
		{"GET request succeeds", http.MethodGet, http.StatusOK},
		{"POST request rejected", http.MethodPost, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newLocalRequest(tt.method, "/voice/health", "")
			w := httptest.NewRecorder()

			s.Handler().ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				var resp map[string]any
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to parse response: %v", err)
				}
				if resp["service"] != "voiceflow-control" {
					t.Errorf("service = %v, want voiceflow-control", resp["service"])
				}
			}
		})
	}
}

// TestHandleStatus tests the status endpoint
func TestHandleStatus(t *testing.T) {
	store := newTestStore(true)
	s := NewServer(store, nil, nil)

	get := func(t *testing.T) StatusResponse {
		t.Helper()
		req := newLocalRequest(http.MethodGet, "/voice/status", "")
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		var resp StatusResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		return resp
	}

	resp := get(t)
	if resp.Speakable != "No script loaded." {
		t.Errorf("speakable = %q", resp.Speakable)
	}

	store.SetScript("one two three four")
	store.SetScrolling(true)
	id := store.BeginRequest("why us")
	resp = get(t)
	if !resp.Scrolling || resp.WordCount != 4 || !resp.Pending {
		t.Errorf("unexpected status %+v", resp)
	}
	if !strings.Contains(resp.Speakable, "Scrolling at 1.0x. 4 words") {
		t.Errorf("speakable = %q", resp.Speakable)
	}
	if !strings.Contains(resp.Speakable, "Waiting for a suggestion.") {
		t.Errorf("speakable = %q", resp.Speakable)
	}

	store.CompleteRequest(id, "Because I care.", nil, 0.5)
	resp = get(t)
	if !resp.HasSuggestion || !strings.Contains(resp.Speakable, "A suggestion is ready.") {
		t.Errorf("unexpected status %+v", resp)
	}

	req := newLocalRequest(http.MethodPost, "/voice/status", "")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", w.Code)
	}
}

// TestHandleCommand tests the command endpoint
func TestHandleCommand(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		body        string
		aiEnabled   bool
		suggestion  bool
		wantStatus  int
		wantSuccess bool
		wantIntent  Intent
		wantArg     string
	}{
		{name: "spoken command", method: http.MethodPost, body: `{"text": "faster"}`, wantStatus: 200, wantSuccess: true, wantIntent: IntentFaster},
		{name: "pre-classified intent", method: http.MethodPost, body: `{"intent": "toggle_mirror"}`, wantStatus: 200, wantSuccess: true, wantIntent: IntentToggleMirror},
		{name: "unknown intent", method: http.MethodPost, body: `{"intent": "SELF_DESTRUCT"}`, wantStatus: 200},
		{name: "unrecognized text", method: http.MethodPost, body: `{"text": "order pizza"}`, wantStatus: 200},
		{name: "ask with AI on", method: http.MethodPost, body: `{"text": "ask: tell me about a conflict"}`, aiEnabled: true, wantStatus: 200, wantSuccess: true, wantIntent: IntentAsk, wantArg: "tell me about a conflict"},
		{name: "ask with AI off", method: http.MethodPost, body: `{"text": "ask: tell me about a conflict"}`, wantStatus: 200},
		{name: "ask intent without question", method: http.MethodPost, body: `{"intent": "ASK"}`, aiEnabled: true, wantStatus: 200},
		{name: "accept without suggestion", method: http.MethodPost, body: `{"text": "accept"}`, wantStatus: 200},
		{name: "accept with suggestion", method: http.MethodPost, body: `{"text": "accept"}`, suggestion: true, wantStatus: 200, wantSuccess: true, wantIntent: IntentAcceptSuggestion},
		{name: "GET rejected", method: http.MethodGet, wantStatus: http.StatusMethodNotAllowed},
		{name: "invalid JSON", method: http.MethodPost, body: `{invalid`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(tt.aiEnabled)
			if tt.suggestion {
				id := store.BeginRequest("q")
				store.CompleteRequest(id, "answer", nil, 1)
			}
			var d recordingDispatcher
			s := NewServer(store, nil, d.dispatch)

			req := newLocalRequest(tt.method, "/voice/command", tt.body)
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Code != http.StatusOK {
				return
			}

			var resp CommandResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to parse response: %v", err)
			}
			if resp.Success != tt.wantSuccess {
				t.Errorf("success = %v, want %v (%+v)", resp.Success, tt.wantSuccess, resp)
			}
			if resp.Speakable == "" {
				t.Error("speakable should not be empty")
			}

			cmds := d.commands()
			if !tt.wantSuccess {
				if len(cmds) != 0 {
					t.Errorf("dispatched %v on failure", cmds)
				}
				return
			}
			if len(cmds) != 1 {
				t.Fatalf("dispatched %d commands, want 1", len(cmds))
			}
			if cmds[0].Intent != tt.wantIntent || cmds[0].Arg != tt.wantArg {
				t.Errorf("dispatched %+v, want %s %q", cmds[0], tt.wantIntent, tt.wantArg)
			}
		})
	}
}

func TestHandleCommandWithoutDispatcher(t *testing.T) {
	s := NewServer(newTestStore(true), nil, nil)
	resp := s.processCommand(CommandRequest{Text: "pause"})
	if resp.Success {
		t.Error("expected failure without a dispatcher")
	}
	if resp.Intent != string(IntentToggleScroll) {
		t.Errorf("intent = %q", resp.Intent)
	}
}

func TestHandleCommandBusy(t *testing.T) {
	s := NewServer(newTestStore(true), nil, func(Command) bool { return false })
	resp := s.processCommand(CommandRequest{Text: "faster"})
	if resp.Success {
		t.Error("expected failure when the command was dropped")
	}
	if resp.Error != "busy" {
		t.Errorf("error = %q, want busy", resp.Error)
	}
}

// TestLocalOnly tests that browser-originated requests never reach a handler
func TestLocalOnly(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		host        string
		origin      string
		contentType string
		wantStatus  int
	}{
		{"cross-origin text/plain", "/voice/command", "127.0.0.1:7777", "https://evil.example", "text/plain", http.StatusForbidden},
		{"cross-origin json", "/voice/command", "127.0.0.1:7777", "https://evil.example", "application/json", http.StatusForbidden},
		{"text/plain without origin", "/voice/command", "127.0.0.1:7777", "", "text/plain", http.StatusUnsupportedMediaType},
		{"form post", "/voice/transcript", "localhost:7777", "", "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"rebound host", "/voice/command", "evil.example:7777", "", "application/json", http.StatusForbidden},
		{"json with charset", "/voice/command", "[::1]:7777", "", "application/json; charset=utf-8", http.StatusOK},
		{"localhost", "/voice/command", "localhost", "", "application/json", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(true)
			var q questionLog
			var d recordingDispatcher
			s := NewServer(store, NewListener(store, "", nil, q.add), d.dispatch)

			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(`{"text": "ask: what is your salary"}`))
			req.Host = tt.host
			req.Header.Set("Content-Type", tt.contentType)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				if cmds := d.commands(); len(cmds) != 0 {
					t.Errorf("dispatched %v from a rejected request", cmds)
				}
				if got := store.Snapshot().Transcript; got != "" {
					t.Errorf("transcript = %q from a rejected request", got)
				}
			}
		})
	}
}

// TestHandleTranscript tests pushed recognizer events
func TestHandleTranscript(t *testing.T) {
	store := newTestStore(true)
	var q questionLog
	l := NewListener(store, "", nil, q.add)
	s := NewServer(store, l, nil)

	post := func(body string) int {
		req := newLocalRequest(http.MethodPost, "/voice/transcript", body)
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		return w.Code
	}

	if code := post(`{"text": "where do you see", "final": false}`); code != http.StatusNoContent {
		t.Fatalf("partial status = %d", code)
	}
	if got := store.Snapshot().PartialTranscript; got != "where do you see" {
		t.Errorf("partial = %q", got)
	}
	if code := post(`{"text": "where do you see yourself", "final": true}`); code != http.StatusNoContent {
		t.Fatalf("final status = %d", code)
	}
	if got := store.Snapshot().Transcript; got != "where do you see yourself" {
		t.Errorf("transcript = %q", got)
	}
	if got := q.all(); len(got) != 1 || got[0] != "where do you see yourself" {
		t.Errorf("questions = %v", got)
	}
	if code := post(`nope`); code != http.StatusBadRequest {
		t.Errorf("invalid body status = %d", code)
	}

	noListener := NewServer(store, nil, nil)
	req := newLocalRequest(http.MethodPost, "/voice/transcript", `{}`)
	w := httptest.NewRecorder()
	noListener.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status without listener = %d", w.Code)
	}
}

// TestServerStartStop tests the real listener lifecycle
func TestServerStartStop(t *testing.T) {
	s := NewServer(newTestStore(true), nil, nil)
	addr, err := s.Start(0)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !strings.HasPrefix(addr, "127.0.0.1:") {
		t.Errorf("addr = %q", addr)
	}

	again, err := s.Start(0)
	if err != nil || again != addr {
		t.Errorf("second Start = %q, %v", again, err)
	}

	resp, err := http.Get("http://" + addr + "/voice/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", resp.StatusCode)
	}

	if err := s.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}
