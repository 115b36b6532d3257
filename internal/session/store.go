// internal/session/store.go
package session

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"voiceflow/internal/ai"
	"voiceflow/internal/providers"
)

// Suggestion identifies a suggestion that left the screen
type Suggestion struct {
	RequestID string
	Question  string
	Text      string
}

// Store is the single owner of session state. Every mutation is serialized
// by one mutex; listeners run after the lock is released.
type Store struct {
	mu    sync.Mutex
	state State

	lmu       sync.RWMutex
	listeners map[int]func(State)
	nextID    int
}

// NewStore creates a store with defaults resolved from prefs
func NewStore(v Variant, prefs Preferences) *Store {
	s := &Store{listeners: make(map[int]func(State))}
	s.state.Variant = v
	s.state.OverlayVisible = true
	applyResolved(&s.state, prefs.Resolve(v))
	return s
}

func applyResolved(st *State, r Resolved) {
	st.Script = r.Script
	st.WordCount = WordCount(r.Script)
	st.Speed = r.Speed
	st.FontSize = r.FontSize
	st.Opacity = r.Opacity
	st.Mirror = r.Mirror
	st.GuideLine = r.GuideLine
	st.AIEnabled = r.AIEnabled
	st.ShowFollowUps = r.ShowFollowUps
	st.Provider = r.Provider
	st.Model = r.Model
	st.Mode = r.Mode
	st.Style = r.Style
	st.MaxResponseLength = r.MaxResponseLength
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn to receive a snapshot after every change.
// The returned func removes it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

// update applies fn under the lock and notifies listeners if fn reports a change
func (s *Store) update(fn func(st *State) bool) bool {
	s.mu.Lock()
	changed := fn(&s.state)
	snap := s.state.clone()
	s.mu.Unlock()

	if changed {
		s.notify(snap)
	}
	return changed
}

func (s *Store) notify(snap State) {
	s.lmu.RLock()
	fns := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.lmu.RUnlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// ApplyPreferences replaces persisted fields with prefs resolved for the variant
func (s *Store) ApplyPreferences(prefs Preferences) {
	s.update(func(st *State) bool {
		applyResolved(st, prefs.Resolve(st.Variant))
		return true
	})
}

// Script

func (s *Store) SetScript(text string) {
	s.update(func(st *State) bool {
		st.Script = text
		st.WordCount = WordCount(text)
		return true
	})
}

func (s *Store) ClearScript() {
	s.SetScript("")
}

// AppendToScript adds text after a blank line
func (s *Store) AppendToScript(text string) {
	s.update(func(st *State) bool {
		appendScript(st, text)
		return true
	})
}

func appendScript(st *State, text string) {
	if st.Script == "" {
		st.Script = text
	} else {
		st.Script += "\n\n" + text
	}
	st.WordCount = WordCount(st.Script)
}

// Playback

// SetScrolling flips the scrolling flag; it does not touch the offset
func (s *Store) SetScrolling(on bool) {
	s.update(func(st *State) bool {
		if st.Scrolling == on {
			return false
		}
		st.Scrolling = on
		return true
	})
}

// Advance adds speed to the offset when scrolling. It returns false otherwise.
func (s *Store) Advance() bool {
	return s.update(func(st *State) bool {
		if !st.Scrolling {
			return false
		}
		st.Offset += st.Speed
		return true
	})
}

// ResetScroll stops scrolling and rewinds to the top
func (s *Store) ResetScroll() {
	s.update(func(st *State) bool {
		changed := st.Scrolling || st.Offset != 0
		st.Scrolling = false
		st.Offset = 0
		return changed
	})
}

// JumpBack rewinds by JumpBackStep, never below zero
func (s *Store) JumpBack() {
	s.update(func(st *State) bool {
		next := st.Offset - JumpBackStep
		if next < 0 {
			next = 0
		}
		changed := next != st.Offset
		st.Offset = next
		return changed
	})
}

// SetSpeed clamps v into range and returns the applied speed
func (s *Store) SetSpeed(v float64) float64 {
	var applied float64
	s.update(func(st *State) bool {
		applied = ClampSpeed(v)
		changed := applied != st.Speed
		st.Speed = applied
		return changed
	})
	return applied
}

// AdjustSpeed adds delta to the current speed, clamped
func (s *Store) AdjustSpeed(delta float64) float64 {
	var applied float64
	s.update(func(st *State) bool {
		applied = ClampSpeed(st.Speed + delta)
		changed := applied != st.Speed
		st.Speed = applied
		return changed
	})
	return applied
}

// Display

func (s *Store) SetFontSize(v float64) float64 {
	return s.setFontSize(func(float64) float64 { return v })
}

func (s *Store) AdjustFontSize(delta float64) float64 {
	return s.setFontSize(func(cur float64) float64 { return cur + delta })
}

func (s *Store) setFontSize(next func(cur float64) float64) float64 {
	var applied float64
	s.update(func(st *State) bool {
		lo, hi := st.Variant.FontRange()
		applied = clamp(next(st.FontSize), lo, hi)
		changed := applied != st.FontSize
		st.FontSize = applied
		return changed
	})
	return applied
}

func (s *Store) SetOpacity(v float64) float64 {
	var applied float64
	s.update(func(st *State) bool {
		applied = clamp(v, 0, 1)
		changed := applied != st.Opacity
		st.Opacity = applied
		return changed
	})
	return applied
}

func (s *Store) ToggleMirror() bool {
	return s.toggle(func(st *State) *bool { return &st.Mirror })
}

func (s *Store) ToggleGuideLine() bool {
	return s.toggle(func(st *State) *bool { return &st.GuideLine })
}

func (s *Store) ToggleOverlay() bool {
	return s.toggle(func(st *State) *bool { return &st.OverlayVisible })
}

func (s *Store) ToggleAI() bool {
	return s.toggle(func(st *State) *bool { return &st.AIEnabled })
}

func (s *Store) ToggleFollowUps() bool {
	return s.toggle(func(st *State) *bool { return &st.ShowFollowUps })
}

// toggle flips the field selected by field and returns its new value
func (s *Store) toggle(field func(st *State) *bool) bool {
	var now bool
	s.update(func(st *State) bool {
		f := field(st)
		*f = !*f
		now = *f
		return true
	})
	return now
}

func (s *Store) SetAIEnabled(on bool) {
	s.update(func(st *State) bool {
		changed := st.AIEnabled != on
		st.AIEnabled = on
		return changed
	})
}

// AI configuration

// SetProvider selects the vendor and model. An empty type clears the selection.
func (s *Store) SetProvider(t providers.Type, model string) {
	s.update(func(st *State) bool {
		st.Provider = t
		if t != "" && model == "" {
			model = t.DefaultModel()
		}
		st.Model = model
		return true
	})
}

func (s *Store) SetModel(model string) {
	s.update(func(st *State) bool {
		st.Model = model
		return true
	})
}

func (s *Store) SetAPIKey(key string) {
	s.update(func(st *State) bool {
		st.APIKey = key
		return true
	})
}

func (s *Store) SetMode(m ai.Mode) {
	s.update(func(st *State) bool {
		changed := st.Mode != m
		st.Mode = m
		return changed
	})
}

func (s *Store) SetStyle(v ai.Style) {
	s.update(func(st *State) bool {
		changed := st.Style != v
		st.Style = v
		return changed
	})
}

// SetMaxResponseLength clamps n into range and returns the applied value
func (s *Store) SetMaxResponseLength(n int) int {
	var applied int
	s.update(func(st *State) bool {
		applied = clampInt(n, MinResponseLength, MaxResponseLength)
		changed := applied != st.MaxResponseLength
		st.MaxResponseLength = applied
		return changed
	})
	return applied
}

// Transcription

func (s *Store) SetListening(on bool) {
	s.update(func(st *State) bool {
		changed := st.Listening != on
		st.Listening = on
		if !on {
			st.PartialTranscript = ""
		}
		return changed
	})
}

func (s *Store) SetPartialTranscript(text string) {
	s.update(func(st *State) bool {
		changed := st.PartialTranscript != text
		st.PartialTranscript = text
		return changed
	})
}

// CommitTranscript appends finalized text and clears the partial line
func (s *Store) CommitTranscript(text string) {
	text = strings.TrimSpace(text)
	s.update(func(st *State) bool {
		st.PartialTranscript = ""
		if text == "" {
			return true
		}
		if st.Transcript == "" {
			st.Transcript = text
		} else {
			st.Transcript += " " + text
		}
		return true
	})
}

func (s *Store) ClearTranscript() {
	s.update(func(st *State) bool {
		st.Transcript = ""
		st.PartialTranscript = ""
		return true
	})
}

// Suggestion lifecycle

// BeginRequest starts a request for question and returns its id. Any earlier
// request is superseded: its completion will be dropped.
func (s *Store) BeginRequest(question string) string {
	id := uuid.NewString()
	s.update(func(st *State) bool {
		st.RequestID = id
		st.Pending = true
		st.Question = question
		st.ErrorMessage = ""
		return true
	})
	return id
}

// CompleteRequest shows the suggestion if id is still the latest request.
// Stale completions are dropped and false is returned.
func (s *Store) CompleteRequest(id, suggestion string, followUps []string, confidence float64) bool {
	return s.update(func(st *State) bool {
		if id == "" || id != st.RequestID || !st.Pending {
			return false
		}
		if len(followUps) > MaxFollowUps {
			followUps = followUps[:MaxFollowUps]
		}
		st.Pending = false
		st.Suggestion = suggestion
		st.SuggestionID = id
		st.SuggestionQuestion = st.Question
		st.FollowUps = append([]string(nil), followUps...)
		st.Confidence = clamp(confidence, 0, 1)
		return true
	})
}

// FailRequest records msg if id is still the latest request
func (s *Store) FailRequest(id, msg string) bool {
	return s.update(func(st *State) bool {
		if id == "" || id != st.RequestID || !st.Pending {
			return false
		}
		st.Pending = false
		st.ErrorMessage = msg
		return true
	})
}

// AcceptSuggestion appends the suggestion to the script and clears it
func (s *Store) AcceptSuggestion() (Suggestion, bool) {
	var out Suggestion
	ok := s.update(func(st *State) bool {
		if st.Suggestion == "" {
			return false
		}
		out = Suggestion{RequestID: st.SuggestionID, Question: st.SuggestionQuestion, Text: st.Suggestion}
		appendScript(st, st.Suggestion)
		clearSuggestion(st)
		return true
	})
	return out, ok
}

// DismissSuggestion discards the suggestion
func (s *Store) DismissSuggestion() (Suggestion, bool) {
	var out Suggestion
	ok := s.update(func(st *State) bool {
		if st.Suggestion == "" {
			return false
		}
		out = Suggestion{RequestID: st.SuggestionID, Question: st.SuggestionQuestion, Text: st.Suggestion}
		clearSuggestion(st)
		return true
	})
	return out, ok
}

func clearSuggestion(st *State) {
	st.Suggestion = ""
	st.SuggestionID = ""
	st.SuggestionQuestion = ""
	st.FollowUps = nil
	st.Confidence = 0
}

// SelectFollowUp appends follow-up i to the script. The suggestion stays.
func (s *Store) SelectFollowUp(i int) (string, bool) {
	var prompt string
	ok := s.update(func(st *State) bool {
		if i < 0 || i >= len(st.FollowUps) {
			return false
		}
		prompt = st.FollowUps[i]
		appendScript(st, prompt)
		return true
	})
	return prompt, ok
}

// Errors

func (s *Store) SetError(msg string) {
	s.update(func(st *State) bool {
		changed := st.ErrorMessage != msg
		st.ErrorMessage = msg
		return changed
	})
}

func (s *Store) ClearError() {
	s.SetError("")
}
