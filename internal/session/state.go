// internal/session/state.go
package session

import (
	"voiceflow/internal/ai"
	"voiceflow/internal/providers"
)

// State is a snapshot of the session. Store hands out copies; mutating a
// snapshot has no effect on the store.
type State struct {
	Variant Variant

	// Script
	Script    string
	WordCount int

	// Playback
	Scrolling bool
	Offset    float64
	Speed     float64

	// Display
	FontSize       float64
	Opacity        float64
	Mirror         bool
	GuideLine      bool
	OverlayVisible bool

	// Transcription
	Listening         bool
	Transcript        string
	PartialTranscript string

	// AI configuration
	AIEnabled         bool
	ShowFollowUps     bool
	Provider          providers.Type
	Model             string
	APIKey            string
	Mode              ai.Mode
	Style             ai.Style
	MaxResponseLength int

	// Suggestion
	RequestID  string // id of the latest request, fences completions
	Pending    bool
	Question   string
	Suggestion string // empty when none is displayed

	// request that produced the displayed suggestion
	SuggestionID       string
	SuggestionQuestion string
	FollowUps          []string
	Confidence         float64

	ErrorMessage string
}

// HasSuggestion reports whether a suggestion is on screen
func (s State) HasSuggestion() bool {
	return s.Suggestion != ""
}

// Preferences returns the persisted subset of s with every field set
func (s State) Preferences() Preferences {
	p := Preferences{
		Script:            Ptr(s.Script),
		Speed:             Ptr(s.Speed),
		FontSize:          Ptr(s.FontSize),
		Opacity:           Ptr(s.Opacity),
		Mirror:            Ptr(s.Mirror),
		GuideLine:         Ptr(s.GuideLine),
		AIEnabled:         Ptr(s.AIEnabled),
		ShowFollowUps:     Ptr(s.ShowFollowUps),
		Mode:              Ptr(s.Mode.Key()),
		Style:             Ptr(s.Style.Key()),
		MaxResponseLength: Ptr(s.MaxResponseLength),
	}
	if s.Provider != "" {
		p.Provider = Ptr(string(s.Provider))
		p.Model = Ptr(s.Model)
	}
	return p
}

func (s State) clone() State {
	if s.FollowUps != nil {
		s.FollowUps = append([]string(nil), s.FollowUps...)
	}
	return s
}
