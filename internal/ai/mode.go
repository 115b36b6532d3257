// internal/ai/mode.go
package ai

import (
	"fmt"
	"strings"
)

// Mode selects the mode instruction in the prompt
type Mode int

const (
	ModeInterviewCoach Mode = iota
	ModeQAGenerator
	ModeSTARMethod
	ModeKeywordBooster
	ModeCustom
)

// AllModes lists modes in menu order
var AllModes = []Mode{ModeInterviewCoach, ModeQAGenerator, ModeSTARMethod, ModeKeywordBooster, ModeCustom}

func (m Mode) String() string {
	switch m {
	case ModeInterviewCoach:
		return "Interview Coach"
	case ModeQAGenerator:
		return "Q&A Generator"
	case ModeSTARMethod:
		return "STAR Method"
	case ModeKeywordBooster:
		return "Keyword Booster"
	case ModeCustom:
		return "Custom"
	default:
		return "unknown"
	}
}

// Key is the stable identifier used in config and storage
func (m Mode) Key() string {
	switch m {
	case ModeQAGenerator:
		return "qa"
	case ModeSTARMethod:
		return "star"
	case ModeKeywordBooster:
		return "keywords"
	case ModeCustom:
		return "custom"
	default:
		return "coach"
	}
}

func (m Mode) instruction() string {
	switch m {
	case ModeQAGenerator:
		return "Generate a complete answer to the question."
	case ModeSTARMethod:
		return "Structure the response using STAR method (Situation, Task, Action, Result)."
	case ModeKeywordBooster:
		return "Include relevant industry keywords and buzzwords naturally."
	case ModeCustom:
		return "Respond according to custom instructions if provided."
	default:
		return "Provide a suggested response to the interviewer's question based on the script context."
	}
}

// ParseMode accepts a key or display name, case-insensitively
func ParseMode(s string) (Mode, error) {
	s = normalize(s)
	for _, m := range AllModes {
		if s == m.Key() || s == normalize(m.String()) {
			return m, nil
		}
	}
	switch s {
	case "interview", "interviewcoach":
		return ModeInterviewCoach, nil
	case "qagenerator", "q&a":
		return ModeQAGenerator, nil
	case "starmethod":
		return ModeSTARMethod, nil
	case "keyword", "keywordbooster":
		return ModeKeywordBooster, nil
	}
	return ModeInterviewCoach, fmt.Errorf("unknown mode %q", s)
}

// Style selects the tone instruction in the prompt
type Style int

const (
	StyleProfessional Style = iota
	StyleCasual
	StyleConcise
	StyleDetailed
)

var AllStyles = []Style{StyleProfessional, StyleCasual, StyleConcise, StyleDetailed}

func (s Style) String() string {
	switch s {
	case StyleProfessional:
		return "Professional"
	case StyleCasual:
		return "Casual/Friendly"
	case StyleConcise:
		return "Concise"
	case StyleDetailed:
		return "Detailed"
	default:
		return "unknown"
	}
}

func (s Style) Key() string {
	switch s {
	case StyleCasual:
		return "casual"
	case StyleConcise:
		return "concise"
	case StyleDetailed:
		return "detailed"
	default:
		return "professional"
	}
}

func (s Style) instruction() string {
	switch s {
	case StyleCasual:
		return "Use conversational language, be friendly and approachable."
	case StyleConcise:
		return "Be brief and to the point, get to the answer quickly."
	case StyleDetailed:
		return "Provide comprehensive details, include examples and specifics."
	default:
		return "Use professional language, industry terminology, and formal tone."
	}
}

func ParseStyle(s string) (Style, error) {
	s = normalize(s)
	for _, st := range AllStyles {
		if s == st.Key() || s == normalize(st.String()) {
			return st, nil
		}
	}
	if s == "friendly" || s == "casualfriendly" {
		return StyleCasual, nil
	}
	return StyleProfessional, fmt.Errorf("unknown style %q", s)
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "", "_", "", "/", "").Replace(s)
}
