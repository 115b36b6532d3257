// internal/session/variant.go
package session

import (
	"fmt"
	"math"
	"strings"
)

// Playback and display limits shared by both variants
const (
	MinSpeed     = 0.2
	MaxSpeed     = 5.0
	DefaultSpeed = 1.0
	SpeedStep    = 0.3

	// JumpBackStep is how far JumpBack rewinds, in offset units
	JumpBackStep = 100.0

	DefaultOpacity = 0.7
	FontStep       = 2.0

	MinResponseLength     = 50
	MaxResponseLength     = 200
	DefaultResponseLength = 100

	MaxFollowUps = 3
)

// Variant selects which app flavor's limits apply
type Variant int

const (
	VoiceFlow Variant = iota
	Teleprompter
)

func (v Variant) String() string {
	if v == Teleprompter {
		return "teleprompter"
	}
	return "voiceflow"
}

// FontRange returns the allowed font sizes in points
func (v Variant) FontRange() (min, max float64) {
	if v == Teleprompter {
		return 16, 72
	}
	return 24, 96
}

func (v Variant) DefaultFontSize() float64 {
	if v == Teleprompter {
		return 32
	}
	return 48
}

// ParseVariant maps a config value to a Variant. Empty means VoiceFlow.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "voiceflow":
		return VoiceFlow, nil
	case "teleprompter":
		return Teleprompter, nil
	default:
		return VoiceFlow, fmt.Errorf("unknown variant %q", s)
	}
}

// clamp limits v to [lo, hi]. NaN maps to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampSpeed limits v to [MinSpeed, MaxSpeed]
func ClampSpeed(v float64) float64 {
	return clamp(v, MinSpeed, MaxSpeed)
}

// WordCount counts whitespace-separated words
func WordCount(text string) int {
	return len(strings.Fields(text))
}
