// internal/ui/styles.go
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"voiceflow/internal/providers"
)

var (
	// Colors
	Cyan     = lipgloss.Color("#00FFFF")
	Green    = lipgloss.Color("#00FF00")
	Yellow   = lipgloss.Color("#FFD700")
	Orange   = lipgloss.Color("#FFA500")
	Red      = lipgloss.Color("#FF6B6B")
	Magenta  = lipgloss.Color("#FF00FF")
	SkyBlue  = lipgloss.Color("#87CEEB")
	Dim      = lipgloss.Color("#555555")
	Gray     = lipgloss.Color("#AAAAAA")
	White    = lipgloss.Color("#FFFFFF")
	DarkGray = lipgloss.Color("#333333")

	// Box styles
	SuggestionBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Cyan).
			Padding(0, 1)

	PendingBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Dim).
			Padding(0, 1)

	// Text styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Cyan)

	QuestionStyle = lipgloss.NewStyle().
			Foreground(SkyBlue).
			Bold(true)

	TranscriptStyle = lipgloss.NewStyle().
			Foreground(SkyBlue).
			Italic(true)

	SystemStyle = lipgloss.NewStyle().
			Foreground(Yellow)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(Dim)

	GuideStyle = lipgloss.NewStyle().
			Foreground(Yellow).
			Bold(true)

	// Status indicators
	StatusOK   = lipgloss.NewStyle().Foreground(Green).Bold(true)
	StatusWarn = lipgloss.NewStyle().Foreground(Orange).Bold(true)
	StatusCrit = lipgloss.NewStyle().Foreground(Red).Bold(true)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(DarkGray)
)

// ScriptStyle maps the background opacity onto the script foreground.
// A more opaque backdrop reads as brighter text.
func ScriptStyle(opacity float64) lipgloss.Style {
	switch {
	case opacity >= 0.66:
		return lipgloss.NewStyle().Foreground(White).Bold(true)
	case opacity >= 0.33:
		return lipgloss.NewStyle().Foreground(White)
	default:
		return lipgloss.NewStyle().Foreground(Gray)
	}
}

// ProviderStyle returns the style for a given vendor
func ProviderStyle(t providers.Type) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ProviderColor(t)).Bold(true)
}

// ProviderColor returns the color for a given vendor
func ProviderColor(t providers.Type) lipgloss.Color {
	switch t {
	case providers.Anthropic:
		return Cyan
	case providers.OpenAI:
		return Green
	case providers.Google:
		return Magenta
	case providers.XAI:
		return Orange
	case providers.DeepSeek:
		return SkyBlue
	case providers.Minimax:
		return Yellow
	default:
		return White
	}
}

// ConfidenceStyle colors a confidence score
func ConfidenceStyle(c float64) lipgloss.Style {
	switch {
	case c >= 0.7:
		return StatusOK
	case c >= 0.4:
		return StatusWarn
	default:
		return StatusCrit
	}
}
