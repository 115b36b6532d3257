// internal/ui/teleprompter.go
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"voiceflow/internal/session"
)

const (
	// DefaultPointsPerLine is the scroll distance that advances one row
	DefaultPointsPerLine = 24.0

	minWrapWidth = 20
	gutterWidth  = 2
)

// Layout converts session geometry into terminal rows and columns
type Layout struct {
	Width         int
	Height        int // rows available to the script
	PointsPerLine float64
}

// WrapWidth is the column count one script line may use. Larger fonts
// fit fewer characters on the same screen.
func (l Layout) WrapWidth(st session.State) int {
	avail := l.Width - gutterWidth
	if avail < minWrapWidth {
		return max(avail, 1)
	}
	w := avail
	if st.FontSize > 0 {
		w = int(float64(avail) * st.Variant.DefaultFontSize() / st.FontSize)
	}
	return min(max(w, minWrapWidth), avail)
}

// TopLine is the index of the script line on the reading row
func (l Layout) TopLine(st session.State) int {
	ppl := l.PointsPerLine
	if ppl <= 0 {
		ppl = DefaultPointsPerLine
	}
	return int(st.Offset / ppl)
}

// ReadingRow is the viewport row the guide line marks
func (l Layout) ReadingRow() int {
	return l.Height / 3
}

// WrapScript word-wraps text to width columns
func WrapScript(text string, width int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	wrapped := lipgloss.NewStyle().Width(width).Render(text)
	lines := strings.Split(wrapped, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return lines
}

// MirrorLine reverses the runes of line and right-aligns it in width cells
func MirrorLine(line string, width int) string {
	runes := []rune(line)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	mirrored := string(runes)
	if pad := width - lipgloss.Width(mirrored); pad > 0 {
		return strings.Repeat(" ", pad) + mirrored
	}
	return mirrored
}

// scriptContent builds the viewport body: blank rows above so the first
// line starts on the reading row, and below so the last line can reach it.
func scriptContent(st session.State, l Layout) string {
	width := l.WrapWidth(st)
	lines := WrapScript(st.Script, width)
	style := ScriptStyle(st.Opacity)

	rows := make([]string, 0, len(lines)+l.Height)
	for range l.ReadingRow() {
		rows = append(rows, "")
	}
	for _, line := range lines {
		if st.Mirror {
			line = MirrorLine(line, width)
		}
		rows = append(rows, style.Render(line))
	}
	for range max(l.Height-l.ReadingRow()-1, 0) {
		rows = append(rows, "")
	}
	return strings.Join(rows, "\n")
}

// TeleprompterView renders the script through a viewport
type TeleprompterView struct {
	viewport viewport.Model
	layout   Layout

	// content cache, rebuilt only when one of these changes
	script  string
	wrap    int
	mirror  bool
	opacity float64
	height  int
	content string
}

func NewTeleprompterView(pointsPerLine float64) *TeleprompterView {
	return &TeleprompterView{
		viewport: viewport.New(0, 0),
		layout:   Layout{PointsPerLine: pointsPerLine},
	}
}

// SetSize sets the area the script occupies
func (t *TeleprompterView) SetSize(width, height int) {
	t.layout.Width = width
	t.layout.Height = max(height, 1)
	t.viewport.Width = width
	t.viewport.Height = t.layout.Height
}

// Sync points the viewport at the state's offset
func (t *TeleprompterView) Sync(st session.State) {
	wrap := t.layout.WrapWidth(st)
	if st.Script != t.script || wrap != t.wrap || st.Mirror != t.mirror ||
		st.Opacity != t.opacity || t.layout.Height != t.height {
		t.script, t.wrap, t.mirror, t.opacity, t.height = st.Script, wrap, st.Mirror, st.Opacity, t.layout.Height
		t.content = scriptContent(st, t.layout)
		t.viewport.SetContent(t.content)
	}
	t.viewport.SetYOffset(t.layout.TopLine(st))
}

// View renders the visible rows with the guide-line gutter
func (t *TeleprompterView) View(st session.State) string {
	if strings.TrimSpace(st.Script) == "" {
		msg := DimStyle.Render("No script loaded. Use /load <path>, /paste, or type /help.")
		return lipgloss.Place(t.layout.Width, t.layout.Height, lipgloss.Center, lipgloss.Center, msg)
	}

	rows := strings.Split(t.viewport.View(), "\n")
	guide := t.layout.ReadingRow()
	var sb strings.Builder
	for i, row := range rows {
		if i > 0 {
			sb.WriteString("\n")
		}
		if st.GuideLine && i == guide {
			sb.WriteString(GuideStyle.Render("▶ "))
		} else {
			sb.WriteString("  ")
		}
		sb.WriteString(row)
	}
	return sb.String()
}

// RenderSuggestion draws the suggestion card, or a pending notice.
// renderer may be nil, in which case the suggestion is shown as plain text.
func RenderSuggestion(st session.State, renderer *glamour.TermRenderer, spinner string, width int) string {
	inner := max(width-4, minWrapWidth)

	if st.Pending {
		line := fmt.Sprintf("%s Thinking about: %s", spinner, truncate(st.Question, inner-20))
		return PendingBox.Width(inner).Render(DimStyle.Render(line))
	}
	if !st.HasSuggestion() {
		return ""
	}

	var sb strings.Builder
	header := TitleStyle.Render("Suggestion")
	if st.Confidence > 0 {
		header += "  " + ConfidenceStyle(st.Confidence).Render(fmt.Sprintf("● %d%% match", int(st.Confidence*100+0.5)))
	}
	sb.WriteString(header)
	sb.WriteString("\n")
	if st.SuggestionQuestion != "" {
		sb.WriteString(QuestionStyle.Render("Q: " + truncate(st.SuggestionQuestion, inner-3)))
		sb.WriteString("\n")
	}

	body := st.Suggestion
	if renderer != nil {
		if out, err := renderer.Render(st.Suggestion); err == nil {
			body = strings.Trim(out, "\n")
		}
	} else {
		body = lipgloss.NewStyle().Width(inner - 2).Render(body)
	}
	sb.WriteString(body)

	if st.ShowFollowUps && len(st.FollowUps) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(SystemStyle.Render("Follow-ups"))
		for i, q := range st.FollowUps {
			sb.WriteString(fmt.Sprintf("\n  %s %s", DimStyle.Render(fmt.Sprintf("alt+%d", i+1)), q))
		}
	}

	sb.WriteString("\n")
	sb.WriteString(DimStyle.Render("alt+a accept · alt+d dismiss"))
	return SuggestionBox.Width(inner).Render(sb.String())
}

// RenderTranscript shows the words heard so far, or nothing when idle
func RenderTranscript(st session.State, width int) string {
	if !st.Listening && st.PartialTranscript == "" {
		return ""
	}
	text := st.PartialTranscript
	if text == "" {
		text = "listening..."
	}
	return TranscriptStyle.Render(truncate("» "+text, width))
}

// RenderStatus draws the single-line status bar
func RenderStatus(st session.State, info string, width int) string {
	var parts []string

	if st.Scrolling {
		parts = append(parts, StatusOK.Render("▶")+fmt.Sprintf(" %.1fx", st.Speed))
	} else {
		parts = append(parts, DimStyle.Render("❚❚")+fmt.Sprintf(" %.1fx", st.Speed))
	}
	parts = append(parts, fmt.Sprintf("%gpt", st.FontSize))
	parts = append(parts, fmt.Sprintf("%d words", st.WordCount))

	switch {
	case !st.AIEnabled:
		parts = append(parts, DimStyle.Render("AI off"))
	case st.Provider == "":
		parts = append(parts, StatusWarn.Render("no provider"))
	default:
		parts = append(parts, ProviderStyle(st.Provider).Render(st.Provider.String())+
			" "+st.Model+" · "+st.Mode.String())
	}

	if st.Listening {
		parts = append(parts, StatusCrit.Render("● REC"))
	}
	if st.Mirror {
		parts = append(parts, "mirror")
	}
	if !st.OverlayVisible {
		parts = append(parts, DimStyle.Render("hidden"))
	}

	switch {
	case st.ErrorMessage != "":
		parts = append(parts, ErrorStyle.Render(st.ErrorMessage))
	case info != "":
		parts = append(parts, SystemStyle.Render(info))
	}

	line := " " + strings.Join(parts, " │ ")
	return StatusBarStyle.Width(width).MaxWidth(width).Render(line)
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
