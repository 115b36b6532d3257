// internal/ui/history.go
package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"voiceflow/internal/db"
)

// historyLimit caps how many past suggestions the browser loads
const historyLimit = 200

var errNoDatabase = errors.New("database not available")

// ViewMode represents the current view state
type ViewMode int

const (
	ViewNormal ViewMode = iota
	ViewHelp
	ViewHistory
)

// HistoryState holds the state for the suggestion history browser
type HistoryState struct {
	records   []db.SuggestionRecord
	cursor    int
	scrollTop int
	maxHeight int
}

// NewHistoryState creates a new history state
func NewHistoryState() *HistoryState {
	return &HistoryState{
		maxHeight: 20, // updated from the terminal size
	}
}

// Up moves the cursor up
func (h *HistoryState) Up() {
	if h.cursor > 0 {
		h.cursor--
		if h.cursor < h.scrollTop {
			h.scrollTop = h.cursor
		}
	}
}

// Down moves the cursor down
func (h *HistoryState) Down() {
	if h.cursor < len(h.records)-1 {
		h.cursor++
		if h.cursor >= h.scrollTop+h.maxHeight {
			h.scrollTop = h.cursor - h.maxHeight + 1
		}
	}
}

// Selected returns the record under the cursor, or nil if none
func (h *HistoryState) Selected() *db.SuggestionRecord {
	if h.cursor >= 0 && h.cursor < len(h.records) {
		return &h.records[h.cursor]
	}
	return nil
}

// SetRecords replaces the list and resets the cursor
func (h *HistoryState) SetRecords(records []db.SuggestionRecord) {
	h.records = records
	h.cursor = 0
	h.scrollTop = 0
}

// LoadHistory reads the newest suggestions from the database
func LoadHistory(store *db.Store) ([]db.SuggestionRecord, error) {
	if store == nil {
		return nil, errNoDatabase
	}
	return store.ListSuggestions(historyLimit)
}

// SetMaxHeight updates the max visible height
func (h *HistoryState) SetMaxHeight(height int) {
	h.maxHeight = height - 14 // header, preview and footer
	if h.maxHeight < 5 {
		h.maxHeight = 5
	}
}

// Render renders the history browser overlay
func (h *HistoryState) Render(width, height int) string {
	var content strings.Builder

	content.WriteString(TitleStyle.Render("SUGGESTION HISTORY"))
	content.WriteString("\n")
	content.WriteString(DimStyle.Render("Newest first"))
	content.WriteString("\n\n")

	if len(h.records) == 0 {
		content.WriteString(DimStyle.Render("No suggestions yet."))
		content.WriteString("\n\n")
		content.WriteString(DimStyle.Render("Ask a question and it will appear here."))
	} else {
		visibleEnd := min(h.scrollTop+h.maxHeight, len(h.records))

		header := fmt.Sprintf("  %-16s  %-10s  %s", "When", "Outcome", "Question")
		content.WriteString(DimStyle.Render(header))
		content.WriteString("\n")
		content.WriteString(DimStyle.Render(strings.Repeat("-", 70)))
		content.WriteString("\n")

		for i := h.scrollTop; i < visibleEnd; i++ {
			r := h.records[i]

			timeStr := r.CreatedAt.Local().Format("2006-01-02 15:04")
			if time.Since(r.CreatedAt) < 24*time.Hour {
				timeStr = r.CreatedAt.Local().Format("Today 15:04")
			}

			cursor := "  "
			lineStyle := DimStyle
			if i == h.cursor {
				cursor = "> "
				lineStyle = lipgloss.NewStyle().Foreground(Cyan)
			}

			outcome := outcomeStyle(r.Outcome).Width(10).Render(string(r.Outcome))
			line := fmt.Sprintf("%-16s  %s  %s", timeStr, outcome, truncate(r.Question, 40))

			content.WriteString(cursor)
			content.WriteString(lineStyle.Render(line))
			content.WriteString("\n")
		}

		if len(h.records) > h.maxHeight {
			content.WriteString("\n")
			content.WriteString(DimStyle.Render(fmt.Sprintf("Showing %d-%d of %d",
				h.scrollTop+1, visibleEnd, len(h.records))))
		}

		if sel := h.Selected(); sel != nil {
			content.WriteString("\n\n")
			preview := sel.Suggestion
			if preview == "" {
				preview = sel.Error
			}
			content.WriteString(lipgloss.NewStyle().Width(min(max(width-20, 20), 70)).Render(truncate(preview, 280)))
		}
	}

	content.WriteString("\n\n")
	content.WriteString(DimStyle.Render("Up/Down: Navigate | Enter: Add to script | c: Copy | Esc: Close"))

	overlayStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(1, 2).
		MaxWidth(max(width-10, 20)).
		MaxHeight(max(height-4, 10))

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlayStyle.Render(content.String()),
	)
}

func outcomeStyle(o db.Outcome) lipgloss.Style {
	switch o {
	case db.OutcomeAccepted:
		return StatusOK
	case db.OutcomeShown:
		return lipgloss.NewStyle().Foreground(Green)
	case db.OutcomeFailed:
		return StatusCrit
	case db.OutcomePending:
		return StatusWarn
	default:
		return DimStyle
	}
}
