// internal/export/markdown.go
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"voiceflow/internal/db"
)

// SessionExport contains the data needed to export a session
type SessionExport struct {
	Title       string
	CreatedAt   time.Time
	Provider    string
	Model       string
	Mode        string
	Style       string
	Script      string
	WordCount   int
	Suggestions []db.SuggestionRecord
}

// ExportSession generates a formatted markdown string from a session
func ExportSession(s *SessionExport) string {
	var sb strings.Builder

	title := strings.TrimSpace(s.Title)
	if title == "" {
		title = "VoiceFlow Session"
	}
	sb.WriteString("# ")
	sb.WriteString(title)
	sb.WriteString("\n\n")

	// Metadata section
	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("**Date:** %s\n\n", s.CreatedAt.Format("2006-01-02 15:04:05")))
	if s.Provider != "" {
		model := s.Provider
		if s.Model != "" {
			model += " / " + s.Model
		}
		sb.WriteString(fmt.Sprintf("**Provider:** %s\n\n", model))
	}
	if s.Mode != "" {
		sb.WriteString(fmt.Sprintf("**Mode:** %s", s.Mode))
		if s.Style != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", s.Style))
		}
		sb.WriteString("\n\n")
	}
	sb.WriteString(fmt.Sprintf("**Words:** %d\n\n", s.WordCount))
	sb.WriteString("---\n\n")

	sb.WriteString("## Script\n\n")
	if script := strings.TrimSpace(s.Script); script != "" {
		sb.WriteString(script)
		sb.WriteString("\n\n")
	} else {
		sb.WriteString("*No script.*\n\n")
	}

	if len(s.Suggestions) > 0 {
		sb.WriteString("---\n\n")
		sb.WriteString("## Suggestions\n\n")

		entries := slices.Clone(s.Suggestions)
		slices.SortStableFunc(entries, func(a, b db.SuggestionRecord) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})

		for i, e := range entries {
			writeSuggestion(&sb, e)
			if i < len(entries)-1 {
				sb.WriteString("---\n\n")
			}
		}
	}

	// Footer
	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from VoiceFlow on %s*\n", time.Now().Format("2006-01-02 15:04:05")))

	return sb.String()
}

func writeSuggestion(sb *strings.Builder, e db.SuggestionRecord) {
	ts := e.CreatedAt.Local().Format("15:04:05")
	sb.WriteString(fmt.Sprintf("### [%s] %s\n\n", ts, strings.TrimSpace(e.Question)))

	if text := strings.TrimSpace(e.Suggestion); text != "" {
		for _, line := range strings.Split(text, "\n") {
			sb.WriteString("> ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(e.FollowUps) > 0 {
		sb.WriteString("**Follow-ups:**\n\n")
		for _, q := range e.FollowUps {
			sb.WriteString(fmt.Sprintf("- %s\n", q))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("*Outcome: %s*", formatOutcome(e.Outcome)))
	if e.Error != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", e.Error))
	}
	sb.WriteString("\n\n")
}

// WriteSession writes the export to path. With an empty path the file goes
// to <baseDir>/exports/YYYY-MM-DD-title.md.
func WriteSession(s *SessionExport, path, baseDir string) (string, error) {
	if path == "" {
		dir := filepath.Join(baseDir, "exports")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create exports directory: %w", err)
		}
		name := fmt.Sprintf("%s-%s.md", s.CreatedAt.Format("2006-01-02"), sanitizeFilename(s.Title))
		path = filepath.Join(dir, name)
	} else if filepath.Ext(path) == "" {
		path += ".md"
	}

	content := ExportSession(s)
	if err := atomic.WriteFile(path, strings.NewReader(content)); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

func formatOutcome(o db.Outcome) string {
	switch o {
	case db.OutcomeAccepted:
		return "accepted into script"
	case db.OutcomeDismissed:
		return "dismissed"
	case db.OutcomeSuperseded:
		return "superseded"
	case db.OutcomeFailed:
		return "failed"
	case db.OutcomeShown:
		return "shown"
	case db.OutcomePending, "":
		return "pending"
	default:
		return string(o)
	}
}

// sanitizeFilename removes/replaces characters unsuitable for filenames
func sanitizeFilename(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "-")

	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
			sb.WriteRune(r)
		case r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '-' || r == '_':
			sb.WriteRune(r)
		}
	}

	result := sb.String()
	for strings.Contains(result, "--") {
		result = strings.ReplaceAll(result, "--", "-")
	}
	result = strings.Trim(result, "-")

	if result == "" {
		result = "session"
	}
	if len(result) > 50 {
		result = result[:50]
	}
	return result
}
