// internal/ai/prompt.go
package ai

import (
	"fmt"
	"strings"

	"voiceflow/internal/providers"
)

// MaxFollowUps caps the follow-up prompts kept from one response
const MaxFollowUps = 3

// BuildPrompt assembles the suggestion prompt. It is pure: equal inputs give equal output.
func BuildPrompt(question, scriptContext string, mode Mode, style Style, maxLength int) string {
	return buildPrompt(question, scriptContext, mode, style, maxLength, "")
}

func buildPrompt(question, scriptContext string, mode Mode, style Style, maxLength int, custom string) string {
	var sb strings.Builder

	sb.WriteString("Interview Question: ")
	sb.WriteString(question)
	sb.WriteString("\n\nScript/Context: ")
	sb.WriteString(scriptContext)
	sb.WriteString("\n\n")

	sb.WriteString(mode.instruction())
	if mode == ModeCustom && strings.TrimSpace(custom) != "" {
		sb.WriteString("\nCustom instructions: ")
		sb.WriteString(strings.TrimSpace(custom))
	}
	sb.WriteString("\n\n")

	sb.WriteString(style.instruction())
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Keep the response to approximately %d words.\n\n", maxLength)
	sb.WriteString("Suggested Response:")

	return sb.String()
}

// followUpPrompt asks for three follow-up questions. OpenAI-style models
// tend to number their lists, so they get an extra hint.
func followUpPrompt(question string, family providers.Family) string {
	var sb strings.Builder
	sb.WriteString("Based on this interview question, suggest 3 natural follow-up questions an interviewer might ask:\n\n")
	sb.WriteString("Question: ")
	sb.WriteString(question)
	sb.WriteString("\n\nProvide exactly 3 questions, one per line")
	if family == providers.FamilyOpenAI {
		sb.WriteString(", no numbering")
	}
	sb.WriteString(".")
	return sb.String()
}

// ParseFollowUps splits a raw response into at most MaxFollowUps questions.
// Blank lines are dropped and list markers ("1.", "2)", "-", "*") are stripped.
func ParseFollowUps(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = stripListMarker(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == MaxFollowUps {
			break
		}
	}
	return out
}

func stripListMarker(line string) string {
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") || strings.HasPrefix(line, "• ") {
		_, rest, _ := strings.Cut(line, " ")
		return strings.TrimSpace(rest)
	}

	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	// a marker needs whitespace after it, so "3.5 years" stays intact
	if i > 0 && i+1 < len(line) && (line[i] == '.' || line[i] == ')') && (line[i+1] == ' ' || line[i+1] == '\t') {
		return strings.TrimSpace(line[i+1:])
	}
	return line
}
