// internal/ui/help.go
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Help overlay content and rendering

var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Cyan).
			MarginBottom(1)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(Yellow).
				MarginTop(1)

	// keybindings
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true)

	// slash commands
	helpCmdStyle = lipgloss.NewStyle().
			Foreground(Magenta)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(White)

	helpDimStyle = lipgloss.NewStyle().
			Foreground(Dim)
)

// helpCommands mirrors commands.HelpText in two columns
var helpCommands = []struct {
	cmd  string
	desc string
}{
	{"/load <path>", "Load a script (.txt, .md, .rtf)"},
	{"/save <path>", "Save the script"},
	{"/paste", "Replace the script with the clipboard"},
	{"/clear", "Clear the script"},
	{"/watch <path>|off", "Reload the script when the file changes"},
	{"/ask <question>", "Ask for a suggestion (plain text works too)"},
	{"/provider <name> [model]", "Select an AI provider"},
	{"/model <id>", "Select a model for the current provider"},
	{"/key <api-key>", "Validate and store an API key"},
	{"/mode <mode>", "coach, qa, star, keywords, custom"},
	{"/style <style>", "professional, casual, concise, detailed"},
	{"/custom <text>", "Instructions for the custom mode"},
	{"/length <words>", "Suggestion length (50-200)"},
	{"/speed <x>", "Scroll speed (0.2-5.0)"},
	{"/font <size>", "Font size"},
	{"/opacity <value>", "Background opacity, 0-1 or a percentage"},
	{"/ai on|off", "Toggle AI suggestions"},
	{"/listen", "Start or stop transcription"},
	{"/export [path]", "Export script and suggestions as markdown"},
}

// HelpContent returns the formatted help overlay content
func HelpContent(keys KeyMap, width, height int) string {
	var content strings.Builder

	content.WriteString(helpTitleStyle.Render("VOICEFLOW HELP"))
	content.WriteString("\n\n")

	content.WriteString(helpSectionStyle.Render("KEYBINDINGS"))
	content.WriteString("\n\n")
	for _, b := range keys.Bindings() {
		h := b.Help()
		k := helpKeyStyle.Width(14).Render(h.Key)
		content.WriteString("  " + k + "  " + helpDescStyle.Render(h.Desc) + "\n")
	}

	content.WriteString("\n")
	content.WriteString(helpSectionStyle.Render("SLASH COMMANDS"))
	content.WriteString("\n\n")
	for _, c := range helpCommands {
		cmdStr := helpCmdStyle.Width(26).Render(c.cmd)
		content.WriteString("  " + cmdStr + "  " + helpDescStyle.Render(c.desc) + "\n")
	}

	content.WriteString("\n")
	content.WriteString(helpSectionStyle.Render("SUGGESTIONS"))
	content.WriteString("\n\n")
	notes := []string{
		"Finished transcript lines and typed questions are sent to the active provider.",
		"A new question replaces the one in flight.",
		"Accepting appends the suggestion to the script; dismissing discards it.",
	}
	for _, line := range notes {
		content.WriteString("  " + helpDimStyle.Render(line) + "\n")
	}

	content.WriteString("\n")
	footer := helpDimStyle.Render("Press ? or Esc to close this help")
	content.WriteString(lipgloss.PlaceHorizontal(max(width-8, 0), lipgloss.Center, footer))

	overlayStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(1, 3).
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

// renderHelp renders the help overlay (called from app.go)
func (m *Model) renderHelp() string {
	return HelpContent(m.keys, m.width, m.height)
}
