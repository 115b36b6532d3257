// Package commands handles slash command parsing for the overlay command line.
package commands

import (
	"math"
	"strconv"
	"strings"

	"voiceflow/internal/ai"
	"voiceflow/internal/providers"
)

// Command interface for all command types
type Command interface {
	Type() string
}

// Help returns help text
type Help struct{}

func (Help) Type() string { return "help" }

// Load replaces the script with a file
type Load struct {
	Path string
}

func (Load) Type() string { return "load" }

// Save writes the script to a file
type Save struct {
	Path string
}

func (Save) Type() string { return "save" }

// Paste replaces the script with the clipboard
type Paste struct{}

func (Paste) Type() string { return "paste" }

// Clear empties the script
type Clear struct{}

func (Clear) Type() string { return "clear" }

// Watch reloads the script whenever the file changes. An empty Path stops watching.
type Watch struct {
	Path string
}

func (Watch) Type() string { return "watch" }

// Ask requests a suggestion for a typed question
type Ask struct {
	Question string
}

func (Ask) Type() string { return "ask" }

// SetProvider selects the AI vendor; Model may be empty for the default
type SetProvider struct {
	Provider providers.Type
	Model    string
}

func (SetProvider) Type() string { return "provider" }

type SetModel struct {
	Model string
}

func (SetModel) Type() string { return "model" }

// SetKey validates and stores an API key for the current provider
type SetKey struct {
	Key string
}

func (SetKey) Type() string { return "key" }

type SetMode struct {
	Mode ai.Mode
}

func (SetMode) Type() string { return "mode" }

type SetStyle struct {
	Style ai.Style
}

func (SetStyle) Type() string { return "style" }

// SetCustom sets the instructions used by the custom mode
type SetCustom struct {
	Instructions string
}

func (SetCustom) Type() string { return "custom" }

type SetLength struct {
	Words int
}

func (SetLength) Type() string { return "length" }

type SetSpeed struct {
	Speed float64
}

func (SetSpeed) Type() string { return "speed" }

type SetFont struct {
	Size float64
}

func (SetFont) Type() string { return "font" }

type SetOpacity struct {
	Opacity float64
}

func (SetOpacity) Type() string { return "opacity" }

// SetAI turns suggestions on or off
type SetAI struct {
	Enabled bool
}

func (SetAI) Type() string { return "ai" }

// Listen toggles transcription
type Listen struct{}

func (Listen) Type() string { return "listen" }

// Export writes script and suggestion history as markdown
type Export struct {
	Path string
}

func (Export) Type() string { return "export" }

// ParseError represents a command parsing error
type ParseError struct {
	Message string
}

func (ParseError) Type() string { return "error" }

// Parse parses user input and returns the appropriate Command.
// Returns nil if the input is not a slash command.
func Parse(input string) Command {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return nil
	}

	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]
	// rest keeps inner spacing for paths and free text
	rest := strings.TrimSpace(input[len(parts[0]):])

	switch cmd {
	case "/help":
		return Help{}

	case "/load":
		if rest == "" {
			return ParseError{Message: "/load requires a path"}
		}
		return Load{Path: rest}

	case "/save":
		if rest == "" {
			return ParseError{Message: "/save requires a path"}
		}
		return Save{Path: rest}

	case "/paste":
		return Paste{}

	case "/clear":
		return Clear{}

	case "/watch":
		if rest == "" {
			return ParseError{Message: "/watch requires a path, or off"}
		}
		if strings.EqualFold(rest, "off") {
			return Watch{}
		}
		return Watch{Path: rest}

	case "/ask":
		if rest == "" {
			return ParseError{Message: "/ask requires a question"}
		}
		return Ask{Question: rest}

	case "/provider":
		if len(args) == 0 {
			return ParseError{Message: "/provider requires a name: " + providerNames()}
		}
		t, err := providers.ParseType(args[0])
		if err != nil {
			return ParseError{Message: "unknown provider: " + args[0]}
		}
		p := SetProvider{Provider: t}
		if len(args) > 1 {
			p.Model = args[1]
			if !t.HasModel(p.Model) {
				return ParseError{Message: "unknown model for " + t.String() + ": " + p.Model}
			}
		}
		return p

	case "/model":
		if len(args) == 0 {
			return ParseError{Message: "/model requires a model id"}
		}
		return SetModel{Model: args[0]}

	case "/key":
		if len(args) == 0 {
			return ParseError{Message: "/key requires an API key"}
		}
		return SetKey{Key: args[0]}

	case "/mode":
		if rest == "" {
			return ParseError{Message: "/mode requires one of: coach, qa, star, keywords, custom"}
		}
		m, err := ai.ParseMode(rest)
		if err != nil {
			return ParseError{Message: "unknown mode: " + rest}
		}
		return SetMode{Mode: m}

	case "/style":
		if rest == "" {
			return ParseError{Message: "/style requires one of: professional, casual, concise, detailed"}
		}
		s, err := ai.ParseStyle(rest)
		if err != nil {
			return ParseError{Message: "unknown style: " + rest}
		}
		return SetStyle{Style: s}

	case "/custom":
		return SetCustom{Instructions: rest}

	case "/length":
		n, err := parseInt(args)
		if err != nil {
			return ParseError{Message: "/length requires a word count"}
		}
		return SetLength{Words: n}

	case "/speed":
		v, err := parseFloat(args)
		if err != nil {
			return ParseError{Message: "/speed requires a number"}
		}
		return SetSpeed{Speed: v}

	case "/font":
		v, err := parseFloat(args)
		if err != nil {
			return ParseError{Message: "/font requires a size"}
		}
		return SetFont{Size: v}

	case "/opacity":
		if len(args) == 0 {
			return ParseError{Message: "/opacity requires a value between 0 and 1, or a percentage"}
		}
		v, err := parseOpacity(args[0])
		if err != nil {
			return ParseError{Message: "invalid opacity: " + args[0]}
		}
		return SetOpacity{Opacity: v}

	case "/ai":
		if len(args) == 0 {
			return ParseError{Message: "/ai requires on or off"}
		}
		switch strings.ToLower(args[0]) {
		case "on", "true", "yes", "enable":
			return SetAI{Enabled: true}
		case "off", "false", "no", "disable":
			return SetAI{Enabled: false}
		default:
			return ParseError{Message: "/ai requires on or off"}
		}

	case "/listen":
		return Listen{}

	case "/export":
		return Export{Path: rest}

	default:
		return ParseError{Message: "unknown command: " + cmd}
	}
}

func parseInt(args []string) (int, error) {
	if len(args) == 0 {
		return 0, strconv.ErrSyntax
	}
	return strconv.Atoi(args[0])
}

func parseFloat(args []string) (float64, error) {
	if len(args) == 0 {
		return 0, strconv.ErrSyntax
	}
	return parseFinite(strings.TrimSuffix(strings.ToLower(args[0]), "x"))
}

func parseOpacity(s string) (float64, error) {
	if pct, ok := strings.CutSuffix(s, "%"); ok {
		v, err := parseFinite(pct)
		if err != nil {
			return 0, err
		}
		return v / 100, nil
	}
	return parseFinite(s)
}

// parseFinite rejects NaN and infinities, which strconv accepts
func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

func providerNames() string {
	names := make([]string, len(providers.AllTypes))
	for i, t := range providers.AllTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// HelpText returns the help text for all available commands.
func HelpText() string {
	return `Available commands:
  /help                     - Show this help
  /load <path>              - Load a script (.txt, .md, .rtf)
  /save <path>              - Save the script
  /paste                    - Replace the script with the clipboard
  /clear                    - Clear the script
  /watch <path>|off         - Reload the script when the file changes
  /ask <question>           - Ask for a suggestion (plain text works too)
  /provider <name> [model]  - Select an AI provider
  /model <id>               - Select a model for the current provider
  /key <api-key>            - Validate and store an API key
  /mode <mode>              - coach, qa, star, keywords, custom
  /style <style>            - professional, casual, concise, detailed
  /custom <instructions>    - Instructions for the custom mode
  /length <words>           - Suggestion length (50-200)
  /speed <x>                - Scroll speed (0.2-5.0)
  /font <size>              - Font size
  /opacity <0-1|percent>    - Background opacity
  /ai on|off                - Toggle AI suggestions
  /listen                   - Start or stop transcription
  /export [path]            - Export script and suggestions as markdown`
}
