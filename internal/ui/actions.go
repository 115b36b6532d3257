// internal/ui/actions.go
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"voiceflow/internal/commands"
	"voiceflow/internal/config"
	"voiceflow/internal/export"
	"voiceflow/internal/orchestrator"
	"voiceflow/internal/providers"
	"voiceflow/internal/script"
	"voiceflow/internal/voice"
)

// keyValidationTimeout bounds the validation request behind /key
const keyValidationTimeout = 20 * time.Second

// applyIntent runs one overlay action. Key bindings and the voice control
// server both land here.
func (m *Model) applyIntent(cmd voice.Command) tea.Cmd {
	store := m.deps.Store
	engine := m.deps.Engine

	switch cmd.Intent {
	case voice.IntentToggleScroll:
		engine.Toggle()
	case voice.IntentReset:
		engine.Reset()
	case voice.IntentJumpBack:
		engine.JumpBack()
	case voice.IntentFaster:
		engine.IncreaseSpeed()
	case voice.IntentSlower:
		engine.DecreaseSpeed()
	case voice.IntentToggleOverlay:
		store.ToggleOverlay()
	case voice.IntentToggleMirror:
		store.ToggleMirror()
	case voice.IntentAcceptSuggestion:
		if _, ok := m.deps.Orchestrator.Accept(); ok {
			m.info = "Suggestion added to script"
		} else {
			m.info = "No suggestion to accept"
		}
	case voice.IntentDismissSuggestion:
		if _, ok := m.deps.Orchestrator.Dismiss(); ok {
			m.info = "Suggestion dismissed"
		} else {
			m.info = "No suggestion to dismiss"
		}
	case voice.IntentAsk:
		m.ask(cmd.Arg)
	default:
		slog.Warn("unhandled intent", "intent", cmd.Intent)
	}
	return nil
}

// ask starts a suggestion request in the background
func (m *Model) ask(question string) {
	_, err := m.deps.Orchestrator.Request(m.ctx, question)
	switch {
	case err == nil:
		m.info = ""
	case errors.Is(err, orchestrator.ErrEmptyQuestion):
	case errors.Is(err, orchestrator.ErrAIDisabled):
		m.deps.Store.SetError("AI suggestions are off. Use /ai on.")
	default:
		m.deps.Store.SetError(err.Error())
	}
}

func (m *Model) toggleListening() tea.Cmd {
	if m.deps.Listener == nil {
		m.deps.Store.SetError("Speech recognition is not configured.")
		return nil
	}
	on, err := m.deps.Listener.Toggle(m.ctx)
	if err != nil {
		// the listener already reported it through the store
		slog.Debug("toggle listening failed", "error", err)
		return nil
	}
	if on {
		m.info = "Listening"
	} else {
		m.info = "Stopped listening"
	}
	return nil
}

func (m *Model) loadHistory() tea.Cmd {
	store := m.deps.DB
	return func() tea.Msg {
		records, err := LoadHistory(store)
		return historyMsg{records: records, err: err}
	}
}

func copySuggestion(text string) tea.Cmd {
	return func() tea.Msg {
		if err := script.Copy(text); err != nil {
			return statusMsg{err: err}
		}
		return statusMsg{text: "Copied to clipboard"}
	}
}

// submit handles a line from the command input. Anything that is not a
// slash command is asked as a question.
func (m *Model) submit(input string) tea.Cmd {
	store := m.deps.Store
	store.ClearError()
	m.info = ""

	parsed := commands.Parse(input)
	if parsed == nil {
		m.ask(input)
		return nil
	}

	switch c := parsed.(type) {
	case commands.ParseError:
		store.SetError(c.Message)

	case commands.Help:
		m.viewMode = ViewHelp

	case commands.Load:
		return loadScript(m, c.Path)

	case commands.Save:
		text := store.Snapshot().Script
		return func() tea.Msg {
			if err := script.Save(c.Path, text); err != nil {
				return statusMsg{err: err}
			}
			return statusMsg{text: "Saved to " + c.Path}
		}

	case commands.Paste:
		return func() tea.Msg {
			text, err := script.Paste()
			if err != nil {
				return statusMsg{err: err}
			}
			store.SetScript(text)
			return statusMsg{text: "Pasted script from clipboard"}
		}

	case commands.Clear:
		store.ClearScript()
		m.info = "Script cleared"

	case commands.Watch:
		return m.watch(c.Path)

	case commands.Ask:
		m.ask(c.Question)

	case commands.SetProvider:
		m.selectProvider(c.Provider, c.Model)

	case commands.SetModel:
		m.selectModel(c.Model)

	case commands.SetKey:
		return m.validateKey(c.Key)

	case commands.SetMode:
		store.SetMode(c.Mode)
		m.info = "Mode: " + c.Mode.String()

	case commands.SetStyle:
		store.SetStyle(c.Style)
		m.info = "Style: " + c.Style.String()

	case commands.SetCustom:
		m.deps.AI.SetCustomInstructions(c.Instructions)
		if c.Instructions == "" {
			m.info = "Custom instructions cleared"
		} else {
			m.info = "Custom instructions set"
		}

	case commands.SetLength:
		n := store.SetMaxResponseLength(c.Words)
		m.info = fmt.Sprintf("Suggestions up to %d words", n)

	case commands.SetSpeed:
		v := m.deps.Engine.SetSpeed(c.Speed)
		m.info = fmt.Sprintf("Speed %.1fx", v)

	case commands.SetFont:
		v := store.SetFontSize(c.Size)
		m.info = fmt.Sprintf("Font %gpt", v)

	case commands.SetOpacity:
		v := store.SetOpacity(c.Opacity)
		m.info = fmt.Sprintf("Opacity %d%%", int(v*100+0.5))

	case commands.SetAI:
		store.SetAIEnabled(c.Enabled)
		if c.Enabled {
			m.info = "AI suggestions on"
		} else {
			m.info = "AI suggestions off"
		}

	case commands.Listen:
		return m.toggleListening()

	case commands.Export:
		return m.export(c.Path)
	}
	return nil
}

func loadScript(m *Model, path string) tea.Cmd {
	store := m.deps.Store
	return func() tea.Msg {
		text, err := script.Load(path)
		if err != nil {
			return statusMsg{err: err}
		}
		store.SetScript(text)
		return statusMsg{text: fmt.Sprintf("Loaded %s (%d words)", path, store.Snapshot().WordCount)}
	}
}

// watch replaces any running file watch. An empty path only stops it.
func (m *Model) watch(path string) tea.Cmd {
	if m.stopWatch != nil {
		m.stopWatch()
		m.stopWatch = nil
	}
	if path == "" {
		m.info = "Stopped watching"
		return nil
	}

	store := m.deps.Store
	ctx, cancel := context.WithCancel(m.ctx)
	err := script.Watch(ctx, path, func(text string, err error) {
		if err != nil {
			store.SetError("Reload failed: " + err.Error())
			return
		}
		store.SetScript(text)
	})
	if err != nil {
		cancel()
		store.SetError(err.Error())
		return nil
	}
	m.stopWatch = cancel
	return loadScript(m, path)
}

func (m *Model) keySource() config.KeySource {
	if m.deps.Keys == nil {
		return nil
	}
	return m.deps.Keys
}

// selectProvider activates t with the best available key
func (m *Model) selectProvider(t providers.Type, model string) {
	store := m.deps.Store

	var key, source string
	if m.deps.Config != nil {
		key, source = m.deps.Config.ResolveAPIKey(t, m.keySource())
	}
	p, err := m.deps.Registry.Select(t, key, model)
	if err != nil {
		store.SetError(err.Error())
		return
	}
	store.SetProvider(t, p.Model())
	store.SetAPIKey(key)

	if key == "" {
		m.info = fmt.Sprintf("%s selected. No API key found; use /key <api-key>", t)
		return
	}
	slog.Debug("api key resolved", "provider", t, "source", source)
	m.info = fmt.Sprintf("%s %s selected", t, p.Model())
}

func (m *Model) selectModel(model string) {
	store := m.deps.Store
	st := store.Snapshot()
	if st.Provider == "" {
		store.SetError("Select a provider first with /provider")
		return
	}
	if !st.Provider.HasModel(model) {
		store.SetError(fmt.Sprintf("unknown model for %s: %s", st.Provider, model))
		return
	}
	if _, err := m.deps.Registry.Select(st.Provider, st.APIKey, model); err != nil {
		store.SetError(err.Error())
		return
	}
	store.SetModel(model)
	m.info = "Model: " + model
}

// validateKey checks key against the current provider and stores it on success
func (m *Model) validateKey(key string) tea.Cmd {
	store := m.deps.Store
	st := store.Snapshot()
	if st.Provider == "" {
		store.SetError("Select a provider first with /provider")
		return nil
	}
	t, model := st.Provider, st.Model
	client, registry, keys := m.deps.AI, m.deps.Registry, m.deps.Keys
	parent := m.ctx

	m.info = "Validating key..."
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, keyValidationTimeout)
		defer cancel()

		if !client.ValidateKey(ctx, t, key) {
			return statusMsg{err: fmt.Errorf("%s rejected the API key", t)}
		}
		if keys != nil {
			if err := keys.Save(t, key); err != nil {
				slog.Warn("failed to store key", "provider", t, "error", err)
				return statusMsg{err: fmt.Errorf("key is valid but could not be stored: %w", err)}
			}
		}
		if _, err := registry.Select(t, key, model); err != nil {
			return statusMsg{err: err}
		}
		store.SetAPIKey(key)
		return statusMsg{text: fmt.Sprintf("%s API key saved", t)}
	}
}

func (m *Model) export(path string) tea.Cmd {
	st := m.deps.Store.Snapshot()
	store, dataDir := m.deps.DB, m.deps.DataDir

	return func() tea.Msg {
		s := &export.SessionExport{
			CreatedAt: time.Now(),
			Provider:  string(st.Provider),
			Model:     st.Model,
			Mode:      st.Mode.String(),
			Style:     st.Style.String(),
			Script:    st.Script,
			WordCount: st.WordCount,
		}
		if store != nil {
			records, err := store.ListSuggestions(0)
			if err != nil {
				return statusMsg{err: fmt.Errorf("read history: %w", err)}
			}
			s.Suggestions = records
		}
		out, err := export.WriteSession(s, path, dataDir)
		if err != nil {
			return statusMsg{err: err}
		}
		return statusMsg{text: "Exported to " + out}
	}
}
