// internal/ui/app.go
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"voiceflow/internal/ai"
	"voiceflow/internal/config"
	"voiceflow/internal/db"
	"voiceflow/internal/keychain"
	"voiceflow/internal/orchestrator"
	"voiceflow/internal/providers"
	"voiceflow/internal/scroll"
	"voiceflow/internal/session"
	"voiceflow/internal/voice"
)

// frameInterval is the fallback redraw rate between store events
const frameInterval = 100 * time.Millisecond

// commandQueueSize bounds voice commands waiting for the event loop
const commandQueueSize = 16

// Deps are the services the overlay drives. Keys, DB, Listener and Config may be nil.
type Deps struct {
	Store         *session.Store
	Engine        *scroll.Engine
	Orchestrator  *orchestrator.Orchestrator
	AI            *ai.Client
	Registry      *providers.Registry
	Keys          *keychain.Store
	DB            *db.Store
	Listener      *voice.Listener
	Config        *config.Config
	DataDir       string
	PointsPerLine float64
}

// Messages
type (
	stateMsg        struct{}
	frameMsg        time.Time
	voiceCommandMsg voice.Command
	statusMsg       struct {
		text string
		err  error
	}
	historyMsg struct {
		records []db.SuggestionRecord
		err     error
	}
)

// Model is the bubbletea model for the overlay
type Model struct {
	deps Deps
	keys KeyMap

	width, height int
	ready         bool

	state        session.State
	teleprompter *TeleprompterView
	input        textinput.Model
	inputActive  bool
	spinner      spinner.Model

	renderer      *glamour.TermRenderer
	rendererWidth int
	card          string
	cardKey       string

	viewMode ViewMode
	history  *HistoryState
	info     string

	ctx         context.Context
	cancel      context.CancelFunc
	changes     chan struct{}
	commands    chan voice.Command
	unsubscribe func()
	stopWatch   context.CancelFunc
}

// New creates the overlay model and subscribes it to the store
func New(deps Deps) *Model {
	ctx, cancel := context.WithCancel(context.Background())

	input := textinput.New()
	input.Prompt = "› "
	input.Placeholder = "/command or a question"
	input.CharLimit = 2000

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(Cyan)

	m := &Model{
		deps:         deps,
		keys:         DefaultKeyMap(),
		state:        deps.Store.Snapshot(),
		teleprompter: NewTeleprompterView(deps.PointsPerLine),
		input:        input,
		spinner:      sp,
		history:      NewHistoryState(),
		ctx:          ctx,
		cancel:       cancel,
		changes:      make(chan struct{}, 1),
		commands:     make(chan voice.Command, commandQueueSize),
	}

	// Listeners run on the mutating goroutine, so never block here.
	m.unsubscribe = deps.Store.Subscribe(func(session.State) {
		select {
		case m.changes <- struct{}{}:
		default:
		}
	})
	return m
}

// Dispatcher returns the hook the voice control server delivers commands through
func (m *Model) Dispatcher() voice.Dispatcher {
	return func(cmd voice.Command) bool {
		select {
		case m.commands <- cmd:
			return true
		default:
			slog.Warn("voice command dropped, queue full", "intent", cmd.Intent)
			return false
		}
	}
}

// Close releases the store subscription and stops background work
func (m *Model) Close() {
	m.cancel()
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	if m.stopWatch != nil {
		m.stopWatch()
		m.stopWatch = nil
	}
}

// Run starts the overlay and blocks until the user quits or ctx is done
func Run(ctx context.Context, m *Model) error {
	defer m.Close()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return stateMsg{}
	}
}

func waitForCommand(ch <-chan voice.Command) tea.Cmd {
	return func() tea.Msg {
		return voiceCommandMsg(<-ch)
	}
}

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		waitForChange(m.changes),
		waitForCommand(m.commands),
		frameTick(),
		m.spinner.Tick,
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.input.Width = max(msg.Width-4, 10)
		m.history.SetMaxHeight(msg.Height)
		m.refresh()
		return m, nil

	case stateMsg:
		m.refresh()
		return m, waitForChange(m.changes)

	case frameMsg:
		m.refresh()
		return m, frameTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case voiceCommandMsg:
		cmd := m.applyIntent(voice.Command(msg))
		m.refresh()
		return m, tea.Batch(cmd, waitForCommand(m.commands))

	case statusMsg:
		if msg.err != nil {
			m.deps.Store.SetError(msg.err.Error())
		} else {
			m.info = msg.text
		}
		m.refresh()
		return m, nil

	case historyMsg:
		if msg.err != nil {
			m.deps.Store.SetError("History unavailable: " + msg.err.Error())
			m.viewMode = ViewNormal
			return m, nil
		}
		m.history.SetRecords(msg.records)
		return m, nil

	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		m.refresh()
		return m, cmd
	}

	if m.inputActive {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		return tea.Quit
	}

	switch m.viewMode {
	case ViewHelp:
		if key.Matches(msg, m.keys.Back, m.keys.Help) {
			m.viewMode = ViewNormal
		}
		return nil
	case ViewHistory:
		return m.handleHistoryKey(msg)
	}

	if m.inputActive {
		switch {
		case key.Matches(msg, m.keys.Back):
			m.closeInput()
			return nil
		case key.Matches(msg, m.keys.Submit):
			value := m.input.Value()
			m.closeInput()
			return m.submit(value)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return cmd
	}

	store := m.deps.Store
	switch {
	case key.Matches(msg, m.keys.TogglePlay):
		return m.applyIntent(voice.Command{Intent: voice.IntentToggleScroll})
	case key.Matches(msg, m.keys.Reset):
		return m.applyIntent(voice.Command{Intent: voice.IntentReset})
	case key.Matches(msg, m.keys.JumpBack):
		return m.applyIntent(voice.Command{Intent: voice.IntentJumpBack})
	case key.Matches(msg, m.keys.Faster):
		return m.applyIntent(voice.Command{Intent: voice.IntentFaster})
	case key.Matches(msg, m.keys.Slower):
		return m.applyIntent(voice.Command{Intent: voice.IntentSlower})
	case key.Matches(msg, m.keys.ToggleOverlay):
		return m.applyIntent(voice.Command{Intent: voice.IntentToggleOverlay})
	case key.Matches(msg, m.keys.ToggleMirror):
		return m.applyIntent(voice.Command{Intent: voice.IntentToggleMirror})
	case key.Matches(msg, m.keys.Accept):
		return m.applyIntent(voice.Command{Intent: voice.IntentAcceptSuggestion})
	case key.Matches(msg, m.keys.Dismiss):
		return m.applyIntent(voice.Command{Intent: voice.IntentDismissSuggestion})
	case key.Matches(msg, m.keys.ToggleGuide):
		store.ToggleGuideLine()
	case key.Matches(msg, m.keys.FontUp):
		store.AdjustFontSize(session.FontStep)
	case key.Matches(msg, m.keys.FontDown):
		store.AdjustFontSize(-session.FontStep)
	case key.Matches(msg, m.keys.FollowUp):
		if prompt, ok := store.SelectFollowUp(followUpIndex(msg.String())); ok {
			m.info = "Added follow-up: " + truncate(prompt, 40)
		}
	case key.Matches(msg, m.keys.Listen):
		return m.toggleListening()
	case key.Matches(msg, m.keys.History):
		m.viewMode = ViewHistory
		return m.loadHistory()
	case key.Matches(msg, m.keys.Command):
		m.openInput("/")
		return textinput.Blink
	case key.Matches(msg, m.keys.Help):
		m.viewMode = ViewHelp
	case key.Matches(msg, m.keys.Back):
		m.info = ""
		store.ClearError()
	}
	return nil
}

func (m *Model) handleHistoryKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.viewMode = ViewNormal
	case msg.String() == "up" || msg.String() == "k":
		m.history.Up()
	case msg.String() == "down" || msg.String() == "j":
		m.history.Down()
	case key.Matches(msg, m.keys.Submit):
		if sel := m.history.Selected(); sel != nil && sel.Suggestion != "" {
			m.deps.Store.AppendToScript(sel.Suggestion)
			m.info = "Added suggestion to script"
			m.viewMode = ViewNormal
		}
	case msg.String() == "c":
		if sel := m.history.Selected(); sel != nil && sel.Suggestion != "" {
			return copySuggestion(sel.Suggestion)
		}
	}
	return nil
}

func (m *Model) openInput(prefill string) {
	m.inputActive = true
	m.input.SetValue(prefill)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) closeInput() {
	m.inputActive = false
	m.input.Blur()
	m.input.Reset()
}

// refresh pulls a fresh snapshot and resizes the script area around
// whatever else is on screen
func (m *Model) refresh() {
	m.state = m.deps.Store.Snapshot()
	if !m.ready {
		return
	}
	m.ensureRenderer()
	m.teleprompter.SetSize(m.width, m.scriptHeight())
	m.teleprompter.Sync(m.state)
}

// ensureRenderer rebuilds the markdown renderer when the width changes
func (m *Model) ensureRenderer() {
	width := max(m.width-8, minWrapWidth)
	if m.renderer != nil && width == m.rendererWidth {
		return
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		slog.Warn("markdown renderer unavailable", "error", err)
		m.renderer = nil
		return
	}
	m.renderer = r
	m.rendererWidth = width
}

// suggestionView caches the rendered card; markdown rendering is too slow
// to repeat on every scroll tick.
func (m *Model) suggestionView() string {
	st := m.state
	if st.Pending || !st.HasSuggestion() {
		return RenderSuggestion(st, m.renderer, m.spinner.View(), m.width)
	}
	k := fmt.Sprintf("%s|%d|%t|%d|%t", st.SuggestionID, m.width, st.ShowFollowUps, len(st.FollowUps), m.renderer != nil)
	if k != m.cardKey {
		m.card = RenderSuggestion(st, m.renderer, "", m.width)
		m.cardKey = k
	}
	return m.card
}

func (m *Model) scriptHeight() int {
	used := 1 // status bar
	if m.inputActive {
		used++
	}
	if card := m.suggestionView(); card != "" {
		used += lipgloss.Height(card)
	}
	if tr := RenderTranscript(m.state, m.width); tr != "" {
		used++
	}
	return max(m.height-used, 1)
}

func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	switch m.viewMode {
	case ViewHelp:
		return m.renderHelp()
	case ViewHistory:
		return m.history.Render(m.width, m.height)
	}

	var sections []string
	if m.state.OverlayVisible {
		sections = append(sections, m.teleprompter.View(m.state))
		if card := m.suggestionView(); card != "" {
			sections = append(sections, card)
		}
		if tr := RenderTranscript(m.state, m.width); tr != "" {
			sections = append(sections, tr)
		}
	}
	if m.inputActive {
		sections = append(sections, m.input.View())
	}
	sections = append(sections, RenderStatus(m.state, m.info, m.width))

	body := strings.Join(sections, "\n")
	if !m.state.OverlayVisible {
		return lipgloss.PlaceVertical(m.height, lipgloss.Bottom, body)
	}
	return body
}
