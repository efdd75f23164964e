// Package ui is the interactive terminal front end.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"codearh/internal/app"
	"codearh/internal/commands"
	"codearh/internal/config"
	"codearh/internal/highlight"
)

const (
	inputHeight     = 3
	maxInputHistory = 100
)

type entryKind int

const (
	entryMessage entryKind = iota
	entryCommand
	entryError
)

// entry is one block of the transcript.
type entry struct {
	kind  entryKind
	msg   app.Message
	input string // command line for entryCommand
	text  string
}

// eventMsg carries an application event into the update loop.
type eventMsg app.Event

// eventsClosedMsg is sent when the event subscription ends.
type eventsClosedMsg struct{}

// sendDoneMsg is sent when a chat request returns.
type sendDoneMsg struct{ err error }

// Model is the bubbletea model of the chat screen.
type Model struct {
	app     *app.App
	cfg     config.UIConfig
	handler *commands.Handler
	styles  *Styles
	md      *markdownRenderer

	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	events      <-chan app.Event
	unsubscribe func()

	// cancels the in-flight request
	cancel context.CancelFunc

	entries       []entry
	busy          bool
	status        string
	backendStatus string
	progress      float64
	width         int
	height        int
	ready         bool
	quitting      bool

	history      []string
	historyIndex int
}

// New creates the model and subscribes to a's events. copyFn writes to the
// system clipboard.
func New(a *app.App, cfg config.UIConfig, copyFn func(string) error) Model {
	ta := textarea.New()
	ta.Placeholder = "Describe what to build or change, or type /help"
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = DefaultStyles().StatusState

	hl := highlight.New("monokai")
	events, unsubscribe := a.Events().Subscribe()

	m := Model{
		app:          a,
		cfg:          cfg,
		styles:       DefaultStyles(),
		md:           newMarkdownRenderer(cfg.Theme),
		input:        ta,
		spinner:      sp,
		events:       events,
		unsubscribe:  unsubscribe,
		status:       a.Status(),
		historyIndex: -1,
	}
	env := &commands.Env{App: a, Copy: copyFn}
	if cfg.Theme != "notty" {
		env.Render = hl
	}
	m.handler = commands.NewHandler(env)

	for _, msg := range a.Messages() {
		m.entries = append(m.entries, entry{kind: entryMessage, msg: msg})
	}
	return m
}

// Close ends the event subscription.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init starts listening for application events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, waitForEvent(m.events))
}

func waitForEvent(ch <-chan app.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(e)
	}
}

// Update handles TUI events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.SetWidth(msg.Width - 2)
		vpHeight := msg.Height - inputHeight - 4
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.viewport.MouseWheelEnabled = true
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.refresh()

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case eventMsg:
		m.handleEvent(app.Event(msg))
		cmds = append(cmds, waitForEvent(m.events))

	case eventsClosedMsg:
		// subscription ended; nothing more to show

	case sendDoneMsg:
		m.busy = false
		m.backendStatus = ""
		m.cancel = nil
		if msg.err != nil && errors.Is(msg.err, app.ErrBusy) {
			m.entries = append(m.entries, entry{kind: entryError, text: msg.err.Error()})
			m.refresh()
		}
		cmds = append(cmds, m.input.Focus())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleKey processes keys the textarea must not see.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		if m.cancel != nil {
			m.cancel()
		}
		m.quitting = true
		return tea.Quit, true
	case "esc":
		if m.cancel != nil {
			m.cancel()
			m.status = "Request cancelled"
		}
		return nil, true
	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd, true
	case "tab":
		m.complete()
		return nil, true
	case "up":
		if m.input.LineCount() <= 1 && len(m.history) > 0 {
			m.browseHistory(1)
			return nil, true
		}
	case "down":
		if m.input.LineCount() <= 1 && m.historyIndex >= 0 {
			m.browseHistory(-1)
			return nil, true
		}
	case "enter":
		return m.submit(), true
	}
	return nil, false
}

func (m *Model) browseHistory(step int) {
	idx := m.historyIndex + step
	if idx >= len(m.history) {
		idx = len(m.history) - 1
	}
	m.historyIndex = idx
	if idx < 0 {
		m.input.Reset()
		return
	}
	m.input.SetValue(m.history[len(m.history)-1-idx])
}

// complete fills in a unique command name.
func (m *Model) complete() {
	value := m.input.Value()
	if !strings.HasPrefix(value, "/") || strings.Contains(value, " ") {
		return
	}
	matches := m.handler.Complete(value)
	switch len(matches) {
	case 0:
	case 1:
		m.input.SetValue("/" + matches[0] + " ")
	default:
		m.status = "/" + strings.Join(matches, "  /")
	}
}

func (m *Model) remember(line string) {
	if n := len(m.history); n > 0 && m.history[n-1] == line {
		return
	}
	m.history = append(m.history, line)
	if len(m.history) > maxInputHistory {
		m.history = m.history[len(m.history)-maxInputHistory:]
	}
}

// submit runs a slash command inline or starts a chat request.
func (m *Model) submit() tea.Cmd {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return nil
	}
	m.input.Reset()
	m.historyIndex = -1
	m.remember(line)

	if line == "/quit" || line == "/exit" {
		m.quitting = true
		return tea.Quit
	}

	if name, args, ok := m.handler.Parse(line); ok {
		out, err := m.handler.Execute(context.Background(), name, args)
		if err != nil {
			m.entries = append(m.entries, entry{kind: entryError, input: line, text: err.Error()})
		} else {
			m.entries = append(m.entries, entry{kind: entryCommand, input: line, text: out})
		}
		m.refresh()
		return nil
	}

	if m.busy {
		m.status = app.ErrBusy.Error()
		return nil
	}
	m.busy = true
	m.progress = 0
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	a := m.app
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		defer cancel()
		return sendDoneMsg{err: a.SendMessage(ctx, line)}
	})
}

func (m *Model) handleEvent(e app.Event) {
	switch e.Type {
	case app.EventMessage:
		if e.Message != nil {
			m.entries = append(m.entries, entry{kind: entryMessage, msg: *e.Message})
			m.refresh()
		}
	case app.EventStatus:
		m.status = e.Status
	case app.EventBackend:
		m.backendStatus = e.Status
	case app.EventProgress:
		m.progress = e.Progress
	case app.EventState, app.EventFiles:
		// read from the app when rendering
	}
}

// refresh re-renders the transcript into the viewport.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	var parts []string
	for _, e := range m.entries {
		parts = append(parts, m.renderEntry(e))
	}
	m.viewport.SetContent(strings.Join(parts, "\n\n"))
	m.viewport.GotoBottom()
}

func (m *Model) renderEntry(e entry) string {
	width := m.width - 4
	switch e.kind {
	case entryCommand:
		return m.styles.Dim.Render("› "+e.input) + "\n" + m.styles.CommandOutput.Render(e.text)
	case entryError:
		prefix := ""
		if e.input != "" {
			prefix = m.styles.Dim.Render("› "+e.input) + "\n"
		}
		return prefix + m.styles.Error.Render("✗ "+e.text)
	}

	msg := e.msg
	if msg.Role == app.RoleUser {
		return m.styles.UserPrompt.Render("You: ") + msg.Content
	}
	switch msg.Kind {
	case app.KindError:
		return m.styles.Error.Render(msg.Content)
	case app.KindReport:
		return m.styles.Report.Width(width).Render(m.renderMarkdown(msg.Content, width-4))
	case app.KindPlan:
		return m.styles.Plan.Width(width).Render(m.renderMarkdown(msg.Content, width-4))
	}
	return m.renderMarkdown(msg.Content, width)
}

func (m *Model) renderMarkdown(text string, width int) string {
	if !m.cfg.MarkdownRendering {
		return m.styles.AssistantText.Render(text)
	}
	return m.md.Render(text, width)
}

// statusLine renders the bar between transcript and input.
func (m Model) statusLine() string {
	var parts []string

	status := m.status
	if m.busy && m.backendStatus != "" {
		status = m.backendStatus
	}
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	if status != "" {
		parts = append(parts, status)
	}

	state := m.app.States().State()
	if state != app.StateReady {
		label := state.Text()
		if state == app.StateGenerating && m.progress > 0 {
			label = fmt.Sprintf("%s %.0f%%", label, m.progress)
		}
		parts = append(parts, m.styles.StatusState.Render(label))
	}

	parts = append(parts, m.styles.StatusAgents.Render(m.app.Registry().StatusText()))

	if m.cfg.ShowCost {
		if costs := m.app.Costs(); costs != nil {
			parts = append(parts, fmt.Sprintf("$%.4f", costs.Summary().Total))
		}
	}
	return m.styles.StatusBar.Width(m.width).Render(strings.Join(parts, " │ "))
}

// View renders the screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}
	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.styles.Input.Render(m.input.View()))
	return b.String()
}

// Run shows the TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, a *app.App, cfg config.UIConfig, copyFn func(string) error) error {
	m := New(a, cfg, copyFn)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
