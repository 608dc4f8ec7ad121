package monitor

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model defaults.
const (
	DefaultTickRate        = 250 * time.Millisecond
	DefaultMutationTimeout = 10 * time.Second
)

// Width breakpoints for layout decisions.
const (
	// BreakpointPanels is the width at which summary panels sit side by side.
	BreakpointPanels = 100
	// BreakpointBoards is the width at which leaderboards sit side by side.
	BreakpointBoards = 120
)

// ModelOptions tunes the dashboard model. Zero values select defaults.
type ModelOptions struct {
	TickRate        time.Duration
	MutationTimeout time.Duration
	TopRows         int
}

// Model is the Bubble Tea model for the dashboard. It drives State from
// ticks and key presses and renders it.
type Model struct {
	state *State
	keys  KeyMap

	help    help.Model
	spinner spinner.Model

	tickRate        time.Duration
	mutationTimeout time.Duration
	topRows         int

	width    int
	height   int
	showHelp bool
	quitting bool
	pending  int // mutations in flight
}

// tickMsg drives State.Tick.
type tickMsg time.Time

// mutationDoneMsg carries the outcome of a provider write.
type mutationDoneMsg struct {
	mutation *Mutation
	err      error
}

// NewModel creates the dashboard model for state.
func NewModel(state *State, opts ModelOptions) Model {
	if opts.TickRate <= 0 {
		opts.TickRate = DefaultTickRate
	}
	if opts.MutationTimeout <= 0 {
		opts.MutationTimeout = DefaultMutationTimeout
	}
	if opts.TopRows <= 0 {
		opts.TopRows = 10
	}

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(ColorAccent)),
	)

	return Model{
		state:           state,
		keys:            DefaultKeyMap(),
		help:            help.New(),
		spinner:         sp,
		tickRate:        opts.TickRate,
		mutationTimeout: opts.MutationTimeout,
		topRows:         opts.TopRows,
	}
}

// State returns the application state driven by the model.
func (m Model) State() *State {
	return m.state
}

// Init fires the first tick immediately so the selected target starts
// fetching without waiting a full tick period.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return tickMsg(time.Now()) },
		m.spinner.Tick,
	)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if handled, cmd := m.HandleKeyMsg(msg); handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tickMsg:
		m.state.Tick()
		return m, m.tickCmd()

	case mutationDoneMsg:
		m.pending--
		m.state.CompleteMutation(msg.mutation, msg.err)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	return m.renderDashboard()
}

// apply dispatches cmd to the state and turns its side effects into
// Bubble Tea commands.
func (m *Model) apply(cmd Command) tea.Cmd {
	mut := m.state.Apply(cmd)
	if m.state.Quitting() {
		m.quitting = true
		return tea.Quit
	}
	if mut == nil {
		return nil
	}

	name := m.state.Targets()[mut.Target].Target().Name
	if mut.Command == CmdEnable {
		m.state.SetStatus(name+": enabling...", false)
	} else {
		m.state.SetStatus(name+": disabling...", false)
	}
	m.pending++
	return m.mutationCmd(mut)
}

// tickCmd returns a command that sends a tick after the tick rate.
func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.tickRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// mutationCmd runs a provider write off the control loop.
func (m Model) mutationCmd(mut *Mutation) tea.Cmd {
	timeout := m.mutationTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return mutationDoneMsg{mutation: mut, err: mut.Run(ctx)}
	}
}
