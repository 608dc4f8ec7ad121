package monitor

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap holds the dashboard's key bindings.
type KeyMap struct {
	Quit       key.Binding
	Previous   key.Binding
	Next       key.Binding
	Refresh    key.Binding
	ZoomIn     key.Binding
	ZoomOut    key.Binding
	Enable     key.Binding
	Disable    key.Binding
	ToggleHelp key.Binding
	Close      key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "quit"),
		),
		Previous: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous server"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next server"),
		),
		Refresh: key.NewBinding(
			key.WithKeys(" ", "r"),
			key.WithHelp("space/r", "refresh"),
		),
		ZoomIn: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "zoom in"),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "zoom out"),
		),
		Enable: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "enable blocking"),
		),
		Disable: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "disable blocking"),
		),
		ToggleHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close help"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Previous, k.Next, k.Refresh, k.ZoomIn, k.ZoomOut, k.ToggleHelp}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Previous, k.Next, k.Refresh},
		{k.ZoomIn, k.ZoomOut},
		{k.Enable, k.Disable},
		{k.ToggleHelp, k.Quit},
	}
}

// CommandFor maps a key press to a dashboard command. The second result is
// false for keys that are not commands.
func (k KeyMap) CommandFor(msg tea.KeyMsg) (Command, bool) {
	switch {
	case key.Matches(msg, k.Quit):
		return CmdQuit, true
	case key.Matches(msg, k.Previous):
		return CmdSelectPrevious, true
	case key.Matches(msg, k.Next):
		return CmdSelectNext, true
	case key.Matches(msg, k.Refresh):
		return CmdForceRefresh, true
	case key.Matches(msg, k.ZoomIn):
		return CmdZoomIn, true
	case key.Matches(msg, k.ZoomOut):
		return CmdZoomOut, true
	case key.Matches(msg, k.Enable):
		return CmdEnable, true
	case key.Matches(msg, k.Disable):
		return CmdDisable, true
	}
	return 0, false
}

// HandleKeyMsg processes keyboard input. Returns true if the key was handled.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	// Help toggle takes priority
	if key.Matches(msg, m.keys.ToggleHelp) {
		m.showHelp = !m.showHelp
		return true, nil
	}

	// If help is showing, Esc closes it
	if m.showHelp && key.Matches(msg, m.keys.Close) {
		m.showHelp = false
		return true, nil
	}

	cmd, ok := m.keys.CommandFor(msg)
	if !ok {
		return false, nil
	}
	return true, m.apply(cmd)
}
