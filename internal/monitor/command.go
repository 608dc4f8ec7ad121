package monitor

// Command is a user action dispatched to State.Apply.
type Command int

const (
	CmdSelectNext Command = iota
	CmdSelectPrevious
	CmdForceRefresh
	CmdZoomIn
	CmdZoomOut
	CmdEnable
	CmdDisable
	CmdQuit
)

// String returns a human-readable name for the command.
func (c Command) String() string {
	switch c {
	case CmdSelectNext:
		return "select-next"
	case CmdSelectPrevious:
		return "select-previous"
	case CmdForceRefresh:
		return "force-refresh"
	case CmdZoomIn:
		return "zoom-in"
	case CmdZoomOut:
		return "zoom-out"
	case CmdEnable:
		return "enable"
	case CmdDisable:
		return "disable"
	case CmdQuit:
		return "quit"
	default:
		return "unknown"
	}
}
