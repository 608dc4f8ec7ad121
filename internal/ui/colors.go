package ui

import "github.com/charmbracelet/lipgloss"

// ANSI colors, so output follows the terminal's own theme.
const (
	ColorSuccess lipgloss.Color = "2"
	ColorError   lipgloss.Color = "1"
	ColorWarning lipgloss.Color = "3"
	ColorInfo    lipgloss.Color = "6"
	ColorMuted   lipgloss.Color = "8"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	errorStyle   = lipgloss.NewStyle().Foreground(ColorError)
	warnStyle    = lipgloss.NewStyle().Foreground(ColorWarning)
	mutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	frameStyle   = lipgloss.NewStyle().Foreground(ColorInfo)
)

// Success renders msg prefixed with a green check.
func Success(msg string) string {
	return successStyle.Render(SymbolSuccess) + " " + msg
}

// Fail renders msg prefixed with a red cross.
func Fail(msg string) string {
	return errorStyle.Render(SymbolFail) + " " + msg
}

// Warn renders msg prefixed with a yellow marker.
func Warn(msg string) string {
	return warnStyle.Render(SymbolWarn) + " " + msg
}

// Muted renders secondary text.
func Muted(msg string) string {
	return mutedStyle.Render(msg)
}
