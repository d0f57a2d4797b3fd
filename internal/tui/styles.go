package tui

import "github.com/charmbracelet/lipgloss"

// Palette, as ANSI 256 color codes.
const (
	colorAccent = lipgloss.Color("39")
	colorMuted  = lipgloss.Color("244")
	colorText   = lipgloss.Color("252")
	colorOK     = lipgloss.Color("42")
	colorWarn   = lipgloss.Color("220")
	colorError  = lipgloss.Color("203")
	colorBar    = lipgloss.Color("235")
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	subtitleStyle = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)

	successStyle = lipgloss.NewStyle().Foreground(colorOK)
	warnStyle    = lipgloss.NewStyle().Foreground(colorWarn)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	dimStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	helpStyle    = dimStyle

	userMsgStyle      = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	assistantMsgStyle = lipgloss.NewStyle().Foreground(colorText)
	// sourcesStyle frames the chunk list shown above each answer.
	sourcesStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(colorBar).
			PaddingLeft(1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Background(colorBar).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	listItemStyle = lipgloss.NewStyle().Foreground(colorText)
)
