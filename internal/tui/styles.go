package tui

import "github.com/charmbracelet/lipgloss"

var (
	colAccent = lipgloss.Color("39")
	colOK     = lipgloss.Color("42")
	colErr    = lipgloss.Color("203")
	colMuted  = lipgloss.Color("241")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colAccent)
	labelStyle = lipgloss.NewStyle().Foreground(colMuted)
	focusStyle = lipgloss.NewStyle().Foreground(colAccent).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(colOK)
	errStyle   = lipgloss.NewStyle().Foreground(colErr)
	dimStyle   = lipgloss.NewStyle().Foreground(colMuted)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colMuted).
			Padding(0, 1)

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	gainStyle = lipgloss.NewStyle().Foreground(colOK)
	lossStyle = lipgloss.NewStyle().Foreground(colErr)
)
