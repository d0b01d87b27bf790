package tui

import "github.com/charmbracelet/lipgloss"

var (
	userHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	assistantHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("10"))

	toolRunningStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11"))

	toolCompleteStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("8"))

	metaStyle = lipgloss.NewStyle().
			Faint(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("7"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	taskSelectedStyle = lipgloss.NewStyle().
				Reverse(true)

	taskPendingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11"))
)
