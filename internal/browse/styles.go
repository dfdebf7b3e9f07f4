package browse

import "github.com/charmbracelet/lipgloss"

var (
	titleColor    = lipgloss.Color("62")
	selectedColor = lipgloss.Color("212")
	mutedColor    = lipgloss.Color("241")
	failureColor  = lipgloss.Color("196")
	successColor  = lipgloss.Color("78")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Background(titleColor).
			Foreground(lipgloss.Color("230"))

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(selectedColor).
				Bold(true)

	rowStyle = lipgloss.NewStyle()

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	failureStatusStyle = lipgloss.NewStyle().
				Foreground(failureColor)

	successStatusStyle = lipgloss.NewStyle().
				Foreground(successColor)
)
