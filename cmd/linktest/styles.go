package main

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle    lipgloss.Style
	headerStyle   lipgloss.Style
	selectedStyle lipgloss.Style
	passStyle     lipgloss.Style
	failStyle     lipgloss.Style
	helpStyle     lipgloss.Style
)

func init() {
	setColor(true)
}

// setColor switches every style between the colored palette and plain text.
func setColor(enabled bool) {
	if !enabled {
		plain := lipgloss.NewStyle()
		titleStyle = plain.Bold(true)
		headerStyle = plain.Bold(true)
		selectedStyle = plain.Reverse(true)
		passStyle = plain
		failStyle = plain
		helpStyle = plain
		return
	}

	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#7D56F4")).
		Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#7D56F4"))

	passStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#90EE90"))

	failStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666666"))
}
