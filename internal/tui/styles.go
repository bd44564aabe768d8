package tui

import "github.com/charmbracelet/lipgloss"

var (
	leafGreen = lipgloss.Color("#2ecc71")
	deepGreen = lipgloss.Color("#27ae60")
	skyBlue   = lipgloss.Color("#3498db")
	mutedGray = lipgloss.Color("#6B7280")
	warnAmber = lipgloss.Color("#F5A623")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(deepGreen).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Width(18)

	valueStyle = lipgloss.NewStyle().
			Bold(true)

	carbonBarStyle = lipgloss.NewStyle().
			Foreground(leafGreen)

	energyBarStyle = lipgloss.NewStyle().
			Foreground(skyBlue)

	tipStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(leafGreen).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(warnAmber)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Italic(true)
)
