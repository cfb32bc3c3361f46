package search

import "github.com/charmbracelet/lipgloss"

var (
	appStyle = lipgloss.NewStyle().Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0AF")).
			Background(lipgloss.Color("#224")).
			Bold(true).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#334455")).
			Padding(0, 1)

	fadingPanelStyle = panelStyle.Copy().Faint(true)

	resultTitleStyle = lipgloss.NewStyle().Bold(true)

	selectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#0AF")).
				Background(lipgloss.Color("#224"))

	excerptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FC0")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	statusMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#0AF", Dark: "#0AF"}).
				Render

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F55"))
)
