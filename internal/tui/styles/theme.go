package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/serialterm"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Mauve).
			Padding(0, 1)

	// Pane borders
	PaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Surface1)

	FocusedPaneStyle = PaneStyle.
				BorderForeground(Green)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Surface2).
			Padding(0, 1)

	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(Base).
				Background(Mauve).
				Bold(true)

	ItemStyle = lipgloss.NewStyle().
			Foreground(Text)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Overlay0)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Red)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(Peach)

	StatusConnectedStyle = lipgloss.NewStyle().
				Foreground(Green).
				Bold(true)

	StatusDisconnectedStyle = lipgloss.NewStyle().
				Foreground(Red).
				Bold(true)

	StatusConnectingStyle = lipgloss.NewStyle().
				Foreground(Yellow).
				Bold(true)
)

// StatusStyle picks the indicator colour for a supervisor state
func StatusStyle(state serialterm.State) lipgloss.Style {
	switch state {
	case serialterm.StateConnected:
		return StatusConnectedStyle
	case serialterm.StateConnecting:
		return StatusConnectingStyle
	default:
		return StatusDisconnectedStyle
	}
}
