package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/serialterm"
	"github.com/allbin/serialterm/internal/tui/styles"
)

type StatusBar struct {
	width    int
	mode     string
	state    serialterm.State
	port     string
	baudRate int
	err      error
	notice   string
}

func NewStatusBar() *StatusBar {
	return &StatusBar{mode: "NORMAL"}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetMode(mode string) {
	sb.mode = mode
}

func (sb *StatusBar) SetConnection(state serialterm.State, port string, baudRate int) {
	sb.state = state
	sb.port = port
	sb.baudRate = baudRate
}

// SetError shows err until the next successful action. nil clears it.
func (sb *StatusBar) SetError(err error) {
	sb.err = err
	if err != nil {
		sb.notice = ""
	}
}

func (sb *StatusBar) SetNotice(notice string) {
	sb.notice = notice
	sb.err = nil
}

func (sb *StatusBar) Err() error {
	return sb.err
}

func (sb *StatusBar) Notice() string {
	return sb.notice
}

func indicator(state serialterm.State) string {
	switch state {
	case serialterm.StateConnected:
		return "●"
	case serialterm.StateConnecting:
		return "◌"
	default:
		return "○"
	}
}

func (sb *StatusBar) View() string {
	width := sb.width
	if width <= 0 {
		width = 80
	}

	modeBg := styles.Blue
	if sb.mode == "INSERT" {
		modeBg = styles.Green
	}
	mode := lipgloss.NewStyle().
		Foreground(styles.Base).
		Background(modeBg).
		Bold(true).
		Padding(0, 1).
		Render(sb.mode)

	stateStyle := styles.StatusStyle(sb.state).Padding(0, 1)
	status := stateStyle.Render(fmt.Sprintf("%s %s", indicator(sb.state), sb.state))

	port := sb.port
	if port == "" {
		port = "no device"
	}
	portView := lipgloss.NewStyle().Foreground(styles.Mauve).Bold(true).Padding(0, 1).Render(port)

	var message string
	switch {
	case sb.err != nil:
		message = styles.ErrorStyle.Padding(0, 1).Render(sb.err.Error())
	case sb.notice != "":
		message = styles.NoticeStyle.Padding(0, 1).Render(sb.notice)
	}

	left := lipgloss.JoinHorizontal(lipgloss.Left, mode, status, portView, message)
	right := lipgloss.NewStyle().
		Foreground(styles.Subtext0).
		Padding(0, 1).
		Render(fmt.Sprintf("⚡ %d baud", sb.baudRate))

	spacer := max(width-lipgloss.Width(left)-lipgloss.Width(right), 1)

	return lipgloss.NewStyle().
		Foreground(styles.Text).
		Background(styles.Surface0).
		Width(width).
		MaxWidth(width).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, left, lipgloss.NewStyle().Width(spacer).Render(""), right))
}
