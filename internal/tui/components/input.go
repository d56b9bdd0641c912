package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/serialterm/internal/tui/styles"
)

const maxHistory = 100

// Input is the send line with command history
type Input struct {
	textInput    textinput.Model
	history      []string
	historyIndex int
	currentInput string // what was typed before navigating history
	width        int
}

func NewInput(placeholder string) *Input {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 1024
	ti.Prompt = ""

	return &Input{
		textInput:    ti,
		historyIndex: -1,
	}
}

func (i *Input) SetWidth(width int) {
	i.width = width
	// border(2) + padding(2) + prompt and space(2)
	i.textInput.Width = max(width-6, 10)
}

func (i *Input) Focus() tea.Cmd {
	return i.textInput.Focus()
}

func (i *Input) Blur() {
	i.textInput.Blur()
}

func (i *Input) Focused() bool {
	return i.textInput.Focused()
}

func (i *Input) Value() string {
	return i.textInput.Value()
}

func (i *Input) SetValue(value string) {
	i.textInput.SetValue(value)
}

// Submit returns the line to send, records it in history and clears the
// field. It returns false when the field is empty.
func (i *Input) Submit() (string, bool) {
	value := i.textInput.Value()
	if value == "" {
		return "", false
	}
	i.AddToHistory(value)
	i.textInput.SetValue("")
	return value, true
}

func (i *Input) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	i.textInput, cmd = i.textInput.Update(msg)
	return cmd
}

func (i *Input) View() string {
	prompt := lipgloss.NewStyle().Foreground(styles.Green).Bold(true).Render(">")

	var content string
	if i.Focused() {
		content = lipgloss.JoinHorizontal(lipgloss.Left, prompt, " ", i.textInput.View())
	} else {
		hint := styles.MutedStyle.Render("Press 'i' to type a message")
		content = lipgloss.JoinHorizontal(lipgloss.Left, prompt, " ", hint)
	}

	style := styles.InputStyle.Width(max(i.width-4, 10))
	if i.Focused() {
		style = style.BorderForeground(styles.Green)
	}
	return style.Render(content)
}

// AddToHistory records a command unless it is blank or repeats the last one
func (i *Input) AddToHistory(command string) {
	if strings.TrimSpace(command) == "" {
		return
	}
	if n := len(i.history); n > 0 && i.history[n-1] == command {
		i.resetHistory()
		return
	}

	i.history = append(i.history, command)
	if len(i.history) > maxHistory {
		i.history = i.history[1:]
	}
	i.resetHistory()
}

func (i *Input) History() []string {
	return i.history
}

func (i *Input) resetHistory() {
	i.historyIndex = -1
	i.currentInput = ""
}

// NavigateHistoryUp moves up in command history
func (i *Input) NavigateHistoryUp() {
	if len(i.history) == 0 {
		return
	}

	if i.historyIndex == -1 {
		i.currentInput = i.textInput.Value()
		i.historyIndex = len(i.history) - 1
	} else if i.historyIndex > 0 {
		i.historyIndex--
	}

	i.textInput.SetValue(i.history[i.historyIndex])
}

// NavigateHistoryDown moves down in command history
func (i *Input) NavigateHistoryDown() {
	if i.historyIndex == -1 {
		return
	}

	if i.historyIndex < len(i.history)-1 {
		i.historyIndex++
		i.textInput.SetValue(i.history[i.historyIndex])
		return
	}

	// Back to what was being typed
	value := i.currentInput
	i.resetHistory()
	i.textInput.SetValue(value)
}
