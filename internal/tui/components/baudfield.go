package components

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/allbin/serialterm"
	"github.com/allbin/serialterm/internal/tui/styles"
)

// BaudField edits the baud rate. The value only takes effect when applied.
type BaudField struct {
	textInput textinput.Model
	applied   int
}

func NewBaudField(rate int) *BaudField {
	ti := textinput.New()
	ti.Prompt = "baud: "
	ti.CharLimit = 8
	ti.Width = 8
	ti.Validate = func(s string) error {
		for _, r := range s {
			if r < '0' || r > '9' {
				return fmt.Errorf("baud rate must be numeric")
			}
		}
		return nil
	}
	ti.SetValue(strconv.Itoa(rate))

	return &BaudField{textInput: ti, applied: rate}
}

func (b *BaudField) Focus() tea.Cmd {
	return b.textInput.Focus()
}

func (b *BaudField) Blur() {
	b.textInput.Blur()
}

// Parse validates the edited value as a positive integer
func (b *BaudField) Parse() (int, error) {
	value := strings.TrimSpace(b.textInput.Value())
	rate, err := strconv.Atoi(value)
	if err != nil || rate <= 0 {
		return 0, fmt.Errorf("%w: %q", serialterm.ErrInvalidBaudRate, value)
	}
	return rate, nil
}

// SetApplied records the rate now in effect
func (b *BaudField) SetApplied(rate int) {
	b.applied = rate
	b.textInput.SetValue(strconv.Itoa(rate))
}

// Revert discards an unapplied edit
func (b *BaudField) Revert() {
	b.textInput.SetValue(strconv.Itoa(b.applied))
}

// Cycle steps through the standard rates relative to the applied one
func (b *BaudField) Cycle(step int) int {
	rates := serialterm.StandardBaudRates
	idx := 0
	for i, r := range rates {
		if r <= b.applied {
			idx = i
		}
	}
	idx = (idx + step + len(rates)) % len(rates)
	b.textInput.SetValue(strconv.Itoa(rates[idx]))
	return rates[idx]
}

func (b *BaudField) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	b.textInput, cmd = b.textInput.Update(msg)
	return cmd
}

func (b *BaudField) View() string {
	style := styles.InputStyle
	if b.textInput.Focused() {
		style = style.BorderForeground(styles.Green)
	}
	return style.Render(b.textInput.View())
}
