package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/serialterm"
	"github.com/allbin/serialterm/internal/tui/styles"
)

// NoneLabel is the selector entry that means "no device"
const NoneLabel = "none"

// DeviceSelector lists the attached devices below a leading "none" entry.
// The cursor follows the selected device name across refreshes.
type DeviceSelector struct {
	devices []serialterm.DeviceDescriptor
	cursor  int // 0 is "none"
	focused bool
	width   int
	height  int
}

func NewDeviceSelector() *DeviceSelector {
	return &DeviceSelector{}
}

func (s *DeviceSelector) SetSize(width, height int) {
	s.width = width
	s.height = height
}

func (s *DeviceSelector) SetFocused(focused bool) {
	s.focused = focused
}

// SetDevices replaces the list, keeping the cursor on the same device if it
// is still attached.
func (s *DeviceSelector) SetDevices(devices []serialterm.DeviceDescriptor) {
	current := s.Selected()
	s.devices = devices
	s.cursor = 0
	for i, d := range devices {
		if d.Name == current {
			s.cursor = i + 1
			break
		}
	}
}

func (s *DeviceSelector) Devices() []serialterm.DeviceDescriptor {
	return s.devices
}

// Selected returns the device name under the cursor, "" for "none"
func (s *DeviceSelector) Selected() string {
	if s.cursor == 0 || s.cursor > len(s.devices) {
		return ""
	}
	return s.devices[s.cursor-1].Name
}

// Select moves the cursor to name if it is listed
func (s *DeviceSelector) Select(name string) bool {
	for i, d := range s.devices {
		if d.Name == name {
			s.cursor = i + 1
			return true
		}
	}
	return false
}

func (s *DeviceSelector) Up() {
	if s.cursor > 0 {
		s.cursor--
	}
}

func (s *DeviceSelector) Down() {
	if s.cursor < len(s.devices) {
		s.cursor++
	}
}

func (s *DeviceSelector) View() string {
	labels := make([]string, 0, len(s.devices)+1)
	labels = append(labels, NoneLabel)
	for _, d := range s.devices {
		labels = append(labels, d.Label())
	}

	inner := max(s.width-2, 10)
	rows := max(s.height-3, 1)

	// Keep the cursor inside the visible window
	start := 0
	if s.cursor >= rows {
		start = s.cursor - rows + 1
	}

	lines := []string{styles.TitleStyle.Render("Devices")}
	for i := start; i < len(labels) && i < start+rows; i++ {
		label := truncate(labels[i], inner-2)
		if i == s.cursor {
			lines = append(lines, styles.SelectedItemStyle.Render("> "+label))
		} else {
			lines = append(lines, styles.ItemStyle.Render("  "+label))
		}
	}

	pane := styles.PaneStyle
	if s.focused {
		pane = styles.FocusedPaneStyle
	}
	return pane.Width(inner).Height(rows + 1).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 1 || len(r) <= width {
		return s
	}
	return strings.TrimSpace(string(r[:width-1])) + "…"
}
