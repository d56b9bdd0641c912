package components

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/serialterm/internal/tui/styles"
)

// Console is a scrollable, titled view of one display buffer.
type Console struct {
	title     string
	viewport  viewport.Model
	formatter *DataFormatter
	raw       string
	focused   bool
}

func NewConsole(title string) *Console {
	return &Console{
		title:     title,
		viewport:  viewport.New(0, 0),
		formatter: NewDataFormatter(DisplayText),
	}
}

// SetSize sets the outer size including the border and title line
func (c *Console) SetSize(width, height int) {
	c.viewport.Width = max(width-2, 1)
	c.viewport.Height = max(height-3, 1)
	c.render()
}

func (c *Console) SetFocused(focused bool) {
	c.focused = focused
}

// SetContent replaces the shown text and follows the tail if the view was
// already at the bottom.
func (c *Console) SetContent(s string) {
	if s == c.raw {
		return
	}
	follow := c.viewport.AtBottom()
	c.raw = s
	c.render()
	if follow {
		c.viewport.GotoBottom()
	}
}

func (c *Console) Content() string {
	return c.raw
}

func (c *Console) Clear() {
	c.raw = ""
	c.viewport.SetContent("")
	c.viewport.GotoTop()
}

func (c *Console) ToggleHex() {
	c.formatter.ToggleHex()
	c.render()
	c.viewport.GotoBottom()
}

func (c *Console) Mode() DisplayMode {
	return c.formatter.Mode()
}

func (c *Console) GotoTop()    { c.viewport.GotoTop() }
func (c *Console) GotoBottom() { c.viewport.GotoBottom() }
func (c *Console) LineUp()     { c.viewport.SetYOffset(c.viewport.YOffset - 1) }
func (c *Console) LineDown()   { c.viewport.SetYOffset(c.viewport.YOffset + 1) }

func (c *Console) render() {
	c.viewport.SetContent(c.formatter.Format(c.raw))
}

// Update only forwards mouse wheel events so key bindings stay with the app
func (c *Console) Update(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(tea.MouseMsg); !ok {
		return nil
	}
	var cmd tea.Cmd
	c.viewport, cmd = c.viewport.Update(msg)
	return cmd
}

func (c *Console) View() string {
	title := styles.TitleStyle.Render(c.title)
	if c.formatter.Mode() == DisplayHex {
		title += styles.MutedStyle.Render("[hex]")
	}

	pane := styles.PaneStyle
	if c.focused {
		pane = styles.FocusedPaneStyle
	}
	return pane.Render(lipgloss.JoinVertical(lipgloss.Left, title, c.viewport.View()))
}
