package models

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/serialterm"
	"github.com/allbin/serialterm/internal/export"
	"github.com/allbin/serialterm/internal/tui/components"
	"github.com/allbin/serialterm/internal/tui/keys"
)

// InputMode represents the current input mode (vim-like)
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeInsert
)

func (m InputMode) String() string {
	if m == InputModeInsert {
		return "INSERT"
	}
	return "NORMAL"
}

// Field is the text field that receives keys in insert mode
type Field int

const (
	FieldMessage Field = iota
	FieldBaud
)

// DevicesMsg carries a fresh enumeration snapshot
type DevicesMsg []serialterm.DeviceDescriptor

// EventMsg carries a supervisor event into the update loop
type EventMsg serialterm.Event

// actionMsg reports the outcome of a supervisor call run as a command
type actionMsg struct {
	notice string
	err    error
	baud   int
}

// App is the terminal's root model. Supervisor calls that wait for the
// supervisor's loop run as commands, never inside Update, because the loop
// delivers its events through the same program.
type App struct {
	sup        *serialterm.Supervisor
	exportPath string
	initial    string

	selector  *components.DeviceSelector
	baud      *components.BaudField
	input     *components.Input
	sent      *components.Console
	received  *components.Console
	statusBar *components.StatusBar
	help      help.Model
	keys      keys.AppKeys

	mode  InputMode
	field Field
	ready bool

	// supervisor calls run in the order the keys were pressed
	controls *sequencer
}

// NewApp builds the model. initialPort, when set, is connected on start.
func NewApp(sup *serialterm.Supervisor, initialPort, exportPath string) *App {
	return &App{
		sup:        sup,
		exportPath: exportPath,
		initial:    initialPort,
		selector:   components.NewDeviceSelector(),
		baud:       components.NewBaudField(sup.Connection().BaudRate()),
		input:      components.NewInput("Type a message and press Enter to send..."),
		sent:       components.NewConsole("Sent"),
		received:   components.NewConsole("Received"),
		statusBar:  components.NewStatusBar(),
		help:       help.New(),
		keys:       keys.NewAppKeys(),
		controls:   &sequencer{},
	}
}

func (m *App) Mode() InputMode {
	return m.mode
}

func (m *App) Init() tea.Cmd {
	if m.initial != "" {
		return m.connect(m.initial)
	}
	return nil
}

func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.ready = true

	case DevicesMsg:
		m.selector.SetDevices(msg)

	case EventMsg:
		m.handleEvent(serialterm.Event(msg))

	case actionMsg:
		if msg.baud > 0 {
			m.baud.SetApplied(msg.baud)
		}
		if msg.err != nil {
			m.statusBar.SetError(msg.err)
		} else if msg.notice != "" {
			m.statusBar.SetNotice(msg.notice)
		}

	case tea.MouseMsg:
		cmd = m.received.Update(msg)

	case tea.KeyMsg:
		if m.mode == InputModeInsert {
			cmd = m.handleInsertKey(msg)
		} else {
			cmd = m.handleNormalKey(msg)
		}
	}

	m.syncStatus()
	return m, cmd
}

func (m *App) handleEvent(ev serialterm.Event) {
	switch ev.Type {
	case serialterm.EventConnecting:
		m.statusBar.SetNotice(fmt.Sprintf("Connecting to %s...", ev.Port))
	case serialterm.EventConnected:
		m.selector.Select(ev.Port)
		m.statusBar.SetNotice(fmt.Sprintf("Connected to %s", ev.Port))
	case serialterm.EventConnectFailed:
		m.statusBar.SetError(ev.Err)
	case serialterm.EventData:
		m.received.SetContent(m.sup.Received().String())
	case serialterm.EventDisconnected:
		m.statusBar.SetError(fmt.Errorf("%s disconnected: %w", ev.Port, ev.Err))
	case serialterm.EventClosed:
		m.statusBar.SetNotice(fmt.Sprintf("Disconnected from %s", ev.Port))
	}
}

func (m *App) handleNormalKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.InsertMode):
		return m.enterInsert(FieldMessage)

	case key.Matches(msg, m.keys.EditBaud):
		return m.enterInsert(FieldBaud)

	case key.Matches(msg, m.keys.Up):
		m.selector.Up()

	case key.Matches(msg, m.keys.Down):
		m.selector.Down()

	case key.Matches(msg, m.keys.Enter):
		return m.connect(m.selector.Selected())

	case key.Matches(msg, m.keys.Disconnect):
		return m.connect("")

	case key.Matches(msg, m.keys.BaudUp):
		return m.applyBaud(m.baud.Cycle(1))

	case key.Matches(msg, m.keys.BaudDown):
		return m.applyBaud(m.baud.Cycle(-1))

	case key.Matches(msg, m.keys.ClearReceived):
		m.sup.Received().Clear()
		m.received.Clear()

	case key.Matches(msg, m.keys.ClearSent):
		m.sup.Sent().Clear()
		m.sent.Clear()

	case key.Matches(msg, m.keys.ToggleHex):
		m.received.ToggleHex()

	case key.Matches(msg, m.keys.Export):
		return m.export()

	case key.Matches(msg, m.keys.GotoTop):
		m.received.GotoTop()

	case key.Matches(msg, m.keys.GotoBottom):
		m.received.GotoBottom()
	}
	return nil
}

func (m *App) handleInsertKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return tea.Quit

	case key.Matches(msg, m.keys.Escape):
		if m.field == FieldBaud {
			m.baud.Revert()
		}
		m.leaveInsert()
		return nil

	case msg.Type == tea.KeyEnter:
		if m.field == FieldBaud {
			rate, err := m.baud.Parse()
			if err != nil {
				m.statusBar.SetError(err)
				return nil
			}
			m.leaveInsert()
			return m.applyBaud(rate)
		}
		m.send()
		return nil

	case m.field == FieldMessage && msg.Type == tea.KeyUp:
		m.input.NavigateHistoryUp()
		return nil

	case m.field == FieldMessage && msg.Type == tea.KeyDown:
		m.input.NavigateHistoryDown()
		return nil
	}

	if m.field == FieldBaud {
		return m.baud.Update(msg)
	}
	return m.input.Update(msg)
}

// send writes the input line followed by a newline
func (m *App) send() {
	text, ok := m.input.Submit()
	if !ok {
		return
	}
	if err := m.sup.Send(text + "\n"); err != nil {
		m.statusBar.SetError(fmt.Errorf("send failed: %w", err))
		return
	}
	m.sent.SetContent(m.sup.Sent().String())
}

func (m *App) enterInsert(field Field) tea.Cmd {
	m.mode = InputModeInsert
	m.field = field
	m.selector.SetFocused(false)
	if field == FieldBaud {
		m.input.Blur()
		return m.baud.Focus()
	}
	m.baud.Blur()
	return m.input.Focus()
}

func (m *App) leaveInsert() {
	m.mode = InputModeNormal
	m.input.Blur()
	m.baud.Blur()
	m.selector.SetFocused(true)
}

func (m *App) connect(name string) tea.Cmd {
	sup := m.sup
	return m.controls.then(func() tea.Msg {
		sup.Connect(name)
		return nil
	})
}

func (m *App) applyBaud(rate int) tea.Cmd {
	sup := m.sup
	return m.controls.then(func() tea.Msg {
		if err := sup.SetBaudRate(rate); err != nil {
			return actionMsg{err: err, baud: sup.Connection().BaudRate()}
		}
		return actionMsg{notice: fmt.Sprintf("Baud rate set to %d", rate), baud: rate}
	})
}

func (m *App) export() tea.Cmd {
	path := m.exportPath
	sent := m.sup.Sent().Lines()
	received := m.sup.Received().Lines()
	return func() tea.Msg {
		err := export.WriteFile(path,
			export.Column{Title: "Sent", Lines: sent},
			export.Column{Title: "Received", Lines: received},
		)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{notice: "Exported to " + path}
	}
}

func (m *App) syncStatus() {
	m.statusBar.SetMode(m.mode.String())
	m.statusBar.SetConnection(m.sup.State(), m.sup.Target(), m.sup.Connection().BaudRate())
	if m.mode == InputModeNormal {
		m.selector.SetFocused(true)
	}
}

const (
	inputHeight     = 3
	statusBarHeight = 1
	helpHeight      = 1
	baudWidth       = 20
)

func (m *App) resize(width, height int) {
	topHeight := max(height/3, 6)
	receivedHeight := max(height-topHeight-inputHeight-statusBarHeight-helpHeight, 4)
	selectorWidth := max(width/3, 20)

	m.selector.SetSize(selectorWidth, topHeight)
	m.sent.SetSize(width-selectorWidth, topHeight)
	m.received.SetSize(width, receivedHeight)
	m.input.SetWidth(width - baudWidth)
	m.statusBar.SetWidth(width)
	m.help.Width = width
}

func (m *App) View() string {
	if !m.ready {
		return "Initializing..."
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top, m.selector.View(), m.sent.View())
	inputRow := lipgloss.JoinHorizontal(lipgloss.Top, m.input.View(), m.baud.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		top,
		m.received.View(),
		inputRow,
		m.statusBar.View(),
		m.help.View(m.keys),
	)
}
