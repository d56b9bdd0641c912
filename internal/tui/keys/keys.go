package keys

import "github.com/charmbracelet/bubbles/key"

// AppKeys are the terminal's bindings. Letter keys only apply in normal
// mode; insert mode hands them to the focused field.
type AppKeys struct {
	Quit       key.Binding
	Help       key.Binding
	InsertMode key.Binding
	EditBaud   key.Binding
	Escape     key.Binding
	Enter      key.Binding

	Up         key.Binding
	Down       key.Binding
	BaudUp     key.Binding
	BaudDown   key.Binding
	Disconnect key.Binding

	ClearReceived key.Binding
	ClearSent     key.Binding
	ToggleHex     key.Binding
	Export        key.Binding
	GotoTop       key.Binding
	GotoBottom    key.Binding
}

func NewAppKeys() AppKeys {
	return AppKeys{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		InsertMode: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "type message"),
		),
		EditBaud: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "edit baud"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "normal mode"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "connect / send / apply"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous device"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next device"),
		),
		BaudUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "faster baud"),
		),
		BaudDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "slower baud"),
		),
		Disconnect: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "disconnect"),
		),
		ClearReceived: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear received"),
		),
		ClearSent: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "clear sent"),
		),
		ToggleHex: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "toggle hex"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export csv"),
		),
		GotoTop: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "top"),
		),
		GotoBottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "bottom"),
		),
	}
}

func (k AppKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Enter, k.InsertMode, k.EditBaud, k.Quit}
}

func (k AppKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter, k.Disconnect},
		{k.InsertMode, k.EditBaud, k.BaudUp, k.BaudDown, k.Escape},
		{k.ClearReceived, k.ClearSent, k.ToggleHex, k.Export},
		{k.GotoTop, k.GotoBottom, k.Help, k.Quit},
	}
}
