// Package tui runs the interactive serial terminal.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/allbin/serialterm"
	"github.com/allbin/serialterm/internal/tui/models"
)

// Options configure a terminal session
type Options struct {
	InitialPort string
	ExportPath  string
}

// Run takes over the terminal until the user quits. The supervisor is closed
// on return.
func Run(sup *serialterm.Supervisor, opts Options) error {
	app := models.NewApp(sup, opts.InitialPort, opts.ExportPath)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	sup.SetEventHandler(func(ev serialterm.Event) {
		p.Send(models.EventMsg(ev))
	})

	ctx, cancel := context.WithCancel(context.Background())
	go sup.WatchDevices(ctx, func(devices []serialterm.DeviceDescriptor) {
		p.Send(models.DevicesMsg(devices))
	})

	_, err := p.Run()

	cancel()
	sup.SetEventHandler(nil)
	sup.Close()
	return err
}
