/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/allbin/serialterm"
)

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen <port>",
	Short: "Print data received on a serial port",
	Long: `Connect to a serial port and print everything it sends to stdout.

The port is retried until it appears or the connect timeout passes. If the
device is unplugged while listening the command ends, unless --reconnect is
given, in which case the port is retried again the same way.
Runs until interrupted (Ctrl+C).

With --output the received data is also appended to a file, allowing a
capture to be resumed without overwriting earlier data.

Example usage:
  serialterm listen /dev/ttyUSB0
  serialterm listen /dev/ttyUSB0 --baud 115200
  serialterm listen /dev/ttyUSB0 --output capture.log --reconnect`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outputPath, _ := cmd.Flags().GetString("output")
		reconnect, _ := cmd.Flags().GetBool("reconnect")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runListen(ctx, args[0], outputPath, reconnect)
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().StringP("output", "o", "", "Also append received data to this file")
	listenCmd.Flags().BoolP("reconnect", "r", false, "Retry the port after the device is lost")
}

func runListen(ctx context.Context, portPath, outputPath string, reconnect bool) error {
	logger, err := newLogger(false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	var out io.Writer = os.Stdout
	if outputPath != "" {
		f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open output file: %w", err)
		}
		defer f.Close()
		out = io.MultiWriter(os.Stdout, f)
		logger.Info("Capturing", zap.String("port", portPath), zap.String("output", outputPath))
	}

	lost := make(chan error, 1)
	failed := make(chan error, 1)
	handler := func(ev serialterm.Event) {
		listenEvent(out, ev, lost, failed)
	}

	sup, err := newSupervisor(logger, serialterm.WithEventHandler(handler))
	if err != nil {
		return err
	}
	defer sup.Close()

	sup.Connect(portPath)

	// handlers run on the supervisor's loop and must not call Connect
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-lost:
			if !reconnect {
				return err
			}
			sup.Connect(portPath)
		case err := <-failed:
			return err
		}
	}
}

// listenEvent writes received data and signals device loss and connect
// failure to the command loop.
func listenEvent(out io.Writer, ev serialterm.Event, lost, failed chan<- error) {
	switch ev.Type {
	case serialterm.EventConnected:
		fmt.Fprintf(os.Stderr, "Connected to %s\n", ev.Port)
	case serialterm.EventData:
		fmt.Fprint(out, ev.Data)
	case serialterm.EventDisconnected:
		fmt.Fprintf(os.Stderr, "Lost %s: %v\n", ev.Port, ev.Err)
		select {
		case lost <- fmt.Errorf("%s disconnected: %w", ev.Port, ev.Err):
		default:
		}
	case serialterm.EventConnectFailed:
		select {
		case failed <- ev.Err:
		default:
		}
	}
}
