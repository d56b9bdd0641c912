/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/allbin/serialterm"
	"github.com/allbin/serialterm/internal/config"
	"github.com/allbin/serialterm/internal/logging"
	"github.com/allbin/serialterm/internal/tui"
)

// tuiLogFile receives the log when the configured output is the terminal
// and the TUI is running.
const tuiLogFile = "serialterm.log"

var (
	cfgFile string
	appCfg  *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "serialterm [port]",
	Short: "Interactive serial port terminal",
	Long: `An interactive terminal for serial devices.

Without a subcommand the terminal UI starts. Pick a device from the list,
set the baud rate and exchange text with it. A device that is lost after
connecting stays disconnected until it is selected again; use
"listen --reconnect" for unattended captures.

Settings are read from $HOME/.serialterm.yaml (or --config) and can be
overridden with SERIALTERM_* environment variables, e.g.
SERIALTERM_SERIAL_BAUD_RATE=115200.

Example usage:
  serialterm
  serialterm /dev/ttyUSB0 --baud 115200
  serialterm list --table`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		appCfg = cfg
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTerminal(args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.serialterm.yaml)")
	pf.IntP("baud", "b", 9600, "Baud rate")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("log-output", "stderr", "Log output: stderr, stdout or a file path")

	_ = viper.BindPFlag("serial.baud_rate", pf.Lookup("baud"))
	_ = viper.BindPFlag("logging.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("logging.output", pf.Lookup("log-output"))
}

// newLogger builds the application logger. interactive moves terminal
// output to a file so log lines do not tear the UI.
func newLogger(interactive bool) (*zap.Logger, error) {
	cfg := appCfg.Logging
	if interactive && (cfg.Output == "" || cfg.Output == "stderr" || cfg.Output == "stdout") {
		cfg.Output = tuiLogFile
	}
	return logging.New(cfg)
}

// newSupervisor wires a Connection and Supervisor from the loaded settings
func newSupervisor(logger *zap.Logger, opts ...serialterm.SupervisorOption) (*serialterm.Supervisor, error) {
	connOpts := append(appCfg.Serial.Options(), serialterm.WithLogger(logger))
	conn, err := serialterm.NewConnection(connOpts...)
	if err != nil {
		return nil, err
	}

	supOpts := append(appCfg.Supervisor.Options(), serialterm.WithSupervisorLogger(logger))
	return serialterm.NewSupervisor(conn, append(supOpts, opts...)...)
}

func runTerminal(args []string) error {
	logger, err := newLogger(true)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sup, err := newSupervisor(logger)
	if err != nil {
		return err
	}

	var port string
	if len(args) > 0 {
		port = args[0]
	}

	logger.Info("Starting terminal", zap.String("port", port), zap.Int("baud_rate", appCfg.Serial.BaudRate))
	return tui.Run(sup, tui.Options{
		InitialPort: port,
		ExportPath:  appCfg.Export.Path,
	})
}
