/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"github.com/spf13/cobra"
)

// connectCmd represents the connect command
var connectCmd = &cobra.Command{
	Use:   "connect [port]",
	Short: "Open the interactive terminal, optionally connecting to a port",
	Long: `Open the interactive serial terminal.

When a port is given the terminal starts connecting to it right away and
keeps retrying until the connect timeout. Otherwise pick a device from the
list and press Enter.

Keys (normal mode):
  j/k or arrows  move in the device list, Enter connects ("none" disconnects)
  i              type a message, Enter sends it followed by a newline
  b              edit the baud rate, Enter applies it
  +/-            step through the standard baud rates
  c / C          clear the received / sent console
  h              toggle hex view of received data
  e              export both consoles as CSV
  q              quit

Example usage:
  serialterm connect
  serialterm connect /dev/ttyUSB0
  serialterm connect /dev/ttyACM0 --baud 115200`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTerminal(args)
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
}
