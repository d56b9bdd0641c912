/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/allbin/serialterm"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <port>",
	Short: "Display detailed information about a serial port",
	Long: `Display detailed information about an attached serial port.

Examples:
  serialterm info /dev/ttyUSB0
  serialterm info /dev/ttyACM0

For USB devices this also shows vendor/product IDs and the serial number.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := serialterm.FindDevice(args[0])
		if err != nil {
			return fmt.Errorf("error getting port info: %w", err)
		}

		fmt.Printf("Port Information: %s\n\n", info.Name)
		fmt.Printf("  Manufacturer: %s\n", orUnknown(info.Manufacturer))
		fmt.Printf("  Product:      %s\n", orUnknown(info.Product))

		if info.IsUSB {
			fmt.Println("\nUSB Device Information:")
			if info.VID != "" {
				fmt.Printf("  Vendor ID:    %s\n", info.VID)
			}
			if info.PID != "" {
				fmt.Printf("  Product ID:   %s\n", info.PID)
			}
			if info.SerialNumber != "" {
				fmt.Printf("  Serial:       %s\n", info.SerialNumber)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
