/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"

	"github.com/allbin/serialterm"
	"github.com/allbin/serialterm/internal/tui/styles"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available serial ports",
	Long: `List the serial devices currently attached to the system.

Each line shows the device name, manufacturer and product. Unknown values
are shown as "Unknown". USB devices get their manufacturer from sysfs when
the system enumerator does not report one.

Example usage:
  serialterm list
  serialterm list --filter usb
  serialterm list --table`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filterType, _ := cmd.Flags().GetString("filter")
		tableFormat, _ := cmd.Flags().GetBool("table")

		devices, err := filterDevices(serialterm.ListDevices(), filterType)
		if err != nil {
			return err
		}

		if len(devices) == 0 {
			if filterType != "" && filterType != "all" {
				fmt.Printf("No serial ports found matching filter: %s\n", filterType)
			} else {
				fmt.Println("No serial ports found")
			}
			return nil
		}

		if tableFormat {
			fmt.Printf("Found %d serial port(s):\n\n", len(devices))
			fmt.Println(renderTable(devices))
		} else {
			for _, d := range devices {
				fmt.Println(d.Label())
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("filter", "f", "", "Filter by port type: usb, all")
	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

// filterDevices keeps the devices matching filterType
func filterDevices(devices []serialterm.DeviceDescriptor, filterType string) ([]serialterm.DeviceDescriptor, error) {
	switch strings.ToLower(filterType) {
	case "", "all":
		return devices, nil
	case "usb":
		filtered := make([]serialterm.DeviceDescriptor, 0, len(devices))
		for _, d := range devices {
			if d.IsUSB {
				filtered = append(filtered, d)
			}
		}
		return filtered, nil
	default:
		return nil, fmt.Errorf("unknown filter %q, use usb or all", filterType)
	}
}

const (
	colPort         = "port"
	colManufacturer = "manufacturer"
	colProduct      = "product"
	colUSB          = "usb"
	colSerial       = "serial"
)

func renderTable(devices []serialterm.DeviceDescriptor) string {
	columns := []table.Column{
		table.NewColumn(colPort, "Port", 16),
		table.NewColumn(colManufacturer, "Manufacturer", 22),
		table.NewColumn(colProduct, "Product", 26),
		table.NewColumn(colUSB, "VID:PID", 11),
		table.NewColumn(colSerial, "Serial", 16),
	}

	rows := make([]table.Row, 0, len(devices))
	for _, d := range devices {
		usb := ""
		if d.IsUSB {
			usb = d.VID + ":" + d.PID
		}
		rows = append(rows, table.NewRow(table.RowData{
			colPort:         d.Name,
			colManufacturer: orUnknown(d.Manufacturer),
			colProduct:      orUnknown(d.Product),
			colUSB:          usb,
			colSerial:       d.SerialNumber,
		}))
	}

	return table.New(columns).
		WithRows(rows).
		HeaderStyle(lipgloss.NewStyle().Bold(true).Foreground(styles.Mauve)).
		WithBaseStyle(lipgloss.NewStyle().BorderForeground(styles.Surface2).Align(lipgloss.Left)).
		View()
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
