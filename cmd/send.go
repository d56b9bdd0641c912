/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/allbin/serialterm"
	"github.com/allbin/serialterm/internal/tui/styles"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [data] <port>",
	Short: "Send data to a serial port",
	Long: `Send data to a serial port and wait until it has been written.

Data can be provided as:
- Command line argument: send "Hello World" /dev/ttyUSB0
- From stdin (pipe): echo "test data" | serialterm send /dev/ttyUSB0

Example usage:
  serialterm send "Hello World" /dev/ttyUSB0
  serialterm send "AT+GMR" /dev/ttyUSB0 --newline
  serialterm send "41540d0a" /dev/ttyUSB0 --hex
  echo "test" | serialterm send /dev/ttyUSB0`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data, portPath string

		if len(args) == 1 {
			portPath = args[0]
			stdinData, err := readStdin()
			if err != nil {
				return err
			}
			data = stdinData
		} else {
			data = args[0]
			portPath = args[1]
		}

		addNewline, _ := cmd.Flags().GetBool("newline")
		hexMode, _ := cmd.Flags().GetBool("hex")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		if hexMode {
			decoded, err := parseHexString(data)
			if err != nil {
				return fmt.Errorf("invalid hex data: %w", err)
			}
			data = decoded
		} else if addNewline {
			data += "\n"
		}

		return sendData(portPath, data, timeout)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().BoolP("newline", "n", false, "Add newline character to the end of data")
	sendCmd.Flags().BoolP("hex", "x", false, "Interpret data as hexadecimal (e.g., '48656c6c6f' for 'Hello')")
	sendCmd.Flags().DurationP("timeout", "t", 5*time.Second, "Timeout for sending data")
}

func readStdin() (string, error) {
	stat, err := os.Stdin.Stat()
	if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
		return "", fmt.Errorf("no data given: pass it as an argument or pipe it on stdin")
	}
	stdinData, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("error reading from stdin: %w", err)
	}
	return strings.TrimRight(string(stdinData), "\r\n"), nil
}

// parseHexString accepts "48 65", "4865" and 0x-prefixed bytes
func parseHexString(hexStr string) (string, error) {
	hexStr = strings.ReplaceAll(hexStr, " ", "")
	hexStr = strings.ReplaceAll(hexStr, "0x", "")
	hexStr = strings.ReplaceAll(hexStr, "0X", "")

	if len(hexStr)%2 != 0 {
		return "", fmt.Errorf("hex string must have even length")
	}
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func sendData(portPath, data string, timeout time.Duration) error {
	infoStyle := lipgloss.NewStyle().Foreground(styles.Blue).Bold(true)
	successStyle := lipgloss.NewStyle().Foreground(styles.Green).Bold(true)

	logger, err := newLogger(false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	fmt.Printf("%s Opening %s...\n", infoStyle.Render("⚡"), portPath)

	opts := append(appCfg.Serial.Options(), serialterm.WithLogger(logger))
	h, err := serialterm.Open(portPath, opts...)
	if err != nil {
		return err
	}
	defer h.Close()

	fmt.Printf("%s Connected at %d baud\n", successStyle.Render("✓"), h.BaudRate())

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	fmt.Printf("%s Sending %d bytes...\n", infoStyle.Render("📤"), len(data))
	if err := h.Write(data); err != nil {
		return fmt.Errorf("failed to send data: %w", err)
	}
	if err := h.Flush(ctx); err != nil {
		return fmt.Errorf("failed to send data: %w", err)
	}

	fmt.Printf("%s Successfully sent %d bytes\n", successStyle.Render("✓"), len(data))
	fmt.Printf("%s Data: %s\n", infoStyle.Render("📋"), preview(data, 50))
	return nil
}

// preview shortens s and masks non-printable bytes
func preview(s string, limit int) string {
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return strings.Map(func(r rune) rune {
		if r < 32 || r > 126 {
			return '·'
		}
		return r
	}, s)
}
