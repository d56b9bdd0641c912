package components

import (
	"fmt"
	"strings"
	"unicode"
)

// DisplayMode selects how console text is rendered
type DisplayMode int

const (
	DisplayText DisplayMode = iota
	DisplayHex
)

func (d DisplayMode) String() string {
	if d == DisplayHex {
		return "HEX"
	}
	return "TEXT"
}

const hexRowWidth = 16

type DataFormatter struct {
	mode DisplayMode
}

func NewDataFormatter(mode DisplayMode) *DataFormatter {
	return &DataFormatter{mode: mode}
}

func (df *DataFormatter) Mode() DisplayMode {
	return df.mode
}

func (df *DataFormatter) ToggleHex() {
	if df.mode == DisplayHex {
		df.mode = DisplayText
	} else {
		df.mode = DisplayHex
	}
}

// Format renders s for display in the current mode
func (df *DataFormatter) Format(s string) string {
	if df.mode == DisplayHex {
		return hexDump([]byte(s))
	}
	return printable(s)
}

// printable keeps newlines and tabs and replaces other control characters
// so device output cannot drive the terminal.
func printable(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == '\r':
			return -1
		case unicode.IsControl(r):
			return '·'
		default:
			return r
		}
	}, s)
}

// hexDump renders rows of 16 bytes as offset, hex and ASCII columns.
func hexDump(data []byte) string {
	var b strings.Builder
	for off := 0; off < len(data); off += hexRowWidth {
		row := data[off:min(off+hexRowWidth, len(data))]

		fmt.Fprintf(&b, "%08X  %-*s  ", off, hexRowWidth*3-1, fmt.Sprintf("% X", row))
		for _, c := range row {
			if c >= 32 && c <= 126 {
				b.WriteByte(c)
			} else {
				b.WriteByte('.')
			}
		}
		if off+hexRowWidth < len(data) {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
