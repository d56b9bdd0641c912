// Package export writes the terminal's display buffers as a delimited table.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Column is one exported buffer
type Column struct {
	Title string
	Lines []string
}

// WriteCSV writes a header row of titles followed by one row per line index.
// Shorter columns are padded with empty values. Every value is quoted.
func WriteCSV(w io.Writer, columns ...Column) error {
	bw := bufio.NewWriter(w)

	titles := make([]string, len(columns))
	rows := 0
	for i, c := range columns {
		titles[i] = c.Title
		rows = max(rows, len(c.Lines))
	}
	if err := writeRow(bw, titles); err != nil {
		return err
	}

	row := make([]string, len(columns))
	for r := 0; r < rows; r++ {
		for i, c := range columns {
			row[i] = ""
			if r < len(c.Lines) {
				row[i] = c.Lines[r]
			}
		}
		if err := writeRow(bw, row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile creates path and writes the columns to it
func WriteFile(path string, columns ...Column) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, columns...); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return f.Close()
}

// encoding/csv only quotes when needed
func writeRow(w *bufio.Writer, values []string) error {
	for i, v := range values {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(strings.TrimSuffix(v, "\r"), `"`, `""`))
		w.WriteByte('"')
	}
	_, err := w.WriteString("\n")
	return err
}
