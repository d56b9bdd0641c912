package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	tests := []struct {
		name    string
		columns []Column
		want    string
	}{
		{
			name:    "equal lengths",
			columns: []Column{{"Sent", []string{"AT", "ATI"}}, {"Received", []string{"OK", "v1.2"}}},
			want:    "\"Sent\",\"Received\"\n\"AT\",\"OK\"\n\"ATI\",\"v1.2\"\n",
		},
		{
			name:    "ragged columns",
			columns: []Column{{"Sent", []string{"ping"}}, {"Received", []string{"pong", "late"}}},
			want:    "\"Sent\",\"Received\"\n\"ping\",\"pong\"\n\"\",\"late\"\n",
		},
		{
			name:    "quotes and commas",
			columns: []Column{{"Received", []string{`say "hi", then go`}}},
			want:    "\"Received\"\n\"say \"\"hi\"\", then go\"\n",
		},
		{
			name:    "carriage returns stripped",
			columns: []Column{{"Received", []string{"OK\r"}}},
			want:    "\"Received\"\n\"OK\"\n",
		},
		{
			name:    "empty buffers",
			columns: []Column{{"Sent", nil}, {"Received", nil}},
			want:    "\"Sent\",\"Received\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteCSV(&buf, tt.columns...))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, WriteFile(path, Column{"Sent", []string{"x"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\"Sent\"\n\"x\"\n", string(data))

	assert.Error(t, WriteFile(filepath.Join(t.TempDir(), "missing", "export.csv")))
}
