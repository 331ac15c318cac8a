package output

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"JSON", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"toon", FormatTOON},
		{"TOON", FormatTOON},
		{"", FormatText},
		{"unknown", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFormat(tt.input))
		})
	}
}

func TestNewFormatterWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	f, err := NewFormatter(FormatJSON, path, true)
	require.NoError(t, err)
	assert.False(t, f.Colored(), "files never get color codes")

	require.NoError(t, f.Output(map[string]int{"groups": 2}))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"groups": 2}`, string(data))
}

func TestNewFormatterInvalidPath(t *testing.T) {
	_, err := NewFormatter(FormatText, filepath.Join(t.TempDir(), "missing", "out.txt"), false)
	assert.Error(t, err)
}

func TestFormatterStdout(t *testing.T) {
	f, err := NewFormatter(FormatMarkdown, "", true)
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f.Format())
	assert.True(t, f.Colored())
	assert.Equal(t, io.Writer(os.Stdout), f.Writer())
	assert.NoError(t, f.Close())
}

type sample struct {
	Name  string `json:"name" toon:"name"`
	Count int    `json:"count" toon:"count"`
}

func sampleTable() *Table {
	return NewTable("Hotspots",
		[]string{"File", "Lines"},
		[][]string{{"a.py", "12"}, {"b|c.py", "4"}},
		[]string{"Total", "16"},
		nil,
	)
}

func TestTableRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleTable().RenderText(&buf, false))

	out := buf.String()
	assert.Contains(t, out, "Hotspots\n--------")
	assert.Contains(t, out, "a.py")
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "16")
}

func TestTableRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleTable().RenderMarkdown(&buf))

	assert.Equal(t, "## Hotspots\n\n"+
		"| File | Lines |\n"+
		"| --- | --- |\n"+
		"| a.py | 12 |\n"+
		"| b\\|c.py | 4 |\n"+
		"| Total | 16 |\n\n", buf.String())
}

func TestTableRenderData(t *testing.T) {
	assert.Equal(t, []map[string]string{
		{"File": "a.py", "Lines": "12"},
		{"File": "b|c.py", "Lines": "4"},
	}, sampleTable().RenderData())

	withData := NewTable("", nil, nil, nil, sample{Name: "x", Count: 1})
	assert.Equal(t, sample{Name: "x", Count: 1}, withData.RenderData())
}

func TestFormatterOutputRenderable(t *testing.T) {
	table := NewTable("T", []string{"Name"}, [][]string{{"x"}}, nil, []sample{{Name: "x", Count: 3}})

	tests := []struct {
		format Format
		check  func(t *testing.T, out string)
	}{
		{FormatText, func(t *testing.T, out string) { assert.Contains(t, out, "T\n-") }},
		{FormatMarkdown, func(t *testing.T, out string) { assert.Contains(t, out, "## T") }},
		{FormatJSON, func(t *testing.T, out string) {
			var got []sample
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			assert.Equal(t, []sample{{Name: "x", Count: 3}}, got)
		}},
		{FormatTOON, func(t *testing.T, out string) {
			assert.Contains(t, out, "name")
			assert.Contains(t, out, "3")
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewWriterFormatter(tt.format, &buf, false).Output(table))
			tt.check(t, buf.String())
		})
	}
}

func TestFormatterOutputRaw(t *testing.T) {
	data := sample{Name: "dup", Count: 2}

	var buf bytes.Buffer
	require.NoError(t, NewWriterFormatter(FormatText, &buf, false).Output(data))
	assert.JSONEq(t, `{"name":"dup","count":2}`, buf.String())

	buf.Reset()
	require.NoError(t, NewWriterFormatter(FormatMarkdown, &buf, false).Output(data))
	assert.Contains(t, buf.String(), "```json\n")

	buf.Reset()
	require.NoError(t, NewWriterFormatter(FormatTOON, &buf, false).Output(data))
	assert.Contains(t, buf.String(), "name: dup")
}

func TestMarshalTOON(t *testing.T) {
	out, err := MarshalTOON(sample{Name: "dup", Count: 2})
	require.NoError(t, err)
	assert.Contains(t, out, "name: dup")
	assert.Contains(t, out, "count: 2")
}

func TestFormatterMessages(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatText, &buf, false)

	f.Success("done %d", 1)
	f.Warning("careful")
	f.Error("failed: %s", "boom")
	f.Info("note")

	assert.Equal(t, "done 1\nWARNING: careful\nERROR: failed: boom\nnote\n", buf.String())
}

func TestSeverityColor(t *testing.T) {
	assert.Equal(t, "low", SeverityColor(0.5, 2, 4, "low"))
	assert.Contains(t, SeverityColor(2.5, 2, 4, "mid"), "mid")
	assert.Contains(t, SeverityColor(5, 2, 4, "high"), "high")
}
