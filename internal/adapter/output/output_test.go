package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrawl-tools/scrawl/internal/model"
)

func testAnnotations() []model.Annotation {
	now := time.Now()
	return []model.Annotation{
		{
			ScrawlID:  "abc123",
			Label:     "Checkout Button",
			Note:      "submit does nothing on click",
			X:         120,
			Y:         480,
			Timestamp: now.Add(-5 * time.Minute).Unix(),
			Priority:  model.PriorityNormal,
		},
		{
			ScrawlID:  "def456",
			Label:     "Sidebar",
			Note:      "overlaps the footer",
			X:         30,
			Y:         900,
			Timestamp: now.Add(-2 * time.Hour).Unix(),
			Priority:  model.PriorityHigh,
		},
	}
}

func TestDmenuFormatter_Format(t *testing.T) {
	annotations := testAnnotations()
	var buf bytes.Buffer

	formatter := NewDmenuFormatter(DefaultFormatterOptions())
	err := formatter.Format(&buf, annotations)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)

	// First line should contain index 1
	assert.Contains(t, lines[0], "1")
	assert.Contains(t, lines[0], "Checkout Button")
	assert.Contains(t, lines[0], "120,480")

	// Second line should contain index 2
	assert.Contains(t, lines[1], "2")
	assert.Contains(t, lines[1], "Sidebar")
	assert.Contains(t, lines[1], "30,900")
}

func TestDmenuFormatter_NoIndex(t *testing.T) {
	annotations := testAnnotations()
	var buf bytes.Buffer

	opts := DefaultFormatterOptions()
	opts.ShowIndex = false
	formatter := NewDmenuFormatter(opts)
	err := formatter.Format(&buf, annotations)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// Should not start with a number when index is disabled
	assert.False(t, strings.HasPrefix(lines[0], "1"))
}

func TestDmenuFormatter_CustomTemplate(t *testing.T) {
	annotations := testAnnotations()
	var buf bytes.Buffer

	opts := DefaultFormatterOptions()
	opts.Template = "{{.Index}}: {{.Annotation.Label}} - {{.Annotation.Note}}"
	formatter := NewDmenuFormatter(opts)
	err := formatter.Format(&buf, annotations)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "1: Checkout Button - submit does nothing on click", lines[0])
	assert.Equal(t, "2: Sidebar - overlaps the footer", lines[1])
}

func TestDmenuFormatter_TruncateNote(t *testing.T) {
	annotations := []model.Annotation{
		{
			ScrawlID:  "test",
			Label:     "Test",
			Note:      "This is a very long note that should be truncated when the max length is set",
			Timestamp: time.Now().Unix(),
		},
	}
	var buf bytes.Buffer

	opts := DefaultFormatterOptions()
	opts.NoteMaxLen = 20
	formatter := NewDmenuFormatter(opts)
	err := formatter.Format(&buf, annotations)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "...")
	assert.NotContains(t, output, "truncated when the max length is set")
}

func TestJSONFormatter_Format(t *testing.T) {
	annotations := testAnnotations()
	var buf bytes.Buffer

	formatter := NewJSONFormatter(DefaultFormatterOptions())
	err := formatter.Format(&buf, annotations)
	require.NoError(t, err)

	// Should be valid JSON
	var result []model.Annotation
	err = json.Unmarshal(buf.Bytes(), &result)
	require.NoError(t, err)
	assert.Len(t, result, 2)
	assert.Equal(t, "Checkout Button", result[0].Label)
	assert.Equal(t, "Sidebar", result[1].Label)
}

func TestJSONFormatter_FormatSingle(t *testing.T) {
	a := &model.Annotation{
		ScrawlID:  "test123",
		Label:     "Test Label",
		Timestamp: time.Now().Unix(),
	}
	var buf bytes.Buffer

	formatter := NewJSONFormatter(DefaultFormatterOptions())
	err := formatter.FormatSingle(&buf, a)
	require.NoError(t, err)

	var result model.Annotation
	err = json.Unmarshal(buf.Bytes(), &result)
	require.NoError(t, err)
	assert.Equal(t, "Test Label", result.Label)
}

func TestPlainFormatter_Format(t *testing.T) {
	annotations := testAnnotations()
	var buf bytes.Buffer

	formatter := NewPlainFormatter(DefaultFormatterOptions())
	err := formatter.Format(&buf, annotations)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "[1]")
	assert.Contains(t, output, "Checkout Button")
	assert.Contains(t, output, "@ 120,480")
	assert.Contains(t, output, "[2]")
	assert.Contains(t, output, "Sidebar")
}

func TestIDsFormatter_Format(t *testing.T) {
	annotations := testAnnotations()
	var buf bytes.Buffer

	formatter := NewIDsFormatter()
	err := formatter.Format(&buf, annotations)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{"abc123", "def456"}, lines)
}

func TestFormatField(t *testing.T) {
	a := &model.Annotation{
		ScrawlID:     "test123",
		ScrawlSource: "overlay",
		Label:        "Checkout Button",
		Note:         "submit does nothing",
		X:            120,
		Y:            480,
		Color:        "#ff0000",
		PriorityName: "normal",
	}

	tests := []struct {
		field    string
		expected string
	}{
		{"id", "test123"},
		{"scrawl_id", "test123"},
		{"label", "Checkout Button"},
		{"title", "Checkout Button"},
		{"note", "submit does nothing"},
		{"source", "overlay"},
		{"position", "120,480"},
		{"color", "#ff0000"},
		{"priority", "normal"},
		{"all", "Checkout Button\nsubmit does nothing"},
		{"unknown", "Checkout Button"}, // defaults to label
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			result := FormatField(a, tt.field)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestNewFormatter(t *testing.T) {
	opts := DefaultFormatterOptions()

	t.Run("dmenu", func(t *testing.T) {
		f := NewFormatter(FormatDmenu, opts)
		_, ok := f.(*DmenuFormatter)
		assert.True(t, ok)
	})

	t.Run("json", func(t *testing.T) {
		f := NewFormatter(FormatJSON, opts)
		_, ok := f.(*JSONFormatter)
		assert.True(t, ok)
	})

	t.Run("plain", func(t *testing.T) {
		f := NewFormatter(FormatPlain, opts)
		_, ok := f.(*PlainFormatter)
		assert.True(t, ok)
	})

	t.Run("default", func(t *testing.T) {
		f := NewFormatter("unknown", opts)
		_, ok := f.(*DmenuFormatter)
		assert.True(t, ok) // defaults to dmenu
	})
}

func TestSanitizeNote(t *testing.T) {
	tests := []struct {
		name           string
		note           string
		maxLen         int
		includeNewline bool
		expected       string
	}{
		{"simple", "hello world", 0, false, "hello world"},
		{"with newlines", "hello\nworld", 0, false, "hello world"},
		{"preserve newlines", "hello\nworld", 0, true, "hello\nworld"},
		{"truncate", "hello world", 8, false, "hello..."},
		{"multiple spaces", "hello   world", 0, false, "hello world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sanitizeNote(tt.note, tt.maxLen, tt.includeNewline)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		ts       int64
		expected string
	}{
		{"zero", 0, "unknown"},
		{"now", now.Unix(), "now"},
		{"30 seconds", now.Add(-30 * time.Second).Unix(), "now"},
		{"5 minutes", now.Add(-5 * time.Minute).Unix(), "5m"},
		{"2 hours", now.Add(-2 * time.Hour).Unix(), "2h"},
		{"3 days", now.Add(-72 * time.Hour).Unix(), "3d"},
		{"2 weeks", now.Add(-14 * 24 * time.Hour).Unix(), "2w"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := relativeTime(tt.ts)
			assert.Equal(t, tt.expected, result)
		})
	}
}
