package input

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrawl-tools/scrawl/internal/model"
)

func TestNewAdapter(t *testing.T) {
	t.Run("stdin", func(t *testing.T) {
		a, err := NewAdapter("stdin")
		require.NoError(t, err)
		assert.Equal(t, "stdin", a.Name())
	})

	t.Run("empty defaults to stdin", func(t *testing.T) {
		a, err := NewAdapter("")
		require.NoError(t, err)
		assert.Equal(t, "stdin", a.Name())
	})

	t.Run("file", func(t *testing.T) {
		a, err := NewAdapter("file:/tmp/export.jsonl")
		require.NoError(t, err)
		assert.Equal(t, "file", a.Name())
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewAdapter("bogus")
		assert.Error(t, err)
	})
}

func TestStdinAdapter_ImportJSONArray(t *testing.T) {
	input := `[
		{"label": "checkout button", "note": "submit broken", "x": 120, "y": 480, "timestamp": 1703577600, "priority": 2},
		{"label": "sidebar", "note": "overlaps footer", "x": 30, "y": 900, "timestamp": 1703577601, "priority": 0, "color": "#ff0000"}
	]`

	a := NewStdinAdapterWithReader(strings.NewReader(input))
	annotations, err := a.Import(context.Background())
	require.NoError(t, err)
	require.Len(t, annotations, 2)

	first := annotations[0]
	assert.Equal(t, "checkout button", first.Label)
	assert.Equal(t, "submit broken", first.Note)
	assert.Equal(t, 120.0, first.X)
	assert.Equal(t, 480.0, first.Y)
	assert.Equal(t, int64(1703577600), first.Timestamp)
	assert.Equal(t, model.PriorityHigh, first.Priority)
	assert.Equal(t, "high", first.PriorityName)
	assert.Equal(t, "stdin", first.ScrawlSource)
	assert.Len(t, first.ScrawlID, 26)

	second := annotations[1]
	assert.Equal(t, "#ff0000", second.Color)
	assert.Equal(t, model.PriorityLow, second.Priority)
}

func TestStdinAdapter_ImportJSONL(t *testing.T) {
	input := `{"label": "one", "x": 1, "y": 2, "timestamp": 1703577600, "priority": 1}
{"label": "two", "x": 3, "y": 4, "timestamp": 1703577601, "priority": 1}
not json at all
{"label": "three", "x": 5, "y": 6, "timestamp": 1703577602, "priority": 1}
`

	a := NewStdinAdapterWithReader(strings.NewReader(input))
	annotations, err := a.Import(context.Background())
	require.NoError(t, err)
	assert.Len(t, annotations, 3) // malformed line skipped
}

func TestStdinAdapter_EmptyInput(t *testing.T) {
	a := NewStdinAdapterWithReader(strings.NewReader(""))
	annotations, err := a.Import(context.Background())
	require.NoError(t, err)
	assert.Nil(t, annotations)
}

func TestStdinAdapter_InvalidJSON(t *testing.T) {
	a := NewStdinAdapterWithReader(strings.NewReader("[{broken"))
	_, err := a.Import(context.Background())
	assert.Error(t, err)

	var adapterErr *AdapterError
	assert.ErrorAs(t, err, &adapterErr)
}

func TestStdinAdapter_DefaultsMissingFields(t *testing.T) {
	input := `[{"label": "no timestamp", "x": 10, "y": 20, "priority": 99}]`

	a := NewStdinAdapterWithReader(strings.NewReader(input))
	annotations, err := a.Import(context.Background())
	require.NoError(t, err)
	require.Len(t, annotations, 1)

	// Missing timestamp defaults to now; invalid priority defaults to normal
	assert.Greater(t, annotations[0].Timestamp, int64(0))
	assert.Equal(t, model.PriorityNormal, annotations[0].Priority)
}

func TestStdinAdapter_SanitizesControlCharacters(t *testing.T) {
	input := `[{"label": "bad\u0007label", "note": "line1\nline2", "x": 1, "y": 2, "timestamp": 1703577600, "priority": 1}]`

	a := NewStdinAdapterWithReader(strings.NewReader(input))
	annotations, err := a.Import(context.Background())
	require.NoError(t, err)
	require.Len(t, annotations, 1)

	assert.Equal(t, "bad label", annotations[0].Label)
	assert.Equal(t, "line1\nline2", annotations[0].Note) // Newlines preserved
}

func TestFileAdapter_Import(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.jsonl")
	content := `{"label": "from file", "x": 50, "y": 60, "timestamp": 1703577600, "priority": 1}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	a := NewFileAdapter(path)
	annotations, err := a.Import(context.Background())
	require.NoError(t, err)
	require.Len(t, annotations, 1)
	assert.Equal(t, "from file", annotations[0].Label)
	assert.Equal(t, "file", annotations[0].ScrawlSource)
}

func TestFileAdapter_MissingFile(t *testing.T) {
	a := NewFileAdapter(filepath.Join(t.TempDir(), "nope.jsonl"))
	_, err := a.Import(context.Background())
	assert.Error(t, err)
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "hello", "hello"},
		{"control chars", "he\x01llo", "he llo"},
		{"preserves newline and tab", "a\nb\tc", "a\nb\tc"},
		{"trims whitespace", "  hello  ", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeString(tt.input))
		})
	}
}
