// Package output provides output formatters for annotations.
package output

import (
	"io"

	"github.com/scrawl-tools/scrawl/internal/model"
)

// Formatter formats annotations for output.
type Formatter interface {
	// Format writes formatted annotations to the writer.
	Format(w io.Writer, annotations []model.Annotation) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatDmenu FormatType = "dmenu"
	FormatJSON  FormatType = "json"
	FormatPlain FormatType = "plain"
	FormatIDs   FormatType = "ids"
)

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatPlain:
		return NewPlainFormatter(opts)
	case FormatIDs:
		return NewIDsFormatter()
	case FormatDmenu:
		fallthrough
	default:
		return NewDmenuFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template       string // Custom template for dmenu/plain format
	ShowIndex      bool   // Show 1-based index prefix
	ShowTime       bool   // Show relative time
	ShowPosition   bool   // Show click coordinates
	NoteMaxLen     int    // Maximum note length (0 = unlimited)
	Separator      string // Field separator for dmenu format
	OutputField    string // Field to output (for single-annotation mode)
	IncludeNewline bool   // Include newlines in note (default: replace with space)
}

// DefaultFormatterOptions returns sensible defaults for dmenu output.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowIndex:      true,
		ShowTime:       true,
		ShowPosition:   true,
		NoteMaxLen:     80,
		Separator:      " | ",
		IncludeNewline: false,
	}
}
