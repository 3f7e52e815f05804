package output

import (
	"encoding/json"
	"io"

	"github.com/scrawl-tools/scrawl/internal/model"
)

// JSONFormatter formats annotations as JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes annotations as a JSON array.
func (f *JSONFormatter) Format(w io.Writer, annotations []model.Annotation) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(annotations)
}

// FormatSingle writes a single annotation as JSON.
func (f *JSONFormatter) FormatSingle(w io.Writer, a *model.Annotation) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(a)
}
