package output

import (
	"fmt"
	"io"

	"github.com/scrawl-tools/scrawl/internal/model"
)

// IDsFormatter outputs just the scrawl IDs, one per line.
// Useful for piping to other commands (e.g., scrawl rm --stdin).
type IDsFormatter struct{}

// NewIDsFormatter creates a new IDs formatter.
func NewIDsFormatter() *IDsFormatter {
	return &IDsFormatter{}
}

// Format writes scrawl IDs to the writer, one per line.
func (f *IDsFormatter) Format(w io.Writer, annotations []model.Annotation) error {
	for _, a := range annotations {
		if _, err := fmt.Fprintln(w, a.ScrawlID); err != nil {
			return err
		}
	}
	return nil
}
