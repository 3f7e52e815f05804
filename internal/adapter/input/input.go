// Package input provides input adapters for annotation sources.
package input

import (
	"context"
	"strings"

	"github.com/scrawl-tools/scrawl/internal/model"
)

// InputAdapter fetches annotations from a source.
type InputAdapter interface {
	// Name returns the adapter identifier (e.g., "stdin", "file").
	Name() string

	// Import fetches annotations from the source.
	// Returns the annotations and any error encountered.
	Import(ctx context.Context) ([]model.Annotation, error)
}

// NewAdapter creates an InputAdapter for the specified source.
// Supported sources:
//   - "stdin" reads from standard input
//   - "file:<path>" reads from an export file
func NewAdapter(source string) (InputAdapter, error) {
	if source == "" {
		source = "stdin"
	}

	if path, ok := strings.CutPrefix(source, "file:"); ok {
		return NewFileAdapter(path), nil
	}

	switch source {
	case "stdin":
		return NewStdinAdapter(), nil
	default:
		return nil, &AdapterError{
			Source:  source,
			Message: "unknown or unavailable adapter",
		}
	}
}

// AdapterError represents an adapter-related error.
type AdapterError struct {
	Source  string
	Message string
	Err     error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}
