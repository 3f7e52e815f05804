package input

import (
	"context"
	"os"

	"github.com/scrawl-tools/scrawl/internal/model"
)

// FileAdapter imports annotations from an export file.
// The file may contain a JSON array or JSONL entries in the import format.
type FileAdapter struct {
	path string
}

// NewFileAdapter creates a new FileAdapter for the given path.
func NewFileAdapter(path string) *FileAdapter {
	return &FileAdapter{path: path}
}

// Name returns the adapter identifier.
func (a *FileAdapter) Name() string {
	return "file"
}

// Import reads annotations from the export file.
func (a *FileAdapter) Import(ctx context.Context) ([]model.Annotation, error) {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return nil, &AdapterError{
			Source:  "file",
			Message: "failed to read import file",
			Err:     err,
		}
	}

	if len(data) == 0 {
		return nil, nil
	}

	return parseEntries("file", data)
}
