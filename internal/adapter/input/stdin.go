package input

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/scrawl-tools/scrawl/internal/model"
)

// StdinAdapter reads annotations from standard input.
type StdinAdapter struct {
	reader io.Reader
}

// NewStdinAdapter creates a new StdinAdapter reading from os.Stdin.
func NewStdinAdapter() *StdinAdapter {
	return &StdinAdapter{reader: os.Stdin}
}

// NewStdinAdapterWithReader creates a new StdinAdapter with a custom reader.
func NewStdinAdapterWithReader(r io.Reader) *StdinAdapter {
	return &StdinAdapter{reader: r}
}

// Name returns the adapter identifier.
func (a *StdinAdapter) Name() string {
	return "stdin"
}

// Import reads annotations from standard input.
// Supports two formats:
// 1. JSON array of annotation entries
// 2. JSONL, one entry per line
func (a *StdinAdapter) Import(ctx context.Context) ([]model.Annotation, error) {
	// Read all input
	scanner := bufio.NewScanner(a.reader)
	const maxSize = 10 * 1024 * 1024 // 10MB max
	scanner.Buffer(make([]byte, 64*1024), maxSize)

	var data []byte
	for scanner.Scan() {
		data = append(data, scanner.Bytes()...)
		data = append(data, '\n')
	}

	if err := scanner.Err(); err != nil {
		return nil, &AdapterError{
			Source:  "stdin",
			Message: "failed to read stdin",
			Err:     err,
		}
	}

	if len(data) == 0 {
		return nil, nil
	}

	return parseEntries("stdin", data)
}

// parseEntries parses either a JSON array or JSONL entries.
func parseEntries(source string, data []byte) ([]model.Annotation, error) {
	trimmed := strings.TrimSpace(string(data))

	// Try array format first
	if strings.HasPrefix(trimmed, "[") {
		var entries []importEntry
		if err := json.Unmarshal([]byte(trimmed), &entries); err != nil {
			return nil, &AdapterError{
				Source:  source,
				Message: "failed to parse JSON input",
				Err:     err,
			}
		}
		return convertEntries(source, entries), nil
	}

	// JSONL: one entry per line, malformed lines skipped
	var entries []importEntry
	parsed := 0
	for line := range strings.SplitSeq(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var entry importEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
		parsed++
	}

	if parsed == 0 {
		return nil, &AdapterError{
			Source:  source,
			Message: "no parseable entries in input",
		}
	}

	return convertEntries(source, entries), nil
}

// importEntry represents an annotation in the simple JSON import format.
type importEntry struct {
	Label     string  `json:"label"`
	Note      string  `json:"note"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Monitor   int     `json:"monitor,omitempty"`
	Timestamp int64   `json:"timestamp"`
	Priority  int     `json:"priority"`
	Color     string  `json:"color,omitempty"`
}

// convertEntries converts import entries to Annotations, skipping unusable ones.
func convertEntries(source string, entries []importEntry) []model.Annotation {
	var annotations []model.Annotation
	for _, entry := range entries {
		a, err := convertEntry(source, entry)
		if err != nil {
			continue
		}
		annotations = append(annotations, *a)
	}
	return annotations
}

// convertEntry converts an import entry to an Annotation.
func convertEntry(source string, entry importEntry) (*model.Annotation, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	timestamp := entry.Timestamp
	if timestamp == 0 {
		timestamp = now.Unix()
	}

	priority := entry.Priority
	if priority < 0 || priority > 2 {
		priority = model.PriorityNormal
	}

	return &model.Annotation{
		ScrawlID:         id.String(),
		ScrawlSource:     source,
		ScrawlCapturedAt: now.Unix(),
		Label:            sanitizeString(entry.Label),
		Note:             sanitizeString(entry.Note),
		X:                entry.X,
		Y:                entry.Y,
		Monitor:          entry.Monitor,
		Timestamp:        timestamp,
		Priority:         priority,
		PriorityName:     model.PriorityNames[priority],
		Color:            entry.Color,
	}, nil
}

// sanitizeString removes control characters and normalizes whitespace.
func sanitizeString(s string) string {
	// Replace control characters with spaces
	var result strings.Builder
	for _, r := range s {
		if r < 32 && r != '\n' && r != '\t' {
			result.WriteRune(' ')
		} else {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}
