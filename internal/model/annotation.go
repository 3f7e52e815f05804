// Package model defines the core data structures for scrawl.
package model

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Priority levels for annotations.
const (
	PriorityLow    = 0
	PriorityNormal = 1
	PriorityHigh   = 2
)

// PriorityNames maps priority levels to human-readable names.
var PriorityNames = map[int]string{
	PriorityLow:    "low",
	PriorityNormal: "normal",
	PriorityHigh:   "high",
}

// Annotation represents a single captured screen annotation.
// This is the normalized format stored in the history and used by all adapters.
type Annotation struct {
	// scrawl metadata
	ScrawlID         string `json:"scrawl_id"`
	ScrawlSource     string `json:"scrawl_source"`
	ScrawlCapturedAt int64  `json:"scrawl_captured_at"`
	ScrawlResolvedAt int64  `json:"scrawl_resolved_at,omitempty"` // When marked resolved
	ScrawlArchivedAt int64  `json:"scrawl_archived_at,omitempty"` // When archived (soft delete)
	ContentHash      string `json:"content_hash,omitempty"`       // SHA256 hash for deduplication

	// Annotation content
	Label     string `json:"label"`
	Note      string `json:"note,omitempty"`
	Timestamp int64  `json:"timestamp"`

	// Click point on the display surface
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Monitor int     `json:"monitor,omitempty"` // 0 = primary/unspecified

	// Priority
	Priority     int    `json:"priority"`
	PriorityName string `json:"priority_name"`

	// Optional presentation fields
	Color string `json:"color,omitempty"` // Marker color, #RRGGBB
}

// Validation errors.
var (
	ErrEmptyScrawlID     = errors.New("scrawl_id cannot be empty")
	ErrEmptyScrawlSource = errors.New("scrawl_source cannot be empty")
	ErrEmptyLabel        = errors.New("label cannot be empty")
	ErrInvalidPriority   = errors.New("priority must be 0, 1, or 2")
	ErrInvalidTimestamp  = errors.New("timestamp must be greater than 0")
)

// NewAnnotation creates a new Annotation with generated ULID and metadata.
func NewAnnotation(source string) (*Annotation, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ULID: %w", err)
	}

	return &Annotation{
		ScrawlID:         id.String(),
		ScrawlSource:     source,
		ScrawlCapturedAt: time.Now().Unix(),
		Priority:         PriorityNormal,
		PriorityName:     PriorityNames[PriorityNormal],
	}, nil
}

// Validate checks that the annotation has all required fields.
func (a *Annotation) Validate() error {
	if a.ScrawlID == "" {
		return ErrEmptyScrawlID
	}
	if a.ScrawlSource == "" {
		return ErrEmptyScrawlSource
	}
	if a.Label == "" {
		return ErrEmptyLabel
	}
	if a.Priority < 0 || a.Priority > 2 {
		return ErrInvalidPriority
	}
	if a.Timestamp <= 0 {
		return ErrInvalidTimestamp
	}
	return nil
}

// SetPriority sets the priority level and its human-readable name.
func (a *Annotation) SetPriority(level int) {
	if level < 0 || level > 2 {
		level = PriorityNormal
	}
	a.Priority = level
	a.PriorityName = PriorityNames[level]
}

// RelativeTime returns a human-readable relative time string.
// Examples: "just now", "5m ago", "2h ago", "1d ago".
func (a *Annotation) RelativeTime() string {
	now := time.Now().Unix()
	diff := now - a.Timestamp

	if diff < 0 {
		return "in the future"
	}
	if diff < 60 {
		return "just now"
	}
	if diff < 3600 {
		return fmt.Sprintf("%dm ago", diff/60)
	}
	if diff < 86400 {
		return fmt.Sprintf("%dh ago", diff/3600)
	}
	return fmt.Sprintf("%dd ago", diff/86400)
}

// NoteTruncated returns the note truncated to maxLen characters.
// If the note is longer, it is truncated and "..." is appended.
func (a *Annotation) NoteTruncated(maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	// Collapse whitespace and newlines to single spaces
	note := strings.Join(strings.Fields(a.Note), " ")

	if len(note) <= maxLen {
		return note
	}
	if maxLen <= 3 {
		return note[:maxLen]
	}
	return note[:maxLen-3] + "..."
}

// DedupeKey returns a string key for deduplication. Annotations with the
// same label, note, click point, and timestamp are considered duplicates.
func (a *Annotation) DedupeKey() string {
	return fmt.Sprintf("%s:%s:%.0f:%.0f:%d",
		a.Label,
		a.Note,
		a.X,
		a.Y,
		a.Timestamp,
	)
}

// ComputeContentHash generates a SHA256 hash of the annotation content.
// This is used for deduplication across imports.
func (a *Annotation) ComputeContentHash() string {
	hash := sha256.Sum256([]byte(a.DedupeKey()))
	return hex.EncodeToString(hash[:])
}

// EnsureContentHash computes and sets the ContentHash if not already set.
func (a *Annotation) EnsureContentHash() {
	if a.ContentHash == "" {
		a.ContentHash = a.ComputeContentHash()
	}
}

// TimestampTime returns the timestamp as a time.Time.
func (a *Annotation) TimestampTime() time.Time {
	return time.Unix(a.Timestamp, 0)
}

// CapturedAtTime returns the capture timestamp as a time.Time.
func (a *Annotation) CapturedAtTime() time.Time {
	return time.Unix(a.ScrawlCapturedAt, 0)
}

// Clone creates a copy of the annotation.
func (a *Annotation) Clone() *Annotation {
	clone := *a
	return &clone
}

// IsResolved returns true if the annotation has been marked resolved.
func (a *Annotation) IsResolved() bool {
	return a.ScrawlResolvedAt > 0
}

// MarkResolved marks the annotation as resolved at the current time.
func (a *Annotation) MarkResolved() {
	if a.ScrawlResolvedAt == 0 {
		a.ScrawlResolvedAt = time.Now().Unix()
	}
}

// Unresolve clears the resolved state.
func (a *Annotation) Unresolve() {
	a.ScrawlResolvedAt = 0
}

// IsArchived returns true if the annotation has been archived.
func (a *Annotation) IsArchived() bool {
	return a.ScrawlArchivedAt > 0
}

// MarkArchived marks the annotation as archived at the current time.
func (a *Annotation) MarkArchived() {
	a.ScrawlArchivedAt = time.Now().Unix()
	// Archiving implies resolving
	if a.ScrawlResolvedAt == 0 {
		a.ScrawlResolvedAt = a.ScrawlArchivedAt
	}
}

// Unarchive clears the archived state.
func (a *Annotation) Unarchive() {
	a.ScrawlArchivedAt = 0
}
