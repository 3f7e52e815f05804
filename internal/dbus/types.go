package dbus

import (
	"github.com/godbus/dbus/v5"

	"github.com/scrawl-tools/scrawl/internal/model"
)

// RemoveReason represents the reason an annotation marker was removed
// from the overlay.
type RemoveReason uint32

const (
	// RemoveReasonResolved indicates the annotation was marked resolved.
	RemoveReasonResolved RemoveReason = 1
	// RemoveReasonArchived indicates the annotation was archived.
	RemoveReasonArchived RemoveReason = 2
	// RemoveReasonRemoved indicates the annotation was removed via RemoveAnnotation.
	RemoveReasonRemoved RemoveReason = 3
	// RemoveReasonReplaced indicates the annotation was replaced by a newer
	// one carrying the same tag.
	RemoveReasonReplaced RemoveReason = 4
)

// String returns the string representation of the remove reason.
func (r RemoveReason) String() string {
	switch r {
	case RemoveReasonResolved:
		return "resolved"
	case RemoveReasonArchived:
		return "archived"
	case RemoveReasonRemoved:
		return "removed"
	case RemoveReasonReplaced:
		return "replaced"
	default:
		return "unknown"
	}
}

// AnnotateRequest represents an incoming D-Bus Annotate call.
// It contains the raw parameters from the org.scrawl.Overlay1.Annotate method.
type AnnotateRequest struct {
	Label string
	Note  string
	X     float64
	Y     float64
	Hints map[string]dbus.Variant
}

// Priority extracts the priority hint from the request.
// Returns model.PriorityNormal if not specified or out of range.
func (r *AnnotateRequest) Priority() int {
	if v, ok := r.Hints["priority"]; ok {
		var p int
		switch val := v.Value().(type) {
		case byte:
			p = int(val)
		case int32:
			p = int(val)
		case uint32:
			p = int(val)
		default:
			return model.PriorityNormal
		}
		if p >= model.PriorityLow && p <= model.PriorityHigh {
			return p
		}
	}
	return model.PriorityNormal
}

// Monitor extracts the monitor hint from the request.
// Returns 0 (primary monitor) if not specified.
func (r *AnnotateRequest) Monitor() int {
	if v, ok := r.Hints["monitor"]; ok {
		switch val := v.Value().(type) {
		case int32:
			return int(val)
		case uint32:
			return int(val)
		case byte:
			return int(val)
		}
	}
	return 0
}

// Color extracts the marker color hint (e.g. "#ff4400").
func (r *AnnotateRequest) Color() string {
	if v, ok := r.Hints["color"]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// Source extracts the source hint identifying the requesting tool.
// Returns "dbus" if not specified.
func (r *AnnotateRequest) Source() string {
	if v, ok := r.Hints["source"]; ok {
		if s, ok := v.Value().(string); ok && s != "" {
			return s
		}
	}
	return "dbus"
}

// Tag extracts the replacement tag hint. Annotations with the same tag
// replace each other instead of stacking markers.
func (r *AnnotateRequest) Tag() string {
	if v, ok := r.Hints["tag"]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// SoundFile extracts the sound-file hint.
func (r *AnnotateRequest) SoundFile() string {
	if v, ok := r.Hints["sound-file"]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// SuppressSound returns true if the suppress-sound hint is set.
func (r *AnnotateRequest) SuppressSound() bool {
	if v, ok := r.Hints["suppress-sound"]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// Transient returns true if the transient hint is set.
// Transient annotations are shown on the overlay but not persisted.
func (r *AnnotateRequest) Transient() bool {
	if v, ok := r.Hints["transient"]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// OpenEditor returns true if the open-editor hint is set.
// When set, the daemon opens the note editor popup at the marker position.
func (r *AnnotateRequest) OpenEditor() bool {
	if v, ok := r.Hints["open-editor"]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// ServerCapabilities lists the capabilities advertised by scrawld.
var ServerCapabilities = []string{
	"note",        // Annotations carry note text
	"priority",    // Priority hint respected
	"color",       // Per-annotation marker color
	"tag",         // Tag-based replacement
	"editor",      // Note editor popup
	"persistence", // Annotations persisted to history
	"sound",       // Capture feedback sounds
}

// ServerInfo contains information about the overlay daemon.
type ServerInfo struct {
	Name         string // "scrawld"
	Vendor       string // "scrawl"
	Version      string // Build version
	ProtoVersion string // "1"
}

// DefaultServerInfo returns the default server information.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		Name:         "scrawld",
		Vendor:       "scrawl",
		Version:      "0.0.1", // Will be replaced by build-time version
		ProtoVersion: "1",
	}
}
