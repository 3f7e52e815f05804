package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DataDir returns the path to the scrawl data directory.
// Uses XDG_DATA_HOME or defaults to ~/.local/share/scrawl.
func DataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "scrawl"), nil
}

// HistoryPath returns the path to the annotation history file.
func HistoryPath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "annotations.jsonl"), nil
}

// PauseTrigger represents what triggered the capture-pause state change.
type PauseTrigger string

const (
	// PauseTriggerUser indicates a user-initiated pause change (CLI, TUI, etc.)
	PauseTriggerUser PauseTrigger = "user"
	// PauseTriggerEditor indicates the pause was toggled while an editor was open
	PauseTriggerEditor PauseTrigger = "editor"
	// PauseTriggerSystem indicates a system event triggered the change
	PauseTriggerSystem PauseTrigger = "system"
)

// PauseTransition records details about a capture-pause state change.
type PauseTransition struct {
	Trigger   PauseTrigger `json:"trigger"`          // What type of event triggered the change
	Reason    string       `json:"reason"`           // Human-readable reason (e.g., "pause on")
	Source    string       `json:"source,omitempty"` // Source identifier (e.g., "cli", "scrawld")
	Timestamp int64        `json:"timestamp"`        // When the transition occurred
}

// SharedState contains state that is shared between scrawl and scrawld.
// This is persisted to ~/.local/share/scrawl/state.json
type SharedState struct {
	// Capture pause
	CapturePaused   bool   `json:"capture_paused"`
	CapturePausedAt int64  `json:"capture_paused_at,omitempty"` // Unix timestamp
	CapturePausedBy string `json:"capture_paused_by,omitempty"`

	// Transition tracking
	PauseLastTransition *PauseTransition `json:"pause_last_transition,omitempty"`

	// Statistics (optional, for status bars)
	LastAnnotationAt int64 `json:"last_annotation_at,omitempty"`

	// Version for compatibility
	SchemaVersion int `json:"schema_version"` // Currently 1
}

const (
	// CurrentSchemaVersion is the current version of the state schema.
	CurrentSchemaVersion = 1
)

// stateFileMutex protects concurrent access to the state file.
var stateFileMutex sync.RWMutex

// DefaultSharedState returns a new SharedState with default values.
func DefaultSharedState() *SharedState {
	return &SharedState{
		CapturePaused: false,
		SchemaVersion: CurrentSchemaVersion,
	}
}

// StateFilePath returns the path to the state file.
func StateFilePath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "state.json"), nil
}

// LoadSharedState loads the shared state from disk.
// If the file doesn't exist, returns a default state.
func LoadSharedState() (*SharedState, error) {
	stateFileMutex.RLock()
	defer stateFileMutex.RUnlock()

	path, err := StateFilePath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSharedState(), nil
		}
		return nil, err
	}

	var state SharedState
	if err := json.Unmarshal(data, &state); err != nil {
		// If the file is corrupted, return default state
		return DefaultSharedState(), nil
	}

	// Ensure schema version is set
	if state.SchemaVersion == 0 {
		state.SchemaVersion = CurrentSchemaVersion
	}

	return &state, nil
}

// SaveSharedState saves the shared state to disk.
func SaveSharedState(state *SharedState) error {
	stateFileMutex.Lock()
	defer stateFileMutex.Unlock()

	path, err := StateFilePath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	// Ensure schema version is set
	if state.SchemaVersion == 0 {
		state.SchemaVersion = CurrentSchemaVersion
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}

// SetPaused updates the capture-pause state with transition tracking.
// Parameters:
//   - paused: whether capture should be paused
//   - trigger: what type of event triggered this change (user, editor, system)
//   - reason: human-readable reason (e.g., "pause on")
//   - source: source identifier (e.g., "cli", "tui", "scrawld")
func (s *SharedState) SetPaused(paused bool, trigger PauseTrigger, reason, source string) {
	s.CapturePaused = paused
	now := time.Now().Unix()

	if paused {
		s.CapturePausedAt = now
		s.CapturePausedBy = source
	} else {
		s.CapturePausedAt = 0
		s.CapturePausedBy = ""
	}

	s.PauseLastTransition = &PauseTransition{
		Trigger:   trigger,
		Reason:    reason,
		Source:    source,
		Timestamp: now,
	}
}

// TogglePaused toggles the capture-pause state with transition tracking.
// Returns the new pause state (true = paused).
func (s *SharedState) TogglePaused(trigger PauseTrigger, reason, source string) bool {
	s.SetPaused(!s.CapturePaused, trigger, reason, source)
	return s.CapturePaused
}

// UpdateLastAnnotation updates the last annotation timestamp.
func (s *SharedState) UpdateLastAnnotation() {
	s.LastAnnotationAt = time.Now().Unix()
}
