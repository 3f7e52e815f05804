package daemon

import (
	"sync"
	"time"
)

// AnnotationStatus represents the display lifecycle of an annotation.
type AnnotationStatus int

const (
	// AnnotationStatusVisible means the annotation's marker is displayed.
	AnnotationStatusVisible AnnotationStatus = iota
	// AnnotationStatusEditing means the annotation's editor is open.
	AnnotationStatusEditing
	// AnnotationStatusResolved means the annotation was marked resolved.
	AnnotationStatusResolved
	// AnnotationStatusRemoved means the annotation was removed from the overlay.
	AnnotationStatusRemoved
)

// String returns the string representation of AnnotationStatus.
func (s AnnotationStatus) String() string {
	switch s {
	case AnnotationStatusVisible:
		return "visible"
	case AnnotationStatusEditing:
		return "editing"
	case AnnotationStatusResolved:
		return "resolved"
	case AnnotationStatusRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// AnnotationState tracks an annotation's display lifecycle in the daemon.
type AnnotationState struct {
	ScrawlID  string           // The scrawl ULID
	Status    AnnotationStatus // Current display status
	Source    string           // Where the annotation came from (dbus, cli, mouse)
	Transient bool             // Transient annotations are never persisted
	CreatedAt time.Time        // When the annotation was captured
	RemovedAt time.Time        // When the annotation left the overlay
}

// AnnotationStateManager tracks the display state of annotations managed
// by the daemon. The D-Bus GetStatus call reads from it.
type AnnotationStateManager struct {
	mu sync.RWMutex

	byID map[string]*AnnotationState
}

// NewAnnotationStateManager creates a new AnnotationStateManager.
func NewAnnotationStateManager() *AnnotationStateManager {
	return &AnnotationStateManager{
		byID: make(map[string]*AnnotationState),
	}
}

// Register adds a new display state for an annotation.
func (m *AnnotationStateManager) Register(scrawlID, source string, transient bool) *AnnotationState {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := &AnnotationState{
		ScrawlID:  scrawlID,
		Status:    AnnotationStatusVisible,
		Source:    source,
		Transient: transient,
		CreatedAt: time.Now(),
	}
	m.byID[scrawlID] = state

	return state
}

// Get returns the display state for a scrawl ID, or nil.
func (m *AnnotationStateManager) Get(scrawlID string) *AnnotationState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byID[scrawlID]
}

// SetStatus updates the status of an annotation.
func (m *AnnotationStateManager) SetStatus(scrawlID string, status AnnotationStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, exists := m.byID[scrawlID]
	if !exists {
		return
	}

	state.Status = status
	if status == AnnotationStatusRemoved {
		state.RemovedAt = time.Now()
	}
}

// Remove removes a display state entry.
func (m *AnnotationStateManager) Remove(scrawlID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, scrawlID)
}

// Visible returns the scrawl IDs of all annotations currently on the overlay.
// Annotations being edited count as visible.
func (m *AnnotationStateManager) Visible() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var visible []string
	for id, state := range m.byID {
		if state.Status == AnnotationStatusVisible || state.Status == AnnotationStatusEditing {
			visible = append(visible, id)
		}
	}
	return visible
}

// Count returns the number of tracked annotations.
func (m *AnnotationStateManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

// VisibleCount returns the number of annotations on the overlay.
func (m *AnnotationStateManager) VisibleCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, state := range m.byID {
		if state.Status == AnnotationStatusVisible || state.Status == AnnotationStatusEditing {
			count++
		}
	}
	return count
}

// EditingCount returns the number of annotations with an open editor.
func (m *AnnotationStateManager) EditingCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, state := range m.byID {
		if state.Status == AnnotationStatusEditing {
			count++
		}
	}
	return count
}
