package display

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/scrawl-tools/scrawl/internal/config"
	"github.com/scrawl-tools/scrawl/internal/dbus"
	"github.com/scrawl-tools/scrawl/internal/geometry"
	"github.com/scrawl-tools/scrawl/internal/model"
)

// MarkerState tracks an annotation's marker window and its open editor,
// if any. Only visible annotations hold GTK objects.
type MarkerState struct {
	ScrawlID  string
	Marker    *Marker
	Editor    *Editor // nil when no editor is open
	CreatedAt time.Time
}

// SaveCallback is called when an editor saves its label and note.
type SaveCallback func(scrawlID, label, note string)

// ResolveCallback is called when an annotation is resolved from its editor.
type ResolveCallback func(scrawlID string)

// CloseCallback is called when an editor or marker is closed.
type CloseCallback func(scrawlID string, reason dbus.RemoveReason)

// Manager manages annotation marker windows and their editor popups.
// Markers are cheap pinned windows; editors are created lazily when a
// marker is activated and torn down on close.
type Manager struct {
	app     *gtk.Application
	config  *config.DaemonConfig
	logger  *slog.Logger
	display *gdk.Display

	layoutMgr  *LayoutManager
	positioner *geometry.Positioner

	mu      sync.RWMutex
	markers map[string]*MarkerState // Keyed by scrawl ULID

	// Callbacks
	onSave    SaveCallback
	onResolve ResolveCallback
	onClose   CloseCallback
}

// NewManager creates a new display manager.
func NewManager(app *gtk.Application, cfg *config.DaemonConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultDaemonConfig()
	}

	return &Manager{
		app:     app,
		config:  cfg,
		logger:  logger,
		markers: make(map[string]*MarkerState),
	}
}

// Start initializes the display manager.
func (m *Manager) Start() error {
	m.display = gdk.DisplayGetDefault()
	if m.display == nil {
		return &DisplayError{Message: "no display available"}
	}

	m.layoutMgr = NewLayoutManager(m.config, m.logger)

	// The positioner reads the viewport through the layout manager on
	// every placement, so editors track monitor changes live.
	m.positioner = geometry.NewPositioner(m.layoutMgr.ViewportFunc())

	m.logger.Info("display manager started")
	return nil
}

// Stop shuts down the display manager and closes all windows.
func (m *Manager) Stop() {
	m.CloseAll()
	m.logger.Info("display manager stopped")
}

// SetSaveCallback sets the callback for editor save events.
func (m *Manager) SetSaveCallback(cb SaveCallback) {
	m.onSave = cb
}

// SetResolveCallback sets the callback for resolve events.
func (m *Manager) SetResolveCallback(cb ResolveCallback) {
	m.onResolve = cb
}

// SetCloseCallback sets the callback for editor close events.
func (m *Manager) SetCloseCallback(cb CloseCallback) {
	m.onClose = cb
}

// ShowMarker displays a marker for an annotation. If a marker for the
// same annotation already exists it is replaced in place.
func (m *Manager) ShowMarker(annotation *model.Annotation) error {
	if annotation == nil || annotation.ScrawlID == "" {
		return &DisplayError{Message: "annotation missing scrawl ID"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Replace an existing marker for the same annotation
	if state, exists := m.markers[annotation.ScrawlID]; exists {
		if state.Editor != nil {
			state.Editor.Close()
		}
		state.Marker.Close()
		delete(m.markers, annotation.ScrawlID)
	}

	marker := NewMarker(m.app, annotation, m.config, m.logger)

	state := &MarkerState{
		ScrawlID:  annotation.ScrawlID,
		Marker:    marker,
		CreatedAt: time.Now(),
	}
	m.markers[annotation.ScrawlID] = state

	scrawlID := annotation.ScrawlID
	marker.OnActivate(func() {
		if err := m.OpenEditor(scrawlID); err != nil {
			m.logger.Warn("failed to open editor", "scrawl_id", scrawlID, "error", err)
		}
	})

	if monitor := m.layoutMgr.GetMonitor(); monitor != nil {
		m.layoutMgr.SetMonitor(marker.window, monitor)
	}

	marker.Show()

	m.logger.Debug("showed marker",
		"scrawl_id", annotation.ScrawlID,
		"x", annotation.X,
		"y", annotation.Y,
		"active_markers", len(m.markers),
	)

	return nil
}

// OpenEditor opens the editor popup for an annotation's marker.
// The editor is placed next to the capture point by the positioner so
// the full popup stays within the monitor.
func (m *Manager) OpenEditor(scrawlID string) error {
	m.mu.Lock()
	state, exists := m.markers[scrawlID]
	if !exists {
		m.mu.Unlock()
		return &DisplayError{Message: "no marker for annotation " + scrawlID}
	}
	if state.Editor != nil {
		// Already open, just raise it
		editor := state.Editor
		m.mu.Unlock()
		editor.ShowAt(editor.Position())
		return nil
	}

	annotation := state.Marker.Annotation()

	editor, err := NewEditor(m.app, annotation, m.config, m.logger)
	if err != nil {
		m.mu.Unlock()
		return err
	}

	editor.OnSave(func(label, note string) {
		if m.onSave != nil {
			m.onSave(scrawlID, label, note)
		}
	})

	editor.OnResolve(func() {
		m.mu.Lock()
		if s, ok := m.markers[scrawlID]; ok {
			s.Marker.SetResolved(true)
		}
		m.mu.Unlock()

		if m.onResolve != nil {
			m.onResolve(scrawlID)
		}
	})

	editor.OnClose(func(reason dbus.RemoveReason) {
		m.handleEditorClosed(scrawlID, reason)
	})

	state.Editor = editor
	m.mu.Unlock()

	if monitor := m.layoutMgr.GetMonitor(); monitor != nil {
		m.layoutMgr.SetMonitor(editor.window, monitor)
	}

	pos := m.positioner.PopupPosition(
		geometry.Point{X: annotation.X, Y: annotation.Y},
		geometry.WithSize(geometry.Size{
			Width:  float64(m.config.Overlay.PopupWidth),
			Height: float64(m.config.Overlay.PopupHeight),
		}),
		geometry.WithMargin(float64(m.config.Overlay.Margin)),
	)
	editor.ShowAt(pos)

	m.logger.Debug("opened editor",
		"scrawl_id", scrawlID,
		"left", pos.Left,
		"top", pos.Top,
	)

	return nil
}

// handleEditorClosed clears the editor reference after it closes.
func (m *Manager) handleEditorClosed(scrawlID string, reason dbus.RemoveReason) {
	m.mu.Lock()
	state, exists := m.markers[scrawlID]
	if exists {
		state.Editor = nil
	}
	m.mu.Unlock()

	if exists && m.onClose != nil {
		m.onClose(scrawlID, reason)
	}
}

// CloseEditor closes an annotation's editor if one is open.
func (m *Manager) CloseEditor(scrawlID string) bool {
	m.mu.Lock()
	state, exists := m.markers[scrawlID]
	if !exists || state.Editor == nil {
		m.mu.Unlock()
		return false
	}
	editor := state.Editor
	state.Editor = nil
	m.mu.Unlock()

	editor.Close()
	return true
}

// SetResolved toggles resolved styling on an annotation's marker.
func (m *Manager) SetResolved(scrawlID string, resolved bool) bool {
	m.mu.RLock()
	state, exists := m.markers[scrawlID]
	m.mu.RUnlock()

	if !exists {
		return false
	}
	state.Marker.SetResolved(resolved)
	return true
}

// RemoveMarker removes an annotation's marker and any open editor.
func (m *Manager) RemoveMarker(scrawlID string, reason dbus.RemoveReason) bool {
	m.mu.Lock()
	state, exists := m.markers[scrawlID]
	if exists {
		delete(m.markers, scrawlID)
	}
	m.mu.Unlock()

	if !exists {
		return false
	}

	if state.Editor != nil {
		state.Editor.Close()
		state.Editor = nil
	}
	state.Marker.Close()
	state.Marker = nil // Help GC

	if m.onClose != nil {
		m.onClose(scrawlID, reason)
	}

	m.logger.Debug("removed marker", "scrawl_id", scrawlID, "reason", reason)
	return true
}

// CloseAll closes all markers and editors.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	states := make([]*MarkerState, 0, len(m.markers))
	for _, state := range m.markers {
		states = append(states, state)
	}
	m.markers = make(map[string]*MarkerState)
	m.mu.Unlock()

	for _, state := range states {
		if state.Editor != nil {
			state.Editor.Close()
			state.Editor = nil
		}
		state.Marker.Close()
		state.Marker = nil // Help GC
	}
}

// ActiveIDs returns the scrawl IDs of all displayed markers.
func (m *Manager) ActiveIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.markers))
	for id := range m.markers {
		ids = append(ids, id)
	}
	return ids
}

// MarkerCount returns the number of displayed markers.
func (m *Manager) MarkerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.markers)
}

// OpenEditorCount returns the number of open editors.
func (m *Manager) OpenEditorCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, state := range m.markers {
		if state.Editor != nil {
			count++
		}
	}
	return count
}

// Reposition recomputes editor positions after a monitor change.
// Markers are pinned to absolute coordinates and do not move.
func (m *Manager) Reposition() {
	m.layoutMgr.HandleMonitorChange()

	m.mu.RLock()
	editors := make(map[string]*Editor)
	for id, state := range m.markers {
		if state.Editor != nil {
			editors[id] = state.Editor
		}
	}
	m.mu.RUnlock()

	for id, editor := range editors {
		annotation := editor.Annotation()
		pos := m.positioner.PopupPosition(
			geometry.Point{X: annotation.X, Y: annotation.Y},
			geometry.WithSize(geometry.Size{
				Width:  float64(m.config.Overlay.PopupWidth),
				Height: float64(m.config.Overlay.PopupHeight),
			}),
			geometry.WithMargin(float64(m.config.Overlay.Margin)),
		)
		editor.MoveTo(pos)

		m.logger.Debug("repositioned editor", "scrawl_id", id, "left", pos.Left, "top", pos.Top)
	}
}

// UpdateConfig updates the configuration. Existing windows keep their
// current layout; new markers and editors pick up the new settings.
func (m *Manager) UpdateConfig(cfg *config.DaemonConfig) {
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()

	if m.layoutMgr != nil {
		m.layoutMgr.config = cfg
	}
}

// DisplayError represents a display-related error.
type DisplayError struct {
	Message string
	Cause   error
}

func (e *DisplayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DisplayError) Unwrap() error {
	return e.Cause
}
