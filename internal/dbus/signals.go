package dbus

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// EmitAnnotationAdded emits the AnnotationAdded signal.
// This signal is emitted when a new annotation marker appears on the overlay,
// whether created by mouse capture or over D-Bus.
func (s *OverlayServer) EmitAnnotationAdded(id, label string, x, y float64) error {
	if s.conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	err := s.conn.Emit(DBusPath, DBusInterface+".AnnotationAdded", id, label, x, y)
	if err != nil {
		return fmt.Errorf("failed to emit AnnotationAdded signal: %w", err)
	}

	s.logger.Debug("emitted AnnotationAdded signal", "id", id, "label", label)
	return nil
}

// EmitAnnotationRemoved emits the AnnotationRemoved signal.
// This signal is emitted when a marker leaves the overlay, either by being
// resolved, archived, removed, or replaced.
func (s *OverlayServer) EmitAnnotationRemoved(id string, reason RemoveReason) error {
	if s.conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	err := s.conn.Emit(DBusPath, DBusInterface+".AnnotationRemoved", id, uint32(reason))
	if err != nil {
		return fmt.Errorf("failed to emit AnnotationRemoved signal: %w", err)
	}

	s.logger.Debug("emitted AnnotationRemoved signal", "id", id, "reason", reason.String())
	return nil
}

// EmitCapturePausedChanged emits the CapturePausedChanged signal.
func (s *OverlayServer) EmitCapturePausedChanged(paused bool) error {
	if s.conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	err := s.conn.Emit(DBusPath, DBusInterface+".CapturePausedChanged", paused)
	if err != nil {
		return fmt.Errorf("failed to emit CapturePausedChanged signal: %w", err)
	}

	s.logger.Debug("emitted CapturePausedChanged signal", "paused", paused)
	return nil
}

// RemoveWithReason removes a marker from tracking and emits the signal.
// This is a convenience method that combines MarkRemoved and EmitAnnotationRemoved.
func (s *OverlayServer) RemoveWithReason(id string, reason RemoveReason) error {
	s.MarkRemoved(id)
	return s.EmitAnnotationRemoved(id, reason)
}

// Connection returns the underlying D-Bus connection.
// This can be used for advanced operations like calling methods on other services.
func (s *OverlayServer) Connection() *dbus.Conn {
	return s.conn
}
