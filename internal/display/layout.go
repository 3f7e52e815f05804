package display

import (
	"log/slog"
	"unsafe"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/scrawl-tools/scrawl/internal/config"
	"github.com/scrawl-tools/scrawl/internal/geometry"
)

// LayoutManager handles monitor selection and editor popup placement.
type LayoutManager struct {
	config  *config.DaemonConfig
	display *gdk.Display
	logger  *slog.Logger
}

// NewLayoutManager creates a new layout manager.
func NewLayoutManager(cfg *config.DaemonConfig, logger *slog.Logger) *LayoutManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &LayoutManager{
		config:  cfg,
		display: gdk.DisplayGetDefault(),
		logger:  logger,
	}
}

// ViewportFunc returns an accessor for the current monitor dimensions.
// The accessor queries the monitor geometry on every call, so editor
// placement tracks resolution changes and monitor hotplug without a
// restart.
func (l *LayoutManager) ViewportFunc() geometry.ViewportFunc {
	return func() geometry.Viewport {
		monitor := l.GetMonitor()
		if monitor == nil {
			monitor = getPrimaryMonitor(l.display)
		}
		if monitor == nil {
			l.logger.Warn("no monitor available for viewport query")
			return geometry.Viewport{}
		}

		geom := monitor.Geometry()
		return geometry.Viewport{
			Width:  float64(geom.Width()),
			Height: float64(geom.Height()),
		}
	}
}

// EditorPosition computes the on-screen position for an editor popup
// opened at the given click point. Size and margin come from the
// overlay configuration.
func (l *LayoutManager) EditorPosition(click geometry.Point) geometry.Position {
	positioner := geometry.NewPositioner(l.ViewportFunc())
	return positioner.PopupPosition(click,
		geometry.WithSize(geometry.Size{
			Width:  float64(l.config.Overlay.PopupWidth),
			Height: float64(l.config.Overlay.PopupHeight),
		}),
		geometry.WithMargin(float64(l.config.Overlay.Margin)),
	)
}

// GetMonitor returns the monitor to display the overlay on based on config.
// Config values:
// - 0: Primary/first monitor (returns nil, use default)
// - 1+: Specific monitor (1-indexed)
//
// Returns nil if the monitor is not available (fallback to primary).
func (l *LayoutManager) GetMonitor() *gdk.Monitor {
	if l.display == nil {
		return nil
	}

	monitorNum := l.config.Overlay.Monitor
	if monitorNum == 0 {
		return getPrimaryMonitor(l.display)
	}

	monitors := l.display.Monitors()
	if monitors == nil {
		l.logger.Warn("no monitors list available")
		return nil
	}

	// Convert to 0-indexed
	index := uint(monitorNum - 1)

	if index >= monitors.NItems() {
		l.logger.Warn("configured monitor not available, using primary",
			"configured", monitorNum,
			"available", monitors.NItems(),
		)
		return getPrimaryMonitor(l.display)
	}

	obj := monitors.Item(index)
	if obj == nil {
		return nil
	}

	// Cast coreglib.Object to gdk.Monitor
	// The gotk4 bindings use pointer embedding, so we can wrap it
	return wrapMonitor(obj)
}

// getPrimaryMonitor returns the primary monitor or first available.
func getPrimaryMonitor(display *gdk.Display) *gdk.Monitor {
	if display == nil {
		return nil
	}
	monitors := display.Monitors()
	if monitors == nil || monitors.NItems() == 0 {
		return nil
	}

	// GTK4 doesn't have a "primary" concept in the same way
	// Return the first monitor as fallback
	obj := monitors.Item(0)
	if obj == nil {
		return nil
	}

	return wrapMonitor(obj)
}

// wrapMonitor wraps a coreglib.Object as a gdk.Monitor.
// This is necessary because gotk4 doesn't expose the wrapMonitor function.
func wrapMonitor(obj *glib.Object) *gdk.Monitor {
	if obj == nil {
		return nil
	}
	// The gdk.Monitor struct embeds a *coreglib.Object, so we can create
	// one by casting the native pointer. This is how gotk4 does it internally.
	// We use unsafe to access the internal structure.
	type monitor struct {
		_ [0]func()
		*glib.Object
	}
	m := &monitor{Object: obj}
	return (*gdk.Monitor)(unsafe.Pointer(m))
}

// SetMonitor configures a window to appear on the specified monitor.
func (l *LayoutManager) SetMonitor(window *gtk.Window, monitor *gdk.Monitor) {
	if monitor == nil {
		return
	}
	layershell.SetMonitor(window, monitor)
}

// HandleMonitorChange should be called when monitors change.
// It updates the display reference and logs the change.
func (l *LayoutManager) HandleMonitorChange() {
	l.display = gdk.DisplayGetDefault()
	if l.display == nil {
		l.logger.Warn("no display available after monitor change")
		return
	}

	monitors := l.display.Monitors()
	if monitors != nil {
		l.logger.Info("monitor configuration changed", "count", monitors.NItems())
	}
}
