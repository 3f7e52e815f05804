package display

import (
	"log/slog"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/scrawl-tools/scrawl/internal/config"
	"github.com/scrawl-tools/scrawl/internal/model"
)

// markerSize is the diameter of a marker window in pixels.
const markerSize = 22

// Marker is a small pinned window showing where an annotation was captured.
// Clicking it opens the editor popup for the annotation.
type Marker struct {
	window     *gtk.Window
	button     *gtk.Button
	annotation *model.Annotation
	config     *config.DaemonConfig
	logger     *slog.Logger

	onActivate func()

	closed bool
}

// NewMarker creates a marker window for an annotation.
func NewMarker(app *gtk.Application, annotation *model.Annotation, cfg *config.DaemonConfig, logger *slog.Logger) *Marker {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Marker{
		annotation: annotation,
		config:     cfg,
		logger:     logger,
	}

	m.window = gtk.NewWindow()
	m.window.SetApplication(app)
	m.window.SetDecorated(false)
	m.window.SetResizable(false)
	m.window.SetDefaultSize(markerSize, markerSize)

	layershell.InitForWindow(m.window)
	layershell.SetLayer(m.window, layershell.LayerShellLayerOverlay)
	layershell.SetExclusiveZone(m.window, 0) // Don't reserve space
	layershell.SetKeyboardMode(m.window, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(m.window, "scrawl-marker")

	m.buildUI()

	return m
}

// buildUI constructs the marker widget.
func (m *Marker) buildUI() {
	m.button = gtk.NewButton()
	m.button.AddCSSClass("annotation-marker")
	m.button.AddCSSClass(priorityToClass(m.annotation.Priority))
	if m.annotation.ScrawlResolvedAt > 0 {
		m.button.AddCSSClass("marker-resolved")
	}

	label := gtk.NewLabel(priorityGlyph(m.annotation.Priority))
	label.AddCSSClass("marker-label")
	m.button.SetChild(label)

	m.button.SetTooltipText(m.annotation.Label)

	m.button.ConnectClicked(func() {
		if m.onActivate != nil {
			m.onActivate()
		}
	})

	m.window.SetChild(m.button)
}

// Show pins the marker at its annotation's capture position.
// The marker is centered on the point.
func (m *Marker) Show() {
	x := int(m.annotation.X) - markerSize/2
	y := int(m.annotation.Y) - markerSize/2
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}

	layershell.SetAnchor(m.window, layershell.LayerShellEdgeTop, true)
	layershell.SetAnchor(m.window, layershell.LayerShellEdgeLeft, true)
	layershell.SetMargin(m.window, layershell.LayerShellEdgeLeft, x)
	layershell.SetMargin(m.window, layershell.LayerShellEdgeTop, y)

	m.window.Present()
}

// SetResolved toggles the resolved styling on the marker.
func (m *Marker) SetResolved(resolved bool) {
	if resolved {
		m.button.AddCSSClass("marker-resolved")
	} else {
		m.button.RemoveCSSClass("marker-resolved")
	}
}

// OnActivate sets the callback invoked when the marker is clicked.
func (m *Marker) OnActivate(cb func()) {
	m.onActivate = cb
}

// Close removes the marker window.
func (m *Marker) Close() {
	if m.closed {
		return
	}
	m.closed = true
	m.window.Close()
}

// Annotation returns the annotation this marker represents.
func (m *Marker) Annotation() *model.Annotation {
	return m.annotation
}

// priorityToClass converts a priority level to a CSS class name.
func priorityToClass(priority int) string {
	switch priority {
	case model.PriorityLow:
		return "priority-low"
	case model.PriorityHigh:
		return "priority-high"
	default:
		return "priority-normal"
	}
}

// priorityGlyph returns the single-character glyph shown inside a marker.
func priorityGlyph(priority int) string {
	switch priority {
	case model.PriorityLow:
		return "·"
	case model.PriorityHigh:
		return "!"
	default:
		return "•"
	}
}
