package display

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/scrawl-tools/scrawl/internal/config"
	"github.com/scrawl-tools/scrawl/internal/dbus"
	"github.com/scrawl-tools/scrawl/internal/geometry"
	"github.com/scrawl-tools/scrawl/internal/layout"
	"github.com/scrawl-tools/scrawl/internal/model"
)

// Editor is the note editor popup for a single annotation.
// It appears next to the annotation's marker, placed by the geometry
// package so the full popup stays on screen.
type Editor struct {
	window     *gtk.Window
	annotation *model.Annotation
	config     *config.DaemonConfig
	layout     *layout.LayoutConfig
	logger     *slog.Logger

	// Widgets
	box          *gtk.Box
	labelEntry   *gtk.Entry
	noteView     *gtk.TextView
	sourceLbl    *gtk.Label
	timestampLbl *gtk.Label
	positionLbl  *gtk.Label
	priorityLbl  *gtk.Label
	actionBox    *gtk.Box
	saveBtn      *gtk.Button
	resolveBtn   *gtk.Button
	closeBtn     *gtk.Button

	// Callbacks
	onSave    func(label, note string)
	onResolve func()
	onClose   func(reason dbus.RemoveReason)

	// State
	position geometry.Position
	closed   bool
}

// NewEditor creates an editor popup for an annotation.
func NewEditor(app *gtk.Application, annotation *model.Annotation, cfg *config.DaemonConfig, logger *slog.Logger) (*Editor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// Load layout template
	templateName := cfg.Layout.Template
	if templateName == "" {
		templateName = "default"
	}

	var layoutConfig *layout.LayoutConfig
	if tmpl, found := layout.GetEmbeddedTemplate(templateName); found {
		layoutConfig = tmpl
	} else {
		layoutConfig = layout.DefaultLayout()
		logger.Warn("layout template not found, using default", "template", templateName)
	}

	e := &Editor{
		annotation: annotation,
		config:     cfg,
		layout:     layoutConfig,
		logger:     logger,
	}

	// Create the window
	e.window = gtk.NewWindow()
	e.window.SetApplication(app)
	e.window.SetDecorated(false)
	e.window.SetResizable(false)

	// Use layout sizing if specified, otherwise fall back to config
	minWidth := layoutConfig.MinWidth
	if minWidth == 0 {
		minWidth = cfg.Overlay.PopupWidth
	}
	maxWidth := layoutConfig.MaxWidth
	if maxWidth == 0 {
		maxWidth = cfg.Overlay.PopupWidth
	}

	e.window.SetDefaultSize(maxWidth, -1)
	e.window.SetSizeRequest(minWidth, layoutConfig.MinHeight)

	// Initialize layer-shell. Keyboard is on-demand so the note text
	// view can take input while the rest of the overlay stays passive.
	layershell.InitForWindow(e.window)
	layershell.SetLayer(e.window, layershell.LayerShellLayerOverlay)
	layershell.SetExclusiveZone(e.window, 0)
	layershell.SetKeyboardMode(e.window, layershell.LayerShellKeyboardModeOnDemand)
	layershell.SetNamespace(e.window, "scrawl-editor")

	// Build the UI from layout template
	e.buildUI()

	// Apply CSS classes for theming
	e.applyThemeClasses()

	// Connect signals
	e.connectSignals()

	return e, nil
}

// applyThemeClasses adds CSS classes for theming.
func (e *Editor) applyThemeClasses() {
	// Color scheme class (light/dark)
	e.box.AddCSSClass(e.getColorSchemeClass())

	// Priority class
	e.box.AddCSSClass(priorityToClass(e.annotation.Priority))

	// Per-source class (sanitized source name)
	if e.annotation.ScrawlSource != "" {
		e.box.AddCSSClass("source-" + sanitizeClassName(e.annotation.ScrawlSource))
	}

	// State classes
	if e.annotation.Note != "" {
		e.box.AddCSSClass("has-note")
	}
	if e.annotation.ScrawlResolvedAt > 0 {
		e.box.AddCSSClass("is-resolved")
	}
}

// sanitizeClassName converts a string to a valid CSS class name.
// Replaces spaces and special characters with hyphens, lowercases.
func sanitizeClassName(name string) string {
	var result strings.Builder
	prevHyphen := false

	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z':
			result.WriteRune(r)
			prevHyphen = false
		case r >= '0' && r <= '9':
			result.WriteRune(r)
			prevHyphen = false
		case r == '-' || r == '_':
			if !prevHyphen && result.Len() > 0 {
				result.WriteRune('-')
				prevHyphen = true
			}
		case r == ' ' || r == '.' || r == '/':
			if !prevHyphen && result.Len() > 0 {
				result.WriteRune('-')
				prevHyphen = true
			}
		}
	}

	// Trim trailing hyphen
	s := result.String()
	if len(s) > 0 && s[len(s)-1] == '-' {
		s = s[:len(s)-1]
	}
	return s
}

// buildUI constructs the editor widget hierarchy from the layout template.
func (e *Editor) buildUI() {
	// Main container
	e.box = gtk.NewBox(gtk.OrientationVertical, 6)
	e.box.AddCSSClass("annotation-editor")
	e.box.SetMarginTop(8)
	e.box.SetMarginBottom(8)
	e.box.SetMarginStart(12)
	e.box.SetMarginEnd(12)

	// Build from layout template
	for _, elem := range e.layout.Elements {
		if widget := e.buildElement(elem); widget != nil {
			e.box.Append(widget)
		}
	}

	e.window.SetChild(e.box)
}

// buildElement builds a GTK widget from a layout element.
func (e *Editor) buildElement(elem layout.LayoutElement) gtk.Widgetter {
	switch elem.Type {
	case layout.ElementTypeHeader:
		return e.buildHeader(elem)
	case layout.ElementTypeLabel:
		return e.buildLabel()
	case layout.ElementTypeNote:
		return e.buildNote()
	case layout.ElementTypeSource:
		return e.buildSource()
	case layout.ElementTypeTimestamp:
		return e.buildTimestamp()
	case layout.ElementTypePosition:
		return e.buildPosition()
	case layout.ElementTypePriority:
		return e.buildPriority()
	case layout.ElementTypeActions:
		return e.buildActions()
	case layout.ElementTypeClose:
		return e.buildClose()
	case layout.ElementTypeBox:
		return e.buildBox(elem)
	default:
		return nil
	}
}

// buildHeader creates the header row with child elements.
func (e *Editor) buildHeader(elem layout.LayoutElement) gtk.Widgetter {
	headerBox := gtk.NewBox(gtk.OrientationHorizontal, 8)
	headerBox.AddCSSClass("editor-header")

	for _, child := range elem.Children {
		if widget := e.buildElement(child); widget != nil {
			headerBox.Append(widget)
		}
	}

	return headerBox
}

// buildBox creates a container box with child elements.
func (e *Editor) buildBox(elem layout.LayoutElement) gtk.Widgetter {
	orientation := gtk.OrientationVertical
	if elem.Attributes["orientation"] == "horizontal" {
		orientation = gtk.OrientationHorizontal
	}

	box := gtk.NewBox(orientation, 4)
	if orientation == gtk.OrientationVertical {
		box.SetHExpand(true)
	}

	for _, child := range elem.Children {
		if widget := e.buildElement(child); widget != nil {
			box.Append(widget)
		}
	}

	return box
}

// buildLabel creates the editable label entry.
func (e *Editor) buildLabel() gtk.Widgetter {
	e.labelEntry = gtk.NewEntry()
	e.labelEntry.AddCSSClass("editor-label")
	e.labelEntry.SetText(e.annotation.Label)
	e.labelEntry.SetHExpand(true)
	return e.labelEntry
}

// buildNote creates the multi-line note text view inside a scroller.
func (e *Editor) buildNote() gtk.Widgetter {
	e.noteView = gtk.NewTextView()
	e.noteView.AddCSSClass("editor-note")
	e.noteView.SetWrapMode(gtk.WrapWordChar)
	e.noteView.Buffer().SetText(e.annotation.Note)

	scroller := gtk.NewScrolledWindow()
	scroller.SetChild(e.noteView)
	scroller.SetVExpand(true)
	scroller.SetMinContentHeight(80)
	return scroller
}

// buildSource creates the source label.
func (e *Editor) buildSource() gtk.Widgetter {
	e.sourceLbl = gtk.NewLabel(e.annotation.ScrawlSource)
	e.sourceLbl.AddCSSClass("editor-source")
	e.sourceLbl.SetXAlign(0)
	return e.sourceLbl
}

// buildTimestamp creates the relative timestamp label.
func (e *Editor) buildTimestamp() gtk.Widgetter {
	e.timestampLbl = gtk.NewLabel(e.annotation.RelativeTime())
	e.timestampLbl.AddCSSClass("editor-timestamp")
	e.timestampLbl.SetXAlign(1)
	return e.timestampLbl
}

// buildPosition creates the capture position label.
func (e *Editor) buildPosition() gtk.Widgetter {
	text := fmt.Sprintf("%.0f, %.0f", e.annotation.X, e.annotation.Y)
	e.positionLbl = gtk.NewLabel(text)
	e.positionLbl.AddCSSClass("editor-position")
	e.positionLbl.SetXAlign(0)
	return e.positionLbl
}

// buildPriority creates the priority indicator.
func (e *Editor) buildPriority() gtk.Widgetter {
	e.priorityLbl = gtk.NewLabel(priorityGlyph(e.annotation.Priority))
	e.priorityLbl.AddCSSClass("editor-priority")
	e.priorityLbl.AddCSSClass(priorityToClass(e.annotation.Priority))
	e.priorityLbl.SetTooltipText(e.annotation.PriorityName)
	return e.priorityLbl
}

// buildActions creates the save and resolve buttons.
func (e *Editor) buildActions() gtk.Widgetter {
	e.actionBox = gtk.NewBox(gtk.OrientationHorizontal, 6)
	e.actionBox.AddCSSClass("editor-actions")

	e.saveBtn = gtk.NewButtonWithLabel("Save")
	e.saveBtn.AddCSSClass("save-button")
	e.saveBtn.ConnectClicked(func() {
		if e.onSave != nil {
			e.onSave(e.labelText(), e.noteText())
		}
		e.Close()
		if e.onClose != nil {
			e.onClose(dbus.RemoveReasonRemoved)
		}
	})
	e.actionBox.Append(e.saveBtn)

	e.resolveBtn = gtk.NewButtonWithLabel("Resolve")
	e.resolveBtn.AddCSSClass("resolve-button")
	e.resolveBtn.ConnectClicked(func() {
		if e.onSave != nil {
			e.onSave(e.labelText(), e.noteText())
		}
		if e.onResolve != nil {
			e.onResolve()
		}
		e.Close()
		if e.onClose != nil {
			e.onClose(dbus.RemoveReasonResolved)
		}
	})
	e.actionBox.Append(e.resolveBtn)

	return e.actionBox
}

// buildClose creates the close button.
func (e *Editor) buildClose() gtk.Widgetter {
	e.closeBtn = gtk.NewButtonFromIconName("window-close-symbolic")
	e.closeBtn.AddCSSClass("editor-close")
	return e.closeBtn
}

// labelText returns the current label entry text, falling back to the
// configured default label when empty.
func (e *Editor) labelText() string {
	text := strings.TrimSpace(e.labelEntry.Text())
	if text == "" {
		text = e.config.Behavior.DefaultLabel
	}
	return text
}

// noteText returns the current note buffer contents.
func (e *Editor) noteText() string {
	if e.noteView == nil {
		return ""
	}
	buf := e.noteView.Buffer()
	return buf.Text(buf.StartIter(), buf.EndIter(), true)
}

// connectSignals sets up event handlers.
func (e *Editor) connectSignals() {
	// Close button click (if present in layout)
	if e.closeBtn != nil {
		e.closeBtn.ConnectClicked(func() {
			e.Close()
			if e.onClose != nil {
				e.onClose(dbus.RemoveReasonRemoved)
			}
		})
	}

	// Escape dismisses the editor without saving
	keyCtrl := gtk.NewEventControllerKey()
	keyCtrl.ConnectKeyPressed(func(keyval, keycode uint, state gdk.ModifierType) bool {
		if keyval == keyvalEscape {
			e.Close()
			if e.onClose != nil {
				e.onClose(dbus.RemoveReasonRemoved)
			}
			return true
		}
		return false
	})
	e.window.AddController(keyCtrl)

	// Right click dismisses when configured
	clickCtrl := gtk.NewGestureClick()
	clickCtrl.SetButton(0) // All buttons
	clickCtrl.ConnectReleased(func(nPress int, x, y float64) {
		e.handleClick(clickCtrl.CurrentButton())
	})
	e.window.AddController(clickCtrl)
}

// keyvalEscape is GDK_KEY_Escape.
const keyvalEscape = 0xff1b

// handleClick processes mouse button clicks on the editor window.
func (e *Editor) handleClick(button uint) {
	var action string
	switch button {
	case 1: // Left
		action = e.config.Mouse.Left
	case 2: // Middle
		action = e.config.Mouse.Middle
	case 3: // Right
		action = e.config.Mouse.Right
	default:
		return
	}

	if config.MouseAction(action) == config.MouseActionDismissEditor {
		e.Close()
		if e.onClose != nil {
			e.onClose(dbus.RemoveReasonRemoved)
		}
	}
}

// ShowAt displays the editor at the given computed position.
// The position is anchored from the top-left corner of the monitor.
func (e *Editor) ShowAt(pos geometry.Position) {
	e.position = pos

	layershell.SetAnchor(e.window, layershell.LayerShellEdgeTop, true)
	layershell.SetAnchor(e.window, layershell.LayerShellEdgeLeft, true)
	layershell.SetMargin(e.window, layershell.LayerShellEdgeLeft, int(pos.Left))
	layershell.SetMargin(e.window, layershell.LayerShellEdgeTop, int(pos.Top))

	e.window.Present()
	if e.noteView != nil {
		e.noteView.GrabFocus()
	}
}

// MoveTo repositions an open editor.
func (e *Editor) MoveTo(pos geometry.Position) {
	if e.position == pos {
		return
	}
	e.position = pos
	layershell.SetMargin(e.window, layershell.LayerShellEdgeLeft, int(pos.Left))
	layershell.SetMargin(e.window, layershell.LayerShellEdgeTop, int(pos.Top))
}

// Position returns the editor's current on-screen position.
func (e *Editor) Position() geometry.Position {
	return e.position
}

// Close closes the editor window.
func (e *Editor) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.window.Close()
}

// OnSave sets the callback for when the editor contents are saved.
func (e *Editor) OnSave(cb func(label, note string)) {
	e.onSave = cb
}

// OnResolve sets the callback for when the annotation is resolved.
func (e *Editor) OnResolve(cb func()) {
	e.onResolve = cb
}

// OnClose sets the callback for when the editor is closed.
func (e *Editor) OnClose(cb func(reason dbus.RemoveReason)) {
	e.onClose = cb
}

// Annotation returns the annotation being edited.
func (e *Editor) Annotation() *model.Annotation {
	return e.annotation
}

// getColorSchemeClass returns "light" or "dark" based on config or system preference.
func (e *Editor) getColorSchemeClass() string {
	scheme := config.ColorScheme(e.config.Theme.ColorScheme)

	switch scheme {
	case config.ColorSchemeLight:
		return "light"
	case config.ColorSchemeDark:
		return "dark"
	default:
		// System detection using libadwaita StyleManager
		return detectSystemColorScheme()
	}
}

// detectSystemColorScheme checks libadwaita for system dark mode preference.
func detectSystemColorScheme() string {
	styleManager := adw.StyleManagerGetDefault()
	if styleManager.Dark() {
		return "dark"
	}
	return "light"
}
