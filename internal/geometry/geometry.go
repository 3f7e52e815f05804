// Package geometry computes on-screen placement for annotation editor popups.
package geometry

import "math"

// Default popup dimensions and clearances, in pixels.
const (
	DefaultPopupWidth  = 340.0
	DefaultPopupHeight = 320.0
	DefaultMargin      = 12.0

	// clickOffset is how far right of the click the popup initially appears.
	clickOffset = 8.0
)

// Point is a click location on the display surface.
type Point struct {
	X float64
	Y float64
}

// Size is the popup's width and height.
type Size struct {
	Width  float64
	Height float64
}

// Viewport is the visible display area at the time of a call.
type Viewport struct {
	Width  float64
	Height float64
}

// Position is the computed top-left corner for the popup.
type Position struct {
	Left float64
	Top  float64
}

// ViewportFunc reports the current viewport dimensions. It is invoked on
// every positioning call so results track live display size changes.
type ViewportFunc func() Viewport

// Option overrides a positioning default.
type Option func(*options)

type options struct {
	size   Size
	margin float64
}

// WithSize overrides the default popup size.
func WithSize(s Size) Option {
	return func(o *options) {
		o.size = s
	}
}

// WithMargin overrides the minimum clearance from the viewport edges.
func WithMargin(m float64) Option {
	return func(o *options) {
		o.margin = m
	}
}

func defaultOptions() options {
	return options{
		size:   Size{Width: DefaultPopupWidth, Height: DefaultPopupHeight},
		margin: DefaultMargin,
	}
}

// Positioner places popups relative to click points, clamped to the viewport
// reported by its accessor. The zero-argument accessor is queried fresh on
// each call, never cached.
type Positioner struct {
	viewport ViewportFunc
}

// NewPositioner creates a Positioner using the given viewport accessor.
func NewPositioner(vp ViewportFunc) *Positioner {
	return &Positioner{viewport: vp}
}

// PopupPosition computes the clamped popup position for a click. The popup
// defaults to 340x320 with a 12px margin; use WithSize and WithMargin to
// override.
func (p *Positioner) PopupPosition(click Point, opts ...Option) Position {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return PopupPosition(click, p.viewport(), o.size, o.margin)
}

// PopupPosition is the pure form: given a click, the current viewport, the
// popup size, and the edge margin, it returns a position that keeps the full
// popup rectangle on screen whenever the viewport is large enough
// (size + 2*margin in each dimension). Smaller viewports degrade to a
// best-effort clamp into [0, viewport-size], never below 0.
//
// Placement starts above-right of the click. If the popup would cross the
// right margin it flips to the left of the click point before clamping.
func PopupPosition(click Point, vp Viewport, size Size, margin float64) Position {
	left := click.X + clickOffset
	top := click.Y - size.Height

	if left+size.Width > vp.Width-margin {
		left = click.X - size.Width - clickOffset
	}

	return Position{
		Left: clampAxis(left, size.Width, vp.Width, margin),
		Top:  clampAxis(top, size.Height, vp.Height, margin),
	}
}

// clampAxis constrains v so that [v, v+extent] fits within a span of the
// given length, keeping margin clearance on both sides when possible. When
// the margins cannot both be satisfied the interval degrades to
// [0, span-extent], and to 0 when the extent exceeds the span entirely.
func clampAxis(v, extent, span, margin float64) float64 {
	lo := margin
	hi := span - extent - margin
	if lo > hi {
		lo = 0
		hi = math.Max(0, span-extent)
	}
	return math.Min(math.Max(v, lo), hi)
}
