package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fixedViewport(w, h float64) ViewportFunc {
	return func() Viewport {
		return Viewport{Width: w, Height: h}
	}
}

func TestPopupPosition_CenterClickStaysInsideMargins(t *testing.T) {
	p := NewPositioner(fixedViewport(1920, 1080))

	pos := p.PopupPosition(Point{X: 960, Y: 540})

	assert.GreaterOrEqual(t, pos.Left, DefaultMargin)
	assert.LessOrEqual(t, pos.Left+DefaultPopupWidth, 1920-DefaultMargin)
	assert.GreaterOrEqual(t, pos.Top, DefaultMargin)
	assert.LessOrEqual(t, pos.Top+DefaultPopupHeight, 1080-DefaultMargin)
}

func TestPopupPosition_RightEdgeFlipsLeftOfClick(t *testing.T) {
	p := NewPositioner(fixedViewport(1024, 768))

	pos := p.PopupPosition(Point{X: 900, Y: 400})

	assert.Less(t, pos.Left, 900.0, "popup should flip to the left of the click")
	assert.GreaterOrEqual(t, pos.Left, DefaultMargin)
	assert.LessOrEqual(t, pos.Left+DefaultPopupWidth, 1024-DefaultMargin)
}

func TestPopupPosition_TopEdgeClampsToMargin(t *testing.T) {
	p := NewPositioner(fixedViewport(1024, 768))

	pos := p.PopupPosition(Point{X: 500, Y: 10})

	assert.Equal(t, DefaultMargin, pos.Top)
}

func TestPopupPosition_BottomEdgeStaysOnScreen(t *testing.T) {
	p := NewPositioner(fixedViewport(1024, 768))

	pos := p.PopupPosition(Point{X: 500, Y: 750})

	assert.LessOrEqual(t, pos.Top+DefaultPopupHeight, 768.0)
	assert.GreaterOrEqual(t, pos.Top, DefaultMargin)
}

func TestPopupPosition_LeftEdgeClampsToMargin(t *testing.T) {
	p := NewPositioner(fixedViewport(1024, 768))

	pos := p.PopupPosition(Point{X: 5, Y: 400})

	assert.GreaterOrEqual(t, pos.Left, DefaultMargin)
}

func TestPopupPosition_OriginClick(t *testing.T) {
	p := NewPositioner(fixedViewport(1024, 768))

	pos := p.PopupPosition(Point{X: 0, Y: 0})

	assert.GreaterOrEqual(t, pos.Left, DefaultMargin)
	assert.GreaterOrEqual(t, pos.Top, DefaultMargin)
}

func TestPopupPosition_ViewportSmallerThanPopupPlusMargins(t *testing.T) {
	p := NewPositioner(fixedViewport(200, 200))

	pos := p.PopupPosition(Point{X: 100, Y: 100}, WithSize(Size{Width: 180, Height: 180}))

	assert.GreaterOrEqual(t, pos.Left, 0.0)
	assert.GreaterOrEqual(t, pos.Top, 0.0)
	assert.LessOrEqual(t, pos.Left+180, 200.0)
	assert.LessOrEqual(t, pos.Top+180, 200.0)
}

func TestPopupPosition_ViewportSmallerThanPopup(t *testing.T) {
	p := NewPositioner(fixedViewport(300, 250))

	pos := p.PopupPosition(Point{X: 150, Y: 125})

	// Popup cannot fit; it pins to the origin rather than going negative.
	assert.Equal(t, 0.0, pos.Left)
	assert.Equal(t, 0.0, pos.Top)
}

func TestPopupPosition_CustomSizeAndMargin(t *testing.T) {
	p := NewPositioner(fixedViewport(800, 600))

	pos := p.PopupPosition(Point{X: 790, Y: 5},
		WithSize(Size{Width: 100, Height: 50}),
		WithMargin(20),
	)

	assert.GreaterOrEqual(t, pos.Left, 20.0)
	assert.LessOrEqual(t, pos.Left+100, 800-20.0)
	assert.Equal(t, 20.0, pos.Top)
}

func TestPopupPosition_NegativeCoordinatesClampGracefully(t *testing.T) {
	p := NewPositioner(fixedViewport(1024, 768))

	pos := p.PopupPosition(Point{X: -50, Y: -200})

	assert.GreaterOrEqual(t, pos.Left, DefaultMargin)
	assert.GreaterOrEqual(t, pos.Top, DefaultMargin)
}

func TestPopupPosition_ReadsViewportOnEveryCall(t *testing.T) {
	vp := Viewport{Width: 1024, Height: 768}
	p := NewPositioner(func() Viewport { return vp })

	first := p.PopupPosition(Point{X: 900, Y: 400})

	// Simulate a window resize between calls.
	vp = Viewport{Width: 2560, Height: 1440}
	second := p.PopupPosition(Point{X: 900, Y: 400})

	assert.Less(t, first.Left, 900.0, "narrow viewport forces a flip")
	assert.Greater(t, second.Left, 900.0, "wide viewport keeps the popup right of the click")
}

func TestPopupPosition_Idempotent(t *testing.T) {
	p := NewPositioner(fixedViewport(1366, 768))
	click := Point{X: 333, Y: 444}

	a := p.PopupPosition(click)
	b := p.PopupPosition(click)

	assert.Equal(t, a, b)
}

func TestPopupPosition_PureForm(t *testing.T) {
	tests := []struct {
		name     string
		click    Point
		vp       Viewport
		size     Size
		margin   float64
		wantLeft float64
		wantTop  float64
	}{
		{
			name:     "unconstrained placement above-right",
			click:    Point{X: 100, Y: 500},
			vp:       Viewport{Width: 1920, Height: 1080},
			size:     Size{Width: 340, Height: 320},
			margin:   12,
			wantLeft: 108, // x + offset
			wantTop:  180, // y - height
		},
		{
			name:     "right overflow flips left",
			click:    Point{X: 900, Y: 500},
			vp:       Viewport{Width: 1024, Height: 768},
			size:     Size{Width: 340, Height: 320},
			margin:   12,
			wantLeft: 552, // x - width - offset
			wantTop:  180,
		},
		{
			name:     "origin clamps to margin",
			click:    Point{X: 0, Y: 0},
			vp:       Viewport{Width: 1024, Height: 768},
			size:     Size{Width: 340, Height: 320},
			margin:   12,
			wantLeft: 12,
			wantTop:  12,
		},
		{
			name:     "tight viewport degrades to zero bound",
			click:    Point{X: 0, Y: 0},
			vp:       Viewport{Width: 200, Height: 200},
			size:     Size{Width: 180, Height: 180},
			margin:   12,
			wantLeft: 8, // x + offset fits inside [0, 20]
			wantTop:  0, // y - height clamps to the degraded lower bound
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := PopupPosition(tt.click, tt.vp, tt.size, tt.margin)
			assert.Equal(t, tt.wantLeft, pos.Left)
			assert.Equal(t, tt.wantTop, pos.Top)
		})
	}
}
