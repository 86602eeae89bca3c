package editor

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ivlev/storyeditor/internal/overlay"
)

// Measurer reports text extents in pixels for a given pixel font size.
type Measurer interface {
	MeasureText(text string, sizePx float64) (width, ascent, descent float64)
}

// HitTest returns the top-most overlay under the screen point (x, y).
// The location pill is drawn last, so it wins over text.
func (s *Session) HitTest(x, y float64, m Measurer) (Selection, bool) {
	p := r2.Vec{X: x, Y: y}

	if s.location != nil {
		pill := overlay.PillLayout(s.screen.X, s.refWidth)
		tw, _, _ := m.MeasureText(s.location.Name, pill.TextSize)
		w := tw + 2*pill.Padding
		c := s.engines[LocationSelection].Live(s.screen)
		if math.Abs(p.X-c.X) <= w/2 && math.Abs(p.Y-c.Y) <= pill.Height/2 {
			return LocationSelection, true
		}
	}

	for i := len(s.texts) - 1; i >= 0; i-- {
		o := s.texts[i]
		sel := TextSelection(o.ID)
		origin := s.engines[sel].Live(s.screen)
		size := overlay.PixelFontSize(o.LiveFontSize(), s.screen.X, s.refWidth)
		w, ascent, descent := m.MeasureText(o.Text, size)

		// undo the overlay rotation about its own origin
		local := r2.Rotate(p, -o.Rotation*math.Pi/180, origin)
		if local.X >= origin.X && local.X <= origin.X+w &&
			local.Y >= origin.Y-ascent && local.Y <= origin.Y+descent {
			return sel, true
		}
	}
	return Selection{}, false
}

// TapAt routes a screen tap: overlays get Tap, anything else clears the
// selection. Taps during a gesture are ignored.
func (s *Session) TapAt(x, y float64, m Measurer) (Selection, TapResult) {
	if s.anyTransforming() {
		return Selection{}, TapIgnored
	}
	sel, ok := s.HitTest(x, y, m)
	if !ok {
		s.TapBackground()
		return Selection{}, TapIgnored
	}
	return sel, s.Tap(sel)
}
