package editor

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ivlev/storyeditor/internal/overlay"
)

type GestureKind int

const (
	GesturePan GestureKind = iota
	GesturePinch
	GestureRotate
)

// Gesture is a single event from the platform gesture recognizer.
type Gesture struct {
	Kind     GestureKind
	Pan      r2.Vec  // pixel delta since the previous event
	Zoom     float64 // raw multiplicative factor
	Rotation float64 // raw degrees
}

// Transformer owns the live pixel-space geometry of one overlay while it is
// being manipulated. The normalized model is only ever written clamped.
type Transformer interface {
	Begin(screen r2.Vec)
	Apply(g Gesture, screen r2.Vec)
	Commit(screen r2.Vec)
	Transforming() bool
	Live(screen r2.Vec) r2.Vec
}

// panState is the per-overlay transient gesture state: last committed pixel
// position, in-flight pan offset and the reentrancy flag.
type panState struct {
	base   r2.Vec
	offset r2.Vec
	active bool
}

func (p *panState) begin(norm, screen r2.Vec) {
	p.base = mulVec(norm, screen)
	p.offset = r2.Vec{}
	p.active = true
}

func (p *panState) pan(d r2.Vec) r2.Vec {
	if finiteVec(d) {
		p.offset = r2.Add(p.offset, d)
	}
	return r2.Add(p.base, p.offset)
}

func (p *panState) commit() r2.Vec {
	p.base = r2.Add(p.base, p.offset)
	p.offset = r2.Vec{}
	p.active = false
	return p.base
}

func (p *panState) live(norm, screen r2.Vec) r2.Vec {
	if p.active {
		return r2.Add(p.base, p.offset)
	}
	return mulVec(norm, screen)
}

type textTransformer struct {
	o *overlay.TextOverlay
	panState
}

func (t *textTransformer) norm() r2.Vec {
	return r2.Vec{X: t.o.PositionX, Y: t.o.PositionY}
}

func (t *textTransformer) setNorm(px, screen r2.Vec) {
	n := normalize(px, screen, t.norm())
	t.o.PositionX, t.o.PositionY = n.X, n.Y
}

func (t *textTransformer) Begin(screen r2.Vec) { t.begin(t.norm(), screen) }

func (t *textTransformer) Apply(g Gesture, screen r2.Vec) {
	if !t.active {
		return
	}
	switch g.Kind {
	case GesturePan:
		t.setNorm(t.pan(g.Pan), screen)
	case GesturePinch:
		t.o.Scale = overlay.DampedScale(t.o.Scale, g.Zoom)
	case GestureRotate:
		t.o.Rotation = overlay.DampedRotation(t.o.Rotation, g.Rotation)
	}
}

func (t *textTransformer) Commit(screen r2.Vec) {
	if !t.active {
		return
	}
	t.setNorm(t.commit(), screen)
}

func (t *textTransformer) Transforming() bool { return t.active }

func (t *textTransformer) Live(screen r2.Vec) r2.Vec { return t.live(t.norm(), screen) }

// locationTransformer only translates; pinch and rotate are dropped.
type locationTransformer struct {
	o *overlay.LocationOverlay
	panState
}

func (l *locationTransformer) norm() r2.Vec {
	return r2.Vec{X: l.o.PositionX, Y: l.o.PositionY}
}

func (l *locationTransformer) setNorm(px, screen r2.Vec) {
	n := normalize(px, screen, l.norm())
	l.o.PositionX, l.o.PositionY = n.X, n.Y
}

func (l *locationTransformer) Begin(screen r2.Vec) { l.begin(l.norm(), screen) }

func (l *locationTransformer) Apply(g Gesture, screen r2.Vec) {
	if !l.active || g.Kind != GesturePan {
		return
	}
	l.setNorm(l.pan(g.Pan), screen)
}

func (l *locationTransformer) Commit(screen r2.Vec) {
	if !l.active {
		return
	}
	l.setNorm(l.commit(), screen)
}

func (l *locationTransformer) Transforming() bool { return l.active }

func (l *locationTransformer) Live(screen r2.Vec) r2.Vec { return l.live(l.norm(), screen) }

func mulVec(a, b r2.Vec) r2.Vec {
	return r2.Vec{X: a.X * b.X, Y: a.Y * b.Y}
}

// normalize converts a pixel position back to [0,1] space.
func normalize(px, screen, prev r2.Vec) r2.Vec {
	return r2.Vec{
		X: overlay.ClampUnit(px.X/screen.X, prev.X),
		Y: overlay.ClampUnit(px.Y/screen.Y, prev.Y),
	}
}

func finiteVec(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
