package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/ivlev/storyeditor/internal/system"
)

// RasterSurface draws into an *image.RGBA. It is not safe for concurrent use.
// Face creation errors are sticky and reported by Err.
type RasterSurface struct {
	dst   *image.RGBA
	faces *faceSet
	err   error
}

func NewRasterSurface(dst *image.RGBA, f *Font) *RasterSurface {
	return &RasterSurface{dst: dst, faces: f.newFaceSet()}
}

func (s *RasterSurface) Image() *image.RGBA { return s.dst }

func (s *RasterSurface) Err() error { return s.err }

// Close releases the faces. The destination image is left to the caller.
func (s *RasterSurface) Close() error {
	s.faces.close()
	return nil
}

func (s *RasterSurface) Bounds() image.Rectangle { return s.dst.Rect }

func (s *RasterSurface) FillColor(c color.Color) {
	draw.Draw(s.dst, s.dst.Rect, image.NewUniform(c), image.Point{}, draw.Src)
}

func (s *RasterSurface) DrawImage(img image.Image, r image.Rectangle) {
	sb := img.Bounds()
	if sb.Dx() == r.Dx() && sb.Dy() == r.Dy() {
		draw.Draw(s.dst, r, img, sb.Min, draw.Over)
		return
	}
	xdraw.CatmullRom.Scale(s.dst, r, img, sb, xdraw.Over, nil)
}

func (s *RasterSurface) face(sizePx float64) font.Face {
	if s.err != nil {
		return nil
	}
	face, err := s.faces.face(sizePx)
	if err != nil {
		s.err = err
		return nil
	}
	return face
}

func (s *RasterSurface) MeasureText(text string, sizePx float64) (width, ascent, descent float64) {
	face := s.face(sizePx)
	if face == nil {
		return 0, 0, 0
	}
	m := face.Metrics()
	adv := font.MeasureString(face, text)
	return fromFixed(adv), fromFixed(m.Ascent), fromFixed(m.Descent)
}

func (s *RasterSurface) DrawText(text string, x, y, sizePx, rotation float64, c color.Color) {
	face := s.face(sizePx)
	if face == nil || text == "" {
		return
	}
	src := image.NewUniform(c)

	if rotation == 0 {
		d := &font.Drawer{Dst: s.dst, Src: src, Face: face, Dot: toFixedPoint(x, y)}
		d.DrawString(text)
		return
	}

	// Draw unrotated into a scratch layer, then map the layer onto the
	// destination with an affine transform about the text origin.
	w, ascent, descent := s.MeasureText(text, sizePx)
	pad := math.Ceil(sizePx / 4)
	layerRect := image.Rect(0, 0, int(math.Ceil(w+2*pad)), int(math.Ceil(ascent+descent+2*pad)))
	layer := system.GetImage(layerRect)
	defer system.PutImage(layer)

	ox, oy := pad, pad+math.Ceil(ascent)
	d := &font.Drawer{Dst: layer, Src: src, Face: face, Dot: toFixedPoint(ox, oy)}
	d.DrawString(text)

	rad := rotation * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	s2d := f64.Aff3{
		cos, -sin, x - (cos*ox - sin*oy),
		sin, cos, y - (sin*ox + cos*oy),
	}
	xdraw.BiLinear.Transform(s.dst, s2d, layer, layerRect, xdraw.Over, nil)
}

func (s *RasterSurface) DrawRoundedRect(x, y, w, h, radius float64, c color.Color) {
	if w <= 0 || h <= 0 {
		return
	}
	radius = math.Max(0, math.Min(radius, math.Min(w, h)/2))

	b := s.dst.Rect
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	x -= float64(b.Min.X)
	y -= float64(b.Min.Y)

	// cubic approximation of a quarter circle
	k := radius * 0.5522847498
	pt := func(px, py float64) (float32, float32) { return float32(px), float32(py) }

	z.MoveTo(pt(x+radius, y))
	z.LineTo(pt(x+w-radius, y))
	z.CubeTo(float32(x+w-radius+k), float32(y), float32(x+w), float32(y+radius-k), float32(x+w), float32(y+radius))
	z.LineTo(pt(x+w, y+h-radius))
	z.CubeTo(float32(x+w), float32(y+h-radius+k), float32(x+w-radius+k), float32(y+h), float32(x+w-radius), float32(y+h))
	z.LineTo(pt(x+radius, y+h))
	z.CubeTo(float32(x+radius-k), float32(y+h), float32(x), float32(y+h-radius+k), float32(x), float32(y+h-radius))
	z.LineTo(pt(x, y+radius))
	z.CubeTo(float32(x), float32(y+radius-k), float32(x+radius-k), float32(y), float32(x+radius), float32(y))
	z.ClosePath()

	z.Draw(s.dst, b, image.NewUniform(c), image.Point{})
}

func toFixedPoint(x, y float64) fixed.Point26_6 {
	return fixed.Point26_6{
		X: fixed.Int26_6(math.Round(x * 64)),
		Y: fixed.Int26_6(math.Round(y * 64)),
	}
}

func fromFixed(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
