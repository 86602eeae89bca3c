// Package render flattens a background and its overlays into one bitmap.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/skip2/go-qrcode"

	"github.com/ivlev/storyeditor/internal/overlay"
)

var (
	// BrandColor is the pill fill: #2E7D32 at 85% opacity.
	BrandColor = color.NRGBA{R: 0x2E, G: 0x7D, B: 0x32, A: 0xD9}
	PillText   = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
)

const (
	badgeSize   = 160.0
	badgeMargin = 32.0
)

// Composer holds the layout rules. It reads only the committed model.
type Composer struct {
	ReferenceWidth float64
}

func NewComposer(refWidth float64) *Composer {
	if refWidth <= 0 {
		refWidth = overlay.ReferenceWidth
	}
	return &Composer{ReferenceWidth: refWidth}
}

// Compose draws background, text overlays in list order, the location pill
// and finally the share badge.
func (c *Composer) Compose(s Surface, bg image.Image, scene overlay.Scene) error {
	b := s.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())

	s.FillColor(color.Black)
	s.DrawImage(bg, b)

	for _, t := range scene.Texts {
		x := float64(b.Min.X) + t.PositionX*w
		y := float64(b.Min.Y) + t.PositionY*h
		size := overlay.PixelFontSize(t.LiveFontSize(), w, c.ReferenceWidth)
		s.DrawText(t.Text, x, y, size, t.Rotation, t.Color())
	}

	if loc := scene.Location; loc != nil {
		c.drawPill(s, b, loc)
	}

	if scene.ShareURL != "" {
		if err := c.drawBadge(s, b, scene.ShareURL); err != nil {
			return err
		}
	}
	return nil
}

// drawPill centers the pill on the normalized location point.
func (c *Composer) drawPill(s Surface, b image.Rectangle, loc *overlay.LocationOverlay) {
	w, h := float64(b.Dx()), float64(b.Dy())
	pill := overlay.PillLayout(w, c.ReferenceWidth)
	tw, ascent, descent := s.MeasureText(loc.Name, pill.TextSize)

	pw := tw + 2*pill.Padding
	cx := float64(b.Min.X) + loc.PositionX*w
	cy := float64(b.Min.Y) + loc.PositionY*h
	left, top := cx-pw/2, cy-pill.Height/2

	s.DrawRoundedRect(left, top, pw, pill.Height, pill.Height/2, BrandColor)
	baseline := cy + (ascent-descent)/2
	s.DrawText(loc.Name, left+pill.Padding, baseline, pill.TextSize, 0, PillText)
}

func (c *Composer) drawBadge(s Surface, b image.Rectangle, url string) error {
	k := float64(b.Dx()) / c.ReferenceWidth
	size := int(math.Round(badgeSize * k))
	margin := int(math.Round(badgeMargin * k))
	if size < 21 {
		// smaller than a version 1 symbol, nothing readable to draw
		return nil
	}

	q, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("share badge: %w", err)
	}
	img := q.Image(size)

	r := image.Rect(b.Max.X-margin-size, b.Max.Y-margin-size, b.Max.X-margin, b.Max.Y-margin)
	s.DrawImage(img, r)
	return nil
}
