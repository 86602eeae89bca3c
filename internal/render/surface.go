package render

import (
	"image"
	"image/color"
)

// Surface is the minimal drawing API the composition algorithm needs.
// Coordinates are pixels with the origin at the top-left corner.
type Surface interface {
	Bounds() image.Rectangle
	FillColor(c color.Color)
	// DrawImage draws img scaled into r.
	DrawImage(img image.Image, r image.Rectangle)
	// DrawText draws left-aligned text whose baseline starts at (x, y),
	// rotated clockwise by rotation degrees about that point.
	DrawText(text string, x, y, sizePx, rotation float64, c color.Color)
	MeasureText(text string, sizePx float64) (width, ascent, descent float64)
	DrawRoundedRect(x, y, w, h, radius float64, c color.Color)
}
