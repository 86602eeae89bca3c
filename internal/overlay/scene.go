package overlay

// Font sizes and pill dimensions are expressed against a canvas this wide
// and rescaled to the real background width.
const ReferenceWidth = 1080.0

const (
	pillTextSize    = 32.0
	pillPadding     = 24.0
	pillHeightRatio = 1.75
)

// Scene is a frozen, by-value copy of the committed overlay model.
type Scene struct {
	Texts    []TextOverlay
	Location *LocationOverlay
	ShareURL string
}

// Clone deep-copies the scene so later edits cannot reach a render in flight.
func (s Scene) Clone() Scene {
	out := Scene{ShareURL: s.ShareURL}
	if len(s.Texts) > 0 {
		out.Texts = make([]TextOverlay, len(s.Texts))
		copy(out.Texts, s.Texts)
	}
	if s.Location != nil {
		loc := *s.Location
		if s.Location.Latitude != nil {
			lat := *s.Location.Latitude
			loc.Latitude = &lat
		}
		if s.Location.Longitude != nil {
			lon := *s.Location.Longitude
			loc.Longitude = &lon
		}
		out.Location = &loc
	}
	return out
}

// PixelFontSize rescales a logical font size to a canvas widthPx wide.
func PixelFontSize(size, widthPx, refWidth float64) float64 {
	if refWidth <= 0 {
		refWidth = ReferenceWidth
	}
	return ClampFontSize(size * (widthPx / refWidth))
}

// Pill describes the location pill geometry for a given canvas width.
// Width is MeasuredText + 2*Padding.
type Pill struct {
	TextSize float64
	Padding  float64
	Height   float64
}

func PillLayout(widthPx, refWidth float64) Pill {
	if refWidth <= 0 {
		refWidth = ReferenceWidth
	}
	k := widthPx / refWidth
	textSize := ClampFontSize(pillTextSize * k)
	return Pill{
		TextSize: textSize,
		Padding:  pillPadding * k,
		Height:   textSize * pillHeightRatio,
	}
}
