// Package overlay holds the canonical, resolution-independent model of the
// annotations placed on top of a story background.
package overlay

import (
	"errors"
	"image/color"
	"strings"

	"github.com/google/uuid"
)

const (
	MinFontSize     = 12.0
	MaxFontSize     = 72.0
	DefaultFontSize = 28.0

	MinScale = 0.5
	MaxScale = 3.0

	DefaultTextColor uint32 = 0xFFFFFFFF

	// PinchDamping is applied to the delta of a raw zoom factor from 1.0.
	PinchDamping = 0.45
	// RotationDamping is applied to every raw rotation delta.
	RotationDamping = 0.5
)

var ErrEmptyText = errors.New("overlay text is blank")

type ID string

func NewID() ID {
	return ID(uuid.NewString())
}

// TextOverlay is a text annotation. Position is a fraction of the background
// width/height with the origin at the top-left corner.
type TextOverlay struct {
	ID           ID
	Text         string
	PositionX    float64
	PositionY    float64
	BaseFontSize float64 // pre-scale size
	Scale        float64
	Rotation     float64 // degrees, [0,360)
	TextColor    uint32  // ARGB
}

// NewText creates a centered, unscaled, white overlay.
func NewText(text string) (*TextOverlay, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	return &TextOverlay{
		ID:           NewID(),
		Text:         text,
		PositionX:    0.5,
		PositionY:    0.5,
		BaseFontSize: DefaultFontSize,
		Scale:        1.0,
		Rotation:     0,
		TextColor:    DefaultTextColor,
	}, nil
}

// LiveFontSize is the size used for drawing: base size times scale, clamped.
func (t *TextOverlay) LiveFontSize() float64 {
	return ClampFontSize(t.BaseFontSize * t.Scale)
}

// SetContent replaces text and color while keeping geometry.
func (t *TextOverlay) SetContent(text string, argb uint32) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	t.Text = text
	t.TextColor = argb
	return nil
}

func (t *TextOverlay) Color() color.NRGBA {
	return ARGB(t.TextColor)
}

// LocationOverlay is the location pill. It only ever translates.
type LocationOverlay struct {
	Name      string
	Latitude  *float64
	Longitude *float64
	PositionX float64
	PositionY float64
}

// NewLocation returns a centered pill. Coordinates stay nil when geocoding
// failed but the name is still usable.
func NewLocation(name string, lat, lon *float64) (*LocationOverlay, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyText
	}
	return &LocationOverlay{
		Name:      name,
		Latitude:  lat,
		Longitude: lon,
		PositionX: 0.5,
		PositionY: 0.5,
	}, nil
}

// LocationName builds the "village, district, state" label, skipping blanks.
func LocationName(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

// ARGB unpacks a 32-bit 0xAARRGGBB value.
func ARGB(v uint32) color.NRGBA {
	return color.NRGBA{
		A: uint8(v >> 24),
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}
}
