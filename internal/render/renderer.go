package render

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/ivlev/storyeditor/internal/overlay"
	"github.com/ivlev/storyeditor/internal/system"
)

var ErrEmptyBackground = errors.New("background has no pixels")

type Renderer struct {
	Composer *Composer
	Font     *Font
}

func NewRenderer(refWidth float64, fontPath string) (*Renderer, error) {
	f, err := LoadFont(fontPath)
	if err != nil {
		return nil, err
	}
	return &Renderer{Composer: NewComposer(refWidth), Font: f}, nil
}

// Render flattens scene over bg into a new RGBA bitmap of the background's
// native size. The result comes from the shared pool; hand it to Release
// once it has been persisted.
func (r *Renderer) Render(ctx context.Context, bg image.Image, scene overlay.Scene) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if bg == nil || bg.Bounds().Empty() {
		return nil, ErrEmptyBackground
	}
	b := bg.Bounds()

	dst := system.GetImage(image.Rect(0, 0, b.Dx(), b.Dy()))
	surface := NewRasterSurface(dst, r.Font)
	defer surface.Close()

	if err := r.Composer.Compose(surface, bg, scene.Clone()); err != nil {
		system.PutImage(dst)
		return nil, err
	}
	if err := surface.Err(); err != nil {
		system.PutImage(dst)
		return nil, fmt.Errorf("draw text: %w", err)
	}
	if err := ctx.Err(); err != nil {
		system.PutImage(dst)
		return nil, err
	}
	return dst, nil
}

// Release returns a rendered bitmap to the pool.
func Release(img *image.RGBA) {
	system.PutImage(img)
}
