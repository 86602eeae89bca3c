// Package gallery persists finished story images.
package gallery

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

type Writer interface {
	Write(ctx context.Context, img image.Image) (string, error)
}

type FileGallery struct {
	Dir     string
	Format  string // png or jpeg
	Quality int    // jpeg only

	now func() time.Time
}

func NewFileGallery(dir, format string, quality int) *FileGallery {
	return &FileGallery{Dir: dir, Format: format, Quality: quality, now: time.Now}
}

func (g *FileGallery) ext() string {
	switch g.Format {
	case "jpeg", "jpg":
		return "jpg"
	default:
		return "png"
	}
}

// Write encodes img into a new file. The file is written under a temporary
// name and renamed, so a failed write never leaves a partial image behind.
func (g *FileGallery) Write(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(g.Dir, 0755); err != nil {
		return "", err
	}

	now := time.Now
	if g.now != nil {
		now = g.now
	}
	name := fmt.Sprintf("story_%s_%s.%s", now().Format("20060102_150405"), uuid.NewString()[:8], g.ext())
	path := filepath.Join(g.Dir, name)

	tmp, err := os.CreateTemp(g.Dir, ".story_*.tmp")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if g.ext() == "jpg" {
		q := g.Quality
		if q <= 0 || q > 100 {
			q = jpeg.DefaultQuality
		}
		err = jpeg.Encode(tmp, img, &jpeg.Options{Quality: q})
	} else {
		err = png.Encode(tmp, img)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return path, nil
}
