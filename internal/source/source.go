// Package source loads the still image a story is composed on: a photo, or
// the first frame of a video.
package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/ivlev/storyeditor/internal/system"
)

// ErrDecode marks every failure to produce background pixels. Callers show a
// single "could not create image" message for it and may retry.
var ErrDecode = errors.New("could not decode background")

type Kind int

const (
	KindPhoto Kind = iota
	KindVideo
)

func (k Kind) String() string {
	if k == KindVideo {
		return "video"
	}
	return "photo"
}

type Background interface {
	Kind() Kind
	Path() string
	Dimensions(ctx context.Context) (width, height int, err error)
	Decode(ctx context.Context) (image.Image, error)
	Close() error
}

// FrameExtractor pulls a single decoded frame out of a video container.
type FrameExtractor interface {
	FirstFrame(ctx context.Context, path string) (image.Image, error)
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".m4v": true, ".3gp": true, ".webm": true, ".mkv": true,
}

// Open picks the background type from the file extension.
func Open(path string, frames FrameExtractor) (Background, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrDecode)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if videoExtensions[ext] {
		if frames == nil {
			return nil, fmt.Errorf("%w: no frame extractor for %s", ErrDecode, path)
		}
		return NewVideoBackground(path, frames), nil
	}
	return NewImageBackground(path), nil
}

func decodeErr(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
}

// preflight refuses backgrounds whose decoded and rendered canvases would
// not fit into free memory.
func preflight(ctx context.Context, path string, w, h int) error {
	if w <= 0 || h <= 0 {
		return decodeErr(path, fmt.Errorf("invalid dimensions %dx%d", w, h))
	}
	if err := system.EnsureMemory(ctx, 2*system.RGBAFootprint(w, h)); err != nil {
		return decodeErr(path, err)
	}
	return nil
}
