package source

import (
	"context"
	"image"
	"sync"
)

// VideoBackground composes on the first decoded frame of a video. The frame
// is extracted once and cached until Close.
type VideoBackground struct {
	path   string
	frames FrameExtractor

	mu    sync.Mutex
	frame image.Image
}

func NewVideoBackground(path string, frames FrameExtractor) *VideoBackground {
	return &VideoBackground{path: path, frames: frames}
}

func (s *VideoBackground) Kind() Kind { return KindVideo }

func (s *VideoBackground) Path() string { return s.path }

func (s *VideoBackground) Dimensions(ctx context.Context) (int, int, error) {
	img, err := s.Decode(ctx)
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

func (s *VideoBackground) Decode(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame != nil {
		return s.frame, nil
	}

	img, err := s.frames.FirstFrame(ctx, s.path)
	if err != nil {
		return nil, decodeErr(s.path, err)
	}
	b := img.Bounds()
	if err := preflight(ctx, s.path, b.Dx(), b.Dy()); err != nil {
		return nil, err
	}
	s.frame = img
	return img, nil
}

// Close drops the cached frame.
func (s *VideoBackground) Close() error {
	s.mu.Lock()
	s.frame = nil
	s.mu.Unlock()
	return nil
}
