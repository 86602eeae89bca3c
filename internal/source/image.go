package source

import (
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type ImageBackground struct {
	path string
}

func NewImageBackground(path string) *ImageBackground {
	return &ImageBackground{path: path}
}

func (s *ImageBackground) Kind() Kind { return KindPhoto }

func (s *ImageBackground) Path() string { return s.path }

func (s *ImageBackground) Dimensions(ctx context.Context) (int, int, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return 0, 0, decodeErr(s.path, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, decodeErr(s.path, err)
	}
	return cfg.Width, cfg.Height, nil
}

func (s *ImageBackground) Decode(ctx context.Context) (image.Image, error) {
	w, h, err := s.Dimensions(ctx)
	if err != nil {
		return nil, err
	}
	if err := preflight(ctx, s.path, w, h); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, decodeErr(s.path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, decodeErr(s.path, err)
	}
	return img, nil
}

func (s *ImageBackground) Close() error {
	return nil
}
