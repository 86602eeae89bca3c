package source

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})

	path := filepath.Join(t.TempDir(), "bg.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImageBackground(t *testing.T) {
	path := writePNG(t, 64, 48)
	bg, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer bg.Close()

	if bg.Kind() != KindPhoto {
		t.Errorf("Expected photo, got %v", bg.Kind())
	}
	w, h, err := bg.Dimensions(context.Background())
	if err != nil || w != 64 || h != 48 {
		t.Fatalf("Expected 64x48, got %dx%d (%v)", w, h, err)
	}
	img, err := bg.Decode(context.Background())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Bounds().Dx() != 64 {
		t.Errorf("Unexpected bounds %v", img.Bounds())
	}
}

func TestImageBackgroundUnreadable(t *testing.T) {
	corrupt := filepath.Join(t.TempDir(), "broken.jpg")
	os.WriteFile(corrupt, []byte("not an image"), 0644)

	for _, path := range []string{"/nonexistent/story.jpg", corrupt} {
		bg, err := Open(path, nil)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if _, err := bg.Decode(context.Background()); !errors.Is(err, ErrDecode) {
			t.Errorf("%s: expected ErrDecode, got %v", path, err)
		}
	}
}

type fakeFrames struct {
	img   image.Image
	err   error
	calls int
}

func (f *fakeFrames) FirstFrame(ctx context.Context, path string) (image.Image, error) {
	f.calls++
	return f.img, f.err
}

func TestVideoBackground(t *testing.T) {
	frames := &fakeFrames{img: image.NewRGBA(image.Rect(0, 0, 720, 1280))}
	bg, err := Open("/videos/clip.MP4", frames)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if bg.Kind() != KindVideo {
		t.Fatalf("Expected video, got %v", bg.Kind())
	}

	w, h, err := bg.Dimensions(context.Background())
	if err != nil || w != 720 || h != 1280 {
		t.Fatalf("Expected 720x1280, got %dx%d (%v)", w, h, err)
	}
	if _, err := bg.Decode(context.Background()); err != nil {
		t.Fatal(err)
	}
	if frames.calls != 1 {
		t.Errorf("Expected frame to be extracted once, got %d calls", frames.calls)
	}

	bg.Close()
	bg.Decode(context.Background())
	if frames.calls != 2 {
		t.Errorf("Expected re-extraction after Close, got %d calls", frames.calls)
	}
}

func TestVideoBackgroundFailure(t *testing.T) {
	frames := &fakeFrames{err: errors.New("moov atom not found")}
	bg, _ := Open("clip.mov", frames)
	if _, err := bg.Decode(context.Background()); !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode, got %v", err)
	}

	if _, err := Open("clip.mov", nil); !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode without extractor, got %v", err)
	}
	if _, err := Open("", nil); !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode for empty path, got %v", err)
	}
}
