package system

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestImagePoolReturnsClearImage(t *testing.T) {
	pool := NewImagePool()
	rect := image.Rect(0, 0, 8, 4)

	img := pool.Get(rect)
	img.Set(1, 1, color.RGBA{255, 0, 0, 255})
	pool.Put(img)

	again := pool.Get(rect)
	if again.Rect != rect {
		t.Fatalf("Expected bounds %v, got %v", rect, again.Rect)
	}
	for _, b := range again.Pix {
		if b != 0 {
			t.Fatal("Pooled image was not cleared")
		}
	}
}

func TestImagePoolPutUnknownSize(t *testing.T) {
	pool := NewImagePool()
	// must not panic
	pool.Put(image.NewRGBA(image.Rect(0, 0, 3, 3)))
	pool.Put(nil)
}

func TestParseProbeDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12.345000\n", 12345, false},
		{"0.0004", 0, false},
		{"30", 30000, false},
		{"N/A", 0, true},
		{"-1", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseProbeDuration(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("%q: expected %d, got %d (%v)", tt.in, tt.want, got, err)
		}
	}
}

func TestPickEncoder(t *testing.T) {
	if e := pickEncoder(" V..... libx264 \n V..... h264_nvenc"); e != "h264_nvenc" {
		t.Errorf("Expected nvenc, got %s", e)
	}
	if e := pickEncoder("V..... h264_videotoolbox\nV..... h264_nvenc"); e != "h264_videotoolbox" {
		t.Errorf("Expected videotoolbox, got %s", e)
	}
	if e := pickEncoder(""); e != "libx264" {
		t.Errorf("Expected libx264, got %s", e)
	}
}

func TestEnsureMemory(t *testing.T) {
	orig := availableMemory
	defer func() { availableMemory = orig }()

	availableMemory = func(context.Context) (uint64, error) { return 100 << 20, nil }
	if err := EnsureMemory(context.Background(), RGBAFootprint(1080, 1920)); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if err := EnsureMemory(context.Background(), 200<<20); !errors.Is(err, ErrInsufficientMemory) {
		t.Errorf("Expected ErrInsufficientMemory, got %v", err)
	}

	availableMemory = func(context.Context) (uint64, error) { return 0, errors.New("unsupported") }
	if err := EnsureMemory(context.Background(), 1<<40); err != nil {
		t.Errorf("Missing stats must not fail the check, got %v", err)
	}
}

func TestRGBAFootprint(t *testing.T) {
	if n := RGBAFootprint(10, 10); n != 400 {
		t.Errorf("Expected 400, got %d", n)
	}
	if n := RGBAFootprint(-1, 10); n != 0 {
		t.Errorf("Expected 0, got %d", n)
	}
}
