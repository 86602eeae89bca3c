package engine

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ivlev/storyeditor/internal/config"
	"github.com/ivlev/storyeditor/internal/editor"
	"github.com/ivlev/storyeditor/internal/overlay"
	"github.com/ivlev/storyeditor/internal/render"
	"github.com/ivlev/storyeditor/internal/source"
	"github.com/ivlev/storyeditor/internal/trim"
)

type fakeBackground struct {
	img    image.Image
	err    error
	closed bool
}

func (b *fakeBackground) Kind() source.Kind { return source.KindPhoto }
func (b *fakeBackground) Path() string      { return "fake.png" }
func (b *fakeBackground) Dimensions(ctx context.Context) (int, int, error) {
	if b.err != nil {
		return 0, 0, b.err
	}
	return b.img.Bounds().Dx(), b.img.Bounds().Dy(), nil
}
func (b *fakeBackground) Decode(ctx context.Context) (image.Image, error) { return b.img, b.err }
func (b *fakeBackground) Close() error                                   { b.closed = true; return nil }

type memGallery struct {
	mu      sync.Mutex
	bounds  []image.Rectangle
	block   chan struct{}
	entered chan struct{}
}

func (g *memGallery) Write(ctx context.Context, img image.Image) (string, error) {
	if g.entered != nil {
		close(g.entered)
	}
	if g.block != nil {
		<-g.block
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bounds = append(g.bounds, img.Bounds())
	return filepath.Join("gallery", "story.png"), nil
}

func newProject(t *testing.T, g *memGallery) *StoryProject {
	t.Helper()
	r, err := render.NewRenderer(overlay.ReferenceWidth, "")
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Workers = 2
	return NewStoryProject(cfg, r, g, nil, nil)
}

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+3] = 40, 255
	}
	return img
}

func TestSave(t *testing.T) {
	g := &memGallery{}
	p := newProject(t, g)
	bg := &fakeBackground{img: solid(270, 480)}

	s := editor.NewSession(270, 480)
	s.AddText("Hello", overlay.DefaultTextColor)

	res, err := p.SaveSession(context.Background(), bg, s)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if res.Width != 270 || res.Height != 480 {
		t.Errorf("Expected native 270x480, got %dx%d", res.Width, res.Height)
	}
	if len(g.bounds) != 1 || g.bounds[0].Dx() != 270 {
		t.Errorf("Unexpected gallery writes %v", g.bounds)
	}
	if !bg.closed {
		t.Error("Expected background to be closed")
	}
}

func TestSaveDecodeFailure(t *testing.T) {
	g := &memGallery{}
	p := newProject(t, g)
	bg := &fakeBackground{err: source.ErrDecode}

	_, err := p.Save(context.Background(), bg, overlay.Scene{})
	if !errors.Is(err, ErrCouldNotCreateImage) || !errors.Is(err, source.ErrDecode) {
		t.Fatalf("Expected ErrCouldNotCreateImage wrapping ErrDecode, got %v", err)
	}
	if len(g.bounds) != 0 {
		t.Error("Expected nothing written on decode failure")
	}
	if !bg.closed {
		t.Error("Expected background to be closed on failure")
	}
}

func TestSaveWhileTransforming(t *testing.T) {
	p := newProject(t, &memGallery{})
	s := editor.NewSession(100, 100)
	o, _ := s.AddText("drag me", overlay.DefaultTextColor)
	sel := editor.TextSelection(o.ID)
	s.Select(sel)
	s.BeginTransform(sel)

	_, err := p.SaveSession(context.Background(), &fakeBackground{img: solid(100, 100)}, s)
	if !errors.Is(err, editor.ErrTransformActive) {
		t.Errorf("Expected ErrTransformActive, got %v", err)
	}
}

func TestSaveSingleFlight(t *testing.T) {
	g := &memGallery{block: make(chan struct{}), entered: make(chan struct{})}
	p := newProject(t, g)

	done := make(chan error, 1)
	go func() {
		_, err := p.Save(context.Background(), &fakeBackground{img: solid(50, 50)}, overlay.Scene{})
		done <- err
	}()
	<-g.entered

	if _, err := p.Save(context.Background(), &fakeBackground{img: solid(50, 50)}, overlay.Scene{}); !errors.Is(err, ErrSavePending) {
		t.Errorf("Expected ErrSavePending, got %v", err)
	}

	close(g.block)
	if err := <-done; err != nil {
		t.Fatalf("First save failed: %v", err)
	}
}

func TestSaveAll(t *testing.T) {
	dir := t.TempDir()
	var items []BatchItem
	for i, size := range []image.Point{{60, 40}, {40, 60}, {30, 30}} {
		path := filepath.Join(dir, string(rune('a'+i))+".png")
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		img := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
		img.Set(0, 0, color.RGBA{1, 2, 3, 255})
		png.Encode(f, img)
		f.Close()
		items = append(items, BatchItem{Background: path})
	}

	g := &memGallery{}
	p := newProject(t, g)
	results, err := p.SaveAll(context.Background(), items)
	if err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}
	if results[0].Width != 60 || results[1].Height != 60 || results[2].Width != 30 {
		t.Errorf("Results out of order: %+v", results)
	}

	items = append(items, BatchItem{Background: filepath.Join(dir, "missing.jpg")})
	if _, err := p.SaveAll(context.Background(), items); !errors.Is(err, ErrCouldNotCreateImage) {
		t.Errorf("Expected ErrCouldNotCreateImage, got %v", err)
	}
}

type instantTranscoder struct{}

func (instantTranscoder) Transcode(ctx context.Context, input, output string, start, end time.Duration, progress func(float64)) error {
	progress(0.5)
	return os.WriteFile(output, []byte("mp4"), 0644)
}

func TestTrimRangeAndTrim(t *testing.T) {
	dir := t.TempDir()
	clip := filepath.Join(dir, "clip.mp4")
	os.WriteFile(clip, []byte("x"), 0644)

	p := newProject(t, &memGallery{})
	p.Trimmer = trim.NewTrimmer(instantTranscoder{}, filepath.Join(dir, "out"))
	p.Probe = func(ctx context.Context, path string) (int64, error) { return 95000, nil }

	rng, err := p.TrimRange(context.Background(), clip)
	if err != nil {
		t.Fatalf("TrimRange failed: %v", err)
	}
	if rng.EndMs != p.Config.MaxTrimMs {
		t.Errorf("Expected default window of %dms, got %d", p.Config.MaxTrimMs, rng.EndMs)
	}

	job, err := p.Trim(context.Background(), clip, rng, nil)
	if err != nil {
		t.Fatal(err)
	}
	out, err := job.Wait(context.Background())
	if err != nil {
		t.Fatalf("Trim failed: %v", err)
	}
	if filepath.Dir(out) != filepath.Join(dir, "out") {
		t.Errorf("Unexpected output %s", out)
	}

	if _, err := p.TrimRange(context.Background(), filepath.Join(dir, "nope.mp4")); err == nil {
		t.Error("Expected error for missing clip")
	}
}
