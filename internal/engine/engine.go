package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/ivlev/storyeditor/internal/config"
	"github.com/ivlev/storyeditor/internal/editor"
	"github.com/ivlev/storyeditor/internal/gallery"
	"github.com/ivlev/storyeditor/internal/overlay"
	"github.com/ivlev/storyeditor/internal/render"
	"github.com/ivlev/storyeditor/internal/source"
	"github.com/ivlev/storyeditor/internal/system"
	"github.com/ivlev/storyeditor/internal/trim"
)

var (
	// ErrCouldNotCreateImage is the single user-facing failure of a save.
	ErrCouldNotCreateImage = errors.New("could not create image")
	ErrSavePending         = errors.New("a save is already in progress")
)

// StoryProject ties the story pipeline together: background decode, flatten,
// gallery write, and clip trimming.
type StoryProject struct {
	Config   *config.Config
	Renderer *render.Renderer
	Gallery  gallery.Writer
	Trimmer  *trim.Trimmer
	Frames   source.FrameExtractor

	// Probe returns a media duration in ms. Defaults to ffprobe.
	Probe func(ctx context.Context, path string) (int64, error)

	saving *semaphore.Weighted
	saved  atomic.Int64
}

func NewStoryProject(cfg *config.Config, r *render.Renderer, g gallery.Writer, t *trim.Trimmer, frames source.FrameExtractor) *StoryProject {
	return &StoryProject{
		Config:   cfg,
		Renderer: r,
		Gallery:  g,
		Trimmer:  t,
		Frames:   frames,
		Probe:    system.ProbeDuration,
		saving:   semaphore.NewWeighted(1),
	}
}

type SaveResult struct {
	Path   string
	Width  int
	Height int
	Decode time.Duration
	Render time.Duration
	Write  time.Duration
}

// Open resolves a background file using the project's frame extractor.
func (p *StoryProject) Open(path string) (source.Background, error) {
	bg, err := source.Open(path, p.Frames)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCouldNotCreateImage, err)
	}
	return bg, nil
}

// SaveSession snapshots an editor session and saves it.
func (p *StoryProject) SaveSession(ctx context.Context, bg source.Background, s *editor.Session) (SaveResult, error) {
	sc, err := s.Snapshot()
	if err != nil {
		return SaveResult{}, err
	}
	return p.Save(ctx, bg, sc)
}

// Save flattens scene over bg and writes the result to the gallery. Only one
// save runs at a time; a second call while one is in flight fails with
// ErrSavePending. The background is closed once the save finishes.
func (p *StoryProject) Save(ctx context.Context, bg source.Background, sc overlay.Scene) (SaveResult, error) {
	if !p.saving.TryAcquire(1) {
		return SaveResult{}, ErrSavePending
	}
	defer p.saving.Release(1)
	return p.save(ctx, bg, sc)
}

// Compose decodes bg and flattens sc over it at the background's native
// size. The bitmap is pooled: hand it to render.Release when done.
func (p *StoryProject) Compose(ctx context.Context, bg source.Background, sc overlay.Scene) (*image.RGBA, error) {
	var res SaveResult
	return p.compose(ctx, bg, sc, &res)
}

func (p *StoryProject) compose(ctx context.Context, bg source.Background, sc overlay.Scene, res *SaveResult) (*image.RGBA, error) {
	start := time.Now()
	img, err := bg.Decode(ctx)
	if err != nil {
		log.Printf("[!] Could not load background %s: %v", bg.Path(), err)
		return nil, fmt.Errorf("%w: %w", ErrCouldNotCreateImage, err)
	}
	res.Decode = time.Since(start)

	start = time.Now()
	out, err := p.Renderer.Render(ctx, img, sc)
	if err != nil {
		if errors.Is(err, render.ErrEmptyBackground) {
			return nil, fmt.Errorf("%w: %w", ErrCouldNotCreateImage, err)
		}
		return nil, err
	}
	res.Render = time.Since(start)
	res.Width, res.Height = out.Bounds().Dx(), out.Bounds().Dy()
	return out, nil
}

func (p *StoryProject) save(ctx context.Context, bg source.Background, sc overlay.Scene) (SaveResult, error) {
	defer bg.Close()
	var res SaveResult

	out, err := p.compose(ctx, bg, sc, &res)
	if err != nil {
		return res, err
	}
	defer render.Release(out)

	start := time.Now()
	res.Path, err = p.Gallery.Write(ctx, out)
	if err != nil {
		return res, fmt.Errorf("write story: %w", err)
	}
	res.Write = time.Since(start)
	p.saved.Add(1)

	fmt.Printf("[+++] Story saved: %s (%dx%d)\n", res.Path, res.Width, res.Height)
	if p.Config.ShowStats {
		p.report(ctx, bg, res)
	}
	return res, nil
}

// BatchItem is one background/scene pair for SaveAll.
type BatchItem struct {
	Background string
	Scene      overlay.Scene
}

// SaveAll composes several stories concurrently on Config.Workers workers.
// Results are in input order; the first failure cancels the rest.
func (p *StoryProject) SaveAll(ctx context.Context, items []BatchItem) ([]SaveResult, error) {
	results := make([]SaveResult, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, p.Config.Workers))

	for i, it := range items {
		i, it := i, it
		g.Go(func() error {
			bg, err := p.Open(it.Background)
			if err != nil {
				return fmt.Errorf("story %d: %w", i, err)
			}
			res, err := p.save(gctx, bg, it.Scene)
			if err != nil {
				return fmt.Errorf("story %d: %w", i, err)
			}
			results[i] = res
			fmt.Printf("[>] Ready: %d/%d\n", i+1, len(items))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// TrimRange probes a clip and returns the default selection with the
// configured limits.
func (p *StoryProject) TrimRange(ctx context.Context, path string) (trim.Range, error) {
	if _, err := os.Stat(path); err != nil {
		return trim.Range{}, err
	}
	ms, err := p.Probe(ctx, path)
	if err != nil {
		return trim.Range{}, err
	}
	return trim.NewRangeWithLimits(ms, p.Config.MinTrimGapMs, p.Config.MaxTrimMs)
}

// Trim starts cutting rng out of path. See trim.Trimmer.Start.
func (p *StoryProject) Trim(ctx context.Context, path string, rng trim.Range, onProgress func(float64)) (*trim.Job, error) {
	job, err := p.Trimmer.Start(ctx, path, rng, onProgress)
	if err != nil {
		return nil, err
	}
	fmt.Printf("[*] Trimming %s: %.3fs..%.3fs\n", filepath.Base(path), rng.Start().Seconds(), rng.End().Seconds())
	return job, nil
}

func (p *StoryProject) report(ctx context.Context, bg source.Background, res SaveResult) {
	fmt.Printf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Host: %s\n"+
			"Background: %s (%s)\n"+
			"Decode: %.3fs\n"+
			"Render: %.3fs\n"+
			"Write: %.3fs\n"+
			"Stories saved: %d\n"+
			"----------------------------\n",
		p.Config.BuildVersion, system.HostSummary(ctx),
		filepath.Base(bg.Path()), bg.Kind(),
		res.Decode.Seconds(), res.Render.Seconds(), res.Write.Seconds(),
		p.saved.Load(),
	)
}
