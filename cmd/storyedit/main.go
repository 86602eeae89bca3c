package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ivlev/storyeditor/internal/api"
	"github.com/ivlev/storyeditor/internal/config"
	"github.com/ivlev/storyeditor/internal/engine"
	"github.com/ivlev/storyeditor/internal/gallery"
	"github.com/ivlev/storyeditor/internal/render"
	"github.com/ivlev/storyeditor/internal/scene"
	"github.com/ivlev/storyeditor/internal/system"
	"github.com/ivlev/storyeditor/internal/trim"
	"github.com/ivlev/storyeditor/internal/video"
)

var version = "dev"

const shutdownTimeout = 15 * time.Second

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: storyedit <command> [flags]

Commands:
  compose   render one or more scene files into story images
  trim      cut a clip out of a video
  serve     run the HTTP API
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	system.InitResourceLimits()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "compose":
		err = runCompose(args)
	case "trim":
		err = runTrim(args)
	case "serve":
		err = runServe(args)
	case "-h", "-help", "--help", "help":
		usage()
		return
	default:
		usage()
		log.Fatalf("[-] Unknown command %q", cmd)
	}
	if err != nil {
		log.Fatalf("[-] %v", err)
	}
}

// commonFlags registers the settings every command shares. Explicit flags
// override the YAML config file.
type commonFlags struct {
	configPath *string
	outputDir  *string
	format     *string
	encoder    *string
	quality    *int
	workers    *int
	fontPath   *string
	stats      *bool
}

func registerCommon(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		configPath: fs.String("config", "", "Path to a YAML config file"),
		outputDir:  fs.String("output", "", "Output directory (default from config: output)"),
		format:     fs.String("format", "", "Story image format: png, jpeg"),
		encoder:    fs.String("encoder", "", "H.264 encoder (empty: auto-detect)"),
		quality:    fs.Int("quality", 0, "Video quality (0 - auto, x264: CRF 1-51, VideoToolbox: bitrate = Q*100kbit/s)"),
		workers:    fs.Int("workers", 0, "Concurrent compositions (default: all CPUs)"),
		fontPath:   fs.String("font", "", "TTF/OTF font for overlay text (empty: Go Regular)"),
		stats:      fs.Bool("stats", false, "Print a performance report"),
	}
}

func (c *commonFlags) load(fs *flag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(*c.configPath)
	if err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "output":
			cfg.OutputDir = *c.outputDir
		case "format":
			cfg.ImageFormat = *c.format
		case "encoder":
			cfg.VideoEncoder = *c.encoder
		case "quality":
			cfg.Quality = *c.quality
		case "workers":
			if *c.workers > 0 {
				cfg.Workers = *c.workers
			}
		case "font":
			cfg.FontPath = *c.fontPath
		case "stats":
			cfg.ShowStats = *c.stats
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.VideoEncoder == "" {
		cfg.VideoEncoder = system.GetBestH264Encoder()
		if cfg.VideoEncoder != "libx264" {
			fmt.Printf("[*] Hardware acceleration detected: %s\n", cfg.VideoEncoder)
		}
	}
	if cfg.Quality == 0 {
		cfg.Quality = config.DefaultQuality(cfg.VideoEncoder)
	}
	cfg.BuildVersion = version
	return cfg, nil
}

func newProject(cfg *config.Config) (*engine.StoryProject, error) {
	r, err := render.NewRenderer(float64(cfg.ReferenceWidth), cfg.FontPath)
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	g := gallery.NewFileGallery(cfg.OutputDir, cfg.ImageFormat, cfg.JPEGQuality)
	t := trim.NewTrimmer(video.NewFFmpegTranscoder(cfg.VideoEncoder, cfg.Quality), filepath.Join(cfg.OutputDir, "clips"))
	return engine.NewStoryProject(cfg, r, g, t, &video.FFmpegFrameExtractor{}), nil
}

func runCompose(args []string) error {
	fs := flag.NewFlagSet("compose", flag.ExitOnError)
	common := registerCommon(fs)
	bgPtr := fs.String("bg", "", "Background photo or video (overrides the scene's background)")
	initPtr := fs.Bool("init", false, "Write a starter scene for -bg into "+scene.DefaultDir+" and exit")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: storyedit compose [flags] [scene.yaml ...]")
		fmt.Fprintln(os.Stderr, "Without scene files the newest one in "+scene.DefaultDir+" is used.")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if *initPtr {
		return initScene(*bgPtr)
	}

	paths := fs.Args()
	if len(paths) == 0 && *bgPtr == "" {
		latest, err := scene.FindLatest(scene.DefaultDir)
		if err != nil {
			fs.Usage()
			return fmt.Errorf("%w. Put a scene file into %s/", err, scene.DefaultDir)
		}
		fmt.Printf("[*] Using scene: %s\n", latest)
		paths = []string{latest}
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	p, err := newProject(cfg)
	if err != nil {
		return err
	}

	var items []engine.BatchItem
	if len(paths) == 0 {
		items = append(items, engine.BatchItem{Background: *bgPtr})
	}
	for _, path := range paths {
		item, err := loadItem(path, *bgPtr, float64(cfg.ReferenceWidth))
		if err != nil {
			return err
		}
		items = append(items, item)
	}

	fmt.Println("--- [STORY EDITOR: COMPOSE] ---")
	fmt.Printf("[*] Stories: %d | Format: %s | Workers: %d\n", len(items), cfg.ImageFormat, cfg.Workers)
	fmt.Println("-----------------------------")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := p.SaveAll(ctx, items)
	if err != nil {
		return err
	}
	for _, res := range results {
		fmt.Printf("[+++] Success! Result: %s\n", res.Path)
	}
	return nil
}

func initScene(bg string) error {
	if bg == "" {
		return errors.New("-init needs -bg")
	}
	if err := os.MkdirAll(scene.DefaultDir, 0755); err != nil {
		return err
	}
	abs, err := filepath.Abs(bg)
	if err != nil {
		return err
	}
	f := &scene.File{
		Background: abs,
		Texts:      []scene.Text{{Text: "Your text", X: 0.5, Y: 0.5, Color: "#FFFFFFFF"}},
	}
	path := scene.GeneratePath(scene.DefaultDir, time.Now())
	if err := scene.WriteScene(f, path); err != nil {
		return err
	}
	fmt.Printf("[+++] Success! Scene saved: %s\n", path)
	return nil
}

// loadItem reads a scene file. Relative backgrounds resolve against the
// scene file's directory.
func loadItem(path, bgOverride string, refWidth float64) (engine.BatchItem, error) {
	f, err := scene.ReadScene(path)
	if err != nil {
		return engine.BatchItem{}, fmt.Errorf("scene %s: %w", path, err)
	}
	bg := bgOverride
	if bg == "" {
		bg = f.Background
		if bg != "" && !filepath.IsAbs(bg) {
			bg = filepath.Join(filepath.Dir(path), bg)
		}
	}
	if bg == "" {
		return engine.BatchItem{}, fmt.Errorf("scene %s: no background", path)
	}

	// Geometry is normalized; the session size only affects gestures.
	sess, err := f.Session(sessionWidth, sessionHeight)
	if err != nil {
		return engine.BatchItem{}, fmt.Errorf("scene %s: %w", path, err)
	}
	sess.SetReferenceWidth(refWidth)
	snap, err := sess.Snapshot()
	if err != nil {
		return engine.BatchItem{}, err
	}
	return engine.BatchItem{Background: bg, Scene: snap}, nil
}

const (
	sessionWidth  = 1080
	sessionHeight = 1920
)

func runTrim(args []string) error {
	fs := flag.NewFlagSet("trim", flag.ExitOnError)
	common := registerCommon(fs)
	inputPtr := fs.String("input", "", "Source video")
	startPtr := fs.Int64("start", 0, "Clip start in milliseconds")
	endPtr := fs.Int64("end", -1, "Clip end in milliseconds (-1: start + max clip length)")
	fs.Parse(args)

	if *inputPtr == "" {
		fs.Usage()
		return errors.New("-input is required")
	}
	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	p, err := newProject(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rng, err := p.TrimRange(ctx, *inputPtr)
	if err != nil {
		return fmt.Errorf("probe %s: %w", *inputPtr, err)
	}
	end := *endPtr
	if end < 0 {
		end = *startPtr + cfg.MaxTrimMs
	}
	rng.Select(*startPtr, end)
	if rng.StartMs != *startPtr || rng.EndMs != end {
		fmt.Printf("[!] Range adjusted to %dms..%dms\n", rng.StartMs, rng.EndMs)
	}

	lastPct := -1
	job, err := p.Trim(ctx, *inputPtr, rng, func(f float64) {
		if pct := int(f * 100); pct/10 != lastPct/10 {
			lastPct = pct
			fmt.Printf("[>] Trim: %d%%\n", pct)
		}
	})
	if err != nil {
		return err
	}

	return finishTrim(job)
}

// finishTrim waits for job. A cancelled trim is not an error.
func finishTrim(job *trim.Job) error {
	out, err := job.Wait(context.Background())
	if errors.Is(err, trim.ErrCancelled) {
		log.Println("[!] Trim cancelled")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("[+++] Success! Result: %s\n", out)
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	common := registerCommon(fs)
	addrPtr := fs.String("addr", "", "Listen address (default from config: :8080)")
	mediaPtr := fs.String("media", "", "Directory the trim API may read clips from (default from config: input/media)")
	fs.Parse(args)

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	if *addrPtr != "" {
		cfg.ListenAddr = *addrPtr
	}
	if *mediaPtr != "" {
		cfg.MediaDir = *mediaPtr
	}
	p, err := newProject(cfg)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.NewRouter(api.NewHandler(p)),
	}

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("[*] Server starting on %s (%s)", cfg.ListenAddr, system.HostSummary(context.Background()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[-] Server error: %v", err)
		}
	}()

	<-shutdownSignal
	log.Println("[*] Shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if job := p.Trimmer.Current(); job != nil {
		job.Cancel()
	}
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Println("[+++] Server stopped")
	return nil
}
