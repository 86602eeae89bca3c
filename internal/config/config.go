package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

type Config struct {
	OutputDir      string `yaml:"output_dir"`
	ImageFormat    string `yaml:"image_format"` // png, jpeg
	JPEGQuality    int    `yaml:"jpeg_quality"`
	VideoEncoder   string `yaml:"video_encoder"`
	Quality        int    `yaml:"quality"`
	MaxTrimMs      int64  `yaml:"max_trim_ms"`
	MinTrimGapMs   int64  `yaml:"min_trim_gap_ms"`
	ReferenceWidth int    `yaml:"reference_width"`
	FontPath       string `yaml:"font_path"` // TTF/OTF; empty uses Go Regular
	ListenAddr     string `yaml:"listen_addr"`
	MediaDir       string `yaml:"media_dir"` // clips the HTTP API may trim
	Workers        int    `yaml:"workers"`
	ShowStats      bool   `yaml:"show_stats"`
	BuildVersion   string `yaml:"-"`
}

func Default() *Config {
	return &Config{
		OutputDir:      "output",
		ImageFormat:    "png",
		JPEGQuality:    92,
		MaxTrimMs:      30000,
		MinTrimGapMs:   1000,
		ReferenceWidth: 1080,
		ListenAddr:     ":8080",
		MediaDir:       "input/media",
		Workers:        runtime.NumCPU(),
	}
}

// Load reads a YAML config file on top of the defaults.
// An empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.ImageFormat {
	case "png", "jpeg", "jpg":
	default:
		return fmt.Errorf("unsupported image format %q", c.ImageFormat)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality must be in [1,100], got %d", c.JPEGQuality)
	}
	if c.MinTrimGapMs <= 0 {
		return fmt.Errorf("min trim gap must be positive, got %d", c.MinTrimGapMs)
	}
	if c.MaxTrimMs < c.MinTrimGapMs {
		return fmt.Errorf("max trim %dms is shorter than min gap %dms", c.MaxTrimMs, c.MinTrimGapMs)
	}
	if c.ReferenceWidth <= 0 {
		return fmt.Errorf("reference width must be positive, got %d", c.ReferenceWidth)
	}
	if c.MediaDir == "" {
		return fmt.Errorf("media dir must be set")
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return nil
}

// DefaultQuality mirrors the per-encoder defaults used for segment encoding.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75 // bitrate = Q*100 kbit/s
	case "h264_nvenc":
		return 28
	default:
		return 23 // x264 CRF
	}
}
