// Package scene reads and writes YAML descriptions of a composed story: the
// background plus its overlays. It is the input format of the CLI and the
// HTTP compose endpoint.
package scene

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/storyeditor/internal/editor"
	"github.com/ivlev/storyeditor/internal/overlay"
)

// File is the on-disk scene.
type File struct {
	Version    string    `yaml:"version"`
	Background string    `yaml:"background,omitempty"`
	ShareURL   string    `yaml:"share_url,omitempty"`
	Texts      []Text    `yaml:"texts,omitempty"`
	Location   *Location `yaml:"location,omitempty"`
}

type Text struct {
	Text     string  `yaml:"text"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	FontSize float64 `yaml:"font_size,omitempty"` // base size before scale
	Scale    float64 `yaml:"scale,omitempty"`
	Rotation float64 `yaml:"rotation,omitempty"` // degrees clockwise
	Color    string  `yaml:"color,omitempty"`    // #RRGGBB or #AARRGGBB
}

type Location struct {
	Name      string   `yaml:"name"`
	Latitude  *float64 `yaml:"lat,omitempty"`
	Longitude *float64 `yaml:"lon,omitempty"`
	X         float64  `yaml:"x"`
	Y         float64  `yaml:"y"`
}

const Version = "1.0"

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	return &f, nil
}

func ReadScene(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func WriteScene(f *File, path string) error {
	if f.Version == "" {
		f.Version = Version
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Session replays the file into a fresh editor session for a w x h display,
// so every overlay passes the same validation and clamping as one created
// by hand.
func (f *File) Session(w, h float64) (*editor.Session, error) {
	s := editor.NewSession(w, h)
	for i, t := range f.Texts {
		argb := overlay.DefaultTextColor
		if t.Color != "" {
			c, err := ParseColor(t.Color)
			if err != nil {
				return nil, fmt.Errorf("text %d: %w", i, err)
			}
			argb = c
		}
		o, err := s.AddText(t.Text, argb)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		o.PositionX = overlay.ClampUnit(t.X, 0.5)
		o.PositionY = overlay.ClampUnit(t.Y, 0.5)
		if t.FontSize > 0 {
			o.BaseFontSize = overlay.ClampFontSize(t.FontSize)
		}
		if t.Scale != 0 {
			o.Scale = overlay.ClampScale(t.Scale)
		}
		o.Rotation = overlay.NormalizeRotation(t.Rotation)
	}

	if f.Location != nil {
		loc, err := overlay.NewLocation(f.Location.Name, f.Location.Latitude, f.Location.Longitude)
		if err != nil {
			return nil, fmt.Errorf("location: %w", err)
		}
		if err := s.AttachLocation(loc); err != nil {
			return nil, fmt.Errorf("location: %w", err)
		}
		loc.PositionX = overlay.ClampUnit(f.Location.X, 0.5)
		loc.PositionY = overlay.ClampUnit(f.Location.Y, 0.5)
	}
	s.SetShareURL(f.ShareURL)
	return s, nil
}

// FromScene is the inverse of Session.
func FromScene(sc overlay.Scene, background string) *File {
	f := &File{Version: Version, Background: background, ShareURL: sc.ShareURL}
	for _, t := range sc.Texts {
		f.Texts = append(f.Texts, Text{
			Text:     t.Text,
			X:        t.PositionX,
			Y:        t.PositionY,
			FontSize: t.BaseFontSize,
			Scale:    t.Scale,
			Rotation: t.Rotation,
			Color:    FormatColor(t.TextColor),
		})
	}
	if sc.Location != nil {
		f.Location = &Location{
			Name:      sc.Location.Name,
			Latitude:  sc.Location.Latitude,
			Longitude: sc.Location.Longitude,
			X:         sc.Location.PositionX,
			Y:         sc.Location.PositionY,
		}
	}
	return f
}

// ParseColor accepts #RRGGBB (opaque) or #AARRGGBB.
func ParseColor(s string) (uint32, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q", s)
	}
	switch len(hex) {
	case 6:
		return 0xFF000000 | uint32(v), nil
	case 8:
		return uint32(v), nil
	}
	return 0, fmt.Errorf("invalid color %q", s)
}

func FormatColor(argb uint32) string {
	return fmt.Sprintf("#%08X", argb)
}
