package scene

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ivlev/storyeditor/internal/overlay"
)

const sample = `
version: "1.0"
background: beach.jpg
share_url: https://example.com/s/42
texts:
  - text: Sunset
    x: 0.3
    y: 0.8
    scale: 9
    rotation: -90
    color: "#FF0000"
  - text: Day 2
    x: 1.7
    y: -0.2
location:
  name: Anjuna, North Goa, Goa
  lat: 15.58
  x: 0.5
  y: 0.1
`

func TestParseToSession(t *testing.T) {
	f, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if f.Background != "beach.jpg" || len(f.Texts) != 2 {
		t.Fatalf("Unexpected file: %+v", f)
	}

	s, err := f.Session(1080, 1920)
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	sc, err := s.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	first := sc.Texts[0]
	if first.Scale != overlay.MaxScale {
		t.Errorf("Expected scale clamped to %v, got %v", overlay.MaxScale, first.Scale)
	}
	if first.Rotation != 270 {
		t.Errorf("Expected rotation 270, got %v", first.Rotation)
	}
	if first.TextColor != 0xFFFF0000 {
		t.Errorf("Expected opaque red, got %08X", first.TextColor)
	}

	second := sc.Texts[1]
	if second.PositionX != 1 || second.PositionY != 0 {
		t.Errorf("Expected position clamped to (1,0), got (%v,%v)", second.PositionX, second.PositionY)
	}
	if second.TextColor != overlay.DefaultTextColor || second.Scale != 1 {
		t.Errorf("Expected defaults, got %+v", second)
	}

	if sc.Location == nil || sc.Location.PositionY != 0.1 || sc.Location.Longitude != nil {
		t.Errorf("Unexpected location %+v", sc.Location)
	}
	if sc.ShareURL != "https://example.com/s/42" {
		t.Errorf("Unexpected share url %q", sc.ShareURL)
	}
}

func TestSessionRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		file File
	}{
		{"blank text", File{Texts: []Text{{Text: "   "}}}},
		{"bad color", File{Texts: []Text{{Text: "hi", Color: "red"}}}},
		{"blank location", File{Location: &Location{Name: ""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.file.Session(100, 100); err == nil {
				t.Error("Expected error")
			}
		})
	}

	_, err := (&File{Texts: []Text{{Text: ""}}}).Session(100, 100)
	if !errors.Is(err, overlay.ErrEmptyText) {
		t.Errorf("Expected ErrEmptyText, got %v", err)
	}
}

func TestWriteReadScene(t *testing.T) {
	s, _ := (&File{Texts: []Text{{Text: "hello", X: 0.25, Y: 0.75, Rotation: 45, Color: "#80102030"}}}).Session(200, 200)
	sc, _ := s.Snapshot()

	path := filepath.Join(t.TempDir(), "story.yaml")
	if err := WriteScene(FromScene(sc, "bg.png"), path); err != nil {
		t.Fatalf("WriteScene failed: %v", err)
	}
	f, err := ReadScene(path)
	if err != nil {
		t.Fatalf("ReadScene failed: %v", err)
	}
	if f.Version != Version || f.Background != "bg.png" {
		t.Errorf("Unexpected header %+v", f)
	}
	got := f.Texts[0]
	if got.Text != "hello" || got.X != 0.25 || got.Rotation != 45 || got.Color != "#80102030" {
		t.Errorf("Unexpected text %+v", got)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"#FFFFFF", 0xFFFFFFFF, false},
		{"00ff00", 0xFF00FF00, false},
		{"#80FF0000", 0x80FF0000, false},
		{"#FFF", 0, true},
		{"#GGGGGG", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseColor(%q) = %08X, %v", tt.in, got, err)
		}
	}
}
