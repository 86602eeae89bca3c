package video

import (
	"slices"
	"strings"
	"testing"
	"time"
)

func TestBuildTrimArgs(t *testing.T) {
	args := BuildTrimArgs("in.mov", "out.mp4", 2500*time.Millisecond, 12*time.Second, "libx264", 23)

	want := [][]string{
		{"-ss", "2.500"},
		{"-i", "in.mov"},
		{"-t", "9.500"},
		{"-c:v", "libx264"},
		{"-crf", "23"},
		{"-c:a", "aac"},
		{"-progress", "pipe:1"},
	}
	for _, pair := range want {
		i := slices.Index(args, pair[0])
		if i < 0 || i+1 >= len(args) || args[i+1] != pair[1] {
			t.Errorf("Expected %s %s in %v", pair[0], pair[1], args)
		}
	}
	if slices.Index(args, "-ss") > slices.Index(args, "-i") {
		t.Error("Expected -ss before -i for input seeking")
	}
	if args[len(args)-1] != "out.mp4" {
		t.Errorf("Expected output last, got %s", args[len(args)-1])
	}
}

func TestQualityArgs(t *testing.T) {
	tests := []struct {
		encoder string
		quality int
		want    []string
	}{
		{"h264_videotoolbox", 75, []string{"-b:v", "7500k"}},
		{"h264_nvenc", 28, []string{"-cq", "28"}},
		{"libx264", 23, []string{"-crf", "23", "-preset", "medium"}},
		{"", 18, []string{"-crf", "18", "-preset", "medium"}},
	}
	for _, tt := range tests {
		if got := QualityArgs(tt.encoder, tt.quality); !slices.Equal(got, tt.want) {
			t.Errorf("%q: expected %v, got %v", tt.encoder, tt.want, got)
		}
	}
}

func TestReadProgress(t *testing.T) {
	out := strings.Join([]string{
		"frame=10",
		"out_time_us=1000000",
		"progress=continue",
		"out_time_ms=2000000",
		"out_time_us=N/A",
		"progress=continue",
		"out_time_us=9000000",
		"progress=end",
		"garbage",
	}, "\n")

	var got []float64
	err := ReadProgress(strings.NewReader(out), 4*time.Second, func(f float64) {
		got = append(got, f)
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0.25, 0.5, 1, 1}
	if !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestBuildFrameArgs(t *testing.T) {
	args := BuildFrameArgs("clip.mp4")
	if slices.Contains(args, "-ss") {
		t.Error("First frame must not seek")
	}
	i := slices.Index(args, "-frames:v")
	if i < 0 || args[i+1] != "1" {
		t.Errorf("Expected a single frame, got %v", args)
	}
	if args[len(args)-1] != "-" {
		t.Errorf("Expected stdout output, got %v", args)
	}
}
