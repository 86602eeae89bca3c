package trim

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

func TestNewRange(t *testing.T) {
	tests := []struct {
		name     string
		sourceMs int64
		wantEnd  int64
		wantErr  error
	}{
		{"long source", 120000, 30000, nil},
		{"short source", 12000, 12000, nil},
		{"exactly the gap", 1000, 1000, nil},
		{"too short", 999, 0, ErrSourceTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRange(tt.sourceMs)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			if err == nil && (r.StartMs != 0 || r.EndMs != tt.wantEnd) {
				t.Errorf("Expected [0, %d], got [%d, %d]", tt.wantEnd, r.StartMs, r.EndMs)
			}
		})
	}
}

func TestDragStartAgainstEnd(t *testing.T) {
	r, _ := NewRange(60000)
	r.DragEnd(26500)

	if got := r.DragStart(26000); got != 25500 {
		t.Errorf("Expected start to stop a second before end (25500), got %d", got)
	}
	if got := r.DragStart(-400); got != 0 {
		t.Errorf("Expected start 0, got %d", got)
	}
}

func TestDragEndAgainstStart(t *testing.T) {
	r, _ := NewRange(60000)
	r.DragStart(10000)
	r.DragEnd(50000)
	if r.EndMs != 40000 {
		t.Errorf("Expected end capped at start+max (40000), got %d", r.EndMs)
	}
	r.DragEnd(10200)
	if r.EndMs != 11000 {
		t.Errorf("Expected end held at start+gap (11000), got %d", r.EndMs)
	}

	short, _ := NewRange(20000)
	short.DragEnd(25000)
	if short.EndMs != 20000 {
		t.Errorf("Expected end capped at source length, got %d", short.EndMs)
	}
}

func TestDragKeepsRangeValid(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, source := range []int64{1000, 1500, 29999, 30000, 90000, 600000} {
		r, err := NewRange(source)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 2000; i++ {
			target := rng.Int63n(source+20000) - 10000
			if rng.Intn(2) == 0 {
				r.DragStart(target)
			} else {
				r.DragEnd(target)
			}
			if err := r.Validate(); err != nil {
				t.Fatalf("source %d, step %d: %v", source, i, err)
			}
		}
	}
}

func TestRangeDurations(t *testing.T) {
	r, _ := NewRange(90000)
	r.DragEnd(40000)
	r.DragStart(12500)
	if r.Start() != 12500*time.Millisecond || r.End() != 40*time.Second {
		t.Errorf("Unexpected bounds %v..%v", r.Start(), r.End())
	}
	if r.Duration() != 27500*time.Millisecond {
		t.Errorf("Expected 27.5s, got %v", r.Duration())
	}
}

func TestValidateRejects(t *testing.T) {
	bad := []Range{
		{StartMs: -1, EndMs: 2000, SourceMs: 5000, MinGapMs: 1000, MaxMs: 30000},
		{StartMs: 0, EndMs: 6000, SourceMs: 5000, MinGapMs: 1000, MaxMs: 30000},
		{StartMs: 1000, EndMs: 1500, SourceMs: 5000, MinGapMs: 1000, MaxMs: 30000},
		{StartMs: 0, EndMs: 40000, SourceMs: 50000, MinGapMs: 1000, MaxMs: 30000},
		{StartMs: 0, EndMs: 2000, SourceMs: 5000},
	}
	for i, r := range bad {
		if err := r.Validate(); !errors.Is(err, ErrInvalidRange) {
			t.Errorf("case %d: expected ErrInvalidRange, got %v", i, err)
		}
	}
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name       string
		start, end int64
		wantStart  int64
		wantEnd    int64
	}{
		{"inside", 40000, 55000, 40000, 55000},
		{"too long", 10000, 80000, 10000, 40000},
		{"too short", 20000, 20300, 20000, 21000},
		{"past the end", 85000, 99000, 85000, 90000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := NewRange(90000)
			r.Select(tt.start, tt.end)
			if r.StartMs != tt.wantStart || r.EndMs != tt.wantEnd {
				t.Errorf("Expected [%d, %d], got [%d, %d]", tt.wantStart, tt.wantEnd, r.StartMs, r.EndMs)
			}
			if err := r.Validate(); err != nil {
				t.Error(err)
			}
		})
	}
}
