// Package trim cuts a selected window out of a source video.
package trim

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultMinGapMs int64 = 1000
	DefaultMaxMs    int64 = 30000
)

var (
	ErrSourceTooShort = errors.New("source is shorter than the minimum clip")
	ErrInvalidRange   = errors.New("invalid trim range")
)

// Range is the [start, end] window selected with the two trim handles.
// Each handle is bounded by the other: the window is never shorter than
// MinGapMs nor longer than MaxMs, and never leaves [0, SourceMs].
type Range struct {
	StartMs  int64
	EndMs    int64
	SourceMs int64
	MinGapMs int64
	MaxMs    int64
}

// NewRange selects the first MaxMs of the source (or all of it).
func NewRange(sourceMs int64) (Range, error) {
	return NewRangeWithLimits(sourceMs, DefaultMinGapMs, DefaultMaxMs)
}

func NewRangeWithLimits(sourceMs, minGapMs, maxMs int64) (Range, error) {
	if minGapMs <= 0 || maxMs < minGapMs {
		return Range{}, fmt.Errorf("%w: limits gap=%d max=%d", ErrInvalidRange, minGapMs, maxMs)
	}
	if sourceMs < minGapMs {
		return Range{}, fmt.Errorf("%w: %dms < %dms", ErrSourceTooShort, sourceMs, minGapMs)
	}
	return Range{
		StartMs:  0,
		EndMs:    min(sourceMs, maxMs),
		SourceMs: sourceMs,
		MinGapMs: minGapMs,
		MaxMs:    maxMs,
	}, nil
}

// DragStart moves the start handle to ms, clamped against the end handle.
func (r *Range) DragStart(ms int64) int64 {
	lo := max(0, r.EndMs-r.MaxMs)
	hi := r.EndMs - r.MinGapMs
	r.StartMs = clampMs(ms, lo, hi)
	return r.StartMs
}

// DragEnd moves the end handle to ms, clamped against the start handle.
func (r *Range) DragEnd(ms int64) int64 {
	lo := r.StartMs + r.MinGapMs
	hi := min(r.SourceMs, r.StartMs+r.MaxMs)
	r.EndMs = clampMs(ms, lo, hi)
	return r.EndMs
}

// Select places both handles at once. The start wins: it is only clamped to
// the source, and the end is then clamped against it.
func (r *Range) Select(startMs, endMs int64) {
	r.StartMs = clampMs(startMs, 0, r.SourceMs-r.MinGapMs)
	r.EndMs = clampMs(endMs, r.StartMs+r.MinGapMs, min(r.SourceMs, r.StartMs+r.MaxMs))
}

func (r Range) Validate() error {
	switch {
	case r.MinGapMs <= 0 || r.MaxMs < r.MinGapMs:
		return fmt.Errorf("%w: limits gap=%d max=%d", ErrInvalidRange, r.MinGapMs, r.MaxMs)
	case r.StartMs < 0 || r.EndMs > r.SourceMs:
		return fmt.Errorf("%w: [%d, %d] outside [0, %d]", ErrInvalidRange, r.StartMs, r.EndMs, r.SourceMs)
	case r.EndMs-r.StartMs < r.MinGapMs:
		return fmt.Errorf("%w: %dms shorter than %dms", ErrInvalidRange, r.EndMs-r.StartMs, r.MinGapMs)
	case r.EndMs-r.StartMs > r.MaxMs:
		return fmt.Errorf("%w: %dms longer than %dms", ErrInvalidRange, r.EndMs-r.StartMs, r.MaxMs)
	}
	return nil
}

func (r Range) Start() time.Duration { return time.Duration(r.StartMs) * time.Millisecond }

func (r Range) End() time.Duration { return time.Duration(r.EndMs) * time.Millisecond }

func (r Range) Duration() time.Duration { return r.End() - r.Start() }

func clampMs(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
