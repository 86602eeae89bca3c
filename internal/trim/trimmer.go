package trim

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrBusy            = errors.New("a trim is already running")
	ErrCancelled       = errors.New("trim cancelled")
	ErrTranscodeFailed = errors.New("transcode failed")
)

type State int

const (
	Idle State = iota
	Trimming
	Completed
	Failed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Trimming:
		return "trimming"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

func (s State) Terminal() bool {
	return s == Completed || s == Failed || s == Cancelled
}

// Transcoder re-encodes the [start, end) window of input into output and
// reports progress as a fraction of the window.
type Transcoder interface {
	Transcode(ctx context.Context, input, output string, start, end time.Duration, progress func(float64)) error
}

// Trimmer runs at most one trim at a time.
type Trimmer struct {
	transcoder Transcoder
	outDir     string

	mu  sync.Mutex
	job *Job
}

func NewTrimmer(t Transcoder, outDir string) *Trimmer {
	return &Trimmer{transcoder: t, outDir: outDir}
}

// State reports the state of the latest job, or Idle.
func (t *Trimmer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.job == nil {
		return Idle
	}
	return t.job.State()
}

// Current returns the latest job, if any.
func (t *Trimmer) Current() *Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.job
}

// Start launches a trim. onProgress, if set, receives a non-decreasing
// fraction starting at 0 and ending at 1 on success; it is never called
// after the job was cancelled. Callbacks run on the job's goroutine and may
// query the trimmer.
func (t *Trimmer) Start(ctx context.Context, input string, rng Range, onProgress func(float64)) (*Job, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.job != nil && t.job.State() == Trimming {
		return nil, ErrBusy
	}

	if err := os.MkdirAll(t.outDir, 0755); err != nil {
		return nil, err
	}

	jobCtx, cancel := context.WithCancel(ctx)
	id := uuid.NewString()
	job := &Job{
		ID:         id,
		Input:      input,
		Range:      rng,
		output:     filepath.Join(t.outDir, fmt.Sprintf("trim_%s.mp4", id)),
		state:      Trimming,
		ctx:        jobCtx,
		cancel:     cancel,
		done:       make(chan struct{}),
		onProgress: onProgress,
	}
	t.job = job

	go job.run(t.transcoder)
	return job, nil
}

type Job struct {
	ID    string
	Input string
	Range Range

	output     string
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	onProgress func(float64)

	mu       sync.Mutex
	state    State
	progress float64
	reported bool
	err      error
	ended    time.Time
}

// Status is a point-in-time copy of a job.
type Status struct {
	ID       string
	State    State
	Progress float64
	Output   string    // set only when Completed
	Err      error
	Ended    time.Time // zero until the job is terminal
}

func (j *Job) run(tc Transcoder) {
	defer close(j.done)
	defer j.cancel()

	j.report(0)

	updates := make(chan float64, 16)
	g, gctx := errgroup.WithContext(j.ctx)

	g.Go(func() error {
		defer close(updates)
		return tc.Transcode(gctx, j.Input, j.output, j.Range.Start(), j.Range.End(), func(f float64) {
			select {
			case updates <- f:
			case <-gctx.Done():
			}
		})
	})
	g.Go(func() error {
		for f := range updates {
			j.report(f)
		}
		return nil
	})

	err := g.Wait()

	switch {
	case j.ctx.Err() != nil:
		j.discard()
		j.finish(Cancelled, ErrCancelled)
		log.Printf("[!] Trim %s cancelled", j.ID)
	case err != nil:
		j.discard()
		j.finish(Failed, fmt.Errorf("%w: %w", ErrTranscodeFailed, err))
		log.Printf("[!] Trim %s failed: %v", j.ID, err)
	default:
		if _, statErr := os.Stat(j.output); statErr != nil {
			j.finish(Failed, fmt.Errorf("%w: no output: %w", ErrTranscodeFailed, statErr))
			return
		}
		j.report(1)
		if j.finish(Completed, nil) != Completed {
			j.discard()
			log.Printf("[!] Trim %s cancelled", j.ID)
			return
		}
		log.Printf("[+++] Trim %s ready: %s", j.ID, j.output)
	}
}

// report clamps f into [0,1] and only ever moves progress forward.
func (j *Job) report(f float64) {
	if f != f { // NaN
		return
	}
	f = min(max(f, 0), 1)

	j.mu.Lock()
	if j.state != Trimming || j.ctx.Err() != nil || (j.reported && f <= j.progress) {
		j.mu.Unlock()
		return
	}
	j.progress = f
	j.reported = true
	cb := j.onProgress
	j.mu.Unlock()

	if cb != nil {
		cb(f)
	}
}

// finish records the final state. A job cancelled before it could complete
// ends as Cancelled.
func (j *Job) finish(s State, err error) State {
	j.mu.Lock()
	defer j.mu.Unlock()
	if s == Completed && j.ctx.Err() != nil {
		s, err = Cancelled, ErrCancelled
	}
	j.state = s
	j.err = err
	j.ended = time.Now()
	return s
}

func (j *Job) discard() {
	if err := os.Remove(j.output); err != nil && !os.IsNotExist(err) {
		log.Printf("[!] Could not remove partial output %s: %v", j.output, err)
	}
}

// Cancel asks the encoder to stop. It does not wait.
func (j *Job) Cancel() {
	j.cancel()
}

func (j *Job) Done() <-chan struct{} {
	return j.done
}

func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

func (j *Job) Progress() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.progress
}

func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	st := Status{ID: j.ID, State: j.state, Progress: j.progress, Err: j.err, Ended: j.ended}
	if j.state == Completed {
		st.Output = j.output
	}
	return st
}

// Wait blocks until the job ends and returns the trimmed file on success.
func (j *Job) Wait(ctx context.Context) (string, error) {
	select {
	case <-j.done:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	st := j.Status()
	if st.State != Completed {
		return "", st.Err
	}
	return st.Output, nil
}
