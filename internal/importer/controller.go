package importer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrCancelled is the terminal outcome of a cancelled run. Callers can
	// distinguish it from genuine failures with errors.Is.
	ErrCancelled = errors.New("import cancelled")

	// ErrRunActive is returned by Start while another run is in flight.
	ErrRunActive = errors.New("an import run is already active")
)

// Defaults for the two runtime tunables.
const (
	DefaultChunkSize   = 100
	DefaultCancelGrace = 5 * time.Second
)

// Options tunes an Importer. Zero values select the defaults.
type Options struct {
	// ChunkSize is the number of rows processed atomically between
	// cooperative yield points.
	ChunkSize int

	// CancelGrace bounds how long Cancel waits for the worker to
	// acknowledge before the run is settled as cancelled anyway.
	CancelGrace time.Duration
}

// Importer is the host-side controller. It owns worker lifetime end to end:
// a worker goroutine is spawned lazily per run, at most one run is in
// flight, and every run settles exactly once even when the worker never
// acknowledges a cancellation.
type Importer struct {
	mu     sync.Mutex
	active *Run
	opts   Options
}

// NewImporter builds a controller with the given options.
func NewImporter(opts Options) *Importer {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.CancelGrace <= 0 {
		opts.CancelGrace = DefaultCancelGrace
	}
	return &Importer{opts: opts}
}

// Start launches one run and returns its handle. A second Start while a run
// is active fails with ErrRunActive.
func (imp *Importer) Start(req Request) (*Run, error) {
	imp.mu.Lock()
	defer imp.mu.Unlock()

	if imp.active != nil && !imp.active.settled() {
		return nil, ErrRunActive
	}

	w := newWorker(imp.opts.ChunkSize)
	r := &Run{
		w:       w,
		grace:   imp.opts.CancelGrace,
		done:    make(chan struct{}),
		graceUp: make(chan struct{}),
	}
	imp.active = r

	go w.run(req)
	go r.listen()
	return r, nil
}

// Run is the handle for one in-flight or settled run.
type Run struct {
	w     *worker
	grace time.Duration

	progress atomic.Value // Progress

	done    chan struct{}
	graceUp chan struct{}

	cancelOnce sync.Once
	graceTimer atomic.Pointer[time.Timer]

	finishOnce sync.Once
	result     *RunResult
	err        error
}

// listen drains the worker's message stream, mirroring progress into the
// live accessor and settling the run on the terminal message. If the
// cancellation grace period elapses first, the run settles as cancelled and
// the worker is detached; its remaining sends are dropped so the goroutine
// exits on its own.
func (r *Run) listen() {
	for {
		select {
		case m := <-r.w.out:
			switch v := m.(type) {
			case progressMessage:
				r.progress.Store(v.Progress)
			case completeMessage:
				r.finish(v.result, nil)
				return
			case errorMessage:
				r.finish(nil, v.err)
				return
			}
		case <-r.graceUp:
			r.finish(nil, ErrCancelled)
			return
		}
	}
}

func (r *Run) finish(res *RunResult, err error) {
	r.finishOnce.Do(func() {
		r.result = res
		r.err = err
		if t := r.graceTimer.Load(); t != nil {
			t.Stop()
		}
		close(r.w.detached)
		close(r.done)
	})
}

// Cancel requests cooperative cancellation and arms the grace deadline.
// The run is guaranteed to settle within the grace period: either the worker
// acknowledges at a chunk boundary, or the deadline fires and the run is
// settled as cancelled regardless.
func (r *Run) Cancel() {
	r.cancelOnce.Do(func() {
		r.w.requestCancel()
		r.graceTimer.Store(time.AfterFunc(r.grace, func() { close(r.graceUp) }))
	})
}

// Wait blocks until the run settles or ctx expires. A cancelled run reports
// ErrCancelled; waiting out a ctx does not settle or abandon the run.
func (r *Run) Wait(ctx context.Context) (*RunResult, error) {
	select {
	case <-r.done:
		return r.result, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Progress returns the latest progress message, or a zero Progress before
// the first chunk completes.
func (r *Run) Progress() Progress {
	if p, ok := r.progress.Load().(Progress); ok {
		return p
	}
	return Progress{}
}

// Done exposes the settle signal for select-based callers (e.g. a UI loop
// polling Progress).
func (r *Run) Done() <-chan struct{} { return r.done }

func (r *Run) settled() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}
