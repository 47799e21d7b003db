package importer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func bulkRequest(n int) Request {
	rows := make([]RawRow, n)
	for i := range rows {
		rows[i] = RawRow{"Name": fmt.Sprintf("Strain %d", i), "Category": "Top Shelf"}
	}
	return Request{
		Rows:            rows,
		ColumnMapping:   map[string]string{"Name": "name", "Category": "shelf"},
		Mode:            ModeBulk,
		ExistingShelves: []Shelf{{ID: "top", Name: "Top Shelf"}},
	}
}

/*
TestImporterRunToCompletion starts a run through the controller, waits it
out, and checks the settled result plus the live progress accessor.
*/
func TestImporterRunToCompletion(t *testing.T) {
	t.Parallel()

	imp := NewImporter(Options{ChunkSize: 50})
	run, err := imp.Start(bulkRequest(120))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := run.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if res.Stats.TotalProcessed != 120 {
		t.Fatalf("processed = %d, want 120", res.Stats.TotalProcessed)
	}

	// After settling, Progress reflects the final chunk.
	if p := run.Progress(); p.Processed != 120 || p.Total != 120 {
		t.Fatalf("progress = %+v, want 120/120", p)
	}

	// Settled runs are idempotent to Wait.
	res2, err := run.Wait(context.Background())
	if err != nil || res2 != res {
		t.Fatalf("second Wait = (%p, %v), want same result", res2, err)
	}
}

// TestImporterSingleRun: a second Start while a run is in flight fails with
// ErrRunActive; once the first run settles, Start succeeds again.
func TestImporterSingleRun(t *testing.T) {
	t.Parallel()

	imp := NewImporter(Options{ChunkSize: 10})
	run, err := imp.Start(bulkRequest(10_000))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := imp.Start(bulkRequest(1)); !errors.Is(err, ErrRunActive) {
		t.Fatalf("concurrent Start err = %v, want ErrRunActive", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := run.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	run2, err := imp.Start(bulkRequest(5))
	if err != nil {
		t.Fatalf("Start after settle: %v", err)
	}
	if _, err := run2.Wait(ctx); err != nil {
		t.Fatalf("second run Wait: %v", err)
	}
}

// TestImporterCancel: a cancelled run settles with ErrCancelled and never
// yields a result, even when cancellation lands mid-run.
func TestImporterCancel(t *testing.T) {
	t.Parallel()

	imp := NewImporter(Options{ChunkSize: 1})
	run, err := imp.Start(bulkRequest(100_000))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	run.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := run.Wait(ctx)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("Wait err = %v, want ErrCancelled", err)
	}
	if res != nil {
		t.Fatalf("cancelled run yielded a result: %+v", res.Stats)
	}
}

// TestImporterCancelIdempotent: repeated Cancel calls are safe and still
// settle the run exactly once.
func TestImporterCancelIdempotent(t *testing.T) {
	t.Parallel()

	imp := NewImporter(Options{ChunkSize: 1})
	run, err := imp.Start(bulkRequest(50_000))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 3; i++ {
		run.Cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := run.Wait(ctx); !errors.Is(err, ErrCancelled) {
		t.Fatalf("Wait err = %v, want ErrCancelled", err)
	}
}

/*
TestRunGraceForcedSettle covers the unresponsive-worker path: the run is
built around a worker whose goroutine is never started, so cancellation can
only settle through the grace deadline. The run must report ErrCancelled and
leave the worker detached.
*/
func TestRunGraceForcedSettle(t *testing.T) {
	t.Parallel()

	w := newWorker(DefaultChunkSize)
	r := &Run{
		w:       w,
		grace:   10 * time.Millisecond,
		done:    make(chan struct{}),
		graceUp: make(chan struct{}),
	}
	go r.listen()

	r.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := r.Wait(ctx); !errors.Is(err, ErrCancelled) {
		t.Fatalf("Wait err = %v, want ErrCancelled", err)
	}

	// Detached workers drop their sends instead of blocking forever. The
	// message buffer is filled first so the drop path is the only one open.
	w.out <- progressMessage{}
	if w.send(progressMessage{}) {
		t.Fatalf("send succeeded after detach")
	}
}

// TestRunWaitContext: a Wait bounded by an expired context returns the
// context error without settling the run.
func TestRunWaitContext(t *testing.T) {
	t.Parallel()

	imp := NewImporter(Options{ChunkSize: 1})
	run, err := imp.Start(bulkRequest(200_000))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := run.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait err = %v, want context.Canceled", err)
	}
	if run.settled() {
		t.Fatalf("expired Wait settled the run")
	}

	run.Cancel()
	wctx, wcancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer wcancel()
	if _, err := run.Wait(wctx); !errors.Is(err, ErrCancelled) {
		t.Fatalf("final Wait err = %v, want ErrCancelled", err)
	}
}

// TestNewImporterDefaults: zero options select the documented defaults.
func TestNewImporterDefaults(t *testing.T) {
	t.Parallel()

	imp := NewImporter(Options{})
	if imp.opts.ChunkSize != DefaultChunkSize {
		t.Fatalf("chunk size = %d, want %d", imp.opts.ChunkSize, DefaultChunkSize)
	}
	if imp.opts.CancelGrace != DefaultCancelGrace {
		t.Fatalf("grace = %v, want %v", imp.opts.CancelGrace, DefaultCancelGrace)
	}
}
