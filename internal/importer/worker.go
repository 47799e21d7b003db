package importer

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/TheBurd/mango-cannabis-flower-menu-builder-sub000/internal/metrics"
)

// metricsJob labels all metrics emitted by import runs.
const metricsJob = "menu_import"

// stageProcessing is the stage string carried on progress messages while the
// chunk loop is running; it is the only stage the current pipeline has.
const stageProcessing = "processing rows"

// message is the worker -> controller protocol: zero or more progress
// messages followed by exactly one terminal completeMessage or errorMessage.
type message interface{ isMessage() }

type progressMessage struct{ Progress }

type completeMessage struct{ result *RunResult }

type errorMessage struct{ err error }

func (progressMessage) isMessage() {}
func (completeMessage) isMessage() {}
func (errorMessage) isMessage()    {}

// worker executes one run on its own goroutine. The cancellation flag and
// the id pool are owned exclusively by the worker; the controller's
// single-run contract means no locking is needed around them.
type worker struct {
	pool      *idPool
	chunkSize int
	cancelled atomic.Bool
	out       chan message
	detached  chan struct{} // closed by the controller when it stops listening
}

func newWorker(chunkSize int) *worker {
	return &worker{
		pool:      newIDPool(),
		chunkSize: chunkSize,
		out:       make(chan message, 1),
		detached:  make(chan struct{}),
	}
}

// requestCancel flips the cooperative cancellation flag. The loop observes
// it at chunk boundaries only; a chunk in flight always runs to completion.
func (w *worker) requestCancel() { w.cancelled.Store(true) }

// send delivers a message unless the controller has detached from this run,
// in which case the message is dropped so the goroutine can exit.
func (w *worker) send(m message) bool {
	select {
	case w.out <- m:
		return true
	case <-w.detached:
		return false
	}
}

// run processes the whole request and emits the terminal message. Rows are
// partitioned into fixed-size chunks processed atomically; after each chunk
// the worker reports progress and yields so a pending cancellation can be
// observed before the next chunk starts.
func (w *worker) run(req Request) {
	start := time.Now()

	res := &RunResult{ShelfAssignments: map[string][]Record{}}
	defer func() {
		// A fault outside per-row scope is run-fatal: the run's single
		// outcome becomes the error, and no partial result is emitted.
		if r := recover(); r != nil {
			w.send(errorMessage{fmt.Errorf("import failed: %v", r)})
			metrics.RecordStep(metricsJob, "run", fmt.Errorf("%v", r), time.Since(start))
		}
	}()

	if !req.Mode.Valid() {
		w.send(errorMessage{fmt.Errorf("unknown import mode %q", req.Mode)})
		return
	}

	fm := invertMapping(req.ColumnMapping)
	shelves := newShelfIndex(req.ExistingShelves, req.AllowCreateShelves, w.pool)
	total := len(req.Rows)

	for chunkStart := 0; chunkStart < total; chunkStart += w.chunkSize {
		if w.cancelled.Load() {
			w.send(errorMessage{ErrCancelled})
			metrics.RecordStep(metricsJob, "run", ErrCancelled, time.Since(start))
			return
		}

		chunkEnd := chunkStart + w.chunkSize
		if chunkEnd > total {
			chunkEnd = total
		}
		for i := chunkStart; i < chunkEnd; i++ {
			w.processRow(res, shelves, fm, req.Mode, req.Rows[i], i)
		}

		if !w.send(progressMessage{Progress{Processed: chunkEnd, Total: total, Stage: stageProcessing}}) {
			return
		}
		runtime.Gosched()
	}

	res.CreatedShelves = shelves.created
	if res.SkippedRows == nil {
		res.SkippedRows = []SkippedRow{}
	}
	res.Stats.TotalSkipped = len(res.SkippedRows)

	metrics.RecordRow(metricsJob, "processed", int64(res.Stats.TotalProcessed))
	metrics.RecordRow(metricsJob, "skipped", int64(res.Stats.TotalSkipped))
	metrics.RecordShelves(metricsJob, int64(len(res.CreatedShelves)))
	metrics.RecordStep(metricsJob, "run", nil, time.Since(start))

	w.send(completeMessage{res})
}

// processRow turns one raw row into a Record or a SkippedRow. Any panic
// while handling the row is converted into a skip with a diagnostic reason;
// one bad row never aborts the run.
func (w *worker) processRow(res *RunResult, shelves *shelfIndex, fm fieldMapping, mode Mode, row RawRow, i int) {
	// 1-based row index, offset past the header line.
	rowIndex := i + 2

	skip := func(reason string) {
		res.SkippedRows = append(res.SkippedRows, SkippedRow{RowIndex: rowIndex, RowData: row, Reason: reason})
	}
	defer func() {
		if r := recover(); r != nil {
			skip(fmt.Sprintf("row processing failed: %v", r))
		}
	}()

	name := cleanField(fm.lookup(row, FieldName))
	if name == "" {
		skip("missing name")
		return
	}

	label := cleanField(fm.lookup(row, FieldShelf))
	shake := mode == ModePrepackaged && isShake(name)
	shelfID, attempted, ok := shelves.resolve(mode, label, shake)
	if !ok {
		if label == "" {
			skip("missing category")
			return
		}
		reason := fmt.Sprintf("unresolved category %q", label)
		if len(attempted) > 1 {
			reason = fmt.Sprintf("unresolved category %q (tried %q)", label, attempted)
		}
		skip(reason)
		return
	}

	var rec Record
	switch mode {
	case ModePrepackaged:
		rec = &Product{
			ID:       w.pool.get(),
			Name:     name,
			Brand:    cleanField(fm.lookup(row, FieldBrand)),
			THC:      extractNumeric(fm.lookup(row, FieldTHC)),
			Terpenes: extractNumeric(fm.lookup(row, FieldTerpenes)),
			Price:    parsePrice(fm.lookup(row, FieldPrice)),
			Type:     normalizeStrainType(fm.lookup(row, FieldType)),
			SoldOut:  parseBool(fm.lookup(row, FieldSoldOut), soldOutWords),
			LowStock: parseBool(fm.lookup(row, FieldLowStock), lowStockWords),
			Notes:    cleanField(fm.lookup(row, FieldNotes)),
		}
		if shake {
			res.Stats.ShakeCount++
		} else {
			res.Stats.FlowerCount++
		}
	default:
		rec = &Strain{
			ID:       w.pool.get(),
			Name:     name,
			Grower:   cleanField(fm.lookup(row, FieldGrower)),
			THC:      extractNumeric(fm.lookup(row, FieldTHC)),
			Terpenes: extractNumeric(fm.lookup(row, FieldTerpenes)),
			Type:     normalizeStrainType(fm.lookup(row, FieldType)),
			SoldOut:  parseBool(fm.lookup(row, FieldSoldOut), soldOutWords),
			LastJar:  parseBool(fm.lookup(row, FieldLastJar), lastJarWords),
			Notes:    cleanField(fm.lookup(row, FieldNotes)),
		}
	}

	res.ShelfAssignments[shelfID] = append(res.ShelfAssignments[shelfID], rec)
	res.Stats.TotalProcessed++
}
