package metrics

import (
	"errors"
	"testing"
	"time"
)

type capturedCall struct {
	name   string
	value  float64
	labels Labels
}

type captureBackend struct {
	counters  []capturedCall
	durations []capturedCall
	flushed   int
}

func (c *captureBackend) IncCounter(name string, delta float64, labels Labels) {
	c.counters = append(c.counters, capturedCall{name, delta, labels})
}

func (c *captureBackend) ObserveDuration(name string, seconds float64, labels Labels) {
	c.durations = append(c.durations, capturedCall{name, seconds, labels})
}

func (c *captureBackend) Flush() error {
	c.flushed++
	return nil
}

// install swaps the global backend for the test's lifetime. Tests here must
// not run in parallel for that reason.
func install(t *testing.T) *captureBackend {
	t.Helper()
	prev := backend
	c := &captureBackend{}
	SetBackend(c)
	t.Cleanup(func() { backend = prev })
	return c
}

func TestRecordStep(t *testing.T) {
	c := install(t)

	RecordStep("aug", "run", nil, 1500*time.Millisecond)

	if len(c.counters) != 1 || len(c.durations) != 1 {
		t.Fatalf("calls = %d counters %d durations", len(c.counters), len(c.durations))
	}
	cnt := c.counters[0]
	if cnt.name != "import_step_total" || cnt.value != 1 {
		t.Fatalf("counter = %+v", cnt)
	}
	if cnt.labels["status"] != "success" || cnt.labels["job"] != "aug" || cnt.labels["step"] != "run" {
		t.Fatalf("labels = %v", cnt.labels)
	}
	if d := c.durations[0]; d.name != "import_step_duration_seconds" || d.value != 1.5 {
		t.Fatalf("duration = %+v", d)
	}
}

func TestRecordStepFailure(t *testing.T) {
	c := install(t)

	RecordStep("aug", "run", errTest, time.Second)

	if c.counters[0].labels["status"] != "failure" {
		t.Fatalf("labels = %v", c.counters[0].labels)
	}
}

func TestRecordRow(t *testing.T) {
	c := install(t)

	RecordRow("aug", "processed", 120)
	RecordRow("aug", "skipped", 0)
	RecordRow("aug", "skipped", -3)

	if len(c.counters) != 1 {
		t.Fatalf("non-positive deltas recorded: %+v", c.counters)
	}
	got := c.counters[0]
	if got.name != "import_rows_total" || got.value != 120 || got.labels["kind"] != "processed" {
		t.Fatalf("counter = %+v", got)
	}
}

func TestRecordShelves(t *testing.T) {
	c := install(t)

	RecordShelves("aug", 2)
	RecordShelves("aug", 0)

	if len(c.counters) != 1 || c.counters[0].name != "import_shelves_created_total" {
		t.Fatalf("counters = %+v", c.counters)
	}
}

func TestSetBackendNil(t *testing.T) {
	c := install(t)

	SetBackend(nil)
	if err := Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if c.flushed != 1 {
		t.Fatalf("nil SetBackend replaced the backend")
	}
}

var errTest = errors.New("boom")
