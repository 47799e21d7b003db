// Package metrics is a small, backend-agnostic layer for recording
// operational metrics from import runs.
//
// It exposes a narrow Backend interface focused on counters and durations,
// with a global, pluggable backend that defaults to a no-op so metric calls
// are always safe even when nothing is configured. Concrete systems
// (Prometheus Pushgateway, Datadog) live in subpackages and are selected by
// the wiring layer; the importer itself depends only on this package.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface a metrics system must implement.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveDuration records a duration-style observation in seconds.
	ObserveDuration(name string, seconds float64, labels Labels)
	// Flush pushes buffered metrics if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)      {}
func (nopBackend) ObserveDuration(string, float64, Labels) {}
func (nopBackend) Flush() error                            { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the current one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error { return backend.Flush() }

// RecordStep measures one pipeline step: latency plus a success/failure
// counter, labelled by job and step.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "step": step, "status": status}
	backend.IncCounter("import_step_total", 1, lbls)
	backend.ObserveDuration("import_step_duration_seconds", d.Seconds(), lbls)
}

// RecordRow adds to a row-level counter for the given job and kind.
// Typical kinds mirror the run stats: "processed", "skipped".
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("import_rows_total", float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordShelves counts shelves created during a run.
func RecordShelves(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("import_shelves_created_total", float64(delta), Labels{
		"job": job,
	})
}
