// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// Import runs are short-lived batch jobs, so metrics are collected in a
// private registry and pushed to a Pushgateway at the end of the run rather
// than exposed on a scrape endpoint. All Prometheus-specific dependencies
// live here; the rest of the application depends only on metrics.Backend.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/TheBurd/mango-cannabis-flower-menu-builder-sub000/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry

	stepCounter  *prometheus.CounterVec // import_step_total
	stepDuration *prometheus.SummaryVec // import_step_duration_seconds
	rowCounter   *prometheus.CounterVec // import_rows_total
	shelfCounter prometheus.Counter     // import_shelves_created_total
}

// NewBackend constructs a Pushgateway backend. jobName becomes the
// Pushgateway "job" grouping key; gatewayURL is required.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "menu_import"
	}

	reg := prometheus.NewRegistry()

	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "import_step_total",
			Help: "Import step executions, partitioned by step and status.",
		},
		[]string{"step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "import_step_duration_seconds",
			Help:       "Import step durations in seconds, partitioned by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "import_rows_total",
			Help: "Row-level counts per kind (processed, skipped).",
		},
		[]string{"kind"},
	)
	shelfCounter := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "import_shelves_created_total",
			Help: "Shelves created on the fly during import runs.",
		},
	)

	for _, c := range []prometheus.Collector{stepCounter, stepDuration, rowCounter, shelfCounter} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}

	return &Backend{
		gatewayURL:   gatewayURL,
		jobName:      jobName,
		reg:          reg,
		stepCounter:  stepCounter,
		stepDuration: stepDuration,
		rowCounter:   rowCounter,
		shelfCounter: shelfCounter,
	}, nil
}

// IncCounter implements metrics.Backend. Unknown metric names are ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "import_step_total":
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)
	case "import_rows_total":
		b.rowCounter.WithLabelValues(labels["kind"]).Add(delta)
	case "import_shelves_created_total":
		b.shelfCounter.Add(delta)
	}
}

// ObserveDuration implements metrics.Backend.
func (b *Backend) ObserveDuration(name string, seconds float64, labels metrics.Labels) {
	if name != "import_step_duration_seconds" {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(seconds)
}

// Flush pushes the registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
