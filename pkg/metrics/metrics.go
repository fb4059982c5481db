// Package metrics exposes Prometheus instrumentation for the import
// pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pocketledger"

// Metrics holds the pipeline's collectors. Each instance carries its own
// registry, so tests can construct as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	// ImportsStarted counts imports accepted for processing, by file format.
	ImportsStarted *prometheus.CounterVec

	// ImportsCompleted counts finished imports by terminal status.
	ImportsCompleted *prometheus.CounterVec

	// RowsImported and RowsSkipped count individual statement rows.
	RowsImported prometheus.Counter
	RowsSkipped  prometheus.Counter

	// ParseDuration observes statement parse time by format.
	ParseDuration *prometheus.HistogramVec
}

// New creates the pipeline collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		ImportsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "started_total",
			Help:      "Imports accepted for processing, by file format.",
		}, []string{"format"}),
		ImportsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "completed_total",
			Help:      "Finished imports by terminal status.",
		}, []string{"status"}),
		RowsImported: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "rows_imported_total",
			Help:      "Statement rows persisted as transactions.",
		}),
		RowsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "rows_skipped_total",
			Help:      "Statement rows skipped as duplicates or failures.",
		}),
		ParseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "parse_duration_seconds",
			Help:      "Statement parse time by file format.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format"}),
	}
}

// SetQueueDepthFunc registers a gauge that reports the pending job count.
func (m *Metrics) SetQueueDepthFunc(depth func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "import",
		Name:      "queue_depth",
		Help:      "Jobs waiting in the import queue.",
	}, func() float64 {
		return float64(depth())
	}))
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
