package multires

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Index outcome labels
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Incremental write outcome labels
const (
	WriteWritten = "written"
	WriteSkipped = "skipped"
	WriteError   = "error"
)

// Metrics holds the scanner's Prometheus collectors
type Metrics struct {
	IndicesTotal      *prometheus.CounterVec
	IndexDuration     prometheus.Histogram
	BusyWorkers       prometheus.Gauge
	IncrementalWrites *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics registers the scanner collectors on a fresh registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{registry: registry}

	m.IndicesTotal = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "potts_scan_indices_total",
			Help: "Total number of resolution indices processed",
		},
		[]string{"status"},
	)

	m.IndexDuration = promauto.With(registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "potts_scan_index_duration_seconds",
			Help:    "Time spent minimizing all replicas of one resolution index",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)

	m.BusyWorkers = promauto.With(registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "potts_scan_busy_workers",
			Help: "Number of workers currently processing an index",
		},
	)

	m.IncrementalWrites = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "potts_scan_incremental_writes_total",
			Help: "Incremental result table writes by outcome",
		},
		[]string{"result"},
	)

	return m
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteToTextfile dumps the current metric values in the text exposition
// format, for the node exporter textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
