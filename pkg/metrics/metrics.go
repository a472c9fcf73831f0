// Package metrics exposes Prometheus metrics for configuration updates.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rzbill/gcu/pkg/types"
)

const namespace = "gcu"

// Metric names.
const (
	OperationsTotal        = "operations_total"
	OperationDuration      = "operation_duration_seconds"
	ChangesCommittedTotal  = "changes_committed_total"
	ChangesPlannedTotal    = "changes_planned_total"
	CheckpointsStoredGauge = "checkpoints"
)

// ResultSuccess labels an operation that returned no error.
const ResultSuccess = "success"

// Metrics holds the updater's collectors in a private registry.
type Metrics struct {
	registry *prometheus.Registry

	operations  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	committed   *prometheus.CounterVec
	planned     *prometheus.CounterVec
	checkpoints prometheus.Gauge
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      OperationsTotal,
			Help:      "Updater operations by result (success or error kind).",
		}, []string{"operation", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      OperationDuration,
			Help:      "Duration of updater operations.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
		committed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      ChangesCommittedTotal,
			Help:      "Changes committed to the live store.",
		}, []string{"namespace", "op"}),
		planned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      ChangesPlannedTotal,
			Help:      "Changes computed for an update, dry runs included.",
		}, []string{"namespace"}),
		checkpoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      CheckpointsStoredGauge,
			Help:      "Checkpoints stored after the last checkpoint operation.",
		}),
	}
	m.registry.MustRegister(
		m.operations,
		m.duration,
		m.committed,
		m.planned,
		m.checkpoints,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveOperation records the outcome and duration of an operation.
func (m *Metrics) ObserveOperation(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = string(types.KindOf(err))
		if result == "" {
			result = "error"
		}
	}
	m.operations.WithLabelValues(operation, result).Inc()
	m.duration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// ChangeCommitted counts one change written to a namespace.
func (m *Metrics) ChangeCommitted(ns string, change types.Change) {
	if m == nil {
		return
	}
	m.committed.WithLabelValues(types.NamespaceName(ns), string(change.Op)).Inc()
}

// ChangesPlanned counts the changes computed for a namespace.
func (m *Metrics) ChangesPlanned(ns string, n int) {
	if m == nil {
		return
	}
	m.planned.WithLabelValues(types.NamespaceName(ns)).Add(float64(n))
}

// SetCheckpoints records how many checkpoints are stored.
func (m *Metrics) SetCheckpoints(n int) {
	if m == nil {
		return
	}
	m.checkpoints.Set(float64(n))
}

// WriteTextfile writes the metrics in the text exposition format, for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
