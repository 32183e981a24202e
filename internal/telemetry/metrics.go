package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	eventbus "github.com/graphload/graphload/internal/eventbus"
	events "github.com/graphload/graphload/internal/events"
)

// Metrics holds all Prometheus metrics for the server.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	BatchRounds       prometheus.Histogram
	BatchSize         *prometheus.HistogramVec
	ExecutionErrors   *prometheus.CounterVec
}

// NewMetrics creates and registers Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		OperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "graphload_operations_total",
				Help: "Total number of GraphQL operations by type and status",
			},
			[]string{"operation_type", "status"},
		),
		OperationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "graphload_operation_duration_seconds",
				Help:    "Operation duration in seconds by operation type",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation_type"},
		),
		BatchRounds: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "graphload_batch_rounds",
				Help:    "Drain rounds needed per operation",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
			},
		),
		BatchSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "graphload_batch_size",
				Help:    "Keys per batch-function invocation by loader group",
				Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
			},
			[]string{"group"},
		),
		ExecutionErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "graphload_execution_errors_total",
				Help: "Execution errors reported to the sink",
			},
			[]string{"operation"},
		),
	}
}

// Subscribe attaches the metrics to the event bus so they populate from
// operation and loader events.
func (m *Metrics) Subscribe() {
	eventbus.Subscribe(func(ctx context.Context, e events.OperationFinish) {
		status := "ok"
		if len(e.Errors) > 0 {
			status = "error"
		}
		m.OperationsTotal.WithLabelValues(e.OperationType, status).Inc()
		m.OperationDuration.WithLabelValues(e.OperationType).Observe(e.Duration.Seconds())
		m.BatchRounds.Observe(float64(e.Rounds))
	})
	eventbus.Subscribe(func(ctx context.Context, e events.BatchRound) {
		m.BatchSize.WithLabelValues(e.Group).Observe(float64(e.KeyCount))
	})
	eventbus.Subscribe(func(ctx context.Context, e events.ExecutionError) {
		m.ExecutionErrors.WithLabelValues(e.OperationName).Inc()
	})
}
