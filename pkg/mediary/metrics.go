package mediary

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess   = "success"
	statusError     = "error"
	statusCancelled = "cancelled"
)

// MetricsDecorator records Prometheus metrics for every execution.
type MetricsDecorator struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetricsDecorator creates a metrics decorator and registers its
// collectors with reg. A nil reg uses prometheus.DefaultRegisterer.
// Registering twice with the same registerer panics.
func NewMetricsDecorator(reg prometheus.Registerer) *MetricsDecorator {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &MetricsDecorator{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "magneto_operations_total",
				Help: "Total number of dispatched operations",
			},
			[]string{"operation", "kind", "status"}, // status: "success", "error", "cancelled"
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "magneto_operation_duration_seconds",
				Help:    "Duration of dispatched operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "kind"},
		),
	}
}

// Decorate records metrics around next.
func (d *MetricsDecorator) Decorate(op Operation, next func() (any, error)) (any, error) {
	start := time.Now()
	out, err := next()
	d.observe(op, start, err)
	return out, err
}

// DecorateAsync records metrics around next.
func (d *MetricsDecorator) DecorateAsync(ctx context.Context, op Operation, next func(ctx context.Context) (any, error)) (any, error) {
	start := time.Now()
	out, err := next(ctx)
	d.observe(op, start, err)
	return out, err
}

func (d *MetricsDecorator) observe(op Operation, start time.Time, err error) {
	d.duration.WithLabelValues(op.Name, string(op.Kind)).Observe(time.Since(start).Seconds())
	d.operations.WithLabelValues(op.Name, string(op.Kind), status(err)).Inc()
}

func status(err error) string {
	switch {
	case err == nil:
		return statusSuccess
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return statusCancelled
	default:
		return statusError
	}
}

var _ Decorator = (*MetricsDecorator)(nil)
