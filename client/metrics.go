package client

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for client operations.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers client metrics with the provided registry.
// Clients are short-lived on the server side, so re-registration against the
// same registry resolves to the already-registered collectors.
func NewMetrics(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pageql",
				Subsystem: "client",
				Name:      "operations_total",
				Help:      "Total number of GraphQL operations by kind and status",
			},
			[]string{"kind", "status"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "pageql",
				Subsystem: "client",
				Name:      "operation_duration_seconds",
				Help:      "GraphQL operation duration by kind",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
	}

	if err := registry.Register(m.OperationsTotal); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		m.OperationsTotal = are.ExistingCollector.(*prometheus.CounterVec)
	}

	if err := registry.Register(m.OperationDuration); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		m.OperationDuration = are.ExistingCollector.(*prometheus.HistogramVec)
	}

	return m, nil
}

// Status labels for OperationsTotal.
const (
	statusSuccess = "success"
	statusError   = "error"
	statusCached  = "cached"
)
