// Package metrics provides Prometheus metrics for the escrow ledger.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EscrowMetrics collects ledger operation and value-flow metrics. A nil
// *EscrowMetrics is valid and records nothing.
type EscrowMetrics struct {
	registry *prometheus.Registry

	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	EscrowVolume      *prometheus.CounterVec
	OpenBets          prometheus.Gauge
}

// NewEscrowMetrics creates and registers the ledger metrics on a fresh registry.
func NewEscrowMetrics() *EscrowMetrics {
	registry := prometheus.NewRegistry()

	m := &EscrowMetrics{
		registry: registry,

		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "escrow_operations_total",
				Help: "Total number of ledger operations by result",
			},
			[]string{"operation", "result"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "escrow_operation_duration_seconds",
				Help:    "Ledger operation latency including lock wait",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		EscrowVolume: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "escrow_volume_total",
				Help: "Value moved through the custodian by direction",
			},
			[]string{"direction"},
		),
		OpenBets: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "escrow_open_bets",
				Help: "Bets placed and not yet claimed since process start",
			},
		),
	}

	registry.MustRegister(
		m.OperationsTotal,
		m.OperationDuration,
		m.EscrowVolume,
		m.OpenBets,
		collectors.NewGoCollector(),
	)

	return m
}

// Registry returns the underlying Prometheus registry.
func (m *EscrowMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *EscrowMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveOperation records one ledger operation.
func (m *EscrowMetrics) ObserveOperation(operation, result string, seconds float64) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(operation, result).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(seconds)
}

// ObserveEscrow records stake moving into custody.
func (m *EscrowMetrics) ObserveEscrow(amount uint64) {
	if m == nil {
		return
	}
	m.EscrowVolume.WithLabelValues("in").Add(float64(amount))
	m.OpenBets.Inc()
}

// ObservePayout records a payout released from custody.
func (m *EscrowMetrics) ObservePayout(amount uint64) {
	if m == nil {
		return
	}
	m.EscrowVolume.WithLabelValues("out").Add(float64(amount))
	m.OpenBets.Dec()
}
