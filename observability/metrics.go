// Package observability exposes the prometheus instrumentation for the
// stabilization loop.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// SerpMetrics instruments the stabilization engine.
type SerpMetrics struct {
	registry *prometheus.Registry

	// Rebases counts executed supply adjustments by currency and direction
	// (expand or contract).
	Rebases *prometheus.CounterVec
	// AdjustmentErrors counts failed lane adjustments by currency.
	AdjustmentErrors *prometheus.CounterVec
	// TickSkips counts ticks gated out by the adjustment frequency.
	TickSkips prometheus.Counter
	// LastSupplyChange records the signed magnitude of the most recent
	// adjustment per currency.
	LastSupplyChange *prometheus.GaugeVec
}

var (
	serpOnce    sync.Once
	serpMetrics *SerpMetrics
)

// Metrics returns the process-wide stabilization metrics, registering the
// collectors on first use.
func Metrics() *SerpMetrics {
	serpOnce.Do(func() {
		registry := prometheus.NewRegistry()
		m := &SerpMetrics{
			registry: registry,
			Rebases: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "serp",
				Name:      "rebases_total",
				Help:      "Supply adjustments executed, by currency and direction.",
			}, []string{"currency", "direction"}),
			AdjustmentErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "serp",
				Name:      "adjustment_errors_total",
				Help:      "Failed lane adjustments, by currency.",
			}, []string{"currency"}),
			TickSkips: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "serp",
				Name:      "tick_skips_total",
				Help:      "Ticks gated out by the adjustment frequency.",
			}),
			LastSupplyChange: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "serp",
				Name:      "last_supply_change",
				Help:      "Signed magnitude of the most recent supply adjustment, by currency.",
			}, []string{"currency"}),
		}
		registry.MustRegister(m.Rebases, m.AdjustmentErrors, m.TickSkips, m.LastSupplyChange)
		serpMetrics = m
	})
	return serpMetrics
}

// Registry exposes the underlying registry for the metrics endpoint.
func (m *SerpMetrics) Registry() *prometheus.Registry { return m.registry }
