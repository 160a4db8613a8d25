// Package metrics provides Prometheus observability for the integrity engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the scan pipeline.
type Metrics struct {
	// Scan outcomes by actor role and outcome kind.
	ScanOutcome *prometheus.CounterVec

	// Alerts raised by anomaly category.
	AlertsRaised *prometheus.CounterVec

	// End-to-end scan processing latency.
	ScanLatency prometheus.Histogram
}

// New creates a Metrics instance with all collectors registered.
func New() *Metrics {
	return &Metrics{
		ScanOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pharmakrypt_scan_outcomes_total",
			Help: "Total processed scans by actor role and outcome",
		}, []string{"role", "outcome"}),

		AlertsRaised: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pharmakrypt_alerts_total",
			Help: "Total alerts raised by anomaly category",
		}, []string{"category"}),

		ScanLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pharmakrypt_scan_duration_seconds",
			Help:    "Duration of scan processing including store round trips",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncrementOutcome records one processed scan.
func (m *Metrics) IncrementOutcome(role, outcome string) {
	if m != nil {
		m.ScanOutcome.WithLabelValues(role, outcome).Inc()
	}
}

// IncrementAlert records one raised alert.
func (m *Metrics) IncrementAlert(category string) {
	if m != nil {
		m.AlertsRaised.WithLabelValues(category).Inc()
	}
}

// ObserveScanLatency records the duration of one scan.
func (m *Metrics) ObserveScanLatency(d time.Duration) {
	if m != nil {
		m.ScanLatency.Observe(d.Seconds())
	}
}
