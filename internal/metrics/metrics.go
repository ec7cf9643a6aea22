// Package metrics exposes Prometheus metrics for the linking engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsNamespace is the namespace for all engine metrics.
const MetricsNamespace = "linkengine"

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	// Linking metrics
	LinksCreatedTotal  *prometheus.CounterVec
	LinksRejectedTotal *prometheus.CounterVec
	RelinkDuration     prometheus.Histogram

	// Authority propagation metrics
	PropagationRuns       *prometheus.CounterVec
	PropagationIterations prometheus.Histogram
	PropagationDuration   prometheus.Histogram
}

// New creates and registers all engine metrics.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Metrics{
		LinksCreatedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "links_created_total",
				Help:      "Total number of internal links created",
			},
			[]string{"anchor_category"},
		),
		LinksRejectedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "links_rejected_total",
				Help:      "Total number of candidates rejected by policy",
			},
			[]string{"reason"},
		),
		RelinkDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: MetricsNamespace,
				Name:      "relink_duration_seconds",
				Help:      "Duration of one relink run",
				Buckets:   prometheus.DefBuckets,
			},
		),
		PropagationRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "propagation_runs_total",
				Help:      "Authority propagation passes by outcome",
			},
			[]string{"outcome"},
		),
		PropagationIterations: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: MetricsNamespace,
				Name:      "propagation_iterations",
				Help:      "Iterations per propagation pass",
				Buckets:   []float64{5, 10, 25, 50, 75, 100},
			},
		),
		PropagationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: MetricsNamespace,
				Name:      "propagation_duration_seconds",
				Help:      "Duration of one propagation pass",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}
