package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "region_weather"

// Metrics holds the Prometheus counters, histograms, and gauges for the explorer.
type Metrics struct {
	// Refresh outcomes.
	Refreshes            *prometheus.CounterVec // labels: kind={snapshot,detail}, outcome={applied,partial,empty,failed,stale,fallback}
	SelectionCorrections prometheus.Counter
	DroppedEntries       prometheus.Counter

	// Snapshot state.
	SnapshotCoverage prometheus.Gauge
	SnapshotRegions  prometheus.Gauge

	// Upstream calls.
	UpstreamRequests *prometheus.CounterVec   // labels: endpoint={snapshot,detail,provinces}, outcome={success,error,cancelled}
	UpstreamDuration *prometheus.HistogramVec // labels: endpoint
	DetailCache      *prometheus.CounterVec   // labels: result={hit,miss}

	// Snapshot notifications.
	PublishErrors prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Refreshes,
		m.SelectionCorrections,
		m.DroppedEntries,
		m.SnapshotCoverage,
		m.SnapshotRegions,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.DetailCache,
		m.PublishErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Completed refresh requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		SelectionCorrections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selection_corrections_total",
			Help:      "Invalid date/time selections replaced with the current time.",
		}),
		DroppedEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_dropped_entries_total",
			Help:      "Snapshot entries dropped for a missing code or non-numeric temperature.",
		}),
		SnapshotCoverage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_coverage_ratio",
			Help:      "Resolved/expected provinces of the last completed snapshot.",
		}),
		SnapshotRegions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_regions",
			Help:      "Provinces in the applied snapshot.",
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Weather backend requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "Weather backend request duration in seconds, including retries.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),
		DetailCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detail_cache_total",
			Help:      "Detail series cache lookups by result.",
		}, []string{"result"}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Snapshot notifications that could not be published.",
		}),
	}
}
