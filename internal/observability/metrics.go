package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wildfire_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for a pipeline run.
type Metrics struct {
	// Feed retrieval and normalization.
	FeedFetches   *prometheus.CounterVec   // labels: source, outcome={success,error}
	FeedDuration  *prometheus.HistogramVec // labels: source
	FeedBytes     *prometheus.CounterVec   // labels: source
	RowsProcessed *prometheus.CounterVec   // labels: source, outcome={accepted,short,malformed,out_of_region,timestamp_fallback}

	DuplicatesDropped prometheus.Counter

	// Wind enrichment.
	WindRequests    *prometheus.CounterVec // labels: outcome={success,error}
	WindFallbacks   prometheus.Counter
	WindCache       *prometheus.CounterVec // labels: result={hit,miss}
	WindAPIDuration prometheus.Histogram
	WindEnabled     prometheus.Gauge

	// Output.
	FeaturesEmitted prometheus.Counter
	FeaturesInvalid prometheus.Counter
	LoadErrors      *prometheus.CounterVec // labels: sink

	RunDuration prometheus.Histogram
	LastSuccess prometheus.Gauge

	// Registry holds every collector above. It is the source for textfile export.
	Registry *prometheus.Registry
}

// NewMetrics creates all pipeline metrics and registers them with a
// dedicated registry, which is also registered with the default gatherer.
func NewMetrics() *Metrics {
	m := newMetrics(prometheus.NewRegistry())
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(prometheus.NewRegistry())
}

func newMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		FeedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_fetches_total",
			Help:      "FIRMS feed downloads by source and outcome.",
		}, []string{"source", "outcome"}),
		FeedDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_fetch_duration_seconds",
			Help:      "FIRMS feed download duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30},
		}, []string{"source"}),
		FeedBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_bytes_total",
			Help:      "Bytes downloaded per FIRMS feed.",
		}, []string{"source"}),
		RowsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_processed_total",
			Help:      "CSV rows seen by source and outcome.",
		}, []string{"source", "outcome"}),
		DuplicatesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_dropped_total",
			Help:      "Hotspots dropped as cross-sensor duplicates.",
		}),
		WindRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wind_requests_total",
			Help:      "Open-Meteo requests by outcome.",
		}, []string{"outcome"}),
		WindFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wind_fallbacks_total",
			Help:      "Hotspots enriched with the fallback wind reading.",
		}),
		WindCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wind_cache_total",
			Help:      "Wind cache lookups by result.",
		}, []string{"result"}),
		WindAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "wind_api_duration_seconds",
			Help:      "Open-Meteo request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		WindEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "wind_enabled",
			Help:      "1 when wind enrichment is enabled, 0 otherwise.",
		}),
		FeaturesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "features_emitted_total",
			Help:      "GeoJSON features written to the output collection.",
		}),
		FeaturesInvalid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "features_invalid_total",
			Help:      "Hotspots rejected at serialization time.",
		}),
		LoadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_errors_total",
			Help:      "Sink write failures by sink.",
		}, []string{"sink"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete extract-enrich-load run.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that wrote every sink.",
		}),
		Registry: reg,
	}
	reg.MustRegister(m.collectors()...)
	return m
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FeedFetches,
		m.FeedDuration,
		m.FeedBytes,
		m.RowsProcessed,
		m.DuplicatesDropped,
		m.WindRequests,
		m.WindFallbacks,
		m.WindCache,
		m.WindAPIDuration,
		m.WindEnabled,
		m.FeaturesEmitted,
		m.FeaturesInvalid,
		m.LoadErrors,
		m.RunDuration,
		m.LastSuccess,
	}
}

// WriteTextfile dumps the run's metrics in the node_exporter textfile format.
// The write is atomic: a temp file is renamed over path.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
