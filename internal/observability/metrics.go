package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "casemap"

// Metrics holds the Prometheus counters, histograms, and gauges for dataset
// loading and dashboard views.
type Metrics struct {
	Loads        *prometheus.CounterVec // labels: dataset, outcome={success,fetch_error,decode_error,empty,canceled}
	LoadDuration prometheus.Histogram
	RowsParsed   prometheus.Counter
	RowsSkipped  *prometheus.CounterVec // labels: reason={missing_state,invalid_year}
	Superseded   prometheus.Counter

	// Fetch metrics.
	FetchRequests *prometheus.CounterVec // labels: source={http,file}, outcome={success,error}
	FetchCache    *prometheus.CounterVec // labels: result={hit,miss,expired}
	FetchDuration *prometheus.HistogramVec

	SummariesPublished *prometheus.CounterVec // labels: outcome={success,error}
	ActiveViews        prometheus.Gauge
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_loads_total",
			Help:      help("Dataset loads by dataset and outcome."),
		}, []string{"dataset", "outcome"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      help("Duration of a complete fetch-parse-aggregate cycle."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		RowsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_parsed_total",
			Help:      help("Raw rows read from dataset files."),
		}),
		RowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      help("Raw rows dropped during normalization, by reason."),
		}, []string{"reason"}),
		Superseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selections_superseded_total",
			Help:      help("Loads discarded because a newer selection arrived."),
		}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      help("File fetches by source and outcome."),
		}, []string{"source", "outcome"}),
		FetchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_cache_total",
			Help:      help("Fetch cache lookups by result."),
		}, []string{"result"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      help("File fetch duration in seconds."),
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"source"}),
		SummariesPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_published_total",
			Help:      help("Dataset summaries written to Kafka, by outcome."),
		}, []string{"outcome"}),
		ActiveViews: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_views",
			Help:      help("Visualizations currently attached to a render slot."),
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(
		m.Loads,
		m.LoadDuration,
		m.RowsParsed,
		m.RowsSkipped,
		m.Superseded,
		m.FetchRequests,
		m.FetchCache,
		m.FetchDuration,
		m.SummariesPublished,
		m.ActiveViews,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}
