package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "province_weather"

// Metrics holds the Prometheus collectors shared by both snapshot jobs. Every
// collector is labelled by job name.
type Metrics struct {
	// labels: job, outcome={success,failed}
	Batches *prometheus.CounterVec
	// labels: job, outcome={success,error}
	FetchAttempts *prometheus.CounterVec
	// labels: job, outcome={complete,partial,error}
	JobRuns *prometheus.CounterVec

	ProvincesFetched   *prometheus.GaugeVec
	LastSuccess        *prometheus.GaugeVec
	JobDuration        *prometheus.HistogramVec
	BatchFetchDuration *prometheus.HistogramVec
}

func newMetrics() *Metrics {
	return &Metrics{
		Batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Batches processed by outcome.",
		}, []string{"job", "outcome"}),
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempts_total",
			Help:      "Upstream fetch attempts by outcome, retries included.",
		}, []string{"job", "outcome"}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Finished job runs by outcome.",
		}, []string{"job", "outcome"}),
		ProvincesFetched: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "provinces_fetched",
			Help:      "Provinces merged into the most recent snapshot.",
		}, []string{"job"}),
		LastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last snapshot written.",
		}, []string{"job"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall time of a full job run.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"job"}),
		BatchFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_fetch_duration_seconds",
			Help:      "Duration of one batch fetch including retries.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"job"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Batches,
		m.FetchAttempts,
		m.JobRuns,
		m.ProvincesFetched,
		m.LastSuccess,
		m.JobDuration,
		m.BatchFetchDuration,
	}
}

// NewMetrics creates and registers all job metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
