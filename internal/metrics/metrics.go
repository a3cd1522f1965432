package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "recon",
			Subsystem: "engine",
			Name:      "runs_started_total",
			Help:      "Total number of reconciliation runs started",
		},
	)

	runsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recon",
			Subsystem: "engine",
			Name:      "runs_finished_total",
			Help:      "Total number of reconciliation runs finished, by terminal status",
		},
		[]string{"status"},
	)

	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "recon",
			Subsystem: "engine",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a reconciliation run",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.4m
		},
	)

	discrepanciesFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recon",
			Subsystem: "engine",
			Name:      "discrepancies_total",
			Help:      "Discrepancies detected, by type",
		},
		[]string{"type"},
	)

	fetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "recon",
			Subsystem: "upstream",
			Name:      "fetch_duration_seconds",
			Help:      "Time to fully drain one upstream source",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"source"},
	)

	staleReportsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "recon",
			Subsystem: "repository",
			Name:      "stale_reports_swept_total",
			Help:      "Running reports force-failed by the stale sweep",
		},
	)
)

// Collector records reconciliation engine metrics
type Collector struct{}

// NewCollector returns the Prometheus-backed metrics collector
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) RunStarted() {
	runsStarted.Inc()
}

func (c *Collector) RunFinished(status string, duration time.Duration) {
	runsFinished.WithLabelValues(status).Inc()
	runDuration.Observe(duration.Seconds())
}

func (c *Collector) DiscrepancyFound(discrepancyType string) {
	discrepanciesFound.WithLabelValues(discrepancyType).Inc()
}

func (c *Collector) FetchCompleted(source string, duration time.Duration) {
	fetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

func (c *Collector) StaleReportsSwept(count int64) {
	staleReportsSwept.Add(float64(count))
}
