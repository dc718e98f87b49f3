package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ExtractionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reexmap_extraction_seconds",
		Help:    "Time spent parsing and extracting facts from a single module file.",
		Buckets: prometheus.DefBuckets,
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reexmap_analysis_seconds",
		Help:    "Time spent on high-level analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	AcquireDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reexmap_acquire_seconds",
		Help:    "Time spent resolving and installing package sources.",
		Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"step"})

	ModulesScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reexmap_modules_scanned_total",
		Help: "Total number of package entry points scanned across all runs.",
	})

	ParseFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reexmap_parse_failures_total",
		Help: "Total number of entry points that failed to parse.",
	})

	ReexportsLastRun = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reexmap_reexports_last_run",
		Help: "Number of re-exported names found by the most recent analysis.",
	})

	ModulesWithReexportsLastRun = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reexmap_modules_with_reexports_last_run",
		Help: "Number of modules with at least one re-export in the most recent analysis.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reexmap_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	RescansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reexmap_rescans_total",
		Help: "Total number of rescans triggered by file system changes.",
	})

	RescansThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reexmap_rescans_throttled_total",
		Help: "Total number of rescans suppressed by the rate limiter.",
	})
)
