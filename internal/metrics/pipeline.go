// Package metrics defines the service's Prometheus collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "geetaway"

// Pipeline Prometheus metrics.
var (
	SearchQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_queries_total",
			Help:      "Total number of search pipeline runs by outcome",
		},
		[]string{"outcome"}, // "ok" / "no_results" / "error"
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Duration of each retrieval pipeline stage in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"stage"},
	)

	ContextWarningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "context_warnings_total",
			Help:      "Candidates down-weighted by the relevance adjuster",
		},
		[]string{"warning"},
	)

	GuidanceTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guidance_total",
			Help:      "Guidance requests by terminal status",
		},
		[]string{"status"},
	)

	GuidanceDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "guidance_duration_seconds",
			Help:      "Guidance generator call duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
	)

	CorpusVerses = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_verses",
			Help:      "Number of verses in the loaded corpus",
		},
	)
)

func init() {
	prometheus.MustRegister(
		SearchQueriesTotal,
		StageDuration,
		ContextWarningsTotal,
		GuidanceTotal,
		GuidanceDuration,
		CorpusVerses,
	)
}
