package api

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	analysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bizmetrics_analysis_duration_seconds",
			Help:    "Time spent computing an API response, by endpoint",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"endpoint"},
	)

	analysisErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizmetrics_analysis_errors_total",
			Help: "Failed analyses, by endpoint and error kind",
		},
		[]string{"endpoint", "kind"},
	)

	cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizmetrics_cache_requests_total",
			Help: "Response cache lookups, by result",
		},
		[]string{"result"},
	)

	loadedRows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bizmetrics_loaded_rows",
			Help: "Rows in the table currently served",
		},
	)
)

func init() {
	prometheus.MustRegister(analysisDuration, analysisErrors, cacheHits, loadedRows)
}
