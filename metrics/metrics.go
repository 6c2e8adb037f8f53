// Package metrics holds the prometheus collectors of forecast runs and the web server
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revforecast_runs_total",
			Help: "Total forecast runs by outcome",
		},
		[]string{"outcome"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "revforecast_stage_duration_seconds",
			Help:    "Forecast run stage duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	SeriesRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "revforecast_series_rows",
			Help:    "Rows in the normalized uploaded series",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	UploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "revforecast_upload_bytes",
			Help:    "Size of uploaded files in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revforecast_http_requests_total",
			Help: "Total HTTP requests by handler and status code",
		},
		[]string{"handler", "code"},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revforecast_rate_limited_total",
			Help: "Total requests rejected by the rate limiter",
		},
		[]string{"handler"},
	)
)

const OutcomeDisplayed = "displayed"

// ObserveRun counts a finished run. Failed runs are labelled by their error kind.
func ObserveRun(errKind string) {
	outcome := OutcomeDisplayed
	if errKind != "" && errKind != "none" {
		outcome = errKind
	}
	RunsTotal.WithLabelValues(outcome).Inc()
}

// ObserveStage records how long a run stage took
func ObserveStage(stage string, seconds float64) {
	StageDuration.WithLabelValues(stage).Observe(seconds)
}
