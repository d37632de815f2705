// Package metrics provides Prometheus metrics for country_fetcher.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "country_fetcher"

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// RefreshTotal counts refreshes by outcome and error kind.
	RefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Total number of refresh runs",
		},
		[]string{"outcome", "kind"},
	)

	// RefreshDuration measures refresh duration.
	RefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of refresh runs in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"outcome"},
	)

	// CountriesProcessed counts countries written by successful refreshes.
	CountriesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "countries_processed_total",
			Help:      "Total number of countries upserted by successful refreshes",
		},
	)

	// CountriesSkipped counts upstream records dropped during enrichment.
	CountriesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "countries_skipped_total",
			Help:      "Total number of upstream records skipped during enrichment",
		},
	)

	// SourceFetchDuration measures upstream fetches.
	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_fetch_duration_seconds",
			Help:      "Duration of upstream fetches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"source", "status"},
	)

	// PublishErrorsTotal counts refresh events that could not be published.
	PublishErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Total number of refresh events that failed to publish",
		},
	)

	// HTTPRequestsTotal counts API requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
)

// RecordRefreshSuccess records a committed refresh.
func RecordRefreshSuccess(processed, skipped int, duration float64) {
	RefreshTotal.WithLabelValues(OutcomeSuccess, "").Inc()
	RefreshDuration.WithLabelValues(OutcomeSuccess).Observe(duration)
	CountriesProcessed.Add(float64(processed))
	CountriesSkipped.Add(float64(skipped))
}

// RecordRefreshFailure records a failed refresh with its error kind.
func RecordRefreshFailure(kind string, duration float64) {
	RefreshTotal.WithLabelValues(OutcomeFailure, kind).Inc()
	RefreshDuration.WithLabelValues(OutcomeFailure).Observe(duration)
}

// RecordSourceFetch records one upstream round trip.
func RecordSourceFetch(source, status string, duration float64) {
	SourceFetchDuration.WithLabelValues(source, status).Observe(duration)
}

// RecordPublishError records a failed refresh event publish.
func RecordPublishError() {
	PublishErrorsTotal.Inc()
}

// RecordHTTPRequest records a served API request.
func RecordHTTPRequest(method, route, status string) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
}
