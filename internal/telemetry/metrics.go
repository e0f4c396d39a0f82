package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// httpRequests tracks requests per route and status.
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_http_requests_total",
		Help: "Total number of HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	// httpDuration tracks request latency per route.
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.2, 0.5, 1, 2, 5},
	}, []string{"route"})

	// comparisonOfferCount tracks how many offers product comparisons carry.
	comparisonOfferCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_comparison_offers_count",
		Help:    "Number of offers in served product comparisons",
		Buckets: []float64{0, 1, 2, 3, 5, 10},
	})

	// feedRowsImported tracks imported feed rows per platform and outcome.
	feedRowsImported = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_feed_rows_total",
		Help: "Total feed rows processed by platform and outcome",
	}, []string{"platform", "outcome"}) // outcome: imported, updated, failed

	// feedImportDuration tracks how long full feed imports take.
	feedImportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_feed_import_duration_seconds",
		Help:    "Feed import duration by platform",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	}, []string{"platform"})

	// upstreamFetchErrors tracks failed upstream offer fetches.
	upstreamFetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_upstream_fetch_errors_total",
		Help: "Total upstream fetch failures by kind",
	}, []string{"kind"}) // kind: unauthorized, retry_exhausted, other
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(route, method, status string, duration time.Duration) {
	httpRequests.WithLabelValues(route, method, status).Inc()
	httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordComparison records the offer count of a served comparison.
func RecordComparison(offerCount int) {
	comparisonOfferCount.Observe(float64(offerCount))
}

// RecordFeedImport records the outcome counters of one feed import.
func RecordFeedImport(platform string, imported, updated, failed int, duration time.Duration) {
	feedRowsImported.WithLabelValues(platform, "imported").Add(float64(imported))
	feedRowsImported.WithLabelValues(platform, "updated").Add(float64(updated))
	feedRowsImported.WithLabelValues(platform, "failed").Add(float64(failed))
	feedImportDuration.WithLabelValues(platform).Observe(duration.Seconds())
}

// RecordUpstreamFetchError records one failed upstream fetch.
func RecordUpstreamFetchError(kind string) {
	upstreamFetchErrors.WithLabelValues(kind).Inc()
}
