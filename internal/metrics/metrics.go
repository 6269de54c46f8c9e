/*
Package metrics registers the Prometheus collectors for index builds, title
resolution, recommendation requests and the HTTP API.

All collectors live on the default registry; the serve command exposes them
on /metrics.
*/
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Index build metrics
	IndexBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moviepicker_index_build_duration_seconds",
			Help:    "Duration of similarity index builds in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"kind"},
	)

	IndexItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moviepicker_index_items",
			Help: "Number of items in the loaded similarity index",
		},
	)

	DegenerateItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviepicker_degenerate_items_total",
			Help: "Items with a zero-norm vector seen during index builds",
		},
		[]string{"kind"},
	)

	// Resolution metrics
	TitlesResolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moviepicker_titles_resolved_total",
			Help: "Profile titles matched to a canonical title",
		},
	)

	TitlesUnresolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moviepicker_titles_unresolved_total",
			Help: "Profile titles skipped for lack of a confident match",
		},
	)

	// Recommendation metrics
	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moviepicker_recommend_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	EmptyProfiles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moviepicker_empty_profiles_total",
			Help: "Requests where no profile entry resolved",
		},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviepicker_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moviepicker_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moviepicker_api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)
)

// RecordIndexBuild records a finished index build.
func RecordIndexBuild(kind string, duration time.Duration, items, degenerate int) {
	IndexBuildDuration.WithLabelValues(kind).Observe(duration.Seconds())
	IndexItems.Set(float64(items))
	if degenerate > 0 {
		DegenerateItems.WithLabelValues(kind).Add(float64(degenerate))
	}
}

// RecordResolution records one profile title lookup.
func RecordResolution(matched bool) {
	if matched {
		TitlesResolved.Inc()
	} else {
		TitlesUnresolved.Inc()
	}
}

// RecordRecommendation records a recommendation request.
func RecordRecommendation(mode string, duration time.Duration, empty bool) {
	RecommendDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if empty {
		EmptyProfiles.Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
