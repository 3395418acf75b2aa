// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package metrics

import (
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the build pipeline and the recommendation server:
// - API endpoint latency and throughput
// - Recommendation requests, seed resolution and result sizes
// - Snapshot shape
// - Build stage timings
// - External API calls (Spotify, Genius, embedding backend)
// - Circuit breakers and caches

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Recommendation Metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"status"}, // "success", "no_valid_seeds", "error"
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_duration_seconds",
			Help:    "Time spent computing a recommendation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
	)

	RecommendResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_results",
			Help:    "Number of tracks returned per recommendation",
			Buckets: []float64{0, 1, 5, 10, 20, 30, 50, 100, 250},
		},
	)

	RecommendUnknownSeeds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_unknown_seeds_total",
			Help: "Total number of seed ids that did not resolve to a track",
		},
	)

	// Snapshot Metrics
	SnapshotTracks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshot_tracks",
			Help: "Number of tracks in the loaded artifact snapshot",
		},
	)

	SnapshotDimension = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshot_vector_dimension",
			Help: "Dimension of the fused vectors in the loaded snapshot",
		},
	)

	SnapshotBuiltAt = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshot_built_timestamp_seconds",
			Help: "Unix time at which the loaded snapshot was built",
		},
	)

	// Build Pipeline Metrics
	BuildStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "build_stage_duration_seconds",
			Help:    "Duration of each artifact build stage",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
		[]string{"stage"},
	)

	BuildStageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "build_stage_errors_total",
			Help: "Total number of failed build stages",
		},
		[]string{"stage"},
	)

	BuildTracks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "build_tracks",
			Help: "Number of tracks in the most recent build",
		},
	)

	BuildLyricsCoverage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "build_lyrics_coverage_ratio",
			Help: "Fraction of tracks with lyrics in the most recent build",
		},
	)

	// External API Metrics
	ExternalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "external_requests_total",
			Help: "Total number of requests to external services",
		},
		[]string{"service", "status"}, // service: "spotify", "genius", "embedding", "storage"
	)

	ExternalRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "external_request_duration_seconds",
			Help:    "Duration of requests to external services",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	// Cache Metrics (General)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "recommend", "lyrics"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
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

// RecordRecommendation records the outcome of one recommendation request.
func RecordRecommendation(status string, duration time.Duration, results, unknownSeeds int) {
	RecommendRequests.WithLabelValues(status).Inc()
	RecommendDuration.Observe(duration.Seconds())
	if status == "success" {
		RecommendResults.Observe(float64(results))
	}
	if unknownSeeds > 0 {
		RecommendUnknownSeeds.Add(float64(unknownSeeds))
	}
}

// SetSnapshotInfo publishes the shape of the loaded snapshot.
func SetSnapshotInfo(tracks, dim int, builtAt time.Time) {
	SnapshotTracks.Set(float64(tracks))
	SnapshotDimension.Set(float64(dim))
	if !builtAt.IsZero() {
		SnapshotBuiltAt.Set(float64(builtAt.Unix()))
	}
}

// RecordBuildStage records the duration of a build stage and whether it failed.
func RecordBuildStage(stage string, duration time.Duration, err error) {
	BuildStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if err != nil {
		BuildStageErrors.WithLabelValues(stage).Inc()
	}
}

// RecordExternalRequest records a call to an external service.
// statusCode 0 means the request never produced an HTTP response.
func RecordExternalRequest(service string, statusCode int, duration time.Duration) {
	status := "transport_error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	ExternalRequests.WithLabelValues(service, status).Inc()
	ExternalRequestDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordCacheLookup records a cache hit or miss for the named cache.
func RecordCacheLookup(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
	} else {
		CacheMisses.WithLabelValues(cacheType).Inc()
	}
}

// SetCacheSize publishes the number of live entries in the named cache.
func SetCacheSize(cacheType string, entries int) {
	CacheSize.WithLabelValues(cacheType).Set(float64(entries))
}

// SetAppInfo publishes the running version.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}
