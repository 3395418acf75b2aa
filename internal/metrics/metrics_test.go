// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecordAPIRequest tests API request metric recording
func TestRecordAPIRequest(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		endpoint   string
		statusCode string
		duration   time.Duration
	}{
		{
			name:       "successful recommend",
			method:     "POST",
			endpoint:   "/api/v1/recommend",
			statusCode: "200",
			duration:   2 * time.Millisecond,
		},
		{
			name:       "bad request",
			method:     "POST",
			endpoint:   "/recommend",
			statusCode: "400",
			duration:   time.Millisecond,
		},
		{
			name:       "track lookup not found",
			method:     "GET",
			endpoint:   "/api/v1/tracks/{id}",
			statusCode: "404",
			duration:   500 * time.Microsecond,
		},
		{
			name:       "rate limited request",
			method:     "POST",
			endpoint:   "/api/v1/recommend",
			statusCode: "429",
			duration:   100 * time.Microsecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues(tt.method, tt.endpoint, tt.statusCode))
			RecordAPIRequest(tt.method, tt.endpoint, tt.statusCode, tt.duration)
			after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues(tt.method, tt.endpoint, tt.statusCode))
			if after-before != 1 {
				t.Errorf("api_requests_total delta = %v, want 1", after-before)
			}
		})
	}
}

// TestTrackActiveRequest_RequestLifecycle simulates a realistic request lifecycle
func TestTrackActiveRequest_RequestLifecycle(t *testing.T) {
	start := testutil.ToFloat64(APIActiveRequests)

	for i := 0; i < 10; i++ {
		TrackActiveRequest(true)
	}
	for i := 0; i < 4; i++ {
		TrackActiveRequest(false)
	}
	if got := testutil.ToFloat64(APIActiveRequests) - start; got != 6 {
		t.Errorf("active requests = %v, want 6", got)
	}

	for i := 0; i < 6; i++ {
		TrackActiveRequest(false)
	}
	if got := testutil.ToFloat64(APIActiveRequests); got != start {
		t.Errorf("active requests = %v, want %v", got, start)
	}
}

func TestRecordRecommendation(t *testing.T) {
	tests := []struct {
		name         string
		status       string
		results      int
		unknownSeeds int
	}{
		{"success", "success", 30, 0},
		{"success with unknown seeds", "success", 10, 2},
		{"no valid seeds", "no_valid_seeds", 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reqBefore := testutil.ToFloat64(RecommendRequests.WithLabelValues(tt.status))
			unknownBefore := testutil.ToFloat64(RecommendUnknownSeeds)

			RecordRecommendation(tt.status, time.Millisecond, tt.results, tt.unknownSeeds)

			if got := testutil.ToFloat64(RecommendRequests.WithLabelValues(tt.status)) - reqBefore; got != 1 {
				t.Errorf("recommend_requests_total{%s} delta = %v, want 1", tt.status, got)
			}
			if got := testutil.ToFloat64(RecommendUnknownSeeds) - unknownBefore; got != float64(tt.unknownSeeds) {
				t.Errorf("unknown seeds delta = %v, want %d", got, tt.unknownSeeds)
			}
		})
	}
}

func TestSetSnapshotInfo(t *testing.T) {
	builtAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	SetSnapshotInfo(1234, 384, builtAt)

	if got := testutil.ToFloat64(SnapshotTracks); got != 1234 {
		t.Errorf("snapshot_tracks = %v, want 1234", got)
	}
	if got := testutil.ToFloat64(SnapshotDimension); got != 384 {
		t.Errorf("snapshot_vector_dimension = %v, want 384", got)
	}
	if got := testutil.ToFloat64(SnapshotBuiltAt); got != float64(builtAt.Unix()) {
		t.Errorf("snapshot_built_timestamp_seconds = %v, want %v", got, builtAt.Unix())
	}
}

func TestRecordBuildStage(t *testing.T) {
	before := testutil.ToFloat64(BuildStageErrors.WithLabelValues("embed"))

	RecordBuildStage("embed", time.Second, nil)
	RecordBuildStage("embed", time.Second, errors.New("backend unavailable"))

	if got := testutil.ToFloat64(BuildStageErrors.WithLabelValues("embed")) - before; got != 1 {
		t.Errorf("build_stage_errors_total{embed} delta = %v, want 1", got)
	}
}

func TestRecordExternalRequest(t *testing.T) {
	tests := []struct {
		name       string
		service    string
		statusCode int
		wantLabel  string
	}{
		{"ok", "spotify", 200, "200"},
		{"rate limited", "spotify", 429, "429"},
		{"transport failure", "genius", 0, "transport_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(ExternalRequests.WithLabelValues(tt.service, tt.wantLabel))
			RecordExternalRequest(tt.service, tt.statusCode, 10*time.Millisecond)
			after := testutil.ToFloat64(ExternalRequests.WithLabelValues(tt.service, tt.wantLabel))
			if after-before != 1 {
				t.Errorf("external_requests_total{%s,%s} delta = %v, want 1", tt.service, tt.wantLabel, after-before)
			}
		})
	}
}

func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(CacheHits.WithLabelValues("lyrics"))
	misses := testutil.ToFloat64(CacheMisses.WithLabelValues("lyrics"))

	RecordCacheLookup("lyrics", true)
	RecordCacheLookup("lyrics", false)
	RecordCacheLookup("lyrics", false)

	if got := testutil.ToFloat64(CacheHits.WithLabelValues("lyrics")) - hits; got != 1 {
		t.Errorf("hits delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(CacheMisses.WithLabelValues("lyrics")) - misses; got != 2 {
		t.Errorf("misses delta = %v, want 2", got)
	}
}

// TestConcurrentMetricRecording verifies metric recording is safe under concurrency
func TestConcurrentMetricRecording(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				RecordAPIRequest("POST", "/api/v1/recommend", "200", time.Millisecond)
				RecordRecommendation("success", time.Millisecond, 30, 0)
				RecordCacheLookup("recommend", j%2 == 0)
				TrackActiveRequest(true)
				TrackActiveRequest(false)
			}
		}()
	}
	wg.Wait()
}

func TestMetricsRegistration(t *testing.T) {
	collectors := []prometheus.Collector{
		APIRequestsTotal,
		APIRequestDuration,
		APIActiveRequests,
		APIRateLimitHits,
		RecommendRequests,
		RecommendDuration,
		RecommendResults,
		RecommendUnknownSeeds,
		SnapshotTracks,
		SnapshotDimension,
		SnapshotBuiltAt,
		BuildStageDuration,
		BuildStageErrors,
		BuildTracks,
		BuildLyricsCoverage,
		ExternalRequests,
		ExternalRequestDuration,
		CacheHits,
		CacheMisses,
		CacheSize,
		CircuitBreakerState,
		CircuitBreakerRequests,
		CircuitBreakerTransitions,
		AppInfo,
	}

	for _, m := range collectors {
		ch := make(chan *prometheus.Desc, 10)
		m.Describe(ch)
		close(ch)

		count := 0
		for range ch {
			count++
		}
		if count == 0 {
			t.Errorf("Metric has no descriptors")
		}
	}
}

// TestMetricGathering tests that metrics can be gathered using testutil
func TestMetricGathering(t *testing.T) {
	SetAppInfo("test")
	RecordAPIRequest("GET", "/test", "200", time.Millisecond)

	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Logf("Lint errors (may be expected): %v", err)
	}
	for _, p := range problems {
		t.Logf("Metric lint problem: %s", p.Text)
	}
}

func BenchmarkRecordAPIRequest(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RecordAPIRequest("POST", "/api/v1/recommend", "200", 2*time.Millisecond)
	}
}

func BenchmarkRecordRecommendation(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RecordRecommendation("success", time.Millisecond, 30, 0)
	}
}
