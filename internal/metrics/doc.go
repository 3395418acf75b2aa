// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered with the default registry through promauto at
package init, and each concern has a small Record* helper so call sites stay
one line long.

# Metrics Endpoint

The server exposes metrics at /metrics in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

API Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: In-flight requests (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)

Recommendation Metrics:
  - recommend_requests_total: Requests by outcome (counter)
    Labels: status (success, no_valid_seeds, error)
  - recommend_duration_seconds: Engine latency (histogram)
  - recommend_results: Result list length (histogram)
  - recommend_unknown_seeds_total: Seeds that did not resolve (counter)

Snapshot Metrics:
  - snapshot_tracks, snapshot_vector_dimension, snapshot_built_timestamp_seconds

Build Metrics:
  - build_stage_duration_seconds: Per-stage duration (histogram)
    Labels: stage (source, lyrics, fit, transform, embed, fuse, index, save, upload)
  - build_stage_errors_total: Failed stages (counter)
  - build_tracks, build_lyrics_coverage_ratio

External Service Metrics:
  - external_requests_total: Calls by service and HTTP status (counter)
  - external_request_duration_seconds: Call latency (histogram)
  - circuit_breaker_state, circuit_breaker_requests_total,
    circuit_breaker_state_transitions_total

# Usage Example

	start := time.Now()
	resp, err := engine.Recommend(ctx, req)
	metrics.RecordRecommendation("success", time.Since(start), len(resp.Items), resp.Metadata.UnknownSeeds)

# Thread Safety

Prometheus collectors are safe for concurrent use; every helper in this
package may be called from any goroutine.
*/
package metrics
