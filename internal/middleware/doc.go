// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

/*
Package middleware provides HTTP middleware for the recommendation API.

Key Components:

  - RequestID: accepts or generates X-Request-ID and stores it in the
    logging context
  - PrometheusMetrics: request counters and latency histograms labelled by
    route pattern
  - LatencyTracker: sliding window of recent request latencies with
    per-route percentiles, served by the stats endpoint

All middleware has the func(http.Handler) http.Handler shape used by chi:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(tracker.Middleware)

Route labels come from chi's route pattern (for example
"/api/v1/tracks/{id}") so path parameters do not explode metric
cardinality. Requests that match no route are labelled "unmatched".
*/
package middleware
