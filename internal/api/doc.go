// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

/*
Package api provides the HTTP API of the recommendation service.

Routes:

	POST /recommend               seed-based recommendations (alias)
	POST /api/v1/recommend        seed-based recommendations
	GET  /api/v1/tracks/{id}      catalog lookup for one track
	GET  /api/v1/stats            engine counters and route latency
	GET  /health/live             liveness probe
	GET  /health/ready            readiness probe, 503 without a snapshot
	GET  /metrics                 Prometheus exposition

Recommendation request and response:

	POST /api/v1/recommend
	{"seed_ids": ["4uLU6hMCjMI75M1A2tKUQC"], "k": 10}

	200 OK
	{
	  "results": [
	    {"track_name": "...", "artist_name": "...", "track_id": "...", "score": 0.93}
	  ],
	  "metadata": {"request_id": "...", "k": 10, "resolved_seeds": 1, ...}
	}

Every other response, and every error, uses the envelope in package models:

	{"status": "error", "error": {"code": "NO_VALID_SEEDS", "message": "..."}, "metadata": {...}}

Error codes: VALIDATION_ERROR (malformed JSON or failed field rule),
NO_VALID_SEEDS (no seed is in the catalog), NOT_FOUND, RATE_LIMIT_EXCEEDED,
TIMEOUT, SERVICE_UNAVAILABLE and INTERNAL_ERROR.

Middleware, outermost first: request ID, real IP, panic recovery, CORS,
Prometheus metrics, latency tracking, then per-group rate limiting through
go-chi/httprate. JSON is encoded with goccy/go-json.
*/
package api
