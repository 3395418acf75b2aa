// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package models

import (
	"time"
)

// APIResponse is the envelope for track lookups, health, stats and every
// error response.
//
// Status is "success" or "error". Error is set only on errors.
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "data": null,
//	  "error": {
//	    "code": "NO_VALID_SEEDS",
//	    "message": "no valid seed IDs provided",
//	    "details": {"unknown_seeds": ["abc"]}
//	  },
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z", "request_id": "..."}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata accompanies every enveloped response.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError carries a machine-readable code and a human-readable message.
//
// Codes:
//   - VALIDATION_ERROR: malformed body or a failed field rule
//   - NO_VALID_SEEDS: none of the seed IDs are in the catalog
//   - NOT_FOUND: unknown track ID
//   - RATE_LIMIT_EXCEEDED: too many requests from one client
//   - SERVICE_UNAVAILABLE: no snapshot loaded
//   - INTERNAL_ERROR: anything else
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RecommendRequest is the body of POST /recommend.
type RecommendRequest struct {
	SeedIDs []string `json:"seed_ids" validate:"required,min=1,max=100,dive,trackid"`
	K       int      `json:"k" validate:"gte=0"`
}

// TrackInfo is the body of GET /api/v1/tracks/{id}.
type TrackInfo struct {
	TrackID    string             `json:"track_id"`
	TrackName  string             `json:"track_name"`
	ArtistName string             `json:"artist_name"`
	HasLyrics  bool               `json:"has_lyrics"`
	Features   map[string]float64 `json:"audio_features"`
	Position   int                `json:"position"`
}

// LiveStatus is the liveness probe body.
type LiveStatus struct {
	Alive   bool    `json:"alive"`
	Uptime  float64 `json:"uptime_seconds"`
	Version string  `json:"version"`
}

// ReadyStatus is the readiness probe body.
type ReadyStatus struct {
	Ready         bool      `json:"ready"`
	Tracks        int       `json:"tracks"`
	Dim           int       `json:"dim"`
	BuiltAt       time.Time `json:"built_at"`
	Alpha         float64   `json:"alpha"`
	LyricsEnabled bool      `json:"lyrics_enabled"`
	Source        string    `json:"source,omitempty"`
}
