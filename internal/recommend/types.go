// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package recommend

import (
	"time"

	"github.com/tomtom215/songbird/internal/recommend/features"
)

// Track is one row of the catalog. Its position in Snapshot.Tracks is also
// its row in the vector index.
type Track struct {
	// ID is the streaming service track id.
	ID string `json:"track_id"`

	// Name is the track title.
	Name string `json:"track_name"`

	// Artist is the comma-joined list of artist names.
	Artist string `json:"artist_name"`

	// Features are the raw audio features used to build the audio vector.
	Features features.AudioFeatures `json:"features"`

	// HasLyrics reports whether lyrics contributed to the fused vector.
	HasLyrics bool `json:"has_lyrics"`
}

// BuildInfo describes how a snapshot was produced.
type BuildInfo struct {
	Version       int       `json:"version"`
	BuiltAt       time.Time `json:"built_at"`
	Alpha         float64   `json:"alpha"`
	LyricsEnabled bool      `json:"lyrics_enabled"`
	Source        string    `json:"source,omitempty"`
}

// Request asks for tracks similar to a set of seeds.
type Request struct {
	// SeedIDs are catalog track ids. Unknown ids are dropped.
	SeedIDs []string `json:"seed_ids"`

	// K is the number of results. Zero or negative uses Config.DefaultK.
	K int `json:"k,omitempty"`

	// RequestID is a unique identifier for tracing.
	RequestID string `json:"request_id,omitempty"`
}

// Result is one recommended track.
type Result struct {
	TrackName  string  `json:"track_name"`
	ArtistName string  `json:"artist_name"`
	TrackID    string  `json:"track_id"`
	Score      float64 `json:"score"`
}

// Response holds results in descending score order.
type Response struct {
	Results  []Result         `json:"results"`
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata contains timing and diagnostic information.
type ResponseMetadata struct {
	// RequestID is the unique request identifier.
	RequestID string `json:"request_id"`

	// K is the effective k after defaulting and clamping.
	K int `json:"k"`

	// ResolvedSeeds is the number of seeds found in the catalog.
	ResolvedSeeds int `json:"resolved_seeds"`

	// UnknownSeeds lists seed ids that were not in the catalog.
	UnknownSeeds []string `json:"unknown_seeds,omitempty"`

	// Candidates is the number of index hits examined.
	Candidates int `json:"candidates"`

	// LatencyMS is the total recommendation latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// CacheHit indicates whether the result was served from cache.
	CacheHit bool `json:"cache_hit"`

	// SnapshotBuiltAt identifies the artifact set that answered.
	SnapshotBuiltAt time.Time `json:"snapshot_built_at"`
}
