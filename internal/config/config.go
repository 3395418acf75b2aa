// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package config

import (
	"time"
)

// Config holds all configuration for both binaries. cmd/build reads the
// Build, Spotify, Genius, Embedding and Storage sections; cmd/server reads
// Server and Serve. Logging is shared.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Build     BuildConfig     `koanf:"build"`
	Serve     ServeConfig     `koanf:"serve"`
	Spotify   SpotifyConfig   `koanf:"spotify"`
	Genius    GeniusConfig    `koanf:"genius"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Storage   StorageConfig   `koanf:"storage"`
}

// ServerConfig holds HTTP server settings for cmd/server.
type ServerConfig struct {
	Port    int           `koanf:"port"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"`

	// CORSOrigins lists allowed origins. "*" allows any origin.
	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level: trace, debug, info, warn, error
	Level string `koanf:"level"`

	// Format: json or console
	Format string `koanf:"format"`

	// Caller adds file:line to log lines
	Caller bool `koanf:"caller"`
}

// BuildConfig holds settings for the artifact build pipeline.
type BuildConfig struct {
	// Alpha is the audio weight used when fusing audio and lyrics vectors.
	Alpha float64 `koanf:"alpha"`

	// MaxTracks caps the number of tracks pulled from the source.
	MaxTracks int `koanf:"max_tracks"`

	// OutDir is the local artifact directory.
	OutDir string `koanf:"out_dir"`

	// OutRemote is an optional s3://bucket/prefix upload target.
	OutRemote string `koanf:"out_remote"`

	// Lyrics enables Genius lyrics and text embeddings.
	Lyrics bool `koanf:"lyrics"`

	// BatchSize is the number of tracks per external batch request.
	BatchSize int `koanf:"batch_size"`

	// PlaylistURL is the Spotify playlist to ingest.
	PlaylistURL string `koanf:"playlist_url"`

	// Input is a local CSV or Parquet table used instead of Spotify.
	Input string `koanf:"input"`
}

// ServeConfig holds recommendation engine settings for cmd/server.
type ServeConfig struct {
	ArtifactsDir string        `koanf:"artifacts_dir"`
	DefaultK     int           `koanf:"default_k"`
	MaxK         int           `koanf:"max_k"`
	OverFetch    int           `koanf:"over_fetch"`
	CacheEnabled bool          `koanf:"cache_enabled"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
	CacheSize    int           `koanf:"cache_size"`
}

// SpotifyConfig holds client-credentials settings for the Spotify Web API.
type SpotifyConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`

	// RedirectURI is accepted for compatibility with existing SPOTIPY_*
	// environments. The client-credentials flow does not use it.
	RedirectURI string `koanf:"redirect_uri"`

	// RequestsPerSecond limits outbound API calls. 0 disables the limiter.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// GeniusConfig holds Genius API settings.
type GeniusConfig struct {
	AccessToken string `koanf:"access_token"`

	// CacheDir is the badger directory used to cache lyrics between builds.
	// Empty disables the cache.
	CacheDir string `koanf:"cache_dir"`

	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// EmbeddingConfig selects and configures the text embedding backend.
type EmbeddingConfig struct {
	// Backend: hash (local, deterministic) or http (inference server)
	Backend string `koanf:"backend"`

	// URL is the inference server base URL for the http backend.
	URL string `koanf:"url"`

	Dim               int           `koanf:"dim"`
	BatchSize         int           `koanf:"batch_size"`
	MaxLength         int           `koanf:"max_length"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
}

// StorageConfig holds the S3-compatible endpoint used for --out-remote uploads.
type StorageConfig struct {
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	Region    string `koanf:"region"`
	UseSSL    bool   `koanf:"use_ssl"`
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in that order of increasing precedence.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
