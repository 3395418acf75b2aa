// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

/*
Package config provides centralized configuration management for Songbird.

Both binaries load the same Config. cmd/build uses the build, spotify, genius,
embedding and storage sections; cmd/server uses server and serve.

# Configuration Sources

Configuration is layered with Koanf v2, lowest precedence first:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML file: $CONFIG_PATH, ./config.yaml, ./config.yml,
    /etc/songbird/config.yaml, /etc/songbird/config.yml
 3. Environment variables

Only mapped environment variables are read. Anything else in the
environment is ignored.

# Environment Variables

Streaming service and lyrics credentials:
  - SPOTIPY_CLIENT_ID, SPOTIPY_CLIENT_SECRET: client-credentials pair
  - SPOTIPY_REDIRECT_URI: accepted, unused (default: http://localhost:8888/callback)
  - GENIUS_ACCESS_TOKEN: Genius API token (needed only with lyrics enabled)

Build pipeline:
  - PLAYLIST_URL: playlist to ingest
  - BUILD_INPUT: local CSV/Parquet table used instead of the playlist
  - ALPHA: audio weight for fusion, 0..1 (default: 0.6)
  - MAX_TRACKS: track cap (default: 5000)
  - ENABLE_LYRICS: fetch lyrics and embed them (default: false)
  - OUT_DIR: artifact directory (default: artifacts)
  - OUT_REMOTE: s3://bucket/prefix upload target
  - S3_ENDPOINT, S3_ACCESS_KEY, S3_SECRET_KEY, S3_REGION, S3_USE_SSL

Embedding backend:
  - EMBEDDING_BACKEND: hash or http (default: hash)
  - EMBEDDING_URL: inference server for the http backend
  - EMBEDDING_DIM (default: 384), EMBEDDING_BATCH_SIZE (default: 32),
    EMBEDDING_MAX_LENGTH (default: 256)

Server:
  - HTTP_HOST, HTTP_PORT (default: 8080), HTTP_TIMEOUT
  - CORS_ORIGINS: comma-separated
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
  - ARTIFACTS_DIR: snapshot directory (default: artifacts)
  - DEFAULT_K (default: 30), MAX_K (default: 500), OVER_FETCH (default: 5)
  - RECOMMEND_CACHE, RECOMMEND_CACHE_TTL, RECOMMEND_CACHE_SIZE

Logging:
  - LOG_LEVEL: trace, debug, info, warn, error (default: info)
  - LOG_FORMAT: json or console (default: json)
  - LOG_CALLER: include file:line

# Usage Example

	cfg, err := config.Load()
	if err != nil {
	    log.Fatalf("Failed to load configuration: %v", err)
	}

# Validation

Validate runs after every load. Errors name the environment variable that
controls the bad value, for example "ALPHA must be between 0 and 1".
*/
package config
