// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/songbird/config.yaml",
	"/etc/songbird/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with every default applied. Defaults are
// loaded first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              8080,
			Host:              "0.0.0.0",
			Timeout:           30 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Build: BuildConfig{
			Alpha:     0.6,
			MaxTracks: 5000,
			OutDir:    "artifacts",
			Lyrics:    false,
			BatchSize: 100,
		},
		Serve: ServeConfig{
			ArtifactsDir: "artifacts",
			DefaultK:     30,
			MaxK:         500,
			OverFetch:    5,
			CacheEnabled: true,
			CacheTTL:     5 * time.Minute,
			CacheSize:    1024,
		},
		Spotify: SpotifyConfig{
			RedirectURI:       "http://localhost:8888/callback",
			RequestsPerSecond: 5,
		},
		Genius: GeniusConfig{
			RequestsPerSecond: 3,
		},
		Embedding: EmbeddingConfig{
			Backend:           "hash",
			Dim:               384,
			BatchSize:         32,
			MaxLength:         256,
			Timeout:           60 * time.Second,
			RequestsPerSecond: 0,
		},
		Storage: StorageConfig{
			Region: "us-east-1",
			UseSSL: true,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in defaults from defaultConfig
//  2. Config File: optional YAML config file (if exists)
//  3. Environment Variables: override any setting
func LoadWithKoanf() (*Config, error) {
	return loadWithKoanf(findConfigFile())
}

// LoadFile behaves like LoadWithKoanf but reads the YAML file at path
// instead of searching DefaultConfigPaths. cmd/build uses it for --config.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return LoadWithKoanf()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return loadWithKoanf(path)
}

func loadWithKoanf(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// SPOTIPY_CLIENT_ID -> spotify.client_id
	// HTTP_PORT -> server.port
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars always arrive as strings.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
// The SPOTIPY_* and GENIUS_ACCESS_TOKEN names match the variables already
// exported by existing playlist tooling.
var envMappings = map[string]string{
	// Server
	"http_host":           "server.host",
	"http_port":           "server.port",
	"http_timeout":        "server.timeout",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_requests",
	"rate_limit_window":   "server.rate_limit_window",
	"disable_rate_limit":  "server.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Build
	"alpha":            "build.alpha",
	"max_tracks":       "build.max_tracks",
	"out_dir":          "build.out_dir",
	"out_remote":       "build.out_remote",
	"enable_lyrics":    "build.lyrics",
	"build_batch_size": "build.batch_size",
	"playlist_url":     "build.playlist_url",
	"build_input":      "build.input",

	// Serve
	"artifacts_dir":        "serve.artifacts_dir",
	"default_k":            "serve.default_k",
	"max_k":                "serve.max_k",
	"over_fetch":           "serve.over_fetch",
	"recommend_cache":      "serve.cache_enabled",
	"recommend_cache_ttl":  "serve.cache_ttl",
	"recommend_cache_size": "serve.cache_size",

	// Spotify
	"spotipy_client_id":     "spotify.client_id",
	"spotipy_client_secret": "spotify.client_secret",
	"spotipy_redirect_uri":  "spotify.redirect_uri",
	"spotify_rps":           "spotify.requests_per_second",

	// Genius
	"genius_access_token": "genius.access_token",
	"lyrics_cache_dir":    "genius.cache_dir",
	"genius_rps":          "genius.requests_per_second",

	// Embedding
	"embedding_backend":    "embedding.backend",
	"embedding_url":        "embedding.url",
	"embedding_dim":        "embedding.dim",
	"embedding_batch_size": "embedding.batch_size",
	"embedding_max_length": "embedding.max_length",
	"embedding_timeout":    "embedding.timeout",
	"embedding_rps":        "embedding.requests_per_second",

	// Object storage
	"s3_endpoint":   "storage.endpoint",
	"s3_access_key": "storage.access_key",
	"s3_secret_key": "storage.secret_key",
	"s3_region":     "storage.region",
	"s3_use_ssl":    "storage.use_ssl",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - SPOTIPY_CLIENT_ID -> spotify.client_id
//   - GENIUS_ACCESS_TOKEN -> genius.access_token
//   - PLAYLIST_URL -> build.playlist_url
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// Unmapped keys are skipped so unrelated environment variables never
	// reach the config.
	return ""
}
