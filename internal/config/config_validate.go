// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateBuild(); err != nil {
		return err
	}

	if err := c.validateServe(); err != nil {
		return err
	}

	if err := c.validateEmbedding(); err != nil {
		return err
	}

	if err := c.validateStorage(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateServer validates server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return c.validateRateLimits()
}

// Rate limit bounds
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// validateRateLimits validates rate limiting configuration bounds.
// Skipped when rate limiting is disabled.
func (c *Config) validateRateLimits() error {
	if c.Server.RateLimitDisabled {
		return nil
	}
	if c.Server.RateLimitReqs < minRateLimitRequests || c.Server.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d, got %d",
			minRateLimitRequests, maxRateLimitRequests, c.Server.RateLimitReqs)
	}
	if c.Server.RateLimitWindow < minRateLimitWindow || c.Server.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v, got %v",
			minRateLimitWindow, maxRateLimitWindow, c.Server.RateLimitWindow)
	}
	return nil
}

// validateBuild validates the build pipeline settings
func (c *Config) validateBuild() error {
	if c.Build.Alpha < 0 || c.Build.Alpha > 1 {
		return fmt.Errorf("ALPHA must be between 0 and 1, got %v", c.Build.Alpha)
	}
	if c.Build.MaxTracks <= 0 {
		return fmt.Errorf("MAX_TRACKS must be positive, got %d", c.Build.MaxTracks)
	}
	if c.Build.BatchSize < 1 || c.Build.BatchSize > 100 {
		return fmt.Errorf("BUILD_BATCH_SIZE must be between 1 and 100, got %d", c.Build.BatchSize)
	}
	if c.Build.OutRemote != "" {
		if err := validateRemoteTarget(c.Build.OutRemote); err != nil {
			return fmt.Errorf("OUT_REMOTE is invalid: %w", err)
		}
	}
	return nil
}

// validateServe validates recommendation serving settings
func (c *Config) validateServe() error {
	if c.Serve.ArtifactsDir == "" {
		return fmt.Errorf("ARTIFACTS_DIR is required")
	}
	if c.Serve.DefaultK < 1 {
		return fmt.Errorf("DEFAULT_K must be positive, got %d", c.Serve.DefaultK)
	}
	if c.Serve.MaxK < c.Serve.DefaultK {
		return fmt.Errorf("MAX_K (%d) must be >= DEFAULT_K (%d)", c.Serve.MaxK, c.Serve.DefaultK)
	}
	if c.Serve.OverFetch < 1 {
		return fmt.Errorf("OVER_FETCH must be at least 1, got %d", c.Serve.OverFetch)
	}
	if c.Serve.CacheEnabled && c.Serve.CacheSize < 1 {
		return fmt.Errorf("RECOMMEND_CACHE_SIZE must be positive when the cache is enabled")
	}
	return nil
}

// validEmbeddingBackends defines the supported text embedding backends
var validEmbeddingBackends = map[string]bool{
	"hash": true,
	"http": true,
}

// validateEmbedding validates the text embedding backend
func (c *Config) validateEmbedding() error {
	if !validEmbeddingBackends[c.Embedding.Backend] {
		return fmt.Errorf("EMBEDDING_BACKEND must be one of: hash, http")
	}
	if c.Embedding.Dim < 1 {
		return fmt.Errorf("EMBEDDING_DIM must be positive, got %d", c.Embedding.Dim)
	}
	if c.Embedding.BatchSize < 1 {
		return fmt.Errorf("EMBEDDING_BATCH_SIZE must be positive, got %d", c.Embedding.BatchSize)
	}
	if c.Embedding.MaxLength < 1 {
		return fmt.Errorf("EMBEDDING_MAX_LENGTH must be positive, got %d", c.Embedding.MaxLength)
	}
	if c.Embedding.Backend == "http" {
		if c.Embedding.URL == "" {
			return fmt.Errorf("EMBEDDING_URL is required when EMBEDDING_BACKEND=http")
		}
		if err := validateHTTPURL(c.Embedding.URL); err != nil {
			return fmt.Errorf("EMBEDDING_URL is invalid: %w", err)
		}
	}
	return nil
}

// validateStorage validates object storage settings. They are only required
// when an upload target is configured.
func (c *Config) validateStorage() error {
	if c.Build.OutRemote == "" {
		return nil
	}
	if c.Storage.Endpoint == "" {
		return fmt.Errorf("S3_ENDPOINT is required when OUT_REMOTE is set")
	}
	if strings.Contains(c.Storage.Endpoint, "://") {
		return fmt.Errorf("S3_ENDPOINT must be host[:port] without a scheme, got %q", c.Storage.Endpoint)
	}
	return nil
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// validateHTTPURL checks that raw is an absolute http(s) URL with a host.
func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// validateRemoteTarget checks an s3://bucket/prefix or gs://bucket/prefix target.
func validateRemoteTarget(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "s3" && u.Scheme != "gs" {
		return fmt.Errorf("scheme must be s3 or gs, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing bucket")
	}
	return nil
}
