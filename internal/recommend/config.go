// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package recommend

import (
	"fmt"
	"time"

	"github.com/tomtom215/songbird/internal/config"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// DefaultK is used when a request has no positive k.
	DefaultK int `json:"default_k"`

	// MaxK caps k.
	MaxK int `json:"max_k"`

	// OverFetch is the multiplier applied to k when querying the index, so
	// that results remain after seeds are filtered out.
	OverFetch int `json:"over_fetch"`

	// Cache contains response caching parameters.
	Cache CacheConfig `json:"cache"`
}

// CacheConfig contains response caching parameters.
type CacheConfig struct {
	Enabled    bool          `json:"enabled"`
	TTL        time.Duration `json:"ttl"`
	MaxEntries int           `json:"max_entries"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultK:  30,
		MaxK:      500,
		OverFetch: 5,
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 1024,
		},
	}
}

// ConfigFromServe maps the serve section of the application config.
func ConfigFromServe(s *config.ServeConfig) *Config {
	return &Config{
		DefaultK:  s.DefaultK,
		MaxK:      s.MaxK,
		OverFetch: s.OverFetch,
		Cache: CacheConfig{
			Enabled:    s.CacheEnabled,
			TTL:        s.CacheTTL,
			MaxEntries: s.CacheSize,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.DefaultK < 1 {
		return fmt.Errorf("default_k must be positive, got %d", c.DefaultK)
	}
	if c.MaxK < c.DefaultK {
		return fmt.Errorf("max_k (%d) must be >= default_k (%d)", c.MaxK, c.DefaultK)
	}
	if c.OverFetch < 1 {
		return fmt.Errorf("over_fetch must be at least 1, got %d", c.OverFetch)
	}
	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive when caching is enabled, got %v", c.Cache.TTL)
		}
		if c.Cache.MaxEntries < 1 {
			return fmt.Errorf("cache.max_entries must be positive when caching is enabled, got %d", c.Cache.MaxEntries)
		}
	}
	return nil
}
