// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/songbird/internal/metrics"
)

// CachePruner drops expired cache entries. *recommend.Engine satisfies it.
type CachePruner interface {
	PruneCache() (removed, remaining int)
}

// DefaultJanitorInterval is used when the interval is not positive.
const DefaultJanitorInterval = time.Minute

// CacheJanitorService sweeps expired entries out of the recommendation
// cache on a fixed interval. Lookups already expire entries lazily; the
// sweep bounds memory held by keys that are never asked for again.
type CacheJanitorService struct {
	pruner   CachePruner
	interval time.Duration
	logger   zerolog.Logger
	name     string
}

// NewCacheJanitorService creates a janitor for pruner.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewCacheJanitorService(pruner CachePruner, interval time.Duration, logger zerolog.Logger) *CacheJanitorService {
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}
	return &CacheJanitorService{
		pruner:   pruner,
		interval: interval,
		logger:   logger.With().Str("service", "cache-janitor").Logger(),
		name:     "cache-janitor",
	}
}

// Serve implements suture.Service.
func (s *CacheJanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Debug().Dur("interval", s.interval).Msg("cache janitor running")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *CacheJanitorService) sweep() {
	removed, remaining := s.pruner.PruneCache()
	metrics.SetCacheSize("recommend", remaining)
	if removed > 0 {
		s.logger.Debug().
			Int("removed", removed).
			Int("remaining", remaining).
			Msg("expired cache entries pruned")
	}
}

// String returns the service name for logging.
func (s *CacheJanitorService) String() string {
	return s.name
}
