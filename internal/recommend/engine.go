// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/songbird/internal/cache"
	"github.com/tomtom215/songbird/internal/logging"
	"github.com/tomtom215/songbird/internal/metrics"
	"github.com/tomtom215/songbird/internal/recommend/vecmath"
)

// Engine answers seed-based similarity queries against one Snapshot.
// It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger
	snap   *Snapshot

	cache *cache.LRU[*Response]

	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// Stats is a point-in-time view of engine counters.
type Stats struct {
	Requests    int64 `json:"requests"`
	Errors      int64 `json:"errors"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	CacheSize   int   `json:"cache_size"`
}

// NewEngine creates an engine over snap. A nil cfg uses DefaultConfig.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEngine(cfg *Config, snap *Snapshot, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if snap == nil {
		return nil, errors.New("snapshot is required")
	}

	e := &Engine{
		config: cfg,
		logger: logger.With().Str("component", "recommend").Logger(),
		snap:   snap,
	}
	if cfg.Cache.Enabled {
		e.cache = cache.NewLRU[*Response](cfg.Cache.MaxEntries, cfg.Cache.TTL)
	}

	e.logger.Info().
		Int("tracks", snap.Len()).
		Int("dim", snap.Dim()).
		Time("built_at", snap.Info.BuiltAt).
		Bool("cache", cfg.Cache.Enabled).
		Msg("recommendation engine ready")

	return e, nil
}

// Snapshot returns the snapshot the engine serves.
func (e *Engine) Snapshot() *Snapshot {
	return e.snap
}

// PruneCache drops expired cache entries. It returns how many were removed
// and how many remain.
func (e *Engine) PruneCache() (removed, remaining int) {
	if e.cache == nil {
		return 0, 0
	}
	removed = e.cache.CleanupExpired()
	return removed, e.cache.Len()
}

// Stats returns current engine counters.
func (e *Engine) Stats() Stats {
	s := Stats{
		Requests: e.requestCount.Load(),
		Errors:   e.errorCount.Load(),
	}
	if e.cache != nil {
		s.CacheHits, s.CacheMisses, s.CacheSize = e.cache.Stats()
	}
	return s
}

// Recommend returns up to k tracks closest to the centroid of the seeds.
// Seeds never appear in the results. If no seed is in the catalog the error
// is a *NoValidSeedsError.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	e.requestCount.Add(1)

	req = e.prepareRequest(ctx, req)
	logger := e.logger.With().
		Str("request_id", req.RequestID).
		Int("seeds", len(req.SeedIDs)).
		Int("k", req.K).
		Logger()

	if err := ctx.Err(); err != nil {
		e.fail("canceled", start, 0)
		return nil, err
	}

	rows, resolved, unknown := e.resolveSeeds(req.SeedIDs)
	if len(rows) == 0 {
		e.fail("no_valid_seeds", start, len(unknown))
		logger.Debug().Strs("unknown", unknown).Msg("no seed resolved")
		return nil, &NoValidSeedsError{Seeds: req.SeedIDs}
	}

	key := cacheKey(resolved, req.K)
	if resp := e.cachedResponse(key, req, unknown, start); resp != nil {
		logger.Debug().Msg("cache hit")
		metrics.RecordRecommendation("success", time.Since(start), len(resp.Results), len(unknown))
		return resp, nil
	}

	results, candidates := e.search(rows, req)

	resp := &Response{
		Results: results,
		Metadata: ResponseMetadata{
			RequestID:       req.RequestID,
			K:               req.K,
			ResolvedSeeds:   len(rows),
			UnknownSeeds:    unknown,
			Candidates:      candidates,
			LatencyMS:       time.Since(start).Milliseconds(),
			SnapshotBuiltAt: e.snap.Info.BuiltAt,
		},
	}
	if e.cache != nil {
		e.cache.Add(key, cloneResponse(resp))
	}

	metrics.RecordRecommendation("success", time.Since(start), len(results), len(unknown))
	logger.Debug().
		Int("resolved", len(rows)).
		Int("unknown", len(unknown)).
		Int("candidates", candidates).
		Int("returned", len(results)).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("recommendation complete")

	return resp, nil
}

// prepareRequest applies the default k, clamps it and fills the request id.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(ctx context.Context, req Request) Request {
	if req.RequestID == "" {
		req.RequestID = logging.RequestIDFromContext(ctx)
	}
	if req.RequestID == "" {
		req.RequestID = logging.GenerateRequestID()
	}

	if req.K <= 0 {
		req.K = e.config.DefaultK
	}
	if req.K > e.config.MaxK {
		req.K = e.config.MaxK
	}
	return req
}

// resolveSeeds maps seed ids to index rows. Repeated seeds are kept, so they
// weigh more in the centroid.
func (e *Engine) resolveSeeds(seeds []string) (rows []int, resolved, unknown []string) {
	rows = make([]int, 0, len(seeds))
	resolved = make([]string, 0, len(seeds))
	for _, id := range seeds {
		pos, ok := e.snap.Position(id)
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		rows = append(rows, pos)
		resolved = append(resolved, id)
	}
	return rows, resolved, unknown
}

// search builds the centroid query and walks the over-fetched candidates.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) search(rows []int, req Request) ([]Result, int) {
	vectors := make([][]float64, len(rows))
	for i, pos := range rows {
		vectors[i] = e.snap.Index.Vector(pos)
	}
	query := vecmath.Normalize(vecmath.Mean(vectors))

	seen := make(map[string]struct{}, len(req.SeedIDs))
	for _, id := range req.SeedIDs {
		seen[id] = struct{}{}
	}

	hits := e.snap.Index.Search(query, req.K*e.config.OverFetch)
	results := make([]Result, 0, req.K)
	for _, hit := range hits {
		track := e.snap.Tracks[hit.Position]
		if _, skip := seen[track.ID]; skip {
			continue
		}
		results = append(results, Result{
			TrackName:  track.Name,
			ArtistName: track.Artist,
			TrackID:    track.ID,
			Score:      hit.Score,
		})
		if len(results) == req.K {
			break
		}
	}
	return results, len(hits)
}

// cachedResponse returns a copy of a cached response with request-specific
// metadata filled in, or nil on a miss.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) cachedResponse(key string, req Request, unknown []string, start time.Time) *Response {
	if e.cache == nil {
		return nil
	}

	cached, ok := e.cache.Get(key)
	metrics.RecordCacheLookup("recommend", ok)
	if !ok {
		return nil
	}

	resp := cloneResponse(cached)
	resp.Metadata.RequestID = req.RequestID
	resp.Metadata.UnknownSeeds = unknown
	resp.Metadata.CacheHit = true
	resp.Metadata.LatencyMS = time.Since(start).Milliseconds()
	return resp
}

// cloneResponse copies resp so cache entries never alias caller data.
func cloneResponse(resp *Response) *Response {
	results := make([]Result, len(resp.Results))
	copy(results, resp.Results)
	return &Response{Results: results, Metadata: resp.Metadata}
}

func (e *Engine) fail(status string, start time.Time, unknown int) {
	e.errorCount.Add(1)
	metrics.RecordRecommendation(status, time.Since(start), 0, unknown)
}

// cacheKey is order-insensitive over the resolved seeds.
func cacheKey(resolved []string, k int) string {
	ids := make([]string, len(resolved))
	copy(ids, resolved)
	sort.Strings(ids)
	return strconv.Itoa(k) + "|" + strings.Join(ids, "\x1f")
}
