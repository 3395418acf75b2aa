// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package middleware

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// DefaultSlowThreshold is the latency above which a request is logged.
const DefaultSlowThreshold = time.Second

// RequestSample is one observed request.
type RequestSample struct {
	Route      string
	Method     string
	StatusCode int
	Duration   time.Duration
	At         time.Time
}

// RouteLatency aggregates the samples of one method and route.
type RouteLatency struct {
	Route    string  `json:"route"`
	Requests int     `json:"requests"`
	Errors   int     `json:"errors"`
	MeanMS   float64 `json:"mean_ms"`
	P50MS    float64 `json:"p50_ms"`
	P95MS    float64 `json:"p95_ms"`
	P99MS    float64 `json:"p99_ms"`
	MaxMS    float64 `json:"max_ms"`
}

// LatencyTracker keeps the most recent requests in a ring buffer.
type LatencyTracker struct {
	mu      sync.RWMutex
	samples []RequestSample
	next    int
	full    bool

	slow   time.Duration
	logger zerolog.Logger
}

// NewLatencyTracker keeps up to window samples. Requests slower than slow
// are logged at warn level; slow <= 0 uses DefaultSlowThreshold.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewLatencyTracker(window int, slow time.Duration, logger zerolog.Logger) *LatencyTracker {
	if window <= 0 {
		window = 1024
	}
	if slow <= 0 {
		slow = DefaultSlowThreshold
	}
	return &LatencyTracker{
		samples: make([]RequestSample, window),
		slow:    slow,
		logger:  logger,
	}
}

// Record adds a sample, overwriting the oldest once the window is full.
func (t *LatencyTracker) Record(s RequestSample) {
	t.mu.Lock()
	t.samples[t.next] = s
	t.next = (t.next + 1) % len(t.samples)
	if t.next == 0 {
		t.full = true
	}
	t.mu.Unlock()

	if s.Duration > t.slow {
		t.logger.Warn().
			Str("method", s.Method).
			Str("route", s.Route).
			Int("status", s.StatusCode).
			Dur("duration", s.Duration).
			Msg("slow request")
	}
}

// Len returns the number of samples held.
func (t *LatencyTracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.full {
		return len(t.samples)
	}
	return t.next
}

// Routes returns per-route statistics, busiest route first.
func (t *LatencyTracker) Routes() []RouteLatency {
	t.mu.RLock()
	n := t.next
	if t.full {
		n = len(t.samples)
	}
	byRoute := make(map[string][]float64)
	errs := make(map[string]int)
	for i := 0; i < n; i++ {
		s := t.samples[i]
		key := s.Method + " " + s.Route
		byRoute[key] = append(byRoute[key], float64(s.Duration)/float64(time.Millisecond))
		if s.StatusCode >= http.StatusInternalServerError {
			errs[key]++
		}
	}
	t.mu.RUnlock()

	out := make([]RouteLatency, 0, len(byRoute))
	for key, ms := range byRoute {
		sort.Float64s(ms)
		out = append(out, RouteLatency{
			Route:    key,
			Requests: len(ms),
			Errors:   errs[key],
			MeanMS:   stat.Mean(ms, nil),
			P50MS:    stat.Quantile(0.50, stat.Empirical, ms, nil),
			P95MS:    stat.Quantile(0.95, stat.Empirical, ms, nil),
			P99MS:    stat.Quantile(0.99, stat.Empirical, ms, nil),
			MaxMS:    ms[len(ms)-1],
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Requests != out[j].Requests {
			return out[i].Requests > out[j].Requests
		}
		return out[i].Route < out[j].Route
	})
	return out
}

// Middleware records every request that passes through it.
func (t *LatencyTracker) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(sw, r)

		t.Record(RequestSample{
			Route:      routePattern(r),
			Method:     r.Method,
			StatusCode: sw.statusCode,
			Duration:   time.Since(start),
			At:         start,
		})
	})
}
