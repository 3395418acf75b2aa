// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package api

import (
	"context"
	"time"

	"github.com/tomtom215/songbird/internal/middleware"
	"github.com/tomtom215/songbird/internal/recommend"
)

// DefaultRequestTimeout bounds a single recommendation.
const DefaultRequestTimeout = 10 * time.Second

// Recommender is the engine surface the handlers need.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
	Snapshot() *recommend.Snapshot
	Stats() recommend.Stats
}

// HandlerOptions are optional Handler settings.
type HandlerOptions struct {
	// Version is reported by the liveness probe.
	Version string

	// Timeout bounds each recommendation. 0 uses DefaultRequestTimeout.
	Timeout time.Duration

	// Latency, when set, feeds the stats endpoint.
	Latency *middleware.LatencyTracker
}

// Handler serves the recommendation API.
type Handler struct {
	engine    Recommender
	latency   *middleware.LatencyTracker
	version   string
	timeout   time.Duration
	startTime time.Time
}

// NewHandler creates a handler over engine.
//
//nolint:gocritic // hugeParam: opts passed by value for immutability
func NewHandler(engine Recommender, opts HandlerOptions) *Handler {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultRequestTimeout
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	return &Handler{
		engine:    engine,
		latency:   opts.Latency,
		version:   opts.Version,
		timeout:   opts.Timeout,
		startTime: time.Now(),
	}
}
