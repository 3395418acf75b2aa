// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/songbird/internal/middleware"
	"github.com/tomtom215/songbird/internal/models"
	"github.com/tomtom215/songbird/internal/recommend"
)

// HealthLive handles the liveness probe. It returns 200 while the process
// is running.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, models.LiveStatus{
		Alive:   true,
		Uptime:  time.Since(h.startTime).Seconds(),
		Version: h.version,
	}, time.Now())
}

// HealthReady handles the readiness probe. It returns 503 until a snapshot
// with at least one track is loaded.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var snap *recommend.Snapshot
	if h.engine != nil {
		snap = h.engine.Snapshot()
	}
	if snap == nil || snap.Len() == 0 {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeUnavailable, "No snapshot loaded", nil, nil)
		return
	}

	respondSuccess(w, r, models.ReadyStatus{
		Ready:         true,
		Tracks:        snap.Len(),
		Dim:           snap.Dim(),
		BuiltAt:       snap.Info.BuiltAt,
		Alpha:         snap.Info.Alpha,
		LyricsEnabled: snap.Info.LyricsEnabled,
		Source:        snap.Info.Source,
	}, start)
}

// statsBody is the body of GET /api/v1/stats.
type statsBody struct {
	Engine recommend.Stats           `json:"engine"`
	Routes []middleware.RouteLatency `json:"routes"`
}

// Stats handles GET /api/v1/stats: engine counters plus per-route latency
// over the recent request window.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	body := statsBody{
		Engine: h.engine.Stats(),
		Routes: []middleware.RouteLatency{},
	}
	if h.latency != nil {
		body.Routes = h.latency.Routes()
	}
	respondSuccess(w, r, body, start)
}
