// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/songbird/internal/logging"
	"github.com/tomtom215/songbird/internal/models"
	"github.com/tomtom215/songbird/internal/recommend"
)

// Recommend handles POST /recommend and POST /api/v1/recommend.
//
// The body is {"seed_ids": [...], "k": 30}. k may be omitted or 0 for the
// default and is clamped to the configured maximum. The response is the
// engine's {results, metadata} object, not the success envelope.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	var body models.RecommendRequest
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil, nil)
		return
	}
	if apiErr := validateRequest(&body); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp, err := h.engine.Recommend(ctx, recommend.Request{
		SeedIDs:   body.SeedIDs,
		K:         body.K,
		RequestID: logging.RequestIDFromContext(r.Context()),
	})
	if err != nil {
		h.recommendError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Debug().
		Int("seeds", len(body.SeedIDs)).
		Int("results", len(resp.Results)).
		Bool("cache_hit", resp.Metadata.CacheHit).
		Msg("Recommendation served")

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) recommendError(w http.ResponseWriter, r *http.Request, err error) {
	var noSeeds *recommend.NoValidSeedsError
	switch {
	case errors.As(err, &noSeeds):
		respondError(w, r, http.StatusBadRequest, ErrCodeNoValidSeeds, recommend.ErrNoValidSeeds.Error(),
			map[string]interface{}{"unknown_seeds": noSeeds.Seeds}, nil)
	case errors.Is(err, recommend.ErrNoValidSeeds):
		respondError(w, r, http.StatusBadRequest, ErrCodeNoValidSeeds, recommend.ErrNoValidSeeds.Error(), nil, nil)
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusGatewayTimeout, ErrCodeTimeout, "Recommendation timed out", nil, err)
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the body.
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeUnavailable, "Request canceled", nil, err)
	default:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to generate recommendations", nil, err)
	}
}

// Track handles GET /api/v1/tracks/{id}.
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")

	snap := h.engine.Snapshot()
	track, ok := snap.Track(id)
	if !ok {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Track not found",
			map[string]interface{}{"track_id": id}, nil)
		return
	}
	pos, _ := snap.Position(id)

	respondSuccess(w, r, models.TrackInfo{
		TrackID:    track.ID,
		TrackName:  track.Name,
		ArtistName: track.Artist,
		HasLyrics:  track.HasLyrics,
		Features:   track.Features.Map(),
		Position:   pos,
	}, start)
}
