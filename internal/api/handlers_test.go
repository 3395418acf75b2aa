// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/songbird/internal/middleware"
	"github.com/tomtom215/songbird/internal/models"
	"github.com/tomtom215/songbird/internal/recommend"
	"github.com/tomtom215/songbird/internal/recommend/features"
	"github.com/tomtom215/songbird/internal/recommend/index"
)

// newTestEngine builds an engine over n tracks spread on the unit circle,
// ten degrees apart, with ids t0..t(n-1).
func newTestEngine(t *testing.T, n int) *recommend.Engine {
	t.Helper()

	tracks := make([]recommend.Track, n)
	vectors := make([][]float64, n)
	for i := range tracks {
		rad := float64(i) * 10 * math.Pi / 180
		vectors[i] = []float64{math.Cos(rad), math.Sin(rad)}
		tracks[i] = recommend.Track{
			ID:       fmt.Sprintf("t%d", i),
			Name:     fmt.Sprintf("Song %d", i),
			Artist:   "Artist",
			Features: features.AudioFeatures{Tempo: features.Float(100 + float64(i))},
		}
	}

	idx, err := index.Build(vectors)
	if err != nil {
		t.Fatalf("index.Build() error = %v", err)
	}
	snap, err := recommend.NewSnapshot(tracks, idx, nil, recommend.BuildInfo{
		Version: 1,
		BuiltAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Alpha:   0.6,
		Source:  "test",
	})
	if err != nil {
		t.Fatalf("NewSnapshot() error = %v", err)
	}

	cfg := recommend.DefaultConfig()
	cfg.DefaultK = 4
	cfg.MaxK = 5
	engine, err := recommend.NewEngine(cfg, snap, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return engine
}

func newTestServer(t *testing.T, engine Recommender) http.Handler {
	t.Helper()

	h := NewHandler(engine, HandlerOptions{
		Version: "test",
		Latency: middleware.NewLatencyTracker(64, 0, zerolog.Nop()),
	})
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	return NewRouter(h, NewChiMiddleware(cfg)).SetupChi()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()

	var env models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v\nbody: %s", err, rec.Body.String())
	}
	return env
}

func TestRecommendEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, newTestEngine(t, 10))

	for _, path := range []string{"/recommend", "/api/v1/recommend"} {
		t.Run(path, func(t *testing.T) {
			t.Parallel()

			rec := do(t, srv, http.MethodPost, path, `{"seed_ids":["t0","t1"],"k":3}`)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
			}

			var resp recommend.Response
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			got := make([]string, len(resp.Results))
			for i, r := range resp.Results {
				got[i] = r.TrackID
			}
			if strings.Join(got, ",") != "t2,t3,t4" {
				t.Errorf("results = %v, want [t2 t3 t4]", got)
			}
			if resp.Results[0].TrackName != "Song 2" || resp.Results[0].ArtistName != "Artist" {
				t.Errorf("results[0] = %+v", resp.Results[0])
			}
			if resp.Metadata.RequestID == "" || resp.Metadata.RequestID != rec.Header().Get("X-Request-ID") {
				t.Errorf("request id = %q, header %q", resp.Metadata.RequestID, rec.Header().Get("X-Request-ID"))
			}
		})
	}
}

func TestRecommendDefaultsAndClamp(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, newTestEngine(t, 20))

	tests := []struct {
		name string
		body string
		want int
	}{
		{"k omitted uses default", `{"seed_ids":["t0"]}`, 4},
		{"k above max is clamped", `{"seed_ids":["t0"],"k":50}`, 5},
		{"k within range", `{"seed_ids":["t0"],"k":2}`, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := do(t, srv, http.MethodPost, "/api/v1/recommend", tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			var resp recommend.Response
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(resp.Results) != tt.want || resp.Metadata.K != tt.want {
				t.Errorf("len(results) = %d, k = %d, want %d", len(resp.Results), resp.Metadata.K, tt.want)
			}
		})
	}
}

func TestRecommendErrors(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, newTestEngine(t, 5))

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"malformed json", `{"seed_ids":`, ErrCodeValidation},
		{"empty body", ``, ErrCodeValidation},
		{"unknown field", `{"seed_ids":["t0"],"limit":3}`, ErrCodeValidation},
		{"trailing data", `{"seed_ids":["t0"]}{}`, ErrCodeValidation},
		{"missing seeds", `{"k":3}`, ErrCodeValidation},
		{"empty seeds", `{"seed_ids":[]}`, ErrCodeValidation},
		{"blank seed", `{"seed_ids":["  "]}`, ErrCodeValidation},
		{"negative k", `{"seed_ids":["t0"],"k":-1}`, ErrCodeValidation},
		{"no seed resolves", `{"seed_ids":["nope","nada"]}`, ErrCodeNoValidSeeds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := do(t, srv, http.MethodPost, "/api/v1/recommend", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
			env := decodeEnvelope(t, rec)
			if env.Status != "error" || env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("envelope = %+v, want code %s", env, tt.wantCode)
			}
		})
	}
}

func TestRecommendNoValidSeedsDetails(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, newTestEngine(t, 5))
	rec := do(t, srv, http.MethodPost, "/api/v1/recommend", `{"seed_ids":["x","y"]}`)

	env := decodeEnvelope(t, rec)
	seeds, ok := env.Error.Details["unknown_seeds"].([]interface{})
	if !ok || len(seeds) != 2 {
		t.Errorf("details = %v, want both unknown seeds", env.Error.Details)
	}
	if env.Error.Message != recommend.ErrNoValidSeeds.Error() {
		t.Errorf("message = %q", env.Error.Message)
	}
}

func TestRecommendUnknownSeedsReported(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, newTestEngine(t, 5))
	rec := do(t, srv, http.MethodPost, "/api/v1/recommend", `{"seed_ids":["t0","ghost"],"k":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp recommend.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Metadata.ResolvedSeeds != 1 || len(resp.Metadata.UnknownSeeds) != 1 || resp.Metadata.UnknownSeeds[0] != "ghost" {
		t.Errorf("metadata = %+v", resp.Metadata)
	}
}

// stubEngine returns a fixed error from Recommend.
type stubEngine struct {
	*recommend.Engine
	err error
}

func (s stubEngine) Recommend(context.Context, recommend.Request) (*recommend.Response, error) {
	return nil, s.err
}

func TestRecommendEngineFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"deadline", fmt.Errorf("search: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, ErrCodeTimeout},
		{"internal", errors.New("index exploded"), http.StatusInternalServerError, ErrCodeInternal},
		{"bare sentinel", recommend.ErrNoValidSeeds, http.StatusBadRequest, ErrCodeNoValidSeeds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(t, stubEngine{Engine: newTestEngine(t, 3), err: tt.err})
			rec := do(t, srv, http.MethodPost, "/api/v1/recommend", `{"seed_ids":["t0"]}`)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if env := decodeEnvelope(t, rec); env.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", env.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestTrackEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, newTestEngine(t, 5))

	rec := do(t, srv, http.MethodGet, "/api/v1/tracks/t3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var env struct {
		Status string           `json:"status"`
		Data   models.TrackInfo `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Status != "success" || env.Data.TrackID != "t3" || env.Data.Position != 3 {
		t.Errorf("response = %+v", env)
	}
	if env.Data.Features["tempo"] != 103 || len(env.Data.Features) != 1 {
		t.Errorf("features = %v, want tempo only", env.Data.Features)
	}

	rec = do(t, srv, http.MethodGet, "/api/v1/tracks/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown track status = %d, want 404", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error.Code != ErrCodeNotFound {
		t.Errorf("code = %q, want NOT_FOUND", env.Error.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, newTestEngine(t, 4))

	rec := do(t, srv, http.MethodGet, "/health/live", "")
	if rec.Code != http.StatusOK {
		t.Errorf("live status = %d", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, "/health/ready", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d: %s", rec.Code, rec.Body.String())
	}
	var env struct {
		Data models.ReadyStatus `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Data.Ready || env.Data.Tracks != 4 || env.Data.Dim != 2 || env.Data.Source != "test" {
		t.Errorf("ready = %+v", env.Data)
	}
}

func TestHealthReadyWithoutSnapshot(t *testing.T) {
	t.Parallel()

	snap, err := recommend.NewSnapshot(nil, &index.Flat{}, nil, recommend.BuildInfo{})
	if err != nil {
		t.Fatalf("NewSnapshot() error = %v", err)
	}
	engine, err := recommend.NewEngine(nil, snap, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	rec := do(t, newTestServer(t, engine), http.MethodGet, "/health/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d, want 503", rec.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, newTestEngine(t, 5))
	do(t, srv, http.MethodPost, "/api/v1/recommend", `{"seed_ids":["t0"],"k":2}`)
	do(t, srv, http.MethodPost, "/api/v1/recommend", `{"seed_ids":["t0"],"k":2}`)

	rec := do(t, srv, http.MethodGet, "/api/v1/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var env struct {
		Data statsBody `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.Engine.Requests != 2 || env.Data.Engine.CacheHits != 1 {
		t.Errorf("engine stats = %+v", env.Data.Engine)
	}
	found := false
	for _, r := range env.Data.Routes {
		if r.Route == "POST /api/v1/recommend" && r.Requests == 2 {
			found = true
		}
	}
	if !found {
		t.Errorf("routes = %+v, want POST /api/v1/recommend with 2 requests", env.Data.Routes)
	}
}

func TestMetricsAndNotFound(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, newTestEngine(t, 3))

	rec := do(t, srv, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("api_requests_total")) {
		t.Errorf("/metrics status = %d", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, "/nowhere", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want 404", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, "/api/v1/recommend", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/v1/recommend status = %d, want 405", rec.Code)
	}
}
