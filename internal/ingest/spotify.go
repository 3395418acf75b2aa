// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/songbird/internal/config"
	"github.com/tomtom215/songbird/internal/metrics"
	"github.com/tomtom215/songbird/internal/recommend"
	"github.com/tomtom215/songbird/internal/recommend/features"
	"github.com/tomtom215/songbird/internal/resilience"
)

const (
	defaultSpotifyAPI      = "https://api.spotify.com/v1"
	defaultSpotifyTokenURL = "https://accounts.spotify.com/api/token"

	// spotifyPageSize is the maximum page size for playlist items and
	// the maximum ids per audio-features call.
	spotifyPageSize = 100

	// tokenExpiryMargin is subtracted from the token lifetime.
	tokenExpiryMargin = 60 * time.Second
)

// ErrUnauthorized is returned when the token exchange is rejected.
var ErrUnauthorized = errors.New("spotify: unauthorized")

// SpotifyClientConfig configures a SpotifyClient.
type SpotifyClientConfig struct {
	ClientID     string
	ClientSecret string

	// APIBaseURL and TokenURL default to the public endpoints.
	APIBaseURL string
	TokenURL   string

	Timeout           time.Duration
	RequestsPerSecond float64
}

// SpotifyClientConfigFrom maps application config.
func SpotifyClientConfigFrom(cfg *config.SpotifyConfig) SpotifyClientConfig {
	return SpotifyClientConfig{
		ClientID:          cfg.ClientID,
		ClientSecret:      cfg.ClientSecret,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}
}

// SpotifyClient reads playlists and audio features with a client-credentials
// token. It is safe for concurrent use.
type SpotifyClient struct {
	cfg        SpotifyClientConfig
	httpClient *http.Client
	breaker    *resilience.Breaker
	limiter    *resilience.Limiter
	logger     zerolog.Logger

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
	now         func() time.Time
}

// NewSpotifyClient creates a client. Credentials are checked on first use.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSpotifyClient(cfg SpotifyClientConfig, logger zerolog.Logger) (*SpotifyClient, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("SPOTIPY_CLIENT_ID and SPOTIPY_CLIENT_SECRET are required")
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultSpotifyAPI
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultSpotifyTokenURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.APIBaseURL = strings.TrimSuffix(cfg.APIBaseURL, "/")

	return &SpotifyClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    resilience.NewBreaker("spotify-api", resilience.BreakerSettings{}),
		limiter:    resilience.NewLimiter(cfg.RequestsPerSecond, 1),
		logger:     logger.With().Str("component", "spotify").Logger(),
		now:        time.Now,
	}, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// token returns a cached access token, exchanging credentials when the cached
// one is missing or about to expire.
func (c *SpotifyClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && c.now().Before(c.expiresAt) {
		return c.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordExternalRequest("spotify_auth", 0, time.Since(start))
		return "", fmt.Errorf("spotify token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.RecordExternalRequest("spotify_auth", resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		return "", fmt.Errorf("%w: token endpoint returned status %d", ErrUnauthorized, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096)) //nolint:errcheck // body is informational
		return "", fmt.Errorf("spotify token endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode spotify token: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrUnauthorized)
	}

	c.accessToken = tr.AccessToken
	c.expiresAt = c.now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenExpiryMargin)
	c.logger.Debug().Int("expires_in", tr.ExpiresIn).Msg("obtained access token")
	return c.accessToken, nil
}

func (c *SpotifyClient) invalidateToken() {
	c.mu.Lock()
	c.accessToken = ""
	c.mu.Unlock()
}

// getJSON performs an authorized GET of path against the API and decodes
// the body into out.
func (c *SpotifyClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := resilience.Execute(c.breaker, func() (struct{}, error) {
		return struct{}{}, c.doGet(ctx, path, query, out)
	})
	return err
}

func (c *SpotifyClient) doGet(ctx context.Context, path string, query url.Values, out any) error {
	tok, err := c.token(ctx)
	if err != nil {
		return err
	}

	endpoint := c.cfg.APIBaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordExternalRequest("spotify", 0, time.Since(start))
		return fmt.Errorf("spotify request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.RecordExternalRequest("spotify", resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateToken()
	}
	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err != nil {
			return fmt.Errorf("spotify %s returned status %d (failed to read body)", path, resp.StatusCode)
		}
		return fmt.Errorf("spotify %s returned status %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode spotify %s: %w", path, err)
	}
	return nil
}

type spotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []spotifyArtist `json:"artists"`
	Album   struct {
		Name string `json:"name"`
	} `json:"album"`
}

type playlistPage struct {
	Items []struct {
		Track *spotifyTrack `json:"track"`
	} `json:"items"`
	Next *string `json:"next"`
}

// PlaylistTracks returns up to max tracks of a playlist in playlist order.
// Items without a track or a track id are skipped. max <= 0 reads the whole
// playlist.
func (c *SpotifyClient) PlaylistTracks(ctx context.Context, playlistID string, max int) ([]recommend.Track, error) {
	var tracks []recommend.Track
	for offset := 0; ; offset += spotifyPageSize {
		query := url.Values{
			"limit":            {strconv.Itoa(spotifyPageSize)},
			"offset":           {strconv.Itoa(offset)},
			"additional_types": {"track"},
		}

		var page playlistPage
		if err := c.getJSON(ctx, "/playlists/"+url.PathEscape(playlistID)+"/tracks", query, &page); err != nil {
			return nil, fmt.Errorf("playlist %s page at offset %d: %w", playlistID, offset, err)
		}
		if len(page.Items) == 0 {
			break
		}

		for _, item := range page.Items {
			if item.Track == nil || item.Track.ID == "" {
				continue
			}
			tracks = append(tracks, toTrack(item.Track))
			if max > 0 && len(tracks) >= max {
				return tracks, nil
			}
		}

		if page.Next == nil || *page.Next == "" {
			break
		}
	}

	c.logger.Info().Str("playlist", playlistID).Int("tracks", len(tracks)).Msg("fetched playlist")
	return tracks, nil
}

func toTrack(t *spotifyTrack) recommend.Track {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return recommend.Track{
		ID:     t.ID,
		Name:   t.Name,
		Artist: strings.Join(names, ", "),
	}
}

type audioFeaturesResponse struct {
	AudioFeatures []*struct {
		ID string `json:"id"`
		features.AudioFeatures
	} `json:"audio_features"`
}

// AudioFeatures fetches features for ids in batches of 100. Ids the service
// has no features for are absent from the result.
func (c *SpotifyClient) AudioFeatures(ctx context.Context, ids []string) (map[string]features.AudioFeatures, error) {
	out := make(map[string]features.AudioFeatures, len(ids))
	for start := 0; start < len(ids); start += spotifyPageSize {
		end := min(start+spotifyPageSize, len(ids))

		var resp audioFeaturesResponse
		query := url.Values{"ids": {strings.Join(ids[start:end], ",")}}
		if err := c.getJSON(ctx, "/audio-features", query, &resp); err != nil {
			return nil, fmt.Errorf("audio features batch %d-%d: %w", start, end, err)
		}

		for _, f := range resp.AudioFeatures {
			if f == nil || f.ID == "" {
				continue
			}
			out[f.ID] = f.AudioFeatures
		}
	}
	return out, nil
}

// PlaylistSource reads one playlist and left-joins audio features onto it.
type PlaylistSource struct {
	client     *SpotifyClient
	playlistID string
}

var _ Source = (*PlaylistSource)(nil)

// NewPlaylistSource accepts a playlist URL, URI or bare id.
func NewPlaylistSource(client *SpotifyClient, playlist string) *PlaylistSource {
	return &PlaylistSource{client: client, playlistID: PlaylistIDFromURL(playlist)}
}

// Name returns the playlist id.
func (s *PlaylistSource) Name() string { return s.playlistID }

// Records fetches up to max playlist tracks with their audio features.
// Tracks without features keep all features missing.
func (s *PlaylistSource) Records(ctx context.Context, max int) ([]Record, error) {
	tracks, err := s.client.PlaylistTracks(ctx, s.playlistID, max)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(tracks))
	for i := range tracks {
		ids[i] = tracks[i].ID
	}
	feats, err := s.client.AudioFeatures(ctx, ids)
	if err != nil {
		return nil, err
	}

	records := make([]Record, len(tracks))
	for i := range tracks {
		tracks[i].Features = feats[tracks[i].ID]
		records[i] = Record{Track: tracks[i]}
	}
	return records, nil
}
