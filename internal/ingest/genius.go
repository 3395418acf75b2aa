// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/tomtom215/songbird/internal/config"
	"github.com/tomtom215/songbird/internal/metrics"
	"github.com/tomtom215/songbird/internal/resilience"
)

const defaultGeniusAPI = "https://api.genius.com"

// sectionHeader matches lines such as "[Chorus]" or "[Verse 2: Artist]".
var sectionHeader = regexp.MustCompile(`^\s*\[[^\]]*\]\s*$`)

// GeniusClientConfig configures a GeniusClient.
type GeniusClientConfig struct {
	AccessToken string

	// APIBaseURL defaults to the public API.
	APIBaseURL string

	Timeout           time.Duration
	RequestsPerSecond float64
}

// GeniusClientConfigFrom maps application config.
func GeniusClientConfigFrom(cfg *config.GeniusConfig) GeniusClientConfig {
	return GeniusClientConfig{
		AccessToken:       cfg.AccessToken,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Timeout:           10 * time.Second,
	}
}

// GeniusClient looks up lyrics by title and artist.
type GeniusClient struct {
	cfg        GeniusClientConfig
	httpClient *http.Client
	breaker    *resilience.Breaker
	limiter    *resilience.Limiter
	logger     zerolog.Logger
}

// NewGeniusClient creates a client.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewGeniusClient(cfg GeniusClientConfig, logger zerolog.Logger) *GeniusClient {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultGeniusAPI
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.APIBaseURL = strings.TrimSuffix(cfg.APIBaseURL, "/")

	return &GeniusClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    resilience.NewBreaker("genius-api", resilience.BreakerSettings{}),
		limiter:    resilience.NewLimiter(cfg.RequestsPerSecond, 1),
		logger:     logger.With().Str("component", "genius").Logger(),
	}
}

type geniusSearchResponse struct {
	Response struct {
		Hits []struct {
			Type   string `json:"type"`
			Result struct {
				Title         string `json:"title"`
				URL           string `json:"url"`
				PrimaryArtist struct {
					Name string `json:"name"`
				} `json:"primary_artist"`
			} `json:"result"`
		} `json:"hits"`
	} `json:"response"`
}

// Lyrics returns the lyrics of the best match for title by artist. Only the
// first artist of a comma-joined list is searched. Failures are logged and
// reported as "" with a nil error.
func (c *GeniusClient) Lyrics(ctx context.Context, title, artist string) (string, error) {
	if c.cfg.AccessToken == "" {
		return "", nil
	}
	if i := strings.Index(artist, ","); i >= 0 {
		artist = artist[:i]
	}
	artist = strings.TrimSpace(artist)

	text, err := c.lyrics(ctx, title, artist)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		c.logger.Debug().Err(err).Str("title", title).Str("artist", artist).Msg("lyrics lookup failed")
		return "", nil
	}
	return text, nil
}

func (c *GeniusClient) lyrics(ctx context.Context, title, artist string) (string, error) {
	songURL, err := c.search(ctx, title, artist)
	if err != nil || songURL == "" {
		return "", err
	}

	body, err := c.fetch(ctx, songURL, false)
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }()

	return ExtractLyrics(body)
}

func (c *GeniusClient) search(ctx context.Context, title, artist string) (string, error) {
	endpoint := c.cfg.APIBaseURL + "/search?" + url.Values{"q": {strings.TrimSpace(title + " " + artist)}}.Encode()
	body, err := c.fetch(ctx, endpoint, true)
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }()

	var sr geniusSearchResponse
	if err := json.NewDecoder(body).Decode(&sr); err != nil {
		return "", fmt.Errorf("failed to decode genius search: %w", err)
	}

	for _, hit := range sr.Response.Hits {
		if hit.Type == "song" && hit.Result.URL != "" {
			return hit.Result.URL, nil
		}
	}
	return "", nil
}

// fetch GETs target through the limiter and breaker. The caller closes the
// returned body.
func (c *GeniusClient) fetch(ctx context.Context, target string, api bool) (io.ReadCloser, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return resilience.Execute(c.breaker, func() (io.ReadCloser, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		if api {
			req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
			req.Header.Set("Accept", "application/json")
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.RecordExternalRequest("genius", 0, time.Since(start))
			return nil, fmt.Errorf("genius request failed: %w", err)
		}
		metrics.RecordExternalRequest("genius", resp.StatusCode, time.Since(start))

		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("genius returned status %d for %s", resp.StatusCode, req.URL.Path)
		}
		return resp.Body, nil
	})
}

// ExtractLyrics pulls the text of every data-lyrics-container element out
// of a song page. <br> becomes a newline and section headers are dropped.
func ExtractLyrics(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse lyrics page: %w", err)
	}

	var sb strings.Builder
	var walk func(n *html.Node, inside bool)
	walk = func(n *html.Node, inside bool) {
		if !inside && n.Type == html.ElementNode && hasAttr(n, "data-lyrics-container", "true") {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			inside = true
		}
		if inside {
			switch {
			case n.Type == html.TextNode:
				sb.WriteString(n.Data)
			case n.Type == html.ElementNode && n.Data == "br":
				sb.WriteString("\n")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child, inside)
		}
	}
	walk(doc, false)

	lines := strings.Split(sb.String(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || sectionHeader.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n"), nil
}

func hasAttr(n *html.Node, key, val string) bool {
	for _, a := range n.Attr {
		if a.Key == key && a.Val == val {
			return true
		}
	}
	return false
}
