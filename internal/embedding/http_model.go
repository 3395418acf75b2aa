// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package embedding

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/songbird/internal/metrics"
	"github.com/tomtom215/songbird/internal/resilience"
)

// HTTPModelConfig configures an HTTPModel.
type HTTPModelConfig struct {
	// BaseURL of the inference server, e.g. http://127.0.0.1:5000
	BaseURL string

	// Dim is the expected hidden state width.
	Dim int

	// MaxLength is forwarded to the server as the truncation length.
	MaxLength int

	Timeout           time.Duration
	RequestsPerSecond float64
}

// tokensRequest is the body of POST {base}/embed/tokens.
type tokensRequest struct {
	Texts     []string `json:"texts"`
	MaxLength int      `json:"max_length"`
}

// tokensResponse carries per-token hidden states and the attention mask.
type tokensResponse struct {
	Dim    int           `json:"dim"`
	Hidden [][][]float64 `json:"hidden"`
	Mask   [][]int       `json:"mask"`
}

// HTTPModel is a TokenModel backed by a remote inference server. Calls go
// through a circuit breaker and an optional rate limiter.
type HTTPModel struct {
	baseURL    string
	dim        int
	maxLength  int
	httpClient *http.Client
	breaker    *resilience.Breaker
	limiter    *resilience.Limiter
}

var _ TokenModel = (*HTTPModel)(nil)

// NewHTTPModel creates an HTTPModel.
func NewHTTPModel(cfg HTTPModelConfig) *HTTPModel {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = 256
	}
	return &HTTPModel{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		dim:        cfg.Dim,
		maxLength:  cfg.MaxLength,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    resilience.NewBreaker("embedding-api", resilience.BreakerSettings{}),
		limiter:    resilience.NewLimiter(cfg.RequestsPerSecond, 1),
	}
}

// Dim returns the expected hidden state width.
func (m *HTTPModel) Dim() int { return m.dim }

// HealthCheck verifies the inference server is reachable.
func (m *HTTPModel) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("create health check request: %w", err)
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("embedding server health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("embedding server unhealthy: %s", resp.Status)
	}
	return nil
}

// Forward sends texts to the server and returns its hidden states.
func (m *HTTPModel) Forward(ctx context.Context, texts []string) (*Batch, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return resilience.Execute(m.breaker, func() (*Batch, error) {
		return m.forward(ctx, texts)
	})
}

func (m *HTTPModel) forward(ctx context.Context, texts []string) (*Batch, error) {
	payload, err := json.Marshal(tokensRequest{Texts: texts, MaxLength: m.maxLength})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/embed/tokens", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := m.httpClient.Do(req)
	if err != nil {
		metrics.RecordExternalRequest("embedding", 0, time.Since(start))
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.RecordExternalRequest("embedding", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err != nil {
			return nil, fmt.Errorf("embedding server returned status %d (failed to read body)", resp.StatusCode)
		}
		return nil, fmt.Errorf("embedding server returned status %d: %s", resp.StatusCode, string(body))
	}

	var out tokensResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if out.Dim != 0 && out.Dim != m.dim {
		return nil, fmt.Errorf("%w: server dimension %d, configured %d", ErrMalformedBatch, out.Dim, m.dim)
	}

	return &Batch{Hidden: out.Hidden, Mask: out.Mask}, nil
}
