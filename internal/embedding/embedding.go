// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package embedding

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/songbird/internal/config"
)

// New builds the Provider selected by cfg.Backend. For the http backend the
// server must answer its health check, otherwise the build cannot proceed.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(ctx context.Context, cfg *config.EmbeddingConfig, logger zerolog.Logger) (Provider, error) {
	var model TokenModel
	switch cfg.Backend {
	case "hash", "":
		model = NewHashModel(cfg.Dim, cfg.MaxLength)
	case "http":
		m := NewHTTPModel(HTTPModelConfig{
			BaseURL:           cfg.URL,
			Dim:               cfg.Dim,
			MaxLength:         cfg.MaxLength,
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		})
		if err := m.HealthCheck(ctx); err != nil {
			return nil, fmt.Errorf("embedding backend unavailable: %w", err)
		}
		model = m
	default:
		return nil, fmt.Errorf("unknown embedding backend %q", cfg.Backend)
	}

	logger.Info().Str("backend", cfg.Backend).Int("dim", model.Dim()).Int("batch_size", cfg.BatchSize).
		Msg("Embedding provider ready")
	return NewEncoder(model, cfg.BatchSize, logger), nil
}
