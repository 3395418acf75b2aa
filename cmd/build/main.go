// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/tomtom215/songbird/internal/build"
	"github.com/tomtom215/songbird/internal/config"
	"github.com/tomtom215/songbird/internal/embedding"
	"github.com/tomtom215/songbird/internal/eval"
	"github.com/tomtom215/songbird/internal/ingest"
	"github.com/tomtom215/songbird/internal/logging"
	"github.com/tomtom215/songbird/internal/metrics"
	"github.com/tomtom215/songbird/internal/recommend"
	"github.com/tomtom215/songbird/internal/recommend/storage"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newBuildCommand(execute).ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logging.Warn().Msg("Build interrupted")
			os.Exit(130)
		}
		logging.Error().Err(err).Msg("Build failed")
		os.Exit(1)
	}
}

// execute loads configuration, applies flag overrides and runs the build.
func execute(ctx context.Context, opts *options) error {
	cfg, err := config.LoadFile(opts.configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	opts.apply(&cfg.Build)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid build settings: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	metrics.SetAppInfo(version)

	return run(ctx, cfg, opts)
}

func run(ctx context.Context, cfg *config.Config, opts *options) error {
	logger := logging.WithComponent("cmd/build")

	source, err := newSource(cfg, logger)
	if err != nil {
		return err
	}

	deps := build.Deps{Source: source}

	if cfg.Build.Lyrics {
		embedder, err := embedding.New(ctx, &cfg.Embedding, logger)
		if err != nil {
			return fmt.Errorf("embedding: %w", err)
		}
		deps.Embedder = embedder

		fetcher, closeCache, err := newLyricsFetcher(cfg, logger)
		if err != nil {
			return err
		}
		defer closeCache()
		deps.Lyrics = fetcher
	}

	if cfg.Build.OutRemote != "" {
		uploader, err := storage.NewUploader(&cfg.Storage, logger)
		if err != nil {
			return fmt.Errorf("uploader: %w", err)
		}
		deps.Uploader = uploader
	}

	pipeline, err := build.NewPipeline(deps, logger)
	if err != nil {
		return err
	}

	result, err := pipeline.Run(ctx, build.Params{
		Alpha:     cfg.Build.Alpha,
		MaxTracks: cfg.Build.MaxTracks,
		OutDir:    cfg.Build.OutDir,
		OutRemote: cfg.Build.OutRemote,
		Lyrics:    cfg.Build.Lyrics,
	})
	if err != nil {
		return err
	}

	logger.Info().
		Str("build_id", result.BuildID).
		Int("tracks", result.Manifest.Count).
		Int("dim", result.Manifest.Dim).
		Int("with_lyrics", result.WithLyrics).
		Dur("duration", result.Duration).
		Str("out_dir", cfg.Build.OutDir).
		Msg("Artifacts written")

	if !opts.eval {
		return nil
	}
	return evaluate(ctx, result, opts, logger)
}

// newSource picks the local table when --input is set, Spotify otherwise.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func newSource(cfg *config.Config, logger zerolog.Logger) (ingest.Source, error) {
	if cfg.Build.Input != "" {
		return ingest.NewTableSource(cfg.Build.Input, logger), nil
	}
	if cfg.Build.PlaylistURL == "" {
		return nil, errors.New("a playlist (--playlist or PLAYLIST_URL) or an input table (--input) is required")
	}
	client, err := ingest.NewSpotifyClient(ingest.SpotifyClientConfigFrom(&cfg.Spotify), logger)
	if err != nil {
		return nil, err
	}
	return ingest.NewPlaylistSource(client, cfg.Build.PlaylistURL), nil
}

// newLyricsFetcher wires Genius behind the badger cache. Without a token only
// lyrics already present in the source are used.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func newLyricsFetcher(cfg *config.Config, logger zerolog.Logger) (*ingest.LyricsFetcher, func(), error) {
	noop := func() {}
	if cfg.Genius.AccessToken == "" {
		logger.Warn().Msg("GENIUS_ACCESS_TOKEN is not set; only lyrics from the source are used")
		return nil, noop, nil
	}

	var cache *ingest.LyricsCache
	if cfg.Genius.CacheDir != "" {
		c, err := ingest.OpenLyricsCache(cfg.Genius.CacheDir)
		if err != nil {
			return nil, noop, fmt.Errorf("lyrics cache: %w", err)
		}
		cache = c
	}

	closeCache := func() {
		if cache == nil {
			return
		}
		if err := cache.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing lyrics cache")
		}
	}

	genius := ingest.NewGeniusClient(ingest.GeniusClientConfigFrom(&cfg.Genius), logger)
	return ingest.NewLyricsFetcher(genius, cache, logger), closeCache, nil
}

// evaluate scores the fresh build with hold-out recall over pseudo playlists
// cut from the source order.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func evaluate(ctx context.Context, result *build.Result, opts *options, logger zerolog.Logger) error {
	snap, err := result.Artifacts.Snapshot()
	if err != nil {
		return fmt.Errorf("eval snapshot: %w", err)
	}

	cfg := recommend.DefaultConfig()
	cfg.Cache.Enabled = false
	if opts.evalK > cfg.MaxK {
		cfg.MaxK = opts.evalK
	}
	engine, err := recommend.NewEngine(cfg, snap, zerolog.Nop())
	if err != nil {
		return fmt.Errorf("eval engine: %w", err)
	}

	ids := make([]string, snap.Len())
	for i, t := range snap.Tracks {
		ids[i] = t.ID
	}

	report, err := eval.HoldOut(ctx, engine, eval.ChunkPlaylists(ids, opts.evalChunk), opts.evalK)
	if err != nil {
		return fmt.Errorf("eval: %w", err)
	}

	logger.Info().
		Int("k", report.K).
		Int("playlists", report.Playlists).
		Int("skipped", report.Skipped).
		Float64("recall", report.Recall).
		Msg("Hold-out evaluation")
	return nil
}
