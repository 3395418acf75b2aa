// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/songbird/internal/api"
	"github.com/tomtom215/songbird/internal/config"
	"github.com/tomtom215/songbird/internal/logging"
	"github.com/tomtom215/songbird/internal/metrics"
	"github.com/tomtom215/songbird/internal/middleware"
	"github.com/tomtom215/songbird/internal/recommend"
	"github.com/tomtom215/songbird/internal/recommend/storage"
	"github.com/tomtom215/songbird/internal/supervisor"
	"github.com/tomtom215/songbird/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	latencyWindow    = 2048
	slowRequest      = time.Second
	janitorInterval  = time.Minute
	shutdownDeadline = 10 * time.Second
)

func main() {
	if err := newServerCommand().Execute(); err != nil {
		logging.Error().Err(err).Msg("Server stopped with error")
		os.Exit(1)
	}
}

func newServerCommand() *cobra.Command {
	var configPath, artifactsDir string

	cmd := &cobra.Command{
		Use:          "server",
		Short:        "Serve playlist recommendations over HTTP",
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFile(configPath)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if cmd.Flags().Changed("artifacts") {
				cfg.Serve.ArtifactsDir = artifactsDir
			}

			logging.Init(logging.Config{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Caller: cfg.Logging.Caller,
			})
			metrics.SetAppInfo(version)

			if err := run(cfg); err != nil {
				return err
			}
			logging.Info().Msg("Server stopped gracefully")
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (default: CONFIG_PATH or standard locations)")
	cmd.Flags().StringVarP(&artifactsDir, "artifacts", "a", "", "artifact directory (overrides serve.artifacts_dir)")
	return cmd
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().
		Str("version", version).
		Str("artifacts_dir", cfg.Serve.ArtifactsDir).
		Msg("Starting songbird server")

	// The snapshot is loaded once; a new build needs a restart to be served.
	snap, manifest, err := storage.LoadSnapshot(ctx, cfg.Serve.ArtifactsDir)
	if err != nil {
		return fmt.Errorf("load snapshot from %s: %w", cfg.Serve.ArtifactsDir, err)
	}
	metrics.SetSnapshotInfo(snap.Len(), snap.Dim(), snap.Info.BuiltAt)
	logging.Info().
		Time("built_at", manifest.BuiltAt).
		Str("source", manifest.Source).
		Int("tracks", snap.Len()).
		Int("dim", snap.Dim()).
		Bool("lyrics", snap.Info.LyricsEnabled).
		Msg("Snapshot loaded")

	engine, err := recommend.NewEngine(recommend.ConfigFromServe(&cfg.Serve), snap, logging.WithComponent("engine"))
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	latency := middleware.NewLatencyTracker(latencyWindow, slowRequest, logging.WithComponent("latency"))
	handler := api.NewHandler(engine, api.HandlerOptions{
		Version: version,
		Timeout: cfg.Server.Timeout,
		Latency: latency,
	})
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(&cfg.Server)))

	if cfg.Server.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (RATE_LIMIT_DISABLED=true)")
	}
	for _, origin := range cfg.Server.CORSOrigins {
		if origin == "*" {
			logging.Warn().Msg("CORS allows any origin; set CORS_ORIGINS to restrict it")
			break
		}
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	if cfg.Serve.CacheEnabled {
		tree.AddMaintenanceService(services.NewCacheJanitorService(engine, janitorInterval, logging.WithComponent("supervisor")))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, shutdownDeadline))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	errCh := tree.ServeBackground(ctx)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("supervisor tree: %w", err)
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	return nil
}
