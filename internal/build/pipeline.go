// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package build

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/songbird/internal/embedding"
	"github.com/tomtom215/songbird/internal/ingest"
	"github.com/tomtom215/songbird/internal/logging"
	"github.com/tomtom215/songbird/internal/metrics"
	"github.com/tomtom215/songbird/internal/recommend"
	"github.com/tomtom215/songbird/internal/recommend/features"
	"github.com/tomtom215/songbird/internal/recommend/fusion"
	"github.com/tomtom215/songbird/internal/recommend/index"
	"github.com/tomtom215/songbird/internal/recommend/storage"
)

// Stage names, used in logs and the build stage metrics.
const (
	StageSource    = "source"
	StageLyrics    = "lyrics"
	StageFit       = "fit"
	StageTransform = "transform"
	StageEmbed     = "embed"
	StageFuse      = "fuse"
	StageIndex     = "index"
	StageSave      = "save"
	StageUpload    = "upload"
)

// Uploader copies a saved artifact directory to remote storage.
type Uploader interface {
	Upload(ctx context.Context, dir string, target storage.RemoteTarget) error
}

// Params are the per-run settings.
type Params struct {
	// Alpha is the audio weight in [0,1].
	Alpha float64

	// MaxTracks caps the tracks read from the source. 0 means no cap.
	MaxTracks int

	// OutDir receives the artifact set.
	OutDir string

	// OutRemote is an optional s3:// or gs:// upload target.
	OutRemote string

	// Lyrics enables lyrics lookup and text embeddings.
	Lyrics bool
}

// Deps are the collaborators of a Pipeline. Lyrics, Embedder and Uploader
// may be nil when the corresponding feature is not used.
type Deps struct {
	Source   ingest.Source
	Lyrics   *ingest.LyricsFetcher
	Embedder embedding.Provider
	Uploader Uploader
}

// Result summarizes a completed run.
type Result struct {
	BuildID    string
	Manifest   *storage.Manifest
	Artifacts  *storage.Artifacts
	WithLyrics int
	Duration   time.Duration
}

// Pipeline runs the stages of a build in order. Any failing stage aborts the
// run and nothing is published.
type Pipeline struct {
	deps   Deps
	logger zerolog.Logger
	now    func() time.Time
}

// NewPipeline creates a pipeline.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewPipeline(deps Deps, logger zerolog.Logger) (*Pipeline, error) {
	if deps.Source == nil {
		return nil, errors.New("build: a track source is required")
	}
	return &Pipeline{
		deps:   deps,
		logger: logger.With().Str("component", "build").Logger(),
		now:    time.Now,
	}, nil
}

// validate rejects parameters the pipeline cannot honor before any work is done.
//
//nolint:gocritic // hugeParam: p is small and read once
func (pl *Pipeline) validate(p Params) (*storage.RemoteTarget, error) {
	if p.Alpha < 0 || p.Alpha > 1 {
		return nil, fmt.Errorf("alpha must be in [0,1], got %v", p.Alpha)
	}
	if p.OutDir == "" {
		return nil, errors.New("output directory is required")
	}
	if p.Lyrics && pl.deps.Embedder == nil {
		return nil, errors.New("lyrics enabled but no embedding provider configured")
	}
	if p.OutRemote == "" {
		return nil, nil
	}
	if pl.deps.Uploader == nil {
		return nil, errors.New("remote output requested but no uploader configured")
	}
	target, err := storage.ParseRemoteTarget(p.OutRemote)
	if err != nil {
		return nil, err
	}
	return &target, nil
}

// Run executes every stage and returns the saved manifest.
//
//nolint:gocritic // hugeParam: p is small and read once
func (pl *Pipeline) Run(ctx context.Context, p Params) (*Result, error) {
	start := pl.now()
	target, err := pl.validate(p)
	if err != nil {
		return nil, err
	}

	buildID := logging.GenerateBuildID()
	ctx = logging.ContextWithBuildID(ctx, buildID)
	logger := pl.logger.With().Str("build_id", buildID).Str("source", pl.deps.Source.Name()).Logger()
	logger.Info().
		Float64("alpha", p.Alpha).
		Int("max_tracks", p.MaxTracks).
		Bool("lyrics", p.Lyrics).
		Str("out_dir", p.OutDir).
		Msg("build started")

	var records []ingest.Record
	if err := pl.stage(ctx, logger, StageSource, func() error {
		records, err = pl.deps.Source.Records(ctx, p.MaxTracks)
		return err
	}); err != nil {
		return nil, err
	}

	tracks := make([]recommend.Track, len(records))
	rows := make([]features.AudioFeatures, len(records))
	for i := range records {
		tracks[i] = records[i].Track
		rows[i] = records[i].Track.Features
	}

	var texts []string
	if p.Lyrics {
		if err := pl.stage(ctx, logger, StageLyrics, func() error {
			texts, err = pl.lyrics(ctx, records)
			return err
		}); err != nil {
			return nil, err
		}
	}

	var scaler *features.Scaler
	if err := pl.stage(ctx, logger, StageFit, func() error {
		scaler, err = features.Fit(rows)
		return err
	}); err != nil {
		return nil, err
	}

	var audio [][]float64
	_ = pl.stage(ctx, logger, StageTransform, func() error { //nolint:errcheck // transform cannot fail
		audio = scaler.TransformAll(rows)
		return nil
	})

	var lyricsVecs [][]float64
	withLyrics := 0
	if p.Lyrics {
		if err := pl.stage(ctx, logger, StageEmbed, func() error {
			lyricsVecs, withLyrics, err = pl.embed(ctx, texts)
			return err
		}); err != nil {
			return nil, err
		}
		for i := range tracks {
			tracks[i].HasLyrics = lyricsVecs != nil && lyricsVecs[i] != nil
		}
	}

	var fused [][]float64
	if err := pl.stage(ctx, logger, StageFuse, func() error {
		fused, err = fusion.FuseAll(audio, lyricsVecs, p.Alpha)
		return err
	}); err != nil {
		return nil, err
	}

	var idx *index.Flat
	if err := pl.stage(ctx, logger, StageIndex, func() error {
		idx, err = index.Build(fused)
		return err
	}); err != nil {
		return nil, err
	}

	artifacts := &storage.Artifacts{
		Tracks:  tracks,
		Vectors: fused,
		Scaler:  scaler,
		Index:   idx,
		Info: recommend.BuildInfo{
			Version:       storage.FormatVersion,
			BuiltAt:       pl.now().UTC(),
			Alpha:         p.Alpha,
			LyricsEnabled: p.Lyrics,
			Source:        pl.deps.Source.Name(),
		},
	}

	var manifest *storage.Manifest
	if err := pl.stage(ctx, logger, StageSave, func() error {
		manifest, err = storage.Save(ctx, p.OutDir, artifacts)
		return err
	}); err != nil {
		return nil, err
	}

	if target != nil {
		if err := pl.stage(ctx, logger, StageUpload, func() error {
			return pl.deps.Uploader.Upload(ctx, p.OutDir, *target)
		}); err != nil {
			return nil, err
		}
	}

	res := &Result{
		BuildID:    buildID,
		Manifest:   manifest,
		Artifacts:  artifacts,
		WithLyrics: withLyrics,
		Duration:   pl.now().Sub(start),
	}
	logger.Info().
		Int("tracks", manifest.Count).
		Int("dim", manifest.Dim).
		Int("with_lyrics", withLyrics).
		Dur("duration", res.Duration).
		Msg("build complete")
	return res, nil
}

// stage runs fn as one named stage, recording its duration and outcome.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func (pl *Pipeline) stage(ctx context.Context, logger zerolog.Logger, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	metrics.RecordBuildStage(name, elapsed, err)

	if err != nil {
		logger.Error().Err(err).Str("stage", name).Dur("elapsed", elapsed).Msg("build stage failed")
		return fmt.Errorf("%s: %w", name, err)
	}
	logger.Debug().Str("stage", name).Dur("elapsed", elapsed).Msg("build stage complete")
	return nil
}

// lyrics returns one text per record. Lyrics carried by the source win;
// the rest are fetched when a fetcher is configured.
func (pl *Pipeline) lyrics(ctx context.Context, records []ingest.Record) ([]string, error) {
	texts := make([]string, len(records))
	var missing []recommend.Track
	var missingAt []int
	for i := range records {
		if records[i].Lyrics != "" {
			texts[i] = records[i].Lyrics
			continue
		}
		missing = append(missing, records[i].Track)
		missingAt = append(missingAt, i)
	}

	if len(missing) == 0 || pl.deps.Lyrics == nil {
		return texts, nil
	}

	fetched, err := pl.deps.Lyrics.Fetch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, i := range missingAt {
		texts[i] = fetched[j]
	}
	return texts, nil
}

// embed encodes the non-empty texts. Rows without text get a nil vector.
// When no row has text the result is nil, so fusion falls back to audio.
func (pl *Pipeline) embed(ctx context.Context, texts []string) ([][]float64, int, error) {
	var batch []string
	var at []int
	for i, t := range texts {
		if t != "" {
			batch = append(batch, t)
			at = append(at, i)
		}
	}
	if len(batch) == 0 {
		return nil, 0, nil
	}

	vecs, err := pl.deps.Embedder.Encode(ctx, batch)
	if err != nil {
		return nil, 0, err
	}
	if len(vecs) != len(batch) {
		return nil, 0, fmt.Errorf("embedding returned %d vectors for %d texts", len(vecs), len(batch))
	}

	out := make([][]float64, len(texts))
	for j, i := range at {
		out[i] = vecs[j]
	}
	return out, len(batch), nil
}
