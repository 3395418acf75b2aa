// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tomtom215/songbird/internal/config"
	"github.com/tomtom215/songbird/internal/eval"
)

// options holds parsed flags. Only flags given on the command line override
// the loaded configuration.
type options struct {
	configPath string

	playlist  string
	input     string
	alpha     float64
	lyrics    bool
	maxTracks int
	outDir    string
	outRemote string

	eval      bool
	evalChunk int
	evalK     int

	changed func(name string) bool
}

// runFunc executes a parsed build. main passes the real pipeline; tests
// pass a recorder.
type runFunc func(ctx context.Context, opts *options) error

func newBuildCommand(run runFunc) *cobra.Command {
	o := &options{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a recommendation artifact set",
		Long: "Build reads tracks from a Spotify playlist or a local CSV/Parquet table, " +
			"optionally fetches and embeds lyrics, and writes the artifact set served by the server.",
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o.changed = cmd.Flags().Changed
			return run(cmd.Context(), o)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&o.configPath, "config", "c", "", "path to a YAML config file")
	flags.StringVarP(&o.playlist, "playlist", "p", "", "Spotify playlist URL, URI or id")
	flags.StringVarP(&o.input, "input", "i", "", "local CSV or Parquet track table, used instead of Spotify")
	flags.Float64Var(&o.alpha, "alpha", 0.6, "audio weight in [0,1] when fusing with lyrics")
	flags.BoolVarP(&o.lyrics, "lyrics", "y", false, "fetch lyrics from Genius and embed them")
	flags.IntVar(&o.maxTracks, "max-tracks", 5000, "maximum number of tracks to read")
	flags.StringVarP(&o.outDir, "out-dir", "o", "artifacts", "local artifact directory")
	flags.StringVar(&o.outRemote, "out-remote", "", "optional s3://bucket/prefix upload target")
	flags.BoolVar(&o.eval, "eval", false, "report hold-out recall after the build")
	flags.IntVar(&o.evalChunk, "eval-playlist-size", 10, "tracks per pseudo playlist for --eval")
	flags.IntVar(&o.evalK, "eval-k", eval.DefaultK, "cutoff for recall@k in --eval")
	flags.SortFlags = false
	flags.SetNormalizeFunc(underscoreToDash)

	return cmd
}

// underscoreToDash lets --max_tracks work like --max-tracks.
func underscoreToDash(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	out := []byte(name)
	for i, c := range out {
		if c == '_' {
			out[i] = '-'
		}
	}
	return pflag.NormalizedName(out)
}

// apply overrides b with every flag that was set explicitly.
func (o *options) apply(b *config.BuildConfig) {
	if o.changed == nil {
		return
	}
	if o.changed("playlist") {
		b.PlaylistURL = o.playlist
	}
	if o.changed("input") {
		b.Input = o.input
	}
	if o.changed("alpha") {
		b.Alpha = o.alpha
	}
	if o.changed("lyrics") {
		b.Lyrics = o.lyrics
	}
	if o.changed("max-tracks") {
		b.MaxTracks = o.maxTracks
	}
	if o.changed("out-dir") {
		b.OutDir = o.outDir
	}
	if o.changed("out-remote") {
		b.OutRemote = o.outRemote
	}
}
