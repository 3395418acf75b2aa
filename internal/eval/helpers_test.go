// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package eval

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/songbird/internal/recommend"
	"github.com/tomtom215/songbird/internal/recommend/index"
)

func newTestEngine(t *testing.T, tracks []recommend.Track, vectors [][]float64) *recommend.Engine {
	t.Helper()

	idx, err := index.Build(vectors)
	if err != nil {
		t.Fatalf("index.Build() error = %v", err)
	}
	snap, err := recommend.NewSnapshot(tracks, idx, nil, recommend.BuildInfo{})
	if err != nil {
		t.Fatalf("NewSnapshot() error = %v", err)
	}
	engine, err := recommend.NewEngine(recommend.DefaultConfig(), snap, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return engine
}
