// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package recommend

import (
	"errors"
	"testing"

	"github.com/tomtom215/songbird/internal/recommend/index"
)

func TestNewSnapshot_RowMismatch(t *testing.T) {
	t.Parallel()

	idx, err := index.Build([][]float64{{1, 0}, {0, 1}})
	if err != nil {
		t.Fatalf("index.Build() error = %v", err)
	}

	_, err = NewSnapshot([]Track{{ID: "a"}}, idx, nil, BuildInfo{})
	if !errors.Is(err, ErrArtifactMismatch) {
		t.Errorf("error = %v, want ErrArtifactMismatch", err)
	}

	_, err = NewSnapshot(nil, nil, nil, BuildInfo{})
	if !errors.Is(err, ErrArtifactMismatch) {
		t.Errorf("nil index error = %v, want ErrArtifactMismatch", err)
	}
}

func TestSnapshot_Lookup(t *testing.T) {
	t.Parallel()

	idx, err := index.Build([][]float64{{1, 0}, {0, 1}, {1, 1}})
	if err != nil {
		t.Fatalf("index.Build() error = %v", err)
	}
	tracks := []Track{
		{ID: "a", Name: "Alpha"},
		{ID: "b", Name: "Beta"},
		{ID: "a", Name: "Alpha (dup)"},
	}

	snap, err := NewSnapshot(tracks, idx, nil, BuildInfo{})
	if err != nil {
		t.Fatalf("NewSnapshot() error = %v", err)
	}

	if snap.Len() != 3 || snap.Dim() != 2 {
		t.Errorf("Len, Dim = %d, %d, want 3, 2", snap.Len(), snap.Dim())
	}

	got, ok := snap.Track("b")
	if !ok || got.Name != "Beta" {
		t.Errorf("Track(b) = %+v, %v", got, ok)
	}

	// Duplicate ids resolve to the last row.
	if pos, ok := snap.Position("a"); !ok || pos != 2 {
		t.Errorf("Position(a) = %d, %v, want 2, true", pos, ok)
	}

	if _, ok := snap.Track("zzz"); ok {
		t.Error("Track(zzz) should not be found")
	}
}
