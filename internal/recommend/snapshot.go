// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package recommend

import (
	"fmt"

	"github.com/tomtom215/songbird/internal/recommend/features"
	"github.com/tomtom215/songbird/internal/recommend/index"
)

// Snapshot is an immutable, loaded artifact set. Row i of Index belongs to
// Tracks[i].
type Snapshot struct {
	Tracks []Track
	Index  *index.Flat
	Scaler *features.Scaler
	Info   BuildInfo

	// positions maps track id to row. With duplicate ids the last row wins.
	positions map[string]int
}

// NewSnapshot validates that the parts agree and builds the id lookup.
//
//nolint:gocritic // hugeParam: info is copied once at load time
func NewSnapshot(tracks []Track, idx *index.Flat, scaler *features.Scaler, info BuildInfo) (*Snapshot, error) {
	if idx == nil {
		return nil, fmt.Errorf("%w: nil index", ErrArtifactMismatch)
	}
	if len(tracks) != idx.Len() {
		return nil, fmt.Errorf("%w: %d tracks but %d index rows", ErrArtifactMismatch, len(tracks), idx.Len())
	}
	if scaler != nil {
		if err := scaler.Validate(); err != nil {
			return nil, fmt.Errorf("scaler: %w", err)
		}
	}

	positions := make(map[string]int, len(tracks))
	for i := range tracks {
		positions[tracks[i].ID] = i
	}

	return &Snapshot{
		Tracks:    tracks,
		Index:     idx,
		Scaler:    scaler,
		Info:      info,
		positions: positions,
	}, nil
}

// Len returns the number of tracks.
func (s *Snapshot) Len() int { return len(s.Tracks) }

// Dim returns the vector dimension.
func (s *Snapshot) Dim() int { return s.Index.Dim() }

// Position returns the index row for a track id.
func (s *Snapshot) Position(id string) (int, bool) {
	pos, ok := s.positions[id]
	return pos, ok
}

// Track looks up catalog metadata by id.
func (s *Snapshot) Track(id string) (Track, bool) {
	pos, ok := s.positions[id]
	if !ok {
		return Track{}, false
	}
	return s.Tracks[pos], true
}
