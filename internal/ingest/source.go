// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package ingest

import (
	"context"
	"strings"

	"github.com/tomtom215/songbird/internal/recommend"
)

// Record is one ingested track. Lyrics is set only when the source carries
// lyrics itself.
type Record struct {
	Track  recommend.Track
	Lyrics string
}

// Source yields at most max records. max <= 0 means no limit.
type Source interface {
	Records(ctx context.Context, max int) ([]Record, error)
	Name() string
}

// PlaylistIDFromURL returns the last path segment of a playlist URL without
// its query string. A bare id is returned unchanged.
func PlaylistIDFromURL(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndexAny(s, "/:"); i >= 0 {
		s = s[i+1:]
	}
	return s
}
