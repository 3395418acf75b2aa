// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package eval

import (
	"context"
	"errors"

	"github.com/tomtom215/songbird/internal/recommend"
)

// Recommender is the query surface evaluated by HoldOut.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
}

// Report is the outcome of a hold-out run.
type Report struct {
	K         int     `json:"k"`
	Playlists int     `json:"playlists"`
	Skipped   int     `json:"skipped"`
	Recall    float64 `json:"recall"`
}

// HoldOut seeds the recommender with the first half of each playlist and
// scores recall@k against the second half. Playlists with fewer than two
// tracks, or whose seeds are all unknown, are skipped.
func HoldOut(ctx context.Context, rec Recommender, playlists [][]string, k int) (Report, error) {
	if k <= 0 {
		k = DefaultK
	}
	report := Report{K: k}

	var truths, rankeds [][]string
	for _, pl := range playlists {
		if len(pl) < 2 {
			report.Skipped++
			continue
		}
		half := len(pl) / 2
		seeds, truth := pl[:half], pl[half:]

		resp, err := rec.Recommend(ctx, recommend.Request{SeedIDs: seeds, K: k})
		if errors.Is(err, recommend.ErrNoValidSeeds) {
			report.Skipped++
			continue
		}
		if err != nil {
			return report, err
		}

		ranked := make([]string, len(resp.Results))
		for i, r := range resp.Results {
			ranked[i] = r.TrackID
		}
		truths = append(truths, truth)
		rankeds = append(rankeds, ranked)
	}

	report.Playlists = len(truths)
	report.Recall = MeanRecallAtK(truths, rankeds, k)
	return report, nil
}

// ChunkPlaylists splits ids into consecutive pseudo playlists of size n.
// A trailing chunk shorter than two ids is dropped.
func ChunkPlaylists(ids []string, n int) [][]string {
	if n < 2 {
		n = 2
	}
	var out [][]string
	for start := 0; start < len(ids); start += n {
		end := min(start+n, len(ids))
		if end-start < 2 {
			break
		}
		out = append(out, ids[start:end])
	}
	return out
}
