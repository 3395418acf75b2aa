// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package eval

import (
	"gonum.org/v1/gonum/stat"
)

// DefaultK is the cutoff used when k <= 0.
const DefaultK = 20

// RecallAtK returns the share of truth found in the first k entries of
// ranked. An empty truth set scores 0.
func RecallAtK(truth, ranked []string, k int) float64 {
	if k <= 0 {
		k = DefaultK
	}
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	want := make(map[string]struct{}, len(truth))
	for _, id := range truth {
		want[id] = struct{}{}
	}

	hits := 0
	seen := make(map[string]struct{}, len(ranked))
	for _, id := range ranked {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := want[id]; ok {
			hits++
		}
	}
	return float64(hits) / float64(max(1, len(want)))
}

// MeanRecallAtK averages RecallAtK over paired truth and ranked lists.
// Extra entries in the longer slice are ignored. No pairs gives 0.
func MeanRecallAtK(truths, rankeds [][]string, k int) float64 {
	n := min(len(truths), len(rankeds))
	if n == 0 {
		return 0
	}
	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		scores[i] = RecallAtK(truths[i], rankeds[i], k)
	}
	return stat.Mean(scores, nil)
}
