// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

// Package fusion blends normalized audio vectors with lyrics embeddings.
package fusion

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/tomtom215/songbird/internal/recommend/vecmath"
)

// DefaultAlpha is the weight given to the audio vector.
const DefaultAlpha = 0.6

// Fuse returns normalize(alpha*audio + (1-alpha)*lyrics).
//
// A nil lyrics vector yields normalize(audio). Vectors of different length are
// combined in the larger space with the shorter one zero-padded.
func Fuse(audio, lyrics []float64, alpha float64) []float64 {
	if lyrics == nil {
		return vecmath.Normalize(audio)
	}

	dim := max(len(audio), len(lyrics))
	out := vecmath.PadTo(audio, dim)
	floats.Scale(alpha, out)
	floats.AddScaled(out, 1-alpha, vecmath.PadTo(lyrics, dim))
	vecmath.NormalizeInPlace(out)
	return out
}

// FuseAll fuses a corpus row by row.
//
// When lyrics is nil or its row count differs from audio, every row falls back
// to audio only. A nil row inside lyrics falls back for that row alone. All
// returned rows share one dimension so they can be indexed together.
func FuseAll(audio, lyrics [][]float64, alpha float64) ([][]float64, error) {
	if alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("alpha must be in [0,1], got %v", alpha)
	}

	useLyrics := lyrics != nil && len(lyrics) == len(audio)

	dim := 0
	for i := range audio {
		dim = max(dim, len(audio[i]))
		if useLyrics && lyrics[i] != nil {
			dim = max(dim, len(lyrics[i]))
		}
	}

	out := make([][]float64, len(audio))
	for i := range audio {
		var l []float64
		if useLyrics {
			l = lyrics[i]
		}
		out[i] = vecmath.PadTo(Fuse(audio[i], l, alpha), dim)
	}
	return out, nil
}
