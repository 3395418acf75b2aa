// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

// Package vecmath holds the small dense-vector helpers shared by the
// normalizer, fuser, embedder and engine. All of them use the same
// epsilon-guarded L2 normalization so that build-time and query-time
// vectors are produced by identical arithmetic.
package vecmath

import (
	"gonum.org/v1/gonum/floats"
)

// Epsilon guards every L2 normalization against zero vectors.
// Tunable, but build and serve must agree on it.
const Epsilon = 1e-9

// Norm returns the Euclidean norm of v.
func Norm(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Norm(v, 2)
}

// Normalize returns a new vector v / (||v|| + Epsilon).
// The input is not modified.
func Normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	NormalizeInPlace(out)
	return out
}

// NormalizeInPlace divides v by (||v|| + Epsilon).
func NormalizeInPlace(v []float64) {
	if len(v) == 0 {
		return
	}
	d := Norm(v) + Epsilon
	for i := range v {
		v[i] /= d
	}
}

// Mean returns the element-wise arithmetic mean of rows.
// All rows must share the same length; a nil slice is returned for no rows.
func Mean(rows [][]float64) []float64 {
	if len(rows) == 0 {
		return nil
	}
	out := make([]float64, len(rows[0]))
	for _, r := range rows {
		floats.Add(out, r)
	}
	floats.Scale(1/float64(len(rows)), out)
	return out
}

// PadTo returns v zero-padded to length n. Vectors already at least n long
// are returned as a copy without truncation.
func PadTo(v []float64, n int) []float64 {
	if n < len(v) {
		n = len(v)
	}
	out := make([]float64, n)
	copy(out, v)
	return out
}

// Dot returns the inner product of a and b. Lengths must match.
func Dot(a, b []float64) float64 {
	return floats.Dot(a, b)
}
