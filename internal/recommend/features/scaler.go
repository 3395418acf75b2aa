// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package features

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/tomtom215/songbird/internal/recommend/vecmath"
)

// zeroScaleThreshold matches the float64 machine epsilon times ten; scales at or
// below it are treated as zero variance.
const zeroScaleThreshold = 10 * 2.220446049250313e-16

// ErrEmptyCorpus is returned when a Scaler is fitted on zero rows.
var ErrEmptyCorpus = errors.New("empty corpus")

// EmptyCorpusError reports a fit over zero tracks. It unwraps to ErrEmptyCorpus.
type EmptyCorpusError struct {
	Op string
}

func (e *EmptyCorpusError) Error() string {
	return fmt.Sprintf("features: %s: %v", e.Op, ErrEmptyCorpus)
}

func (e *EmptyCorpusError) Unwrap() error {
	return ErrEmptyCorpus
}

// Scaler is a fitted per-dimension standardizer.
type Scaler struct {
	Mean  [Dim]float64 `json:"mean"`
	Scale [Dim]float64 `json:"scale"`
	Count int          `json:"count"`
}

// Fit computes per-dimension mean and population standard deviation over rows.
// Missing values count as 0. A zero standard deviation yields a scale of 1.
func Fit(rows []AudioFeatures) (*Scaler, error) {
	if len(rows) == 0 {
		return nil, &EmptyCorpusError{Op: "fit"}
	}

	columns := make([][]float64, Dim)
	for d := range columns {
		columns[d] = make([]float64, len(rows))
	}
	for i := range rows {
		vals := rows[i].Values()
		for d := 0; d < Dim; d++ {
			columns[d][i] = vals[d]
		}
	}

	s := &Scaler{Count: len(rows)}
	for d := 0; d < Dim; d++ {
		mean, std := stat.PopMeanStdDev(columns[d], nil)
		s.Mean[d] = mean
		if std <= zeroScaleThreshold {
			std = 1
		}
		s.Scale[d] = std
	}
	return s, nil
}

// Standardize returns (x - mean) / scale without normalizing.
//
//nolint:gocritic // hugeParam: AudioFeatures is read-only here
func (s *Scaler) Standardize(f AudioFeatures) []float64 {
	vals := f.Values()
	out := make([]float64, Dim)
	for d := 0; d < Dim; d++ {
		out[d] = (vals[d] - s.Mean[d]) / s.Scale[d]
	}
	return out
}

// Transform standardizes f and L2-normalizes the result.
//
//nolint:gocritic // hugeParam: AudioFeatures is read-only here
func (s *Scaler) Transform(f AudioFeatures) []float64 {
	z := s.Standardize(f)
	vecmath.NormalizeInPlace(z)
	return z
}

// TransformAll applies Transform to every row, preserving order.
func (s *Scaler) TransformAll(rows []AudioFeatures) [][]float64 {
	out := make([][]float64, len(rows))
	for i := range rows {
		out[i] = s.Transform(rows[i])
	}
	return out
}

// Validate reports whether the Scaler can be used for transforms.
func (s *Scaler) Validate() error {
	if s == nil {
		return errors.New("scaler is nil")
	}
	if s.Count <= 0 {
		return &EmptyCorpusError{Op: "validate"}
	}
	for d := 0; d < Dim; d++ {
		if s.Scale[d] <= 0 {
			return fmt.Errorf("scale for %s must be positive, got %v", Names[d], s.Scale[d])
		}
	}
	return nil
}
