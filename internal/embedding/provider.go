// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

// Package embedding turns lyrics text into fixed-length unit vectors.
//
// A TokenModel produces per-token hidden states for a padded batch. Encoder
// pools them into one vector per text with a masked mean, so padding never
// leaks into the result and output does not depend on how texts were
// grouped into batches.
package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"github.com/tomtom215/songbird/internal/recommend/vecmath"
)

// DefaultBatchSize is the number of texts sent through the model at once.
const DefaultBatchSize = 32

// ErrMalformedBatch is returned when a TokenModel's output does not match
// the texts it was given.
var ErrMalformedBatch = errors.New("embedding: malformed batch")

// Provider encodes texts into unit vectors of length Dim().
type Provider interface {
	Encode(ctx context.Context, texts []string) ([][]float64, error)
	Dim() int
}

// Batch is the output of one forward pass over a padded batch.
// Hidden[i][t] is the hidden state of token t of text i. Mask[i][t] is 1 for
// a real token and 0 for padding. Every row has the same token count.
type Batch struct {
	Hidden [][][]float64 `json:"hidden"`
	Mask   [][]int       `json:"mask"`
}

// TokenModel runs a text encoder and returns token-level hidden states.
type TokenModel interface {
	Forward(ctx context.Context, texts []string) (*Batch, error)
	Dim() int
}

// Encoder implements Provider by mean-pooling a TokenModel.
type Encoder struct {
	model     TokenModel
	batchSize int
	logger    zerolog.Logger
}

var _ Provider = (*Encoder)(nil)

// NewEncoder wraps model. batchSize <= 0 uses DefaultBatchSize.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEncoder(model TokenModel, batchSize int, logger zerolog.Logger) *Encoder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Encoder{model: model, batchSize: batchSize, logger: logger}
}

// Dim returns the embedding dimension.
func (e *Encoder) Dim() int {
	return e.model.Dim()
}

// Encode returns one unit vector per text, in input order. Empty input
// returns an empty slice.
func (e *Encoder) Encode(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	dim := e.model.Dim()

	for start := 0; start < len(texts); start += e.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+e.batchSize, len(texts))
		chunk := texts[start:end]

		batch, err := e.model.Forward(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("embed texts %d-%d: %w", start, end, err)
		}
		if err := batch.check(len(chunk), dim); err != nil {
			return nil, fmt.Errorf("embed texts %d-%d: %w", start, end, err)
		}

		for i := range chunk {
			out = append(out, MeanPool(batch.Hidden[i], batch.Mask[i], dim))
		}

		e.logger.Debug().Int("from", start).Int("to", end).Int("total", len(texts)).Msg("Embedded batch")
	}

	return out, nil
}

// MeanPool averages the hidden states of attended tokens and L2-normalizes
// the result. A row with no attended tokens yields the zero vector.
func MeanPool(hidden [][]float64, mask []int, dim int) []float64 {
	sum := make([]float64, dim)
	var count float64
	for t, h := range hidden {
		if mask[t] == 0 {
			continue
		}
		floats.Add(sum, h)
		count++
	}
	if count > 0 {
		floats.Scale(1/count, sum)
	}
	vecmath.NormalizeInPlace(sum)
	return sum
}

func (b *Batch) check(n, dim int) error {
	if b == nil {
		return fmt.Errorf("%w: nil batch", ErrMalformedBatch)
	}
	if len(b.Hidden) != n || len(b.Mask) != n {
		return fmt.Errorf("%w: got %d hidden rows and %d mask rows for %d texts",
			ErrMalformedBatch, len(b.Hidden), len(b.Mask), n)
	}
	for i := range b.Hidden {
		if len(b.Hidden[i]) != len(b.Mask[i]) {
			return fmt.Errorf("%w: row %d has %d tokens and %d mask entries",
				ErrMalformedBatch, i, len(b.Hidden[i]), len(b.Mask[i]))
		}
		for t, h := range b.Hidden[i] {
			if len(h) != dim {
				return fmt.Errorf("%w: row %d token %d has dimension %d, want %d",
					ErrMalformedBatch, i, t, len(h), dim)
			}
		}
	}
	return nil
}
