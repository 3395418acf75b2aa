// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

// Package index provides an exact inner-product similarity index.
//
// The corpus is small (a few thousand tracks at most), so search is a
// brute-force scan over a contiguous row-major matrix. Queries are expected to
// be unit length; the index does not normalize them, so scores are cosine
// similarities only under that precondition.
//
// A Flat index is immutable after Build and safe for concurrent searches.
package index

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

var indexMagic = [4]byte{'S', 'B', 'I', 'X'}

// ErrCorrupt is returned when a serialized index cannot be decoded.
var ErrCorrupt = errors.New("index: corrupt data")

// Hit is one search result.
type Hit struct {
	Position int     `json:"position"`
	Score    float64 `json:"score"`
}

// Flat is an exact inner-product index over a fixed set of vectors.
type Flat struct {
	dim  int
	n    int
	data []float64
}

// Build copies vectors into a new index. Row i of the index is vectors[i].
// All rows must share one dimension.
func Build(vectors [][]float64) (*Flat, error) {
	if len(vectors) == 0 {
		return &Flat{}, nil
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, errors.New("index: vectors must have non-zero dimension")
	}

	data := make([]float64, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("index: row %d has dimension %d, want %d", i, len(v), dim)
		}
		data = append(data, v...)
	}

	return &Flat{dim: dim, n: len(vectors), data: data}, nil
}

// Len returns the number of indexed rows.
func (f *Flat) Len() int { return f.n }

// Dim returns the vector dimension.
func (f *Flat) Dim() int { return f.dim }

// Vector returns row i. The returned slice aliases index storage and must not
// be modified.
func (f *Flat) Vector(i int) []float64 {
	return f.data[i*f.dim : (i+1)*f.dim : (i+1)*f.dim]
}

// Search returns up to k rows with the highest inner product against query,
// in descending score order. Equal scores keep index order. k larger than the
// corpus returns every row.
func (f *Flat) Search(query []float64, k int) []Hit {
	if k <= 0 || f.n == 0 || len(query) != f.dim {
		return []Hit{}
	}
	if k > f.n {
		k = f.n
	}

	hits := make([]Hit, f.n)
	for i := 0; i < f.n; i++ {
		hits[i] = Hit{Position: i, Score: floats.Dot(query, f.Vector(i))}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})

	return hits[:k:k]
}

// MarshalBinary encodes the index as magic, dim, count and little-endian rows.
func (f *Flat) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo streams the binary encoding to w.
func (f *Flat) WriteTo(w io.Writer) (int64, error) {
	header := make([]byte, 4+8+8)
	copy(header, indexMagic[:])
	binary.LittleEndian.PutUint64(header[4:], uint64(f.dim))
	binary.LittleEndian.PutUint64(header[12:], uint64(f.n))

	n, err := w.Write(header)
	written := int64(n)
	if err != nil {
		return written, fmt.Errorf("write index header: %w", err)
	}

	row := make([]byte, 8*f.dim)
	for i := 0; i < f.n; i++ {
		for j, v := range f.Vector(i) {
			binary.LittleEndian.PutUint64(row[8*j:], math.Float64bits(v))
		}
		n, err = w.Write(row)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("write index row %d: %w", i, err)
		}
	}
	return written, nil
}

// UnmarshalBinary decodes data produced by MarshalBinary.
func (f *Flat) UnmarshalBinary(data []byte) error {
	if len(data) < 20 || !bytes.Equal(data[:4], indexMagic[:]) {
		return ErrCorrupt
	}

	dim := binary.LittleEndian.Uint64(data[4:])
	n := binary.LittleEndian.Uint64(data[12:])
	body := data[20:]
	if dim > math.MaxInt32 || n > math.MaxInt32 || uint64(len(body)) != 8*dim*n {
		return fmt.Errorf("%w: expected %d rows of dimension %d in %d bytes", ErrCorrupt, n, dim, len(body))
	}

	out := make([]float64, dim*n)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(body[8*i:]))
	}

	f.dim = int(dim)
	f.n = int(n)
	f.data = out
	return nil
}
