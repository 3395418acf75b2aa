// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package storage

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

var vectorsMagic = [4]byte{'S', 'B', 'V', 'C'}

// ErrCorruptVectors is returned when vectors.bin cannot be decoded.
var ErrCorruptVectors = errors.New("corrupt vectors file")

// writeVectors encodes rows as magic, dim, count and little-endian float64s.
// All rows must have the same length.
func writeVectors(w io.Writer, rows [][]float64) error {
	dim := 0
	if len(rows) > 0 {
		dim = len(rows[0])
	}

	bw := bufio.NewWriter(w)
	header := make([]byte, 4+8+8)
	copy(header, vectorsMagic[:])
	binary.LittleEndian.PutUint64(header[4:], uint64(dim))
	binary.LittleEndian.PutUint64(header[12:], uint64(len(rows)))
	if _, err := bw.Write(header); err != nil {
		return fmt.Errorf("write vectors header: %w", err)
	}

	buf := make([]byte, 8)
	for i, row := range rows {
		if len(row) != dim {
			return fmt.Errorf("vector %d has dimension %d, want %d", i, len(row), dim)
		}
		for _, v := range row {
			binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
			if _, err := bw.Write(buf); err != nil {
				return fmt.Errorf("write vector %d: %w", i, err)
			}
		}
	}
	return bw.Flush()
}

// readVectors decodes data written by writeVectors.
func readVectors(data []byte) ([][]float64, error) {
	if len(data) < 20 || !bytes.Equal(data[:4], vectorsMagic[:]) {
		return nil, ErrCorruptVectors
	}

	dim := binary.LittleEndian.Uint64(data[4:])
	n := binary.LittleEndian.Uint64(data[12:])
	body := data[20:]
	if dim > math.MaxInt32 || n > math.MaxInt32 || uint64(len(body)) != 8*dim*n {
		return nil, fmt.Errorf("%w: expected %d rows of dimension %d in %d bytes", ErrCorruptVectors, n, dim, len(body))
	}

	rows := make([][]float64, n)
	for i := range rows {
		row := make([]float64, dim)
		for j := range row {
			off := 8 * (uint64(i)*dim + uint64(j))
			row[j] = math.Float64frombits(binary.LittleEndian.Uint64(body[off:]))
		}
		rows[i] = row
	}
	return rows, nil
}
