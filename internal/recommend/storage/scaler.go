// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package storage

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/tomtom215/songbird/internal/recommend/features"
)

// storedScaler is the on-disk format of scaler.gob.gz before compression.
type storedScaler struct {
	Checksum string
	Data     []byte
}

// encodeScaler gob-encodes s, records a checksum of the raw encoding and
// gzips the result.
func encodeScaler(w io.Writer, s *features.Scaler) error {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(s); err != nil {
		return fmt.Errorf("encode scaler: %w", err)
	}

	hash := sha256.Sum256(raw.Bytes())
	sf := storedScaler{
		Checksum: hex.EncodeToString(hash[:]),
		Data:     raw.Bytes(),
	}

	gzw := gzip.NewWriter(w)
	if err := gob.NewEncoder(gzw).Encode(sf); err != nil {
		return fmt.Errorf("compress scaler: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}
	return nil
}

// decodeScaler reverses encodeScaler and validates the result.
func decodeScaler(r io.Reader) (*features.Scaler, error) {
	gzr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("decompress scaler: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	var sf storedScaler
	if err := gob.NewDecoder(gzr).Decode(&sf); err != nil {
		return nil, fmt.Errorf("read scaler: %w", err)
	}

	hash := sha256.Sum256(sf.Data)
	if checksum := hex.EncodeToString(hash[:]); checksum != sf.Checksum {
		return nil, &ChecksumError{File: ScalerFile, Want: sf.Checksum, Got: checksum}
	}

	var s features.Scaler
	if err := gob.NewDecoder(bytes.NewReader(sf.Data)).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scaler: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("scaler: %w", err)
	}
	return &s, nil
}
