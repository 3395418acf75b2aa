// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/songbird/internal/recommend"
	"github.com/tomtom215/songbird/internal/recommend/features"
	"github.com/tomtom215/songbird/internal/recommend/index"
)

// Artifact file names within a set directory.
const (
	TracksFile   = "track_meta.parquet"
	VectorsFile  = "vectors.bin"
	ScalerFile   = "scaler.gob.gz"
	IndexFile    = "index.bin"
	ManifestFile = "manifest.json"
)

// FormatVersion is the artifact layout version written by Save.
const FormatVersion = 1

// dataFiles are checksummed by the manifest, in write order.
var dataFiles = []string{TracksFile, VectorsFile, ScalerFile, IndexFile}

// ErrChecksumMismatch is returned when a file does not match its manifest checksum.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// ChecksumError names the file that failed verification.
type ChecksumError struct {
	File string
	Want string
	Got  string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("%s: %v: expected %s, got %s", e.File, ErrChecksumMismatch, e.Want, e.Got)
}

func (e *ChecksumError) Unwrap() error {
	return ErrChecksumMismatch
}

// Manifest describes a saved artifact set.
type Manifest struct {
	// Version is the artifact layout version.
	Version int `json:"version"`

	// BuiltAt is when the build finished.
	BuiltAt time.Time `json:"built_at"`

	// Alpha is the audio weight used for fusion.
	Alpha float64 `json:"alpha"`

	// Count is the number of tracks and vector rows.
	Count int `json:"count"`

	// Dim is the fused vector dimension.
	Dim int `json:"dim"`

	// LyricsEnabled reports whether lyrics were fetched for the build.
	LyricsEnabled bool `json:"lyrics_enabled"`

	// Source is the playlist id or input table the build read.
	Source string `json:"source,omitempty"`

	// Checksums maps file name to hex SHA-256.
	Checksums map[string]string `json:"checksums"`
}

// Info converts the manifest to snapshot build info.
func (m *Manifest) Info() recommend.BuildInfo {
	return recommend.BuildInfo{
		Version:       m.Version,
		BuiltAt:       m.BuiltAt,
		Alpha:         m.Alpha,
		LyricsEnabled: m.LyricsEnabled,
		Source:        m.Source,
	}
}

// Artifacts is an in-memory artifact set. Tracks[i], Vectors[i] and index
// row i describe the same track.
type Artifacts struct {
	Tracks  []recommend.Track
	Vectors [][]float64
	Scaler  *features.Scaler
	Index   *index.Flat
	Info    recommend.BuildInfo
}

// Validate checks that every part agrees on row count and dimension.
func (a *Artifacts) Validate() error {
	if a.Scaler == nil {
		return errors.New("artifacts: scaler is required")
	}
	if a.Index == nil {
		return fmt.Errorf("%w: index is required", recommend.ErrArtifactMismatch)
	}
	if len(a.Tracks) != len(a.Vectors) || len(a.Vectors) != a.Index.Len() {
		return fmt.Errorf("%w: %d tracks, %d vectors, %d index rows",
			recommend.ErrArtifactMismatch, len(a.Tracks), len(a.Vectors), a.Index.Len())
	}
	for i, v := range a.Vectors {
		if len(v) != a.Index.Dim() {
			return fmt.Errorf("%w: vector %d has dimension %d, index has %d",
				recommend.ErrArtifactMismatch, i, len(v), a.Index.Dim())
		}
	}
	return nil
}

// Snapshot builds the serving view of the artifacts.
func (a *Artifacts) Snapshot() (*recommend.Snapshot, error) {
	return recommend.NewSnapshot(a.Tracks, a.Index, a.Scaler, a.Info)
}

// Save writes a to dir, replacing any previous set there. Files are written
// to a temporary sibling directory that is renamed into place, with the
// manifest written last.
func Save(ctx context.Context, dir string, a *Artifacts) (*Manifest, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	dir = filepath.Clean(dir)
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o750); err != nil {
		return nil, fmt.Errorf("create artifacts parent: %w", err)
	}

	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(dir)+"-*")
	if err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(tmp) //nolint:errcheck // best effort cleanup of a failed save
		}
	}()

	writers := map[string]func(string) error{
		TracksFile: func(p string) error { return writeTracks(p, a.Tracks) },
		VectorsFile: func(p string) error {
			return writeFile(p, func(w io.Writer) error { return writeVectors(w, a.Vectors) })
		},
		ScalerFile: func(p string) error {
			return writeFile(p, func(w io.Writer) error { return encodeScaler(w, a.Scaler) })
		},
		IndexFile: func(p string) error {
			return writeFile(p, func(w io.Writer) error {
				_, err := a.Index.WriteTo(w)
				return err
			})
		},
	}

	manifest := &Manifest{
		Version:       FormatVersion,
		BuiltAt:       a.Info.BuiltAt,
		Alpha:         a.Info.Alpha,
		Count:         len(a.Tracks),
		Dim:           a.Index.Dim(),
		LyricsEnabled: a.Info.LyricsEnabled,
		Source:        a.Info.Source,
		Checksums:     make(map[string]string, len(dataFiles)),
	}
	if manifest.BuiltAt.IsZero() {
		manifest.BuiltAt = time.Now().UTC()
	}

	for _, name := range dataFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(tmp, name)
		if err := writers[name](path); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
		sum, err := fileChecksum(path)
		if err != nil {
			return nil, err
		}
		manifest.Checksums[name] = sum
	}

	if err := writeFile(filepath.Join(tmp, ManifestFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(manifest)
	}); err != nil {
		return nil, fmt.Errorf("write %s: %w", ManifestFile, err)
	}

	if err := swapDir(tmp, dir); err != nil {
		return nil, err
	}
	committed = true

	return manifest, nil
}

// Load reads and verifies the artifact set in dir.
func Load(ctx context.Context, dir string) (*Artifacts, *Manifest, error) {
	manifest, err := ReadManifest(dir)
	if err != nil {
		return nil, nil, err
	}
	if manifest.Version != FormatVersion {
		return nil, nil, fmt.Errorf("unsupported artifact version %d, want %d", manifest.Version, FormatVersion)
	}

	for _, name := range dataFiles {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		want, ok := manifest.Checksums[name]
		if !ok {
			return nil, nil, fmt.Errorf("manifest has no checksum for %s", name)
		}
		got, err := fileChecksum(filepath.Join(dir, name))
		if err != nil {
			return nil, nil, err
		}
		if got != want {
			return nil, nil, &ChecksumError{File: name, Want: want, Got: got}
		}
	}

	tracks, err := readTracks(filepath.Join(dir, TracksFile))
	if err != nil {
		return nil, nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, VectorsFile)) //nolint:gosec // path is built from the configured artifacts dir
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", VectorsFile, err)
	}
	vectors, err := readVectors(data)
	if err != nil {
		return nil, nil, err
	}

	sf, err := os.Open(filepath.Join(dir, ScalerFile)) //nolint:gosec // path is built from the configured artifacts dir
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", ScalerFile, err)
	}
	scaler, err := decodeScaler(sf)
	_ = sf.Close() //nolint:errcheck // error on close after read is not actionable
	if err != nil {
		return nil, nil, err
	}

	data, err = os.ReadFile(filepath.Join(dir, IndexFile)) //nolint:gosec // path is built from the configured artifacts dir
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", IndexFile, err)
	}
	idx := new(index.Flat)
	if err := idx.UnmarshalBinary(data); err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", IndexFile, err)
	}

	a := &Artifacts{
		Tracks:  tracks,
		Vectors: vectors,
		Scaler:  scaler,
		Index:   idx,
		Info:    manifest.Info(),
	}
	if err := a.Validate(); err != nil {
		return nil, nil, err
	}
	if manifest.Count != len(tracks) {
		return nil, nil, fmt.Errorf("%w: manifest count %d, %d tracks", recommend.ErrArtifactMismatch, manifest.Count, len(tracks))
	}
	if len(tracks) > 0 && manifest.Dim != idx.Dim() {
		return nil, nil, fmt.Errorf("%w: manifest dim %d, index dim %d", recommend.ErrArtifactMismatch, manifest.Dim, idx.Dim())
	}
	for i, v := range vectors {
		if !equalRows(v, idx.Vector(i)) {
			return nil, nil, fmt.Errorf("%w: vector %d differs from index row", recommend.ErrArtifactMismatch, i)
		}
	}

	return a, manifest, nil
}

// LoadSnapshot loads dir and returns its serving snapshot.
func LoadSnapshot(ctx context.Context, dir string) (*recommend.Snapshot, *Manifest, error) {
	a, m, err := Load(ctx, dir)
	if err != nil {
		return nil, nil, err
	}
	snap, err := a.Snapshot()
	if err != nil {
		return nil, nil, err
	}
	return snap, m, nil
}

// ReadManifest reads manifest.json from dir.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile)) //nolint:gosec // path is built from the configured artifacts dir
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ManifestFile, err)
	}
	var m Manifest
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ManifestFile, err)
	}
	return &m, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path) //nolint:gosec // path is inside the staging directory
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close() //nolint:errcheck // the write error is what matters
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close() //nolint:errcheck // the sync error is what matters
		return err
	}
	return f.Close()
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path is inside an artifacts directory
	if err != nil {
		return "", fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // error on close after read is not actionable

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", filepath.Base(path), err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// swapDir moves tmp to dir. An existing dir is moved aside first and removed
// once tmp is in place.
func swapDir(tmp, dir string) error {
	old := ""
	if _, err := os.Stat(dir); err == nil {
		old = fmt.Sprintf("%s.old-%d", dir, time.Now().UnixNano())
		if err := os.Rename(dir, old); err != nil {
			return fmt.Errorf("move previous artifacts aside: %w", err)
		}
	}
	if err := os.Rename(tmp, dir); err != nil {
		if old != "" {
			_ = os.Rename(old, dir) //nolint:errcheck // restore the previous set on failure
		}
		return fmt.Errorf("publish artifacts: %w", err)
	}
	if old != "" {
		_ = os.RemoveAll(old) //nolint:errcheck // leftover copy is harmless
	}
	return nil
}

func equalRows(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
