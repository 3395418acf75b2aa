// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

// Package storage persists a built catalog as an artifact set.
//
// # Storage Format
//
// One directory holds every file of a build:
//
//	track_meta.parquet  track ids, names, artists and raw audio features
//	vectors.bin         fused vectors, "SBVC" header then float64 rows
//	scaler.gob.gz       fitted feature scaler, gob then gzip
//	index.bin           serialized similarity index
//	manifest.json       build info, row count, dimension and file checksums
//
// Save writes into a temporary sibling directory and renames it into place,
// writing the manifest last. Load refuses a set whose checksums or row counts
// disagree, so a partially written or mixed set never loads.
//
// # Remote Copies
//
// Uploader copies a saved set to an S3-compatible bucket with minio-go. The
// manifest is uploaded last so readers that key off it never see a partial
// upload.
package storage
