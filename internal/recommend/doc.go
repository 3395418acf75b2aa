// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

// Package recommend answers "more like these tracks" queries over a fused
// track vector catalog.
//
// # Architecture
//
// A build produces one fused, unit-length vector per track:
//
//   - features: z-score the 12 audio features and L2 normalize
//   - embedding: encode lyrics into a sentence vector
//   - fusion: alpha-weighted sum of the two, normalized again
//   - index: exact inner-product search over the fused rows
//
// The storage subpackage persists these as an artifact set. At serve time the
// set is loaded into a Snapshot and handed to an Engine.
//
// # Query
//
// Seeds are resolved to index rows and unknown ids are dropped. The query is
// the normalized mean of the seed vectors. The index is asked for
// k*OverFetch candidates, seeds are skipped and the walk stops at k.
//
// # Usage
//
//	snap, err := recommend.NewSnapshot(tracks, idx, scaler, info)
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), snap, logger)
//
//	resp, err := engine.Recommend(ctx, recommend.Request{
//	    SeedIDs: []string{"4uLU6hMCjMI75M1A2tKUQC"},
//	    K:       30,
//	})
//
// # Thread Safety
//
// A Snapshot is never modified after NewSnapshot. The Engine holds no
// mutable state apart from its response cache and counters, both of which
// are safe for concurrent use.
package recommend
