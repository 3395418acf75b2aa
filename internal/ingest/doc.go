// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

/*
Package ingest collects the raw catalog a build works from.

Sources:

  - PlaylistSource reads a streaming playlist through SpotifyClient and joins
    each track with its audio features.
  - TableSource reads a local CSV or Parquet table through DuckDB, for offline
    builds and tests.

Lyrics come from GeniusClient and are cached across builds in a badger-backed
LyricsCache. Lyrics lookups never fail a build: any error degrades to a track
without lyrics.

External calls go through a circuit breaker and an optional rate limiter, and
are counted in the external request metrics.
*/
package ingest
