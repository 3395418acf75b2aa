// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

// Command build produces the artifact set served by cmd/server.
//
// It reads tracks from a Spotify playlist (client credentials in
// SPOTIPY_CLIENT_ID and SPOTIPY_CLIENT_SECRET) or from a local CSV or
// Parquet table, optionally fetches lyrics from Genius, fits the feature
// scaler, fuses audio and lyrics vectors, builds the index and writes the
// artifacts atomically to --out-dir. With --out-remote the set is also
// uploaded to S3-compatible storage.
//
// Flags override the environment, which overrides the configuration file:
//
//	build --playlist https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M --lyrics
//	build --input tracks.parquet --alpha 1 --out-dir /data/artifacts --eval
package main
