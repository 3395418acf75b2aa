// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

// Command server serves playlist recommendations over HTTP.
//
// Startup order:
//
//  1. Configuration: defaults, then the YAML file, then the environment (koanf v2)
//  2. Logging: zerolog, json or console
//  3. Snapshot: the artifact set in serve.artifacts_dir, verified against its
//     manifest checksums; any failure is fatal
//  4. Engine: centroid search with a TTL response cache
//  5. Supervisor tree: the HTTP server plus the cache janitor
//
// The process stops on SIGINT or SIGTERM and drains in-flight requests for
// up to ten seconds.
//
// Usage:
//
//	server --config /etc/songbird/config.yaml
//	HTTP_PORT=9000 ARTIFACTS_DIR=/data/artifacts server
//
// Endpoints are listed in package api.
package main
