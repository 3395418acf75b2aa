// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

/*
Package services adapts long-running components to suture.Service.

HTTPServerService wraps *http.Server. ListenAndServe runs in a goroutine
and context cancellation triggers Shutdown with a bounded drain timeout.

CacheJanitorService periodically sweeps expired entries from the
recommendation cache and publishes the remaining size as the
cache_entries{cache="recommend"} gauge.

Every service implements fmt.Stringer so suture event logs name it.
*/
package services
