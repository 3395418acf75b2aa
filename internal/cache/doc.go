// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

/*
Package cache provides a thread-safe generic LRU cache with TTL support.

The recommendation engine keeps recent responses in an LRU keyed by the
sorted resolved seed set and k. Entries expire lazily on Get and can be swept
with CleanupExpired.

# Usage

	c := cache.NewLRU[*recommend.Response](1024, 5*time.Minute)
	c.Add(key, resp)
	if resp, ok := c.Get(key); ok {
	    // served from cache
	}

# Thread Safety

All methods are safe for concurrent use. A single mutex guards the list and
map; Get takes the write lock because it reorders the list.
*/
package cache
