// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/songbird/internal/metrics"
	"github.com/tomtom215/songbird/internal/recommend"
)

const lyricsKeyPrefix = "lyrics:"

// cachedLyrics is the stored value. An empty Text records a lookup that
// found nothing, so it is not repeated.
type cachedLyrics struct {
	Text      string    `json:"text"`
	FetchedAt time.Time `json:"fetched_at"`
}

// LyricsCache is a badger-backed store of lyrics keyed by track id.
type LyricsCache struct {
	db *badger.DB
}

// OpenLyricsCache opens or creates a cache in dir.
func OpenLyricsCache(dir string) (*LyricsCache, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create lyrics cache directory: %w", err)
	}
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open lyrics cache: %w", err)
	}
	return &LyricsCache{db: db}, nil
}

// Close releases the underlying database.
func (c *LyricsCache) Close() error {
	return c.db.Close()
}

// Get returns cached lyrics for trackID. found is false when the track was
// never looked up.
func (c *LyricsCache) Get(trackID string) (text string, found bool, err error) {
	var v cachedLyrics
	err = c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(lyricsKeyPrefix + trackID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get lyrics %s: %w", trackID, err)
	}
	return v.Text, true, nil
}

// Put stores lyrics for trackID, including empty results.
func (c *LyricsCache) Put(trackID, text string) error {
	data, err := json.Marshal(cachedLyrics{Text: text, FetchedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal lyrics: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(lyricsKeyPrefix+trackID), data)
	})
}

// Len counts cached entries.
func (c *LyricsCache) Len() (int, error) {
	n := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(lyricsKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// LyricsFinder looks up lyrics by title and artist.
type LyricsFinder interface {
	Lyrics(ctx context.Context, title, artist string) (string, error)
}

// LyricsFetcher resolves lyrics for tracks through an optional cache.
type LyricsFetcher struct {
	finder LyricsFinder
	cache  *LyricsCache
	logger zerolog.Logger
}

// NewLyricsFetcher creates a fetcher. cache may be nil.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewLyricsFetcher(finder LyricsFinder, cache *LyricsCache, logger zerolog.Logger) *LyricsFetcher {
	return &LyricsFetcher{
		finder: finder,
		cache:  cache,
		logger: logger.With().Str("component", "lyrics").Logger(),
	}
}

// Fetch returns lyrics for every track, "" where none were found. Only
// context cancellation is returned as an error.
func (f *LyricsFetcher) Fetch(ctx context.Context, tracks []recommend.Track) ([]string, error) {
	out := make([]string, len(tracks))
	hits, found := 0, 0

	for i := range tracks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t := &tracks[i]

		if f.cache != nil {
			text, ok, err := f.cache.Get(t.ID)
			if err != nil {
				f.logger.Warn().Err(err).Str("track_id", t.ID).Msg("lyrics cache read failed")
			}
			metrics.RecordCacheLookup("lyrics", ok)
			if ok {
				out[i] = text
				hits++
				if text != "" {
					found++
				}
				continue
			}
		}

		text, err := f.finder.Lyrics(ctx, t.Name, t.Artist)
		if err != nil {
			return nil, err
		}
		out[i] = text
		if text != "" {
			found++
		}

		if f.cache != nil {
			if err := f.cache.Put(t.ID, text); err != nil {
				f.logger.Warn().Err(err).Str("track_id", t.ID).Msg("lyrics cache write failed")
			}
		}
	}

	f.logger.Info().
		Int("tracks", len(tracks)).
		Int("cache_hits", hits).
		Int("with_lyrics", found).
		Msg("lyrics fetched")
	return out, nil
}
