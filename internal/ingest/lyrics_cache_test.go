// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package ingest

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/songbird/internal/recommend"
)

func openTestCache(t *testing.T) *LyricsCache {
	t.Helper()
	c, err := OpenLyricsCache(t.TempDir())
	if err != nil {
		t.Fatalf("OpenLyricsCache() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestLyricsCacheGetPut(t *testing.T) {
	t.Parallel()

	c := openTestCache(t)

	if _, found, err := c.Get("a"); err != nil || found {
		t.Fatalf("Get(a) on empty cache = found %v, err %v", found, err)
	}

	if err := c.Put("a", "la la la"); err != nil {
		t.Fatalf("Put(a) error = %v", err)
	}
	if err := c.Put("b", ""); err != nil {
		t.Fatalf("Put(b) error = %v", err)
	}

	text, found, err := c.Get("a")
	if err != nil || !found || text != "la la la" {
		t.Errorf("Get(a) = %q, %v, %v", text, found, err)
	}
	text, found, err = c.Get("b")
	if err != nil || !found || text != "" {
		t.Errorf("Get(b) = %q, %v, %v, want a cached empty result", text, found, err)
	}

	if n, err := c.Len(); err != nil || n != 2 {
		t.Errorf("Len() = %d, %v, want 2", n, err)
	}
}

func TestLyricsCachePersists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := OpenLyricsCache(dir)
	if err != nil {
		t.Fatalf("OpenLyricsCache() error = %v", err)
	}
	if err := c.Put("a", "words"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	c, err = OpenLyricsCache(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer func() { _ = c.Close() }()

	if text, found, _ := c.Get("a"); !found || text != "words" {
		t.Errorf("Get(a) after reopen = %q, %v", text, found)
	}
}

// stubFinder returns lyrics for titles in its map and counts lookups.
type stubFinder struct {
	mu     sync.Mutex
	lyrics map[string]string
	calls  []string
}

func (s *stubFinder) Lyrics(_ context.Context, title, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, title)
	return s.lyrics[title], nil
}

func TestLyricsFetcherUsesCache(t *testing.T) {
	t.Parallel()

	cache := openTestCache(t)
	finder := &stubFinder{lyrics: map[string]string{"One": "first words"}}
	fetcher := NewLyricsFetcher(finder, cache, zerolog.Nop())

	tracks := []recommend.Track{{ID: "1", Name: "One"}, {ID: "2", Name: "Two"}}

	got, err := fetcher.Fetch(context.Background(), tracks)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got[0] != "first words" || got[1] != "" {
		t.Errorf("Fetch() = %q", got)
	}

	// Both results, including the empty one, are now cached.
	if _, err := fetcher.Fetch(context.Background(), tracks); err != nil {
		t.Fatalf("second Fetch() error = %v", err)
	}
	if len(finder.calls) != 2 {
		t.Errorf("finder called %d times, want 2", len(finder.calls))
	}
}

func TestLyricsFetcherWithoutCache(t *testing.T) {
	t.Parallel()

	finder := &stubFinder{lyrics: map[string]string{"One": "x"}}
	fetcher := NewLyricsFetcher(finder, nil, zerolog.Nop())

	tracks := []recommend.Track{{ID: "1", Name: "One"}}
	for i := 0; i < 2; i++ {
		if _, err := fetcher.Fetch(context.Background(), tracks); err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
	}
	if len(finder.calls) != 2 {
		t.Errorf("finder called %d times, want 2", len(finder.calls))
	}
}

func TestLyricsFetcherCanceled(t *testing.T) {
	t.Parallel()

	fetcher := NewLyricsFetcher(&stubFinder{}, nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := fetcher.Fetch(ctx, []recommend.Track{{ID: "1"}}); err == nil {
		t.Error("Fetch() with canceled context should fail")
	}
}
