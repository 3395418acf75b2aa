// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package recommend

import (
	"errors"
	"fmt"
)

// ErrNoValidSeeds is returned when none of a request's seeds are in the catalog.
var ErrNoValidSeeds = errors.New("no valid seed IDs provided")

// ErrArtifactMismatch is returned when snapshot parts disagree on row count.
var ErrArtifactMismatch = errors.New("artifact mismatch")

// NoValidSeedsError carries the seeds that failed to resolve.
type NoValidSeedsError struct {
	Seeds []string
}

func (e *NoValidSeedsError) Error() string {
	return fmt.Sprintf("%v: %d seed(s) given, none in catalog", ErrNoValidSeeds, len(e.Seeds))
}

func (e *NoValidSeedsError) Unwrap() error {
	return ErrNoValidSeeds
}
