// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

/*
Package validation validates API request bodies with go-playground/validator v10.

A single validator instance is shared by all handlers. Field names in error
messages come from json tags, and nested slice elements are reported with
their index:

	type RecommendRequest struct {
	    SeedIDs []string `json:"seed_ids" validate:"required,min=1,max=100,dive,trackid"`
	    K       int      `json:"k" validate:"gte=0"`
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
	    apiErr := verr.ToAPIError()
	    // apiErr.Code == "VALIDATION_ERROR"
	    // apiErr.Message == "seed_ids[1] must be a track ID without spaces, at most 128 characters"
	}

Custom rules:

  - trackid: non-empty, printable, no whitespace, at most MaxTrackIDLength bytes
*/
package validation
