// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

/*
Package build produces the artifact set served by the recommendation engine.

A Pipeline runs these stages in order:

 1. source: read track records from a Spotify playlist or a local table
 2. lyrics: optional lyrics lookup, cached on disk
 3. fit: fit the audio feature scaler over the corpus
 4. transform: standardize and normalize every audio vector
 5. embed: encode non-empty lyrics into unit text vectors
 6. fuse: blend audio and lyrics vectors with alpha
 7. index: build the inner-product index
 8. save: write the artifact directory, manifest last
 9. upload: optionally copy the directory to object storage

Every stage records its duration in the build_stage_duration_seconds
histogram. A failing stage aborts the run; an existing artifact directory is
only replaced by a complete set.

Usage:

	pl, err := build.NewPipeline(build.Deps{Source: src, Embedder: enc}, logger)
	if err != nil {
	    return err
	}
	res, err := pl.Run(ctx, build.Params{Alpha: 0.5, OutDir: "artifacts", Lyrics: true})
*/
package build
