// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

// Package features standardizes per-track audio features into unit vectors.
//
// A Scaler is fitted once over the whole corpus (per-dimension mean and
// population standard deviation, missing values imputed as zero) and is then
// frozen: the server loads the persisted Scaler and never refits it.
//
// Dimensions with zero variance use a scale of 1 instead of dividing by
// zero, so those dimensions are only mean-centered.
package features

import (
	"fmt"
)

// Dim is the number of audio features per track.
const Dim = 12

// Names lists the audio features in vector order.
var Names = [Dim]string{
	"danceability",
	"energy",
	"valence",
	"tempo",
	"loudness",
	"acousticness",
	"instrumentalness",
	"liveness",
	"speechiness",
	"key",
	"mode",
	"time_signature",
}

// AudioFeatures holds the raw audio features of one track.
// A nil field is a missing value.
type AudioFeatures struct {
	Danceability     *float64 `json:"danceability,omitempty"`
	Energy           *float64 `json:"energy,omitempty"`
	Valence          *float64 `json:"valence,omitempty"`
	Tempo            *float64 `json:"tempo,omitempty"`
	Loudness         *float64 `json:"loudness,omitempty"`
	Acousticness     *float64 `json:"acousticness,omitempty"`
	Instrumentalness *float64 `json:"instrumentalness,omitempty"`
	Liveness         *float64 `json:"liveness,omitempty"`
	Speechiness      *float64 `json:"speechiness,omitempty"`
	Key              *float64 `json:"key,omitempty"`
	Mode             *float64 `json:"mode,omitempty"`
	TimeSignature    *float64 `json:"time_signature,omitempty"`
}

// Float returns a pointer to v, for building AudioFeatures literals.
func Float(v float64) *float64 {
	return &v
}

// fields returns the feature pointers in vector order.
//
//nolint:gocritic // hugeParam: value receiver keeps AudioFeatures immutable
func (f AudioFeatures) fields() [Dim]*float64 {
	return [Dim]*float64{
		f.Danceability,
		f.Energy,
		f.Valence,
		f.Tempo,
		f.Loudness,
		f.Acousticness,
		f.Instrumentalness,
		f.Liveness,
		f.Speechiness,
		f.Key,
		f.Mode,
		f.TimeSignature,
	}
}

// Values returns the features in vector order with missing values as 0.
//
//nolint:gocritic // hugeParam: value receiver keeps AudioFeatures immutable
func (f AudioFeatures) Values() [Dim]float64 {
	var out [Dim]float64
	for i, p := range f.fields() {
		if p != nil {
			out[i] = *p
		}
	}
	return out
}

// Missing returns the number of missing features.
//
//nolint:gocritic // hugeParam: value receiver keeps AudioFeatures immutable
func (f AudioFeatures) Missing() int {
	n := 0
	for _, p := range f.fields() {
		if p == nil {
			n++
		}
	}
	return n
}

// Map returns the present features keyed by name.
//
//nolint:gocritic // hugeParam: value receiver keeps AudioFeatures immutable
func (f AudioFeatures) Map() map[string]float64 {
	out := make(map[string]float64, Dim)
	for i, p := range f.fields() {
		if p != nil {
			out[Names[i]] = *p
		}
	}
	return out
}

// FromValues builds AudioFeatures with every field present.
func FromValues(v [Dim]float64) AudioFeatures {
	return AudioFeatures{
		Danceability:     Float(v[0]),
		Energy:           Float(v[1]),
		Valence:          Float(v[2]),
		Tempo:            Float(v[3]),
		Loudness:         Float(v[4]),
		Acousticness:     Float(v[5]),
		Instrumentalness: Float(v[6]),
		Liveness:         Float(v[7]),
		Speechiness:      Float(v[8]),
		Key:              Float(v[9]),
		Mode:             Float(v[10]),
		TimeSignature:    Float(v[11]),
	}
}

// Set assigns the feature with the given name. Unknown names return an error.
func (f *AudioFeatures) Set(name string, v *float64) error {
	switch name {
	case "danceability":
		f.Danceability = v
	case "energy":
		f.Energy = v
	case "valence":
		f.Valence = v
	case "tempo":
		f.Tempo = v
	case "loudness":
		f.Loudness = v
	case "acousticness":
		f.Acousticness = v
	case "instrumentalness":
		f.Instrumentalness = v
	case "liveness":
		f.Liveness = v
	case "speechiness":
		f.Speechiness = v
	case "key":
		f.Key = v
	case "mode":
		f.Mode = v
	case "time_signature":
		f.TimeSignature = v
	default:
		return fmt.Errorf("unknown audio feature %q", name)
	}
	return nil
}
