// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package storage

import (
	"fmt"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/tomtom215/songbird/internal/recommend"
	"github.com/tomtom215/songbird/internal/recommend/features"
)

// parquetParallelism is the number of goroutines parquet-go uses per file.
const parquetParallelism = 4

// trackRow is one row of track_meta.parquet. Missing features are nulls.
type trackRow struct {
	TrackID          string   `parquet:"name=track_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	TrackName        string   `parquet:"name=track_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	ArtistName       string   `parquet:"name=artist_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Danceability     *float64 `parquet:"name=danceability, type=DOUBLE, repetitiontype=OPTIONAL"`
	Energy           *float64 `parquet:"name=energy, type=DOUBLE, repetitiontype=OPTIONAL"`
	Valence          *float64 `parquet:"name=valence, type=DOUBLE, repetitiontype=OPTIONAL"`
	Tempo            *float64 `parquet:"name=tempo, type=DOUBLE, repetitiontype=OPTIONAL"`
	Loudness         *float64 `parquet:"name=loudness, type=DOUBLE, repetitiontype=OPTIONAL"`
	Acousticness     *float64 `parquet:"name=acousticness, type=DOUBLE, repetitiontype=OPTIONAL"`
	Instrumentalness *float64 `parquet:"name=instrumentalness, type=DOUBLE, repetitiontype=OPTIONAL"`
	Liveness         *float64 `parquet:"name=liveness, type=DOUBLE, repetitiontype=OPTIONAL"`
	Speechiness      *float64 `parquet:"name=speechiness, type=DOUBLE, repetitiontype=OPTIONAL"`
	Key              *float64 `parquet:"name=key, type=DOUBLE, repetitiontype=OPTIONAL"`
	Mode             *float64 `parquet:"name=mode, type=DOUBLE, repetitiontype=OPTIONAL"`
	TimeSignature    *float64 `parquet:"name=time_signature, type=DOUBLE, repetitiontype=OPTIONAL"`
	HasLyrics        bool     `parquet:"name=has_lyrics, type=BOOLEAN"`
}

func toRow(t *recommend.Track) trackRow {
	f := t.Features
	return trackRow{
		TrackID:          t.ID,
		TrackName:        t.Name,
		ArtistName:       t.Artist,
		Danceability:     f.Danceability,
		Energy:           f.Energy,
		Valence:          f.Valence,
		Tempo:            f.Tempo,
		Loudness:         f.Loudness,
		Acousticness:     f.Acousticness,
		Instrumentalness: f.Instrumentalness,
		Liveness:         f.Liveness,
		Speechiness:      f.Speechiness,
		Key:              f.Key,
		Mode:             f.Mode,
		TimeSignature:    f.TimeSignature,
		HasLyrics:        t.HasLyrics,
	}
}

func (r *trackRow) track() recommend.Track {
	return recommend.Track{
		ID:     r.TrackID,
		Name:   r.TrackName,
		Artist: r.ArtistName,
		Features: features.AudioFeatures{
			Danceability:     r.Danceability,
			Energy:           r.Energy,
			Valence:          r.Valence,
			Tempo:            r.Tempo,
			Loudness:         r.Loudness,
			Acousticness:     r.Acousticness,
			Instrumentalness: r.Instrumentalness,
			Liveness:         r.Liveness,
			Speechiness:      r.Speechiness,
			Key:              r.Key,
			Mode:             r.Mode,
			TimeSignature:    r.TimeSignature,
		},
		HasLyrics: r.HasLyrics,
	}
}

// writeTracks writes the track metadata table to path.
func writeTracks(path string, tracks []recommend.Track) (err error) {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", TracksFile, err)
	}
	defer func() {
		if cerr := fw.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", TracksFile, cerr)
		}
	}()

	pw, err := writer.NewParquetWriter(fw, new(trackRow), parquetParallelism)
	if err != nil {
		return fmt.Errorf("parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range tracks {
		if err := pw.Write(toRow(&tracks[i])); err != nil {
			_ = pw.WriteStop() //nolint:errcheck // the write error is what matters
			return fmt.Errorf("write track %d: %w", i, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finalize %s: %w", TracksFile, err)
	}
	return nil
}

// readTracks reads every row of the track metadata table at path.
func readTracks(path string) ([]recommend.Track, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", TracksFile, err)
	}
	defer func() { _ = fr.Close() }() //nolint:errcheck // error on close after read is not actionable

	pr, err := reader.NewParquetReader(fr, new(trackRow), parquetParallelism)
	if err != nil {
		return nil, fmt.Errorf("parquet reader: %w", err)
	}
	defer pr.ReadStop()

	n := int(pr.GetNumRows())
	rows := make([]trackRow, n)
	if n > 0 {
		if err := pr.Read(&rows); err != nil {
			return nil, fmt.Errorf("read %s: %w", TracksFile, err)
		}
	}

	tracks := make([]recommend.Track, len(rows))
	for i := range rows {
		tracks[i] = rows[i].track()
	}
	return tracks, nil
}
