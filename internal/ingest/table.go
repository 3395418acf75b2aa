// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"

	"github.com/tomtom215/songbird/internal/recommend"
	"github.com/tomtom215/songbird/internal/recommend/features"
)

// requiredColumns must be present in an input table.
var requiredColumns = []string{"track_id", "track_name", "artist_name"}

// TableSource reads tracks from a local CSV or Parquet file with DuckDB.
// Feature columns that are absent or not numeric are treated as missing.
// An optional lyrics column is passed through.
type TableSource struct {
	path   string
	logger zerolog.Logger
}

var _ Source = (*TableSource)(nil)

// NewTableSource creates a source for path. The format follows the file
// extension: .parquet reads Parquet, anything else is sniffed as CSV.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewTableSource(path string, logger zerolog.Logger) *TableSource {
	return &TableSource{
		path:   path,
		logger: logger.With().Str("component", "table_source").Logger(),
	}
}

// Name returns the input path.
func (s *TableSource) Name() string { return s.path }

// relation returns the DuckDB table function call reading the file.
func (s *TableSource) relation() string {
	quoted := "'" + strings.ReplaceAll(s.path, "'", "''") + "'"
	if strings.EqualFold(filepath.Ext(s.path), ".parquet") {
		return "read_parquet(" + quoted + ")"
	}
	return "read_csv_auto(" + quoted + ", header=true)"
}

// Records reads up to max rows in file order. Rows without a track id are
// skipped.
func (s *TableSource) Records(ctx context.Context, max int) ([]Record, error) {
	conn, err := sql.Open("duckdb", ":memory:?autoinstall_known_extensions=false&autoload_known_extensions=false")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	defer func() { _ = conn.Close() }()

	columns, err := s.columns(ctx, conn)
	if err != nil {
		return nil, err
	}
	for _, c := range requiredColumns {
		if _, ok := columns[c]; !ok {
			return nil, fmt.Errorf("input table %s has no %s column", s.path, c)
		}
	}

	query := s.buildQuery(columns, max)
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query input table: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var (
			id, name, artist, lyrics sql.NullString
			vals                     [features.Dim]sql.NullFloat64
		)
		dest := []any{&id, &name, &artist, &lyrics}
		for i := range vals {
			dest = append(dest, &vals[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan input row: %w", err)
		}

		track := recommend.Track{ID: id.String, Name: name.String, Artist: artist.String}
		for i, v := range vals {
			if v.Valid {
				if err := track.Features.Set(features.Names[i], features.Float(v.Float64)); err != nil {
					return nil, err
				}
			}
		}
		records = append(records, Record{Track: track, Lyrics: lyrics.String})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read input table: %w", err)
	}

	s.logger.Info().Str("path", s.path).Int("tracks", len(records)).Msg("read input table")
	return records, nil
}

// columns lists the lower-cased column names of the input file.
func (s *TableSource) columns(ctx context.Context, conn *sql.DB) (map[string]struct{}, error) {
	rows, err := conn.QueryContext(ctx, "SELECT column_name FROM (DESCRIBE SELECT * FROM "+s.relation()+")")
	if err != nil {
		return nil, fmt.Errorf("describe input table %s: %w", s.path, err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column name: %w", err)
		}
		out[strings.ToLower(name)] = struct{}{}
	}
	return out, rows.Err()
}

func (s *TableSource) buildQuery(columns map[string]struct{}, max int) string {
	sel := []string{
		`CAST("track_id" AS VARCHAR)`,
		`CAST("track_name" AS VARCHAR)`,
		`CAST("artist_name" AS VARCHAR)`,
	}
	if _, ok := columns["lyrics"]; ok {
		sel = append(sel, `CAST("lyrics" AS VARCHAR)`)
	} else {
		sel = append(sel, `NULL::VARCHAR`)
	}
	for _, name := range features.Names {
		if _, ok := columns[name]; ok {
			sel = append(sel, fmt.Sprintf(`TRY_CAST(%q AS DOUBLE)`, name))
		} else {
			sel = append(sel, `NULL::DOUBLE`)
		}
	}

	query := "SELECT " + strings.Join(sel, ", ") + " FROM " + s.relation() +
		` WHERE "track_id" IS NOT NULL AND CAST("track_id" AS VARCHAR) <> ''`
	if max > 0 {
		query += fmt.Sprintf(" LIMIT %d", max)
	}
	return query
}
