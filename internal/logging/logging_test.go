// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func decodeLine(t *testing.T, line string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", line, err)
	}
	return m
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want json", cfg.Format)
	}
	if !cfg.Timestamp {
		t.Error("Timestamp should default to true")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestInitAndComponent(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	logger := WithComponent("recommend")
	logger.Info().Int("k", 30).Msg("served")

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if m["component"] != "recommend" {
		t.Errorf("component = %v, want recommend", m["component"])
	}
	if m["message"] != "served" {
		t.Errorf("message = %v, want served", m["message"])
	}
	if m["k"] != float64(30) {
		t.Errorf("k = %v, want 30", m["k"])
	}
}

func TestInitConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "console", Output: &buf})
	defer Init(DefaultConfig())

	Info().Msg("console line")
	if !strings.Contains(buf.String(), "console line") {
		t.Errorf("console output missing message: %q", buf.String())
	}
	if strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("console output should not be JSON: %q", buf.String())
	}
}

func TestCtxAddsIDs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithBuildID(ctx, "build-1")

	Ctx(ctx).Info().Msg("hello")

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if m["request_id"] != "req-1" {
		t.Errorf("request_id = %v, want req-1", m["request_id"])
	}
	if m["build_id"] != "build-1" {
		t.Errorf("build_id = %v, want build-1", m["build_id"])
	}
}

func TestContextIDsAbsent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("RequestIDFromContext = %q, want empty", got)
	}
	if got := BuildIDFromContext(ctx); got != "" {
		t.Errorf("BuildIDFromContext = %q, want empty", got)
	}
}

func TestGenerateIDs(t *testing.T) {
	t.Parallel()

	if a, b := GenerateRequestID(), GenerateRequestID(); a == b || len(a) != 36 {
		t.Errorf("GenerateRequestID returned %q and %q", a, b)
	}
	if id := GenerateBuildID(); len(id) != 8 {
		t.Errorf("GenerateBuildID length = %d, want 8", len(id))
	}
}

func TestSlogHandler(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	slogger := slog.New(NewSlogHandler(NewTestLogger(&buf)))
	slogger.With("service", "http").WithGroup("event").Warn("service restarted",
		"attempt", 3,
		"backoff", 2*time.Second,
		"err", errors.New("boom"),
		slog.Group("detail", "ok", false),
	)

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	if m["level"] != "warn" {
		t.Errorf("level = %v, want warn", m["level"])
	}
	if m["message"] != "service restarted" {
		t.Errorf("message = %v", m["message"])
	}
	if m["service"] != "http" {
		t.Errorf("service = %v, want http", m["service"])
	}
	if m["event.attempt"] != float64(3) {
		t.Errorf("event.attempt = %v, want 3", m["event.attempt"])
	}
	if m["event.err"] != "boom" {
		t.Errorf("event.err = %v, want boom", m["event.err"])
	}
	if m["event.detail.ok"] != false {
		t.Errorf("event.detail.ok = %v, want false", m["event.detail.ok"])
	}
}

func TestSlogHandlerEnabled(t *testing.T) {
	t.Parallel()

	h := NewSlogHandler(NewTestLogger(&bytes.Buffer{}).Level(zerolog.WarnLevel))
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled for a warn-level logger")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled for a warn-level logger")
	}
}
