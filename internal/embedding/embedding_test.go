// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package embedding

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/floats"

	"github.com/tomtom215/songbird/internal/config"
	"github.com/tomtom215/songbird/internal/logging"
	"github.com/tomtom215/songbird/internal/recommend/vecmath"
)

const tol = 1e-9

func TestMeanPoolIgnoresPadding(t *testing.T) {
	t.Parallel()

	hidden := [][]float64{
		{1, 0},
		{3, 0},
		{100, 100}, // padding
	}
	got := MeanPool(hidden, []int{1, 1, 0}, 2)
	want := []float64{1, 0}
	if !floats.EqualApprox(got, want, tol) {
		t.Errorf("MeanPool = %v, want %v", got, want)
	}
}

func TestMeanPoolAllMasked(t *testing.T) {
	t.Parallel()

	got := MeanPool([][]float64{{5, 5}}, []int{0}, 2)
	if got[0] != 0 || got[1] != 0 {
		t.Errorf("MeanPool with no attended tokens = %v, want zeros", got)
	}
}

func TestEncoderEmptyInput(t *testing.T) {
	t.Parallel()

	enc := NewEncoder(NewHashModel(384, 256), 32, logging.Nop())
	got, err := enc.Encode(context.Background(), nil)
	if err != nil {
		t.Fatalf("Encode(nil) error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Encode(nil) = %v, want empty non-nil slice", got)
	}
	if enc.Dim() != 384 {
		t.Errorf("Dim() = %d, want 384", enc.Dim())
	}
}

func TestEncoderUnitNorm(t *testing.T) {
	t.Parallel()

	enc := NewEncoder(NewHashModel(64, 256), 4, logging.Nop())
	vecs, err := enc.Encode(context.Background(), []string{
		"I walk the line",
		"Hello darkness my old friend",
		"",
	})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("len = %d, want 3", len(vecs))
	}
	for i, v := range vecs {
		if len(v) != 64 {
			t.Errorf("vec %d has dim %d, want 64", i, len(v))
		}
		if n := vecmath.Norm(v); math.Abs(n-1) > 1e-6 {
			t.Errorf("vec %d norm = %v, want 1", i, n)
		}
	}
}

// Texts of very different lengths force heavy padding in a shared batch.
// Masked pooling must give the same vectors as encoding each text alone.
func TestEncoderIndependentOfBatching(t *testing.T) {
	t.Parallel()

	texts := []string{
		"short",
		"a considerably longer line of lyrics that will dominate the padded batch length",
		"mid length words here",
		"another",
		"verse chorus verse chorus bridge chorus",
	}
	model := NewHashModel(96, 256)

	whole, err := NewEncoder(model, 32, logging.Nop()).Encode(context.Background(), texts)
	if err != nil {
		t.Fatalf("batched Encode() error = %v", err)
	}
	single, err := NewEncoder(model, 1, logging.Nop()).Encode(context.Background(), texts)
	if err != nil {
		t.Fatalf("single Encode() error = %v", err)
	}
	pairs, err := NewEncoder(model, 2, logging.Nop()).Encode(context.Background(), texts)
	if err != nil {
		t.Fatalf("paired Encode() error = %v", err)
	}

	for i := range texts {
		if !floats.EqualApprox(whole[i], single[i], 1e-12) {
			t.Errorf("text %d differs between batch size 32 and 1", i)
		}
		if !floats.EqualApprox(whole[i], pairs[i], 1e-12) {
			t.Errorf("text %d differs between batch size 32 and 2", i)
		}
	}
}

// Unmasked pooling over the same batch would differ, which shows padding
// states are non-trivial and the mask is doing real work.
func TestHashModelPaddingIsNonZero(t *testing.T) {
	t.Parallel()

	model := NewHashModel(32, 256)
	batch, err := model.Forward(context.Background(), []string{"a", "a b c d e f"})
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}

	row := batch.Hidden[0]
	ones := make([]int, len(row))
	for i := range ones {
		ones[i] = 1
	}
	masked := MeanPool(row, batch.Mask[0], 32)
	unmasked := MeanPool(row, ones, 32)
	if floats.EqualApprox(masked, unmasked, 1e-6) {
		t.Error("padding positions should change an unmasked mean")
	}
}

func TestHashModelTokenize(t *testing.T) {
	t.Parallel()

	m := NewHashModel(16, 256)
	got := m.Tokenize("Don't STOP believin'!")
	want := []string{"[CLS]", "don", "t", "stop", "believin", "[SEP]"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}

	long := m.Tokenize("supercalifragilistic")
	if len(long) != 6 || long[2] != "##alifra" {
		t.Errorf("word pieces = %v", long)
	}
}

func TestHashModelTruncates(t *testing.T) {
	t.Parallel()

	m := NewHashModel(16, 5)
	got := m.Tokenize("one two three four five six")
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5: %v", len(got), got)
	}
	if got[0] != "[CLS]" || got[4] != "[SEP]" {
		t.Errorf("tokens = %v, want [CLS] ... [SEP]", got)
	}
}

func TestHashModelDeterministic(t *testing.T) {
	t.Parallel()

	enc := NewEncoder(NewHashModel(48, 256), 8, logging.Nop())
	a, err := enc.Encode(context.Background(), []string{"same words"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := enc.Encode(context.Background(), []string{"same words"})
	if err != nil {
		t.Fatal(err)
	}
	if !floats.Equal(a[0], b[0]) {
		t.Error("HashModel output should be deterministic")
	}

	c, err := enc.Encode(context.Background(), []string{"words same"})
	if err != nil {
		t.Fatal(err)
	}
	if floats.EqualApprox(a[0], c[0], 1e-9) {
		t.Error("word order should change the embedding")
	}
}

type brokenModel struct{}

func (brokenModel) Dim() int { return 4 }
func (brokenModel) Forward(_ context.Context, texts []string) (*Batch, error) {
	return &Batch{Hidden: make([][][]float64, len(texts)+1), Mask: make([][]int, len(texts))}, nil
}

func TestEncoderRejectsMalformedBatch(t *testing.T) {
	t.Parallel()

	_, err := NewEncoder(brokenModel{}, 8, logging.Nop()).Encode(context.Background(), []string{"x"})
	if !errors.Is(err, ErrMalformedBatch) {
		t.Errorf("error = %v, want ErrMalformedBatch", err)
	}
}

func newTokenServer(t *testing.T, dim int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/embed/tokens":
			var req tokensRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "bad json", http.StatusBadRequest)
				return
			}
			if req.MaxLength != 256 {
				http.Error(w, "unexpected max_length", http.StatusBadRequest)
				return
			}
			resp := tokensResponse{Dim: dim}
			for i := range req.Texts {
				// token 0 points along axis i%dim, token 1 is padding
				tok := make([]float64, dim)
				tok[i%dim] = 2
				pad := make([]float64, dim)
				for j := range pad {
					pad[j] = 9
				}
				resp.Hidden = append(resp.Hidden, [][]float64{tok, pad})
				resp.Mask = append(resp.Mask, []int{1, 0})
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestHTTPModelEncode(t *testing.T) {
	t.Parallel()

	srv := newTokenServer(t, 3)
	defer srv.Close()

	cfg := &config.EmbeddingConfig{Backend: "http", URL: srv.URL, Dim: 3, BatchSize: 2, MaxLength: 256}
	p, err := New(context.Background(), cfg, logging.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	vecs, err := p.Encode(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	// Batches of 2: texts 0,1 then text 2 (index 0 in its batch).
	want := [][]float64{{1, 0, 0}, {0, 1, 0}, {1, 0, 0}}
	for i := range want {
		if !floats.EqualApprox(vecs[i], want[i], 1e-6) {
			t.Errorf("vec %d = %v, want %v", i, vecs[i], want[i])
		}
	}
}

func TestHTTPModelDimensionMismatch(t *testing.T) {
	t.Parallel()

	srv := newTokenServer(t, 5)
	defer srv.Close()

	m := NewHTTPModel(HTTPModelConfig{BaseURL: srv.URL, Dim: 3})
	_, err := m.Forward(context.Background(), []string{"x"})
	if !errors.Is(err, ErrMalformedBatch) {
		t.Errorf("error = %v, want ErrMalformedBatch", err)
	}
}

func TestHTTPModelServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	m := NewHTTPModel(HTTPModelConfig{BaseURL: srv.URL, Dim: 3})
	_, err := m.Forward(context.Background(), []string{"x"})
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Errorf("error = %v, want status 503", err)
	}
}

func TestNewFailsWhenBackendUnavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := &config.EmbeddingConfig{Backend: "http", URL: srv.URL, Dim: 3, BatchSize: 2, MaxLength: 256}
	if _, err := New(context.Background(), cfg, logging.Nop()); err == nil {
		t.Error("New() should fail when the health check fails")
	}
}

func TestNewUnknownBackend(t *testing.T) {
	t.Parallel()

	cfg := &config.EmbeddingConfig{Backend: "onnx", Dim: 3}
	if _, err := New(context.Background(), cfg, logging.Nop()); err == nil {
		t.Error("New() should reject an unknown backend")
	}
}
