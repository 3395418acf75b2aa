// Songbird - Playlist Vector Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songbird

package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

const (
	clsToken = "[CLS]"
	sepToken = "[SEP]"
	padToken = "[PAD]"

	// maxPieceRunes splits long words into word pieces.
	maxPieceRunes = 8
	pieceRunes    = 6

	projections = 8
)

// HashModel is a deterministic local TokenModel. Each token's hidden state
// is a signed random projection of its FNV hash, mixed with the previous
// token so that order matters. Padding positions carry non-zero states, so
// any pooling that ignores the mask produces visibly different vectors.
type HashModel struct {
	dim       int
	maxLength int
}

var _ TokenModel = (*HashModel)(nil)

// NewHashModel returns a HashModel producing dim-wide hidden states for at
// most maxLength tokens per text, including [CLS] and [SEP].
func NewHashModel(dim, maxLength int) *HashModel {
	if dim <= 0 {
		dim = 384
	}
	if maxLength < 3 {
		maxLength = 256
	}
	return &HashModel{dim: dim, maxLength: maxLength}
}

// Dim returns the hidden state width.
func (m *HashModel) Dim() int { return m.dim }

// Tokenize lower-cases text, splits it into words on anything that is not a
// letter or digit, and breaks long words into "##"-prefixed pieces. The
// result is wrapped in [CLS] ... [SEP] and truncated to maxLength.
func (m *HashModel) Tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(words)+2)
	tokens = append(tokens, clsToken)
	limit := m.maxLength - 1
	for _, w := range words {
		for _, piece := range wordPieces(w) {
			if len(tokens) >= limit {
				break
			}
			tokens = append(tokens, piece)
		}
	}
	return append(tokens, sepToken)
}

func wordPieces(word string) []string {
	runes := []rune(word)
	if len(runes) <= maxPieceRunes {
		return []string{word}
	}
	pieces := make([]string, 0, len(runes)/pieceRunes+1)
	for i := 0; i < len(runes); i += pieceRunes {
		end := min(i+pieceRunes, len(runes))
		p := string(runes[i:end])
		if i > 0 {
			p = "##" + p
		}
		pieces = append(pieces, p)
	}
	return pieces
}

// Forward tokenizes texts, pads them to the longest sequence and returns
// their hidden states.
func (m *HashModel) Forward(ctx context.Context, texts []string) (*Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokenized := make([][]string, len(texts))
	longest := 0
	for i, text := range texts {
		tokenized[i] = m.Tokenize(text)
		longest = max(longest, len(tokenized[i]))
	}

	batch := &Batch{
		Hidden: make([][][]float64, len(texts)),
		Mask:   make([][]int, len(texts)),
	}
	for i, tokens := range tokenized {
		hidden := make([][]float64, longest)
		mask := make([]int, longest)
		prev := ""
		for t := 0; t < longest; t++ {
			if t < len(tokens) {
				hidden[t] = m.tokenState(tokens[t], prev)
				mask[t] = 1
				prev = tokens[t]
				continue
			}
			hidden[t] = m.tokenState(padToken, padToken)
		}
		batch.Hidden[i] = hidden
		batch.Mask[i] = mask
	}
	return batch, nil
}

func (m *HashModel) tokenState(token, prev string) []float64 {
	vec := make([]float64, m.dim)
	m.project(vec, hash64("t:"+token), 1.0)
	if prev != "" {
		m.project(vec, hash64("b:"+prev+"\x00"+token), 0.5)
	}
	return vec
}

// project adds weight*±1 at several hash-derived positions.
func (m *HashModel) project(vec []float64, hash uint64, weight float64) {
	state := hash
	for j := 0; j < projections; j++ {
		state = state*6364136223846793005 + 1442695040888963407
		idx := int(state % uint64(m.dim))
		sign := 1.0
		if (hash>>j)&1 == 0 {
			sign = -1
		}
		vec[idx] += weight * sign
	}
}

func hash64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
