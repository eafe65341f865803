// Package stubembedder is a deterministic, in-process, no-network Embedder
// for tests: a text's vector is derived entirely from its own hash, so
// identical inputs always produce identical vectors and near-duplicate
// inputs never accidentally collide.
package stubembedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/agora-debate/agora/pkg/embedder"
)

// Embedder is a hash-derived, deterministic embedder.Embedder.
type Embedder struct{}

// New creates a stub Embedder.
func New() *Embedder {
	return &Embedder{}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = vectorFor(t)
	}
	return out, nil
}

func (e *Embedder) Model() string {
	return "stub-hash-embed-v1"
}

// vectorFor expands a text's SHA-256 digest into a Dimension-wide unit
// vector by re-hashing with an incrementing counter for each needed block
// of pseudo-random floats, then L2-normalizing.
func vectorFor(text string) []float32 {
	vec := make([]float32, embedder.Dimension)
	block := 0
	for i := 0; i < embedder.Dimension; {
		h := sha256.New()
		h.Write([]byte(text))
		var counter [4]byte
		binary.BigEndian.PutUint32(counter[:], uint32(block))
		h.Write(counter[:])
		digest := h.Sum(nil)
		for j := 0; j+4 <= len(digest) && i < embedder.Dimension; j += 4 {
			bits := binary.BigEndian.Uint32(digest[j : j+4])
			vec[i] = float32(bits)/float32(1<<32)*2 - 1
			i++
		}
		block++
	}
	normalize(vec)
	return vec
}

func normalize(vec []float32) {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i, v := range vec {
		vec[i] = float32(float64(v) / norm)
	}
}
