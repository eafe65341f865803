// Package vectorstore implements the Vector Store half of the Embedder +
// Vector Store pairing (C4): durable kNN storage for message embeddings,
// used by the contradiction detector's candidate-pair search. The loop
// detector does not use it; it matches on participant order alone.
package vectorstore

import "context"

// Result is one nearest-neighbor hit.
type Result struct {
	ID       string
	Score    float64 // higher is closer
	Metadata map[string]string
}

// VectorStore is the minimum interface a pluggable similarity backend
// implements. Every vector is tagged with metadata (at minimum
// "conversation_id") so searches can be scoped to one debate.
type VectorStore interface {
	Upsert(ctx context.Context, id string, vector []float32, metadata map[string]string) error
	Delete(ctx context.Context, id string) error
	SimilaritySearch(ctx context.Context, vector []float32, k int, filter map[string]string) ([]Result, error)
	Dimension() int
	Close() error
}
