// Package embedder implements the Embedder (C4): message content goes in,
// a fixed-width similarity vector comes out, used by both the contradiction
// detector's kNN lookup and the loop detector's pattern matching.
package embedder

import "context"

// Dimension is the fixed output width every Embedder implementation must
// produce. Set to text-embedding-3-small's native width; an alternate
// backend must project or pad to this width before returning.
const Dimension = 1536

// Embedder turns text into a Dimension-wide similarity vector.
type Embedder interface {
	// Embed returns one vector per input text, in the same order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Model identifies the embedding model in use, stored alongside each
	// vector so a later model change doesn't silently mix incompatible
	// embeddings in kNN search.
	Model() string
}
