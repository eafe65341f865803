// Package memstore implements vectorstore.VectorStore as an in-process
// linear-scan cosine-similarity index, used by tests and the local-offline
// stub deployment in place of qdrantstore.
package memstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/agora-debate/agora/pkg/vectorstore"
)

type entry struct {
	vector   []float32
	metadata map[string]string
}

// Store is a thread-safe, in-memory vectorstore.VectorStore.
type Store struct {
	mu        sync.RWMutex
	dimension int
	entries   map[string]entry
}

// New creates an empty in-memory Store expecting vectors of width dimension.
func New(dimension int) *Store {
	return &Store{dimension: dimension, entries: make(map[string]entry)}
}

func (s *Store) Upsert(ctx context.Context, id string, vector []float32, metadata map[string]string) error {
	vec := make([]float32, len(vector))
	copy(vec, vector)
	md := make(map[string]string, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = entry{vector: vec, metadata: md}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

func (s *Store) SimilaritySearch(ctx context.Context, vector []float32, k int, filter map[string]string) ([]vectorstore.Result, error) {
	if k <= 0 {
		k = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []vectorstore.Result
	for id, e := range s.entries {
		if !matchesFilter(e.metadata, filter) {
			continue
		}
		results = append(results, vectorstore.Result{
			ID:       id,
			Score:    cosineSimilarity(vector, e.vector),
			Metadata: e.metadata,
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func matchesFilter(metadata, filter map[string]string) bool {
	for k, v := range filter {
		if metadata[k] != v {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func (s *Store) Dimension() int { return s.dimension }

func (s *Store) Close() error { return nil }
