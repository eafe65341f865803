package memstore_test

import (
	"context"
	"testing"

	"github.com/agora-debate/agora/pkg/vectorstore/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimilaritySearch_RanksByCosineSimilarity(t *testing.T) {
	s := memstore.New(3)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "close", []float32{1, 0, 0}, nil))
	require.NoError(t, s.Upsert(ctx, "orthogonal", []float32{0, 1, 0}, nil))
	require.NoError(t, s.Upsert(ctx, "opposite", []float32{-1, 0, 0}, nil))

	results, err := s.SimilaritySearch(ctx, []float32{1, 0, 0}, 3, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "close", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 0.0001)
	assert.Equal(t, "opposite", results[2].ID)
}

func TestSimilaritySearch_FiltersByMetadata(t *testing.T) {
	s := memstore.New(2)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "a", []float32{1, 0}, map[string]string{"conversation_id": "conv-1"}))
	require.NoError(t, s.Upsert(ctx, "b", []float32{1, 0}, map[string]string{"conversation_id": "conv-2"}))

	results, err := s.SimilaritySearch(ctx, []float32{1, 0}, 10, map[string]string{"conversation_id": "conv-1"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
}

func TestSimilaritySearch_RespectsK(t *testing.T) {
	s := memstore.New(1)
	ctx := context.Background()
	for _, id := range []string{"x", "y", "z"} {
		require.NoError(t, s.Upsert(ctx, id, []float32{1}, nil))
	}

	results, err := s.SimilaritySearch(ctx, []float32{1}, 2, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestDelete_RemovesFromSearch(t *testing.T) {
	s := memstore.New(1)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, "a", []float32{1}, nil))
	require.NoError(t, s.Delete(ctx, "a"))

	results, err := s.SimilaritySearch(ctx, []float32{1}, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestUpsert_OverwritesExisting(t *testing.T) {
	s := memstore.New(1)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, "a", []float32{1}, map[string]string{"v": "1"}))
	require.NoError(t, s.Upsert(ctx, "a", []float32{1}, map[string]string{"v": "2"}))

	results, err := s.SimilaritySearch(ctx, []float32{1}, 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "2", results[0].Metadata["v"])
}

func TestDimension(t *testing.T) {
	s := memstore.New(1536)
	assert.Equal(t, 1536, s.Dimension())
}
