package stubembedder_test

import (
	"context"
	"testing"

	"github.com/agora-debate/agora/pkg/embedder"
	"github.com/agora-debate/agora/pkg/embedder/stubembedder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbed_DeterministicAndFixedWidth(t *testing.T) {
	e := stubembedder.New()
	ctx := context.Background()

	out, err := e.Embed(ctx, []string{"the house was always a difficult case", "the house was always a difficult case"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Len(t, out[0], embedder.Dimension)
	assert.Equal(t, out[0], out[1])
}

func TestEmbed_DifferentTextsDiffer(t *testing.T) {
	e := stubembedder.New()
	ctx := context.Background()

	out, err := e.Embed(ctx, []string{"the prosecution rests", "the defense calls its first witness"})
	require.NoError(t, err)
	assert.NotEqual(t, out[0], out[1])
}

func TestEmbed_VectorsAreUnitNormalized(t *testing.T) {
	e := stubembedder.New()
	out, err := e.Embed(context.Background(), []string{"a normalized vector"})
	require.NoError(t, err)

	var sumSq float64
	for _, v := range out[0] {
		sumSq += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, sumSq, 0.01)
}

func TestEmbed_Empty(t *testing.T) {
	e := stubembedder.New()
	out, err := e.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestModel(t *testing.T) {
	e := stubembedder.New()
	assert.NotEmpty(t, e.Model())
}
