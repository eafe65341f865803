// Package openaiembedder implements embedder.Embedder on
// github.com/sashabaranov/go-openai's embeddings endpoint.
package openaiembedder

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/agora-debate/agora/pkg/embedder"
)

const defaultModel = openai.SmallEmbedding3

// Embedder wraps an OpenAI embeddings client.
type Embedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// New creates an Embedder against the public OpenAI API using the default
// 1536-dimension model.
func New(apiKey string) *Embedder {
	return &Embedder{client: openai.NewClient(apiKey), model: defaultModel}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openaiembedder: create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openaiembedder: expected %d embeddings, got %d", len(texts), len(resp.Data))
	}
	out := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		copy(vec, d.Embedding)
		out[d.Index] = vec
	}
	for i, v := range out {
		if len(v) != embedder.Dimension {
			return nil, fmt.Errorf("openaiembedder: model %s returned %d-d vector at index %d, want %d", e.model, len(v), i, embedder.Dimension)
		}
	}
	return out, nil
}

func (e *Embedder) Model() string {
	return string(e.model)
}
