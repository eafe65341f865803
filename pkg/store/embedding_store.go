package store

import (
	"context"
	"fmt"

	"github.com/agora-debate/agora/pkg/database"
	"github.com/agora-debate/agora/pkg/models"
	"github.com/jackc/pgx/v5"
)

// EmbeddingStore manages the 1:1 MessageEmbedding side-table. The vector
// itself is also written to the configured
// VectorStore (pkg/vectorstore) for similarity search; this table is the
// durable, queryable record tying a message to the embedding that was used.
type EmbeddingStore struct {
	db *database.Client
}

// NewEmbeddingStore creates a new EmbeddingStore.
func NewEmbeddingStore(db *database.Client) *EmbeddingStore {
	return &EmbeddingStore{db: db}
}

// Upsert creates or replaces the embedding for a message. Re-embedding
// (e.g. after an embedding model upgrade) is expected to overwrite, not
// duplicate.
func (s *EmbeddingStore) Upsert(ctx context.Context, e *models.MessageEmbedding) error {
	if e.MessageID == "" {
		return NewValidationError("message_id", "required")
	}

	_, err := s.db.Pool.Exec(ctx,
		`INSERT INTO message_embeddings (message_id, vector, embedding_model, embedding_version, embedded_text, created_at)
		VALUES ($1,$2,$3,$4,$5,now())
		ON CONFLICT (message_id) DO UPDATE SET
			vector = EXCLUDED.vector,
			embedding_model = EXCLUDED.embedding_model,
			embedding_version = EXCLUDED.embedding_version,
			embedded_text = EXCLUDED.embedded_text,
			created_at = now()`,
		e.MessageID, e.Vector, e.EmbeddingModel, e.EmbeddingVersion, e.EmbeddedText)
	if err != nil {
		return fmt.Errorf("failed to upsert message embedding: %w", err)
	}
	return nil
}

// Get loads the embedding for a message, if one exists.
func (s *EmbeddingStore) Get(ctx context.Context, messageID string) (*models.MessageEmbedding, error) {
	row := s.db.Pool.QueryRow(ctx,
		`SELECT message_id, vector, embedding_model, embedding_version, embedded_text, created_at
		FROM message_embeddings WHERE message_id = $1`, messageID)

	e := &models.MessageEmbedding{}
	if err := row.Scan(&e.MessageID, &e.Vector, &e.EmbeddingModel, &e.EmbeddingVersion, &e.EmbeddedText, &e.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message embedding: %w", err)
	}
	return e, nil
}
