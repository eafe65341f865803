package store

import (
	"context"
	"fmt"
	"time"

	"github.com/agora-debate/agora/pkg/database"
	"github.com/agora-debate/agora/pkg/models"
)

// CitationStore manages the supplemented Citation entity, the producer
// behind the citation health component (see pkg/models.Citation).
type CitationStore struct {
	db *database.Client
}

// NewCitationStore creates a new CitationStore.
func NewCitationStore(db *database.Client) *CitationStore {
	return &CitationStore{db: db}
}

// Create persists a new citation extracted from a message.
func (s *CitationStore) Create(ctx context.Context, c *models.Citation) error {
	if c.ID == "" {
		return NewValidationError("id", "required")
	}
	if c.MessageID == "" {
		return NewValidationError("message_id", "required")
	}

	c.CreatedAt = time.Now()
	_, err := s.db.Pool.Exec(ctx,
		`INSERT INTO citations (id, conversation_id, message_id, claim, source, verified, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		c.ID, c.ConversationID, c.MessageID, c.Claim, c.Source, c.Verified, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create citation: %w", err)
	}
	return nil
}

// ListByConversation returns every citation recorded for a conversation.
func (s *CitationStore) ListByConversation(ctx context.Context, conversationID string) ([]models.Citation, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT id, conversation_id, message_id, claim, source, verified, created_at
		FROM citations WHERE conversation_id = $1 ORDER BY created_at ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list citations: %w", err)
	}
	defer rows.Close()

	var out []models.Citation
	for rows.Next() {
		c := models.Citation{}
		if err := rows.Scan(&c.ID, &c.ConversationID, &c.MessageID, &c.Claim, &c.Source, &c.Verified, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan citation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
