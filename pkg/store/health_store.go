package store

import (
	"context"
	"fmt"
	"time"

	"github.com/agora-debate/agora/pkg/database"
	"github.com/agora-debate/agora/pkg/models"
)

// HealthStore manages the append-only HealthSample time series.
type HealthStore struct {
	db *database.Client
}

// NewHealthStore creates a new HealthStore.
func NewHealthStore(db *database.Client) *HealthStore {
	return &HealthStore{db: db}
}

// Insert appends a new health sample.
func (s *HealthStore) Insert(ctx context.Context, h *models.HealthSample) error {
	if h.ID == "" {
		return NewValidationError("id", "required")
	}

	h.CreatedAt = time.Now()
	_, err := s.db.Pool.Exec(ctx,
		`INSERT INTO health_samples
			(id, conversation_id, overall_score, coherence, contradiction, loop, citation,
			 message_count, contradiction_count, loop_count, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		h.ID, h.ConversationID, h.OverallScore, h.Components.Coherence, h.Components.Contradiction,
		h.Components.Loop, h.Components.Citation, h.MessageCount, h.ContradictionCount, h.LoopCount, h.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert health sample: %w", err)
	}
	return nil
}

// ListRecent returns the most recent health samples for a conversation,
// newest first, capped at limit.
func (s *HealthStore) ListRecent(ctx context.Context, conversationID string, limit int) ([]models.HealthSample, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Pool.Query(ctx,
		`SELECT id, conversation_id, overall_score, coherence, contradiction, loop, citation,
			message_count, contradiction_count, loop_count, created_at
		FROM health_samples WHERE conversation_id = $1 ORDER BY created_at DESC LIMIT $2`,
		conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list health samples: %w", err)
	}
	defer rows.Close()

	var out []models.HealthSample
	for rows.Next() {
		h := models.HealthSample{}
		if err := rows.Scan(&h.ID, &h.ConversationID, &h.OverallScore, &h.Components.Coherence, &h.Components.Contradiction,
			&h.Components.Loop, &h.Components.Citation, &h.MessageCount, &h.ContradictionCount, &h.LoopCount, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan health sample: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
