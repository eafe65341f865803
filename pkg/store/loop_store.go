package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agora-debate/agora/pkg/database"
	"github.com/agora-debate/agora/pkg/models"
	"github.com/jackc/pgx/v5"
)

// LoopStore manages ConversationLoop rows. The (conversation_id,
// pattern_hash) unique key lets repeated detections of the same pattern
// increment repetition_count conflict-free instead of creating duplicate
// rows.
type LoopStore struct {
	db *database.Client
}

// NewLoopStore creates a new LoopStore.
func NewLoopStore(db *database.Client) *LoopStore {
	return &LoopStore{db: db}
}

// Upsert records a detected loop occurrence. If pattern_hash already exists
// for this conversation, repetition_count and last_occurrence_message_id
// are updated in place; otherwise a new row is created with
// intervention_status "detected".
func (s *LoopStore) Upsert(ctx context.Context, l *models.ConversationLoop) error {
	if l.ID == "" {
		return NewValidationError("id", "required")
	}
	if l.PatternHash == "" {
		return NewValidationError("pattern_hash", "required")
	}

	l.DetectedAt = time.Now()
	_, err := s.db.Pool.Exec(ctx,
		`INSERT INTO conversation_loops
			(id, conversation_id, pattern_hash, description, loop_size, repetition_count,
			 first_occurrence_message_id, last_occurrence_message_id, intervention_status,
			 suggested_intervention, detected_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (conversation_id, pattern_hash) DO UPDATE SET
			repetition_count = EXCLUDED.repetition_count,
			last_occurrence_message_id = EXCLUDED.last_occurrence_message_id,
			suggested_intervention = EXCLUDED.suggested_intervention`,
		l.ID, l.ConversationID, l.PatternHash, l.Description, l.LoopSize, l.RepetitionCount,
		l.FirstOccurrenceMessageID, l.LastOccurrenceMessageID, string(l.InterventionStatus),
		l.SuggestedIntervention, l.DetectedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert conversation loop: %w", err)
	}
	return nil
}

// MarkIntervention updates the intervention status of a loop (e.g. after a
// proposed intervention is accepted or the loop breaks on its own).
func (s *LoopStore) MarkIntervention(ctx context.Context, id string, status models.InterventionStatus) error {
	tag, err := s.db.Pool.Exec(ctx,
		`UPDATE conversation_loops SET intervention_status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update intervention status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LoopFilter narrows List results.
type LoopFilter struct {
	InterventionStatus models.InterventionStatus // empty means any
	Limit               int
	Offset              int
}

// List returns loops for a conversation matching filter, newest first.
func (s *LoopStore) List(ctx context.Context, conversationID string, filter LoopFilter) ([]models.ConversationLoop, int, error) {
	where := []string{"conversation_id = $1"}
	args := []any{conversationID}

	if filter.InterventionStatus != "" {
		args = append(args, string(filter.InterventionStatus))
		where = append(where, fmt.Sprintf("intervention_status = $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	if err := s.db.Pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT count(*) FROM conversation_loops WHERE %s`, whereClause), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count loops: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	rows, err := s.db.Pool.Query(ctx,
		fmt.Sprintf(`SELECT id, conversation_id, pattern_hash, description, loop_size, repetition_count,
			first_occurrence_message_id, last_occurrence_message_id, intervention_status,
			suggested_intervention, detected_at
		FROM conversation_loops WHERE %s ORDER BY detected_at DESC LIMIT $%d OFFSET $%d`,
			whereClause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list loops: %w", err)
	}
	defer rows.Close()

	var out []models.ConversationLoop
	for rows.Next() {
		l, err := scanLoop(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *l)
	}
	return out, total, rows.Err()
}

func scanLoop(row rowScanner) (*models.ConversationLoop, error) {
	l := &models.ConversationLoop{}
	var status string
	if err := row.Scan(&l.ID, &l.ConversationID, &l.PatternHash, &l.Description, &l.LoopSize, &l.RepetitionCount,
		&l.FirstOccurrenceMessageID, &l.LastOccurrenceMessageID, &status, &l.SuggestedIntervention, &l.DetectedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan loop: %w", err)
	}
	l.InterventionStatus = models.InterventionStatus(status)
	return l, nil
}
