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

// ContradictionStore manages Contradiction rows. Creation is conflict-free:
// the (conversation_id, message_a_id, message_b_id) unique key lets the
// Quality Analysis Pipeline re-run detection without special-casing
// already-reported pairs.
type ContradictionStore struct {
	db *database.Client
}

// NewContradictionStore creates a new ContradictionStore.
func NewContradictionStore(db *database.Client) *ContradictionStore {
	return &ContradictionStore{db: db}
}

// Create inserts a newly detected contradiction. If the (a,b) pair was
// already recorded, Create is a silent no-op and returns (false, nil).
func (s *ContradictionStore) Create(ctx context.Context, c *models.Contradiction) (inserted bool, err error) {
	if c.ID == "" {
		return false, NewValidationError("id", "required")
	}
	if c.MessageAID == c.MessageBID {
		return false, NewValidationError("message_b_id", "must differ from message_a_id")
	}

	c.DetectedAt = time.Now()
	tag, err := s.db.Pool.Exec(ctx,
		`INSERT INTO contradictions
			(id, conversation_id, message_a_id, message_b_id, severity, confidence, similarity_score,
			 text_a_snapshot, text_b_snapshot, explanation, resolution_hint, detected_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (conversation_id, message_a_id, message_b_id) DO NOTHING`,
		c.ID, c.ConversationID, c.MessageAID, c.MessageBID, string(c.Severity), c.Confidence, c.SimilarityScore,
		c.TextASnapshot, c.TextBSnapshot, c.Explanation, c.ResolutionHint, c.DetectedAt)
	if err != nil {
		return false, fmt.Errorf("failed to create contradiction: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ContradictionFilter narrows List results.
type ContradictionFilter struct {
	Severity   models.ContradictionSeverity // empty means any
	Resolved   *bool                        // nil means any
	Limit      int
	Offset     int
}

// List returns contradictions for a conversation matching filter, newest
// first, with a total count for pagination.
func (s *ContradictionStore) List(ctx context.Context, conversationID string, filter ContradictionFilter) ([]models.Contradiction, int, error) {
	where := []string{"conversation_id = $1"}
	args := []any{conversationID}

	if filter.Severity != "" {
		args = append(args, string(filter.Severity))
		where = append(where, fmt.Sprintf("severity = $%d", len(args)))
	}
	if filter.Resolved != nil {
		args = append(args, *filter.Resolved)
		where = append(where, fmt.Sprintf("resolved = $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	if err := s.db.Pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT count(*) FROM contradictions WHERE %s`, whereClause), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count contradictions: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	rows, err := s.db.Pool.Query(ctx,
		fmt.Sprintf(`SELECT id, conversation_id, message_a_id, message_b_id, severity, confidence, similarity_score,
			text_a_snapshot, text_b_snapshot, explanation, resolution_hint, acknowledged, resolved,
			resolution_note, detected_at, resolved_at
		FROM contradictions WHERE %s ORDER BY detected_at DESC LIMIT $%d OFFSET $%d`,
			whereClause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list contradictions: %w", err)
	}
	defer rows.Close()

	var out []models.Contradiction
	for rows.Next() {
		c, err := scanContradiction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

// Resolve marks a contradiction resolved with an explanatory note.
// Idempotent: resolving an already-resolved contradiction simply overwrites
// the note and leaves resolved_at at its original value.
func (s *ContradictionStore) Resolve(ctx context.Context, id, note string) error {
	tag, err := s.db.Pool.Exec(ctx,
		`UPDATE contradictions SET resolved = true, resolution_note = $2,
			resolved_at = COALESCE(resolved_at, now())
		WHERE id = $1`, id, note)
	if err != nil {
		return fmt.Errorf("failed to resolve contradiction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Acknowledge marks a contradiction as seen without resolving it.
func (s *ContradictionStore) Acknowledge(ctx context.Context, id string) error {
	tag, err := s.db.Pool.Exec(ctx, `UPDATE contradictions SET acknowledged = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to acknowledge contradiction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanContradiction(row rowScanner) (*models.Contradiction, error) {
	c := &models.Contradiction{}
	var severity string
	if err := row.Scan(&c.ID, &c.ConversationID, &c.MessageAID, &c.MessageBID, &severity, &c.Confidence, &c.SimilarityScore,
		&c.TextASnapshot, &c.TextBSnapshot, &c.Explanation, &c.ResolutionHint, &c.Acknowledged, &c.Resolved,
		&c.ResolutionNote, &c.DetectedAt, &c.ResolvedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan contradiction: %w", err)
	}
	c.Severity = models.ContradictionSeverity(severity)
	return c, nil
}
