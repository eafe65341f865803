package store

import (
	"context"
	"fmt"
	"time"

	"github.com/agora-debate/agora/pkg/database"
	"github.com/agora-debate/agora/pkg/models"
)

// JudgeStore manages the supplemented JudgeAssessment entity and its child
// ParticipantScore rows (see pkg/models.JudgeAssessment).
type JudgeStore struct {
	db *database.Client
}

// NewJudgeStore creates a new JudgeStore.
func NewJudgeStore(db *database.Client) *JudgeStore {
	return &JudgeStore{db: db}
}

// Create persists a judge assessment together with its per-participant
// scores in one transaction.
func (s *JudgeStore) Create(ctx context.Context, j *models.JudgeAssessment) error {
	if j.ID == "" {
		return NewValidationError("id", "required")
	}

	j.CreatedAt = time.Now()
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO judge_assessments (id, conversation_id, round_number, winner_participant, reasoning, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		j.ID, j.ConversationID, j.RoundNumber, j.WinnerParticipant, j.Reasoning, j.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create judge assessment: %w", err)
	}

	for _, ps := range j.ParticipantScores {
		_, err = tx.Exec(ctx,
			`INSERT INTO judge_participant_scores (judge_assessment_id, participant_index, score, notes)
			VALUES ($1,$2,$3,$4)`,
			j.ID, ps.ParticipantIndex, ps.Score, ps.Notes)
		if err != nil {
			return fmt.Errorf("failed to create participant score: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ListByConversation returns every judge assessment for a conversation,
// ordered by round, each with its participant scores populated.
func (s *JudgeStore) ListByConversation(ctx context.Context, conversationID string) ([]models.JudgeAssessment, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT id, conversation_id, round_number, winner_participant, reasoning, created_at
		FROM judge_assessments WHERE conversation_id = $1 ORDER BY round_number ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list judge assessments: %w", err)
	}

	var out []models.JudgeAssessment
	for rows.Next() {
		j := models.JudgeAssessment{}
		if err := rows.Scan(&j.ID, &j.ConversationID, &j.RoundNumber, &j.WinnerParticipant, &j.Reasoning, &j.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan judge assessment: %w", err)
		}
		out = append(out, j)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		scores, err := s.listParticipantScores(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].ParticipantScores = scores
	}
	return out, nil
}

func (s *JudgeStore) listParticipantScores(ctx context.Context, judgeAssessmentID string) ([]models.ParticipantScore, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT participant_index, score, notes FROM judge_participant_scores
		WHERE judge_assessment_id = $1 ORDER BY participant_index ASC`, judgeAssessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participant scores: %w", err)
	}
	defer rows.Close()

	var out []models.ParticipantScore
	for rows.Next() {
		var ps models.ParticipantScore
		if err := rows.Scan(&ps.ParticipantIndex, &ps.Score, &ps.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan participant score: %w", err)
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}
