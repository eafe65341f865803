package store

import (
	"context"
	"fmt"
	"time"

	"github.com/agora-debate/agora/pkg/database"
	"github.com/agora-debate/agora/pkg/models"
	"github.com/jackc/pgx/v5"
)

// ConversationStore manages Conversation and its owned Participant rows.
type ConversationStore struct {
	db *database.Client
}

// NewConversationStore creates a new ConversationStore.
func NewConversationStore(db *database.Client) *ConversationStore {
	return &ConversationStore{db: db}
}

// Create validates and persists a new Conversation together with its
// Participants, in one transaction.
func (s *ConversationStore) Create(ctx context.Context, c *models.Conversation) error {
	if c.ID == "" {
		return NewValidationError("id", "required")
	}
	if c.Topic == "" {
		return NewValidationError("topic", "required")
	}
	if len(c.Participants) < 2 || len(c.Participants) > 4 {
		return NewValidationError("participants", "must have between 2 and 4 participants")
	}
	if c.MaxRounds < 1 {
		return NewValidationError("max_rounds", "must be at least 1")
	}
	if c.CostWarningThreshold <= 0 {
		return NewValidationError("cost_warning_threshold", "must be positive")
	}

	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = models.ConversationStatusCreated
	}
	if c.CurrentHealthScore == 0 {
		c.CurrentHealthScore = 100
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO conversations
			(id, topic, max_rounds, context_window_rounds, cost_warning_threshold,
			 judge_model, judge_cadence, status, current_round_index, current_turn_index,
			 aggregate_cost_usd, current_health_score, last_cost_warning_level,
			 created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		c.ID, c.Topic, c.MaxRounds, c.ContextWindowRounds, c.CostWarningThreshold,
		c.Judge.Model, string(c.Judge.Cadence), string(c.Status), c.CurrentRoundIndex, c.CurrentTurnIndex,
		c.AggregateCostUSD, c.CurrentHealthScore, c.LastCostWarningLevel,
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	for i, p := range c.Participants {
		if p.Name == "" {
			return NewValidationError("participants", "name is required")
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO participants
				(conversation_id, index, name, model, system_prompt, temperature, max_output_tokens)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			c.ID, i, p.Name, p.Model, p.SystemPrompt, p.Temperature, p.MaxOutputTokens)
		if err != nil {
			return fmt.Errorf("failed to create participant %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}

// Get loads a Conversation with its Participants and TokenTotals.
func (s *ConversationStore) Get(ctx context.Context, id string) (*models.Conversation, error) {
	row := s.db.Pool.QueryRow(ctx,
		`SELECT id, topic, max_rounds, context_window_rounds, cost_warning_threshold,
			judge_model, judge_cadence, status, current_round_index, current_turn_index,
			aggregate_cost_usd, current_health_score, last_cost_warning_level,
			created_at, updated_at
		FROM conversations WHERE id = $1`, id)

	c := &models.Conversation{}
	var judgeCadence, status string
	if err := row.Scan(&c.ID, &c.Topic, &c.MaxRounds, &c.ContextWindowRounds, &c.CostWarningThreshold,
		&c.Judge.Model, &judgeCadence, &status, &c.CurrentRoundIndex, &c.CurrentTurnIndex,
		&c.AggregateCostUSD, &c.CurrentHealthScore, &c.LastCostWarningLevel,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	c.Judge.Cadence = models.JudgeCadence(judgeCadence)
	c.Status = models.ConversationStatus(status)

	participants, err := s.listParticipants(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Participants = participants

	totals, err := s.listTokenTotals(ctx, id)
	if err != nil {
		return nil, err
	}
	c.TokenTotals = totals

	return c, nil
}

func (s *ConversationStore) listParticipants(ctx context.Context, conversationID string) ([]models.Participant, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT index, name, model, system_prompt, temperature, max_output_tokens
		FROM participants WHERE conversation_id = $1 ORDER BY index`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var out []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.Index, &p.Name, &p.Model, &p.SystemPrompt, &p.Temperature, &p.MaxOutputTokens); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *ConversationStore) listTokenTotals(ctx context.Context, conversationID string) (map[string]models.TokenTotals, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT model, input_tokens, output_tokens FROM token_totals WHERE conversation_id = $1`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list token totals: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.TokenTotals)
	for rows.Next() {
		var model string
		var t models.TokenTotals
		if err := rows.Scan(&model, &t.InputTokens, &t.OutputTokens); err != nil {
			return nil, fmt.Errorf("failed to scan token totals: %w", err)
		}
		out[model] = t
	}
	return out, rows.Err()
}

// UpdateStatus transitions the conversation's externally-visible status.
func (s *ConversationStore) UpdateStatus(ctx context.Context, id string, status models.ConversationStatus) error {
	tag, err := s.db.Pool.Exec(ctx,
		`UPDATE conversations SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProgress advances the round/turn cursor after a turn completes.
func (s *ConversationStore) UpdateProgress(ctx context.Context, id string, roundIndex, turnIndex int) error {
	_, err := s.db.Pool.Exec(ctx,
		`UPDATE conversations SET current_round_index = $2, current_turn_index = $3, updated_at = now()
		WHERE id = $1`, id, roundIndex, turnIndex)
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}

// ApplyTurnCost accumulates a turn's token/cost usage into the conversation
// aggregate and its per-model breakdown.
func (s *ConversationStore) ApplyTurnCost(ctx context.Context, id, model string, inputTokens, outputTokens int64, costUSD float64) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE conversations SET aggregate_cost_usd = aggregate_cost_usd + $2, updated_at = now()
		WHERE id = $1`, id, costUSD)
	if err != nil {
		return fmt.Errorf("failed to update aggregate cost: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO token_totals (conversation_id, model, input_tokens, output_tokens)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (conversation_id, model) DO UPDATE SET
			input_tokens = token_totals.input_tokens + EXCLUDED.input_tokens,
			output_tokens = token_totals.output_tokens + EXCLUDED.output_tokens`,
		id, model, inputTokens, outputTokens)
	if err != nil {
		return fmt.Errorf("failed to update token totals: %w", err)
	}

	return tx.Commit(ctx)
}

// UpdateCostWarningLevel records the last cost.warning level published, so
// the Orchestrator only republishes on a level transition.
func (s *ConversationStore) UpdateCostWarningLevel(ctx context.Context, id, level string) error {
	_, err := s.db.Pool.Exec(ctx,
		`UPDATE conversations SET last_cost_warning_level = $2, updated_at = now() WHERE id = $1`, id, level)
	if err != nil {
		return fmt.Errorf("failed to update cost warning level: %w", err)
	}
	return nil
}

// UpdateHealthScore records the most recent composite health score.
func (s *ConversationStore) UpdateHealthScore(ctx context.Context, id string, score int) error {
	_, err := s.db.Pool.Exec(ctx,
		`UPDATE conversations SET current_health_score = $2, updated_at = now() WHERE id = $1`, id, score)
	if err != nil {
		return fmt.Errorf("failed to update health score: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return pgErrCode(err) == "23505"
}
