package store

import (
	"context"
	"fmt"
	"time"

	"github.com/agora-debate/agora/pkg/database"
	"github.com/agora-debate/agora/pkg/models"
	"github.com/jackc/pgx/v5"
)

// MessageStore manages Message rows. Insertion is serialized per
// conversation with a transaction-scoped advisory lock so the dense,
// monotonic sequence_number invariant holds even if two turn
// completions for the same conversation ever race (e.g. a retried
// finalization after a transient persistence error).
type MessageStore struct {
	db *database.Client
}

// NewMessageStore creates a new MessageStore.
func NewMessageStore(db *database.Client) *MessageStore {
	return &MessageStore{db: db}
}

// Insert assigns the next dense sequence number for msg.ConversationID and
// persists msg. msg.SequenceNumber is overwritten with the assigned value.
func (s *MessageStore) Insert(ctx context.Context, msg *models.Message) error {
	if msg.ConversationID == "" {
		return NewValidationError("conversation_id", "required")
	}
	if msg.ID == "" {
		return NewValidationError("id", "required")
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, msg.ConversationID); err != nil {
		return fmt.Errorf("failed to acquire conversation lock: %w", err)
	}

	var nextSeq int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence_number) + 1, 0) FROM messages WHERE conversation_id = $1`,
		msg.ConversationID).Scan(&nextSeq)
	if err != nil {
		return fmt.Errorf("failed to compute next sequence number: %w", err)
	}
	msg.SequenceNumber = nextSeq
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO messages
			(id, conversation_id, participant_index, participant_name, model, role, content,
			 sequence_number, round_number, turn_index, input_tokens, output_tokens,
			 response_time_ms, cost_usd, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		msg.ID, msg.ConversationID, msg.ParticipantIndex, msg.ParticipantName, msg.Model, string(msg.Role), msg.Content,
		msg.SequenceNumber, msg.RoundNumber, msg.TurnIndex, msg.InputTokens, msg.OutputTokens,
		msg.ResponseTimeMS, msg.CostUSD, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	return tx.Commit(ctx)
}

// Get loads a single Message by ID.
func (s *MessageStore) Get(ctx context.Context, id string) (*models.Message, error) {
	row := s.db.Pool.QueryRow(ctx,
		`SELECT id, conversation_id, participant_index, participant_name, model, role, content,
			sequence_number, round_number, turn_index, input_tokens, output_tokens,
			response_time_ms, cost_usd, created_at
		FROM messages WHERE id = $1`, id)
	return scanMessage(row)
}

// ListByConversation returns every Message for a conversation, ordered by
// sequence_number ascending — the authoritative transcript order.
func (s *MessageStore) ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT id, conversation_id, participant_index, participant_name, model, role, content,
			sequence_number, round_number, turn_index, input_tokens, output_tokens,
			response_time_ms, cost_usd, created_at
		FROM messages WHERE conversation_id = $1 ORDER BY sequence_number ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*models.Message, error) {
	m := &models.Message{}
	var role string
	if err := row.Scan(&m.ID, &m.ConversationID, &m.ParticipantIndex, &m.ParticipantName, &m.Model, &role, &m.Content,
		&m.SequenceNumber, &m.RoundNumber, &m.TurnIndex, &m.InputTokens, &m.OutputTokens,
		&m.ResponseTimeMS, &m.CostUSD, &m.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}
	m.Role = models.MessageRole(role)
	return m, nil
}
