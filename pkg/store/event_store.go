package store

import (
	"context"
	"fmt"

	"github.com/agora-debate/agora/pkg/database"
	"github.com/agora-debate/agora/pkg/events"
)

// EventStore durably logs every Envelope published on a conversation's
// events.Bus. It exists purely to widen reconnect resume beyond the in-
// process ring buffer's 256-event horizon — a client reconnecting after the
// process itself restarted finds its backlog here instead of only getting a
// lifecycle.resync. It is not consulted on the hot path: the Bus's ring
// buffer serves ordinary reconnects (see pkg/events.Bus).
type EventStore struct {
	db *database.Client
}

// NewEventStore creates a new EventStore.
func NewEventStore(db *database.Client) *EventStore {
	return &EventStore{db: db}
}

// Append records one event. Call this alongside events.Bus.Publish, never
// instead of it — the bus is still the synchronous fan-out path.
func (s *EventStore) Append(ctx context.Context, conversationID string, env events.Envelope) error {
	_, err := s.db.Pool.Exec(ctx,
		`INSERT INTO conversation_events (conversation_id, sequence, kind, occurred_at, payload)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (conversation_id, sequence) DO NOTHING`,
		conversationID, env.Sequence, string(env.Kind), env.Timestamp, env.Payload)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// ListAfter returns every event for a conversation with sequence greater
// than afterSequence, ordered ascending — the durable fallback for a
// lifecycle.resync that can't be served from the in-memory ring buffer.
func (s *EventStore) ListAfter(ctx context.Context, conversationID string, afterSequence int) ([]events.Envelope, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT sequence, kind, occurred_at, payload FROM conversation_events
		WHERE conversation_id = $1 AND sequence > $2 ORDER BY sequence ASC`,
		conversationID, afterSequence)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var out []events.Envelope
	for rows.Next() {
		var env events.Envelope
		var kind string
		if err := rows.Scan(&env.Sequence, &kind, &env.Timestamp, &env.Payload); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		env.Kind = events.Kind(kind)
		out = append(out, env)
	}
	return out, rows.Err()
}
