package database

import (
	"context"
	stdsql "database/sql"
	"fmt"
)

// CreateGINIndexes creates full-text search GIN indexes not expressed in the
// plain-SQL migrations, mirroring how the schema's generated-DDL path would
// otherwise miss full-text-specific index types.
func CreateGINIndexes(ctx context.Context, db *stdsql.DB) error {
	_, err := db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_messages_content_gin
		ON messages USING gin(to_tsvector('english', content))`)
	if err != nil {
		return fmt.Errorf("failed to create messages content GIN index: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_conversations_topic_gin
		ON conversations USING gin(to_tsvector('english', topic))`)
	if err != nil {
		return fmt.Errorf("failed to create conversations topic GIN index: %w", err)
	}

	return nil
}
