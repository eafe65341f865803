// Package database provides a package-shared testcontainer plus a
// per-test, already-migrated schema for pkg/store tests.
package database

import (
	"context"
	"testing"

	"github.com/agora-debate/agora/pkg/database"
	"github.com/agora-debate/agora/test/util"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// NewTestClient creates a *database.Client backed by a fresh, already-
// migrated PostgreSQL schema. Each call gets its own schema, so tests run
// in parallel without interfering with each other; the container itself is
// shared (started once per package) or points at CI_DATABASE_URL.
func NewTestClient(t *testing.T) *database.Client {
	ctx := context.Background()

	connStr := util.SetupTestDatabase(t)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	client := &database.Client{Pool: pool}
	t.Cleanup(client.Close)

	return client
}
