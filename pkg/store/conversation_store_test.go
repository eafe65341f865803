package store_test

import (
	"context"
	"testing"

	"github.com/agora-debate/agora/pkg/models"
	"github.com/agora-debate/agora/pkg/store"
	testdb "github.com/agora-debate/agora/test/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConversation(id string) *models.Conversation {
	return &models.Conversation{
		ID:                   id,
		Topic:                "is a hot dog a sandwich",
		MaxRounds:            5,
		ContextWindowRounds:  3,
		CostWarningThreshold: 2.5,
		Judge:                models.JudgeConfig{Model: "gpt-4o", Cadence: models.JudgeCadenceFinalRound},
		Participants: []models.Participant{
			{Index: 0, Name: "Pro", Model: "gpt-4o", SystemPrompt: "argue yes", Temperature: 0.7, MaxOutputTokens: 500},
			{Index: 1, Name: "Con", Model: "claude-3-opus", SystemPrompt: "argue no", Temperature: 0.7, MaxOutputTokens: 500},
		},
	}
}

func TestConversationStore_CreateAndGet(t *testing.T) {
	db := testdb.NewTestClient(t)
	s := store.NewConversationStore(db)
	ctx := context.Background()

	c := newConversation("conv-1")
	require.NoError(t, s.Create(ctx, c))

	got, err := s.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "is a hot dog a sandwich", got.Topic)
	assert.Equal(t, models.ConversationStatusCreated, got.Status)
	assert.Equal(t, 100, got.CurrentHealthScore)
	require.Len(t, got.Participants, 2)
	assert.Equal(t, "Pro", got.Participants[0].Name)
	assert.Equal(t, "Con", got.Participants[1].Name)
	assert.Empty(t, got.TokenTotals)
}

func TestConversationStore_CreateDuplicateID(t *testing.T) {
	db := testdb.NewTestClient(t)
	s := store.NewConversationStore(db)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, newConversation("conv-dup")))
	err := s.Create(ctx, newConversation("conv-dup"))
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestConversationStore_CreateValidation(t *testing.T) {
	db := testdb.NewTestClient(t)
	s := store.NewConversationStore(db)
	ctx := context.Background()

	c := newConversation("conv-bad")
	c.Participants = c.Participants[:1]
	err := s.Create(ctx, c)
	assert.True(t, store.IsValidationError(err))
}

func TestConversationStore_GetNotFound(t *testing.T) {
	db := testdb.NewTestClient(t)
	s := store.NewConversationStore(db)

	_, err := s.Get(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConversationStore_UpdateStatus(t *testing.T) {
	db := testdb.NewTestClient(t)
	s := store.NewConversationStore(db)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, newConversation("conv-status")))
	require.NoError(t, s.UpdateStatus(ctx, "conv-status", models.ConversationStatusRunning))

	got, err := s.Get(ctx, "conv-status")
	require.NoError(t, err)
	assert.Equal(t, models.ConversationStatusRunning, got.Status)

	err = s.UpdateStatus(ctx, "missing", models.ConversationStatusRunning)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConversationStore_UpdateProgress(t *testing.T) {
	db := testdb.NewTestClient(t)
	s := store.NewConversationStore(db)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, newConversation("conv-progress")))
	require.NoError(t, s.UpdateProgress(ctx, "conv-progress", 2, 1))

	got, err := s.Get(ctx, "conv-progress")
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentRoundIndex)
	assert.Equal(t, 1, got.CurrentTurnIndex)
}

func TestConversationStore_ApplyTurnCostAccumulates(t *testing.T) {
	db := testdb.NewTestClient(t)
	s := store.NewConversationStore(db)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, newConversation("conv-cost")))
	require.NoError(t, s.ApplyTurnCost(ctx, "conv-cost", "gpt-4o", 100, 50, 0.01))
	require.NoError(t, s.ApplyTurnCost(ctx, "conv-cost", "gpt-4o", 200, 75, 0.02))

	got, err := s.Get(ctx, "conv-cost")
	require.NoError(t, err)
	assert.InDelta(t, 0.03, got.AggregateCostUSD, 0.0001)
	totals, ok := got.TokenTotals["gpt-4o"]
	require.True(t, ok)
	assert.Equal(t, int64(300), totals.InputTokens)
	assert.Equal(t, int64(125), totals.OutputTokens)
}

func TestConversationStore_UpdateCostWarningLevel(t *testing.T) {
	db := testdb.NewTestClient(t)
	s := store.NewConversationStore(db)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, newConversation("conv-warn")))
	require.NoError(t, s.UpdateCostWarningLevel(ctx, "conv-warn", "soft"))

	got, err := s.Get(ctx, "conv-warn")
	require.NoError(t, err)
	assert.Equal(t, "soft", got.LastCostWarningLevel)
}

func TestConversationStore_UpdateHealthScore(t *testing.T) {
	db := testdb.NewTestClient(t)
	s := store.NewConversationStore(db)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, newConversation("conv-health")))
	require.NoError(t, s.UpdateHealthScore(ctx, "conv-health", 62))

	got, err := s.Get(ctx, "conv-health")
	require.NoError(t, err)
	assert.Equal(t, 62, got.CurrentHealthScore)
}
