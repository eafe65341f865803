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

func seedTwoMessages(t *testing.T, ctx context.Context, convStore *store.ConversationStore, msgStore *store.MessageStore, convID string) (*models.Message, *models.Message) {
	t.Helper()
	require.NoError(t, convStore.Create(ctx, newConversation(convID)))
	a := newMessage(convID+"-a", convID, 0)
	require.NoError(t, msgStore.Insert(ctx, a))
	b := newMessage(convID+"-b", convID, 1)
	require.NoError(t, msgStore.Insert(ctx, b))
	return a, b
}

func newContradiction(id, convID, aID, bID string) *models.Contradiction {
	return &models.Contradiction{
		ID:              id,
		ConversationID:  convID,
		MessageAID:      aID,
		MessageBID:      bID,
		Severity:        models.SeverityHigh,
		Confidence:      0.82,
		SimilarityScore: 0.91,
		TextASnapshot:   "a hot dog is a sandwich",
		TextBSnapshot:   "a hot dog is not a sandwich",
		Explanation:     "direct negation of the prior claim",
	}
}

func TestContradictionStore_CreateIsConflictFree(t *testing.T) {
	db := testdb.NewTestClient(t)
	convStore := store.NewConversationStore(db)
	msgStore := store.NewMessageStore(db)
	cStore := store.NewContradictionStore(db)
	ctx := context.Background()

	a, b := seedTwoMessages(t, ctx, convStore, msgStore, "conv-contra")

	inserted, err := cStore.Create(ctx, newContradiction("contra-1", "conv-contra", a.ID, b.ID))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = cStore.Create(ctx, newContradiction("contra-1-retry", "conv-contra", a.ID, b.ID))
	require.NoError(t, err)
	assert.False(t, inserted, "re-detecting the same pair must be a silent no-op")

	_, total, err := cStore.List(ctx, "conv-contra", store.ContradictionFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestContradictionStore_CreateRejectsSelfPair(t *testing.T) {
	db := testdb.NewTestClient(t)
	convStore := store.NewConversationStore(db)
	msgStore := store.NewMessageStore(db)
	cStore := store.NewContradictionStore(db)
	ctx := context.Background()

	a, _ := seedTwoMessages(t, ctx, convStore, msgStore, "conv-self")

	_, err := cStore.Create(ctx, newContradiction("contra-self", "conv-self", a.ID, a.ID))
	assert.True(t, store.IsValidationError(err))
}

func TestContradictionStore_ListFiltersAndPaginates(t *testing.T) {
	db := testdb.NewTestClient(t)
	convStore := store.NewConversationStore(db)
	msgStore := store.NewMessageStore(db)
	cStore := store.NewContradictionStore(db)
	ctx := context.Background()

	a, b := seedTwoMessages(t, ctx, convStore, msgStore, "conv-filter")
	c1 := newContradiction("contra-f1", "conv-filter", a.ID, b.ID)
	c1.Severity = models.SeverityLow
	_, err := cStore.Create(ctx, c1)
	require.NoError(t, err)

	c := newMessage("conv-filter-c", "conv-filter", 0)
	require.NoError(t, msgStore.Insert(ctx, c))
	c2 := newContradiction("contra-f2", "conv-filter", b.ID, c.ID)
	c2.Severity = models.SeverityCritical
	_, err = cStore.Create(ctx, c2)
	require.NoError(t, err)

	results, total, err := cStore.List(ctx, "conv-filter", store.ContradictionFilter{Severity: models.SeverityCritical})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, results, 1)
	assert.Equal(t, "contra-f2", results[0].ID)

	results, total, err = cStore.List(ctx, "conv-filter", store.ContradictionFilter{Limit: 1, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, results, 1)
}

func TestContradictionStore_ResolveIsIdempotent(t *testing.T) {
	db := testdb.NewTestClient(t)
	convStore := store.NewConversationStore(db)
	msgStore := store.NewMessageStore(db)
	cStore := store.NewContradictionStore(db)
	ctx := context.Background()

	a, b := seedTwoMessages(t, ctx, convStore, msgStore, "conv-resolve")
	_, err := cStore.Create(ctx, newContradiction("contra-resolve", "conv-resolve", a.ID, b.ID))
	require.NoError(t, err)

	require.NoError(t, cStore.Resolve(ctx, "contra-resolve", "clarified by participant"))

	results, _, err := cStore.List(ctx, "conv-resolve", store.ContradictionFilter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].ResolvedAt)
	firstResolvedAt := *results[0].ResolvedAt

	require.NoError(t, cStore.Resolve(ctx, "contra-resolve", "clarified again"))
	results, _, err = cStore.List(ctx, "conv-resolve", store.ContradictionFilter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "clarified again", results[0].ResolutionNote)
	assert.True(t, firstResolvedAt.Equal(*results[0].ResolvedAt), "resolved_at must not change on re-resolve")

	err = cStore.Resolve(ctx, "missing", "note")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestContradictionStore_Acknowledge(t *testing.T) {
	db := testdb.NewTestClient(t)
	convStore := store.NewConversationStore(db)
	msgStore := store.NewMessageStore(db)
	cStore := store.NewContradictionStore(db)
	ctx := context.Background()

	a, b := seedTwoMessages(t, ctx, convStore, msgStore, "conv-ack")
	_, err := cStore.Create(ctx, newContradiction("contra-ack", "conv-ack", a.ID, b.ID))
	require.NoError(t, err)

	require.NoError(t, cStore.Acknowledge(ctx, "contra-ack"))
	results, _, err := cStore.List(ctx, "conv-ack", store.ContradictionFilter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Acknowledged)
	assert.False(t, results[0].Resolved)
}
