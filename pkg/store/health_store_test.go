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

func newHealthSample(id, convID string, score int) *models.HealthSample {
	return &models.HealthSample{
		ID:             id,
		ConversationID: convID,
		OverallScore:   score,
		Components: models.HealthComponents{
			Coherence:     80,
			Contradiction: 90,
			Loop:          100,
			Citation:      100,
		},
		MessageCount:       4,
		ContradictionCount: 0,
		LoopCount:          0,
	}
}

func TestHealthStore_InsertAndListRecentNewestFirst(t *testing.T) {
	db := testdb.NewTestClient(t)
	convStore := store.NewConversationStore(db)
	healthStore := store.NewHealthStore(db)
	ctx := context.Background()

	require.NoError(t, convStore.Create(ctx, newConversation("conv-health-history")))
	require.NoError(t, healthStore.Insert(ctx, newHealthSample("health-1", "conv-health-history", 90)))
	require.NoError(t, healthStore.Insert(ctx, newHealthSample("health-2", "conv-health-history", 70)))
	require.NoError(t, healthStore.Insert(ctx, newHealthSample("health-3", "conv-health-history", 40)))

	samples, err := healthStore.ListRecent(ctx, "conv-health-history", 0)
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.Equal(t, "health-3", samples[0].ID, "newest first")
	assert.Equal(t, models.HealthPoor, samples[0].Status())
	assert.Equal(t, models.HealthExcellent, samples[2].Status())
}

func TestHealthStore_ListRecentRespectsLimit(t *testing.T) {
	db := testdb.NewTestClient(t)
	convStore := store.NewConversationStore(db)
	healthStore := store.NewHealthStore(db)
	ctx := context.Background()

	require.NoError(t, convStore.Create(ctx, newConversation("conv-health-limit")))
	for i := 0; i < 5; i++ {
		require.NoError(t, healthStore.Insert(ctx, newHealthSample(idForHealth(i), "conv-health-limit", 80)))
	}

	samples, err := healthStore.ListRecent(ctx, "conv-health-limit", 2)
	require.NoError(t, err)
	assert.Len(t, samples, 2)
}

func idForHealth(i int) string {
	return "health-limit-" + string(rune('a'+i))
}
