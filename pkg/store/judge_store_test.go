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

func TestJudgeStore_CreateAndListWithScores(t *testing.T) {
	db := testdb.NewTestClient(t)
	convStore := store.NewConversationStore(db)
	judgeStore := store.NewJudgeStore(db)
	ctx := context.Background()

	require.NoError(t, convStore.Create(ctx, newConversation("conv-judge")))

	j := &models.JudgeAssessment{
		ID:                "judge-1",
		ConversationID:    "conv-judge",
		RoundNumber:       0,
		WinnerParticipant: 1,
		Reasoning:         "Con's etymology argument was more rigorously sourced",
		ParticipantScores: []models.ParticipantScore{
			{ParticipantIndex: 0, Score: 6.5, Notes: "strong opening, weak rebuttal"},
			{ParticipantIndex: 1, Score: 8.0, Notes: "consistent and well-cited"},
		},
	}
	require.NoError(t, judgeStore.Create(ctx, j))

	got, err := judgeStore.ListByConversation(ctx, "conv-judge")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].WinnerParticipant)
	require.Len(t, got[0].ParticipantScores, 2)
	assert.Equal(t, 6.5, got[0].ParticipantScores[0].Score)
	assert.Equal(t, 8.0, got[0].ParticipantScores[1].Score)
}

func TestJudgeStore_ListByConversationOrderedByRound(t *testing.T) {
	db := testdb.NewTestClient(t)
	convStore := store.NewConversationStore(db)
	judgeStore := store.NewJudgeStore(db)
	ctx := context.Background()

	require.NoError(t, convStore.Create(ctx, newConversation("conv-judge-rounds")))
	require.NoError(t, judgeStore.Create(ctx, &models.JudgeAssessment{ID: "judge-r1", ConversationID: "conv-judge-rounds", RoundNumber: 1, WinnerParticipant: 0, Reasoning: "round 1"}))
	require.NoError(t, judgeStore.Create(ctx, &models.JudgeAssessment{ID: "judge-r0", ConversationID: "conv-judge-rounds", RoundNumber: 0, WinnerParticipant: 1, Reasoning: "round 0"}))

	got, err := judgeStore.ListByConversation(ctx, "conv-judge-rounds")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].RoundNumber)
	assert.Equal(t, 1, got[1].RoundNumber)
}
