package store_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/agora-debate/agora/pkg/events"
	"github.com/agora-debate/agora/pkg/store"
	testdb "github.com/agora-debate/agora/test/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventStore_AppendAndListAfter(t *testing.T) {
	db := testdb.NewTestClient(t)
	convStore := store.NewConversationStore(db)
	eventStore := store.NewEventStore(db)
	ctx := context.Background()

	require.NoError(t, convStore.Create(ctx, newConversation("conv-events")))

	env0 := events.Envelope{Sequence: 0, Kind: events.KindLifecycleReady, Timestamp: time.Now(), Payload: json.RawMessage(`{}`)}
	env1 := events.Envelope{Sequence: 1, Kind: events.KindTurnStarted, Timestamp: time.Now(), Payload: json.RawMessage(`{"participant_index":0}`)}
	env2 := events.Envelope{Sequence: 2, Kind: events.KindTurnCompleted, Timestamp: time.Now(), Payload: json.RawMessage(`{"participant_index":0}`)}

	require.NoError(t, eventStore.Append(ctx, "conv-events", env0))
	require.NoError(t, eventStore.Append(ctx, "conv-events", env1))
	require.NoError(t, eventStore.Append(ctx, "conv-events", env2))

	all, err := eventStore.ListAfter(ctx, "conv-events", -1)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, events.KindLifecycleReady, all[0].Kind)
	assert.Equal(t, events.KindTurnCompleted, all[2].Kind)

	after, err := eventStore.ListAfter(ctx, "conv-events", 0)
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, 1, after[0].Sequence)
	assert.Equal(t, 2, after[1].Sequence)
}

func TestEventStore_AppendIsConflictFree(t *testing.T) {
	db := testdb.NewTestClient(t)
	convStore := store.NewConversationStore(db)
	eventStore := store.NewEventStore(db)
	ctx := context.Background()

	require.NoError(t, convStore.Create(ctx, newConversation("conv-events-dup")))

	env := events.Envelope{Sequence: 0, Kind: events.KindLifecycleReady, Timestamp: time.Now(), Payload: json.RawMessage(`{}`)}
	require.NoError(t, eventStore.Append(ctx, "conv-events-dup", env))
	require.NoError(t, eventStore.Append(ctx, "conv-events-dup", env))

	all, err := eventStore.ListAfter(ctx, "conv-events-dup", -1)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestEventStore_ListAfterEmptyConversation(t *testing.T) {
	db := testdb.NewTestClient(t)
	convStore := store.NewConversationStore(db)
	eventStore := store.NewEventStore(db)
	ctx := context.Background()

	require.NoError(t, convStore.Create(ctx, newConversation("conv-events-empty")))

	all, err := eventStore.ListAfter(ctx, "conv-events-empty", -1)
	require.NoError(t, err)
	assert.Empty(t, all)
}
