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

func TestCitationStore_CreateAndList(t *testing.T) {
	db := testdb.NewTestClient(t)
	convStore := store.NewConversationStore(db)
	msgStore := store.NewMessageStore(db)
	citationStore := store.NewCitationStore(db)
	ctx := context.Background()

	require.NoError(t, convStore.Create(ctx, newConversation("conv-cite")))
	msg := newMessage("msg-cite", "conv-cite", 0)
	require.NoError(t, msgStore.Insert(ctx, msg))

	c1 := &models.Citation{ID: "cite-1", ConversationID: "conv-cite", MessageID: msg.ID, Claim: "bread encloses the filling", Source: "merriam-webster.com/dictionary/sandwich", Verified: true}
	c2 := &models.Citation{ID: "cite-2", ConversationID: "conv-cite", MessageID: msg.ID, Claim: "hot dogs are culturally distinct", Source: "some-blog.example", Verified: false}
	require.NoError(t, citationStore.Create(ctx, c1))
	require.NoError(t, citationStore.Create(ctx, c2))

	got, err := citationStore.ListByConversation(ctx, "conv-cite")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "cite-1", got[0].ID)
	assert.True(t, got[0].Verified)
	assert.False(t, got[1].Verified)
}

func TestCitationStore_ListByConversationEmpty(t *testing.T) {
	db := testdb.NewTestClient(t)
	convStore := store.NewConversationStore(db)
	citationStore := store.NewCitationStore(db)
	ctx := context.Background()

	require.NoError(t, convStore.Create(ctx, newConversation("conv-cite-empty")))

	got, err := citationStore.ListByConversation(ctx, "conv-cite-empty")
	require.NoError(t, err)
	assert.Empty(t, got)
}
