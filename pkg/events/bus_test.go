package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishAssignsMonotonicSequence(t *testing.T) {
	b := NewBus()

	e0 := b.Publish(KindTurnStarted, TurnStartedPayload{Round: 0})
	e1 := b.Publish(KindTurnToken, TurnTokenDeltaPayload{Delta: "hi"})

	assert.Equal(t, 0, e0.Sequence)
	assert.Equal(t, 1, e1.Sequence)
	assert.Equal(t, 1, b.LatestSequence())
}

func TestBusPublishWithNoSubscriberNeverBlocks(t *testing.T) {
	b := NewBus()
	for i := 0; i < queueCapacity+10; i++ {
		b.Publish(KindRoundCompleted, RoundCompletedPayload{Round: i})
	}
	assert.Equal(t, queueCapacity+9, b.LatestSequence())
}

func TestBusPublishDeliversToActiveSubscriber(t *testing.T) {
	b := NewBus()
	ch, backlog, resync := b.Subscribe(-1)
	require.Empty(t, backlog)
	require.False(t, resync)

	env := b.Publish(KindTurnCompleted, TurnCompletedPayload{MessageID: "m1"})

	got := <-ch
	assert.Equal(t, env.Sequence, got.Sequence)
	assert.Equal(t, KindTurnCompleted, got.Kind)
}

func TestBusSubscribeReplaysBacklogWithinRing(t *testing.T) {
	b := NewBus()
	for i := 0; i < 5; i++ {
		b.Publish(KindRoundCompleted, RoundCompletedPayload{Round: i})
	}

	_, backlog, resync := b.Subscribe(2)
	require.False(t, resync)
	require.Len(t, backlog, 2)
	assert.Equal(t, 3, backlog[0].Sequence)
	assert.Equal(t, 4, backlog[1].Sequence)
}

func TestBusSubscribeSignalsResyncWhenRingEvicted(t *testing.T) {
	b := NewBus()
	for i := 0; i < ringCapacity+10; i++ {
		b.Publish(KindRoundCompleted, RoundCompletedPayload{Round: i})
	}

	_, backlog, resync := b.Subscribe(0)
	assert.True(t, resync)
	assert.Nil(t, backlog)
}

func TestBusSubscribeAtLatestYieldsNoBacklog(t *testing.T) {
	b := NewBus()
	b.Publish(KindRoundCompleted, RoundCompletedPayload{Round: 0})
	b.Publish(KindRoundCompleted, RoundCompletedPayload{Round: 1})

	_, backlog, resync := b.Subscribe(1)
	assert.False(t, resync)
	assert.Empty(t, backlog)
}

func TestBusReconnectSupersedesPreviousSubscriber(t *testing.T) {
	b := NewBus()
	oldCh, _, _ := b.Subscribe(-1)
	newCh, _, _ := b.Subscribe(-1)

	b.Publish(KindRoundCompleted, RoundCompletedPayload{Round: 0})

	select {
	case <-oldCh:
		t.Fatal("superseded subscriber should not receive new events")
	default:
	}
	assert.Equal(t, 0, (<-newCh).Sequence)
}

func TestBusUnsubscribeIgnoresStaleChannel(t *testing.T) {
	b := NewBus()
	oldCh, _, _ := b.Subscribe(-1)
	newCh, _, _ := b.Subscribe(-1)

	b.Unsubscribe(oldCh) // stale; must not detach newCh

	b.Publish(KindRoundCompleted, RoundCompletedPayload{Round: 0})
	assert.Equal(t, 0, (<-newCh).Sequence)
}
