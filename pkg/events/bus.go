package events

import (
	"sync"
	"time"
)

// ringCapacity is the number of most-recent events retained for reconnect
// resume.
const ringCapacity = 256

// queueCapacity is the bounded depth of the live subscriber queue.
const queueCapacity = 1024

// Bus is the per-debate Event Bus (C6): single-producer (the Orchestrator),
// at-most-one-active-consumer (the SSE Gateway) channel of Envelopes, with a
// ring buffer of the last ringCapacity events to serve reconnects. State is
// copied under lock and all I/O happens outside it, generalized from
// "broadcast to every connection" down to "the single current subscriber
// channel for this conversation, if any".
type Bus struct {
	mu       sync.Mutex
	seq      int
	ring     []Envelope // oldest first, capped at ringCapacity
	ringBase int        // sequence number of ring[0]; -1 if ring is empty
	sub      chan Envelope
}

// NewBus creates an empty Bus for one conversation.
func NewBus() *Bus {
	return &Bus{ringBase: -1}
}

// Publish assigns the next sequence number, appends to the ring buffer, and
// — if a subscriber is attached — sends the event to it. Sending blocks if
// the subscriber's queue is full: events apply backpressure rather than
// drop. With no subscriber attached, Publish never blocks: the event simply
// lands in the ring buffer for a future resume.
func (b *Bus) Publish(kind Kind, payload any) Envelope {
	env := Envelope{Kind: kind, Timestamp: time.Now(), Payload: marshalPayload(payload)}

	b.mu.Lock()
	env.Sequence = b.seq
	b.seq++
	b.appendRingLocked(env)
	ch := b.sub
	b.mu.Unlock()

	if ch != nil {
		ch <- env
	}
	return env
}

func (b *Bus) appendRingLocked(env Envelope) {
	if b.ringBase == -1 {
		b.ringBase = env.Sequence
	}
	b.ring = append(b.ring, env)
	if len(b.ring) > ringCapacity {
		b.ring = b.ring[1:]
		b.ringBase++
	}
}

// Subscribe attaches a new live consumer, replacing any previous one (a
// reconnect supersedes a stale connection — the old channel is simply
// abandoned, so a later reconnect always resumes cleanly). If
// lastEventID >= 0, Subscribe also computes the backlog the caller
// should replay before switching to the live channel:
//
//   - if every event after lastEventID is still in the ring, backlog holds
//     them and resync is false;
//   - if the ring has already evicted some of them, backlog is nil and
//     resync is true — the caller (SSE Gateway) must emit lifecycle.resync
//     before streaming current state forward.
func (b *Bus) Subscribe(lastEventID int) (ch chan Envelope, backlog []Envelope, resync bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch = make(chan Envelope, queueCapacity)
	b.sub = ch

	if lastEventID < 0 {
		return ch, nil, false
	}

	wantFrom := lastEventID + 1
	if b.ringBase == -1 {
		// No events published yet; nothing to replay, nothing evicted.
		return ch, nil, false
	}
	if wantFrom < b.ringBase {
		return ch, nil, true
	}
	offset := wantFrom - b.ringBase
	if offset > len(b.ring) {
		// Requested a sequence beyond anything ever published — treat as
		// fresh subscribe, not an error.
		return ch, nil, false
	}
	backlog = make([]Envelope, len(b.ring)-offset)
	copy(backlog, b.ring[offset:])
	return ch, backlog, false
}

// Unsubscribe detaches ch if it is still the active subscriber. A stale
// Unsubscribe from a superseded connection is a no-op, since the pointer
// comparison only matches the current subscriber.
func (b *Bus) Unsubscribe(ch chan Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sub == ch {
		b.sub = nil
	}
}

// LatestSequence returns the sequence number that would be assigned to the
// next published event, minus one (i.e. the last assigned sequence, or -1
// if nothing has been published).
func (b *Bus) LatestSequence() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq - 1
}
