package events

import "sync"

// Registry owns one Bus per running conversation. The Orchestrator creates
// an entry when a conversation starts and removes it as soon as the debate
// task ends in a terminal state, whether or not subscribers are still
// attached.
type Registry struct {
	mu   sync.Mutex
	byID map[string]*Bus
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Bus)}
}

// GetOrCreate returns the Bus for conversationID, creating one if absent.
func (r *Registry) GetOrCreate(conversationID string) *Bus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.byID[conversationID]; ok {
		return b
	}
	b := NewBus()
	r.byID[conversationID] = b
	return b
}

// Get returns the Bus for conversationID, if one exists.
func (r *Registry) Get(conversationID string) (*Bus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byID[conversationID]
	return b, ok
}

// Remove drops the Bus for conversationID. Safe to call even if no Bus
// exists. Callers must ensure the conversation has reached a terminal state
// before removing its bus, or a resuming client will simply find none.
func (r *Registry) Remove(conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, conversationID)
}
