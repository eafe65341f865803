package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryGetOrCreateIsIdempotent(t *testing.T) {
	r := NewRegistry()

	b1 := r.GetOrCreate("conv-1")
	b2 := r.GetOrCreate("conv-1")
	assert.Same(t, b1, b2)

	_, ok := r.Get("conv-1")
	assert.True(t, ok)
}

func TestRegistryGetMissingReturnsFalse(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Get("unknown")
	assert.False(t, ok)
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	r.GetOrCreate("conv-1")

	r.Remove("conv-1")

	_, ok := r.Get("conv-1")
	assert.False(t, ok)
}
