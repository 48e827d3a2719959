package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityPoolGenerations(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	require.False(t, a.IsZero(), "zero ID is reserved")
	require.True(t, p.Alive(a))

	p.Destroy(a)
	assert.False(t, p.Alive(a))

	b := p.Create()
	assert.Equal(t, a.Index(), b.Index(), "index is recycled")
	assert.NotEqual(t, a, b, "generation differs")
	assert.False(t, p.Alive(a), "stale ID stays dead")

	p.Destroy(a) // stale destroy is a no-op
	assert.True(t, p.Alive(b))
	assert.Equal(t, 1, p.Live())
}

func TestWorldDeferredDestroy(t *testing.T) {
	w := NewWorld()
	store := NewPtrComponentStore[int]()
	w.Registry().Register(store)

	id := w.CreateEntity()
	v := 5
	store.Set(id, &v)

	other := w.CreateEntity()

	w.MarkForDestruction(id)
	w.MarkForDestruction(id)
	assert.True(t, store.Has(id), "still readable until flush")
	assert.Equal(t, 2, w.PendingDestruction())

	w.FlushDestroyQueue()
	assert.False(t, store.Has(id))
	assert.False(t, w.Alive(id))
	assert.True(t, w.Alive(other))
	assert.Equal(t, 1, w.pool.Live(), "duplicate marks destroy once")
	assert.Zero(t, w.PendingDestruction())
}
