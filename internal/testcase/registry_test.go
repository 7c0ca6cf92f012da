package testcase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }
	newSession := func(id string) *Session {
		return NewSession(id, FormContext{Table: ordersTable()}, SessionOptions{Catalog: newFakeCatalog(), Now: now})
	}

	r := NewRegistry()
	a, b, c := newSession("a"), newSession("b"), newSession("c")
	r.Add(a)
	r.Add(b)
	r.Add(c)
	assert.Equal(t, 3, r.Len())

	got, err := r.Get("a")
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.True(t, r.Remove("b"))
	assert.False(t, r.Remove("b"))
	assert.True(t, b.Closed())

	// c is closed by its owner; a stays idle past the limit.
	c.Close()
	assert.Equal(t, 1, r.Sweep(clock.Add(time.Minute), time.Hour))
	assert.Equal(t, 1, r.Len())

	assert.Equal(t, 1, r.Sweep(clock.Add(2*time.Hour), time.Hour))
	assert.Equal(t, 0, r.Len())
	assert.True(t, a.Closed())
}

func TestRegistryAddReplacesSameID(t *testing.T) {
	r := NewRegistry()
	first := NewSession("x", FormContext{Table: ordersTable()}, SessionOptions{Catalog: newFakeCatalog()})
	second := NewSession("x", FormContext{Table: ordersTable()}, SessionOptions{Catalog: newFakeCatalog()})

	r.Add(first)
	r.Add(second)
	assert.Equal(t, 1, r.Len())
	assert.True(t, first.Closed())
	assert.False(t, second.Closed())
}
