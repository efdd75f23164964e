package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[string, int](2, 0)
	c.Set("a", 1)
	c.Set("b", 2)

	_, ok := c.Get("a")
	assert.True(t, ok)

	c.Set("c", 3)
	assert.Equal(t, 2, c.Len())

	_, ok = c.Get("b")
	assert.False(t, ok, "b was least recently used")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestLRUTTL(t *testing.T) {
	now := time.Unix(0, 0)
	c := NewLRUCache[string, string](4, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	_, ok := c.Get("k")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestLRUUpdateDeleteClear(t *testing.T) {
	c := NewLRUCache[int, string](0, 0)
	c.Set(1, "x")
	c.Set(1, "y")
	v, _ := c.Get(1)
	assert.Equal(t, "y", v)

	c.Set(2, "z")
	assert.Equal(t, 1, c.Len(), "capacity is clamped to one")

	c.Delete(2)
	assert.Equal(t, 0, c.Len())

	c.Set(3, "w")
	c.Clear()
	assert.Equal(t, 0, c.Len())
}
