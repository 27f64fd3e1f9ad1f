package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCache_GetSet(t *testing.T) {
	c := New[int](time.Minute)
	defer c.Stop()

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 0.5, stats.HitRate)
	assert.Equal(t, 1, stats.Size)
}

func TestTTLCache_Expiry(t *testing.T) {
	c := New[string](-time.Second)
	defer c.Stop()

	c.Set("k", "v")
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Size())

	c.removeExpired()
	assert.Equal(t, 0, c.Size())
}

func TestTTLCache_StopIsIdempotent(t *testing.T) {
	c := New[int](time.Minute)
	c.Stop()
	c.Stop()
}
