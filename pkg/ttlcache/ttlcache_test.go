package ttlcache_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advisorly/experimentkit/pkg/ttlcache"
)

func TestCache_GetPut(t *testing.T) {
	t.Parallel()

	c := ttlcache.New[string, int](10, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Put("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	c.Put("a", 2)
	v, ok = c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Len())
}

func TestCache_LRUEviction(t *testing.T) {
	t.Parallel()

	c := ttlcache.New[string, int](2, 0)

	c.Put("a", 1)
	c.Put("b", 2)

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("c", 3)

	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestCache_TTLExpiry(t *testing.T) {
	t.Parallel()

	c := ttlcache.New[string, int](10, 5*time.Minute)

	base := time.Now()
	current := base
	c.SetNowFunc(func() time.Time { return current })

	c.Put("a", 1)

	current = base.Add(4 * time.Minute)
	_, ok := c.Get("a")
	assert.True(t, ok, "entry within TTL must be served")

	current = base.Add(6 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok, "entry past TTL must be treated as absent")
	assert.Equal(t, 0, c.Len(), "expired entry must be evicted on access")
}

func TestCache_ExpiryBoundary(t *testing.T) {
	t.Parallel()

	c := ttlcache.New[string, int](10, 5*time.Minute)

	base := time.Now()
	current := base
	c.SetNowFunc(func() time.Time { return current })

	c.Put("a", 1)

	current = base.Add(5 * time.Minute)
	_, ok := c.Get("a")
	assert.False(t, ok, "entry at exactly TTL must already be absent")
}

func TestCache_PutResetsTTL(t *testing.T) {
	t.Parallel()

	c := ttlcache.New[string, int](10, 5*time.Minute)

	base := time.Now()
	current := base
	c.SetNowFunc(func() time.Time { return current })

	c.Put("a", 1)
	current = base.Add(4 * time.Minute)
	c.Put("a", 2)

	current = base.Add(8 * time.Minute)
	v, ok := c.Get("a")
	require.True(t, ok, "rewrite must reset the entry TTL")
	assert.Equal(t, 2, v)
}

func TestCache_DeleteFunc(t *testing.T) {
	t.Parallel()

	c := ttlcache.New[string, string](100, time.Minute)

	for i := range 5 {
		c.Put(fmt.Sprintf("checkout-v2:user-%d", i), "on")
		c.Put(fmt.Sprintf("new-dashboard:user-%d", i), "off")
	}

	removed := c.DeleteFunc(func(key string) bool {
		return strings.HasPrefix(key, "checkout-v2:")
	})

	assert.Equal(t, 5, removed)
	assert.Equal(t, 5, c.Len())
	_, ok := c.Get("checkout-v2:user-0")
	assert.False(t, ok)
	_, ok = c.Get("new-dashboard:user-0")
	assert.True(t, ok)
}

func TestCache_Clear(t *testing.T) {
	t.Parallel()

	c := ttlcache.New[string, int](10, time.Minute)
	c.Put("a", 1)
	c.Put("b", 2)

	c.Clear()
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestNew_PanicsOnInvalidArgs(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { ttlcache.New[string, int](0, time.Minute) })
	assert.Panics(t, func() { ttlcache.New[string, int](10, -time.Second) })
}
