package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestCache() (*MemoryCache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewMemoryCache()
	c.now = clock.now
	return c, clock
}

func TestMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache()

	type profile struct {
		Name string `json:"name"`
	}
	require.NoError(t, c.Set(ctx, "user:1", profile{Name: "Ada"}, time.Minute))

	var got profile
	found, err := c.Get(ctx, "user:1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Ada", got.Name)

	found, err = c.Get(ctx, "user:2", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache()

	require.NoError(t, c.Set(ctx, "k", 1, time.Minute))
	ok, _ := c.Exists(ctx, "k")
	assert.True(t, ok)

	clock.t = clock.t.Add(time.Minute)
	ok, _ = c.Exists(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryCache_IncrementWithExpiry(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache()

	n, err := c.IncrementWithExpiry(ctx, "attempts", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ttl, _ := c.TTL(ctx, "attempts")
	assert.Equal(t, 10*time.Minute, ttl)

	// later increments keep the window opened by the first one
	clock.t = clock.t.Add(4 * time.Minute)
	n, err = c.IncrementWithExpiry(ctx, "attempts", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ttl, _ = c.TTL(ctx, "attempts")
	assert.Equal(t, 6*time.Minute, ttl)

	clock.t = clock.t.Add(6 * time.Minute)
	ttl, _ = c.TTL(ctx, "attempts")
	assert.Equal(t, time.Duration(-2), ttl)

	n, err = c.IncrementWithExpiry(ctx, "attempts", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryCache_IncrementWithExpiry_Concurrent(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache()

	const workers = 50
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.IncrementWithExpiry(ctx, "attempts", time.Minute)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var n int64
	found, err := c.Get(ctx, "attempts", &n)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(workers), n)

	ttl, _ := c.TTL(ctx, "attempts")
	assert.Equal(t, time.Minute, ttl)
}

func TestMemoryCache_SetNX(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache()

	ok, err := c.SetNX(ctx, "jti", true, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "jti", true, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	clock.t = clock.t.Add(time.Minute)
	ok, err = c.SetNX(ctx, "jti", true, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired key can be claimed again")
}
