package cache_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandon/webhook-agent/internal/cache"
)

func TestTTLGetSet(t *testing.T) {
	c, err := cache.NewTTL[string, int](16)
	require.NoError(t, err)

	now := time.Now()
	c.SetClock(func() time.Time { return now })

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", 1, time.Minute)
	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, got)
}

func TestTTLExpiry(t *testing.T) {
	c, err := cache.NewTTL[string, string](16)
	require.NoError(t, err)

	now := time.Now()
	c.SetClock(func() time.Time { return now })

	c.Set("key", "value", 5*time.Minute)

	// Still valid just inside the window.
	now = now.Add(5*time.Minute - time.Second)
	_, ok := c.Get("key")
	assert.True(t, ok)

	// Gone after expiry.
	now = now.Add(2 * time.Second)
	_, ok = c.Get("key")
	assert.False(t, ok)
}

func TestGetOrComputeCachesWithinTTL(t *testing.T) {
	c, err := cache.NewTTL[string, int](16)
	require.NoError(t, err)

	now := time.Now()
	c.SetClock(func() time.Time { return now })

	calls := 0
	compute := func() (int, time.Duration, error) {
		calls++
		return 42, time.Minute, nil
	}

	for i := 0; i < 3; i++ {
		got, err := c.GetOrCompute("k", compute)
		require.NoError(t, err)
		assert.Equal(t, 42, got)
	}
	assert.Equal(t, 1, calls, "compute should run exactly once within the TTL")

	now = now.Add(2 * time.Minute)
	_, err = c.GetOrCompute("k", compute)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "compute should run again after expiry")
}

func TestGetOrComputeErrorNotCached(t *testing.T) {
	c, err := cache.NewTTL[string, int](16)
	require.NoError(t, err)

	calls := 0
	compute := func() (int, time.Duration, error) {
		calls++
		return 0, 0, errors.New("remote check failed")
	}

	_, err = c.GetOrCompute("k", compute)
	assert.Error(t, err)
	_, err = c.GetOrCompute("k", compute)
	assert.Error(t, err)
	assert.Equal(t, 2, calls, "errors must not be cached")
}

func TestTTLSizeBound(t *testing.T) {
	c, err := cache.NewTTL[int, int](2)
	require.NoError(t, err)

	c.Set(1, 1, time.Minute)
	c.Set(2, 2, time.Minute)
	c.Set(3, 3, time.Minute)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(1)
	assert.False(t, ok, "oldest entry should be evicted")
}
