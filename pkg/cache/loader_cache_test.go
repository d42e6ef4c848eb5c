package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity(s string) string { return s }

func TestNewLoaderCache_InvalidSize(t *testing.T) {
	_, err := NewLoaderCache[string, string](0, 0, identity)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestLoaderCache_MissThenHit(t *testing.T) {
	var loads atomic.Int32

	c, err := NewLoaderCache[string, string](10, 0, identity)
	require.NoError(t, err)

	ctx := context.Background()
	load := func(_ context.Context, key string) (string, error) {
		loads.Add(1)

		return "v-" + key, nil
	}

	v, hit, err := c.GetWithStats(ctx, "a", load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "v-a", v)

	v, hit, err = c.GetWithStats(ctx, "a", load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "v-a", v)
	assert.Equal(t, int32(1), loads.Load())
}

func TestLoaderCache_Singleflight(t *testing.T) {
	var loads atomic.Int32

	c, err := NewLoaderCache[string, int](10, 0, identity)
	require.NoError(t, err)

	release := make(chan struct{})
	load := func(_ context.Context, _ string) (int, error) {
		loads.Add(1)
		<-release

		return 42, nil
	}

	var wg sync.WaitGroup

	results := make([]int, 10)

	for i := range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			v, err := c.Get(context.Background(), "x", load)
			assert.NoError(t, err)

			results[i] = v
		}()
	}

	// Let waiters pile up on the in-flight load before releasing it.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, v := range results {
		assert.Equal(t, 42, v)
	}

	// A caller scheduled after the release may start its own load.
	assert.GreaterOrEqual(t, loads.Load(), int32(1))
	assert.LessOrEqual(t, loads.Load(), int32(10))
}

func TestLoaderCache_Invalidate(t *testing.T) {
	c, err := NewLoaderCache[string, string](10, 0, identity)
	require.NoError(t, err)

	ctx := context.Background()
	load := func(_ context.Context, key string) (string, error) { return "v-" + key, nil }

	_, _ = c.Get(ctx, "a", load)
	_, _ = c.Get(ctx, "b", load)
	assert.Equal(t, 2, c.Len())

	c.Invalidate("a")
	assert.Equal(t, 1, c.Len())

	_, hit, _ := c.GetWithStats(ctx, "a", load)
	assert.False(t, hit)

	c.InvalidateAll()
	assert.Equal(t, 0, c.Len())
}

func TestLoaderCache_InvalidateDuringLoad(t *testing.T) {
	c, err := NewLoaderCache[string, string](10, 0, identity)
	require.NoError(t, err)

	load := func(_ context.Context, key string) (string, error) {
		c.InvalidateAll()

		return "stale-" + key, nil
	}

	v, err := c.Get(context.Background(), "a", load)
	require.NoError(t, err)
	assert.Equal(t, "stale-a", v)
	assert.Equal(t, 0, c.Len(), "a load overtaken by invalidation must not be stored")
}

func TestLoaderCache_TTL(t *testing.T) {
	c, err := NewLoaderCache[string, string](10, 10*time.Millisecond, identity)
	require.NoError(t, err)

	ctx := context.Background()
	load := func(_ context.Context, key string) (string, error) { return "v-" + key, nil }

	_, _ = c.Get(ctx, "a", load)

	require.Eventually(t, func() bool {
		_, hit, _ := c.GetWithStats(ctx, "a", func(_ context.Context, _ string) (string, error) {
			return "", context.Canceled
		})

		return !hit
	}, time.Second, 5*time.Millisecond)
}

func TestLoaderCache_LoadError(t *testing.T) {
	c, err := NewLoaderCache[string, string](10, 0, identity)
	require.NoError(t, err)

	load := func(_ context.Context, _ string) (string, error) {
		return "", context.DeadlineExceeded
	}

	_, err = c.Get(context.Background(), "a", load)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, c.Len(), "failed load should not be cached")
}
