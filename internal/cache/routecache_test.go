package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestCache(t *testing.T) *RouteCache {
	t.Helper()
	c, err := New(1000, time.Minute, nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestSetGet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_, found := c.Get(ctx, "route:where is the milk")
	assert.False(t, found)

	c.Set(ctx, "route:where is the milk", []byte(`{"intent":"location"}`))
	c.Wait()

	got, found := c.Get(ctx, "route:where is the milk")
	assert.True(t, found)
	assert.Equal(t, []byte(`{"intent":"location"}`), got)
}

func TestGetOrCompute(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	calls := 0
	compute := func() ([]byte, error) {
		calls++
		return []byte("result"), nil
	}

	got, err := c.GetOrCompute(ctx, "k", compute)
	require.NoError(t, err)
	assert.Equal(t, []byte("result"), got)
	assert.Equal(t, 1, calls)
	c.Wait()

	got, err = c.GetOrCompute(ctx, "k", compute)
	require.NoError(t, err)
	assert.Equal(t, []byte("result"), got)
	assert.Equal(t, 1, calls)
}

func TestGetOrComputeError(t *testing.T) {
	c := newTestCache(t)

	_, err := c.GetOrCompute(context.Background(), "k", func() ([]byte, error) {
		return nil, fmt.Errorf("catalog down")
	})
	assert.Error(t, err)

	// Failures are not cached.
	_, found := c.Get(context.Background(), "k")
	assert.False(t, found)
}

func TestInvalidateAndClear(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "a", []byte("1"))
	c.Set(ctx, "b", []byte("2"))
	c.Wait()

	require.NoError(t, c.Invalidate(ctx, "a"))
	_, found := c.Get(ctx, "a")
	assert.False(t, found)

	c.Clear()
	_, found = c.Get(ctx, "b")
	assert.False(t, found)
}

func TestStats(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"))
	c.Wait()
	c.Get(ctx, "k")
	c.Get(ctx, "missing")

	m := c.Stats()
	assert.Equal(t, int64(1), m.L1Hits)
	assert.Equal(t, int64(1), m.L1Misses)
}
