// Package cache memoizes routing results for repeated queries.
// L1 is an in-process Ristretto cache; an optional Redis L2 shares results
// across router instances behind a load balancer.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RouteCache is a two-tier byte cache keyed by normalized query text.
// Values are serialized routing results; the cache never interprets them.
type RouteCache struct {
	l1     *ristretto.Cache[string, []byte]
	l2     *redis.Client
	ttl    time.Duration
	logger *zap.Logger

	mu      sync.Mutex
	metrics Metrics
}

// Metrics tracks hit rates per tier.
type Metrics struct {
	L1Hits   int64 `json:"l1_hits"`
	L1Misses int64 `json:"l1_misses"`
	L2Hits   int64 `json:"l2_hits"`
	L2Misses int64 `json:"l2_misses"`
}

// New creates a RouteCache. maxCost caps the number of cached routes in L1;
// redisClient may be nil to run L1-only.
func New(maxCost int64, ttl time.Duration, redisClient *redis.Client, logger *zap.Logger) (*RouteCache, error) {
	if maxCost <= 0 {
		maxCost = 10000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	l1, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCost * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create route cache: %w", err)
	}

	return &RouteCache{
		l1:     l1,
		l2:     redisClient,
		ttl:    ttl,
		logger: logger.Named("routecache"),
	}, nil
}

// Get returns the cached value for a normalized query, checking L1 then L2.
// An L2 hit is promoted into L1.
func (c *RouteCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if val, found := c.l1.Get(key); found {
		c.count(func(m *Metrics) { m.L1Hits++ })
		return val, true
	}
	c.count(func(m *Metrics) { m.L1Misses++ })

	if c.l2 == nil {
		return nil, false
	}
	data, err := c.l2.Get(ctx, key).Bytes()
	if err != nil || len(data) == 0 {
		c.count(func(m *Metrics) { m.L2Misses++ })
		return nil, false
	}
	c.count(func(m *Metrics) { m.L2Hits++ })
	c.l1.SetWithTTL(key, data, 1, c.ttl)
	return data, true
}

// Set stores a value in L1 and, when configured, asynchronously in L2.
// A Redis write failure only loses a cache entry, so it is logged, not
// returned.
func (c *RouteCache) Set(ctx context.Context, key string, data []byte) {
	c.l1.SetWithTTL(key, data, 1, c.ttl)

	if c.l2 != nil {
		go func() {
			if err := c.l2.Set(context.WithoutCancel(ctx), key, data, c.ttl).Err(); err != nil {
				c.logger.Warn("redis route cache write failed",
					zap.String("key", key),
					zap.Error(err))
			}
		}()
	}
}

// GetOrCompute returns the cached value or computes, stores and returns it.
func (c *RouteCache) GetOrCompute(ctx context.Context, key string, fn func() ([]byte, error)) ([]byte, error) {
	if data, found := c.Get(ctx, key); found {
		return data, nil
	}
	data, err := fn()
	if err != nil {
		return nil, err
	}
	c.Set(ctx, key, data)
	return data, nil
}

// Invalidate drops a key from both tiers, used when the catalog changes.
func (c *RouteCache) Invalidate(ctx context.Context, key string) error {
	c.l1.Del(key)
	if c.l2 != nil {
		if err := c.l2.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("redis route cache delete: %w", err)
		}
	}
	return nil
}

// Clear drops every L1 entry. L2 entries age out via TTL; flushing a shared
// Redis would evict other instances' warm state too.
func (c *RouteCache) Clear() {
	c.l1.Clear()
}

// Wait blocks until buffered L1 writes are applied. Ristretto admits
// entries asynchronously; callers that need read-your-write (tests, cache
// warmers) call this after Set.
func (c *RouteCache) Wait() {
	c.l1.Wait()
}

// Stats returns a snapshot of the hit counters.
func (c *RouteCache) Stats() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metrics
}

func (c *RouteCache) count(update func(*Metrics)) {
	c.mu.Lock()
	update(&c.metrics)
	c.mu.Unlock()
}

// Close releases L1 resources. The Redis client is owned by the caller.
func (c *RouteCache) Close() {
	c.l1.Close()
}
