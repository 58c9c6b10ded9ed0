// Package cache provides a small TTL cache with load de-duplication.
//
// Concurrent misses for the same key share a single load. Failed loads are
// not cached.
package cache

import (
	"context"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// LoadFunc produces the value for a missing key.
type LoadFunc[V any] func(ctx context.Context) (V, error)

// Stats reports cache usage.
type Stats struct {
	Hits   int64
	Misses int64
	Loads  int64
	Items  int
}

// Cache is a TTL cache of V values keyed by string. A zero TTL keeps
// entries until Delete or Flush.
type Cache[V any] struct {
	items  *gocache.Cache
	flight singleflight.Group
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
	loads  atomic.Int64
}

// New creates a cache whose entries expire after ttl.
func New[V any](ttl time.Duration) *Cache[V] {
	expiry := ttl
	cleanup := ttl * 2
	if ttl <= 0 {
		expiry = gocache.NoExpiration
		cleanup = 0
	}
	return &Cache[V]{
		items: gocache.New(expiry, cleanup),
		ttl:   ttl,
	}
}

// Get returns the cached value for key.
func (c *Cache[V]) Get(key string) (V, bool) {
	if v, ok := c.items.Get(key); ok {
		c.hits.Add(1)
		return v.(V), true
	}
	c.misses.Add(1)
	var zero V
	return zero, false
}

// Set stores v under key with the default TTL.
func (c *Cache[V]) Set(key string, v V) {
	c.items.Set(key, v, gocache.DefaultExpiration)
}

// GetOrLoad returns the cached value for key, calling load on a miss.
// Concurrent callers missing the same key wait for one load. The load runs
// detached from any single caller's cancellation; each caller stops waiting
// when its own ctx is done. A load that fails is not stored.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load LoadFunc[V]) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	ch := c.flight.DoChan(key, func() (interface{}, error) {
		// A caller that lost the race may find the value already stored.
		if v, ok := c.items.Get(key); ok {
			return v, nil
		}
		c.loads.Add(1)
		v, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.items.Set(key, v, gocache.DefaultExpiration)
		return v, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

// Delete removes key.
func (c *Cache[V]) Delete(key string) {
	c.items.Delete(key)
}

// Flush removes every entry.
func (c *Cache[V]) Flush() {
	c.items.Flush()
}

// TTL returns the configured expiry.
func (c *Cache[V]) TTL() time.Duration {
	return c.ttl
}

// Stats returns a snapshot of the counters.
func (c *Cache[V]) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Loads:  c.loads.Load(),
		Items:  c.items.ItemCount(),
	}
}
