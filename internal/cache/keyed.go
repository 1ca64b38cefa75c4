// Package cache provides a generic keyed cache with single-flight request
// deduplication. Concurrent lookups for the same key share one resolver call
// and observe the same outcome; successful results are cached for the life
// of the process, failures are never cached.
package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Resolver produces the value for a cache key. It is invoked at most once
// per key across all concurrent Resolve calls for that key.
type Resolver[V any] func(ctx context.Context, key string) (V, error)

// Keyed is a single-flight, in-memory cache keyed by string.
// It is safe for concurrent use.
type Keyed[V any] struct {
	resolver Resolver[V]
	group    singleflight.Group
	mu       sync.RWMutex
	values   map[string]V
}

// NewKeyed creates a Keyed cache backed by the given resolver.
func NewKeyed[V any](resolver Resolver[V]) *Keyed[V] {
	return &Keyed[V]{
		resolver: resolver,
		values:   make(map[string]V),
	}
}

// Resolve returns the cached value for key, or resolves it. All callers that
// arrive while a resolution for key is in flight wait on that same resolution
// and receive its outcome, value or error. A failed resolution leaves no
// entry behind: the next Resolve for the same key starts fresh.
func (c *Keyed[V]) Resolve(ctx context.Context, key string) (V, error) {
	c.mu.RLock()
	v, ok := c.values[key]
	c.mu.RUnlock()
	if ok {
		return v, nil
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		// A previous flight may have populated the cache between the
		// read above and acquiring the flight.
		c.mu.RLock()
		v, ok := c.values[key]
		c.mu.RUnlock()
		if ok {
			return v, nil
		}

		v, rerr := c.resolver(ctx, key)
		if rerr != nil {
			return nil, rerr
		}

		c.mu.Lock()
		c.values[key] = v
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Peek returns the cached value for key without triggering resolution.
func (c *Keyed[V]) Peek(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Invalidate clears all cached values. In-flight resolutions are unaffected;
// they complete and repopulate their own keys.
func (c *Keyed[V]) Invalidate() {
	c.mu.Lock()
	c.values = make(map[string]V)
	c.mu.Unlock()
}
