package cache

import (
	"context"

	"github.com/krisalay/lazy-cache/api"
	"github.com/krisalay/lazy-cache/engine"
	"github.com/krisalay/lazy-cache/types"
)

/*
LazyCache is the main cache implementation.
It connects a store chain (base store plus any decorators) with the engine
and runs the per-key refresh protocol on top of them:

	MISS → COMPUTING → (HIT | FAILED)

At most one loader call per key is in flight at a time. Callers arriving
while it runs queue on the key's refresh lock and take its outcome.
*/
type LazyCache[K comparable, V any] struct {
	// store is the decorated store chain. The cache does not know which decorators are in it.
	store types.Store[K, V]

	// engine contains the "rules" of a refresh: loader, stale policy, hooks, metrics.
	engine *engine.CacheEngine[K, V]
}

var _ api.Cache[string, int] = (*LazyCache[string, int])(nil)

// NewLazyCache runs the refresh protocol over a hand-assembled store chain.
func NewLazyCache[K comparable, V any](store types.Store[K, V], engine *engine.CacheEngine[K, V]) *LazyCache[K, V] {
	return &LazyCache[K, V]{store: store, engine: engine}
}

/*
Get returns the value for key, computing it at most once among concurrent callers.
*/
func (c *LazyCache[K, V]) Get(ctx context.Context, key K) (V, bool) {

	// Fast path: a usable value is served without any lock.
	ent, ok := c.store.GetOrNull(key)
	if ok && !c.engine.NeedsRefresh(ent.Entry()) {
		c.engine.Metrics.Hit()
		return ent.Value(), true
	}

	if !ok {
		ent = c.store.GetOrInit(key)

		// a concurrent writer may have populated it in the meantime
		if !c.engine.NeedsRefresh(ent.Entry()) {
			c.engine.Metrics.Hit()
			return ent.Value(), true
		}
	}

	c.engine.Metrics.Miss()
	c.refresh(ctx, key, ent)

	// Re-read instead of returning what refresh computed, so that a Set,
	// Remove or invalidation racing with us is honored.
	return c.read(key)
}

/*
refresh runs one refresh attempt for key under the refresh lock of ent.

1. Wait for the lock (or give up when ctx is done)
2. Skip if an attempt finished while we were waiting, or ent is no longer the stored entry
3. Skip if the stored entry became usable
4. Call the loader
5. On success store the value; on failure keep the stale value or remove the key
*/
func (c *LazyCache[K, V]) refresh(ctx context.Context, key K, ent *types.WritableEntry[V]) {
	seen := ent.Attempts()

	if err := ent.Lock(ctx); err != nil {
		return
	}
	defer ent.Unlock()

	if ent.Attempts() != seen {
		return
	}

	current, ok := c.store.GetOrNull(key)
	if !ok || current != ent || !c.engine.NeedsRefresh(current.Entry()) {
		return
	}

	// runs before Unlock: waiters must see the attempt as finished
	defer ent.CompleteAttempt()

	value, err := c.engine.Load(ctx, key, current.HasValue())
	if err == nil {
		c.store.Set(key, value)
		return
	}

	keep := c.engine.KeepStale(current, ok)
	c.engine.OnLoadError(ctx, key, err, keep)
	if !keep {
		c.store.RemoveEntry(key, current)
	}
}

func (c *LazyCache[K, V]) read(key K) (V, bool) {
	ent, ok := c.store.GetOrNull(key)
	if !ok || !ent.HasValue() {
		var zero V
		return zero, false
	}
	return ent.Value(), true
}

// Set stores value for key, bypassing the loader.
func (c *LazyCache[K, V]) Set(key K, value V) {
	c.store.Set(key, value)
}

// Remove deletes key. Removing an absent key is a no-op.
func (c *LazyCache[K, V]) Remove(key K) {
	c.store.Remove(key)
}

// Contains reports whether a value is stored for key.
func (c *LazyCache[K, V]) Contains(key K) bool {
	ent, ok := c.store.GetOrNull(key)
	return ok && ent.HasValue()
}

// Count returns the number of tracked keys, including keys being computed.
func (c *LazyCache[K, V]) Count() int {
	return c.store.Count()
}

/*
Close gracefully shuts down the cache.
This matters for asynchronous hooks, so pending events are delivered.
*/
func (c *LazyCache[K, V]) Close() {
	if closer, ok := c.engine.Refresh.(interface{ Close() }); ok {
		closer.Close()
	}
}
