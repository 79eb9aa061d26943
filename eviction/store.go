package eviction

import (
	"sync"
	"sync/atomic"

	"github.com/jmgilman/go/errors"

	"github.com/krisalay/lazy-cache/types"
)

/*
BoundedStore decorates another store with a maximum entry count.

Bookkeeping is anchored at Set: a key counts once it has been populated.
Placeholders created by GetOrInit are free until then, and eviction never
touches them, since they belong to a computation in flight.

The live counter is approximate. Remove leaves the key in the eviction queue;
such dead candidates are skipped when they come up. Remove only decrements
the counter when it deletes a populated entry, so removing placeholders
cannot push it below the number of values actually stored.

There is no store-wide lock. The counter is atomic and the queue mutex is
held only to push or pop a key; the wrapped store's writes run outside it.
*/
type BoundedStore[K comparable, V any] struct {
	inner   types.Store[K, V]
	maxSize int
	metrics types.Metrics

	live atomic.Int64

	// mu guards policy only.
	mu     sync.Mutex
	policy Policy[K]
}

var _ types.Store[string, int] = (*BoundedStore[string, int])(nil)

// NewBoundedStore wraps inner so that it holds at most maxSize populated entries.
func NewBoundedStore[K comparable, V any](
	inner types.Store[K, V],
	maxSize int,
	policy PolicyType,
	metrics types.Metrics,
) (*BoundedStore[K, V], error) {
	if maxSize <= 0 {
		err := errors.Newf(errors.CodeInvalidConfig, "max size must be positive, got %d", maxSize)
		return nil, errors.WithContext(err, "max_size", maxSize)
	}

	p, err := NewPolicy[K](policy)
	if err != nil {
		return nil, err
	}

	if metrics == nil {
		metrics = types.NoopMetrics{}
	}

	return &BoundedStore[K, V]{
		inner:   inner,
		maxSize: maxSize,
		metrics: metrics,
		policy:  p,
	}, nil
}

func (s *BoundedStore[K, V]) Set(key K, value V) {
	s.Swap(key, value)
}

/*
Swap stores value for key and keeps the store within capacity.

1. Delegate the write; the wrapped store reports what it replaced
2. If that was not a populated entry, count the key and queue it
3. While over capacity, evict the oldest queued keys
*/
func (s *BoundedStore[K, V]) Swap(key K, value V) (*types.WritableEntry[V], bool) {
	prev, ok := s.inner.Swap(key, value)

	if !ok || !prev.HasValue() {
		s.push(key)
		s.live.Add(1)
	}

	s.evict()
	return prev, ok
}

/*
evict removes queued keys until the live count is within capacity.

Each round first reserves one decrement of the counter, so goroutines
evicting at the same time never take out more than the overflow between them.
*/
func (s *BoundedStore[K, V]) evict() {
	for {
		n := s.live.Load()
		if n <= int64(s.maxSize) {
			return
		}
		if !s.live.CompareAndSwap(n, n-1) {
			continue
		}
		if !s.evictOne() {
			// nothing left to evict; give the reservation back
			s.live.Add(1)
			return
		}
	}
}

// evictOne pops candidates until one populated entry has been removed.
func (s *BoundedStore[K, V]) evictOne() bool {
	for {
		victim, ok := s.pop()
		if !ok {
			return false
		}
		if s.removePopulated(victim) {
			s.metrics.Eviction()
			return true
		}
	}
}

// removePopulated deletes key if it holds a value. Placeholders and absent
// keys are left alone; a concurrent replacement is retried.
func (s *BoundedStore[K, V]) removePopulated(key K) bool {
	for {
		ent, ok := s.inner.GetOrNull(key)
		if !ok || !ent.HasValue() {
			return false
		}
		if s.inner.RemoveEntry(key, ent) {
			return true
		}
	}
}

func (s *BoundedStore[K, V]) push(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy.OnPut(key)
}

func (s *BoundedStore[K, V]) pop() (K, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy.Evict()
}

// Remove deletes key. Its queue slot becomes a dead candidate.
func (s *BoundedStore[K, V]) Remove(key K) {
	for {
		ent, ok := s.inner.GetOrNull(key)
		if !ok {
			return
		}
		if s.RemoveEntry(key, ent) {
			return
		}
	}
}

// RemoveEntry deletes key if ent is still stored for it.
func (s *BoundedStore[K, V]) RemoveEntry(key K, ent *types.WritableEntry[V]) bool {
	if !s.inner.RemoveEntry(key, ent) {
		return false
	}
	if ent.HasValue() {
		s.live.Add(-1)
	}
	return true
}

func (s *BoundedStore[K, V]) GetOrInit(key K) *types.WritableEntry[V] {
	return s.inner.GetOrInit(key)
}

func (s *BoundedStore[K, V]) GetOrNull(key K) (*types.WritableEntry[V], bool) {
	return s.inner.GetOrNull(key)
}

func (s *BoundedStore[K, V]) Contains(key K) bool {
	return s.inner.Contains(key)
}

func (s *BoundedStore[K, V]) Count() int {
	return s.inner.Count()
}

// Live returns the approximate number of populated entries used for eviction.
func (s *BoundedStore[K, V]) Live() int {
	return int(s.live.Load())
}
