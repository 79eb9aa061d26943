package expiration

import (
	"github.com/krisalay/lazy-cache/types"
)

/*
Store decorates another store with read-time invalidation.

Nothing is swept in the background: a stale entry stays where it is until a
GetOrNull observes it, at which point it is removed from the wrapped store
and the lookup is repeated. Every other method is passed through untouched.

Only populated entries are judged. A placeholder belongs to whoever holds its
refresh lock and is resolved by them, however long the computation takes.
*/
type Store[K comparable, V any] struct {
	inner     types.Store[K, V]
	predicate Predicate[V]
	metrics   types.Metrics
}

var _ types.Store[string, int] = (*Store[string, int])(nil)

func NewStore[K comparable, V any](inner types.Store[K, V], p Predicate[V], metrics types.Metrics) *Store[K, V] {
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	return &Store[K, V]{inner: inner, predicate: p, metrics: metrics}
}

// GetOrNull returns nothing (or whatever a concurrent writer installed
// meanwhile) when the stored entry is stale.
func (s *Store[K, V]) GetOrNull(key K) (*types.WritableEntry[V], bool) {
	ent, ok := s.inner.GetOrNull(key)
	if !ok || !ent.HasValue() || !s.predicate.ShouldInvalidate(ent.Entry()) {
		return ent, ok
	}

	// another reader may have dropped it first; don't count it twice
	if s.inner.RemoveEntry(key, ent) {
		s.metrics.Expire()
	}
	return s.inner.GetOrNull(key)
}

func (s *Store[K, V]) GetOrInit(key K) *types.WritableEntry[V] {
	return s.inner.GetOrInit(key)
}

func (s *Store[K, V]) Set(key K, value V) {
	s.inner.Set(key, value)
}

func (s *Store[K, V]) Swap(key K, value V) (*types.WritableEntry[V], bool) {
	return s.inner.Swap(key, value)
}

func (s *Store[K, V]) Remove(key K) {
	s.inner.Remove(key)
}

func (s *Store[K, V]) RemoveEntry(key K, ent *types.WritableEntry[V]) bool {
	return s.inner.RemoveEntry(key, ent)
}

func (s *Store[K, V]) Contains(key K) bool {
	return s.inner.Contains(key)
}

func (s *Store[K, V]) Count() int {
	return s.inner.Count()
}
