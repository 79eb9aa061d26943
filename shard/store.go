package shard

import (
	"github.com/krisalay/lazy-cache/types"
)

// DefaultShards is used when a non-positive shard count is given.
const DefaultShards = 16

/*
Store is the base store: a concurrent key → entry mapping without any policy.
It implements types.Store and is the innermost layer of every decorator chain.

Every write installs a brand-new WritableEntry (and so a brand-new refresh
lock). Entries are never modified in place, which is what keeps reads lock-free.
*/
type Store[K comparable, V any] struct {
	shards   []*Shard[K, V]
	selector Selector[K, V]
	clock    types.Clock
}

var _ types.Store[string, int] = (*Store[string, int])(nil)

// New creates a base store with n shards. Timestamps come from clock.
func New[K comparable, V any](n int, clock types.Clock) *Store[K, V] {
	if n <= 0 {
		n = DefaultShards
	}
	if clock == nil {
		clock = types.SystemClock{}
	}

	s := make([]*Shard[K, V], n)
	for i := range s {
		s[i] = NewShard[K, V]()
	}

	return &Store[K, V]{
		shards:   s,
		selector: NewHashSelector[K, V](),
		clock:    clock,
	}
}

// GetOrInit returns the existing entry or installs a placeholder for key.
func (s *Store[K, V]) GetOrInit(key K) *types.WritableEntry[V] {
	sh := s.selector.Select(key, s.shards)

	if ent, ok := sh.Table.Get(key); ok {
		return ent
	}

	sh.WriteMu.Lock()
	defer sh.WriteMu.Unlock()

	// someone may have installed it while we waited for the lock
	if ent, ok := sh.Table.Get(key); ok {
		return ent
	}

	ent := types.NewPlaceholder[V](s.clock.Now())
	sh.Table.Put(key, ent)
	return ent
}

func (s *Store[K, V]) GetOrNull(key K) (*types.WritableEntry[V], bool) {
	return s.selector.Select(key, s.shards).Table.Get(key)
}

// Set replaces whatever is stored for key with a new populated entry.
// Goroutines holding or waiting on the old entry's lock are not affected.
func (s *Store[K, V]) Set(key K, value V) {
	s.Swap(key, value)
}

func (s *Store[K, V]) Swap(key K, value V) (*types.WritableEntry[V], bool) {
	sh := s.selector.Select(key, s.shards)

	sh.WriteMu.Lock()
	defer sh.WriteMu.Unlock()

	prev, ok := sh.Table.Get(key)
	sh.Table.Put(key, types.NewWritableEntry(value, s.clock.Now()))
	return prev, ok
}

func (s *Store[K, V]) Remove(key K) {
	sh := s.selector.Select(key, s.shards)

	sh.WriteMu.Lock()
	defer sh.WriteMu.Unlock()

	sh.Table.Delete(key)
}

func (s *Store[K, V]) RemoveEntry(key K, ent *types.WritableEntry[V]) bool {
	sh := s.selector.Select(key, s.shards)

	sh.WriteMu.Lock()
	defer sh.WriteMu.Unlock()

	if cur, ok := sh.Table.Get(key); !ok || cur != ent {
		return false
	}
	return sh.Table.Delete(key)
}

func (s *Store[K, V]) Contains(key K) bool {
	_, ok := s.GetOrNull(key)
	return ok
}

func (s *Store[K, V]) Count() int {
	var n int64
	for _, sh := range s.shards {
		n += sh.Table.Size()
	}
	return int(n)
}
