package shard

import (
	"sync/atomic"

	"github.com/krisalay/lazy-cache/types"
)

/*
This file defines how entries are actually stored inside a shard. This is NOT a normal map.
- Reads should be very fast
- Reads should NOT require locks
- Writes are less frequent and can afford extra work

To achieve this, we use a technique called: "Copy-On-Write" (COW)
*/

// Table is the interface used by a shard to store and retrieve entries.
type Table[K comparable, V any] interface {

	// Get retrieves an entry by key.
	Get(K) (*types.WritableEntry[V], bool)

	// Put inserts or replaces an entry.
	Put(K, *types.WritableEntry[V])

	// Delete removes an entry and reports whether it was there.
	Delete(K) bool

	// Size returns how many entries are stored.
	Size() int64
}

/*
cowTable is a Copy-On-Write implementation of Table.

- Readers always see an immutable snapshot
- Writers create a NEW copy of the map
- The new map replaces the old one atomically

Writers must be serialized by the caller (the shard's write mutex).
*/
type cowTable[K comparable, V any] struct {
	data atomic.Pointer[map[K]*types.WritableEntry[V]]

	// size tracks the number of entries so readers don't need to count.
	size atomic.Int64
}

func newCOWTable[K comparable, V any]() *cowTable[K, V] {
	t := &cowTable[K, V]{}
	m := make(map[K]*types.WritableEntry[V])
	t.data.Store(&m)
	return t
}

func (t *cowTable[K, V]) Get(key K) (*types.WritableEntry[V], bool) {
	ent, ok := (*t.data.Load())[key]
	return ent, ok
}

// Put copies the current map, adds/replaces the entry and swaps the copy in.
func (t *cowTable[K, V]) Put(key K, ent *types.WritableEntry[V]) {
	old := *t.data.Load()

	n := make(map[K]*types.WritableEntry[V], len(old)+1)
	for k, v := range old {
		n[k] = v
	}
	n[key] = ent

	t.data.Store(&n)
	t.size.Store(int64(len(n)))
}

// Delete copies the map without key. Deleting an absent key copies nothing.
func (t *cowTable[K, V]) Delete(key K) bool {
	old := *t.data.Load()
	if _, ok := old[key]; !ok {
		return false
	}

	n := make(map[K]*types.WritableEntry[V], len(old))
	for k, v := range old {
		if k != key {
			n[k] = v
		}
	}

	t.data.Store(&n)
	t.size.Store(int64(len(n)))
	return true
}

func (t *cowTable[K, V]) Size() int64 {
	return t.size.Load()
}
