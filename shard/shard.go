package shard

import "sync"

/*
A Shard is a small, independent piece of the base store.
Instead of having one big map and one big lock, keys are split across shards. Each shard:
- Holds some portion of the entries
- Has its own lock for writes

Reads never take the lock.
*/
type Shard[K comparable, V any] struct {

	// Table holds the key → entry data for this shard.
	Table Table[K, V]

	// WriteMu serializes writers of this shard. Readers never take it.
	WriteMu sync.Mutex
}

func NewShard[K comparable, V any]() *Shard[K, V] {
	return &Shard[K, V]{Table: newCOWTable[K, V]()}
}
