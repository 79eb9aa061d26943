package shard

import "hash/maphash"

/*
Selector decides which shard should handle a given key.
The store does not care HOW this decision is made. Different strategies can be plugged in.
*/
type Selector[K comparable, V any] interface {
	Select(K, []*Shard[K, V]) *Shard[K, V]
}

// HashSelector spreads keys by a seeded hash of the key.
type HashSelector[K comparable, V any] struct {
	seed maphash.Seed
}

func NewHashSelector[K comparable, V any]() *HashSelector[K, V] {
	return &HashSelector[K, V]{seed: maphash.MakeSeed()}
}

func (h *HashSelector[K, V]) Select(key K, shards []*Shard[K, V]) *Shard[K, V] {
	if len(shards) == 1 {
		return shards[0]
	}
	idx := maphash.Comparable(h.seed, key) % uint64(len(shards))
	return shards[idx]
}
