// This file defines when a cache entry must be treated as stale.

package expiration

import (
	"github.com/krisalay/lazy-cache/types"
)

/*
Predicate is the interface that all invalidation rules must follow. Instead of hard-coding
expiration logic into the cache, we define a predicate so expiration behavior can be swapped easily.

ShouldInvalidate must be pure: it is called on every read of an entry.
*/
type Predicate[V any] interface {
	ShouldInvalidate(types.Entry[V]) bool
}

// PredicateFunc adapts a plain function to the Predicate interface.
type PredicateFunc[V any] func(types.Entry[V]) bool

func (f PredicateFunc[V]) ShouldInvalidate(ent types.Entry[V]) bool {
	return f(ent)
}
