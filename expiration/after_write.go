package expiration

import (
	"time"

	"github.com/krisalay/lazy-cache/types"
)

/*
AfterWrite implements "expire after write": an entry is stale once TTL has
passed since it was created, no matter how often it is read.

An entry created at t is fresh for every now < t+TTL and stale from t+TTL on.
A zero or negative TTL means entries never go stale.
*/
type AfterWrite[V any] struct {
	TTL time.Duration

	// Clock defaults to the wall clock when nil.
	Clock types.Clock
}

func (a AfterWrite[V]) ShouldInvalidate(ent types.Entry[V]) bool {
	if a.TTL <= 0 {
		return false
	}
	clock := a.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	return !clock.Now().Before(ent.Created.Add(a.TTL))
}
