package api

import "context"

/*
Cache defines the PUBLIC API of the lazy cache.
This is a contract that guarantees certain behaviors, without exposing internals.
Storage, decorators, per-key locking and loading are hidden behind this interface.
*/
type Cache[K comparable, V any] interface {

	/*
		Get returns the value for key, computing it if needed.

		BEHAVIOR:
		-------------------
		1. If a usable value is stored:
		   - Return it immediately, without taking any lock (cache hit)

		2. If the value is missing or stale:
		   - Wait for the key's refresh lock
		   - Compute the value, unless whoever held the lock before us already did
		   - Return whatever is stored afterwards

		The loader's errors never come back from Get. The boolean is false when
		there is nothing to serve: never computed, evicted, or failed without a
		previous value to fall back on.

		Cancelling ctx only stops this caller from waiting. A computation already
		running for the key keeps going for the other callers.
	*/
	Get(ctx context.Context, key K) (V, bool)

	/*
		Set stores value for key, bypassing the loader.

		A refresh already running for key is not aborted; whichever write lands
		last wins.
	*/
	Set(key K, value V)

	/*
		Remove deletes a key from the cache immediately.

		This operation is idempotent:
		- Removing a non-existing key is safe
	*/
	Remove(key K)

	// Contains reports whether a value is stored for key. It never computes one.
	Contains(key K) bool

	// Count returns the number of tracked keys, including keys being computed.
	Count() int

	/*
		Close releases background resources (asynchronous hooks).
		Pending hook events are delivered before it returns.
	*/
	Close()
}
