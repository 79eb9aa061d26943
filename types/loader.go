package types

import "context"

// Loader is the contract between the cache and whatever produces values.
type Loader[K comparable, V any] interface {

	/*
		Load is called when the cache has no usable value for key.
		1. Cache finds a missing or stale entry
		2. Cache takes the refresh lock of that entry
		3. Cache calls Load(key), once for all the callers waiting on that lock
		4. Cache stores the result (or applies its stale policy on error)

		Load may fail with any error. The cache never returns that error to its
		callers, they only observe a value or its absence.
	*/
	Load(ctx context.Context, key K) (V, error)
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

func (f LoaderFunc[K, V]) Load(ctx context.Context, key K) (V, error) {
	return f(ctx, key)
}
