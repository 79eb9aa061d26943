package engine

import (
	"context"
	"fmt"

	"github.com/jmgilman/go/errors"

	"github.com/krisalay/lazy-cache/expiration"
	"github.com/krisalay/lazy-cache/refresh"
	"github.com/krisalay/lazy-cache/types"
)

/*
CacheEngine is the "brain" of the lazy cache.
It is responsible for the "behavior" of a refresh, NOT storage.

It decides:
- Whether a stored entry is usable or needs a refresh
- How the loader is called (and what a failure looks like)
- Whether a failed refresh may keep serving the previous value
- Which hooks and metrics hear about it

It does NOT:
- Store data
- Lock keys
- Decide eviction order
*/
type CacheEngine[K comparable, V any] struct {

	// Loader computes values for keys the cache cannot serve.
	Loader types.Loader[K, V]

	// StaleAfter marks populated entries that should be recomputed on read
	// while still being kept as a fallback. If nil, populated entries are
	// always usable and staleness is left to the invalidation decorator.
	StaleAfter expiration.Predicate[V]

	// AllowStale keeps the previous value when a refresh fails.
	AllowStale bool

	// Refresh observes refreshes and failures.
	Refresh refresh.Hook[K]

	// Metrics is how we keep track of what the cache is doing.
	Metrics types.Metrics
}

/*
NewCacheEngine creates a CacheEngine.
*/
func NewCacheEngine[K comparable, V any](
	loader types.Loader[K, V],
	staleAfter expiration.Predicate[V],
	allowStale bool,
	hook refresh.Hook[K],
	metrics types.Metrics,
) (*CacheEngine[K, V], error) {
	if f, ok := loader.(types.LoaderFunc[K, V]); loader == nil || (ok && f == nil) {
		return nil, errors.New(errors.CodeInvalidConfig, "a loader is required")
	}

	// Ensure hook and metrics are always non-nil
	if hook == nil {
		hook = refresh.NoopHook[K]{}
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}

	return &CacheEngine[K, V]{
		Loader:     loader,
		StaleAfter: staleAfter,
		AllowStale: allowStale,
		Refresh:    hook,
		Metrics:    metrics,
	}, nil
}

// NeedsRefresh reports whether ent cannot be served as-is.
func (e *CacheEngine[K, V]) NeedsRefresh(ent types.Entry[V]) bool {
	if !ent.HasValue {
		return true
	}
	return e.StaleAfter != nil && e.StaleAfter.ShouldInvalidate(ent)
}

/*
Load runs the loader for key.

- The loader runs under a context that ignores the caller's cancellation:
  the result is shared with every caller waiting on the same key.
- A panicking loader is reported as an error.
- Errors are wrapped with the key so hooks can log something useful.
*/
func (e *CacheEngine[K, V]) Load(ctx context.Context, key K, stale bool) (value V, err error) {
	e.Metrics.Refresh()
	e.Refresh.OnRefresh(ctx, key, stale)

	defer func() {
		if r := recover(); r != nil {
			var zero V
			value = zero
			err = errors.WithContext(
				errors.Newf(errors.CodeInternal, "loader panicked: %v", r),
				"key", fmt.Sprint(key),
			)
		}
	}()

	value, err = e.Loader.Load(context.WithoutCancel(ctx), key)
	if err != nil {
		var zero V
		return zero, errors.WithContext(
			errors.Wrap(err, errors.CodeExecutionFailed, "loader failed"),
			"key", fmt.Sprint(key),
		)
	}
	return value, nil
}

// KeepStale reports whether a failed refresh should leave current in place.
func (e *CacheEngine[K, V]) KeepStale(current *types.WritableEntry[V], ok bool) bool {
	return e.AllowStale && ok && current.HasValue()
}

// OnLoadError records a failed refresh.
func (e *CacheEngine[K, V]) OnLoadError(ctx context.Context, key K, err error, staleServed bool) {
	e.Metrics.RefreshFailure()
	if staleServed {
		e.Metrics.StaleServed()
	}
	e.Refresh.OnRefreshError(ctx, key, err, staleServed)
}
