// This file defines the idea of a "refresh hook".
// The hook lets the outside world observe refreshes without taking part in them.
// Hooks are fire-and-forget: they never change what the cache does.

package refresh

import "context"

/*
Hook is the interface for refresh observers.

The cache calls it at two points:
- right before the loader is invoked for a key
- when the loader failed (or panicked) for a key

This is how a caller can tell "the computation failed" apart from
"there is simply no value", which the Get contract alone cannot express.

Both methods run on the refreshing goroutine while it holds the key's refresh
lock, so they MUST be fast. Wrap slow hooks in an AsyncHook.
*/
type Hook[K comparable] interface {

	// OnRefresh is called before the loader runs. stale is true when a
	// previous value exists and is being replaced.
	OnRefresh(ctx context.Context, key K, stale bool)

	// OnRefreshError is called after the loader failed. staleServed is true
	// when the previous value was kept and will be served.
	OnRefreshError(ctx context.Context, key K, err error, staleServed bool)
}

// NoopHook ignores every event.
type NoopHook[K comparable] struct{}

func (NoopHook[K]) OnRefresh(context.Context, K, bool)             {}
func (NoopHook[K]) OnRefreshError(context.Context, K, error, bool) {}

// Hooks fans every event out to each hook in order.
type Hooks[K comparable] []Hook[K]

func (hs Hooks[K]) OnRefresh(ctx context.Context, key K, stale bool) {
	for _, h := range hs {
		h.OnRefresh(ctx, key, stale)
	}
}

func (hs Hooks[K]) OnRefreshError(ctx context.Context, key K, err error, staleServed bool) {
	for _, h := range hs {
		h.OnRefreshError(ctx, key, err, staleServed)
	}
}
