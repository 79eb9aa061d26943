package refresh

import (
	"context"
	"sync"
)

// event represents one pending hook call that still has to be delivered.
type event[K comparable] struct {
	ctx         context.Context
	key         K
	err         error
	failed      bool
	stale       bool
	staleServed bool
}

/*
AsyncHook delivers events to another hook from a background worker, so the
refreshing goroutine never waits on a slow observer.
*/
type AsyncHook[K comparable] struct {
	next Hook[K]

	// ch is a buffered channel that holds pending events.
	// Buffering allows bursts of refreshes without blocking.
	ch chan event[K]

	// mu guards closed so no event is sent on a closed channel.
	mu     sync.RWMutex
	closed bool

	// wg is used to wait for the worker to finish during shutdown.
	wg sync.WaitGroup
}

// NewAsyncHook starts a worker that forwards events to next.
func NewAsyncHook[K comparable](next Hook[K], buffer int) *AsyncHook[K] {
	if buffer <= 0 {
		buffer = 1
	}
	h := &AsyncHook[K]{
		next: next,
		ch:   make(chan event[K], buffer),
	}

	h.wg.Add(1)
	go h.worker()

	return h
}

func (h *AsyncHook[K]) OnRefresh(ctx context.Context, key K, stale bool) {
	h.enqueue(event[K]{ctx: context.WithoutCancel(ctx), key: key, stale: stale})
}

func (h *AsyncHook[K]) OnRefreshError(ctx context.Context, key K, err error, staleServed bool) {
	h.enqueue(event[K]{ctx: context.WithoutCancel(ctx), key: key, err: err, failed: true, staleServed: staleServed})
}

// enqueue never blocks. If the queue is full (or the hook is closed) the event is dropped.
func (h *AsyncHook[K]) enqueue(ev event[K]) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	select {
	case h.ch <- ev:
	default:
		// intentional drop under pressure
	}
}

func (h *AsyncHook[K]) worker() {
	defer h.wg.Done()

	for ev := range h.ch {
		if ev.failed {
			h.next.OnRefreshError(ev.ctx, ev.key, ev.err, ev.staleServed)
			continue
		}
		h.next.OnRefresh(ev.ctx, ev.key, ev.stale)
	}
}

/*
Close shuts the hook down gracefully.
1. Stop accepting events
2. Wait for the worker to deliver what is already queued

Close is safe to call more than once.
*/
func (h *AsyncHook[K]) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.ch)
	h.mu.Unlock()

	h.wg.Wait()
}
