package types

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

/*
Entry is the unit of storage: a value and the time it was created.

HasValue is false for a placeholder, which means "somebody is about to
compute this" or "the computation failed and nothing was kept".
A placeholder is never handed to a caller as a result.
*/
type Entry[V any] struct {
	Value    V
	HasValue bool
	Created  time.Time
}

/*
WritableEntry is an Entry plus the refresh lock for its key.

Stores never mutate a WritableEntry. Writes install a brand-new one, so the
lock travels with the entry object: whoever is holding or waiting on the lock
of a replaced entry keeps doing so, while new callers pick up the lock of the
new entry.
*/
type WritableEntry[V any] struct {
	entry Entry[V]

	// lock is a weight-1 semaphore so waiters can give up through their context.
	lock *semaphore.Weighted

	// attempts counts finished refresh attempts made under lock.
	attempts atomic.Uint64
}

// NewPlaceholder returns an entry that reserves a key without a value.
func NewPlaceholder[V any](now time.Time) *WritableEntry[V] {
	return &WritableEntry[V]{
		entry: Entry[V]{Created: now},
		lock:  semaphore.NewWeighted(1),
	}
}

// NewWritableEntry returns a populated entry created at now.
func NewWritableEntry[V any](value V, now time.Time) *WritableEntry[V] {
	return &WritableEntry[V]{
		entry: Entry[V]{Value: value, HasValue: true, Created: now},
		lock:  semaphore.NewWeighted(1),
	}
}

// Entry returns a copy of the immutable record.
func (w *WritableEntry[V]) Entry() Entry[V] { return w.entry }

func (w *WritableEntry[V]) Value() V { return w.entry.Value }

func (w *WritableEntry[V]) HasValue() bool { return w.entry.HasValue }

func (w *WritableEntry[V]) Created() time.Time { return w.entry.Created }

/*
Lock acquires the refresh lock of this entry.

The calling goroutine is parked until the lock is free or ctx is done.
In the latter case the lock is NOT held and ctx.Err() is returned.
*/
func (w *WritableEntry[V]) Lock(ctx context.Context) error {
	return w.lock.Acquire(ctx, 1)
}

// Unlock releases the refresh lock. It must only be called by the holder.
func (w *WritableEntry[V]) Unlock() {
	w.lock.Release(1)
}

// Attempts returns how many refresh attempts finished on this entry.
func (w *WritableEntry[V]) Attempts() uint64 {
	return w.attempts.Load()
}

// CompleteAttempt records a finished refresh attempt. Call it while holding the lock.
func (w *WritableEntry[V]) CompleteAttempt() {
	w.attempts.Add(1)
}
