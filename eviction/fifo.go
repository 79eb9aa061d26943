// This file implements FIFO eviction.

package eviction

/*
fifo keeps keys in the order they were first inserted.
The front of the queue (index 0) is the oldest key.

Keys are never taken out of the queue when they are removed from the store,
so the queue may hold dead keys and even duplicates of a key that was removed
and inserted again. Evict hands them out like any other candidate.
*/
type fifo[K comparable] struct {
	queue []K
}

func newFIFO[K comparable]() *fifo[K] {
	return &fifo[K]{queue: make([]K, 0)}
}

// OnPut appends k to the end of the queue.
func (f *fifo[K]) OnPut(k K) {
	f.queue = append(f.queue, k)
}

// Evict pops the oldest key.
func (f *fifo[K]) Evict() (K, bool) {
	var zero K
	if len(f.queue) == 0 {
		return zero, false
	}
	k := f.queue[0]

	// clear the slot so the backing array does not pin the key
	f.queue[0] = zero
	f.queue = f.queue[1:]
	return k, true
}

func (f *fifo[K]) Len() int {
	return len(f.queue)
}
