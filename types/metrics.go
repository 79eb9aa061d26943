package types

import "sync/atomic"

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in the cache lifecycle. The cache will call these methods whenever something happens.
*/
type Metrics interface {

	// Hit is called when a usable value is returned without computing it.
	Hit()

	// Miss is called when the value is missing or stale and a refresh is needed.
	Miss()

	// Eviction is called when a key is removed because the cache is full and needs space.
	Eviction()

	// Expire is called when an entry is removed because the invalidation predicate said so.
	Expire()

	// Refresh is called every time the loader is invoked.
	Refresh()

	// RefreshFailure is called when the loader fails or panics.
	RefreshFailure()

	// StaleServed is called when a failed refresh keeps the previous value.
	StaleServed()
}

// NoopMetrics ignores every event. It is the default when no Metrics is configured.
type NoopMetrics struct{}

func (NoopMetrics) Hit()            {}
func (NoopMetrics) Miss()           {}
func (NoopMetrics) Eviction()       {}
func (NoopMetrics) Expire()         {}
func (NoopMetrics) Refresh()        {}
func (NoopMetrics) RefreshFailure() {}
func (NoopMetrics) StaleServed()    {}

// Counters is a Metrics implementation backed by atomic counters.
type Counters struct {
	hits            atomic.Int64
	misses          atomic.Int64
	evictions       atomic.Int64
	expirations     atomic.Int64
	refreshes       atomic.Int64
	refreshFailures atomic.Int64
	staleServed     atomic.Int64
}

func (c *Counters) Hit()            { c.hits.Add(1) }
func (c *Counters) Miss()           { c.misses.Add(1) }
func (c *Counters) Eviction()       { c.evictions.Add(1) }
func (c *Counters) Expire()         { c.expirations.Add(1) }
func (c *Counters) Refresh()        { c.refreshes.Add(1) }
func (c *Counters) RefreshFailure() { c.refreshFailures.Add(1) }
func (c *Counters) StaleServed()    { c.staleServed.Add(1) }

// Snapshot is a point-in-time copy of Counters.
type Snapshot struct {
	Hits            int64
	Misses          int64
	Evictions       int64
	Expirations     int64
	Refreshes       int64
	RefreshFailures int64
	StaleServed     int64
}

// HitRate returns hits / (hits + misses), or 0 if nothing was read yet.
func (s Snapshot) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Snapshot copies the current counter values.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Hits:            c.hits.Load(),
		Misses:          c.misses.Load(),
		Evictions:       c.evictions.Load(),
		Expirations:     c.expirations.Load(),
		Refreshes:       c.refreshes.Load(),
		RefreshFailures: c.refreshFailures.Load(),
		StaleServed:     c.staleServed.Load(),
	}
}
