package expiration

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/lazy-cache/shard"
	"github.com/krisalay/lazy-cache/types"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *stepClock {
	return &stepClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestAfterWriteBoundary(t *testing.T) {
	clk := newClock()
	p := AfterWrite[string]{TTL: time.Minute, Clock: clk}
	ent := types.Entry[string]{Value: "v", HasValue: true, Created: clk.Now()}

	assert.False(t, p.ShouldInvalidate(ent))

	clk.Advance(time.Minute - time.Nanosecond)
	assert.False(t, p.ShouldInvalidate(ent), "must not fire before the TTL")

	clk.Advance(time.Nanosecond)
	assert.True(t, p.ShouldInvalidate(ent), "must fire exactly at the TTL")

	clk.Advance(time.Hour)
	assert.True(t, p.ShouldInvalidate(ent))
}

func TestAfterWriteZeroTTLNeverFires(t *testing.T) {
	clk := newClock()
	p := AfterWrite[int]{Clock: clk}
	ent := types.Entry[int]{Value: 1, HasValue: true, Created: clk.Now()}

	clk.Advance(24 * time.Hour)
	assert.False(t, p.ShouldInvalidate(ent))
}

func TestPredicateFunc(t *testing.T) {
	p := PredicateFunc[int](func(e types.Entry[int]) bool { return e.Value > 10 })

	assert.True(t, p.ShouldInvalidate(types.Entry[int]{Value: 11}))
	assert.False(t, p.ShouldInvalidate(types.Entry[int]{Value: 1}))
}

func TestStoreEvictsStaleEntryOnRead(t *testing.T) {
	clk := newClock()
	metrics := &types.Counters{}
	base := shard.New[string, string](4, clk)
	s := NewStore[string, string](base, AfterWrite[string]{TTL: time.Minute, Clock: clk}, metrics)

	s.Set("a", "v1")

	ent, ok := s.GetOrNull("a")
	require.True(t, ok)
	assert.Equal(t, "v1", ent.Value())

	clk.Advance(time.Minute)

	// still physically present until a read observes it
	assert.True(t, s.Contains("a"))
	assert.Equal(t, 1, s.Count())

	_, ok = s.GetOrNull("a")
	assert.False(t, ok)
	assert.False(t, base.Contains("a"))
	assert.Zero(t, s.Count())
	assert.Equal(t, int64(1), metrics.Snapshot().Expirations)
}

func TestStoreKeepsFreshEntries(t *testing.T) {
	base := shard.New[string, int](4, nil)
	never := PredicateFunc[int](func(types.Entry[int]) bool { return false })
	s := NewStore[string, int](base, never, nil)

	s.Set("a", 1)
	for i := 0; i < 3; i++ {
		ent, ok := s.GetOrNull("a")
		require.True(t, ok)
		assert.Equal(t, 1, ent.Value())
	}
}

func TestStoreKeepsPlaceholdersPastTTL(t *testing.T) {
	clk := newClock()
	metrics := &types.Counters{}
	base := shard.New[string, string](4, clk)
	s := NewStore[string, string](base, AfterWrite[string]{TTL: time.Second, Clock: clk}, metrics)

	pending := s.GetOrInit("a")
	clk.Advance(2 * time.Second)

	// the computation outlived the TTL; its placeholder must survive
	ent, ok := s.GetOrNull("a")
	require.True(t, ok)
	assert.Same(t, pending, ent)
	assert.Zero(t, metrics.Snapshot().Expirations)
}

func TestStoreGetOrInitPassesThrough(t *testing.T) {
	base := shard.New[string, int](4, nil)
	always := PredicateFunc[int](func(types.Entry[int]) bool { return true })
	s := NewStore[string, int](base, always, nil)

	s.Set("a", 1)

	ent := s.GetOrInit("a")
	assert.True(t, ent.HasValue(), "GetOrInit does not consult the predicate")

	s.Remove("a")
	assert.False(t, s.Contains("a"))
}

// replacingStore installs a fresh entry the moment a stale one is removed,
// standing in for a writer that races with the invalidating read.
type replacingStore struct {
	types.Store[string, int]
}

func (r replacingStore) RemoveEntry(key string, ent *types.WritableEntry[int]) bool {
	removed := r.Store.RemoveEntry(key, ent)
	r.Store.Set(key, 2)
	return removed
}

func TestStoreRequeriesAfterRemoval(t *testing.T) {
	base := shard.New[string, int](1, nil)
	staleOnes := PredicateFunc[int](func(e types.Entry[int]) bool { return e.Value == 1 })
	s := NewStore[string, int](replacingStore{base}, staleOnes, nil)

	s.Set("a", 1)

	ent, ok := s.GetOrNull("a")
	require.True(t, ok)
	assert.Equal(t, 2, ent.Value())
}

func TestStoreDoesNotDropReplacedEntry(t *testing.T) {
	clk := newClock()
	metrics := &types.Counters{}
	base := shard.New[string, string](4, clk)
	s := NewStore[string, string](base, AfterWrite[string]{TTL: time.Minute, Clock: clk}, metrics)

	s.Set("a", "old")
	stale, _ := base.GetOrNull("a")
	clk.Advance(time.Minute)

	// a reader that observed the stale entry loses the race against a writer
	s.Set("a", "new")
	assert.False(t, s.RemoveEntry("a", stale))

	ent, ok := s.GetOrNull("a")
	require.True(t, ok)
	assert.Equal(t, "new", ent.Value())
	assert.Zero(t, metrics.Snapshot().Expirations)
}
