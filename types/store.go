package types

/*
Store is the capability shared by the base store and every decorator
wrapped around it. The lazy cache only talks to this interface, so it does
not know (or care) which decorators sit between it and the real storage.

All methods must be safe for concurrent use.
*/
type Store[K comparable, V any] interface {

	// GetOrInit returns the entry for key, installing a placeholder if the key
	// is not tracked yet. It never returns nil.
	GetOrInit(key K) *WritableEntry[V]

	// GetOrNull returns the entry for key without creating one.
	GetOrNull(key K) (*WritableEntry[V], bool)

	// Set installs a new populated entry, replacing any previous one.
	Set(key K, value V)

	// Swap is Set that also returns the entry it replaced, if any. The lookup
	// and the write happen atomically for key.
	Swap(key K, value V) (*WritableEntry[V], bool)

	// Remove deletes the entry for key. Removing an absent key is a no-op.
	Remove(key K)

	// RemoveEntry deletes key only while ent is still the entry stored for it,
	// and reports whether it did. A concurrent Set is never undone by it.
	RemoveEntry(key K, ent *WritableEntry[V]) bool

	// Contains reports whether key is tracked (placeholders included).
	Contains(key K) bool

	// Count returns the number of tracked keys.
	Count() int
}
