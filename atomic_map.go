package cowtree

import (
	"cmp"
	"context"
)

// AtomicMap holds the current version of a map in a single atomic slot. It is
// the map counterpart of AtomicSet and shares its concurrency guarantees.
type AtomicMap[K, V any] struct {
	set    *AtomicSet[Entry[K, V]]
	keycmp func(a, b K) int
}

// NewAtomicMap creates an empty atomic map with validated configuration.
func NewAtomicMap[K, V any](cfg MapConfig[K, V]) (*AtomicMap[K, V], error) {
	set, err := NewAtomic(cfg.setConfig())
	if err != nil {
		return nil, err
	}
	return &AtomicMap[K, V]{set: set, keycmp: cfg.Compare}, nil
}

// NewAtomicOrderedMap creates an empty atomic map with ordered keys.
func NewAtomicOrderedMap[K cmp.Ordered, V any]() *AtomicMap[K, V] {
	m, err := NewAtomicMap(MapConfig[K, V]{Compare: cmp.Compare[K]})
	assertThat(err == nil, "default map configuration rejected")
	return m
}

func (m *AtomicMap[K, V]) wrap(s *Set[Entry[K, V]]) *Map[K, V] {
	return &Map[K, V]{set: s, keycmp: m.keycmp}
}

// Get looks up key in the current version and calls f with the result.
func (m *AtomicMap[K, V]) Get(key K, f func(V, bool)) {
	m.set.Find(func(e Entry[K, V]) int {
		return m.keycmp(e.Key, key)
	}, func(e Entry[K, V], ok bool) {
		if f != nil {
			f(e.Value, ok)
		}
	})
}

// Lookup returns the value stored for key in the current version.
func (m *AtomicMap[K, V]) Lookup(key K) (value V, found bool) {
	m.Get(key, func(v V, ok bool) {
		value, found = v, ok
	})
	return
}

// Len returns the number of keys in the current version.
func (m *AtomicMap[K, V]) Len() int {
	return m.set.Len()
}

// Load returns the current version as a map owned by the caller.
func (m *AtomicMap[K, V]) Load() *Map[K, V] {
	return m.wrap(m.set.Load())
}

// Edit derives a new version of the map and publishes it. See AtomicSet.Edit
// for the contract f has to obey.
func (m *AtomicMap[K, V]) Edit(f func(*Map[K, V]) *Map[K, V]) {
	m.set.Edit(func(s *Set[Entry[K, V]]) *Set[Entry[K, V]] {
		next := f(m.wrap(s))
		if next == nil {
			return nil
		}
		return next.set
	})
}

// Insert is a shortcut for an Edit storing value for key. It returns the
// previous value, if any.
func (m *AtomicMap[K, V]) Insert(key K, value V) (old V, found bool) {
	m.Edit(func(cur *Map[K, V]) *Map[K, V] {
		old, found = cur.Insert(key, value)
		return cur
	})
	return
}

// Watch subscribes to the commits of m; see AtomicSet.Watch.
func (m *AtomicMap[K, V]) Watch(ctx context.Context, capacity uint) <-chan Commit[Entry[K, V]] {
	return m.set.Watch(ctx, capacity)
}

// Close empties the map and closes all watch channels.
func (m *AtomicMap[K, V]) Close() {
	m.set.Close()
}

// Stats returns the activity counters of m.
func (m *AtomicMap[K, V]) Stats() Stats {
	return m.set.Stats()
}
