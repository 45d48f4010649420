package cowtree

import (
	"cmp"
	"fmt"
	"strings"
)

// Entry is a key/value pair stored in a Map. Entries are ordered by key only.
type Entry[K, V any] struct {
	Key   K
	Value V
}

// Map is an ordered map from K to V, stored in a shared copy-on-write B-tree.
//
// A Map is a thin layer over a Set of entries which compares keys only and
// always replaces the value of an existing key. As with Set, copying a Map
// struct does not clone it; use Clone.
type Map[K, V any] struct {
	set    *Set[Entry[K, V]]
	keycmp func(a, b K) int
}

// NewMap creates an empty map with validated configuration.
func NewMap[K, V any](cfg MapConfig[K, V]) (*Map[K, V], error) {
	set, err := New(cfg.setConfig())
	if err != nil {
		return nil, err
	}
	return &Map[K, V]{set: set, keycmp: cfg.Compare}, nil
}

// NewOrderedMap creates an empty map with ordered keys and the default split
// limit.
func NewOrderedMap[K cmp.Ordered, V any]() *Map[K, V] {
	m, err := NewMap(MapConfig[K, V]{Compare: cmp.Compare[K]})
	assertThat(err == nil, "default map configuration rejected")
	return m
}

func (m *Map[K, V]) probe(key K) func(Entry[K, V]) int {
	return func(e Entry[K, V]) int {
		return m.keycmp(e.Key, key)
	}
}

// Get returns the value stored for key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	if m == nil {
		var zero V
		return zero, false
	}
	e, ok := m.set.Find(m.probe(key))
	return e.Value, ok
}

// Insert stores value for key. If the key was present, the previous value is
// returned with true.
func (m *Map[K, V]) Insert(key K, value V) (V, bool) {
	assertThat(m != nil && m.set != nil, "insert into a map not created by NewMap")
	old, ok := m.set.Insert(Entry[K, V]{Key: key, Value: value})
	return old.Value, ok
}

// Len returns the number of keys in the map.
func (m *Map[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return m.set.Len()
}

// IsEmpty reports whether the map has no keys.
func (m *Map[K, V]) IsEmpty() bool {
	return m == nil || m.set.IsEmpty()
}

// Clone returns a new handle sharing every node with m.
func (m *Map[K, V]) Clone() *Map[K, V] {
	if m == nil {
		return nil
	}
	return &Map[K, V]{set: m.set.Clone(), keycmp: m.keycmp}
}

// Release drops the reference m holds on its tree and leaves m empty.
func (m *Map[K, V]) Release() {
	if m != nil {
		m.set.Release()
	}
}

// Each calls fn for the entries of m in ascending key order, until fn returns
// false.
func (m *Map[K, V]) Each(fn func(K, V) bool) {
	if m == nil || fn == nil {
		return
	}
	m.set.Each(func(e Entry[K, V]) bool {
		return fn(e.Key, e.Value)
	})
}

// Keys returns the keys of m in ascending order.
func (m *Map[K, V]) Keys() []K {
	keys := make([]K, 0, m.Len())
	m.Each(func(k K, _ V) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// Set exposes the set of entries m is built on. The set shares its handle with
// m.
func (m *Map[K, V]) Set() *Set[Entry[K, V]] {
	return m.set
}

// String renders the node structure of m, nesting subtrees in braces.
func (m *Map[K, V]) String() string {
	var b strings.Builder
	b.WriteString("Map")
	if m.IsEmpty() {
		b.WriteString("{}")
		return b.String()
	}
	writeNode(&b, m.set.root, func(e Entry[K, V]) string {
		return fmt.Sprintf("%v: %v", e.Key, e.Value)
	})
	return b.String()
}
