package cowtree

import (
	"cmp"
	"fmt"
	"strings"
)

// Set is an ordered set of values of type T, stored in a shared copy-on-write
// B-tree.
//
// A Set is a handle to a (possibly empty) root node. Handles are not values:
// copying a Set struct does not clone it. Use Clone to obtain an independent
// set sharing all nodes with the original. A single Set must not be modified
// concurrently; use AtomicSet for concurrent writers.
//
// The zero Set is read-only and empty. Sets which are inserted into have to be
// created with New or NewOrdered.
type Set[T any] struct {
	env  *env[T]
	root *Node[T]
}

// New creates an empty set with validated configuration.
func New[T any](cfg Config[T]) (*Set[T], error) {
	e, err := newEnv(cfg)
	if err != nil {
		return nil, err
	}
	return &Set[T]{env: e}, nil
}

// NewOrdered creates an empty set of ordered values, using the default split
// limit and rejecting duplicates.
func NewOrdered[T cmp.Ordered]() *Set[T] {
	s, err := New(Config[T]{Compare: cmp.Compare[T]})
	assertThat(err == nil, "default configuration rejected")
	return s
}

// handle creates a set for root, taking over one reference to root.
func (e *env[T]) handle(root *Node[T]) *Set[T] {
	return &Set[T]{env: e, root: root}
}

// Get returns the stored value equal to key.
func (s *Set[T]) Get(key T) (T, bool) {
	if s == nil || s.root == nil {
		var zero T
		return zero, false
	}
	return s.root.get(s.env.probe(key))
}

// Find looks up a value by a key of a different type. probe(v) has to report
// how v compares to the sought key: negative if v is smaller, zero if v
// matches, positive if v is greater. The order induced by probe has to be
// consistent with the order of the set.
func (s *Set[T]) Find(probe func(T) int) (T, bool) {
	if s == nil || s.root == nil || probe == nil {
		var zero T
		return zero, false
	}
	return s.root.get(probe)
}

// Contains reports whether a value equal to key is in the set.
func (s *Set[T]) Contains(key T) bool {
	_, ok := s.Get(key)
	return ok
}

// Insert adds v to the set.
//
// If no equal value is present, Insert returns the zero value and false.
// Otherwise the result depends on the duplicate policy of the set: with the
// default policy v is rejected and returned with true; with Config.Replace the
// stored value is replaced by v and the previous value is returned with true.
func (s *Set[T]) Insert(v T) (T, bool) {
	assertThat(s != nil && s.env != nil, "insert into a set not created by New")
	var zero T
	if s.root == nil {
		root := s.env.newNode()
		root.entries = append(root.entries, entry[T]{value: v})
		s.root = root
		return zero, false
	}
	if !s.env.replace {
		if _, ok := s.root.get(s.env.probe(v)); ok {
			return v, true
		}
	}
	ins := s.env.insert(&s.root, v)
	if ins.split {
		s.root = s.env.grow(s.root, ins)
		return zero, false
	}
	if ins.replaced {
		return ins.old, true
	}
	return zero, false
}

// Len returns the number of values in the set. It counts every node of the tree.
func (s *Set[T]) Len() int {
	if s == nil {
		return 0
	}
	return s.root.count()
}

// IsEmpty reports whether the set has no values.
func (s *Set[T]) IsEmpty() bool {
	return s == nil || s.root == nil
}

// Height returns the tree height, where 0 means empty and 1 means a single node.
func (s *Set[T]) Height() int {
	if s == nil {
		return 0
	}
	return s.root.height()
}

// Clone returns a new handle sharing every node with s. Modifying either set
// afterwards copies the modified paths and leaves the other set untouched.
func (s *Set[T]) Clone() *Set[T] {
	if s == nil {
		return nil
	}
	return s.env.handle(s.root.acquire())
}

// Release drops the reference s holds on its root and leaves s empty. Nodes no
// longer referenced by any set are given back to the allocator.
//
// Sets which are never released are reclaimed by the garbage collector; they
// only keep their nodes marked as shared, which makes modifications of other
// sets copy more than necessary.
func (s *Set[T]) Release() {
	if s == nil || s.root == nil {
		return
	}
	root := s.root
	s.root = nil
	s.env.release(root)
}

// Each calls fn for the values of s in ascending order, until fn returns false.
func (s *Set[T]) Each(fn func(T) bool) {
	if s == nil || fn == nil {
		return
	}
	s.root.each(fn)
}

// Values returns the values of s in ascending order.
func (s *Set[T]) Values() []T {
	values := make([]T, 0, s.Len())
	s.Each(func(v T) bool {
		values = append(values, v)
		return true
	})
	return values
}

// String renders the node structure of s, nesting subtrees in braces.
func (s *Set[T]) String() string {
	var b strings.Builder
	b.WriteString("Set")
	if s.IsEmpty() {
		b.WriteString("{}")
		return b.String()
	}
	writeNode(&b, s.root, func(v T) string { return fmt.Sprint(v) })
	return b.String()
}

func writeNode[T any](b *strings.Builder, n *Node[T], label func(T) string) {
	b.WriteByte('{')
	sep := ""
	for i := range n.entries {
		if n.entries[i].smaller != nil {
			b.WriteString(sep)
			writeNode(b, n.entries[i].smaller, label)
			sep = ", "
		}
		b.WriteString(sep)
		b.WriteString(label(n.entries[i].value))
		sep = ", "
	}
	if n.greater != nil {
		b.WriteString(sep)
		writeNode(b, n.greater, label)
	}
	b.WriteByte('}')
}
