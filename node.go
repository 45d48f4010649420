package cowtree

import (
	"slices"

	"go.uber.org/atomic"
)

// linearScanLimit is the node occupancy up to which lookups scan entries
// linearly. Larger nodes are searched by bisection.
const linearScanLimit = 8

// Node is a node of a shared B-tree.
//
// Nodes are opaque to clients; the type is exported so that allocators can be
// instantiated for it (see package alloc). A node referenced by more than one
// owner is immutable.
type Node[T any] struct {
	refs atomic.Int32
	// entries holds the live entries in ascending order. It is allocated with a
	// capacity of the split limit and never grows beyond it.
	entries []entry[T]
	// greater roots the subtree of values greater than the last entry.
	greater *Node[T]
}

// entry is a value together with the subtree of values smaller than it (and
// greater than the value of the previous entry).
type entry[T any] struct {
	value   T
	smaller *Node[T]
}

// newNode requests a node from the allocator and initializes it with a
// reference count of 1. Allocation failure is fatal.
func (e *env[T]) newNode() *Node[T] {
	n := e.alloc.Alloc()
	if n == nil {
		tracer().Errorf("%s: allocator refused a node", e.name)
		panic(ErrAllocationFailure)
	}
	if cap(n.entries) != e.limit {
		n.entries = make([]entry[T], 0, e.limit)
	} else {
		n.entries = n.entries[:0]
	}
	n.greater = nil
	n.refs.Store(1)
	return n
}

// acquire adds a reference to n.
func (n *Node[T]) acquire() *Node[T] {
	if n != nil {
		n.refs.Inc()
	}
	return n
}

// shared reports whether n has more than one owner.
func (n *Node[T]) shared() bool {
	return n.refs.Load() > 1
}

// release drops a reference to n. Dropping the last reference releases the
// children of n and gives n back to the allocator.
func (e *env[T]) release(n *Node[T]) {
	if n == nil {
		return
	}
	refs := n.refs.Dec()
	assertThat(refs >= 0, "node released more often than acquired")
	if refs > 0 {
		return
	}
	for i := range n.entries {
		e.release(n.entries[i].smaller)
	}
	e.release(n.greater)
	clear(n.entries[:cap(n.entries)])
	n.entries = n.entries[:0]
	n.greater = nil
	e.alloc.Free(n)
}

// makeMut makes the node at *slot privately owned by the caller and returns it.
//
// If the node is shared, it is copied one level deep: entries are copied, child
// nodes are re-shared with their reference counts incremented. The caller's
// reference to the original is dropped and *slot is pointed to the copy.
func (e *env[T]) makeMut(slot **Node[T]) *Node[T] {
	n := *slot
	assertThat(n != nil, "makeMut called for empty slot")
	if !n.shared() {
		return n
	}
	c := e.newNode()
	c.entries = append(c.entries, n.entries...)
	for i := range c.entries {
		c.entries[i].smaller.acquire()
	}
	c.greater = n.greater.acquire()
	*slot = c
	e.release(n)
	return c
}

// locate finds the position of the entry probe points at. It returns the
// index of the first entry not less than the sought key and whether that entry
// matches. probe(v) compares v to the sought key.
func (n *Node[T]) locate(probe func(T) int) (int, bool) {
	if len(n.entries) > linearScanLimit {
		return slices.BinarySearchFunc(n.entries, struct{}{}, func(en entry[T], _ struct{}) int {
			return probe(en.value)
		})
	}
	for i := range n.entries {
		switch c := probe(n.entries[i].value); {
		case c == 0:
			return i, true
		case c > 0:
			return i, false
		}
	}
	return len(n.entries), false
}

// child returns the subtree to descend into for position i as returned by
// locate.
func (n *Node[T]) child(i int) *Node[T] {
	if i < len(n.entries) {
		return n.entries[i].smaller
	}
	return n.greater
}

// get searches the subtree rooted at n. It never modifies anything and may be
// called concurrently on shared nodes.
func (n *Node[T]) get(probe func(T) int) (v T, found bool) {
	for n != nil {
		i, ok := n.locate(probe)
		if ok {
			return n.entries[i].value, true
		}
		n = n.child(i)
	}
	return v, false
}

// count returns the number of values in the subtree rooted at n.
func (n *Node[T]) count() int {
	if n == nil {
		return 0
	}
	total := len(n.entries)
	for i := range n.entries {
		total += n.entries[i].smaller.count()
	}
	return total + n.greater.count()
}

// height follows the leftmost spine. All leaves of a tree are at the same depth.
func (n *Node[T]) height() int {
	h := 0
	for ; n != nil; n = n.child(0) {
		h++
	}
	return h
}

// each walks the subtree rooted at n in ascending order. It stops early and
// returns false if fn returns false.
func (n *Node[T]) each(fn func(T) bool) bool {
	if n == nil {
		return true
	}
	for i := range n.entries {
		if !n.entries[i].smaller.each(fn) {
			return false
		}
		if !fn(n.entries[i].value) {
			return false
		}
	}
	return n.greater.each(fn)
}
