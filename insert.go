package cowtree

// insertion is the result of inserting a value into a subtree.
//
// If the root of the subtree had to be split, right holds the new right
// sibling and pivot the value to be promoted to the parent level. Otherwise, if
// an equal value has been replaced, old holds the replaced value.
type insertion[T any] struct {
	right    *Node[T]
	pivot    T
	split    bool
	old      T
	replaced bool
}

// insert inserts v into the subtree rooted at *slot, copying every shared node
// on the way down. *slot must not be empty.
//
// The descent mirrors get: entries are searched for the first value not less
// than v. An equal value is replaced in place. Otherwise v is inserted into
// the child subtree between the neighbouring entries, or, if there is none,
// into the node itself. A split of a child is resolved by inserting the pivot
// and the child's new right sibling into this node, which may split in turn.
func (e *env[T]) insert(slot **Node[T], v T) insertion[T] {
	n := e.makeMut(slot)
	i, found := n.locate(e.probe(v))
	if found {
		old := n.entries[i].value
		n.entries[i].value = v
		return insertion[T]{old: old, replaced: true}
	}
	var childslot **Node[T]
	if i < len(n.entries) {
		childslot = &n.entries[i].smaller
	} else {
		childslot = &n.greater
	}
	if *childslot == nil {
		return e.insertAt(n, i, v, nil)
	}
	ins := e.insert(childslot, v)
	if !ins.split {
		return ins
	}
	return e.insertAt(n, i, ins.pivot, ins.right)
}

// insertAt places v at position i of n. The subtree formerly in front of
// position i (the left half of a split child, or nothing for a leaf) becomes
// the smaller subtree of v, and right takes its place in front of the entry
// following v.
func (e *env[T]) insertAt(n *Node[T], i int, v T, right *Node[T]) insertion[T] {
	assertThat(len(n.entries) < e.limit, "insert into full node")
	if i == len(n.entries) {
		n.entries = append(n.entries, entry[T]{value: v, smaller: n.greater})
		n.greater = right
		return e.split(n)
	}
	n.entries = append(n.entries, entry[T]{})
	copy(n.entries[i+1:], n.entries[i:])
	n.entries[i] = entry[T]{value: v, smaller: n.entries[i+1].smaller}
	n.entries[i+1].smaller = right
	return e.split(n)
}

// split splits n if it reached the split limit.
//
// The median entry is the pivot. Entries after it move into a new right
// sibling, which also takes over the greater subtree of n. n keeps the entries
// before the pivot and adopts the pivot's smaller subtree as its greater one.
func (e *env[T]) split(n *Node[T]) insertion[T] {
	if len(n.entries) < e.limit {
		return insertion[T]{}
	}
	mid := e.limit / 2
	pivot := n.entries[mid]
	right := e.newNode()
	right.entries = append(right.entries, n.entries[mid+1:]...)
	right.greater = n.greater
	n.greater = pivot.smaller
	clear(n.entries[mid:])
	n.entries = n.entries[:mid]
	return insertion[T]{right: right, pivot: pivot.value, split: true}
}

// grow creates a new root above a split root. The old root becomes the smaller
// subtree of the pivot, the new right sibling its greater one.
func (e *env[T]) grow(left *Node[T], ins insertion[T]) *Node[T] {
	root := e.newNode()
	root.entries = append(root.entries, entry[T]{value: ins.pivot, smaller: left})
	root.greater = ins.right
	tracer().Debugf("%s: root split, height now %d", e.name, root.height())
	return root
}
