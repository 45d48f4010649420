package cowtree

import "fmt"

// Check validates the structural invariants of s.
//
// This checker is strict and walks the complete tree; it is meant for tests
// and debugging. Violations indicate a broken comparator or misuse of a set
// from concurrent goroutines.
func (s *Set[T]) Check() error {
	if s == nil {
		return fmt.Errorf("%w: nil set", ErrCorruptTree)
	}
	if s.root == nil {
		return nil
	}
	_, err := s.checkNode(s.root, true, nil, nil)
	return err
}

// checkNode checks the subtree rooted at n, whose values have to lie strictly
// between lo and hi (if given). It returns the height of the subtree.
func (s *Set[T]) checkNode(n *Node[T], isRoot bool, lo, hi *T) (int, error) {
	e := s.env
	if n.refs.Load() < 1 {
		return 0, fmt.Errorf("%w: reachable node with reference count %d", ErrCorruptTree, n.refs.Load())
	}
	if len(n.entries) == 0 {
		return 0, fmt.Errorf("%w: empty node", ErrCorruptTree)
	}
	if len(n.entries) >= e.limit {
		return 0, fmt.Errorf("%w: node holds %d entries, split limit is %d",
			ErrCorruptTree, len(n.entries), e.limit)
	}
	if cap(n.entries) != e.limit {
		return 0, fmt.Errorf("%w: node capacity %d differs from split limit %d",
			ErrCorruptTree, cap(n.entries), e.limit)
	}
	if !isRoot && len(n.entries) < e.limit/2 {
		return 0, fmt.Errorf("%w: non-root node holds %d entries, minimum is %d",
			ErrCorruptTree, len(n.entries), e.limit/2)
	}
	leaf := n.greater == nil
	for i := range n.entries {
		if (n.entries[i].smaller == nil) != leaf {
			return 0, fmt.Errorf("%w: node mixes leaf and inner entries", ErrCorruptTree)
		}
	}
	last := lo
	for i := range n.entries {
		v := &n.entries[i].value
		if last != nil && e.compare(*last, *v) >= 0 {
			return 0, fmt.Errorf("%w: entry %d out of order (%v after %v)", ErrCorruptTree, i, *v, *last)
		}
		if hi != nil && e.compare(*v, *hi) >= 0 {
			return 0, fmt.Errorf("%w: entry %d out of order (%v before %v)", ErrCorruptTree, i, *v, *hi)
		}
		last = v
	}
	if leaf {
		return 1, nil
	}
	var height int
	prev := lo
	for i := range n.entries {
		h, err := s.checkNode(n.entries[i].smaller, false, prev, &n.entries[i].value)
		if err != nil {
			return 0, err
		}
		if i == 0 {
			height = h
		} else if h != height {
			return 0, fmt.Errorf("%w: non-uniform subtree heights", ErrCorruptTree)
		}
		prev = &n.entries[i].value
	}
	h, err := s.checkNode(n.greater, false, prev, hi)
	if err != nil {
		return 0, err
	}
	if h != height {
		return 0, fmt.Errorf("%w: non-uniform subtree heights", ErrCorruptTree)
	}
	return height + 1, nil
}
