package cowtree

import (
	"cmp"
	"sync"

	"github.com/guiguan/caster"
	"github.com/npillmayer/cowtree/metrics"
	"go.uber.org/atomic"
)

// AtomicSet holds the current version of a set in a single atomic slot.
//
// Any number of goroutines may read and edit an AtomicSet concurrently. Readers
// never block: they search the snapshot which was current when they started,
// and never observe a partially applied edit. Writers derive a new version from
// the current one and publish it with a compare-and-swap, retrying when another
// writer was faster.
//
// Every version counts the readers and writers pinning it. A version replaced
// by a newer one is retired, and its nodes are given back to the allocator as
// soon as its last pin is dropped. Nothing a reader may still look at is ever
// recycled underneath it, and a long-running reader keeps only its own version
// alive.
type AtomicSet[T any] struct {
	env  *env[T]
	slot atomic.Pointer[version[T]] // nil is the empty set

	retired atomic.Int64 // retired versions still pinned
	stats   counters
	metrics *metrics.Tree
	cast    atomic.Pointer[caster.Caster] // created by the first Watch
	castMu  sync.Mutex                    // guards creation of cast and closed
	closed  bool
}

// version is a published root together with its pins.
type version[T any] struct {
	root     *Node[T] // reference held by the version
	seq      uint64
	pins     atomic.Int64
	retired  atomic.Bool
	released atomic.Bool
}

func (v *version[T]) tree() *Node[T] {
	if v == nil {
		return nil
	}
	return v.root
}

func (v *version[T]) seqno() uint64 {
	if v == nil {
		return 0
	}
	return v.seq
}

type counters struct {
	commits, conflicts, unchanged, reclaimed atomic.Uint64
}

// Stats is a summary of the activity of an AtomicSet.
type Stats struct {
	Commits   uint64 // edits which published a new version
	Conflicts uint64 // edit attempts lost to a concurrent commit
	Unchanged uint64 // edits which returned the version they were given
	Reclaimed uint64 // retired versions released
	Retired   int    // retired versions still pinned by readers
}

// NewAtomic creates an empty atomic set with validated configuration.
func NewAtomic[T any](cfg Config[T]) (*AtomicSet[T], error) {
	e, err := newEnv(cfg)
	if err != nil {
		return nil, err
	}
	return &AtomicSet[T]{
		env:     e,
		metrics: metrics.ForTree(e.name),
	}, nil
}

// NewAtomicOrdered creates an empty atomic set of ordered values, using the
// default split limit and rejecting duplicates.
func NewAtomicOrdered[T cmp.Ordered]() *AtomicSet[T] {
	a, err := NewAtomic(Config[T]{Compare: cmp.Compare[T]})
	assertThat(err == nil, "default configuration rejected")
	return a
}

// Get looks up key in the current version and calls f with the result. The
// version stays pinned until f returns, so f should be short.
func (a *AtomicSet[T]) Get(key T, f func(T, bool)) {
	a.Find(a.env.probe(key), f)
}

// Find is like Get for lookups by a key of a different type; see Set.Find.
func (a *AtomicSet[T]) Find(probe func(T) int, f func(T, bool)) {
	v := a.pin()
	defer a.unpin(v)
	found, ok := v.tree().get(probe)
	if f != nil {
		f(found, ok)
	}
}

// Contains reports whether the current version holds a value equal to key.
func (a *AtomicSet[T]) Contains(key T) (found bool) {
	a.Get(key, func(_ T, ok bool) { found = ok })
	return
}

// Len returns the number of values in the current version.
func (a *AtomicSet[T]) Len() int {
	v := a.pin()
	defer a.unpin(v)
	return v.tree().count()
}

// Load returns the current version as a set owned by the caller. Modifying it
// does not affect the atomic set.
func (a *AtomicSet[T]) Load() *Set[T] {
	v := a.pin()
	defer a.unpin(v)
	return a.env.handle(v.tree().acquire())
}

// Edit derives a new version of the set and publishes it.
//
// f is called with a set sharing all nodes with the current version and
// returns the new version, usually the set it was given after some inserts.
// If f returns nil or a set with the very root it was given, Edit returns
// without publishing anything. If another writer published a version while f
// was running, f is called again with that version.
//
// f may thus run several times and must not have side effects beyond
// building its result. The set returned by f is consumed by Edit and must
// not be used afterwards. It has to stem from the set f was given.
func (a *AtomicSet[T]) Edit(f func(*Set[T]) *Set[T]) {
	for {
		v := a.pin()
		if a.attempt(v, f) {
			a.unpin(v)
			return
		}
		a.unpin(v)
		a.stats.conflicts.Inc()
		a.metrics.Conflict()
		tracer().Debugf("%s: edit lost a race, retrying", a.env.name)
	}
}

// attempt runs one round of Edit against the pinned version v. It reports
// false if another writer replaced v in the meantime.
func (a *AtomicSet[T]) attempt(v *version[T], f func(*Set[T]) *Set[T]) bool {
	current := v.tree()
	given := a.env.handle(current.acquire())
	next := f(given)
	if next != given {
		given.Release()
	}
	if next == nil || next.root == current {
		next.Release()
		a.stats.unchanged.Inc()
		a.metrics.Unchanged()
		return true
	}
	assertThat(next.env == a.env, "edit returned a set of a different tree")
	if !a.commit(v, next.root) {
		next.Release()
		return false
	}
	next.root = nil // reference now held by the slot
	return true
}

// commit publishes root as the successor of v. On success the reference to
// root passes to the new version.
func (a *AtomicSet[T]) commit(v *version[T], root *Node[T]) bool {
	nv := &version[T]{root: root, seq: v.seqno() + 1}
	var snap *Node[T]
	watched := a.cast.Load() != nil
	if watched { // acquired up front, as nv may be retired right after the swap
		snap = root.acquire()
	}
	if !a.slot.CompareAndSwap(v, nv) {
		if watched {
			a.env.release(snap)
		}
		return false
	}
	a.retire(v)
	a.stats.commits.Inc()
	a.metrics.Committed()
	if watched {
		a.publish(nv.seq, snap)
	}
	return true
}

// Insert is a shortcut for an Edit inserting v. It returns what Set.Insert
// returned in the attempt which was published.
func (a *AtomicSet[T]) Insert(v T) (old T, found bool) {
	a.Edit(func(s *Set[T]) *Set[T] {
		old, found = s.Insert(v)
		return s
	})
	return
}

// Store replaces the current version by a clone of s, regardless of the
// current content. s has to stem from this atomic set (see Load).
func (a *AtomicSet[T]) Store(s *Set[T]) {
	assertThat(s != nil && s.env == a.env, "store of a set of a different tree")
	for {
		v := a.pin()
		if v.tree() == s.root {
			a.unpin(v)
			return
		}
		root := s.root.acquire()
		ok := a.commit(v, root)
		a.unpin(v)
		if ok {
			return
		}
		a.env.release(root)
	}
}

// Close empties the set, releases all versions as soon as their readers have
// left, and closes all watch channels.
func (a *AtomicSet[T]) Close() {
	a.retire(a.slot.Swap(nil))
	a.castMu.Lock()
	a.closed = true
	if c := a.cast.Swap(nil); c != nil {
		c.Close()
	}
	a.castMu.Unlock()
}

// Stats returns the activity counters of a.
func (a *AtomicSet[T]) Stats() Stats {
	return Stats{
		Commits:   a.stats.commits.Load(),
		Conflicts: a.stats.conflicts.Load(),
		Unchanged: a.stats.unchanged.Load(),
		Reclaimed: a.stats.reclaimed.Load(),
		Retired:   int(a.retired.Load()),
	}
}

// --- Reclamation -----------------------------------------------------------

// pin returns the current version with a pin added, or nil for the empty set.
//
// The slot is re-read after pinning. A version which has been swapped out in
// between may already be released, so pinning is retried with its successor.
func (a *AtomicSet[T]) pin() *version[T] {
	for {
		v := a.slot.Load()
		if v == nil {
			return nil
		}
		v.pins.Inc()
		if a.slot.Load() == v {
			return v
		}
		a.unpin(v)
	}
}

// unpin drops a pin and releases v if it was the last pin of a retired version.
func (a *AtomicSet[T]) unpin(v *version[T]) {
	if v == nil {
		return
	}
	if v.pins.Dec() == 0 && v.retired.Load() {
		a.reclaim(v)
	}
}

// retire marks a version which has been swapped out of the slot.
func (a *AtomicSet[T]) retire(v *version[T]) {
	if v == nil {
		return
	}
	a.retired.Inc()
	a.metrics.Retired()
	v.retired.Store(true)
	if v.pins.Load() == 0 {
		a.reclaim(v)
	}
}

// reclaim releases the nodes of a retired version. Both the retiring writer and
// the last reader may get here; only the first one releases.
func (a *AtomicSet[T]) reclaim(v *version[T]) {
	if !v.released.CompareAndSwap(false, true) {
		return
	}
	a.env.release(v.root)
	a.retired.Dec()
	a.stats.reclaimed.Inc()
	a.metrics.Reclaimed(1)
	tracer().Debugf("%s: reclaimed version %d", a.env.name, v.seq)
}
