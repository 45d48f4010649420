package alloc

import (
	"sync"

	"go.uber.org/atomic"
)

// Allocator hands out nodes of type N and takes them back.
//
// Alloc returns nil if the request cannot be served. A node passed to Free must
// not be referenced by the caller afterwards. Implementations must be safe for
// concurrent use, as every snapshot of a shared tree allocates through the same
// handle.
type Allocator[N any] interface {
	Alloc() *N
	Free(*N)
}

// --- Heap ------------------------------------------------------------------

// Heap allocates nodes from the Go heap and leaves reclamation to the garbage
// collector.
type Heap[N any] struct{}

// Alloc returns a fresh zero node.
func (Heap[N]) Alloc() *N { return new(N) }

// Free is a no-op.
func (Heap[N]) Free(*N) {}

// --- Pool ------------------------------------------------------------------

// Pool recycles released nodes.
//
// Recycled nodes keep their internal buffers, so a tree allocating through a
// Pool re-uses entry storage of nodes it released earlier. Callers receive
// nodes in whatever state they were freed in and have to reset them.
type Pool[N any] struct {
	pool sync.Pool
}

// NewPool creates an empty node pool.
func NewPool[N any]() *Pool[N] {
	return &Pool[N]{
		pool: sync.Pool{
			New: func() any { return new(N) },
		},
	}
}

// Alloc returns a recycled node if one is available, a fresh one otherwise.
func (p *Pool[N]) Alloc() *N {
	return p.pool.Get().(*N)
}

// Free puts n back into the pool.
func (p *Pool[N]) Free(n *N) {
	if n == nil {
		return
	}
	p.pool.Put(n)
}

// --- Counting --------------------------------------------------------------

// Counting wraps an allocator and counts allocations and releases.
//
// It is mainly used to verify that trees give back every node they allocate.
type Counting[N any] struct {
	inner  Allocator[N]
	allocs atomic.Int64
	frees  atomic.Int64
}

// NewCounting wraps inner. If inner is nil, Heap is used.
func NewCounting[N any](inner Allocator[N]) *Counting[N] {
	if inner == nil {
		inner = Heap[N]{}
	}
	return &Counting[N]{inner: inner}
}

// Alloc delegates to the wrapped allocator and counts successful requests.
func (c *Counting[N]) Alloc() *N {
	n := c.inner.Alloc()
	if n != nil {
		c.allocs.Inc()
	}
	return n
}

// Free counts the release and delegates to the wrapped allocator.
func (c *Counting[N]) Free(n *N) {
	if n == nil {
		return
	}
	c.frees.Inc()
	c.inner.Free(n)
}

// Allocs returns the number of nodes handed out so far.
func (c *Counting[N]) Allocs() int64 { return c.allocs.Load() }

// Frees returns the number of nodes given back so far.
func (c *Counting[N]) Frees() int64 { return c.frees.Load() }

// Live returns the number of nodes currently handed out.
func (c *Counting[N]) Live() int64 { return c.allocs.Load() - c.frees.Load() }

// --- Bounded ---------------------------------------------------------------

// Bounded wraps an allocator and refuses to hand out more than a fixed number
// of nodes at the same time.
type Bounded[N any] struct {
	inner Allocator[N]
	limit int64
	live  atomic.Int64
}

// NewBounded wraps inner with a budget of limit live nodes. If inner is nil,
// Heap is used.
func NewBounded[N any](inner Allocator[N], limit int) *Bounded[N] {
	if inner == nil {
		inner = Heap[N]{}
	}
	return &Bounded[N]{inner: inner, limit: int64(limit)}
}

// Alloc returns nil if the budget is exhausted.
func (b *Bounded[N]) Alloc() *N {
	if b.live.Inc() > b.limit {
		b.live.Dec()
		tracer().Debugf("bounded allocator: budget of %d nodes exhausted", b.limit)
		return nil
	}
	n := b.inner.Alloc()
	if n == nil {
		b.live.Dec()
	}
	return n
}

// Free returns a node to the budget.
func (b *Bounded[N]) Free(n *N) {
	if n == nil {
		return
	}
	b.live.Dec()
	b.inner.Free(n)
}

// Live returns the number of nodes currently handed out.
func (b *Bounded[N]) Live() int64 { return b.live.Load() }
