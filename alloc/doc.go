/*
Package alloc provides node allocators for copy-on-write trees.

Trees hand out fixed-size nodes through an Allocator and give them back once the
last reference to a node has been dropped. The Go runtime owns the memory in any
case; allocators decide whether released nodes are recycled, counted or limited.

Provided allocators:
  - Heap: plain `new(N)`, Free is a no-op. This is the default.
  - Pool: recycles released nodes through a sync.Pool.
  - Counting: wraps another allocator and keeps live/total counters.
  - Bounded: wraps another allocator and refuses requests beyond a node budget.

Allocation failure is signalled by a nil result. Trees treat this as fatal.

_________________________________________________________________________

# BSD 3-Clause License

# Copyright (c) Norbert Pillmayer

Please refer to the LICENSE file for details.
*/
package alloc

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'cowtree'
func tracer() tracing.Trace {
	return tracing.Select("cowtree")
}
