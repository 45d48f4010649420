/*
Package cowtree offers ordered sets and maps built on a shared, copy-on-write B-tree.

Shared trees

A tree is made of fixed-capacity nodes. Every node carries a reference count, and
any number of sets may point at the same node. A node referenced more than once is
never changed: an insert which has to touch it makes a private one-level copy
first, re-sharing the children of the original. Cloning a set is therefore a
single reference count increment, and a clone diverges from its origin only along
the paths which are actually modified.

	a := cowtree.NewOrdered[int]()
	a.Insert(1)
	b := a.Clone()     // shares every node with a
	b.Insert(2)        // copies the root of b, a still holds {1}

Nodes hold up to N-1 entries, where N is the (odd) split limit of the tree. When
an insert fills a node to N entries, the median entry is promoted to the parent
and the node is split in two halves. A split of the root is the only way a tree
grows in height.

Sets reject duplicates by default: inserting a value which is already present
returns that value and leaves the set untouched. Maps compare entries by key only
and always replace the value of an existing key.

Lock-free snapshots

AtomicSet and AtomicMap hold the current version of a tree in a single atomic slot.
Readers load the slot and search the snapshot they found; they never block and
never see a partially applied change. Writers call Edit with a function which
derives a new version from the current one; the new version is published with a
compare-and-swap. If another writer was faster, the function is called again with
the newer version. Functions passed to Edit must therefore be free of side effects.

	s := cowtree.NewAtomicOrdered[string]()
	s.Edit(func(cur *cowtree.Set[string]) *cowtree.Set[string] {
	    cur.Insert("hello")
	    return cur
	})

Non-goals: trees support neither deletion nor range queries. Iteration visits
values in ascending order.

_________________________________________________________________________

BSD 3-Clause License

Copyright (c) Norbert Pillmayer

All rights reserved.

Redistribution and use in source and binary forms, with or without
modification, are permitted provided that the following conditions are met:

1. Redistributions of source code must retain the above copyright notice, this
list of conditions and the following disclaimer.

2. Redistributions in binary form must reproduce the above copyright notice,
this list of conditions and the following disclaimer in the documentation
and/or other materials provided with the distribution.

3. Neither the name of the copyright holder nor the names of its
contributors may be used to endorse or promote products derived from
this software without specific prior written permission.

THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE LIABLE
FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL
DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER
CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY,
OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.

*/
package cowtree

import (
	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
)

// T traces to a global core-tracer.
func T() tracing.Trace {
	return gtrace.CoreTracer
}

// tracer is T for generic code, where T names a type parameter.
func tracer() tracing.Trace {
	return gtrace.CoreTracer
}

// TreeError is an error type for the cowtree module
type TreeError string

func (e TreeError) Error() string {
	return string(e)
}

// ErrInvalidConfig is flagged whenever a tree configuration is unusable, e.g.
// when the comparator is missing or the split limit is even.
const ErrInvalidConfig = TreeError("cowtree: invalid configuration")

// ErrAllocationFailure is the panic value raised when the allocator of a tree
// cannot serve a node request. Trees do not recover from allocation failure.
const ErrAllocationFailure = TreeError("cowtree: node allocation failed")

// ErrCorruptTree is flagged by Check if a structural invariant does not hold.
const ErrCorruptTree = TreeError("cowtree: tree invariants violated")

func assertThat(condition bool, msg string) {
	if !condition {
		panic(msg)
	}
}
