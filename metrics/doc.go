/*
Package metrics exports Prometheus metrics for shared trees.

Atomic sets report committed edits, compare-and-swap conflicts, no-op edits and
reclaimed snapshots, labelled with the name of the tree (see cowtree.Config).
Collectors are registered with the default Prometheus registry.

_________________________________________________________________________

# BSD 3-Clause License

# Copyright (c) Norbert Pillmayer

Please refer to the LICENSE file for details.
*/
package metrics

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'cowtree'
func tracer() tracing.Trace {
	return tracing.Select("cowtree")
}
