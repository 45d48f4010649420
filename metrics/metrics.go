package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EditsCommitted counts edits which published a new snapshot.
var EditsCommitted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cowtree_edits_committed_total",
	Help: "Number of edits which published a new tree snapshot",
}, []string{"tree"})

// EditConflicts counts lost compare-and-swap races, each causing a retry.
var EditConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cowtree_edit_conflicts_total",
	Help: "Number of edit attempts retried after a concurrent commit",
}, []string{"tree"})

// EditsUnchanged counts edits which left the tree unchanged.
var EditsUnchanged = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cowtree_edits_unchanged_total",
	Help: "Number of edits which returned the snapshot they were given",
}, []string{"tree"})

// SnapshotsReclaimed counts retired snapshots given back to the allocator.
var SnapshotsReclaimed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cowtree_snapshots_reclaimed_total",
	Help: "Number of retired tree snapshots released after their last reader left",
}, []string{"tree"})

// SnapshotsRetired tracks snapshots waiting for readers to leave.
var SnapshotsRetired = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "cowtree_snapshots_retired",
	Help: "Number of replaced tree snapshots not yet released",
}, []string{"tree"})

// Tree bundles the metrics of one named tree.
type Tree struct {
	name      string
	committed prometheus.Counter
	conflicts prometheus.Counter
	unchanged prometheus.Counter
	reclaimed prometheus.Counter
	retired   prometheus.Gauge
}

// ForTree returns the metrics labelled with name.
func ForTree(name string) *Tree {
	tracer().Debugf("metrics: collecting for tree %q", name)
	return &Tree{
		name:      name,
		committed: EditsCommitted.WithLabelValues(name),
		conflicts: EditConflicts.WithLabelValues(name),
		unchanged: EditsUnchanged.WithLabelValues(name),
		reclaimed: SnapshotsReclaimed.WithLabelValues(name),
		retired:   SnapshotsRetired.WithLabelValues(name),
	}
}

// Name returns the tree label.
func (t *Tree) Name() string { return t.name }

// Committed records a published snapshot.
func (t *Tree) Committed() { t.committed.Inc() }

// Conflict records a lost compare-and-swap.
func (t *Tree) Conflict() { t.conflicts.Inc() }

// Unchanged records an edit without effect.
func (t *Tree) Unchanged() { t.unchanged.Inc() }

// Retired records a snapshot replaced by a newer one.
func (t *Tree) Retired() { t.retired.Inc() }

// Reclaimed records n released snapshots.
func (t *Tree) Reclaimed(n int) {
	t.reclaimed.Add(float64(n))
	t.retired.Sub(float64(n))
}
