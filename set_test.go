package cowtree

import (
	"cmp"
	"errors"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/btree"
	"github.com/npillmayer/cowtree/alloc"
	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestSetSplitsRootAtLimit(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "cowtree")
	defer teardown()
	gtrace.CoreTracer.SetTraceLevel(tracing.LevelDebug)
	//
	s := NewOrdered[int]()
	for _, v := range []int{10, 20, 30, 40} {
		if _, found := s.Insert(v); found {
			t.Fatalf("insert of %d reported a duplicate", v)
		}
	}
	if s.Height() != 1 {
		t.Fatalf("expected a single node below the split limit, height is %d", s.Height())
	}
	s.Insert(50)
	t.Logf("s = %s", s)
	if s.Height() != 2 {
		t.Errorf("expected root split, height is %d", s.Height())
	}
	if len(s.root.entries) != 1 || s.root.entries[0].value != 30 {
		t.Errorf("expected root to hold the single pivot 30, is %s", s)
	}
	if s.String() != "Set{{10, 20}, 30, {40, 50}}" {
		t.Errorf("unexpected tree structure %s", s)
	}
	if s.Len() != 5 {
		t.Errorf("expected 5 values, have %d", s.Len())
	}
	if err := s.Check(); err != nil {
		t.Error(err)
	}
}

func TestSetInsertInnerSplit(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "cowtree")
	defer teardown()
	//
	s := NewOrdered[int]()
	for v := 1; v <= 200; v++ {
		s.Insert(v)
		if err := s.Check(); err != nil {
			t.Fatalf("after inserting %d: %v", v, err)
		}
	}
	for v := 400; v > 200; v -= 2 {
		s.Insert(v)
	}
	if err := s.Check(); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 300 {
		t.Errorf("expected 300 values, have %d", s.Len())
	}
	if s.Height() < 3 {
		t.Errorf("expected inner nodes to split, height is %d", s.Height())
	}
	for v := 1; v <= 200; v++ {
		if !s.Contains(v) {
			t.Fatalf("value %d is missing", v)
		}
	}
	if s.Contains(201) || s.Contains(0) {
		t.Errorf("found values never inserted")
	}
}

func TestSetAgainstOracle(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "cowtree")
	defer teardown()
	//
	faker := gofakeit.New(42)
	for _, limit := range []int{3, 5, 7, 21} {
		s, err := New(Config[int]{Compare: cmp.Compare[int], SplitLimit: limit})
		if err != nil {
			t.Fatal(err)
		}
		oracle := btree.NewOrderedG[int](4)
		for range_i := 0; range_i < 2000; range_i++ {
			v := faker.Number(0, 5000)
			_, found := s.Insert(v)
			_, had := oracle.ReplaceOrInsert(v)
			if found != had {
				t.Fatalf("limit %d: insert(%d) reported found=%v, oracle says %v", limit, v, found, had)
			}
		}
		if err := s.Check(); err != nil {
			t.Fatalf("limit %d: %v", limit, err)
		}
		if s.Len() != oracle.Len() {
			t.Fatalf("limit %d: expected %d values, have %d", limit, oracle.Len(), s.Len())
		}
		values := s.Values()
		i := 0
		oracle.Ascend(func(v int) bool {
			if values[i] != v {
				t.Fatalf("limit %d: value #%d is %d, expected %d", limit, i, values[i], v)
			}
			i++
			return true
		})
	}
}

func TestSetRejectsDuplicates(t *testing.T) {
	type item struct {
		key  int
		name string
	}
	bykey := func(a, b item) int { return cmp.Compare(a.key, b.key) }
	s, err := New(Config[item]{Compare: bykey})
	if err != nil {
		t.Fatal(err)
	}
	s.Insert(item{1, "first"})
	v, found := s.Insert(item{1, "second"})
	if !found || v.name != "second" {
		t.Errorf("expected rejected value to be returned, got %v/%v", v, found)
	}
	if got, _ := s.Get(item{key: 1}); got.name != "first" {
		t.Errorf("rejected insert modified the set, value is %q", got.name)
	}
	//
	r, _ := New(Config[item]{Compare: bykey, Replace: true})
	r.Insert(item{1, "first"})
	old, found := r.Insert(item{1, "second"})
	if !found || old.name != "first" {
		t.Errorf("expected replaced value to be returned, got %v/%v", old, found)
	}
	if got, _ := r.Get(item{key: 1}); got.name != "second" {
		t.Errorf("expected replacement to be stored, value is %q", got.name)
	}
}

func TestSetFindByProbe(t *testing.T) {
	s := NewOrdered[string]()
	for _, w := range []string{"apple", "banana", "cherry", "date", "elderberry", "fig"} {
		s.Insert(w)
	}
	v, ok := s.Find(func(w string) int { return cmp.Compare(w[:1], "d") })
	if !ok || v != "date" {
		t.Errorf("expected to find date, got %q", v)
	}
	if _, ok := s.Find(nil); ok {
		t.Errorf("nil probe must not find anything")
	}
	var empty *Set[string]
	if _, ok := empty.Get("x"); ok || empty.Len() != 0 {
		t.Errorf("nil set must behave like an empty one")
	}
}

func TestSetCloneIsolation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "cowtree")
	defer teardown()
	//
	s := NewOrdered[int]()
	for v := 0; v < 100; v++ {
		s.Insert(2 * v)
	}
	c := s.Clone()
	if c.root != s.root || !s.root.shared() {
		t.Fatalf("expected clone to share its root")
	}
	for v := 0; v < 100; v++ {
		c.Insert(2*v + 1)
	}
	if s.Len() != 100 || c.Len() != 200 {
		t.Errorf("expected 100 and 200 values, have %d and %d", s.Len(), c.Len())
	}
	if s.Contains(1) || !c.Contains(1) {
		t.Errorf("insert into clone leaked into original")
	}
	s.Insert(1000)
	if c.Contains(1000) {
		t.Errorf("insert into original leaked into clone")
	}
	if err := s.Check(); err != nil {
		t.Error(err)
	}
	if err := c.Check(); err != nil {
		t.Error(err)
	}
}

func TestSetReleaseReturnsAllNodes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "cowtree")
	defer teardown()
	//
	counting := alloc.NewCounting[Node[int]](nil)
	s, err := New(Config[int]{Compare: cmp.Compare[int], Allocator: counting})
	if err != nil {
		t.Fatal(err)
	}
	for v := 0; v < 50; v++ {
		s.Insert(v)
	}
	c := s.Clone()
	for v := 50; v < 80; v++ {
		c.Insert(v)
	}
	d := c.Clone()
	d.Insert(-1)
	if counting.Live() == 0 {
		t.Fatalf("expected live nodes")
	}
	t.Logf("%d nodes live for 3 sets", counting.Live())
	s.Release()
	if !s.IsEmpty() || s.Len() != 0 {
		t.Errorf("released set is not empty")
	}
	if d.Len() != 81 || c.Len() != 80 {
		t.Errorf("release of a set affected its clones")
	}
	c.Release()
	d.Release()
	if counting.Live() != 0 {
		t.Errorf("expected all nodes to be freed, %d are live", counting.Live())
	}
}

func TestSetWithPoolAllocator(t *testing.T) {
	pool := alloc.NewPool[Node[int]]()
	s, err := New(Config[int]{Compare: cmp.Compare[int], SplitLimit: 7, Allocator: pool})
	if err != nil {
		t.Fatal(err)
	}
	for round := 0; round < 3; round++ {
		for v := 0; v < 300; v++ {
			s.Insert(v * (round + 1))
		}
		if err := s.Check(); err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		s.Release()
	}
}

func TestSetAllocationFailurePanics(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "cowtree")
	defer teardown()
	//
	bounded := alloc.NewBounded[Node[int]](nil, 2)
	s, err := New(Config[int]{Compare: cmp.Compare[int], Allocator: bounded})
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected allocation failure to panic")
		}
		if e, ok := r.(error); !ok || !errors.Is(e, ErrAllocationFailure) {
			t.Errorf("expected ErrAllocationFailure, got %v", r)
		}
	}()
	for v := 0; v < 5; v++ { // fifth value splits the root, needing 3 nodes
		s.Insert(v)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config[int]
		ok   bool
	}{
		{"default", Config[int]{Compare: cmp.Compare[int]}, true},
		{"no comparator", Config[int]{}, false},
		{"even limit", Config[int]{Compare: cmp.Compare[int], SplitLimit: 4}, false},
		{"limit too small", Config[int]{Compare: cmp.Compare[int], SplitLimit: 1}, false},
		{"limit too large", Config[int]{Compare: cmp.Compare[int], SplitLimit: 257}, false},
		{"smallest limit", Config[int]{Compare: cmp.Compare[int], SplitLimit: 3}, true},
		{"largest limit", Config[int]{Compare: cmp.Compare[int], SplitLimit: MaxSplitLimit}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.cfg)
			if tt.ok && (err != nil || s == nil) {
				t.Errorf("expected configuration to be accepted, got %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestCheckDetectsCorruption(t *testing.T) {
	s := NewOrdered[int]()
	for v := 0; v < 20; v++ {
		s.Insert(v)
	}
	if err := s.Check(); err != nil {
		t.Fatal(err)
	}
	leaf := s.root
	for leaf.child(0) != nil {
		leaf = leaf.child(0)
	}
	leaf.entries[0].value, leaf.entries[1].value = leaf.entries[1].value, leaf.entries[0].value
	if err := s.Check(); !errors.Is(err, ErrCorruptTree) {
		t.Errorf("expected swapped entries to be detected, got %v", err)
	}
}

func TestSetEachStopsEarly(t *testing.T) {
	s := NewOrdered[int]()
	for v := 99; v >= 0; v-- {
		s.Insert(v)
	}
	var seen []int
	s.Each(func(v int) bool {
		seen = append(seen, v)
		return v < 9
	})
	if len(seen) != 10 || seen[0] != 0 || seen[9] != 9 {
		t.Errorf("expected iteration over 0…9, got %v", seen)
	}
}

func TestSetString(t *testing.T) {
	s := NewOrdered[string]()
	if s.String() != "Set{}" {
		t.Errorf("unexpected rendering of empty set: %s", s)
	}
	s.Insert("b")
	s.Insert("a")
	if s.String() != "Set{a, b}" {
		t.Errorf("unexpected rendering %s", s)
	}
}

func TestZeroSetIsReadOnly(t *testing.T) {
	var zero Set[int]
	if zero.Len() != 0 || zero.Contains(1) || !zero.IsEmpty() {
		t.Errorf("zero set must behave like an empty one")
	}
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected insert into a zero set to panic")
		}
	}()
	zero.Insert(1)
}
