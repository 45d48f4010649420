package cowtree

import (
	"fmt"

	"github.com/npillmayer/cowtree/alloc"
)

const (
	// DefaultSplitLimit is the number of entries at which a node splits, if a
	// configuration does not name one.
	DefaultSplitLimit = 5
	// MaxSplitLimit bounds the node capacity a configuration may ask for.
	MaxSplitLimit = 255
	// DefaultName labels traces and metrics of trees without a configured name.
	DefaultName = "cowtree"
)

// Config configures a shared B-tree holding values of type T.
type Config[T any] struct {
	// Compare is a strict total order over T. It is required.
	Compare func(a, b T) int
	// SplitLimit is the number of entries at which a node splits. It has to be
	// odd and at least 3. Zero selects DefaultSplitLimit.
	SplitLimit int
	// Replace selects the duplicate policy: if set, inserting a value equal to a
	// stored one replaces it, otherwise the new value is rejected.
	Replace bool
	// Allocator hands out tree nodes. Nil selects alloc.Heap.
	Allocator alloc.Allocator[Node[T]]
	// Name labels traces and metrics.
	Name string
}

func (cfg Config[T]) normalized() Config[T] {
	if cfg.SplitLimit == 0 {
		cfg.SplitLimit = DefaultSplitLimit
	}
	if cfg.Allocator == nil {
		cfg.Allocator = alloc.Heap[Node[T]]{}
	}
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	return cfg
}

func (cfg Config[T]) validate() error {
	cfg = cfg.normalized()
	if cfg.Compare == nil {
		return fmt.Errorf("%w: comparator is required", ErrInvalidConfig)
	}
	if cfg.SplitLimit < 3 || cfg.SplitLimit > MaxSplitLimit {
		return fmt.Errorf("%w: split limit must be in [3, %d], is %d",
			ErrInvalidConfig, MaxSplitLimit, cfg.SplitLimit)
	}
	if cfg.SplitLimit%2 == 0 {
		return fmt.Errorf("%w: split limit must be odd, is %d", ErrInvalidConfig, cfg.SplitLimit)
	}
	return nil
}

// MapConfig configures a map from K to V.
type MapConfig[K, V any] struct {
	// Compare is a strict total order over keys. It is required.
	Compare func(a, b K) int
	// SplitLimit is the number of entries at which a node splits (odd, >= 3).
	// Zero selects DefaultSplitLimit.
	SplitLimit int
	// Allocator hands out tree nodes. Nil selects alloc.Heap.
	Allocator alloc.Allocator[Node[Entry[K, V]]]
	// Name labels traces and metrics.
	Name string
}

// setConfig derives the configuration of the underlying set. Map entries are
// ordered by key only, and inserting always replaces.
func (cfg MapConfig[K, V]) setConfig() Config[Entry[K, V]] {
	setcfg := Config[Entry[K, V]]{
		SplitLimit: cfg.SplitLimit,
		Replace:    true,
		Allocator:  cfg.Allocator,
		Name:       cfg.Name,
	}
	if keycmp := cfg.Compare; keycmp != nil {
		setcfg.Compare = func(a, b Entry[K, V]) int {
			return keycmp(a.Key, b.Key)
		}
	}
	return setcfg
}

// env is the immutable environment shared by all handles and nodes derived
// from one constructor call.
type env[T any] struct {
	compare func(a, b T) int
	limit   int
	replace bool
	alloc   alloc.Allocator[Node[T]]
	name    string
}

func newEnv[T any](cfg Config[T]) (*env[T], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.normalized()
	return &env[T]{
		compare: cfg.Compare,
		limit:   cfg.SplitLimit,
		replace: cfg.Replace,
		alloc:   cfg.Allocator,
		name:    cfg.Name,
	}, nil
}

// probe returns a search function locating values equal to key.
func (e *env[T]) probe(key T) func(T) int {
	return func(v T) int {
		return e.compare(v, key)
	}
}
