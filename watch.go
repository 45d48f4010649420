package cowtree

import (
	"context"

	"github.com/guiguan/caster"
)

// Commit announces a version published by an AtomicSet.
//
// A Commit keeps the published version alive. Commits are shared between all
// watchers, so the version is handed out through Snapshot only.
type Commit[T any] struct {
	// Seq numbers the versions of a set, starting at 1 for the first commit.
	Seq  uint64
	snap *Set[T]
}

// Snapshot returns the committed version as a set owned by the caller.
func (c Commit[T]) Snapshot() *Set[T] {
	return c.snap.Clone()
}

// Len returns the number of values in the committed version.
func (c Commit[T]) Len() int {
	return c.snap.Len()
}

// Watch subscribes to the commits of a. Every subsequent successful Edit or
// Store sends a Commit on the returned channel. The subscription ends, and the
// channel is closed, when ctx is done or a is closed. Watching a closed set
// yields a closed channel.
//
// Writers never wait for watchers. A commit arriving while the channel buffer
// (of size capacity) is full is dropped for this watcher; gaps in Commit.Seq
// show where. Commits of concurrent writers may arrive out of order.
func (a *AtomicSet[T]) Watch(ctx context.Context, capacity uint) <-chan Commit[T] {
	out := make(chan Commit[T], capacity)
	a.castMu.Lock()
	if a.closed {
		a.castMu.Unlock()
		close(out)
		return out
	}
	c := a.cast.Load()
	if c == nil {
		c = caster.New(nil)
		a.cast.Store(c)
	}
	sub, ok := c.Sub(ctx, capacity)
	a.castMu.Unlock()
	if !ok {
		close(out)
		return out
	}
	go func() {
		defer close(out)
		for {
			select {
			case m, ok := <-sub:
				if !ok {
					return
				}
				select {
				case out <- m.(Commit[T]):
				default:
					tracer().Debugf("%s: watcher lags behind, dropped commit %d",
						a.env.name, m.(Commit[T]).Seq)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// publish offers a committed version to watchers without waiting for them.
// root carries a reference for the Commit.
func (a *AtomicSet[T]) publish(seq uint64, root *Node[T]) {
	c := a.cast.Load()
	if c == nil || !c.TryPub(Commit[T]{Seq: seq, snap: a.env.handle(root)}) {
		a.env.release(root)
	}
}
