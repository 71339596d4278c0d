// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import (
	"sync/atomic"
	"time"
)

// Unfolder fills child with the next constituent event of parent and
// reports whether parent has no further children (done). Called
// repeatedly across many Execute calls for the same parent, per
// spec.md §4.5.
type Unfolder interface {
	Unfold(parent, child *Event, loc int) (done bool, err error)
}

// UnfoldArrow splits a parent timeslice into child events across
// repeated Execute calls, holding the in-progress parent between calls
// instead of popping a fresh input item every time the base
// PipelineArrow protocol assumes. Sequential, per spec.md §4.5: "the
// unfolder itself is sequential; children can subsequently be processed
// in parallel by downstream map arrows."
type UnfoldArrow struct {
	*PipelineArrow
	unfolder  Unfolder
	factories *FactorySetPool // nil if no factory runs downstream of this unfold

	current *Event
}

// NewUnfoldArrow builds an UnfoldArrow reading parents from in and
// writing children to out, drawing child Events from childPool.
// factories recycles the FactorySet each child is bound to; may be nil
// if no factory runs downstream of this unfold.
func NewUnfoldArrow(name string, in, out *Mailbox[*Event], childPool *Pool[Event], factories *FactorySetPool, unfolder Unfolder) *UnfoldArrow {
	ua := &UnfoldArrow{unfolder: unfolder, factories: factories}
	ua.PipelineArrow = NewPipelineArrow(name, false, in, out, childPool, nil)
	return ua
}

// Execute overrides PipelineArrow's generic 1-pop/1-push cycle: an
// unfold is 1 parent in, many children out.
func (ua *UnfoldArrow) Execute(loc int) ArrowStatus {
	overheadStart := time.Now()

	if ua.out != nil {
		if ua.out.Reserve(1, loc) == 0 {
			return StatusComeBackLater
		}
	}

	if ua.current == nil {
		parent, status := ua.in.Pop(loc)
		if status != StatusOk {
			if ua.out != nil {
				ua.out.Release(1, loc)
			}
			if ua.upstreamDrained() {
				_ = ua.Finalize()
				ua.metrics.Publish(0, time.Since(overheadStart), StatusFinished)
				return StatusFinished
			}
			return StatusComeBackLater
		}
		ua.current = parent
		atomic.StoreInt64(&ua.current.ChildTotal, -1)
	}

	child := ua.itemPool.Get(loc)
	if child == nil {
		if ua.out != nil {
			ua.out.Release(1, loc)
		}
		return StatusComeBackLater
	}

	if ua.factories != nil {
		fs := ua.factories.Get(loc)
		if fs == nil {
			ua.itemPool.Put(child, loc)
			if ua.out != nil {
				ua.out.Release(1, loc)
			}
			return StatusComeBackLater
		}
		child.bindFactorySet(fs, ua.factories, loc)
	}

	latencyStart := time.Now()
	child.RunNr = ua.current.RunNr
	child.Lvl = PhysicsEvent
	child.Parent = ua.current
	done, err := ua.unfolder.Unfold(ua.current, child, loc)
	latency := time.Since(latencyStart)

	if err != nil {
		ua.itemPool.Put(child, loc)
		if ua.out != nil {
			ua.out.Release(1, loc)
		}
		ua.metrics.Publish(latency, time.Since(overheadStart)-latency, StatusError)
		return StatusError
	}

	atomic.AddInt64(&ua.current.ChildPending, 1)
	if done {
		final := atomic.LoadInt64(&ua.current.ChildPending)
		atomic.StoreInt64(&ua.current.ChildTotal, final)
		ua.current = nil
	}

	if ua.out != nil {
		_ = ua.out.Push(&child, loc)
	}
	ua.metrics.Publish(latency, time.Since(overheadStart)-latency, StatusKeepGoing)
	return StatusKeepGoing
}
