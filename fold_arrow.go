// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import (
	"sync/atomic"
	"time"
)

// Folder accumulates child's results onto its parent. Called once per
// child; the parent is released once every child Unfold produced for
// it has been folded.
type Folder interface {
	Fold(parent, child *Event) error
}

// FoldArrow is the inverse of UnfoldArrow: many children in, one
// parent out per completed group. Sequential, per spec.md §4.5.
type FoldArrow struct {
	*PipelineArrow
	folder    Folder
	childPool *Pool[Event]
}

// NewFoldArrow builds a FoldArrow reading children from in, releasing
// completed parents to out, and returning folded children to
// childPool.
func NewFoldArrow(name string, in, out *Mailbox[*Event], childPool *Pool[Event]) *FoldArrow {
	fa := &FoldArrow{childPool: childPool}
	fa.PipelineArrow = NewPipelineArrow(name, false, in, out, nil, nil)
	return fa
}

func (fa *FoldArrow) SetFolder(f Folder) { fa.folder = f }

// Execute overrides PipelineArrow's generic cycle: a child pop does
// not always yield a parent push, only the pop that completes its
// parent's group does.
func (fa *FoldArrow) Execute(loc int) ArrowStatus {
	overheadStart := time.Now()

	// Output space is reserved before the pop, so a child that completes
	// its parent's group always has room to push that parent.
	if fa.out != nil && fa.out.Reserve(1, loc) == 0 {
		return StatusComeBackLater
	}

	child, status := fa.in.Pop(loc)
	if status != StatusOk {
		if fa.out != nil {
			fa.out.Release(1, loc)
		}
		if fa.upstreamDrained() {
			_ = fa.Finalize()
			fa.metrics.Publish(0, time.Since(overheadStart), StatusFinished)
			return StatusFinished
		}
		return StatusComeBackLater
	}
	parent := child.Parent

	latencyStart := time.Now()
	err := fa.folder.Fold(parent, child)
	latency := time.Since(latencyStart)

	if err != nil {
		if fa.out != nil {
			fa.out.Release(1, loc)
		}
		fa.childPool.Put(child, loc)
		fa.metrics.Publish(latency, time.Since(overheadStart)-latency, StatusError)
		return StatusError
	}
	fa.childPool.Put(child, loc)

	pending := atomic.AddInt64(&parent.ChildPending, -1)
	total := atomic.LoadInt64(&parent.ChildTotal)

	if total >= 0 && pending == 0 {
		if fa.out != nil {
			// Guaranteed to fit: reserved before the pop.
			_ = fa.out.Push(&parent, loc)
		}
		fa.metrics.Publish(latency, time.Since(overheadStart)-latency, StatusKeepGoing)
		return StatusKeepGoing
	}

	if fa.out != nil {
		fa.out.Release(1, loc)
	}
	fa.metrics.Publish(latency, time.Since(overheadStart)-latency, StatusKeepGoing)
	return StatusKeepGoing
}
