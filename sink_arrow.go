// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import "sync/atomic"

// EventProcessor consumes one event, typically writing histograms or trees.
// A Sequential processor is serialised against every other Sequential
// processor on the same Sink by a shared lock obtained through a
// LockService; a parallel processor provides its own synchronisation
// if it needs any, per spec.md §4.7.
type EventProcessor interface {
	Name() string
	Sequential() bool
	Process(ev *Event) error
}

// SinkArrow drives every registered EventProcessor for each event it draws
// from its input. It has no output mailbox: spec.md §2 marks Sink's
// parallelism "configurable" and §4.7 returns the event to its pool
// after the last processor runs (there is nowhere downstream to push
// it).
type SinkArrow struct {
	*PipelineArrow
	processors []EventProcessor
	lock       *LockService
	processed  uint64
}

// NewSinkArrow builds a SinkArrow draining in and returning events to
// pool once every processor has run. lock serialises Sequential
// processors; may be nil if none are registered Sequential.
func NewSinkArrow(name string, in *Mailbox[*Event], pool *Pool[Event], lock *LockService, processors ...EventProcessor) *SinkArrow {
	sa := &SinkArrow{processors: processors, lock: lock}
	sa.PipelineArrow = NewPipelineArrow(name, true, in, nil, pool, sa)
	return sa
}

func (sa *SinkArrow) process(ev *Event, _ int) (ArrowStatus, error) {
	for _, p := range sa.processors {
		if p.Sequential() && sa.lock != nil {
			sa.lock.Lock()
			err := p.Process(ev)
			sa.lock.Unlock()
			if err != nil {
				return StatusError, &UserError{Component: p.Name(), EventNr: ev.EventNr, RunNr: ev.RunNr, Err: err}
			}
			continue
		}
		if err := p.Process(ev); err != nil {
			return StatusError, &UserError{Component: p.Name(), EventNr: ev.EventNr, RunNr: ev.RunNr, Err: err}
		}
	}
	atomic.AddUint64(&sa.processed, 1)
	return StatusKeepGoing, nil
}

// NumEventsProcessed returns the number of events that reached this
// sink and ran every processor successfully.
func (sa *SinkArrow) NumEventsProcessed() uint64 {
	return atomic.LoadUint64(&sa.processed)
}
