// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import "errors"

// SourceArrow wraps a user Source and feeds its output mailbox. It has
// no input mailbox; each execute() obtains a fresh Event from the item
// pool and calls Source.GetEvent. Sequential: spec.md §4.3 lists
// sources as never assigned to more than one worker concurrently.
type SourceArrow struct {
	*PipelineArrow
	src       Source
	factories *FactorySetPool // nil if no factory ever runs downstream of this source
}

// NewSourceArrow builds a SourceArrow over src, drawing fresh Events
// from pool and feeding out. factories recycles the FactorySet each
// Event is bound to; may be nil if no factory ever runs downstream of
// this source.
func NewSourceArrow(name string, src Source, out *Mailbox[*Event], pool *Pool[Event], factories *FactorySetPool) *SourceArrow {
	sa := &SourceArrow{src: src, factories: factories}
	sa.PipelineArrow = NewPipelineArrow(name, false, nil, out, pool, sa)
	return sa
}

func (sa *SourceArrow) process(ev *Event, loc int) (ArrowStatus, error) {
	ev.SetSource(sa.src)
	if sa.factories != nil {
		fs := sa.factories.Get(loc)
		if fs == nil {
			return StatusComeBackLater, nil
		}
		ev.bindFactorySet(fs, sa.factories, loc)
	}
	err := sa.src.GetEvent(ev)
	switch {
	case err == nil:
		return StatusKeepGoing, nil
	case errors.Is(err, ErrSourceExhausted):
		return StatusFinished, nil
	case errors.Is(err, ErrSourceTryAgainLater):
		return StatusComeBackLater, nil
	default:
		return StatusError, &UserError{Component: sa.Name(), EventNr: ev.EventNr, RunNr: ev.RunNr, Err: err}
	}
}
