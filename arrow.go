// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import (
	"errors"
	"sync/atomic"
	"time"
)

// lifecycle is an arrow's position in Unopened -> Opened -> Finished.
type lifecycle int

const (
	lifecycleUnopened lifecycle = iota
	lifecycleOpened
	lifecycleFinished
)

// Arrow is one stage in the topology, the unit the Scheduler hands to a
// worker. Every built-in kind (Source, Map, Unfold, Fold, Sink) embeds
// *PipelineArrow and supplies a Body implementing the kind-specific
// process step.
type Arrow interface {
	Name() string
	IsParallel() bool
	Initialize() error
	Execute(loc int) ArrowStatus
	Finalize() error
	Metrics() *ArrowMetrics
	IsFinished() bool
	// FatalError returns a non-nil error once this arrow has hit an
	// unrecoverable condition (FactoryCycle, FactoryMissing, Fatal):
	// the Application polls every arrow for this and initiates Quit.
	FatalError() error

	// InputMailbox and OutputMailbox expose an arrow's edges so
	// Topology can infer the upstream/downstream graph from shared
	// Mailbox identity, without requiring an explicit edge list at
	// topology-build time.
	InputMailbox() *Mailbox[*Event]
	OutputMailbox() *Mailbox[*Event]

	setUpstream(arrows []Arrow)
}

// Body is the specialised per-kind processing step invoked by
// PipelineArrow.Execute at step 3 of the protocol. status communicates
// KeepGoing/Finished to the caller; a non-nil err is either a fatal
// kind (see isFatalErr: recorded as the arrow's fatal error, item
// dropped), a *UserError (event dropped, run continues) or any other
// error (treated as a retryable miss: item is returned to its origin).
type Body interface {
	process(ev *Event, loc int) (ArrowStatus, error)
}

// PipelineArrow implements the 6-step execute() protocol of spec.md
// §4.3 once, shared by every concrete arrow kind. Grounded on
// original_source's JPipelineArrow<T>::execute, generalised from a
// single input/output pair (JANA2 trades type safety for a template
// parameter per arrow; this module keeps a single Event item type
// throughout the topology instead of reintroducing that template).
type PipelineArrow struct {
	name     string
	parallel bool

	in       *Mailbox[*Event]
	out      *Mailbox[*Event]
	itemPool *Pool[Event]

	body Body

	onInitialize func() error
	onFinalize   func() error

	metrics  ArrowMetrics
	state    lifecycle
	fatal    atomic.Value // stores error
	upstream []Arrow
}

// NewPipelineArrow wires a PipelineArrow's mailbox/pool endpoints. Any
// of in, out, itemPool may be nil depending on the arrow kind (a Source
// has no in; a Sink typically has no out).
func NewPipelineArrow(name string, parallel bool, in, out *Mailbox[*Event], itemPool *Pool[Event], body Body) *PipelineArrow {
	return &PipelineArrow{name: name, parallel: parallel, in: in, out: out, itemPool: itemPool, body: body}
}

func (a *PipelineArrow) Name() string       { return a.name }
func (a *PipelineArrow) IsParallel() bool   { return a.parallel }
func (a *PipelineArrow) Metrics() *ArrowMetrics { return &a.metrics }
func (a *PipelineArrow) IsFinished() bool   { return a.state == lifecycleFinished }

// FatalError returns the arrow's recorded fatal error, if any.
func (a *PipelineArrow) FatalError() error {
	if v := a.fatal.Load(); v != nil {
		return v.(error)
	}
	return nil
}

// InputMailbox returns the arrow's input edge, or nil (Source arrows).
func (a *PipelineArrow) InputMailbox() *Mailbox[*Event] { return a.in }

// OutputMailbox returns the arrow's output edge, or nil (Sink arrows).
func (a *PipelineArrow) OutputMailbox() *Mailbox[*Event] { return a.out }

// setUpstream records the arrows whose output feeds this arrow's
// input, as inferred by Topology from shared Mailbox identity. Used by
// Execute to detect "all upstream arrows terminal and input mailbox
// empty" and self-finalise, per spec.md §4.3's scheduler-graceful-drain
// rule.
func (a *PipelineArrow) setUpstream(arrows []Arrow) { a.upstream = arrows }

// upstreamDrained reports whether every upstream arrow has finished and
// this arrow's input mailbox holds nothing more to drain.
func (a *PipelineArrow) upstreamDrained() bool {
	if len(a.upstream) == 0 || a.in == nil {
		return false
	}
	for _, u := range a.upstream {
		if !u.IsFinished() {
			return false
		}
	}
	return a.in.Size() == 0
}

// Initialize runs the arrow's one-time setup. Idempotent: a second call
// after Opened is a no-op, matching spec.md §4.3's "Unopened ->
// Opened (one-time initialize)".
func (a *PipelineArrow) Initialize() error {
	if a.state != lifecycleUnopened {
		return nil
	}
	if a.onInitialize != nil {
		if err := a.onInitialize(); err != nil {
			return err
		}
	}
	a.state = lifecycleOpened
	return nil
}

// Finalize runs the arrow's one-time teardown and marks it Finished.
func (a *PipelineArrow) Finalize() error {
	if a.state == lifecycleFinished {
		return nil
	}
	if a.onFinalize != nil {
		if err := a.onFinalize(); err != nil {
			return err
		}
	}
	a.state = lifecycleFinished
	return nil
}

// Execute performs the six steps of spec.md §4.3:
//
//  1. Reserve output (if any); ComeBackLater on zero granted.
//  2. Acquire input: pop from the input mailbox, or Get from the item
//     pool if there is no input mailbox; ComeBackLater on miss,
//     releasing any output reservation taken in step 1.
//  3. Invoke the arrow's specialised process().
//  4. On success: push to output, or return the item to the pool if
//     there is no output.
//  5. On failure: a fatal kind (isFatalErr) is recorded as the arrow's
//     fatal error and drops the item; a *UserError drops the item
//     (logged/counted elsewhere, not here); any other failure requeues
//     the item to its origin for a later retry.
//  6. Publish latency/overhead/status to Metrics.
func (a *PipelineArrow) Execute(loc int) ArrowStatus {
	overheadStart := time.Now()

	reservedOut := false
	if a.out != nil {
		if a.out.Reserve(1, loc) == 0 {
			return StatusComeBackLater
		}
		reservedOut = true
	}

	var item *Event
	fromMailbox := a.in != nil
	if fromMailbox {
		it, status := a.in.Pop(loc)
		if status != StatusOk {
			if reservedOut {
				a.out.Release(1, loc)
			}
			if a.upstreamDrained() {
				_ = a.Finalize()
				a.metrics.Publish(0, time.Since(overheadStart), StatusFinished)
				return StatusFinished
			}
			return StatusComeBackLater
		}
		item = it
	} else {
		item = a.itemPool.Get(loc)
		if item == nil {
			if reservedOut {
				a.out.Release(1, loc)
			}
			return StatusComeBackLater
		}
	}

	latencyStart := time.Now()
	status, err := a.body.process(item, loc)
	latency := time.Since(latencyStart)

	if err != nil {
		if reservedOut {
			a.out.Release(1, loc)
		}
		if isFatalErr(err) {
			a.fatal.Store(err)
			a.releaseItem(item, fromMailbox, loc)
			a.metrics.Publish(latency, time.Since(overheadStart)-latency, StatusError)
			return StatusError
		}
		if _, ok := err.(*UserError); ok {
			a.releaseItem(item, fromMailbox, loc)
			a.metrics.Publish(latency, time.Since(overheadStart)-latency, StatusError)
			return StatusError
		}
		a.requeueItem(item, fromMailbox, loc)
		a.metrics.Publish(latency, time.Since(overheadStart)-latency, StatusComeBackLater)
		return StatusComeBackLater
	}

	if status == StatusComeBackLater {
		if reservedOut {
			a.out.Release(1, loc)
		}
		a.requeueItem(item, fromMailbox, loc)
		a.metrics.Publish(latency, time.Since(overheadStart)-latency, status)
		return status
	}

	if a.out != nil {
		// Guaranteed to fit: reserved in step 1.
		_ = a.out.Push(&item, loc)
	} else if a.itemPool != nil {
		a.itemPool.Put(item, loc)
	}

	if status == StatusFinished {
		_ = a.Finalize()
	}
	a.metrics.Publish(latency, time.Since(overheadStart)-latency, status)
	return status
}

// isFatalErr reports whether err should abort the run per spec.md §7:
// FactoryCycle, FactoryMissing, ConfigError, PluginLoadError, Fatal.
func isFatalErr(err error) bool {
	return errors.Is(err, ErrFactoryCycle) || errors.Is(err, ErrFactoryMissing) ||
		errors.Is(err, ErrConfigError) || errors.Is(err, ErrPluginLoad) || errors.Is(err, ErrFatal)
}

// releaseItem returns item to its owning pool for good (dropped, never
// seen again), used on UserError.
func (a *PipelineArrow) releaseItem(item *Event, fromMailbox bool, loc int) {
	if a.itemPool != nil {
		a.itemPool.Put(item, loc)
	}
}

// requeueItem returns item to where it came from so a later execute()
// can retry it. Mailboxes here are plain FIFOs with no push-front
// operation, so a requeue lands at the back of the input queue rather
// than the front: under sustained retryable failure this can starve
// strict per-source event ordering relative to a true push-front, a
// documented deviation (see DESIGN.md) since none of the backing
// lock-free queue algorithms support head insertion.
func (a *PipelineArrow) requeueItem(item *Event, fromMailbox bool, loc int) {
	if fromMailbox {
		if err := a.in.Push(&item, loc); err != nil && a.itemPool != nil {
			a.itemPool.Put(item, loc)
		}
		return
	}
	if a.itemPool != nil {
		a.itemPool.Put(item, loc)
	}
}
