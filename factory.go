// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import (
	"fmt"
	"reflect"
)

// factoryStage is a factory instance's position in the state machine
// fixed by spec.md §3: Uninitialised -> Initialised -> RunChanged ->
// Processed, optionally repeating after Clear.
type factoryStage int

const (
	stageUninitialised factoryStage = iota
	stageInitialised
	stageRunChanged
	stageProcessed
)

// Processor is the user-supplied body of a factory: Init runs once per
// factory lifetime, ChangeRun runs whenever the observed run number
// differs from the last one processed, Process computes the result
// collection for one event.
type Processor[T any] interface {
	Init() error
	ChangeRun(runNr int32) error
	Process(ev *Event) ([]T, error)
}

// Factory is the type-erased capability set FactorySet stores and the
// map/event layer drives. TypedFactory is the only implementation;
// the interface exists so FactorySet can hold heterogeneous factories
// in one map.
type Factory interface {
	tag() string
	typeName() string
	clear()
	// newInstance returns a fresh, Uninitialised factory of the same
	// (type, tag, Persistent, ObjectOwner, Body) as the receiver. Used
	// once by FactorySetPool to seed each physical FactorySet slot the
	// first time it is allocated; the instance it returns is then kept
	// for that slot's lifetime and recycled across every event later
	// bound to it, not rebuilt per event.
	newInstance() Factory
}

// factoryKey identifies one factory instance within a FactorySet by the
// (result-type, tag) pair spec.md §3 specifies.
type factoryKey struct {
	typeName string
	tag      string
}

func typeNameOf[T any]() string {
	var zero T
	return reflect.TypeOf(&zero).Elem().String()
}

// TypedFactory is a lazy, memoising producer of a []T result collection
// for one event, driven by the protocol in spec.md §4.6:
//
//	f := factorySet.find(T, tag)
//	if !f.initialized { f.init(); f.initialized = true }
//	if f.last_run != event.run { f.change_run(event.run); f.last_run = event.run }
//	if !f.processed_this_event { f.process(event); f.processed_this_event = true }
//	return f.results()
//
// Persistent marks a factory whose output survives Clear (reused across
// events unmodified until reprocessed); ObjectOwner marks a factory that
// destroys its emitted items at Clear time versus leaving them owned
// elsewhere. Both flags are fixed at construction.
type TypedFactory[T any] struct {
	Tag         string
	Persistent  bool
	ObjectOwner bool
	Body        Processor[T]

	stage      factoryStage
	lastRun    int32
	hasRun     bool
	inProgress bool
	results    []T
}

// NewTypedFactory registers body under tag with the given persistence
// and ownership flags.
func NewTypedFactory[T any](tag string, persistent, objectOwner bool, body Processor[T]) *TypedFactory[T] {
	return &TypedFactory[T]{Tag: tag, Persistent: persistent, ObjectOwner: objectOwner, Body: body}
}

func (f *TypedFactory[T]) tag() string      { return f.Tag }
func (f *TypedFactory[T]) typeName() string { return typeNameOf[T]() }

func (f *TypedFactory[T]) newInstance() Factory {
	return NewTypedFactory[T](f.Tag, f.Persistent, f.ObjectOwner, f.Body)
}

// ensureProcessed drives the state machine up through Processed for ev,
// returning ErrFactoryCycle if re-entered while already in progress for
// this event (the call-graph cycle detector spec.md §4.6 requires) and
// wrapping any user-code error as *UserError.
func (f *TypedFactory[T]) ensureProcessed(ev *Event) error {
	if f.inProgress {
		return ErrFactoryCycle
	}
	if f.stage == stageUninitialised {
		f.inProgress = true
		err := f.Body.Init()
		f.inProgress = false
		if err != nil {
			return &UserError{Component: fmt.Sprintf("%s[%s]", f.typeName(), f.Tag), EventNr: ev.EventNr, RunNr: ev.RunNr, Err: err}
		}
		f.stage = stageInitialised
	}
	if !f.hasRun || f.lastRun != ev.RunNr {
		f.inProgress = true
		err := f.Body.ChangeRun(ev.RunNr)
		f.inProgress = false
		if err != nil {
			return &UserError{Component: fmt.Sprintf("%s[%s]", f.typeName(), f.Tag), EventNr: ev.EventNr, RunNr: ev.RunNr, Err: err}
		}
		f.lastRun = ev.RunNr
		f.hasRun = true
		f.stage = stageRunChanged
	}
	if f.stage != stageProcessed {
		f.inProgress = true
		results, err := f.Body.Process(ev)
		f.inProgress = false
		if err != nil {
			return &UserError{Component: fmt.Sprintf("%s[%s]", f.typeName(), f.Tag), EventNr: ev.EventNr, RunNr: ev.RunNr, Err: err}
		}
		f.results = results
		f.stage = stageProcessed
	}
	return nil
}

// clear resets per-event state. Non-persistent factories drop their
// stage back to RunChanged (so the next event reprocesses) and, if
// ObjectOwner, drop the results slice to make it eligible for garbage
// collection; persistent factories keep both stage and results.
func (f *TypedFactory[T]) clear() {
	if f.Persistent {
		return
	}
	f.stage = stageRunChanged
	if f.ObjectOwner {
		f.results = nil
	}
}
