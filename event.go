// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

// Level tags the granularity of an Event: a plain physics event, or a
// timeslice awaiting Unfold into its constituent events.
type Level int

const (
	PhysicsEvent Level = iota
	Timeslice
)

func (l Level) String() string {
	if l == Timeslice {
		return "Timeslice"
	}
	return "PhysicsEvent"
}

// Source is the abstract upstream collaborator a SourceArrow drives.
// Concrete adapters (file readers, network readers) are outside the
// engine's scope; the engine consumes only this contract.
type Source interface {
	Name() string
	// GetEvent fills ev with the next event/timeslice and returns nil,
	// ErrSourceTryAgainLater, or ErrSourceExhausted.
	GetEvent(ev *Event) error
	NumEventsProcessed() uint64
}

// ErrSourceTryAgainLater is returned by Source.GetEvent to signal a
// transient miss (e.g. network read would block); folded into
// StatusComeBackLater by SourceArrow, never surfaced as a failure.
var ErrSourceTryAgainLater = &localOnlyError{"source try again later"}

type localOnlyError struct{ msg string }

func (e *localOnlyError) Error() string { return "jana: " + e.msg }

// Event is the unit of work flowing through the topology. Carries a
// monotonic (within its source) event number, a run number, a Level,
// the source it came from, and a FactorySet memoising per-event
// results. Timeslice events additionally track unfold/fold lineage via
// ChildPending.
type Event struct {
	EventNr uint64
	RunNr   int32
	Lvl     Level

	source Source

	factories     *FactorySet
	factoriesPool *FactorySetPool
	factoriesLoc  int

	// Parent is set on child events produced by Unfold; nil for events
	// read directly from a Source.
	Parent *Event
	// ChildPending counts children created by Unfold but not yet folded
	// back by Fold. ChildTotal is -1 while Unfold is still producing
	// children for this parent, and the instant Unfold reports Done it is
	// set to the value of ChildPending at that moment (the children not yet
	// folded). Fold releases Parent once ChildTotal >= 0 and ChildPending
	// has dropped to 0. Both fields
	// are mutated with sync/atomic since the Unfold and Fold arrows run
	// on independent worker goroutines. Owned by the Unfold/Fold pair;
	// Map/Sink arrows never touch them.
	ChildPending int64
	ChildTotal   int64
}

// Reset clears an Event for reuse from its Pool. Implements Resettable.
// A bound FactorySet is released back to the pool it was checked out
// from rather than cleared in place: FactorySetPool.Put is what
// actually resets its factories (via FactorySet.Reset), so the
// FactorySet instance itself survives to be handed to a later event.
func (e *Event) Reset() {
	e.EventNr = 0
	e.RunNr = 0
	e.Lvl = PhysicsEvent
	e.source = nil
	e.Parent = nil
	e.ChildPending = 0
	e.ChildTotal = -1
	if e.factories != nil && e.factoriesPool != nil {
		e.factoriesPool.Put(e.factories, e.factoriesLoc)
	}
	e.factories = nil
	e.factoriesPool = nil
	e.factoriesLoc = 0
}

// SetSource records the originating Source. Called once by the
// SourceArrow that produced the event.
func (e *Event) SetSource(s Source) { e.source = s }

// GetSource returns the originating Source, or nil for a synthetic
// event not produced by a SourceArrow (e.g. in tests).
func (e *Event) GetSource() Source { return e.source }

// bindFactorySet attaches fs, checked out from pool at loc, to e.
// Reset releases fs back to pool; pool may be nil for a FactorySet the
// caller manages directly (e.g. in tests), in which case Reset leaves
// it untouched.
func (e *Event) bindFactorySet(fs *FactorySet, pool *FactorySetPool, loc int) {
	e.factories = fs
	e.factoriesPool = pool
	e.factoriesLoc = loc
}

// Get runs the (type,tag) factory lookup/memoisation protocol of
// spec.md §4.6 and returns the memoised result collection. T must match
// the type a factory was registered under via FactorySet.Register.
func Get[T any](e *Event, tag string) ([]T, error) {
	if e.factories == nil {
		return nil, ErrFactoryMissing
	}
	f, ok := e.factories.find(factoryKey{typeName: typeNameOf[T](), tag: tag})
	if !ok {
		return nil, ErrFactoryMissing
	}
	tf, ok := f.(*TypedFactory[T])
	if !ok {
		return nil, ErrFactoryMissing
	}
	if err := tf.ensureProcessed(e); err != nil {
		return nil, err
	}
	return tf.results, nil
}
