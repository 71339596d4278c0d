// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type countingTrack struct{ Pt float64 }

type countingBody struct {
	inits, changeRuns, processes int
}

func (b *countingBody) Init() error                { b.inits++; return nil }
func (b *countingBody) ChangeRun(runNr int32) error { b.changeRuns++; return nil }
func (b *countingBody) Process(ev *Event) ([]countingTrack, error) {
	b.processes++
	return []countingTrack{{Pt: float64(ev.EventNr)}}, nil
}

// newUnpooledEvent binds fs directly with no FactorySetPool behind it,
// for tests that drive a single FactorySet synchronously and don't
// need Reset to release it anywhere.
func newUnpooledEvent(fs *FactorySet) *Event {
	ev := &Event{}
	ev.Reset()
	ev.bindFactorySet(fs, nil, 0)
	return ev
}

// newPooledEvent checks out fs from fsp at loc and binds it, failing
// the test if the pool has no room.
func newPooledEvent(t *testing.T, fsp *FactorySetPool, loc int) *Event {
	t.Helper()
	fs := fsp.Get(loc)
	require.NotNil(t, fs, "FactorySetPool exhausted")
	ev := &Event{}
	ev.Reset()
	ev.bindFactorySet(fs, fsp, loc)
	return ev
}

func TestFactoryRunsEachStageExactlyOncePerEvent(t *testing.T) {
	body := &countingBody{}
	template := NewFactorySet()
	template.Register(NewTypedFactory[countingTrack]("", false, false, body))

	ev := newPooledEvent(t, NewFactorySetPool(template, 1, 1), 0)
	ev.EventNr = 1
	ev.RunNr = 7

	for i := 0; i < 3; i++ {
		results, err := Get[countingTrack](ev, "")
		require.NoError(t, err)
		require.Len(t, results, 1)
	}

	require.Equal(t, 1, body.inits)
	require.Equal(t, 1, body.changeRuns)
	require.Equal(t, 1, body.processes, "repeated Get calls within the same event must not reprocess")
}

func TestFactoryChangeRunFiresForRunZero(t *testing.T) {
	body := &countingBody{}
	template := NewFactorySet()
	template.Register(NewTypedFactory[countingTrack]("", false, false, body))

	ev := newPooledEvent(t, NewFactorySetPool(template, 1, 1), 0)
	ev.EventNr = 1
	ev.RunNr = 0 // zero-value run must not be mistaken for "no run observed yet"

	_, err := Get[countingTrack](ev, "")
	require.NoError(t, err)
	require.Equal(t, 1, body.changeRuns)
}

func TestFactoryMissingWhenUnregistered(t *testing.T) {
	ev := newUnpooledEvent(NewFactorySet())

	_, err := Get[countingTrack](ev, "")
	require.ErrorIs(t, err, ErrFactoryMissing)
}

// TestFactoryInitAndChangeRunFireAtMostOncePerLifetime drives 1000
// sequential events through a single recycled FactorySet slot (the
// pool holds only one), mirroring how Pool[Event].Put's Resettable
// hook releases a finished event's FactorySet back to its pool for the
// next event to reuse. Init and ChangeRun must each fire once for the
// slot's whole lifetime, not once per event.
func TestFactoryInitAndChangeRunFireAtMostOncePerLifetime(t *testing.T) {
	body := &countingBody{}
	template := NewFactorySet()
	template.Register(NewTypedFactory[countingTrack]("", false, false, body))
	fsp := NewFactorySetPool(template, 1, 1)

	const nEvents = 1000
	const runNr = int32(7)
	for i := 0; i < nEvents; i++ {
		ev := newPooledEvent(t, fsp, 0)
		ev.EventNr = uint64(i + 1)
		ev.RunNr = runNr

		results, err := Get[countingTrack](ev, "")
		require.NoError(t, err)
		require.Len(t, results, 1)

		ev.Reset()
	}

	require.Equal(t, 1, body.inits, "Init must fire at most once across the factory's lifetime")
	require.Equal(t, 1, body.changeRuns, "ChangeRun must fire once per distinct run observed, not once per event")
	require.Equal(t, nEvents, body.processes, "Process still runs once per event")
}

// TestFactoryChangeRunFiresOncePerDistinctRun exercises a run boundary
// crossing a recycled FactorySet slot: ChangeRun must fire exactly
// once for each of the two distinct run numbers observed, not once
// per event.
func TestFactoryChangeRunFiresOncePerDistinctRun(t *testing.T) {
	body := &countingBody{}
	template := NewFactorySet()
	template.Register(NewTypedFactory[countingTrack]("", false, false, body))
	fsp := NewFactorySetPool(template, 1, 1)

	runs := []int32{0, 0, 0, 1, 1, 1}
	for i, run := range runs {
		ev := newPooledEvent(t, fsp, 0)
		ev.EventNr = uint64(i + 1)
		ev.RunNr = run

		_, err := Get[countingTrack](ev, "")
		require.NoError(t, err)

		ev.Reset()
	}

	require.Equal(t, 2, body.changeRuns)
}

// TestFactorySetPoolSlotsAreIndependentWhileConcurrentlyBound checks
// the property the FactorySet pooling scheme must preserve: two events
// bound to two different physical slots of the same pool, both still
// in flight (neither Reset yet), never observe each other's factory
// state.
func TestFactorySetPoolSlotsAreIndependentWhileConcurrentlyBound(t *testing.T) {
	body := &countingBody{}
	template := NewFactorySet()
	template.Register(NewTypedFactory[countingTrack]("", false, false, body))
	fsp := NewFactorySetPool(template, 2, 1)

	evA := newPooledEvent(t, fsp, 0)
	evA.EventNr = 1
	evA.RunNr = 1

	evB := newPooledEvent(t, fsp, 0)
	evB.EventNr = 2
	evB.RunNr = 1

	_, err := Get[countingTrack](evA, "")
	require.NoError(t, err)
	_, err = Get[countingTrack](evB, "")
	require.NoError(t, err)

	require.Equal(t, 2, body.inits, "two concurrently bound slots must each Init their own factory instance")
	require.Equal(t, 2, body.changeRuns)

	evA.Reset()
	evB.Reset()
}

type persistentBody struct {
	processes int
}

func (b *persistentBody) Init() error                { return nil }
func (b *persistentBody) ChangeRun(runNr int32) error { return nil }
func (b *persistentBody) Process(ev *Event) ([]countingTrack, error) {
	b.processes++
	return []countingTrack{{Pt: float64(ev.EventNr)}}, nil
}

// TestPersistentFactoryRetainsResultsAcrossEvents checks that a
// Persistent factory's output survives the event boundary (and the
// FactorySetPool release/reacquire cycle in between) unmodified,
// instead of being recomputed for every event.
func TestPersistentFactoryRetainsResultsAcrossEvents(t *testing.T) {
	body := &persistentBody{}
	template := NewFactorySet()
	template.Register(NewTypedFactory[countingTrack]("", true, false, body))
	fsp := NewFactorySetPool(template, 1, 1)

	for i := 0; i < 3; i++ {
		ev := newPooledEvent(t, fsp, 0)
		ev.EventNr = uint64(i + 1)
		ev.RunNr = 1

		results, err := Get[countingTrack](ev, "")
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.Equal(t, float64(1), results[0].Pt, "a Persistent factory's output must survive event boundaries unmodified")

		ev.Reset()
	}

	require.Equal(t, 1, body.processes, "a Persistent factory must not recompute across events")
}

func TestFactoryCycleDetected(t *testing.T) {
	cyclic := &cyclicBody{}
	template := NewFactorySet()
	template.Register(NewTypedFactory[countingTrack]("", false, false, cyclic))

	ev := newUnpooledEvent(template)
	_, err := Get[countingTrack](ev, "")
	require.ErrorIs(t, err, ErrFactoryCycle)
}

// cyclicBody's Process re-enters its own factory via Event.Get, the
// call-graph cycle ensureProcessed's inProgress guard must catch.
type cyclicBody struct{}

func (b *cyclicBody) Init() error                { return nil }
func (b *cyclicBody) ChangeRun(runNr int32) error { return nil }
func (b *cyclicBody) Process(ev *Event) ([]countingTrack, error) {
	return Get[countingTrack](ev, "")
}
