// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fixedTimesliceSource produces a fixed number of Timeslice parents,
// each unfolded into a fixed number of children by splitCounter below.
type fixedTimesliceSource struct {
	remaining atomic.Int64
	produced  atomic.Uint64
}

func (s *fixedTimesliceSource) Name() string { return "timeslices" }

func (s *fixedTimesliceSource) GetEvent(ev *Event) error {
	if s.remaining.Add(-1) < 0 {
		return ErrSourceExhausted
	}
	ev.EventNr = s.produced.Add(1)
	ev.RunNr = 1
	ev.Lvl = Timeslice
	return nil
}

func (s *fixedTimesliceSource) NumEventsProcessed() uint64 { return s.produced.Load() }

// splitCounter unfolds each parent into exactly childrenPerParent
// children, numbering them 0..childrenPerParent-1 via Unfold's call
// count (tracked per parent through a map keyed by parent pointer).
type splitCounter struct {
	childrenPerParent int
	emitted           map[*Event]int
}

func (u *splitCounter) Unfold(parent, child *Event, loc int) (done bool, err error) {
	if u.emitted == nil {
		u.emitted = make(map[*Event]int)
	}
	n := u.emitted[parent]
	u.emitted[parent] = n + 1
	child.EventNr = parent.EventNr*1000 + uint64(n)
	done = n+1 >= u.childrenPerParent
	return done, nil
}

// sumFolder accumulates every child's EventNr onto a running total,
// releasing the parent back out once every child has folded.
type sumFolder struct {
	total atomic.Int64
}

func (f *sumFolder) Fold(parent, child *Event) error {
	f.total.Add(int64(child.EventNr))
	return nil
}

// TestUnfoldFoldRoundTripsEveryChild drives Source -> Unfold -> Fold to
// quiescence, verifying every produced child is folded back exactly
// once and the upstream-drain self-finalisation reaches every arrow in
// the chain (not just a Source).
func TestUnfoldFoldRoundTripsEveryChild(t *testing.T) {
	if RaceEnabled {
		t.Skip("timing-sensitive worker-pool scenario skipped under -race")
	}

	const nParents = 50
	const childrenPerParent = 4
	const locations = 1

	parentPool := NewPool[Event](64, locations, false)
	childPool := NewPool[Event](256, locations, false)

	src := &fixedTimesliceSource{}
	src.remaining.Store(nParents)

	sourceToUnfold := BuildMailbox[*Event](MailboxOptions{Capacity: 16, Locations: locations, ProducerSequential: true, ConsumerSequential: true})
	unfoldToFold := BuildMailbox[*Event](MailboxOptions{Capacity: 64, Locations: locations, ProducerSequential: true, ConsumerSequential: true})
	foldOut := BuildMailbox[*Event](MailboxOptions{Capacity: 64, Locations: locations, ProducerSequential: true})

	sourceArrow := NewSourceArrow("source", src, sourceToUnfold, parentPool, nil)
	unfolder := &splitCounter{childrenPerParent: childrenPerParent}
	unfoldArrow := NewUnfoldArrow("unfold", sourceToUnfold, unfoldToFold, childPool, nil, unfolder)
	folder := &sumFolder{}
	foldArrow := NewFoldArrow("fold", unfoldToFold, foldOut, childPool)
	foldArrow.SetFolder(folder)

	topo := NewTopology(parentPool, locations)
	topo.AddArrow(sourceArrow)
	topo.AddArrow(unfoldArrow)
	topo.AddArrow(foldArrow)

	require.NoError(t, topo.Initialize())

	sched := NewScheduler(topo, time.Millisecond)
	tm := NewThreadManager(sched, AffinityNone, locations)
	tm.Run(4)

	deadline := time.Now().Add(10 * time.Second)
	for !topo.AllFinished() && time.Now().Before(deadline) {
		// drain folded parents so FoldArrow's output mailbox never fills
		// and blocks its own progress.
		for {
			if _, status := foldOut.Pop(0); status != StatusOk {
				break
			}
		}
		time.Sleep(time.Millisecond)
	}
	tm.Stop(true)

	require.True(t, topo.AllFinished(), "topology must reach quiescence within the deadline")
	require.NoError(t, topo.FatalError())

	var want int64
	for p := uint64(1); p <= nParents; p++ {
		for c := uint64(0); c < childrenPerParent; c++ {
			want += int64(p*1000 + c)
		}
	}
	require.Equal(t, want, folder.total.Load())
}
