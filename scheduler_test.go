// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeArrow is a minimal Arrow stand-in for scheduler tests: its
// Execute is never called by the Scheduler (only by a ThreadManager),
// so it only needs to satisfy the interface. Lives in package jana
// (rather than jana_test) since Arrow's graph-wiring hook is
// unexported.
type fakeArrow struct {
	name     string
	parallel bool
	finished bool
	metrics  ArrowMetrics
	upstream []Arrow
}

func (a *fakeArrow) Name() string                    { return a.name }
func (a *fakeArrow) IsParallel() bool                { return a.parallel }
func (a *fakeArrow) Initialize() error               { return nil }
func (a *fakeArrow) Execute(loc int) ArrowStatus      { return StatusKeepGoing }
func (a *fakeArrow) Finalize() error                 { return nil }
func (a *fakeArrow) Metrics() *ArrowMetrics          { return &a.metrics }
func (a *fakeArrow) IsFinished() bool                { return a.finished }
func (a *fakeArrow) FatalError() error               { return nil }
func (a *fakeArrow) InputMailbox() *Mailbox[*Event]  { return nil }
func (a *fakeArrow) OutputMailbox() *Mailbox[*Event] { return nil }
func (a *fakeArrow) setUpstream(arrows []Arrow)      { a.upstream = arrows }

func TestSchedulerExcludesSequentialArrowAlreadyInUse(t *testing.T) {
	pool := NewPool[Event](4, 1, false)
	topo := NewTopology(pool, 1)
	seq := &fakeArrow{name: "seq", parallel: false}
	topo.AddArrow(seq)

	sched := NewScheduler(topo, time.Millisecond)

	a1 := sched.NextAssignment(0, nil, StatusKeepGoing)
	require.Equal(t, seq, a1)

	// Worker 0 hasn't released seq yet (no second NextAssignment call
	// reporting it as lastArrow), so worker 1 must not be handed it.
	a2 := sched.NextAssignment(1, nil, StatusKeepGoing)
	require.Nil(t, a2)

	a3 := sched.NextAssignment(0, seq, StatusKeepGoing)
	require.Equal(t, seq, a3, "once released, the sequential arrow can be handed out again")
}

func TestSchedulerSkipsFinishedArrows(t *testing.T) {
	pool := NewPool[Event](4, 1, false)
	topo := NewTopology(pool, 1)
	topo.AddArrow(&fakeArrow{name: "done", parallel: true, finished: true})
	live := &fakeArrow{name: "live", parallel: true}
	topo.AddArrow(live)

	sched := NewScheduler(topo, time.Millisecond)
	got := sched.NextAssignment(0, nil, StatusKeepGoing)
	require.Equal(t, live, got)
}

func TestSchedulerBacksOffComeBackLater(t *testing.T) {
	pool := NewPool[Event](4, 1, false)
	topo := NewTopology(pool, 1)
	a := &fakeArrow{name: "a", parallel: true}
	topo.AddArrow(a)

	sched := NewScheduler(topo, 20*time.Millisecond)
	require.Equal(t, a, sched.NextAssignment(0, nil, StatusKeepGoing))
	require.Nil(t, sched.NextAssignment(0, a, StatusComeBackLater))

	time.Sleep(25 * time.Millisecond)
	require.Equal(t, a, sched.NextAssignment(0, nil, StatusKeepGoing))
}
