// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Affinity selects how worker goroutines are assigned their "home"
// location, which homeLocation computes and Mailbox/Pool's location
// partitioning uses. The Scheduler does not take a worker's location
// into account when choosing an arrow. A hint only: correctness does
// not depend on the OS honouring it, per spec.md §4.9.
type Affinity int

const (
	AffinityNone Affinity = iota
	AffinitySequential
	AffinityCoreFill
)

// homeLocation returns worker i's preferred location under the given
// affinity policy and total location count.
func homeLocation(affinity Affinity, worker, locations int) int {
	if locations < 1 {
		locations = 1
	}
	switch affinity {
	case AffinitySequential, AffinityCoreFill:
		return worker % locations
	default:
		return worker % locations
	}
}

// ThreadManager owns the fixed-size worker pool: N goroutines each
// looping acquire-arrow -> execute -> release-arrow -> update-metrics,
// per spec.md §4.9. CPU pinning itself is left to the Go runtime
// scheduler (no syscall-level SchedSetaffinity is available from any
// dependency in this module's corpus); homeLocation still steers which
// Mailbox/Pool shard a worker prefers, which is the part of "affinity"
// that actually affects throughput in a managed-memory runtime.
type ThreadManager struct {
	scheduler *Scheduler
	affinity  Affinity
	locations int

	quit     atomic.Bool
	wg       sync.WaitGroup
	running  atomic.Int64
	idleSlep time.Duration

	// nThreads is the configured worker count, set by Application after
	// resolving NTHREADS and read back by Run.
	nThreads int
}

// NewThreadManager builds a ThreadManager over scheduler, using affinity
// as the location-preference hint. It starts no workers; Run does.
func NewThreadManager(scheduler *Scheduler, affinity Affinity, locations int) *ThreadManager {
	if locations < 1 {
		locations = 1
	}
	return &ThreadManager{scheduler: scheduler, affinity: affinity, locations: locations, idleSlep: time.Millisecond}
}

// Run starts n worker goroutines.
func (tm *ThreadManager) Run(n int) {
	for i := 0; i < n; i++ {
		tm.wg.Add(1)
		tm.running.Add(1)
		go tm.workerLoop(i)
	}
}

func (tm *ThreadManager) workerLoop(worker int) {
	defer tm.wg.Done()
	defer tm.running.Add(-1)
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	loc := homeLocation(tm.affinity, worker, tm.locations)
	var lastArrow Arrow
	lastStatus := StatusKeepGoing

	for !tm.quit.Load() {
		a := tm.scheduler.NextAssignment(worker, lastArrow, lastStatus)
		if a == nil {
			lastArrow = nil
			time.Sleep(tm.idleSlep)
			continue
		}
		lastStatus = a.Execute(loc)
		lastArrow = a
	}
	if lastArrow != nil {
		tm.scheduler.NextAssignment(worker, lastArrow, lastStatus)
	}
}

// Stop sets the quit flag. If wait, blocks until every worker has
// exited its current Execute and returned.
func (tm *ThreadManager) Stop(wait bool) {
	tm.quit.Store(true)
	if wait {
		tm.wg.Wait()
	}
}

// Scale adjusts the running worker count to n by starting additional
// workers; shrinking is not supported without a per-worker quit
// channel, so n below the current count is a no-op.
func (tm *ThreadManager) Scale(n int) {
	current := int(tm.running.Load())
	if n > current {
		tm.Run(n - current)
	}
}

// Join blocks until every worker goroutine has returned.
func (tm *ThreadManager) Join() {
	tm.wg.Wait()
}

// NumRunning reports the current number of live worker goroutines.
func (tm *ThreadManager) NumRunning() int {
	return int(tm.running.Load())
}
