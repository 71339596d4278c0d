// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import (
	"sync"
	"time"
)

// DefaultBackoff is how long an arrow that returned ComeBackLater is
// skipped before being reconsidered, per spec.md §4.8.
const DefaultBackoff = 2 * time.Millisecond

// Scheduler hands idle worker threads executable arrows. Thread-safe
// but not a hot path: the per-execute cost dominates, so a single
// mutex guarding a round-robin scan (spec.md §4.8's "simple
// implementation") is sufficient.
type Scheduler struct {
	mu      sync.Mutex
	topo    *Topology
	inUse   map[string]bool
	skipTil map[string]time.Time
	backoff time.Duration
	cursor  int
}

// NewScheduler builds a Scheduler over topo with the given
// ComeBackLater backoff (DefaultBackoff if zero).
func NewScheduler(topo *Topology, backoff time.Duration) *Scheduler {
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	return &Scheduler{
		topo:    topo,
		inUse:   make(map[string]bool),
		skipTil: make(map[string]time.Time),
		backoff: backoff,
	}
}

// NextAssignment releases lastArrow (if any) and returns the next
// arrow worker should execute, or nil if none is runnable (the worker
// should sleep and retry). A sequential arrow (IsParallel() == false)
// is never returned to more than one concurrent caller until released
// by a subsequent NextAssignment call reporting it as lastArrow.
func (s *Scheduler) NextAssignment(worker int, lastArrow Arrow, lastStatus ArrowStatus) Arrow {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lastArrow != nil {
		if !lastArrow.IsParallel() {
			delete(s.inUse, lastArrow.Name())
		}
		if lastStatus == StatusComeBackLater {
			s.skipTil[lastArrow.Name()] = time.Now().Add(s.backoff)
		}
	}

	arrows := s.topo.Arrows()
	n := len(arrows)
	if n == 0 {
		return nil
	}
	now := time.Now()
	for i := 0; i < n; i++ {
		idx := (s.cursor + i) % n
		a := arrows[idx]
		if a.IsFinished() {
			continue
		}
		if !a.IsParallel() && s.inUse[a.Name()] {
			continue
		}
		if until, ok := s.skipTil[a.Name()]; ok && now.Before(until) {
			continue
		}
		if !a.IsParallel() {
			s.inUse[a.Name()] = true
		}
		s.cursor = (idx + 1) % n
		return a
	}
	return nil
}
