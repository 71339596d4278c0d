// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import (
	"sync"
	"time"
)

// ArrowStatus is the outcome of one execute() call, per spec.md §4.3
// step 3.
type ArrowStatus int

const (
	StatusKeepGoing ArrowStatus = iota
	StatusComeBackLater
	StatusFinished
	StatusError
)

func (s ArrowStatus) String() string {
	switch s {
	case StatusKeepGoing:
		return "KeepGoing"
	case StatusComeBackLater:
		return "ComeBackLater"
	case StatusFinished:
		return "Finished"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// ArrowMetrics accumulates per-arrow running totals across every
// execute() call: call count, useful (processing) time, overhead
// (reserve/pop/push bookkeeping) time, and the most recent status.
// Grounded on the result.update(...) calls in JPipelineArrow.h's
// execute(), compressed out of spec.md's bullet list but named in its
// step 6 ("publish metrics").
type ArrowMetrics struct {
	mu            sync.Mutex
	calls         uint64
	usefulTime    time.Duration
	overheadTime  time.Duration
	lastStatus    ArrowStatus
	comeBackLater uint64
	errors        uint64
}

// Publish records one execute() call's outcome.
func (m *ArrowMetrics) Publish(latency, overhead time.Duration, status ArrowStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.usefulTime += latency
	m.overheadTime += overhead
	m.lastStatus = status
	switch status {
	case StatusComeBackLater:
		m.comeBackLater++
	case StatusError:
		m.errors++
	}
}

// Snapshot is a point-in-time copy of an ArrowMetrics, safe to read
// without holding the arrow's lock.
type Snapshot struct {
	Calls         uint64
	UsefulTime    time.Duration
	OverheadTime  time.Duration
	LastStatus    ArrowStatus
	ComeBackLater uint64
	Errors        uint64
}

// Snapshot returns the current totals.
func (m *ArrowMetrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Calls:         m.calls,
		UsefulTime:    m.usefulTime,
		OverheadTime:  m.overheadTime,
		LastStatus:    m.lastStatus,
		ComeBackLater: m.comeBackLater,
		Errors:        m.errors,
	}
}
