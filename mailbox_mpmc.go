// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// mpmcShard is an FAA-based multi-producer multi-consumer bounded queue,
// used when both the upstream and downstream arrow feeding a location
// partition are parallel (e.g. a Map arrow's output feeding a parallel
// Sink arrow).
//
// Based on the SCQ (Scalable Circular Queue) algorithm by Nikolaev (DISC
// 2019). Uses Fetch-And-Add to blindly increment position counters,
// requiring 2n physical slots for capacity n.
//
// Cycle-based slot validation provides ABA safety: each slot tracks which
// "cycle" (round) it belongs to via cycle = position / capacity.
type mpmcShard[T any] struct {
	_        pad
	tail     atomix.Uint64 // producer index (FAA)
	_        pad
	head     atomix.Uint64 // consumer index (FAA)
	_        pad
	buffer   []mpmcShardSlot[T]
	capacity uint64 // n (usable capacity)
	size     uint64 // 2n (physical slots)
	mask     uint64 // 2n - 1
}

type mpmcShardSlot[T any] struct {
	cycle atomix.Uint64 // round number for this slot
	data  T
	_     padShort // pad to cache line
}

func newMPMCShard[T any](capacity int) *mpmcShard[T] {
	n := uint64(roundToPow2(capacity))
	size := n * 2

	q := &mpmcShard[T]{
		buffer:   make([]mpmcShardSlot[T], size),
		capacity: n,
		size:     size,
		mask:     size - 1,
	}
	for i := uint64(0); i < size; i++ {
		q.buffer[i].cycle.StoreRelaxed(i / n)
	}
	return q
}

func (q *mpmcShard[T]) enqueue(elem *T) error {
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		head := q.head.LoadAcquire()
		if tail >= head+q.capacity {
			return ErrQueueFull
		}

		myTail := q.tail.AddAcqRel(1) - 1

		slot := &q.buffer[myTail&q.mask]
		expectedCycle := myTail / q.capacity
		slotCycle := slot.cycle.LoadAcquire()

		if slotCycle == expectedCycle {
			slot.data = *elem
			slot.cycle.StoreRelease(expectedCycle + 1)
			return nil
		}
		if int64(slotCycle) < int64(expectedCycle) {
			return ErrQueueFull
		}
		sw.Once()
	}
}

func (q *mpmcShard[T]) dequeue() (T, bool) {
	sw := spin.Wait{}
	for {
		myHead := q.head.AddAcqRel(1) - 1

		slot := &q.buffer[myHead&q.mask]
		expectedCycle := myHead/q.capacity + 1
		slotCycle := slot.cycle.LoadAcquire()

		if slotCycle == expectedCycle {
			elem := slot.data
			var zero T
			slot.data = zero
			nextEnqCycle := (myHead + q.size) / q.capacity
			slot.cycle.StoreRelease(nextEnqCycle)
			return elem, true
		}

		if int64(slotCycle) < int64(expectedCycle) {
			nextEnqCycle := (myHead + q.size) / q.capacity
			slot.cycle.CompareAndSwapAcqRel(slotCycle, nextEnqCycle)

			tail := q.tail.LoadAcquire()
			if tail <= myHead+1 {
				q.catchup(tail, myHead+1)
				var zero T
				return zero, false
			}
		}
		sw.Once()
	}
}

func (q *mpmcShard[T]) catchup(tail, head uint64) {
	for tail < head {
		if q.tail.CompareAndSwapRelaxed(tail, head) {
			break
		}
		tail = q.tail.LoadRelaxed()
		head = q.head.LoadRelaxed()
	}
}

func (q *mpmcShard[T]) cap() int {
	return int(q.capacity)
}
