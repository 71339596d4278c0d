// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// spmcShard is an FAA-based single-producer multi-consumer bounded queue.
// It backs mailboxes fed by a sequential arrow (a Source or Unfold, which
// the scheduler never assigns to more than one worker concurrently) into
// a parallel arrow drained by the whole worker pool, such as a Source's
// output feeding a Map stage.
type spmcShard[T any] struct {
	_        pad
	head     atomix.Uint64 // consumer index (FAA)
	_        pad
	tail     atomix.Uint64 // producer index; only the single producer writes it
	_        pad
	buffer   []spmcShardSlot[T]
	capacity uint64 // n (usable capacity)
	size     uint64 // 2n (physical slots)
	mask     uint64 // 2n - 1
}

type spmcShardSlot[T any] struct {
	cycle atomix.Uint64
	data  T
	_     padShort
}

func newSPMCShard[T any](capacity int) *spmcShard[T] {
	n := uint64(roundToPow2(capacity))
	size := n * 2

	q := &spmcShard[T]{
		buffer:   make([]spmcShardSlot[T], size),
		capacity: n,
		size:     size,
		mask:     size - 1,
	}
	for i := uint64(0); i < size; i++ {
		q.buffer[i].cycle.StoreRelaxed(i / n)
	}
	return q
}

func (q *spmcShard[T]) enqueue(elem *T) error {
	tail := q.tail.LoadRelaxed()
	head := q.head.LoadAcquire()
	if tail >= head+q.capacity {
		return ErrQueueFull
	}

	cycle := tail / q.capacity
	slot := &q.buffer[tail&q.mask]
	slotCycle := slot.cycle.LoadAcquire()
	if slotCycle != cycle {
		return ErrQueueFull
	}

	slot.data = *elem
	slot.cycle.StoreRelease(cycle + 1)
	q.tail.StoreRelaxed(tail + 1)
	return nil
}

func (q *spmcShard[T]) dequeue() (T, bool) {
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

			tail := q.tail.LoadRelaxed()
			if tail <= myHead+1 {
				q.catchup(tail, myHead+1)
				var zero T
				return zero, false
			}
		}
		sw.Once()
	}
}

func (q *spmcShard[T]) catchup(tail, head uint64) {
	for tail < head {
		if q.tail.CompareAndSwapRelaxed(tail, head) {
			break
		}
		tail = q.tail.LoadRelaxed()
		head = q.head.LoadRelaxed()
	}
}

func (q *spmcShard[T]) cap() int {
	return int(q.capacity)
}
