// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// mpscShard is an FAA-based multi-producer single-consumer bounded queue.
// It backs mailboxes fed by a parallel arrow (many worker threads pushing
// concurrently) into a sequential arrow (a single thread draining), such
// as the output of a Map stage feeding a Fold arrow.
type mpscShard[T any] struct {
	_        pad
	head     atomix.Uint64 // consumer index; only the single consumer writes it
	_        pad
	tail     atomix.Uint64 // producer index (FAA)
	_        pad
	buffer   []mpscShardSlot[T]
	capacity uint64 // n (usable capacity)
	size     uint64 // 2n (physical slots)
	mask     uint64 // 2n - 1
}

type mpscShardSlot[T any] struct {
	cycle atomix.Uint64
	data  T
	_     padShort
}

func newMPSCShard[T any](capacity int) *mpscShard[T] {
	n := uint64(roundToPow2(capacity))
	size := n * 2

	q := &mpscShard[T]{
		buffer:   make([]mpscShardSlot[T], size),
		capacity: n,
		size:     size,
		mask:     size - 1,
	}
	for i := uint64(0); i < size; i++ {
		q.buffer[i].cycle.StoreRelaxed(i / n)
	}
	return q
}

func (q *mpscShard[T]) enqueue(elem *T) error {
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		head := q.head.LoadRelaxed()
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

func (q *mpscShard[T]) dequeue() (T, bool) {
	head := q.head.LoadRelaxed()
	cycle := head / q.capacity
	slot := &q.buffer[head&q.mask]
	slotCycle := slot.cycle.LoadAcquire()

	if slotCycle != cycle+1 {
		var zero T
		return zero, false
	}

	elem := slot.data
	var zero T
	slot.data = zero
	nextEnqCycle := (head + q.size) / q.capacity
	slot.cycle.StoreRelease(nextEnqCycle)
	q.head.StoreRelaxed(head + 1)
	return elem, true
}

func (q *mpscShard[T]) cap() int {
	return int(q.capacity)
}
