// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// poolFreeListFAA is the default free-list backing a Pool's per-location
// sub-pool. It stores encoded *T pointers as uintptr handles, following
// the buffer-pool pattern of indirect queues: enqueue/dequeue move a
// handle, never the pooled item itself.
//
// Uses 128-bit atomic operations to pack cycle and handle into a single
// atomic entry (SCQ algorithm, Nikolaev DISC 2019), requiring 2n physical
// slots for capacity n.
type poolFreeListFAA struct {
	_        pad
	tail     atomix.Uint64 // producer index (FAA)
	_        pad
	head     atomix.Uint64 // consumer index (FAA)
	_        pad
	buffer   []poolFreeListFAASlot
	capacity uint64 // n (usable capacity)
	size     uint64 // 2n (physical slots)
	mask     uint64 // 2n - 1
}

type poolFreeListFAASlot struct {
	entry atomix.Uint128 // lo=cycle, hi=handle
	_     [64 - 16]byte  // pad to cache line
}

func newPoolFreeListFAA(capacity int) *poolFreeListFAA {
	n := uint64(roundToPow2(capacity))
	size := n * 2

	q := &poolFreeListFAA{
		buffer:   make([]poolFreeListFAASlot, size),
		capacity: n,
		size:     size,
		mask:     size - 1,
	}
	for i := uint64(0); i < size; i++ {
		q.buffer[i].entry.StoreRelaxed(i/n, 0)
	}
	return q
}

func (q *poolFreeListFAA) enqueue(handle uintptr) error {
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
		slotCycle, valHi := slot.entry.LoadAcquire()

		if slotCycle == expectedCycle {
			if slot.entry.CompareAndSwapAcqRel(expectedCycle, valHi, expectedCycle+1, uint64(handle)) {
				return nil
			}
		}
		if int64(slotCycle) < int64(expectedCycle) {
			return ErrQueueFull
		}
		sw.Once()
	}
}

func (q *poolFreeListFAA) dequeue() (uintptr, bool) {
	sw := spin.Wait{}
	for {
		myHead := q.head.AddAcqRel(1) - 1
		slot := &q.buffer[myHead&q.mask]
		expectedCycle := myHead/q.capacity + 1
		slotCycle, valHi := slot.entry.LoadAcquire()

		if slotCycle == expectedCycle {
			nextEnqCycle := (myHead + q.size) / q.capacity
			if slot.entry.CompareAndSwapAcqRel(slotCycle, valHi, nextEnqCycle, 0) {
				return uintptr(valHi), true
			}
		}

		if int64(slotCycle) < int64(expectedCycle) {
			nextEnqCycle := (myHead + q.size) / q.capacity
			slot.entry.CompareAndSwapAcqRel(slotCycle, valHi, nextEnqCycle, 0)

			tail := q.tail.LoadAcquire()
			if tail <= myHead+1 {
				q.catchup(tail, myHead+1)
				return 0, false
			}
		}
		sw.Once()
	}
}

func (q *poolFreeListFAA) catchup(tail, head uint64) {
	for tail < head {
		if q.tail.CompareAndSwapRelaxed(tail, head) {
			break
		}
		tail = q.tail.LoadRelaxed()
		head = q.head.LoadRelaxed()
	}
}

func (q *poolFreeListFAA) cap() int {
	return int(q.capacity)
}
