// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// mpscCompactShard is a CAS-based multi-producer single-consumer bounded
// queue using n physical slots rather than the FAA default's 2n.
type mpscCompactShard[T any] struct {
	_        pad
	head     atomix.Uint64 // consumer reads from here
	_        pad
	tail     atomix.Uint64 // producers CAS here
	_        pad
	buffer   []mpscCompactShardSlot[T]
	mask     uint64
	capacity uint64
}

type mpscCompactShardSlot[T any] struct {
	seq  atomix.Uint64
	data T
	_    padShort
}

func newMPSCCompactShard[T any](capacity int) *mpscCompactShard[T] {
	n := uint64(roundToPow2(capacity))
	q := &mpscCompactShard[T]{
		buffer:   make([]mpscCompactShardSlot[T], n),
		mask:     n - 1,
		capacity: n,
	}
	for i := uint64(0); i < n; i++ {
		q.buffer[i].seq.StoreRelaxed(i)
	}
	return q
}

func (q *mpscCompactShard[T]) enqueue(elem *T) error {
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		head := q.head.LoadAcquire()
		if tail >= head+q.capacity {
			return ErrQueueFull
		}

		slot := &q.buffer[tail&q.mask]
		seq := slot.seq.LoadAcquire()

		if seq == tail {
			if q.tail.CompareAndSwapAcqRel(tail, tail+1) {
				slot.data = *elem
				slot.seq.StoreRelease(tail + 1)
				return nil
			}
		} else if seq < tail {
			return ErrQueueFull
		}
		sw.Once()
	}
}

func (q *mpscCompactShard[T]) dequeue() (T, bool) {
	head := q.head.LoadRelaxed()
	slot := &q.buffer[head&q.mask]
	seq := slot.seq.LoadAcquire()

	if seq != head+1 {
		var zero T
		return zero, false
	}

	elem := slot.data
	var zero T
	slot.data = zero
	slot.seq.StoreRelease(head + q.capacity)
	q.head.StoreRelease(head + 1)
	return elem, true
}

func (q *mpscCompactShard[T]) cap() int {
	return int(q.capacity)
}
