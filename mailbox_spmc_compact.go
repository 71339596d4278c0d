// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// spmcCompactShard is a CAS-based single-producer multi-consumer bounded
// queue using n physical slots rather than the FAA default's 2n.
type spmcCompactShard[T any] struct {
	_        pad
	head     atomix.Uint64 // consumers CAS here
	_        pad
	tail     atomix.Uint64 // producer writes here
	_        pad
	buffer   []spmcCompactShardSlot[T]
	mask     uint64
	capacity uint64
}

type spmcCompactShardSlot[T any] struct {
	seq  atomix.Uint64
	data T
	_    padShort
}

func newSPMCCompactShard[T any](capacity int) *spmcCompactShard[T] {
	n := uint64(roundToPow2(capacity))
	q := &spmcCompactShard[T]{
		buffer:   make([]spmcCompactShardSlot[T], n),
		mask:     n - 1,
		capacity: n,
	}
	for i := uint64(0); i < n; i++ {
		q.buffer[i].seq.StoreRelaxed(i)
	}
	return q
}

func (q *spmcCompactShard[T]) enqueue(elem *T) error {
	tail := q.tail.LoadRelaxed()
	slot := &q.buffer[tail&q.mask]
	seq := slot.seq.LoadAcquire()

	if seq != tail {
		return ErrQueueFull
	}

	slot.data = *elem
	slot.seq.StoreRelease(tail + 1)
	q.tail.StoreRelease(tail + 1)
	return nil
}

func (q *spmcCompactShard[T]) dequeue() (T, bool) {
	sw := spin.Wait{}
	for {
		head := q.head.LoadAcquire()
		tail := q.tail.LoadAcquire()

		if head >= tail {
			var zero T
			return zero, false
		}

		slot := &q.buffer[head&q.mask]
		seq := slot.seq.LoadAcquire()

		if seq == head+1 {
			if q.head.CompareAndSwapAcqRel(head, head+1) {
				elem := slot.data
				var zero T
				slot.data = zero
				slot.seq.StoreRelease(head + q.capacity)
				return elem, true
			}
		} else if seq < head+1 {
			var zero T
			return zero, false
		}
		sw.Once()
	}
}

func (q *spmcCompactShard[T]) cap() int {
	return int(q.capacity)
}
