// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// mpmcCompactShard is a CAS-based multi-producer multi-consumer bounded
// queue using per-slot sequence numbers for full ABA safety. It trades the
// FAA variant's 2n physical slots for n, at the cost of scalability under
// very high contention. Selected for a mailbox built with
// MailboxOptions.Compact set and neither side sequential.
type mpmcCompactShard[T any] struct {
	_        pad
	tail     atomix.Uint64 // producer index
	_        pad
	head     atomix.Uint64 // consumer index
	_        pad
	buffer   []mpmcCompactShardSlot[T]
	mask     uint64
	capacity uint64
}

type mpmcCompactShardSlot[T any] struct {
	seq  atomix.Uint64
	data T
	_    padShort
}

func newMPMCCompactShard[T any](capacity int) *mpmcCompactShard[T] {
	n := uint64(roundToPow2(capacity))
	q := &mpmcCompactShard[T]{
		buffer:   make([]mpmcCompactShardSlot[T], n),
		mask:     n - 1,
		capacity: n,
	}
	for i := uint64(0); i < n; i++ {
		q.buffer[i].seq.StoreRelaxed(i)
	}
	return q
}

func (q *mpmcCompactShard[T]) enqueue(elem *T) error {
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		slot := &q.buffer[tail&q.mask]
		seq := slot.seq.LoadAcquire()
		diff := int64(seq) - int64(tail)

		if diff == 0 {
			if q.tail.CompareAndSwapAcqRel(tail, tail+1) {
				slot.data = *elem
				slot.seq.StoreRelease(tail + 1)
				return nil
			}
		} else if diff < 0 {
			return ErrQueueFull
		}
		sw.Once()
	}
}

func (q *mpmcCompactShard[T]) dequeue() (T, bool) {
	sw := spin.Wait{}
	for {
		head := q.head.LoadAcquire()
		slot := &q.buffer[head&q.mask]
		seq := slot.seq.LoadAcquire()
		diff := int64(seq) - int64(head+1)

		if diff == 0 {
			if q.head.CompareAndSwapAcqRel(head, head+1) {
				elem := slot.data
				var zero T
				slot.data = zero
				slot.seq.StoreRelease(head + q.capacity)
				return elem, true
			}
		} else if diff < 0 {
			var zero T
			return zero, false
		}
		sw.Once()
	}
}

func (q *mpmcCompactShard[T]) cap() int {
	return int(q.capacity)
}
