// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import "code.hybscloud.com/atomix"

// spscShard is a single-producer single-consumer bounded queue backed by
// a Lamport ring buffer with cached index optimization. It backs mailboxes
// connecting two sequential arrows, such as a Source feeding an Unfold,
// where the scheduler guarantees at most one worker is ever inside either
// arrow's execute at a time.
type spscShard[T any] struct {
	_          pad
	head       atomix.Uint64 // consumer reads from here
	_          pad
	cachedTail uint64 // consumer's cached view of tail
	_          pad
	tail       atomix.Uint64 // producer writes here
	_          pad
	cachedHead uint64 // producer's cached view of head
	_          pad
	buffer     []T
	mask       uint64
}

func newSPSCShard[T any](capacity int) *spscShard[T] {
	n := uint64(roundToPow2(capacity))
	return &spscShard[T]{
		buffer: make([]T, n),
		mask:   n - 1,
	}
}

func (q *spscShard[T]) enqueue(elem *T) error {
	tail := q.tail.LoadRelaxed()
	if tail-q.cachedHead > q.mask {
		q.cachedHead = q.head.LoadAcquire()
		if tail-q.cachedHead > q.mask {
			return ErrQueueFull
		}
	}

	q.buffer[tail&q.mask] = *elem
	q.tail.StoreRelease(tail + 1)
	return nil
}

func (q *spscShard[T]) dequeue() (T, bool) {
	head := q.head.LoadRelaxed()
	if head >= q.cachedTail {
		q.cachedTail = q.tail.LoadAcquire()
		if head >= q.cachedTail {
			var zero T
			return zero, false
		}
	}

	elem := q.buffer[head&q.mask]
	var zero T
	q.buffer[head&q.mask] = zero
	q.head.StoreRelease(head + 1)
	return elem, true
}

func (q *spscShard[T]) cap() int {
	return int(q.mask + 1)
}
