// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import "unsafe"

// shardQueue is the internal bounded-FIFO backing a single location
// partition of a Mailbox. Each arrow-to-arrow connection picks the shard
// algorithm matching its producer/consumer cardinality (see mailbox.go),
// the same way lfq.Build selected an algorithm from SingleProducer /
// SingleConsumer constraints.
type shardQueue[T any] interface {
	enqueue(elem *T) error
	dequeue() (T, bool)
	cap() int
}

// freeListQueue is the internal backing store for a Pool's per-location
// free list. It stores *T pointers encoded as uintptr handles rather than
// the items themselves, so recycling never copies T.
type freeListQueue interface {
	enqueue(idx uintptr) error
	dequeue() (uintptr, bool)
	cap() int
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// ptrSize is the size of a pointer in bytes.
const ptrSize = int(unsafe.Sizeof(uintptr(0)))

// pad is cache line padding to prevent false sharing.
type pad [64]byte

// padShort is padding to fill a cache line after an 8-byte field.
type padShort [64 - 8]byte
