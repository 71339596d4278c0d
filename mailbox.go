// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import "code.hybscloud.com/atomix"

// MailboxStatus is the result of a Mailbox.Pop.
type MailboxStatus int

const (
	// StatusOk means an item was popped.
	StatusOk MailboxStatus = iota
	// StatusEmpty means the mailbox had no item ready at any location.
	StatusEmpty
)

func (s MailboxStatus) String() string {
	if s == StatusOk {
		return "Ok"
	}
	return "Empty"
}

// Mailbox is the bounded, multi-producer/multi-consumer FIFO connecting
// two arrows in a topology. It is partitioned into per-location shards so
// that workers pinned to the same NUMA/worker location avoid cache-line
// contention with workers at other locations; pushes land on the caller's
// location when its shard has room, and both pushes and pops scan onward
// from the caller's location and wrap around.
//
// Capacity accounting (push/pop counts and outstanding reservations) is
// global across all shards: Mailbox never reports QueueFull to one
// location while another sits empty due to partitioning alone.
type Mailbox[T any] struct {
	_         pad
	count     atomix.Int64 // physical items currently enqueued, summed across shards
	_         pad
	reserved  atomix.Int64 // outstanding reservations not yet fulfilled by a push
	_         pad
	threshold atomix.Int64 // soft low-watermark consulted by the scheduler
	_         pad
	shards    []shardQueue[T]
	capacity  int64
}

// newMailbox constructs a Mailbox whose shards implement the algorithm
// selected by the producer/consumer cardinality of the two arrows it
// connects, mirroring the selection lfq.Build performed from
// SingleProducer/SingleConsumer/Compact builder hints:
//
//	sequential producer & sequential consumer -> spsc shard (Lamport ring)
//	sequential producer, parallel consumers    -> spmc shard
//	parallel producers, sequential consumer    -> mpsc shard
//	parallel producers & parallel consumers    -> mpmc shard
//
// compact selects the CAS-based n-slot family over the FAA-based 2n-slot
// default, trading contention scalability for half the memory footprint.
func newMailbox[T any](capacity, locations int, producerSequential, consumerSequential, compact bool) *Mailbox[T] {
	if locations < 1 {
		locations = 1
	}
	mb := &Mailbox[T]{
		shards:   make([]shardQueue[T], locations),
		capacity: int64(capacity) * int64(locations),
	}
	mb.threshold.StoreRelaxed(int64(capacity))
	for i := range mb.shards {
		switch {
		case producerSequential && consumerSequential:
			mb.shards[i] = newSPSCShard[T](capacity)
		case producerSequential && compact:
			mb.shards[i] = newSPMCCompactShard[T](capacity)
		case producerSequential:
			mb.shards[i] = newSPMCShard[T](capacity)
		case consumerSequential && compact:
			mb.shards[i] = newMPSCCompactShard[T](capacity)
		case consumerSequential:
			mb.shards[i] = newMPSCShard[T](capacity)
		case compact:
			mb.shards[i] = newMPMCCompactShard[T](capacity)
		default:
			mb.shards[i] = newMPMCShard[T](capacity)
		}
	}
	return mb
}

// Locations reports the number of location partitions.
func (mb *Mailbox[T]) Locations() int {
	return len(mb.shards)
}

// Reserve atomically records n future slots against capacity. Returns n
// on success or 0 if fewer than n free slots remain (all-or-nothing; no
// partial grants). Every successful Reserve must be matched by a later
// Push, which releases the reservation.
func (mb *Mailbox[T]) Reserve(n int, loc int) int {
	for {
		cur := mb.reserved.LoadAcquire()
		used := mb.count.LoadAcquire()
		free := mb.capacity - used - cur
		if free < int64(n) {
			return 0
		}
		if mb.reserved.CompareAndSwapAcqRel(cur, cur+int64(n)) {
			return n
		}
	}
}

// Release cancels n outstanding reservations without a matching Push,
// used when an arrow reserved output space in step 1 of its execute
// protocol but could not obtain an input item in step 2.
func (mb *Mailbox[T]) Release(n int, loc int) {
	if n <= 0 {
		return
	}
	mb.reserved.AddAcqRel(-int64(n))
}

// Push appends item to the shard at location loc, falling back to the
// remaining locations round-robin when that shard's ring is full.
// Returns ErrQueueFull only if every shard is full. Never blocks.
func (mb *Mailbox[T]) Push(item *T, loc int) error {
	n := len(mb.shards)
	start := loc % n
	var err error
	for i := 0; i < n; i++ {
		if err = mb.shards[(start+i)%n].enqueue(item); err == nil {
			mb.count.AddAcqRel(1)
			if mb.reserved.LoadAcquire() > 0 {
				mb.reserved.AddAcqRel(-1)
			}
			return nil
		}
	}
	return err
}

// Pop removes the head item, preferring the shard at location loc and
// scanning the remaining locations round-robin on a miss. Never blocks.
func (mb *Mailbox[T]) Pop(loc int) (T, MailboxStatus) {
	n := len(mb.shards)
	start := loc % n
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		if item, ok := mb.shards[idx].dequeue(); ok {
			mb.count.AddAcqRel(-1)
			return item, StatusOk
		}
	}
	var zero T
	return zero, StatusEmpty
}

// Size returns the approximate number of items currently held across all
// shards. As with lock-free queues generally, this is a best-effort
// snapshot, not a linearizable count.
func (mb *Mailbox[T]) Size() int {
	return int(mb.count.LoadAcquire())
}

// Threshold returns the soft low-watermark the scheduler consults to
// decide whether an upstream arrow (typically a Source) should be
// preferred for its next assignment.
func (mb *Mailbox[T]) Threshold() int {
	return int(mb.threshold.LoadAcquire())
}

// SetThreshold updates the low-watermark.
func (mb *Mailbox[T]) SetThreshold(t int) {
	mb.threshold.StoreRelease(int64(t))
}

// Cap returns the total logical capacity across all shards.
func (mb *Mailbox[T]) Cap() int {
	return int(mb.capacity)
}
