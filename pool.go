// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import (
	"unsafe"

	"code.hybscloud.com/atomix"
)

// Resettable is implemented by pooled item types that need to clear
// internal state before being handed back out by Get. Pool calls Reset
// on the way into Put, so a borrowed item is never touched again after
// release, and once on an item freshly allocated by new(T) so that it
// starts from the same state as a recycled one (e.g. Event's ChildTotal
// sentinel of -1). A recycled item is not reset again on the way out.
type Resettable interface {
	Reset()
}

// Pool is a per-location, lock-free recycling allocator for event and
// timeslice objects. Get recycles a returned item when one is available
// at the caller's location, allocates a fresh T on a miss while under
// max_size, or returns nil otherwise: a full pool is backpressure, not a
// fault, exactly as a full Mailbox is.
//
// The free list stores *T values encoded as uintptr handles rather than
// the items themselves, following the same indirect-queue pattern the
// mailbox's backing algorithms use for buffer pools.
type Pool[T any] struct {
	_           pad
	allocated   atomix.Int64 // total T ever constructed, bounded by maxSize
	_           pad
	borrowed    atomix.Int64 // currently outstanding (Get'd, not yet Put back)
	_           pad
	maxSize     atomix.Int64
	maxInflight atomix.Int64
	freeLists   []freeListQueue
}

// NewPool constructs a Pool allocating at most maxSize items in total,
// with maxSize split evenly across the per-location free lists. compact
// selects the CAS-based free-list variant over the
// FAA-based default.
func NewPool[T any](maxSize, locations int, compact bool) *Pool[T] {
	if locations < 1 {
		locations = 1
	}
	p := &Pool[T]{
		freeLists: make([]freeListQueue, locations),
	}
	p.maxSize.StoreRelaxed(int64(maxSize))
	p.maxInflight.StoreRelaxed(int64(maxSize))
	perLoc := maxSize / locations
	if perLoc < 1 {
		perLoc = 1
	}
	for i := range p.freeLists {
		if compact {
			p.freeLists[i] = newPoolFreeListCompact(perLoc)
		} else {
			p.freeLists[i] = newPoolFreeListFAA(perLoc)
		}
	}
	return p
}

// SetLimits updates the pool's size and inflight ceilings. Intended for
// startup configuration (e.g. from ParameterManager-derived values)
// before any worker calls Get; changing maxSize after the pool has
// started allocating does not resize the free lists, it only moves the
// allocation gate consulted by Get.
func (p *Pool[T]) SetLimits(maxSize, maxInflight int) {
	p.maxSize.StoreRelease(int64(maxSize))
	p.maxInflight.StoreRelease(int64(maxInflight))
}

// Get returns a recycled or freshly allocated *T, or nil if the pool is
// at its inflight ceiling. A nil return is backpressure: the caller
// (typically a Source or Unfold arrow) should report ComeBackLater
// rather than treat it as an error.
func (p *Pool[T]) Get(loc int) *T {
	if p.borrowed.LoadAcquire() >= p.maxInflight.LoadAcquire() {
		return nil
	}

	n := len(p.freeLists)
	start := loc % n
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		if handle, ok := p.freeLists[idx].dequeue(); ok {
			p.borrowed.AddAcqRel(1)
			return (*T)(unsafe.Pointer(handle))
		}
	}

	if p.allocated.LoadAcquire() >= p.maxSize.LoadAcquire() {
		return nil
	}
	p.allocated.AddAcqRel(1)
	p.borrowed.AddAcqRel(1)
	item := new(T)
	if r, ok := any(item).(Resettable); ok {
		r.Reset()
	}
	return item
}

// Put returns item to the free list at location loc. If item implements
// Resettable, Reset is called before the item becomes eligible for
// recycling. If the free list at loc is full (e.g. SetLimits shrank the
// pool after items were already allocated), item is dropped for the
// garbage collector and the allocation count is not decremented, since
// that capacity was already spent.
func (p *Pool[T]) Put(item *T, loc int) {
	if item == nil {
		return
	}
	if r, ok := any(item).(Resettable); ok {
		r.Reset()
	}
	handle := uintptr(unsafe.Pointer(item))
	shard := p.freeLists[loc%len(p.freeLists)]
	if err := shard.enqueue(handle); err != nil {
		p.borrowed.AddAcqRel(-1)
		return
	}
	p.borrowed.AddAcqRel(-1)
}

// Size returns the number of items currently on loan (Get'd, not yet
// returned).
func (p *Pool[T]) Size() int {
	return int(p.borrowed.LoadAcquire())
}

// MaxSize returns the current allocation ceiling.
func (p *Pool[T]) MaxSize() int {
	return int(p.maxSize.LoadAcquire())
}
