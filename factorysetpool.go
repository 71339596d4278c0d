// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

// FactorySetPool recycles a fixed number of physical FactorySet slots
// across many events, per location, the same way Pool[Event] recycles
// Events. It differs from a plain Pool[FactorySet] in one respect:
// Pool[T]'s miss path allocates a zero-value T, which for a FactorySet
// means an empty byKey map with nothing registered. Get seeds a
// freshly allocated slot from template exactly once, the first time
// that physical slot is ever handed out; afterwards the slot is only
// ever cleared and recycled, never rebuilt. That is what lets a
// factory's Init/ChangeRun memoisation hold across every event the
// slot is later bound to, per spec.md §3/§4.2's "drawn from a shared
// pool... always reset before reuse" (reset, not reconstructed).
type FactorySetPool struct {
	pool     *Pool[FactorySet]
	template *FactorySet
}

// NewFactorySetPool builds a FactorySetPool of up to maxSize physical
// slots spread across locations, each seeded from template's
// registered factories on first use.
func NewFactorySetPool(template *FactorySet, maxSize, locations int) *FactorySetPool {
	return &FactorySetPool{
		pool:     NewPool[FactorySet](maxSize, locations, false),
		template: template,
	}
}

// Get returns a FactorySet carrying its own independent instance of
// every factory registered on template, or nil if the pool is at its
// inflight ceiling (backpressure, as with Pool[T].Get).
func (p *FactorySetPool) Get(loc int) *FactorySet {
	fs := p.pool.Get(loc)
	if fs == nil {
		return nil
	}
	if fs.byKey == nil {
		fs.byKey = make(map[factoryKey]Factory, len(p.template.byKey))
		for k, v := range p.template.byKey {
			fs.byKey[k] = v.newInstance()
		}
	}
	return fs
}

// Put returns fs to its free list, clearing every factory's per-event
// state (per its Persistent/ObjectOwner flags) via FactorySet.Reset.
func (p *FactorySetPool) Put(fs *FactorySet, loc int) {
	p.pool.Put(fs, loc)
}
