// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

// FactorySet is the collection of Factory instances belonging to one
// physical slot of a FactorySetPool, drawn from that pool and always
// reset (per each factory's Persistent/ObjectOwner flags) before reuse,
// per spec.md §3. A FactorySet outlives any single event: the same
// instance is bound to many events in sequence over its lifetime, so
// that a factory's Init/ChangeRun memoisation holds across events
// rather than resetting on every checkout.
type FactorySet struct {
	byKey map[factoryKey]Factory
}

// NewFactorySet builds an empty FactorySet. Callers register factories
// directly on it to use as a FactorySetPool's template, or bind it to a
// single Event directly when no pool is needed (e.g. in tests).
func NewFactorySet() *FactorySet {
	return &FactorySet{byKey: make(map[factoryKey]Factory)}
}

// Reset implements Resettable so FactorySet can be pooled directly.
func (fs *FactorySet) Reset() { fs.clear() }

// Register adds f under its (type, tag) key. Registering two factories
// under the same key is a configuration error the caller should treat
// as fatal at topology-build time, not per-event; Register therefore
// silently overwrites rather than erroring, mirroring a plugin
// re-registration during hot topology reload.
func (fs *FactorySet) Register(f Factory) {
	fs.byKey[factoryKey{typeName: f.typeName(), tag: f.tag()}] = f
}

func (fs *FactorySet) find(key factoryKey) (Factory, bool) {
	f, ok := fs.byKey[key]
	return f, ok
}

// clear runs every factory's clear(), per their individual
// Persistent/ObjectOwner flags.
func (fs *FactorySet) clear() {
	for _, f := range fs.byKey {
		f.clear()
	}
}
