// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

// Topology is the immutable-after-start DAG of arrows, plus the shared
// Event pool every Source/Unfold allocates from and every Sink/Fold
// returns to. Built once by plugin init_plugin calls (see plugin.go),
// then handed to a Scheduler and ThreadManager.
type Topology struct {
	arrows    []Arrow
	byName    map[string]Arrow
	EventPool *Pool[Event]
	Locations int
}

// NewTopology returns an empty Topology backed by eventPool.
func NewTopology(eventPool *Pool[Event], locations int) *Topology {
	if locations < 1 {
		locations = 1
	}
	return &Topology{byName: make(map[string]Arrow), EventPool: eventPool, Locations: locations}
}

// AddArrow registers a, preserving insertion order (Source arrows are
// conventionally added first, Sinks last, matching spec.md §2's
// leaves-first data flow).
func (t *Topology) AddArrow(a Arrow) {
	t.arrows = append(t.arrows, a)
	t.byName[a.Name()] = a
}

// Arrows returns every registered arrow in insertion order.
func (t *Topology) Arrows() []Arrow { return t.arrows }

// Find returns the arrow registered under name, or nil.
func (t *Topology) Find(name string) Arrow { return t.byName[name] }

// Initialize wires the upstream/downstream graph (inferred from shared
// Mailbox identity between arrows' output and input edges) and then
// runs Initialize on every arrow, in insertion order.
func (t *Topology) Initialize() error {
	t.wireUpstream()
	for _, a := range t.arrows {
		if err := a.Initialize(); err != nil {
			return err
		}
	}
	return nil
}

// wireUpstream records, for every arrow with an input mailbox, which
// other arrows in the topology feed it (their output mailbox is this
// arrow's input mailbox). This lets each arrow's Execute detect "all
// upstream arrows are terminal and my input is empty" and self-finalise,
// per spec.md §4.3's scheduler-graceful-drain rule.
func (t *Topology) wireUpstream() {
	for _, a := range t.arrows {
		in := a.InputMailbox()
		if in == nil {
			continue
		}
		var ups []Arrow
		for _, other := range t.arrows {
			if other == a {
				continue
			}
			if other.OutputMailbox() == in {
				ups = append(ups, other)
			}
		}
		a.setUpstream(ups)
	}
}

// Finalize runs Finalize on every arrow not already Finished.
func (t *Topology) Finalize() error {
	for _, a := range t.arrows {
		if !a.IsFinished() {
			if err := a.Finalize(); err != nil {
				return err
			}
		}
	}
	return nil
}

// AllFinished reports whether every arrow has reached its terminal
// state, the quiescence condition Application.Run polls for.
func (t *Topology) AllFinished() bool {
	for _, a := range t.arrows {
		if !a.IsFinished() {
			return false
		}
	}
	return true
}

// FatalError returns the first fatal error recorded by any arrow, or
// nil. The Application polls this to decide whether to abort the run.
func (t *Topology) FatalError() error {
	for _, a := range t.arrows {
		if err := a.FatalError(); err != nil {
			return err
		}
	}
	return nil
}
