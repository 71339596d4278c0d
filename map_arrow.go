// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

// FactoryTrigger forces evaluation of one (type, tag) factory for ev,
// following spec.md §4.6's Get protocol; its own body may transitively
// call Get on other factories, forming the call graph cycle detection
// guards against.
type FactoryTrigger func(ev *Event) error

// TriggerGet returns a FactoryTrigger invoking Get[T](ev, tag) and
// discarding the result, used to root a Map arrow's factory chain at
// the outputs a topology actually needs materialised.
func TriggerGet[T any](tag string) FactoryTrigger {
	return func(ev *Event) error {
		_, err := Get[T](ev, tag)
		return err
	}
}

// MapArrow runs one or more FactoryTriggers against each event it
// draws from its input mailbox. Parallel: spec.md §2's table marks Map
// as the one arrow kind multiple workers execute concurrently by
// default.
type MapArrow struct {
	*PipelineArrow
	triggers []FactoryTrigger
}

// NewMapArrow builds a MapArrow rooting its factory chain at triggers.
func NewMapArrow(name string, in, out *Mailbox[*Event], triggers ...FactoryTrigger) *MapArrow {
	ma := &MapArrow{triggers: triggers}
	ma.PipelineArrow = NewPipelineArrow(name, true, in, out, nil, ma)
	return ma
}

func (ma *MapArrow) process(ev *Event, _ int) (ArrowStatus, error) {
	for _, t := range ma.triggers {
		if err := t(ev); err != nil {
			return StatusError, err
		}
	}
	return StatusKeepGoing, nil
}
