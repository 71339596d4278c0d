// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import (
	"errors"
	"fmt"

	"code.hybscloud.com/iox"
)

// ErrQueueFull indicates a Mailbox push could not proceed because the
// mailbox is at capacity. This is a control flow signal, not a failure:
// arrows convert it to ComeBackLater and retry on a later scheduler pass.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency with
// the rest of the hybscloud stack.
var ErrQueueFull = iox.ErrWouldBlock

// IsQueueFull reports whether err indicates a mailbox was at capacity.
func IsQueueFull(err error) bool {
	return iox.IsWouldBlock(err)
}

// Sentinel error kinds used outside the mailbox/pool backpressure path.
// QueueFull, PoolEmpty (a nil Pool.Get return, not an error value) and
// SourceTryAgainLater are local: the arrow layer folds them into
// StatusComeBackLater rather than propagating them. ErrFactoryMissing,
// ErrFactoryCycle, ErrConfigError, ErrPluginLoad and ErrFatal abort the
// run after best-effort cleanup when an arrow's processing returns them;
// ErrSourceOpen is not among them.
var (
	// ErrFactoryMissing is raised when Event.Get requests a (type, tag)
	// pair with no registered factory in the event's factory set.
	ErrFactoryMissing = errors.New("jana: factory missing for requested type/tag")

	// ErrFactoryCycle is raised when a factory's Process is re-entered
	// while already in progress for the same event, i.e. the call graph
	// of Event.Get invocations formed a cycle.
	ErrFactoryCycle = errors.New("jana: factory cycle detected")

	// ErrConfigError covers a bad parameter value or an unknown plugin
	// name at startup.
	ErrConfigError = errors.New("jana: configuration error")

	// ErrPluginLoad covers a failure to locate or open a plugin shared
	// object.
	ErrPluginLoad = errors.New("jana: plugin load error")

	// ErrSourceOpen covers a failure to open an event source (e.g. a
	// missing input file); construction-time, not per-event.
	ErrSourceOpen = errors.New("jana: source open error")

	// ErrFatal marks an unrecoverable invariant violation. The
	// application aborts the run with a non-zero exit code.
	ErrFatal = errors.New("jana: fatal invariant violation")
)

// UserError wraps an error raised by user-supplied factory or processor
// code, attaching the event/run context needed for diagnostics. The
// offending event is always dropped and processing continues; there is
// no setting that makes a UserError abort the run.
type UserError struct {
	Component string // factory or processor name
	EventNr   uint64
	RunNr     int32
	Err       error
}

func (e *UserError) Error() string {
	return fmt.Sprintf("jana: user error in %s (event %d, run %d): %v", e.Component, e.EventNr, e.RunNr, e.Err)
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// IsSourceExhausted reports whether err represents the normal terminal
// state of an event source (not an error condition; see SourceExhausted
// in Source.GetEvent).
func IsSourceExhausted(err error) bool {
	return errors.Is(err, ErrSourceExhausted)
}

// ErrSourceExhausted is returned by a Source's GetEvent to signal that no
// further events will ever be produced. It is propagated as a normal
// terminal status, never logged as a failure.
var ErrSourceExhausted = errors.New("jana: source exhausted")
