// Package eventloop implements the EventLoop & CommandDispatcher leaf of
// the thermal pipeline (spec.md §4.9): a fixed-period state machine that
// polls the supply, runs the controller, dispatches to a command's
// capability hooks, and records history, grounded on the teacher's
// ticker+stop-channel+WaitGroup control loop (serving.ServerControlLoop)
// and its signal-driven shutdown idiom.
package eventloop

import "github.com/brettski74/milton/internal/status"

// Signal is returned by a command's capability hooks to tell the event
// loop whether to keep running or transition to Postprocess.
type Signal int

const (
	// Continue keeps the event loop in its current state.
	Continue Signal = iota
	// Stop transitions the event loop to Postprocess.
	Stop
)

// Capabilities is the capability-struct a Command exposes: only the
// non-nil hooks are invoked by the event loop, inspected once when Run
// starts, replacing a duck-typed `can('timerEvent')` check (spec.md
// §9 REDESIGN FLAGS) with an explicit, statically-typed set of optional
// callbacks.
type Capabilities struct {
	// Initialize runs once during the Init state.
	Initialize func() error
	// Preprocess runs once during the Preprocess state, given the single
	// preprocess poll's status record.
	Preprocess func(s *status.Status) (Signal, error)
	// TimerEvent runs once per tick during Ticking.
	TimerEvent func(s *status.Status) (Signal, error)
	// KeyEvent runs once per keystroke during KeyInput. Only installed by
	// the event loop if non-nil.
	KeyEvent func(s *status.Status) (Signal, error)
	// Postprocess runs once during Postprocess, given the finite, ordered,
	// non-empty run history.
	Postprocess func(history []*status.Status) error
	// Warn is invoked for the warning-level notices spec.md §7's error
	// handling policy calls for: a transient transport retry, a
	// thermal-cutoff engagement, and similar non-fatal conditions the
	// event loop itself detects rather than the command's own logic.
	Warn func(message string)
}

// Command is anything the event loop can drive. Capabilities returns the
// struct of optional hooks this command implements; any zero-value
// (nil) field is simply skipped.
type Command interface {
	Capabilities() Capabilities
}
