package fsm

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingTransition is returned when reading a transition that was never declared.
	ErrMissingTransition = errors.New("missing transition configuration")

	// ErrNoStateDeclared is returned by builder calls issued before StartFrom or ComingFrom.
	ErrNoStateDeclared = errors.New("no state declared")

	// ErrNotStarted is returned by Fire when the automaton has no initial state.
	ErrNotStarted = errors.New("automaton has no initial state")

	// ErrIllegalEvent matches every *IllegalEventError.
	ErrIllegalEvent = errors.New("illegal event")
)

// ConfigurationError reports a construction mistake: an undeclared transition
// or a builder call that has no state to act on.
type ConfigurationError struct {
	State string
	Event string
	Err   error
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.State == "" && e.Event == "":
		return fmt.Sprintf("configuration error: %v", e.Err)
	case e.Event == "":
		return fmt.Sprintf("configuration error in state %q: %v", e.State, e.Err)
	default:
		return fmt.Sprintf("configuration error in state %q for event %q: %v", e.State, e.Event, e.Err)
	}
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// IllegalEventError is returned by Automaton.Fire when the active state
// does not accept the event. It is a run-time protocol violation.
type IllegalEventError struct {
	State string
	Event string
}

func (e *IllegalEventError) Error() string {
	return fmt.Sprintf("event %q not supported in state %q", e.Event, e.State)
}

// Is reports whether target is ErrIllegalEvent.
func (e *IllegalEventError) Is(target error) bool {
	return target == ErrIllegalEvent
}

func missingTransition(state, event string) error {
	return &ConfigurationError{State: state, Event: event, Err: ErrMissingTransition}
}

// ErrUnknownState is returned when a snapshot names a state missing from its graph.
var ErrUnknownState = errors.New("unknown state")

// ErrSealedSnapshot is returned by Restore for snapshots still wrapped by a
// store middleware.
var ErrSealedSnapshot = errors.New("snapshot is sealed")
