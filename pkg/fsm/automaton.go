package fsm

import (
	"log/slog"
	"sort"

	"github.com/aretw0/automaton/internal/logging"
)

// Automaton owns a registry of named states, remembers the initial and the
// currently active state, and drives transitions with Fire.
//
// The builder methods return the automaton itself so they can be chained.
// A builder call that cannot be honoured records an error, turns every later
// builder call into a no-op, and is reported by Err and Fire.
type Automaton struct {
	registry    map[string]*State
	initial     *State
	current     *State
	configuring *State
	err         error

	logger *slog.Logger
	hooks  Hooks
}

// Option configures an Automaton.
type Option func(*Automaton)

// WithLogger sets the logger used to trace transitions at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Automaton) {
		a.logger = logger
	}
}

// WithHooks registers observability callbacks.
func WithHooks(hooks Hooks) Option {
	return func(a *Automaton) {
		a.hooks = hooks
	}
}

// New creates an empty automaton.
func New(opts ...Option) *Automaton {
	a := &Automaton{
		registry: make(map[string]*State),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Automaton) vivify(name string) *State {
	s, ok := a.registry[name]
	if !ok {
		s = NewState(name)
		a.registry[name] = s
	}
	return s
}

// StartFrom declares name as the initial state and the state being configured.
// Calling it again re-roots the automaton.
func (a *Automaton) StartFrom(name string) *Automaton {
	if a.err != nil {
		return a
	}
	s := a.vivify(name)
	s.resetCursor()
	a.configuring = s
	a.initial = s
	return a
}

// ComingFrom selects name as the state being configured.
func (a *Automaton) ComingFrom(name string) *Automaton {
	if a.err != nil {
		return a
	}
	s := a.vivify(name)
	s.resetCursor()
	a.configuring = s
	return a
}

// GoIn sets the target of the transition being configured.
func (a *Automaton) GoIn(name string) *Automaton {
	if !a.ready() {
		return a
	}
	a.configuring.GoIn(a.vivify(name))
	return a
}

// When sets the event of the transition being configured.
func (a *Automaton) When(event string) *Automaton {
	if !a.ready() {
		return a
	}
	a.configuring.When(event)
	return a
}

// Doing sets the action of the transition being configured.
func (a *Automaton) Doing(action string) *Automaton {
	if !a.ready() {
		return a
	}
	a.configuring.Do(action)
	return a
}

func (a *Automaton) ready() bool {
	if a.err != nil {
		return false
	}
	if a.configuring == nil {
		a.err = &ConfigurationError{Err: ErrNoStateDeclared}
		return false
	}
	return true
}

// Err returns the first builder error, if any.
func (a *Automaton) Err() error { return a.err }

// Fire dispatches event to the current state, moves to the transition's
// target and returns its action. The first call starts from the initial state.
func (a *Automaton) Fire(event string) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	from := a.CurrentState()
	if from == nil {
		return "", ErrNotStarted
	}

	action, next, err := from.Lookup(event)
	if err != nil {
		a.logger.Debug("Event rejected", "state", from.name, "event", event)
		a.hooks.rejected(Transition{From: from.name, Event: event})
		return "", &IllegalEventError{State: from.name, Event: event}
	}

	a.current = next
	a.logger.Debug("Transition",
		"from", from.name,
		"event", event,
		"action", action,
		"to", next.name,
	)
	a.hooks.transition(Transition{From: from.name, Event: event, Action: action, To: next.name})
	return action, nil
}

// Accepts reports whether the current state has a transition for event.
func (a *Automaton) Accepts(event string) bool {
	s := a.CurrentState()
	return s != nil && s.Has(event)
}

// InitialState returns the initial state, or nil before StartFrom.
func (a *Automaton) InitialState() *State { return a.initial }

// CurrentState returns the active state, initializing it to the initial
// state on first use.
func (a *Automaton) CurrentState() *State {
	if a.current == nil {
		a.current = a.initial
	}
	return a.current
}

// Lookup returns the registered state called name.
func (a *Automaton) Lookup(name string) (*State, bool) {
	s, ok := a.registry[name]
	return s, ok
}

// States returns the names of all registered states, sorted.
func (a *Automaton) States() []string {
	names := make([]string, 0, len(a.registry))
	for name := range a.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Equal compares the graphs reachable from both initial states. The current
// state is ignored.
func (a *Automaton) Equal(other *Automaton) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.initial.Equal(other.initial)
}

// Edges enumerates the graph reachable from the initial state.
func (a *Automaton) Edges() []Edge {
	if a.initial == nil {
		return []Edge{}
	}
	return a.initial.Edges()
}

// Dump serializes the graph reachable from the initial state.
func (a *Automaton) Dump() ([]byte, error) {
	if a.initial == nil {
		return []byte("[]"), nil
	}
	return a.initial.Dump()
}

// LoadAutomaton rebuilds an automaton from Dump output. The first edge's
// source becomes the initial state; the current state is left unset.
func LoadAutomaton(data []byte, opts ...Option) (*Automaton, error) {
	edges, err := DecodeEdges(data)
	if err != nil {
		return nil, err
	}
	return FromEdges(edges, opts...)
}

// FromEdges rebuilds an automaton from an ordered edge list. An empty list
// yields an automaton without states.
func FromEdges(edges []Edge, opts ...Option) (*Automaton, error) {
	a := New(opts...)
	if len(edges) == 0 {
		return a, nil
	}
	root, err := replay(edges, a.vivify)
	if err != nil {
		return nil, err
	}
	a.initial = root
	return a, nil
}

// Snapshot is the persisted form of an automaton: its graph and the name of
// the active state, if any.
type Snapshot struct {
	Graph   []Edge `json:"graph"`
	Current string `json:"current,omitempty"`

	// Sealed carries an opaque payload for store middleware (e.g. an
	// encrypted snapshot). A sealed snapshot cannot be restored directly.
	Sealed []byte `json:"sealed,omitempty"`
}

// Snapshot captures the graph and the active state.
func (a *Automaton) Snapshot() (*Snapshot, error) {
	if a.err != nil {
		return nil, a.err
	}
	snap := &Snapshot{Graph: a.Edges()}
	if a.current != nil {
		snap.Current = a.current.name
	}
	return snap, nil
}

// Restore rebuilds an automaton from a snapshot and positions it on the
// recorded current state.
func Restore(snap *Snapshot, opts ...Option) (*Automaton, error) {
	if len(snap.Sealed) > 0 {
		return nil, &ConfigurationError{Err: ErrSealedSnapshot}
	}
	a, err := FromEdges(snap.Graph, opts...)
	if err != nil {
		return nil, err
	}
	if snap.Current != "" {
		s, ok := a.registry[snap.Current]
		if !ok {
			return nil, &ConfigurationError{State: snap.Current, Err: ErrUnknownState}
		}
		a.current = s
	}
	return a, nil
}
