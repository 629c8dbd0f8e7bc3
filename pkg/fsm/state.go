package fsm

import "slices"

type transition struct {
	action string
	target *State
}

// State is a named vertex of the machine graph. It owns the transition table
// for its outgoing edges and a transient builder cursor used while configuring.
//
// Identity is by pointer: two distinct states may be structurally Equal
// without being the same object. States are never merged automatically.
type State struct {
	name        string
	transitions map[string]transition
	order       []string

	// builder cursor, not part of the state's identity
	event         string
	staged        bool
	actionSet     bool
	targetSet     bool
	pendingAction string
	hasAction     bool
	pendingTarget *State
}

// NewState creates an empty state.
func NewState(name string) *State {
	return &State{
		name:        name,
		transitions: make(map[string]transition),
	}
}

// Name returns the state's name.
func (s *State) Name() string { return s.name }

func (s *State) String() string { return s.name }

// When stages event as the trigger of the transition being configured.
// An action or target stashed by earlier Do/GoIn calls is committed to it.
func (s *State) When(event string) *State {
	s.event = event
	s.staged = true
	s.actionSet = s.hasAction
	s.targetSet = s.pendingTarget != nil
	if !s.hasAction && s.pendingTarget == nil {
		return s
	}

	t, ok := s.transitions[event]
	if s.hasAction {
		t.action = s.pendingAction
	}
	switch {
	case s.pendingTarget != nil:
		t.target = s.pendingTarget
	case !ok:
		t.target = s
	}
	s.clearPending()
	s.set(event, t)
	return s
}

// Do sets the action label of the staged transition. Without a staged event,
// or once the staged transition already has an action, the label is stashed
// for the next When. A transition that never receives a target loops back
// to s.
func (s *State) Do(action string) *State {
	if !s.staged || s.actionSet {
		s.staged = false
		s.pendingAction = action
		s.hasAction = true
		return s
	}

	t, ok := s.transitions[s.event]
	t.action = action
	if !ok {
		t.target = s
	}
	s.actionSet = true
	s.set(s.event, t)
	return s
}

// GoIn sets the target of the staged transition, stashing it for the next
// When under the same conditions as Do. A nil target means s itself.
func (s *State) GoIn(target *State) *State {
	if target == nil {
		target = s
	}
	if !s.staged || s.targetSet {
		s.staged = false
		s.pendingTarget = target
		return s
	}

	t := s.transitions[s.event]
	t.target = target
	s.targetSet = true
	s.set(s.event, t)
	return s
}

// Action returns the action label of the transition fired by event.
func (s *State) Action(event string) (string, error) {
	t, ok := s.transitions[event]
	if !ok {
		return "", missingTransition(s.name, event)
	}
	return t.action, nil
}

// Lookup returns the action and target of the transition fired by event.
// The action is empty when none was configured.
func (s *State) Lookup(event string) (string, *State, error) {
	t, ok := s.transitions[event]
	if !ok {
		return "", nil, missingTransition(s.name, event)
	}
	return t.action, t.target, nil
}

// Has reports whether s has a transition for event.
func (s *State) Has(event string) bool {
	_, ok := s.transitions[event]
	return ok
}

// Events returns the accepted events in declaration order.
func (s *State) Events() []string {
	return slices.Clone(s.order)
}

func (s *State) set(event string, t transition) {
	if _, ok := s.transitions[event]; !ok {
		s.order = append(s.order, event)
	}
	s.transitions[event] = t
}

func (s *State) clearPending() {
	s.pendingAction = ""
	s.hasAction = false
	s.pendingTarget = nil
}

func (s *State) resetCursor() {
	s.clearPending()
	s.event = ""
	s.staged = false
	s.actionSet = false
	s.targetSet = false
}
