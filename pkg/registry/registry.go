// Package registry maps action labels to the Go functions that perform them.
//
// An automaton only names its actions; hosts that want a transition to have
// a side effect register a handler under the same label and hand the
// registry to session.WithActions.
package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/automaton/pkg/fsm"
)

// ErrActionNotFound is returned by Execute for labels with no handler.
var ErrActionNotFound = errors.New("action not registered")

// ActionFunc performs the side effect of a committed transition.
type ActionFunc func(ctx context.Context, t fsm.Transition) error

// Registry manages the available action handlers.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]ActionFunc
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]ActionFunc),
	}
}

// Register adds a handler for the action label.
// If a handler with the same name exists, it is overwritten.
func (r *Registry) Register(action string, fn ActionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[action] = fn
}

// Lookup returns the handler registered for action.
func (r *Registry) Lookup(action string) (ActionFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.actions[action]
	return fn, ok
}

// Names returns the registered labels, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Execute runs the handler for t.Action. Transitions without an action are
// a no-op.
func (r *Registry) Execute(ctx context.Context, t fsm.Transition) error {
	if t.Action == "" {
		return nil
	}
	fn, ok := r.Lookup(t.Action)
	if !ok {
		return fmt.Errorf("%w: %s", ErrActionNotFound, t.Action)
	}
	return fn(ctx, t)
}
