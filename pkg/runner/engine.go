package runner

import (
	"context"
	"sync"

	"github.com/aretw0/automaton/pkg/fsm"
	"github.com/aretw0/automaton/pkg/session"
)

// Engine is what the runner fires events on.
type Engine interface {
	Fire(ctx context.Context, event string) (Step, error)
	State(ctx context.Context) (string, error)
}

// NewAutomatonEngine runs events against an in-memory automaton.
func NewAutomatonEngine(a *fsm.Automaton) Engine {
	return &automatonEngine{a: a}
}

type automatonEngine struct {
	mu sync.Mutex
	a  *fsm.Automaton
}

func (e *automatonEngine) Fire(_ context.Context, event string) (Step, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	step := Step{Event: event}
	if s := e.a.CurrentState(); s != nil {
		step.From = s.Name()
	}
	action, err := e.a.Fire(event)
	if s := e.a.CurrentState(); s != nil {
		step.State = s.Name()
	}
	step.Action = action
	return step, err
}

func (e *automatonEngine) State(context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.a.Err(); err != nil {
		return "", err
	}
	if s := e.a.CurrentState(); s != nil {
		return s.Name(), nil
	}
	return "", fsm.ErrNotStarted
}

// NewSessionEngine runs events against a persisted session, so every step
// survives a restart of the process.
func NewSessionEngine(mgr *session.Manager, sessionID string) Engine {
	return &sessionEngine{mgr: mgr, id: sessionID}
}

type sessionEngine struct {
	mgr *session.Manager
	id  string
}

func (e *sessionEngine) Fire(ctx context.Context, event string) (Step, error) {
	from, err := e.mgr.Current(ctx, e.id)
	if err != nil {
		return Step{Event: event}, err
	}
	res, err := e.mgr.Fire(ctx, e.id, event)
	return Step{From: from, Event: event, Action: res.Action, State: res.State}, err
}

func (e *sessionEngine) State(ctx context.Context) (string, error) {
	return e.mgr.Current(ctx, e.id)
}
