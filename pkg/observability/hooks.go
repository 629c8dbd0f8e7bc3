package observability

import (
	"log/slog"

	"github.com/aretw0/automaton/pkg/fsm"
)

// LogHooks logs accepted events at info and rejected ones at warn.
func LogHooks(logger *slog.Logger) fsm.Hooks {
	return fsm.Hooks{
		OnTransition: func(t fsm.Transition) {
			logger.Info("transition",
				"from", t.From,
				"event", t.Event,
				"action", t.Action,
				"to", t.To,
			)
		},
		OnRejected: func(t fsm.Transition) {
			logger.Warn("illegal_event", "state", t.From, "event", t.Event)
		},
	}
}

// Chain fans every callback out to hooks, in order.
func Chain(hooks ...fsm.Hooks) fsm.Hooks {
	return fsm.Hooks{
		OnTransition: func(t fsm.Transition) {
			for _, h := range hooks {
				if h.OnTransition != nil {
					h.OnTransition(t)
				}
			}
		},
		OnRejected: func(t fsm.Transition) {
			for _, h := range hooks {
				if h.OnRejected != nil {
					h.OnRejected(t)
				}
			}
		},
	}
}
