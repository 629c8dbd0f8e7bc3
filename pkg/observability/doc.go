/*
Package observability turns automaton transitions into metrics and logs.

Both concerns plug into fsm.Hooks, so they can be attached to a single
Automaton or, through session.WithAutomatonOptions, to every session a
Manager restores:

	metrics := observability.NewMetrics(nil)
	hooks := observability.Chain(metrics.Hooks(), observability.LogHooks(logger))
	mgr := session.NewManager(store, session.WithAutomatonOptions(fsm.WithHooks(hooks)))
*/
package observability
