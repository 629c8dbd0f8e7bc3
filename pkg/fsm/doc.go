/*
Package fsm implements a small embeddable finite-state machine engine.

A machine is a graph of named states. Each State owns a table mapping an event to an
optional action label and a target state; targets may be the state itself (self-loop)
or any other state, including ancestors (cycles).

# Building states directly

States expose a fluent builder. The three calls When, Do and GoIn may be issued in any
relative order for one transition and converge on the same result:

	locked := fsm.NewState("locked")
	unlocked := fsm.NewState("unlocked")

	locked.When("coin").Do("unlock").GoIn(unlocked)
	locked.GoIn(locked).Do("alarm").When("push")

A transition is complete once it has its event, action and target. A Do or GoIn
for a field the staged transition already has starts the next transition. When a
transition omits Do or GoIn, begin the next one with When so the calls cannot be
attributed to the open transition. When no target is ever given the transition
loops back to its own state.

# Building through an Automaton

Automaton offers the same builder keyed by state names, creating states on first use:

	a := fsm.New().
		StartFrom("locked").When("coin").Doing("unlock").GoIn("unlocked").
		ComingFrom("unlocked").When("push").Doing("lock").GoIn("locked")

	action, err := a.Fire("coin") // "unlock", current state is now "unlocked"

Fire returns an *IllegalEventError when the active state has no transition for the
event. Reading an undeclared transition, or building before any state is declared,
yields a *ConfigurationError.

# Serialization

Dump produces a JSON array of [source, event, action, target] edges in depth-first
order; LoadState and LoadAutomaton rebuild an equal graph from it, cycles included.

An Automaton is not safe for concurrent use. Hosts that share one instance across
goroutines must serialize access (see package session).
*/
package fsm
