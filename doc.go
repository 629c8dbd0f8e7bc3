/*
Package automaton is an embeddable finite state machine engine.

An automaton is a set of named states. Each state maps events to a
transition: an optional action label and a target state. Feeding an event to
a running automaton moves it to the target and returns the action.

The engine lives in pkg/fsm. The rest of the module is what a host needs to
run automata in production:

  - pkg/definition: YAML/JSON definition files.
  - pkg/session: per-session persistence with local and distributed locking.
  - pkg/adapters: memory, file and Redis stores; HTTP and MCP front ends.
  - pkg/observability: Prometheus metrics and structured logs via hooks.
  - pkg/runner: a line-oriented event loop for CLIs and pipes.

# Usage

	a := fsm.New().
		StartFrom("locked").When("coin").Doing("unlock").GoIn("unlocked").
		ComingFrom("unlocked").When("push").Doing("lock").GoIn("locked")
	if err := a.Err(); err != nil {
		log.Fatal(err)
	}

	action, err := a.Fire("coin") // "unlock", now in "unlocked"

The cmd/automaton binary wraps the same pieces:

	automaton run turnstile.yaml coin push
	automaton serve --metrics turnstile.yaml
*/
package automaton
