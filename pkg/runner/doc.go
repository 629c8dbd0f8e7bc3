/*
Package runner drives an automaton from a stream of events.

The runner reads one event per line from an IOHandler, sanitizes it, fires it
on an Engine and reports the outcome. Illegal events are reported and the
loop continues; "exit" or "quit" (or end of input) stop it.

# Key Components

  - Runner: the read-fire-report loop.
  - Engine: what events are fired on, either a bare *fsm.Automaton
    (NewAutomatonEngine) or a persisted session (NewSessionEngine).
  - TextHandler / JSONHandler: plain lines or NDJSON on both sides.

# Usage

	r := runner.NewRunner(
		runner.WithLogger(logger),
		runner.WithInputHandler(runner.NewJSONHandler(os.Stdin, os.Stdout)),
	)
	if err := r.Run(ctx, runner.NewAutomatonEngine(a)); err != nil {
		log.Fatal(err)
	}
*/
package runner
