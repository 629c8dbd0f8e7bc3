/*
Package definition reads and writes declarative automaton files.

A definition names the initial state and lists transitions. YAML and JSON are both
accepted:

	name: turnstile
	initial: locked
	transitions:
	  - {from: locked, on: coin, do: unlock, to: unlocked}
	  - {from: locked, on: push}
	  - {from: unlocked, on: push, do: lock, to: locked}

A transition without "to" loops back to its source; "do" is optional. The keys
"when"/"event", "action" and "target" are accepted as aliases.
*/
package definition
