package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/automaton/pkg/fsm"
)

// Describe renders the automaton as a markdown document: a summary and one
// table row per transition reachable from the initial state.
func Describe(name string, a *fsm.Automaton) string {
	var b strings.Builder

	if name == "" {
		name = "automaton"
	}
	fmt.Fprintf(&b, "# %s\n\n", name)

	initial := a.InitialState()
	if initial == nil {
		b.WriteString("_No states declared._\n")
		return b.String()
	}

	edges := a.Edges()
	fmt.Fprintf(&b, "- **Initial state:** `%s`\n", initial.Name())
	fmt.Fprintf(&b, "- **States:** %d\n", len(a.States()))
	fmt.Fprintf(&b, "- **Transitions:** %d\n\n", len(edges))

	if len(edges) == 0 {
		return b.String()
	}

	b.WriteString("| From | Event | Action | To |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, e := range edges {
		action := "-"
		if e.Action != "" {
			action = "`" + e.Action + "`"
		}
		fmt.Fprintf(&b, "| `%s` | `%s` | %s | `%s` |\n", e.Source, e.Event, action, e.Target)
	}
	return b.String()
}
