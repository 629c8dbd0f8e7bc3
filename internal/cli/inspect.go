package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/automaton/internal/logging"
	"github.com/aretw0/automaton/internal/presentation/tui"
	"github.com/aretw0/automaton/pkg/definition"
	"github.com/aretw0/automaton/pkg/fsm"
)

// Validate loads the definition and reports every problem found.
func Validate(ctx context.Context, opts Options, w io.Writer) error {
	if opts.DefinitionPath == "" {
		return errors.New("definition file is required")
	}
	_, def, err := loadDefinition(ctx, opts.DefinitionPath, logging.NewNop())
	if err != nil {
		problems := definition.ValidationErrors(err)
		if len(problems) == 0 {
			return err
		}
		for _, p := range problems {
			fmt.Fprintf(w, "  - %v\n", p)
		}
		return fmt.Errorf("definition has %d problem(s)", len(problems))
	}
	if _, err := def.Build(); err != nil {
		return err
	}
	fmt.Fprintln(w, "Definition is valid! ✅")
	return nil
}

// Dump prints the automaton as an edge list (json) or as a normalized
// definition (yaml).
func Dump(ctx context.Context, opts Options, w io.Writer, format string) error {
	def, a, err := build(ctx, opts)
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case "", "json":
		data, err = a.Dump()
	case "yaml":
		data, err = definition.FromAutomaton(def.Name, a).Marshal()
	default:
		return fmt.Errorf("unknown dump format %q (want json or yaml)", format)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// Inspect renders a markdown summary of the automaton, styled with glamour
// when w is a terminal.
func Inspect(ctx context.Context, opts Options, w io.Writer) error {
	def, a, err := build(ctx, opts)
	if err != nil {
		return err
	}

	render := tui.PlainRenderer
	if isTerminal(w) {
		render = tui.NewRenderer()
	}
	out, err := render(tui.Describe(def.Name, a))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, out)
	return err
}

func build(ctx context.Context, opts Options) (*definition.Definition, *fsm.Automaton, error) {
	_, def, err := loadDefinition(ctx, opts.DefinitionPath, logging.NewNop())
	if err != nil {
		return nil, nil, err
	}
	a, err := def.Build()
	if err != nil {
		return nil, nil, err
	}
	return def, a, nil
}
