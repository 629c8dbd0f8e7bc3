package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/automaton"
	"github.com/aretw0/automaton/internal/presentation/tui"
	"github.com/aretw0/automaton/pkg/fsm"
	"github.com/aretw0/automaton/pkg/observability"
	"github.com/aretw0/automaton/pkg/ports"
	"github.com/aretw0/automaton/pkg/runner"
	"golang.org/x/term"
)

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Run executes the 'run' command. Events given as arguments are fired in
// order; otherwise they are read from stdin until EOF or "exit".
func Run(ctx context.Context, opts Options, events []string, stdin io.Reader, stdout io.Writer) error {
	logger, err := createLogger(opts, false)
	if err != nil {
		return err
	}
	_, def, err := loadDefinition(ctx, opts.DefinitionPath, logger)
	if err != nil {
		return err
	}

	fsmOpts := []fsm.Option{fsm.WithLogger(logger)}
	if opts.Debug {
		fsmOpts = append(fsmOpts, fsm.WithHooks(observability.LogHooks(logger)))
	}

	input := stdin
	if len(events) > 0 {
		input = strings.NewReader(strings.Join(events, "\n") + "\n")
	}
	quiet := opts.JSON || len(events) > 0

	var handler runner.IOHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(input, stdout)
	} else {
		handler = runner.NewTextHandler(input, stdout)
	}
	if !quiet && isTerminal(stdin) && isTerminal(stdout) {
		tui.PrintBanner(stdout, automaton.Version)
	}

	kind, err := opts.storeKind()
	if err != nil {
		return err
	}

	var engine runner.Engine
	if kind == StoreMemory && opts.SessionID == "" {
		a, err := def.Build(fsmOpts...)
		if err != nil {
			return err
		}
		engine = runner.NewAutomatonEngine(a)
	} else {
		p, err := setupPersistence(opts, logger)
		if err != nil {
			return err
		}
		defer p.close()

		mgr := p.manager(logger, fsmOpts...)
		id := opts.SessionID
		if opts.Fresh && id != "" {
			if err := mgr.Delete(ctx, id); err != nil && !errors.Is(err, ports.ErrSessionNotFound) {
				return fmt.Errorf("failed to reset session: %w", err)
			}
		}

		current, err := mgr.Current(ctx, id)
		switch {
		case err == nil:
			logger.Info("Session Resumed", "session_id", id, "state", current)
			if !quiet {
				printSystemMessage(stdout, "Resuming session '%s' at '%s'.", id, current)
			}
		case errors.Is(err, ports.ErrSessionNotFound) || id == "":
			a, err := def.Build()
			if err != nil {
				return err
			}
			if id, err = mgr.Start(ctx, id, a); err != nil {
				return fmt.Errorf("failed to init session: %w", err)
			}
			logger.Info("Session Created", "session_id", id)
			if !quiet {
				printSystemMessage(stdout, "Session '%s' active.", id)
			}
		default:
			return fmt.Errorf("failed to load session: %w", err)
		}
		engine = runner.NewSessionEngine(mgr, id)
	}

	r := runner.NewRunner(
		runner.WithLogger(logger),
		runner.WithInputHandler(handler),
	)
	return handleExecutionError(r.Run(ctx, engine))
}
