package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/automaton/internal/logging"
	"github.com/aretw0/automaton/pkg/fsm"
)

// Runner handles the read-fire-report loop using the provided IO.
type Runner struct {
	Handler IOHandler
	Logger  *slog.Logger
}

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// NewRunner creates a Runner on Stdin/Stdout text IO by default.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, nil)
	}
	return r
}

func isStopWord(event string) bool {
	return event == "exit" || event == "quit"
}

// Run fires events read from the handler until input ends, a stop word is
// read or ctx is cancelled. Illegal events and rejected input are reported
// without stopping the loop; any other engine error is returned.
func (r *Runner) Run(ctx context.Context, engine Engine) error {
	state, err := engine.State(ctx)
	if err != nil {
		return fmt.Errorf("cannot start: %w", err)
	}
	if err := r.Handler.SystemOutput(ctx, "state: "+state); err != nil {
		return fmt.Errorf("output error: %w", err)
	}

	for {
		raw, err := r.Handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		event, err := SanitizeEvent(raw)
		if err != nil {
			r.Logger.Warn("Rejected input", "err", err)
			if err := r.Handler.SystemOutput(ctx, "rejected input: "+err.Error()); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
			continue
		}
		if event == "" {
			continue
		}
		if isStopWord(event) {
			r.Logger.Debug("Stop requested", "event", event)
			return nil
		}

		step, err := engine.Fire(ctx, event)
		if err != nil {
			var illegal *fsm.IllegalEventError
			if !errors.As(err, &illegal) {
				return fmt.Errorf("fire %q: %w", event, err)
			}
			r.Logger.Debug("Illegal event", "state", illegal.State, "event", event)
			step.Error = err.Error()
		}

		if err := r.Handler.Output(ctx, step); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
}
