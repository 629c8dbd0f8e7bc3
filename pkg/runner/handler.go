package runner

import (
	"context"
)

// Step reports the outcome of one event.
type Step struct {
	From   string `json:"from,omitempty"`
	Event  string `json:"event"`
	Action string `json:"action,omitempty"`
	State  string `json:"state"`
	Error  string `json:"error,omitempty"`
}

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Input reads the next event. It returns io.EOF when the source is
	// exhausted.
	Input(ctx context.Context) (string, error)

	// Output presents the outcome of one event.
	Output(ctx context.Context, step Step) error

	// SystemOutput presents a meta-message (start state, rejected input).
	SystemOutput(ctx context.Context, msg string) error
}
