package ports

import (
	"context"
	"errors"

	"github.com/aretw0/automaton/pkg/fsm"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// StateStore persists automaton snapshots so a session can stop and resume.
type StateStore interface {
	// Save persists the snapshot for a given session ID.
	Save(ctx context.Context, sessionID string, snap *fsm.Snapshot) error

	// Load retrieves the snapshot for a given session ID.
	// Returns ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*fsm.Snapshot, error)

	// Delete removes the snapshot for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of stored sessions.
	List(ctx context.Context) ([]string, error)
}
