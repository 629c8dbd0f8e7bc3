package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/automaton/pkg/fsm"
	"github.com/aretw0/automaton/pkg/ports"
)

// Store implements ports.StateStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*fsm.Snapshot
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*fsm.Snapshot),
	}
}

func clone(snap *fsm.Snapshot) *fsm.Snapshot {
	return &fsm.Snapshot{
		Graph:   slices.Clone(snap.Graph),
		Current: snap.Current,
		Sealed:  slices.Clone(snap.Sealed),
	}
}

// Save persists a copy of the snapshot.
func (s *Store) Save(ctx context.Context, sessionID string, snap *fsm.Snapshot) error {
	copied := clone(snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = copied
	return nil
}

// Load returns a copy so callers can't mutate the stored snapshot.
func (s *Store) Load(ctx context.Context, sessionID string) (*fsm.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[sessionID]
	if !ok {
		return nil, ports.ErrSessionNotFound
	}
	return clone(snap), nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns active sessions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	slices.Sort(sessions)
	return sessions, nil
}
