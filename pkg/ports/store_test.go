package ports_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/automaton/pkg/fsm"
	"github.com/aretw0/automaton/pkg/ports"
)

// MockStore is a minimal StateStore used to exercise the contract suite itself.
type MockStore struct {
	mu   sync.Mutex
	data map[string]fsm.Snapshot
}

func (m *MockStore) Save(ctx context.Context, sessionID string, snap *fsm.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string]fsm.Snapshot)
	}
	copied := *snap
	copied.Graph = append([]fsm.Edge(nil), snap.Graph...)
	m.data[sessionID] = copied
	return nil
}

func (m *MockStore) Load(ctx context.Context, sessionID string) (*fsm.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.data[sessionID]
	if !ok {
		return nil, ports.ErrSessionNotFound
	}
	return &snap, nil
}

func (m *MockStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestStateStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, &MockStore{})
}
