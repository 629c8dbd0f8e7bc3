package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/automaton/internal/logging"
	"github.com/aretw0/automaton/pkg/fsm"
	"github.com/aretw0/automaton/pkg/ports"
	"github.com/aretw0/automaton/pkg/registry"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

var (
	// ErrSessionExists is returned by Start when the ID is already taken.
	ErrSessionExists = errors.New("session already exists")

	// ErrActionFailed wraps handler errors from WithActions. The transition
	// that produced the action is already persisted.
	ErrActionFailed = errors.New("action failed")
)

// Result is the outcome of firing one event on a session.
type Result struct {
	SessionID string `json:"session_id"`
	Event     string `json:"event"`
	Action    string `json:"action,omitempty"`
	State     string `json:"state"`
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.StateStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	fsmOpts []fsm.Option
	actions *registry.Registry
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithAutomatonOptions are applied to every automaton restored from the
// store, typically to attach hooks.
func WithAutomatonOptions(opts ...fsm.Option) Option {
	return func(m *Manager) {
		m.fsmOpts = append(m.fsmOpts, opts...)
	}
}

// WithActions runs the registered handler for each action a Fire produces.
// Actions without a handler are skipped.
func WithActions(r *registry.Registry) Option {
	return func(m *Manager) {
		m.actions = r
	}
}

// NewManager creates a new session manager with the given persistence store.
func NewManager(store ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release after unlocking it.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Start persists a new session running a. An empty sessionID gets a random
// UUID. The returned ID is the one stored. The automaton must have an initial
// state with at least one outgoing transition.
func (m *Manager) Start(ctx context.Context, sessionID string, a *fsm.Automaton) (string, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	snap, err := a.Snapshot()
	if err != nil {
		return "", fmt.Errorf("invalid automaton: %w", err)
	}
	initial := a.InitialState()
	if initial == nil {
		return "", fmt.Errorf("invalid automaton: %w", fsm.ErrNotStarted)
	}
	// The snapshot graph is an edge list; an edgeless initial state would
	// not survive Restore.
	if len(initial.Events()) == 0 {
		return "", fmt.Errorf("invalid automaton: %w",
			&fsm.ConfigurationError{State: initial.Name(), Err: fsm.ErrEmptyGraph})
	}
	if snap.Current == "" {
		snap.Current = initial.Name()
	}

	err = m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		_, err := m.store.Load(ctx, sessionID)
		if err == nil {
			return fmt.Errorf("%w: %s", ErrSessionExists, sessionID)
		}
		if !errors.Is(err, ports.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}
		if err := m.store.Save(ctx, sessionID, snap); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	m.logger.Debug("Session started", "session_id", sessionID, "state", snap.Current)
	return sessionID, nil
}

// Fire restores the session, dispatches event and persists the new state.
// A rejected event leaves the stored snapshot untouched and returns the
// *fsm.IllegalEventError. With WithActions, the action handler runs after
// the save; its error is returned alongside a populated Result and the
// transition stays committed.
func (m *Manager) Fire(ctx context.Context, sessionID, event string) (Result, error) {
	res := Result{SessionID: sessionID, Event: event}
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		a, err := m.restore(ctx, sessionID)
		if err != nil {
			return err
		}

		var from string
		if current := a.CurrentState(); current != nil {
			from = current.Name()
		}

		action, fireErr := a.Fire(event)
		if current := a.CurrentState(); current != nil {
			res.State = current.Name()
		}
		if fireErr != nil {
			return fireErr
		}
		res.Action = action

		snap, err := a.Snapshot()
		if err != nil {
			return err
		}
		if err := m.store.Save(ctx, sessionID, snap); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return m.runAction(ctx, fsm.Transition{From: from, Event: event, Action: action, To: res.State})
	})
	return res, err
}

func (m *Manager) runAction(ctx context.Context, t fsm.Transition) error {
	if m.actions == nil || t.Action == "" {
		return nil
	}
	fn, ok := m.actions.Lookup(t.Action)
	if !ok {
		return nil
	}
	if err := fn(ctx, t); err != nil {
		m.logger.Warn("Action failed", "action", t.Action, "state", t.To, "err", err)
		return fmt.Errorf("%w: %q: %w", ErrActionFailed, t.Action, err)
	}
	return nil
}

// Current returns the name of the session's active state.
func (m *Manager) Current(ctx context.Context, sessionID string) (string, error) {
	a, err := m.Load(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if s := a.CurrentState(); s != nil {
		return s.Name(), nil
	}
	return "", nil
}

// Load restores the session's automaton. Changes to the returned value are
// not persisted.
func (m *Manager) Load(ctx context.Context, sessionID string) (*fsm.Automaton, error) {
	var a *fsm.Automaton
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		a, err = m.restore(ctx, sessionID)
		return err
	})
	return a, err
}

func (m *Manager) restore(ctx context.Context, sessionID string) (*fsm.Automaton, error) {
	snap, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	a, err := fsm.Restore(snap, m.fsmOpts...)
	if err != nil {
		return nil, fmt.Errorf("corrupt session %s: %w", sessionID, err)
	}
	return a, nil
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
