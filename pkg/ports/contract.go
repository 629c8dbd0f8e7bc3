package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/automaton/pkg/fsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractSnapshot(current string) *fsm.Snapshot {
	return &fsm.Snapshot{
		Graph: []fsm.Edge{
			{Source: "locked", Event: "coin", Action: "unlock", Target: "unlocked"},
			{Source: "unlocked", Event: "push", Action: "lock", Target: "locked"},
			{Source: "locked", Event: "push", Target: "locked"},
		},
		Current: current,
	}
}

// RunStateStoreContract verifies that a StateStore implementation adheres to
// the interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := contractSnapshot("unlocked")

		err := store.Save(ctx, sessionID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap, loaded)

		a, err := fsm.Restore(loaded)
		require.NoError(t, err)
		assert.Equal(t, "unlocked", a.CurrentState().Name())
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, contractSnapshot("unlocked")))
		require.NoError(t, store.Save(ctx, sessionID, contractSnapshot("locked")))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "locked", loaded.Current)
	})

	t.Run("Isolation", func(t *testing.T) {
		snap := contractSnapshot("locked")
		require.NoError(t, store.Save(ctx, sessionID, snap))
		snap.Current = "mutated"

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "locked", loaded.Current)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, contractSnapshot("")))

		err := store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, contractSnapshot(""))
		_ = store.Save(ctx, id2, contractSnapshot(""))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
