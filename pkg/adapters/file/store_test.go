package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/automaton/pkg/adapters/file"
	"github.com/aretw0/automaton/pkg/fsm"
	"github.com/aretw0/automaton/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.NewStore(t.TempDir())
	ports.RunStateStoreContract(t, store)
}

func TestFileStore_InvalidSessionID(t *testing.T) {
	store := file.NewStore(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"", "../escape", "a/b", ".."} {
		assert.Error(t, store.Save(ctx, id, &fsm.Snapshot{}), "id %q", id)
		_, err := store.Load(ctx, id)
		assert.Error(t, err, "id %q", id)
	}
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.NewStore(filepath.Join(t.TempDir(), "missing"))
	sessions, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o644))

	_, err := file.NewStore(dir).Load(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrSessionNotFound)
}
