package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/automaton/pkg/adapters/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const idleDefinition = "initial: idle\ntransitions:\n  - {from: idle, on: tick}\n"

func TestLoader_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "machine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(idleDefinition), 0o644))

	def, err := file.NewLoader(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "idle", def.Initial)
}

func TestLoader_LoadMissing(t *testing.T) {
	_, err := file.NewLoader(filepath.Join(t.TempDir(), "nope.yaml")).Load(context.Background())
	assert.Error(t, err)
}

func TestLoader_Watch(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "machine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(idleDefinition), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loader := file.NewLoader(path, file.WithDebounce(10*time.Millisecond))
	changes, err := loader.Watch(ctx)
	require.NoError(t, err)

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644))
	select {
	case <-changes:
		t.Fatal("unexpected change notification for unrelated file")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(path, []byte(idleDefinition+"  - {from: idle, on: tock}\n"), 0o644))
	select {
	case _, ok := <-changes:
		require.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}

	def, err := loader.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, def.Transitions, 2)

	cancel()
	for range changes {
	}
}
