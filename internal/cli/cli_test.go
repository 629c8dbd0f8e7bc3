package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/automaton/internal/logging"
	"github.com/aretw0/automaton/pkg/adapters/file"
	"github.com/aretw0/automaton/pkg/definition"
	"github.com/aretw0/automaton/pkg/fsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const turnstileYAML = `name: turnstile
initial: locked
transitions:
  - {from: locked, on: coin, do: unlock, to: unlocked}
  - {from: locked, on: push}
  - {from: unlocked, on: push, do: lock, to: locked}
  - {from: unlocked, on: coin, do: refund}
`

func writeDefinition(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "turnstile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_Events(t *testing.T) {
	opts := Options{DefinitionPath: writeDefinition(t, turnstileYAML)}
	out := &bytes.Buffer{}

	err := Run(context.Background(), opts, []string{"coin", "kick", "push"}, strings.NewReader(""), out)
	require.NoError(t, err)

	assert.Equal(t, strings.Join([]string{
		"[System] state: locked",
		"locked --coin--> unlocked [unlock]",
		`! event "kick" not supported in state "unlocked"`,
		"unlocked --push--> locked [lock]",
		"",
	}, "\n"), out.String())
}

func TestRun_JSONFromStdin(t *testing.T) {
	opts := Options{DefinitionPath: writeDefinition(t, turnstileYAML), JSON: true}
	out := &bytes.Buffer{}

	err := Run(context.Background(), opts, nil, strings.NewReader(`{"event":"coin"}`+"\n"), out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	var step map[string]string
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &step))
	assert.Equal(t, "unlock", step["action"])
	assert.Equal(t, "unlocked", step["state"])
}

func TestRun_FileSessionResumes(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		DefinitionPath: writeDefinition(t, turnstileYAML),
		SessionID:      "demo",
		SessionDir:     dir,
	}
	ctx := context.Background()

	require.NoError(t, Run(ctx, opts, []string{"coin"}, nil, &bytes.Buffer{}))

	snap, err := file.NewStore(dir).Load(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, "unlocked", snap.Current)

	out := &bytes.Buffer{}
	require.NoError(t, Run(ctx, opts, []string{"push"}, nil, out))
	assert.Contains(t, out.String(), "unlocked --push--> locked [lock]")

	opts.Fresh = true
	out.Reset()
	require.NoError(t, Run(ctx, opts, []string{"push"}, nil, out))
	assert.Contains(t, out.String(), "locked --push--> locked")
}

func TestRun_RedisSession(t *testing.T) {
	mr := miniredis.RunT(t)
	opts := Options{
		DefinitionPath: writeDefinition(t, turnstileYAML),
		SessionID:      "r1",
		RedisURL:       "redis://" + mr.Addr(),
	}

	require.NoError(t, Run(context.Background(), opts, []string{"coin"}, nil, &bytes.Buffer{}))
	assert.True(t, mr.Exists("automaton:session:r1"))
}

func TestRun_InvalidDefinition(t *testing.T) {
	opts := Options{DefinitionPath: writeDefinition(t, "transitions:\n  - {from: a, on: x}\n")}

	err := Run(context.Background(), opts, []string{"x"}, nil, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestStoreKind(t *testing.T) {
	t.Setenv(EnvRedisURL, "")

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"Default", Options{}, StoreMemory},
		{"Named Session", Options{SessionID: "x"}, StoreFile},
		{"Redis URL", Options{RedisURL: "redis://localhost"}, StoreRedis},
		{"Explicit", Options{Store: StoreMemory, SessionID: "x"}, StoreMemory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.opts.storeKind()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Options{Store: "etcd"}.storeKind()
	assert.Error(t, err)

	t.Setenv(EnvRedisURL, "redis://from-env")
	got, err := Options{}.storeKind()
	require.NoError(t, err)
	assert.Equal(t, StoreRedis, got)
}

func TestRun_EncryptedFileSession(t *testing.T) {
	dir := t.TempDir()
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	opts := Options{
		DefinitionPath: writeDefinition(t, turnstileYAML),
		SessionID:      "secret",
		SessionDir:     dir,
		EncryptionKey:  key,
	}
	ctx := context.Background()

	require.NoError(t, Run(ctx, opts, []string{"coin"}, nil, &bytes.Buffer{}))

	raw, err := file.NewStore(dir).Load(ctx, "secret")
	require.NoError(t, err)
	assert.Empty(t, raw.Current)
	assert.NotEmpty(t, raw.Sealed)

	out := &bytes.Buffer{}
	require.NoError(t, Run(ctx, opts, []string{"push"}, nil, out))
	assert.Contains(t, out.String(), "unlocked --push--> locked [lock]")
}

func TestSetupPersistence_BadEncryptionKey(t *testing.T) {
	t.Setenv(EnvEncryptionKey, "")
	_, err := setupPersistence(Options{EncryptionKey: "c2hvcnQ="}, logging.NewNop())
	assert.ErrorContains(t, err, "must be 32 bytes")
}

func TestSetupPersistence_RedisRequiresURL(t *testing.T) {
	t.Setenv(EnvRedisURL, "")
	_, err := setupPersistence(Options{Store: StoreRedis}, logging.NewNop())
	assert.ErrorContains(t, err, EnvRedisURL)
}

func TestValidate(t *testing.T) {
	out := &bytes.Buffer{}
	require.NoError(t, Validate(context.Background(), Options{DefinitionPath: writeDefinition(t, turnstileYAML)}, out))
	assert.Contains(t, out.String(), "Definition is valid!")

	bad := "initial: a\ntransitions:\n  - {from: a, on: x, to: b}\n  - {from: a, on: x, to: c}\n  - {from: a}\n"
	out.Reset()
	err := Validate(context.Background(), Options{DefinitionPath: writeDefinition(t, bad)}, out)
	assert.ErrorContains(t, err, "2 problem(s)")
	assert.Contains(t, out.String(), "transition 1:")
	assert.Contains(t, out.String(), "transition 2:")
}

func TestDump(t *testing.T) {
	opts := Options{DefinitionPath: writeDefinition(t, turnstileYAML)}

	out := &bytes.Buffer{}
	require.NoError(t, Dump(context.Background(), opts, out, "json"))
	a, err := fsm.LoadAutomaton(bytes.TrimSpace(out.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "locked", a.InitialState().Name())
	assert.Len(t, a.Edges(), 4)

	out.Reset()
	require.NoError(t, Dump(context.Background(), opts, out, "yaml"))
	def, err := definition.Parse(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "turnstile", def.Name)
	assert.Len(t, def.Transitions, 4)

	assert.Error(t, Dump(context.Background(), opts, out, "xml"))
}

func TestInspect(t *testing.T) {
	out := &bytes.Buffer{}
	require.NoError(t, Inspect(context.Background(), Options{DefinitionPath: writeDefinition(t, turnstileYAML)}, out))
	assert.Contains(t, out.String(), "# turnstile")
	assert.Contains(t, out.String(), "| `unlocked` | `coin` | `refund` | `unlocked` |")
}

func TestWatchDefinition(t *testing.T) {
	path := writeDefinition(t, turnstileYAML)
	loader := file.NewLoader(path, file.WithDebounce(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var applied []*definition.Definition
	done := make(chan error, 1)
	go func() {
		done <- watchDefinition(ctx, loader, func(d *definition.Definition) {
			mu.Lock()
			applied = append(applied, d)
			mu.Unlock()
		}, logging.NewNop())
	}()

	// Give the watcher time to register.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("initial: [broken"), 0o644))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("name: door\ninitial: closed\ntransitions:\n  - {from: closed, on: open, to: opened}\n"), 0o644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(applied) > 0 && applied[len(applied)-1].Name == "door"
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watchDefinition did not stop")
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	opts := Options{DefinitionPath: writeDefinition(t, turnstileYAML), Port: 0, Metrics: true, Watch: true}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	assert.NoError(t, Serve(ctx, opts))
}
