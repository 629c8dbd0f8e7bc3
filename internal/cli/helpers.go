package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/automaton/internal/logging"
	"github.com/aretw0/automaton/pkg/adapters/file"
	"github.com/aretw0/automaton/pkg/adapters/memory"
	"github.com/aretw0/automaton/pkg/adapters/redis"
	"github.com/aretw0/automaton/pkg/definition"
	"github.com/aretw0/automaton/pkg/fsm"
	"github.com/aretw0/automaton/pkg/persistence/middleware"
	"github.com/aretw0/automaton/pkg/ports"
	"github.com/aretw0/automaton/pkg/session"
)

// createLogger configures the application logger. Without --debug,
// interactive commands stay silent and servers log at info. Logs go to
// Stderr to keep Stdout for the flow itself.
func createLogger(opts Options, server bool) (*slog.Logger, error) {
	format, err := logging.ParseFormat(opts.LogFormat)
	if err != nil {
		return nil, err
	}
	switch {
	case opts.Debug:
		return logging.NewWithFormat(os.Stderr, format, slog.LevelDebug), nil
	case server:
		return logging.NewWithFormat(os.Stderr, format, slog.LevelInfo), nil
	default:
		return logging.NewNop(), nil
	}
}

// loadDefinition reads and validates the definition file.
func loadDefinition(ctx context.Context, path string, logger *slog.Logger) (*file.Loader, *definition.Definition, error) {
	if path == "" {
		return nil, nil, errors.New("definition file is required")
	}
	loader := file.NewLoader(path, file.WithLogger(logger))
	def, err := loader.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, nil, err
	}
	return loader, def, nil
}

// persistence bundles the store chosen by the options with its cleanup.
type persistence struct {
	store  ports.StateStore
	locker ports.DistributedLocker
	close  func() error
}

// setupPersistence initializes the state store (and, for Redis, the
// distributed locker).
func setupPersistence(opts Options, logger *slog.Logger) (*persistence, error) {
	p, err := openStore(opts, logger)
	if err != nil {
		return nil, err
	}
	raw := opts.encryptionKey()
	if raw == "" {
		return p, nil
	}
	key, err := middleware.ParseKey(raw)
	if err != nil {
		_ = p.close()
		return nil, err
	}
	logger.Debug("Encrypting stored snapshots")
	p.store = middleware.Chain(p.store, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	return p, nil
}

func openStore(opts Options, logger *slog.Logger) (*persistence, error) {
	kind, err := opts.storeKind()
	if err != nil {
		return nil, err
	}
	noop := func() error { return nil }

	switch kind {
	case StoreRedis:
		url := opts.redisURL()
		if url == "" {
			return nil, fmt.Errorf("redis store requires --redis-url or %s", EnvRedisURL)
		}
		store, err := redis.New(url)
		if err != nil {
			return nil, err
		}
		logger.Debug("Using redis store")
		return &persistence{
			store:  store,
			locker: redis.NewLocker(store.Client(), redis.DefaultPrefix),
			close:  store.Close,
		}, nil
	case StoreFile:
		logger.Debug("Using file store", "dir", opts.SessionDir)
		return &persistence{store: file.NewStore(opts.SessionDir), close: noop}, nil
	default:
		logger.Debug("Using memory store")
		return &persistence{store: memory.NewStore(), close: noop}, nil
	}
}

func (p *persistence) manager(logger *slog.Logger, fsmOpts ...fsm.Option) *session.Manager {
	opts := []session.Option{
		session.WithLogger(logger),
		session.WithAutomatonOptions(fsmOpts...),
	}
	if p.locker != nil {
		opts = append(opts, session.WithLocker(p.locker))
	}
	return session.NewManager(p.store, opts...)
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// isInterrupted reports errors that mean "the user stopped us".
func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}

// handleExecutionError maps interruptions to a clean exit.
func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil
	}
	return err
}
