package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	api "github.com/aretw0/automaton/pkg/adapters/http"
	mcpadapter "github.com/aretw0/automaton/pkg/adapters/mcp"
	"github.com/aretw0/automaton/pkg/definition"
	"github.com/aretw0/automaton/pkg/fsm"
	"github.com/aretw0/automaton/pkg/observability"
	"github.com/aretw0/automaton/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds graceful shutdown of the HTTP server.
const ShutdownTimeout = 5 * time.Second

type reloadable interface {
	ports.DefinitionLoader
	ports.Watchable
}

// Serve runs the HTTP API until ctx is done.
func Serve(ctx context.Context, opts Options) error {
	logger, err := createLogger(opts, true)
	if err != nil {
		return err
	}
	loader, def, err := loadDefinition(ctx, opts.DefinitionPath, logger)
	if err != nil {
		return err
	}
	p, err := setupPersistence(opts, logger)
	if err != nil {
		return err
	}
	defer p.close()

	hooks := []fsm.Hooks{observability.LogHooks(logger)}
	var srvOpts []api.Option
	srvOpts = append(srvOpts, api.WithLogger(logger))
	if opts.Metrics {
		metrics := observability.NewMetrics(nil)
		hooks = append(hooks, metrics.Hooks())
		srvOpts = append(srvOpts, api.WithMetrics(metrics))
	}
	mgr := p.manager(logger, fsm.WithLogger(logger), fsm.WithHooks(observability.Chain(hooks...)))
	srv := api.NewServer(mgr, def, srvOpts...)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting server", "addr", httpServer.Addr, "definition", opts.DefinitionPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		logger.Info("Shutting down server")
		return httpServer.Shutdown(shutdownCtx)
	})
	if opts.Watch {
		g.Go(func() error {
			return watchDefinition(gctx, loader, srv.SetDefinition, logger)
		})
	}
	return g.Wait()
}

// watchDefinition reloads the definition on every change signal and hands
// valid ones to apply. Invalid edits are logged and skipped.
func watchDefinition(ctx context.Context, loader reloadable, apply func(*definition.Definition), logger *slog.Logger) error {
	changes, err := loader.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch definition: %w", err)
	}
	for range changes {
		def, err := loader.Load(ctx)
		if err == nil {
			err = def.Validate()
		}
		if err != nil {
			logger.Warn("Definition reload failed, keeping previous version", "err", err)
			continue
		}
		apply(def)
		logger.Info("Definition reloaded", "name", def.Name, "transitions", len(def.Transitions))
	}
	return nil
}

// ServeMCP exposes the definition as MCP tools over stdio, or over SSE on
// opts.Port when opts.SSE is set.
func ServeMCP(ctx context.Context, opts Options) error {
	logger, err := createLogger(opts, true)
	if err != nil {
		return err
	}
	_, def, err := loadDefinition(ctx, opts.DefinitionPath, logger)
	if err != nil {
		return err
	}
	p, err := setupPersistence(opts, logger)
	if err != nil {
		return err
	}
	defer p.close()

	mgr := p.manager(logger, fsm.WithLogger(logger), fsm.WithHooks(observability.LogHooks(logger)))
	s := mcpadapter.NewServer(mgr, def, mcpadapter.WithLogger(logger))
	if opts.SSE {
		return s.ServeSSE(ctx, opts.Port)
	}
	return s.ServeStdio()
}
