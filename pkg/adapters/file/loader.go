package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/automaton/internal/logging"
	"github.com/aretw0/automaton/pkg/definition"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of filesystem events (editors often write
// a file in several steps).
const DefaultDebounce = 100 * time.Millisecond

// Loader implements ports.DefinitionLoader and ports.Watchable for a
// definition file on disk.
type Loader struct {
	Path     string
	Debounce time.Duration
	logger   *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger for watcher errors.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) LoaderOption {
	return func(l *Loader) {
		l.Debounce = d
	}
}

// NewLoader creates a loader for the definition file at path.
func NewLoader(path string, opts ...LoaderOption) *Loader {
	l := &Loader{
		Path:     path,
		Debounce: DefaultDebounce,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads and parses the definition file.
func (l *Loader) Load(ctx context.Context) (*definition.Definition, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition: %w", err)
	}
	def, err := definition.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.Path, err)
	}
	return def, nil
}

// Watch signals on the returned channel whenever the definition file changes.
// The parent directory is watched so that atomic renames are observed.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	abs, err := filepath.Abs(l.Path)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch definition directory: %w", err)
	}

	changes := make(chan struct{}, 1)
	go l.watchLoop(ctx, watcher, abs, changes)
	return changes, nil
}

func (l *Loader) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, target string, changes chan<- struct{}) {
	defer close(changes)
	defer watcher.Close()

	var debounce *time.Timer
	var fire <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(l.Debounce)
			} else {
				debounce.Reset(l.Debounce)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			select {
			case changes <- struct{}{}:
			default:
				// A reload is already pending.
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			l.logger.Warn("Definition watcher error", "path", target, "err", err)
		}
	}
}
