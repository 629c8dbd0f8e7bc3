package ports

import (
	"context"

	"github.com/aretw0/automaton/pkg/definition"
)

// DefinitionLoader retrieves the automaton definition a host runs.
type DefinitionLoader interface {
	Load(ctx context.Context) (*definition.Definition, error)
}

// Watchable is implemented by loaders that can notify about backend changes.
type Watchable interface {
	// Watch returns a channel that is signaled when the definition changes.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
