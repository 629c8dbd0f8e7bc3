package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/automaton/pkg/definition"
)

// Loader implements ports.DefinitionLoader over a definition held in memory.
type Loader struct {
	def *definition.Definition
}

// NewLoader wraps an already parsed definition.
func NewLoader(def *definition.Definition) *Loader {
	return &Loader{def: def}
}

// NewLoaderFromBytes parses raw YAML or JSON.
func NewLoaderFromBytes(data []byte) (*Loader, error) {
	def, err := definition.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return &Loader{def: def}, nil
}

// Load returns the definition.
func (l *Loader) Load(ctx context.Context) (*definition.Definition, error) {
	if l.def == nil {
		return nil, fmt.Errorf("no definition loaded")
	}
	return l.def, nil
}
