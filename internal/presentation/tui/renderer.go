package tui

import (
	"github.com/charmbracelet/glamour"
)

// Renderer turns markdown into terminal output.
type Renderer func(string) (string, error)

// NewRenderer returns a Renderer backed by glamour with automatic light/dark
// detection. If glamour cannot initialize, markdown is returned unchanged.
func NewRenderer() Renderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		return PlainRenderer
	}
	return r.Render
}

// PlainRenderer returns markdown untouched. Used for non-terminal output.
func PlainRenderer(markdown string) (string, error) {
	return markdown, nil
}
