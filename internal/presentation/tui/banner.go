package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the product banner and version to w, colored when w is
// a terminal that supports it.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	name := out.String("automaton").Bold().Foreground(out.Color("#a78bfa"))
	ver := out.String(version).Faint()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  ( ) --> ( )  %s %s\n", name, ver)
	fmt.Fprintln(w)
}

// Status styles a short state label for interactive output.
func Status(w io.Writer, label string) string {
	out := termenv.NewOutput(w)
	return out.String(label).Foreground(out.Color("#818cf8")).String()
}
