package main

import (
	"context"

	"github.com/aretw0/automaton/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve <definition>",
	Short: "Start the HTTP server",
	Long: `Exposes sessions of the automaton over a JSON API:

  GET    /health
  GET    /graph
  GET    /sessions            POST /sessions
  GET    /sessions/{id}       DELETE /sessions/{id}
  POST   /sessions/{id}/events
  GET    /metrics             (with --metrics)`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()
		return cli.Serve(sigCtx, readOptions(cmd, args))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().Bool("metrics", false, "Expose Prometheus metrics on /metrics")
	serveCmd.Flags().BoolP("watch", "w", false, "Reload the definition when the file changes")
	addStoreFlags(serveCmd)
}
