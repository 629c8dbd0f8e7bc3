package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/automaton/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <definition> [events...]",
	Short: "Fire events on an automaton",
	Long: `Loads the definition and fires the given events in order. Without events,
reads one event per line from stdin until EOF, "exit" or "quit".

With --session the state is persisted (file store by default, Redis when
--redis-url is set) and resumed on the next run.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := readOptions(cmd, args)
		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		err := cli.Run(sigCtx, opts, args[1:], os.Stdin, os.Stdout)
		if sig := sigCtx.Signal(); sig != nil && !opts.JSON {
			fmt.Fprintf(os.Stdout, "\n>>> Interrupted (%v).\n", sig)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	runCmd.Flags().StringP("session", "s", "", "Session ID to persist and resume")
	runCmd.Flags().Bool("fresh", false, "Discard the stored session before running")
	addStoreFlags(runCmd)
}
