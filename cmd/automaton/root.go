package main

import (
	"fmt"
	"os"

	"github.com/aretw0/automaton/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "automaton",
	Short: "Automaton runs finite state machines declared in YAML",
	Long: `Automaton loads a state machine definition (states, events, actions and
targets), then drives it interactively, over HTTP or as MCP tools.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging to stderr")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
}

// addStoreFlags registers the persistence flags shared by run, serve and mcp.
func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("store", "", "Session store: memory, file or redis (default: inferred)")
	cmd.Flags().String("session-dir", "", "Directory for the file store (default .automaton/sessions)")
	cmd.Flags().String("redis-url", "", "Redis URL for the redis store (env "+cli.EnvRedisURL+")")
	cmd.Flags().String("encryption-key", "", "Base64 AES-256 key sealing stored sessions (env "+cli.EnvEncryptionKey+")")
}

// readOptions gathers the flags defined on cmd into cli.Options.
func readOptions(cmd *cobra.Command, args []string) cli.Options {
	var opts cli.Options
	if len(args) > 0 {
		opts.DefinitionPath = args[0]
	}
	flags := cmd.Flags()
	opts.Debug, _ = flags.GetBool("debug")
	opts.LogFormat, _ = flags.GetString("log-format")
	opts.JSON, _ = flags.GetBool("json")
	opts.SessionID, _ = flags.GetString("session")
	opts.Fresh, _ = flags.GetBool("fresh")
	opts.Store, _ = flags.GetString("store")
	opts.SessionDir, _ = flags.GetString("session-dir")
	opts.RedisURL, _ = flags.GetString("redis-url")
	opts.EncryptionKey, _ = flags.GetString("encryption-key")
	opts.Port, _ = flags.GetInt("port")
	opts.Metrics, _ = flags.GetBool("metrics")
	opts.Watch, _ = flags.GetBool("watch")
	if transport, _ := flags.GetString("transport"); transport == "sse" {
		opts.SSE = true
	}
	return opts
}
