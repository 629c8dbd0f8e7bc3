package main

import (
	"context"
	"fmt"

	"github.com/aretw0/automaton/internal/cli"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp <definition>",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the automaton as MCP tools (start_session, fire_event, get_state,
get_graph) so that AI agents can drive sessions.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		if transport != "stdio" && transport != "sse" {
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()
		return cli.ServeMCP(sigCtx, readOptions(cmd, args))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
	addStoreFlags(mcpCmd)
}
