package main

import (
	"os"

	"github.com/aretw0/automaton/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <definition>",
	Short: "Check the definition for consistency",
	Long:  `Reports missing fields, duplicate transitions and states unreachable from the initial state.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Validate(cmd.Context(), readOptions(cmd, args), os.Stdout)
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump <definition>",
	Short: "Print the automaton as an edge list or normalized YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		return cli.Dump(cmd.Context(), readOptions(cmd, args), os.Stdout, format)
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <definition>",
	Short: "Describe states and transitions as a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Inspect(cmd.Context(), readOptions(cmd, args), os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd, dumpCmd, inspectCmd)

	dumpCmd.Flags().StringP("format", "f", "json", "Output format: json or yaml")
}
