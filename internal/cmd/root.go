// Package cmd wires the engine's cobra CLI surface: one New<X>Command
// constructor per subcommand, assembled under a single root command.
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags.
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for engine.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "engine",
		Short: "Command orchestration engine",
		Long: `engine parses /namespace:command invocations, selects an agent and
model tier, runs the command through a bounded agentic quality loop, and
records the full evidence trail for every run.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text.
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to an optional YAML config file (empty: built-in defaults and environment overrides only)")
	cmd.PersistentFlags().String("commands-dir", ".engine/commands", "Directory of command metadata files")
	cmd.PersistentFlags().String("agents-dir", ".engine/agents", "Directory of agent definition files")

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewAgentsCommand())
	cmd.AddCommand(NewValidateConfigCommand())
	cmd.AddCommand(NewEventsCommand())

	return cmd
}
