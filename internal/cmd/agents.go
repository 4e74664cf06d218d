package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/scengine/internal/agent"
)

// NewAgentsCommand creates the agents subcommand and its list/show children.
func NewAgentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Inspect the agent registry",
	}
	cmd.AddCommand(newAgentsListCommand())
	cmd.AddCommand(newAgentsShowCommand())
	return cmd
}

func newAgentsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every discovered agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			agentsDir, _ := cmd.Flags().GetString("agents-dir")
			registry := agent.NewRegistry(agentsDir)
			if _, err := registry.Discover(); err != nil {
				return fmt.Errorf("discovering agents: %w", err)
			}
			for _, a := range registry.List() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", a.ID, a.Description)
			}
			return nil
		},
	}
}

func newAgentsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <agent-id>",
		Short: "Print one agent's full definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agentsDir, _ := cmd.Flags().GetString("agents-dir")
			registry := agent.NewRegistry(agentsDir)
			if _, err := registry.Discover(); err != nil {
				return fmt.Errorf("discovering agents: %w", err)
			}
			a, ok := registry.Get(args[0])
			if !ok {
				return fmt.Errorf("agent %q not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "id: %s\n", a.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "description: %s\n", a.Description)
			fmt.Fprintf(cmd.OutOrStdout(), "category: %s\n", a.Category)
			fmt.Fprintf(cmd.OutOrStdout(), "tools: %v\n", a.Tools)
			return nil
		},
	}
}
