package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewValidateConfigCommand creates the validate-config subcommand.
func NewValidateConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config",
		Short: "Load and validate the engine configuration",
		Long: `validate-config loads the layered configuration (defaults, config
file, environment overrides) and reports whether the result is internally
consistent: log level/format, the loop iteration ceiling, quality dimension
weights summing to 1.0, provider entries, and timeout hard caps.

Exit code: 0 if valid, 1 if invalid.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadEngineConfig(cmd)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "✗ invalid configuration: %v\n", err)
				return &ExitError{Code: 1}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ configuration valid\n")
			fmt.Fprintf(cmd.OutOrStdout(), "  log_level=%s log_format=%s\n", cfg.LogLevel, cfg.LogFormat)
			fmt.Fprintf(cmd.OutOrStdout(), "  loop.max_iterations=%d loop.quality_target=%.1f\n", cfg.Loop.MaxIterations, cfg.Loop.QualityTarget)
			fmt.Fprintf(cmd.OutOrStdout(), "  available_providers=%v\n", cfg.AvailableProviders(envView()))
			return nil
		},
	}
}
