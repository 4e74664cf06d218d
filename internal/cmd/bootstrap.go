package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/scengine/internal/agent"
	"github.com/harrison/scengine/internal/config"
	"github.com/harrison/scengine/internal/executor"
	"github.com/harrison/scengine/internal/logger"
	"github.com/harrison/scengine/internal/parser"
	"github.com/harrison/scengine/internal/pipeline"
	"github.com/harrison/scengine/internal/provider"
	"github.com/harrison/scengine/internal/router"
	"github.com/harrison/scengine/internal/worktree"
)

// loadEngineConfig resolves the --config flag, loads the layered
// configuration and validates it, failing fast on an impossible state.
func loadEngineConfig(cmd *cobra.Command) (*config.EngineConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envView snapshots the process environment into the map shape the
// router and provider registry use to decide which providers are
// actually reachable.
func envView() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			out[parts[0]] = parts[1]
		}
	}
	return out
}

// buildExecutor assembles a fully wired Executor from the resolved
// config and the --commands-dir/--agents-dir flags; the run subcommand
// uses it.
func buildExecutor(cmd *cobra.Command, cfg *config.EngineConfig) (*executor.Executor, error) {
	commandsDir, _ := cmd.Flags().GetString("commands-dir")
	agentsDir, _ := cmd.Flags().GetString("agents-dir")

	log := logger.New(cfg.LogFormat, logger.ParseLevel(cfg.LogLevel), cmd.ErrOrStderr())

	commands := parser.NewRegistry(commandsDir)
	if _, err := commands.Reload(); err != nil {
		return nil, err
	}
	agents := agent.NewRegistry(agentsDir)
	if _, err := agents.Discover(); err != nil {
		return nil, err
	}

	env := envView()
	providers := provider.NewRegistry(cfg, env)
	rt := router.NewRouter(cfg, providers)
	worktrees := worktree.NewManager(".", cfg.Worktree.BaseDir, worktree.ShellCommandRunner{})

	tools := pipeline.ToolCommands{
		Lint:         []string{"gofmt", "-l", "."},
		Typecheck:    []string{"go", "vet", "./..."},
		Build:        []string{"go", "build", "./..."},
		Test:         []string{"go", "test", "./..."},
		SecurityScan: []string{"gosec", "./..."},
		Benchmark:    []string{"go", "test", "-bench=.", "-run=^$", "./..."},
	}

	return executor.New(cfg, log, commands, agents, providers, rt, worktrees, tools), nil
}
