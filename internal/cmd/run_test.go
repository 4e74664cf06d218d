package cmd

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestRunUnknownCommandExitsThree(t *testing.T) {
	commandsDir := t.TempDir()
	agentsDir := t.TempDir()
	metricsDir := t.TempDir()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeTestAgent(t, filepath.Dir(configPath), "config.yaml",
		"telemetry:\n  metrics_dir: "+metricsDir+"\n")

	cmd := NewRunCommand()
	cmd.PersistentFlags().String("config", configPath, "")
	cmd.PersistentFlags().String("commands-dir", commandsDir, "")
	cmd.PersistentFlags().String("agents-dir", agentsDir, "")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{`/sc:doesnotexist`})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected an ExitError for an unknown command")
	}
	exitErr, ok := err.(*ExitError)
	if !ok || exitErr.Code != 3 {
		t.Fatalf("expected ExitError{Code: 3}, got %v", err)
	}
}
