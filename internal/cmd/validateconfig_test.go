package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateConfigAcceptsDefaults(t *testing.T) {
	cmd := NewValidateConfigCommand()
	cmd.Flags().String("config", "", "")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out.String(), "configuration valid") {
		t.Errorf("expected success message, got: %s", out.String())
	}
}

func TestValidateConfigRejectsBadWeights(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("weights:\n  correctness: 0.9\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cmd := NewValidateConfigCommand()
	cmd.Flags().String("config", path, "")
	var out bytes.Buffer
	cmd.SetOut(&out)

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected an ExitError for invalid weights")
	}
	exitErr, ok := err.(*ExitError)
	if !ok || exitErr.Code != 1 {
		t.Fatalf("expected ExitError{Code: 1}, got %v", err)
	}
	if !strings.Contains(out.String(), "invalid configuration") {
		t.Errorf("expected failure message, got: %s", out.String())
	}
}
