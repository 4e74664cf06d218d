package agent

import (
	"os"
	"path/filepath"
	"testing"
)

func writeAgentFile(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverAgents(t *testing.T) {
	tmpDir := t.TempDir()
	writeAgentFile(t, tmpDir, "test-agent.md", `---
id: test-agent
category: general
description: Test agent for unit testing
tools:
  - Read
  - Write
---

# Test Agent
`)

	registry := NewRegistry(tmpDir)
	agents, err := registry.Discover()
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	if len(agents) != 1 {
		t.Fatalf("expected 1 agent, got %d", len(agents))
	}
	if _, exists := agents["test-agent"]; !exists {
		t.Error("expected test-agent to exist")
	}
}

func TestDiscoverSkipsReadmeAndFrameworkDocs(t *testing.T) {
	tmpDir := t.TempDir()
	writeAgentFile(t, tmpDir, "README.md", "not an agent")
	writeAgentFile(t, tmpDir, "review-framework.md", "not an agent either")
	writeAgentFile(t, tmpDir, "real.md", `---
id: real
category: general
description: real agent
---
`)

	registry := NewRegistry(tmpDir)
	agents, err := registry.Discover()
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(agents) != 1 {
		t.Fatalf("expected 1 agent, got %d", len(agents))
	}
}

func TestDiscoverSkipsSpecialDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	for _, dir := range []string{"examples", "transcripts", "logs", "01-core"} {
		if err := os.MkdirAll(filepath.Join(tmpDir, dir), 0755); err != nil {
			t.Fatal(err)
		}
	}
	writeAgentFile(t, tmpDir, filepath.Join("examples", "skip.md"), `---
id: skip
description: should be skipped
---
`)
	writeAgentFile(t, tmpDir, filepath.Join("01-core", "kept.md"), `---
id: kept
description: should be discovered
---
`)

	registry := NewRegistry(tmpDir)
	agents, err := registry.Discover()
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if _, exists := agents["skip"]; exists {
		t.Error("examples/ directory should have been skipped")
	}
	if _, exists := agents["kept"]; !exists {
		t.Error("numbered subdirectory should have been scanned")
	}
}

func TestDiscoverMissingDirectoryReturnsEmpty(t *testing.T) {
	registry := NewRegistry(filepath.Join(t.TempDir(), "does-not-exist"))
	agents, err := registry.Discover()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(agents) != 0 {
		t.Errorf("expected empty registry, got %d agents", len(agents))
	}
}

func TestRegistryGetExistsList(t *testing.T) {
	tmpDir := t.TempDir()
	writeAgentFile(t, tmpDir, "b.md", "---\nid: b\ndescription: b\n---\n")
	writeAgentFile(t, tmpDir, "a.md", "---\nid: a\ndescription: a\n---\n")

	registry := NewRegistry(tmpDir)
	if _, err := registry.Discover(); err != nil {
		t.Fatal(err)
	}

	if !registry.Exists("a") || !registry.Exists("b") {
		t.Error("expected both agents to exist")
	}
	if registry.Exists("c") {
		t.Error("did not expect agent c to exist")
	}

	list := registry.List()
	if len(list) != 2 || list[0].ID != "a" || list[1].ID != "b" {
		t.Errorf("expected sorted [a b], got %+v", list)
	}
}

func TestToolListUnmarshalFormats(t *testing.T) {
	tmpDir := t.TempDir()
	writeAgentFile(t, tmpDir, "csv.md", "---\nid: csv\ndescription: x\ntools: Read, Write, Edit\n---\n")

	registry := NewRegistry(tmpDir)
	agents, err := registry.Discover()
	if err != nil {
		t.Fatal(err)
	}
	a := agents["csv"]
	if len(a.Tools) != 3 || a.Tools[1] != "Write" {
		t.Errorf("expected comma-separated tools to split, got %v", a.Tools)
	}
}
