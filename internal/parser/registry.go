package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/harrison/scengine/internal/models"
)

// Registry discovers CommandMetadata from a directory of files carrying
// YAML frontmatter plus an opaque prompt body. Reload is explicit: the
// in-memory cache never invalidates itself, matching the discovery-writer
// / lookup-reader pattern used throughout the corpus's registries.
type Registry struct {
	CommandsDir string

	mu       sync.RWMutex
	commands map[string]*models.CommandMetadata
}

// NewRegistry builds a Registry rooted at commandsDir.
func NewRegistry(commandsDir string) *Registry {
	return &Registry{
		CommandsDir: commandsDir,
		commands:    make(map[string]*models.CommandMetadata),
	}
}

// Reload re-scans CommandsDir and replaces the in-memory set. Returns an
// empty registry (not an error) if the directory doesn't exist yet.
func (r *Registry) Reload() (map[string]*models.CommandMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := os.Stat(r.CommandsDir); os.IsNotExist(err) {
		return r.commands, nil
	}

	discovered := make(map[string]*models.CommandMetadata)
	err := filepath.Walk(r.CommandsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".md") {
			return nil
		}
		if filepath.Base(path) == "README.md" {
			return nil
		}

		meta, parseErr := parseCommandFile(path)
		if parseErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to parse %s: %v\n", path, parseErr)
			return nil
		}
		discovered[meta.Name] = meta
		return nil
	})
	if err != nil {
		return r.commands, err
	}

	r.commands = discovered
	return r.commands, nil
}

// Get looks up a command by its "name" metadata field (not its full
// namespace:name identity; namespace routing happens before lookup).
func (r *Registry) Get(name string) (*models.CommandMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.commands[name]
	return m, ok
}

// List returns every registered command's metadata, sorted by name for
// deterministic iteration.
func (r *Registry) List() []*models.CommandMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.CommandMetadata, 0, len(r.commands))
	for _, m := range r.commands {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Complete returns every registered command name with the given prefix,
// sorted, for shell/CLI completion.
func (r *Registry) Complete(prefix string) []string {
	var out []string
	for _, m := range r.List() {
		if strings.HasPrefix(m.Name, prefix) {
			out = append(out, m.Name)
		}
	}
	return out
}

func parseCommandFile(path string) (*models.CommandMetadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	frontmatter, ok := extractFrontmatter(content)
	if !ok {
		return nil, fmt.Errorf("no frontmatter found in %s", path)
	}

	var meta models.CommandMetadata
	if err := yaml.Unmarshal(frontmatter, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	meta.FilePath = path
	if meta.Name == "" {
		return nil, fmt.Errorf("command name is required")
	}
	return &meta, nil
}

// extractFrontmatter pulls the YAML block delimited by leading/trailing
// "---" lines from the start of a markdown-style command file. The body
// after the closing delimiter is the command's prompt and is never
// parsed here; it is opaque to the engine.
func extractFrontmatter(content []byte) ([]byte, bool) {
	lines := strings.Split(string(content), "\n")
	if len(lines) < 3 || strings.TrimSpace(lines[0]) != "---" {
		return nil, false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return []byte(strings.Join(lines[1:i], "\n")), true
		}
	}
	return nil, false
}
