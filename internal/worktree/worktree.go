// Package worktree implements C7: isolated git worktree sandboxes that
// a run executes inside, diffed and either merged back or discarded.
package worktree

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/harrison/scengine/internal/models"
)

// CommandRunner abstracts shell command execution for testability,
// matching the shape used throughout this codebase's process-shelling
// components.
type CommandRunner interface {
	Run(ctx context.Context, dir string, name string, args ...string) (output string, err error)
}

// ShellCommandRunner executes commands via exec.CommandContext.
type ShellCommandRunner struct{}

func (ShellCommandRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// ErrAlreadyClosed is returned when Merge or Discard is invoked on a
// worktree that has already been merged or discarded.
var ErrAlreadyClosed = fmt.Errorf("worktree already closed")

// Manager opens, diffs, validates, merges, and discards worktrees under
// a configured base directory, using repoRoot as the parent git
// repository. Each Worktree must be closed (Merge or Discard) exactly
// once.
type Manager struct {
	mu       sync.Mutex
	repoRoot string
	baseDir  string
	runner   CommandRunner
	states   map[string]models.WorktreeStatus
}

// NewManager builds a Manager rooted at repoRoot, creating worktrees
// under baseDir.
func NewManager(repoRoot, baseDir string, runner CommandRunner) *Manager {
	if runner == nil {
		runner = ShellCommandRunner{}
	}
	return &Manager{
		repoRoot: repoRoot,
		baseDir:  baseDir,
		runner:   runner,
		states:   make(map[string]models.WorktreeStatus),
	}
}

// IsGitRepo reports whether dir sits inside a tracked git working tree,
// used to reject requires-evidence commands before any worktree is
// opened against a directory git doesn't control.
func (m *Manager) IsGitRepo(ctx context.Context, dir string) bool {
	out, err := m.runner.Run(ctx, dir, "git", "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// Open creates a new worktree checked out from baseRef on a fresh
// branch.
func (m *Manager) Open(ctx context.Context, baseRef string) (*models.Worktree, error) {
	id := uuid.New().String()
	branch := "scengine/" + id
	path := filepath.Join(m.baseDir, id)

	if _, err := m.runner.Run(ctx, m.repoRoot, "git", "worktree", "add", "-b", branch, path, baseRef); err != nil {
		return nil, fmt.Errorf("failed to open worktree from %s: %w", baseRef, err)
	}

	wt := &models.Worktree{
		ID:       id,
		RootPath: path,
		BaseRef:  baseRef,
		Branch:   branch,
		Status:   models.WorktreeOpen,
	}

	m.mu.Lock()
	m.states[id] = models.WorktreeOpen
	m.mu.Unlock()

	return wt, nil
}

// Diff summarizes the worktree's changes against its base ref.
func (m *Manager) Diff(ctx context.Context, wt *models.Worktree) (models.DiffSummary, error) {
	output, err := m.runner.Run(ctx, wt.RootPath, "git", "diff", "--numstat", wt.BaseRef)
	if err != nil {
		return models.DiffSummary{}, fmt.Errorf("failed to diff worktree %s: %w", wt.ID, err)
	}
	return parseNumstat(output), nil
}

func parseNumstat(output string) models.DiffSummary {
	summary := models.DiffSummary{}
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		additions, _ := strconv.Atoi(fields[0])
		deletions, _ := strconv.Atoi(fields[1])
		summary.FilesChanged++
		summary.Additions += additions
		summary.Deletions += deletions
		summary.Files = append(summary.Files, fields[2])
	}
	return summary
}

// Validate runs the given validation function against the worktree's
// root path. The validation logic itself lives in internal/pipeline;
// Validate just scopes execution to the worktree directory.
func (m *Manager) Validate(ctx context.Context, wt *models.Worktree, validate func(ctx context.Context, dir string) (bool, error)) (bool, error) {
	ok, err := validate(ctx, wt.RootPath)
	if err != nil {
		return false, fmt.Errorf("validation failed for worktree %s: %w", wt.ID, err)
	}

	m.mu.Lock()
	m.states[wt.ID] = models.WorktreeValidated
	m.mu.Unlock()
	wt.Status = models.WorktreeValidated

	return ok, nil
}

// Merge merges wt's branch into the branch checked out in the repository
// root with a merge commit (git merge --no-ff). It refuses to
// resolve conflicts silently: a conflicting merge returns an error and
// leaves the worktree open for inspection.
func (m *Manager) Merge(ctx context.Context, wt *models.Worktree) error {
	m.mu.Lock()
	status := m.states[wt.ID]
	m.mu.Unlock()
	if status != models.WorktreeOpen && status != models.WorktreeValidated {
		return ErrAlreadyClosed
	}

	if _, err := m.runner.Run(ctx, m.repoRoot, "git", "merge", "--no-ff", wt.Branch); err != nil {
		return fmt.Errorf("merge conflict or failure for worktree %s: %w", wt.ID, err)
	}

	if err := m.remove(ctx, wt); err != nil {
		return err
	}

	m.mu.Lock()
	m.states[wt.ID] = models.WorktreeMerged
	m.mu.Unlock()
	wt.Status = models.WorktreeMerged
	return nil
}

// Discard removes a worktree and its branch without merging.
func (m *Manager) Discard(ctx context.Context, wt *models.Worktree) error {
	m.mu.Lock()
	status := m.states[wt.ID]
	m.mu.Unlock()
	if status == models.WorktreeMerged || status == models.WorktreeDiscarded {
		return ErrAlreadyClosed
	}

	if err := m.remove(ctx, wt); err != nil {
		return err
	}

	m.mu.Lock()
	m.states[wt.ID] = models.WorktreeDiscarded
	m.mu.Unlock()
	wt.Status = models.WorktreeDiscarded
	return nil
}

func (m *Manager) remove(ctx context.Context, wt *models.Worktree) error {
	if _, err := m.runner.Run(ctx, m.repoRoot, "git", "worktree", "remove", "--force", wt.RootPath); err != nil {
		return fmt.Errorf("failed to remove worktree %s: %w", wt.ID, err)
	}
	if _, err := m.runner.Run(ctx, m.repoRoot, "git", "branch", "-D", wt.Branch); err != nil {
		return fmt.Errorf("failed to delete branch %s: %w", wt.Branch, err)
	}
	return nil
}

// Orphans scans the base directory for worktrees this Manager instance
// has no in-memory record of (e.g. left behind by a crashed prior
// run), returning their paths.
func (m *Manager) Orphans(ctx context.Context) ([]string, error) {
	output, err := m.runner.Run(ctx, m.repoRoot, "git", "worktree", "list", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("failed to list worktrees: %w", err)
	}

	var orphans []string
	for _, line := range strings.Split(output, "\n") {
		if !strings.HasPrefix(line, "worktree ") {
			continue
		}
		path := strings.TrimPrefix(line, "worktree ")
		if !strings.HasPrefix(path, m.baseDir) {
			continue
		}
		id := filepath.Base(path)
		m.mu.Lock()
		_, known := m.states[id]
		m.mu.Unlock()
		if !known {
			orphans = append(orphans, path)
		}
	}
	return orphans, nil
}
