// Package fileutil provides centralized file system scanning, pattern
// matching, and language detection utilities used across the engine.
//
// This package is the single source of truth for directory traversal:
// any file scanning should go through ScanDirectory rather than a
// custom filepath.Walk, and any extension-to-language mapping should go
// through DetectLanguages rather than a second hand-rolled table.
//
// # Purpose
//
// The fileutil package is designed for:
//   - Directory traversal with recursive and depth-limited scanning
//   - File filtering by extension and regex patterns
//   - Pattern matching on filenames without extensions
//   - Directory exclusion (hidden dirs, .git, node_modules, etc.)
//   - Error-tolerant scanning that collects non-fatal errors
//   - Reducing a set of file extensions to the languages present in a
//     working directory
//
// # Key Features
//
//   - Recursive directory scanning with configurable depth limits
//   - Case-insensitive file extension filtering
//   - Regex pattern matching on filenames (without extension)
//   - Automatic exclusion of hidden directories (starting with ".")
//   - Configurable directory exclusion (e.g., .git, node_modules)
//   - Sorted, deterministic output (alphabetically sorted file paths)
//   - Error tolerance (non-fatal errors collected, scanning continues)
//   - Absolute path resolution for all matched files
//   - Standard library only (no external dependencies)
//
// # Main Components
//
// ScanOptions - Configuration struct for directory scanning:
//   - Pattern: Regex pattern to match filenames (without extension)
//   - Extensions: List of file extensions to include (case-insensitive, e.g., ".md", ".yaml")
//   - Recursive: Enable/disable subdirectory traversal
//   - ExcludeDirs: Directory names to skip (e.g., ".git", "node_modules")
//   - MaxDepth: Limit recursion depth (0 = unlimited, 1 = current dir only)
//
// ScanResult - Results of directory scan:
//   - Files: Absolute paths of all matched files (sorted alphabetically)
//   - Errors: Non-fatal errors encountered during scan
//
// ScanDirectory - Main scanning function that walks directories with
// the provided options.
//
// DetectLanguages / LanguageForExtension - Reduce a set of file
// extensions to the distinct source languages they imply.
//
// # Usage Examples
//
// Task context derivation (language detection from a working directory):
//
//	result, err := fileutil.ScanDirectory(workingDir, fileutil.ScanOptions{
//	    Recursive:   true,
//	    MaxDepth:    3,
//	    ExcludeDirs: []string{".git", "node_modules", "vendor", ".runs"},
//	})
//	var exts []string
//	for _, f := range result.Files {
//	    exts = append(exts, filepath.Ext(f))
//	}
//	languages := fileutil.DetectLanguages(exts)
//
// Worktree scanning (every file in a worktree at unlimited depth,
// skipping .git):
//
//	result, err := fileutil.ScanDirectory(worktreeDir, fileutil.ScanOptions{
//	    Recursive:   true,
//	    ExcludeDirs: []string{".git"},
//	})
//
// Pattern matching (files starting with "evidence-"):
//
//	result, err := fileutil.ScanDirectory("/path/to/dir", fileutil.ScanOptions{
//	    Pattern:    "^evidence-.*",
//	    Extensions: []string{".json"},
//	    Recursive:  true,
//	})
//
// Combined options (pattern + extensions + depth limit):
//
//	result, err := fileutil.ScanDirectory("/path/to/docs", fileutil.ScanOptions{
//	    Pattern:     "^task-",
//	    Extensions:  []string{".md", ".yaml"},
//	    Recursive:   true,
//	    MaxDepth:    2,
//	    ExcludeDirs: []string{"examples", "drafts"},
//	})
//
// Error handling (check for non-fatal errors):
//
//	result, err := fileutil.ScanDirectory("/path/to/dir", fileutil.ScanOptions{
//	    Recursive: true,
//	})
//	if err != nil {
//	    log.Fatalf("Fatal error: %v", err)
//	}
//	if len(result.Errors) > 0 {
//	    log.Printf("Encountered %d non-fatal errors:", len(result.Errors))
//	    for _, err := range result.Errors {
//	        log.Printf("  - %v", err)
//	    }
//	}
//
// # Design Principles
//
// Single Source of Truth:
// This package centralizes all file system operations and language
// detection to avoid duplicated logic across the codebase. Any file
// scanning functionality should use this package rather than
// implementing custom filepath.Walk logic.
//
// Performance-Oriented:
//   - Sorted output ensures deterministic results for testing and consistency
//   - Case-insensitive extension matching via maps for O(1) lookups
//   - Fast directory exclusion using hash maps
//   - Efficient regex compilation (once per scan)
//
// Error Tolerance:
// The scanner collects non-fatal errors (e.g., permission denied on a
// subdirectory) and continues scanning. Only fatal errors (e.g., root
// directory doesn't exist, invalid regex pattern) cause immediate
// failure.
//
// Standard Library Only:
// The package uses only Go's standard library (os, path/filepath,
// regexp, sort, strings) with no external dependencies, ensuring
// minimal overhead and maximum compatibility for what is, in effect,
// a directory walker called on every command invocation.
//
// Auto-Exclusion of Hidden Directories:
// Directories starting with "." (e.g., .git, .cache) are automatically
// skipped during recursive scans to avoid scanning hidden system
// directories.
//
// # Performance Characteristics
//
// Sorted Output:
// All file paths are sorted alphabetically before being returned, and
// DetectLanguages sorts its output the same way, ensuring deterministic
// output across runs and platforms. This is critical for testing and
// for keeping consensus prompts byte-stable across retries.
//
// Case-Insensitive Extension Matching:
// Extensions are normalized to lowercase for matching, allowing callers
// to specify ".MD", ".md", or "md" and match all variants, and allowing
// LanguageForExtension to recognize ".GO" the same as ".go".
//
// Fast Directory Exclusion:
// Excluded directories are stored in a map for O(1) lookup time, making
// exclusion checks efficient even with large exclusion lists.
//
// Memory Efficient:
// Files are collected in a slice but only store absolute paths
// (strings), not full file metadata, keeping memory usage low even when
// scanning large directories.
//
// # Common Use Cases in this Engine
//
// Task Context Derivation:
// internal/executor scans the working directory on every invocation,
// bounded to a shallow depth, to populate TaskContext.FileExtensions
// and TaskContext.DetectedLanguages; the agent selector uses the
// detected languages to boost agents that declare them.
//
// Worktree Diffs:
// internal/worktree does not use this package: it summarizes the files
// changed in a run worktree from `git diff --numstat` output.
//
// Test Fixture Discovery:
// Locating test fixtures in testdata/ directories during test
// execution.
package fileutil
