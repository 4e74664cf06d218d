package executor

import (
	"path/filepath"
	"strings"

	"github.com/harrison/scengine/internal/fileutil"
	"github.com/harrison/scengine/internal/models"
)

// contextScanDepth bounds how deep deriveContext looks for file
// extension/language signal, trading completeness for a fast, bounded
// scan on every run.
const contextScanDepth = 3

// deriveContext builds a TaskContext deterministically from a parsed
// Command and the working directory: keywords from the command's own
// text, plus languages/extensions detected from a depth-limited
// recursive scan of the working directory.
func deriveContext(cmd models.Command, workingDir string) models.TaskContext {
	text := strings.Join(append([]string{cmd.Name}, cmd.Args...), " ")

	keywords := make([]string, 0, len(cmd.Args)+len(cmd.Flags)+1)
	keywords = append(keywords, cmd.Name)
	keywords = append(keywords, cmd.Args...)
	for k := range cmd.Flags {
		keywords = append(keywords, k)
	}

	extSet := make(map[string]bool)
	var filePaths []string

	result, err := fileutil.ScanDirectory(workingDir, fileutil.ScanOptions{
		Recursive:   true,
		MaxDepth:    contextScanDepth,
		ExcludeDirs: []string{".git", "node_modules", "vendor", ".runs"},
	})
	if err == nil {
		for _, path := range result.Files {
			ext := filepath.Ext(path)
			if ext == "" {
				continue
			}
			extSet[ext] = true
			filePaths = append(filePaths, path)
		}
	}

	extensions := setToSlice(extSet)
	return models.TaskContext{
		Text:               text,
		Keywords:           keywords,
		FilePaths:          filePaths,
		FileExtensions:     extensions,
		DetectedLanguages:  fileutil.DetectLanguages(extensions),
		DetectedFrameworks: nil,
	}
}

func setToSlice(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
