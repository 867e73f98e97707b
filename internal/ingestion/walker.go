// Package ingestion discovers, analyzes and links the files of a project.
//
// The flow is Discover → Analyzer (one task per file, on a bounded worker
// pool) → graph.Build. The Watch loop feeds single changed files back through
// a refresh callback.
package ingestion

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/Benny93/axon-context/internal/graph"
)

// Default patterns to ignore (in addition to .gitignore).
var defaultIgnorePatterns = []string{
	".git/",
	"node_modules/",
	"vendor/",
	"dist/",
	"build/",
	"out/",
	"target/",
	"coverage/",
	".next/",
	".nuxt/",
	".cache/",
	"__pycache__/",
	".venv/",
	"venv/",
	".tox/",
	".pytest_cache/",
	".mypy_cache/",
	".axon/",
	"*.min.js",
	"*.d.ts",
}

// Discover walks root and returns the relative, slash-separated paths of every
// supported file that no ignore pattern excludes, in lexical order. extra holds
// additional gitignore-style patterns. An inaccessible root yields nil.
func Discover(root string, extra []string) []string {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil
	}

	matcher := loadIgnoreMatcher(root, extra)

	seen := make(map[string]struct{})
	var paths []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal.
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		parts := splitPath(rel)

		if d.IsDir() {
			if d.Name() == ".git" || matcher.Match(parts, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if !graph.IsSupported(d.Name()) || matcher.Match(parts, false) {
			return nil
		}

		rel = filepath.ToSlash(rel)
		if _, dup := seen[rel]; !dup {
			seen[rel] = struct{}{}
			paths = append(paths, rel)
		}
		return nil
	})

	sort.Strings(paths)
	return paths
}

// loadIgnoreMatcher combines the default patterns, the root .gitignore and extra.
func loadIgnoreMatcher(root string, extra []string) gitignore.Matcher {
	lines := append([]string{}, defaultIgnorePatterns...)
	lines = append(lines, readGitignore(root)...)
	lines = append(lines, extra...)

	patterns := make([]gitignore.Pattern, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return gitignore.NewMatcher(patterns)
}

// readGitignore returns the raw lines of the root .gitignore, if any.
func readGitignore(root string) []string {
	content, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")
}

// splitPath splits a path into its components.
func splitPath(path string) []string {
	return strings.Split(filepath.ToSlash(path), "/")
}
