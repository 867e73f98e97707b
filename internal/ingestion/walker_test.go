package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFiles creates files (slash paths) with content under dir.
func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		fullPath := filepath.Join(dir, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
		require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644))
	}
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"main.py":                    "print('hello')",
		"src/app.ts":                 "export const app = 1",
		"src/lib/utils.ts":           "export {}",
		"src/a.ts":                   "",
		"src/a/b.ts":                 "",
		"package.json":               "{}",
		"config.yaml":                "a: 1",
		"README.md":                  "# README",
		".gitignore":                 "# comment\n\n*.gen.ts\ngenerated/\n",
		"node_modules/react/main.js": "",
		"vendor/lib.go":              "package lib",
		"dist/bundle.js":             "",
		"__pycache__/mod.py":         "",
		"assets/app.min.js":          "",
		"types/globals.d.ts":         "",
		"src/schema.gen.ts":          "",
		"generated/api.ts":           "",
		".axon/context.yaml":         "",
	})

	t.Run("FindsSupportedFilesInLexicalOrder", func(t *testing.T) {
		paths := Discover(tmpDir, nil)
		assert.Equal(t, []string{
			"config.yaml",
			"main.py",
			"package.json",
			"src/a.ts",
			"src/a/b.ts",
			"src/app.ts",
			"src/lib/utils.ts",
		}, paths)
	})

	t.Run("ExtraPatterns", func(t *testing.T) {
		paths := Discover(tmpDir, []string{"src/lib/", "*.yaml"})
		assert.NotContains(t, paths, "src/lib/utils.ts")
		assert.NotContains(t, paths, "config.yaml")
		assert.Contains(t, paths, "src/app.ts")
	})

	t.Run("InaccessibleRoot", func(t *testing.T) {
		assert.Empty(t, Discover(filepath.Join(tmpDir, "missing"), nil))
		assert.Empty(t, Discover(filepath.Join(tmpDir, "main.py"), nil))
	})
}

func TestWatchedPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	matcher := loadIgnoreMatcher(root, []string{"tmp/"})

	tests := []struct {
		name string
		path string
		rel  string
		ok   bool
	}{
		{"Supported", filepath.Join(root, "src", "a.ts"), "src/a.ts", true},
		{"Unsupported", filepath.Join(root, "notes.md"), "", false},
		{"DefaultIgnore", filepath.Join(root, "node_modules", "x.js"), "", false},
		{"ExtraIgnore", filepath.Join(root, "tmp", "x.ts"), "", false},
		{"OutsideRoot", filepath.Join(filepath.Dir(root), "x.ts"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rel, ok := watchedPath(root, tt.path, matcher)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.rel, rel)
		})
	}
}
