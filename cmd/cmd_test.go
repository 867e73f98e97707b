package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Benny93/axon-context/internal/engine"
	"github.com/Benny93/axon-context/internal/storage"
)

func setupProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range map[string]string{
		"src/index.ts":        "import { login } from './auth/login';\n",
		"src/auth/login.ts":   "import { s } from './session';\nexport function login() {}\n",
		"src/auth/session.ts": "export const s = 1;\n",
		"package.json":        `{"dependencies": {"next": "14"}}`,
	} {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

// run executes the CLI against root with history disabled.
func run(t *testing.T, root, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	c := NewCLI()
	c.stdin = strings.NewReader(stdin)
	c.stdout = &out
	c.stderr = &errOut

	full := append([]string{"--root", root, "--vcs", "none", "-q"}, args...)
	err := c.Execute(full)
	return out.String(), err
}

func TestAnalyzeCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("PrintsSummary", func(t *testing.T) {
		t.Parallel()
		root := setupProject(t)

		out, err := run(t, root, "", "analyze")
		require.NoError(t, err)
		assert.Contains(t, out, "Analyzed")
		assert.Contains(t, out, "Files: 4")
		assert.Contains(t, out, "Frameworks: nextjs")
		assert.NotContains(t, out, "Snapshot saved")
		assert.NoDirExists(t, storage.Path(root))
	})

	t.Run("Save", func(t *testing.T) {
		t.Parallel()
		root := setupProject(t)

		out, err := run(t, root, "", "analyze", "--save")
		require.NoError(t, err)
		assert.Contains(t, out, "Snapshot saved to "+storage.Path(root))
		assert.DirExists(t, storage.Path(root))
	})

	t.Run("SnapshotFromConfig", func(t *testing.T) {
		t.Parallel()
		root := setupProject(t)
		require.NoError(t, os.MkdirAll(storage.Dir(root), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(storage.Dir(root), "context.yaml"), []byte("snapshot: true\n"), 0o644))

		_, err := run(t, root, "", "analyze")
		require.NoError(t, err)
		assert.DirExists(t, storage.Path(root))
	})

	t.Run("InvalidConfig", func(t *testing.T) {
		t.Parallel()
		root := setupProject(t)
		require.NoError(t, os.MkdirAll(storage.Dir(root), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(storage.Dir(root), "context.yaml"), []byte("wrokers: 2\n"), 0o644))

		_, err := run(t, root, "", "analyze")
		assert.ErrorContains(t, err, "config file")
	})

	t.Run("MissingRoot", func(t *testing.T) {
		t.Parallel()
		_, err := run(t, filepath.Join(t.TempDir(), "missing"), "", "analyze")
		assert.Error(t, err)
	})
}

func TestRelevantCmd_Run(t *testing.T) {
	t.Parallel()
	root := setupProject(t)

	t.Run("Text", func(t *testing.T) {
		out, err := run(t, root, "", "relevant", "session", "-f", "src/auth/login.ts")
		require.NoError(t, err)
		assert.Contains(t, out, " 1. src/auth/login.ts (65)\n")
		assert.Contains(t, out, " 2. src/auth/session.ts (55)\n")
		assert.Contains(t, out, "    - Currently open\n")
	})

	t.Run("JSON", func(t *testing.T) {
		out, err := run(t, root, "", "relevant", "session", "--files", "src/auth/login.ts", "--json", "--limit", "2")
		require.NoError(t, err)

		var scores []engine.RelevanceScore
		require.NoError(t, json.Unmarshal([]byte(out), &scores))
		require.Len(t, scores, 2)
		assert.Equal(t, "src/auth/login.ts", scores[0].File)
		assert.Equal(t, 65, scores[0].Score)
		assert.Equal(t, "src/auth/session.ts", scores[1].File)
		assert.Equal(t, []string{`Path matches "session"`, "Imported by src/auth/login.ts", "Entry point"}, scores[1].Reasons)
	})
}

func TestTreeCmd_Run(t *testing.T) {
	t.Parallel()
	root := setupProject(t)

	out, err := run(t, root, "", "tree", "src/index.ts")
	require.NoError(t, err)
	assert.Equal(t, "src/index.ts\n└── src/auth/login.ts\n    └── src/auth/session.ts\n", out)

	out, err = run(t, root, "", "tree", "src/index.ts", "--depth", "1")
	require.NoError(t, err)
	assert.Equal(t, "src/index.ts\n└── src/auth/login.ts\n", out)

	out, err = run(t, root, "", "tree", "nope.ts")
	require.NoError(t, err)
	assert.Equal(t, "File not found: nope.ts\n", out)
}

func TestDependentsCmd_Run(t *testing.T) {
	t.Parallel()
	root := setupProject(t)

	out, err := run(t, root, "", "dependents", "src/auth/session.ts")
	require.NoError(t, err)
	assert.Equal(t, "Files importing src/auth/session.ts:\n  src/auth/login.ts\n", out)

	out, err = run(t, root, "", "dependents", "src/index.ts")
	require.NoError(t, err)
	assert.Equal(t, "No files import src/index.ts\n", out)
}

func TestStatusCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("NoSnapshot", func(t *testing.T) {
		t.Parallel()
		_, err := run(t, setupProject(t), "", "status")
		assert.ErrorContains(t, err, "analyze --save")
	})

	t.Run("AfterSave", func(t *testing.T) {
		t.Parallel()
		root := setupProject(t)
		_, err := run(t, root, "", "analyze", "--save")
		require.NoError(t, err)

		out, err := run(t, root, "", "status")
		require.NoError(t, err)
		assert.Contains(t, out, "Snapshot status for "+root)
		assert.Contains(t, out, "Analyzed at:")
		assert.Contains(t, out, "Files: 4")
	})
}

func TestRefreshCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("UpdatesSnapshot", func(t *testing.T) {
		t.Parallel()
		root := setupProject(t)
		_, err := run(t, root, "", "analyze", "--save")
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(filepath.Join(root, "src", "new.ts"), []byte("export {};\n"), 0o644))
		out, err := run(t, root, "", "refresh", "src/new.ts")
		require.NoError(t, err)
		assert.Contains(t, out, "Refreshed src/new.ts")
		assert.Contains(t, out, "Snapshot updated")

		out, err = run(t, root, "", "status")
		require.NoError(t, err)
		assert.Contains(t, out, "Files: 5")
	})

	t.Run("InvalidPath", func(t *testing.T) {
		t.Parallel()
		root := setupProject(t)
		_, err := run(t, root, "", "analyze", "--save")
		require.NoError(t, err)

		_, err = run(t, root, "", "refresh", "../outside.ts")
		assert.ErrorIs(t, err, engine.ErrInvalidPath)
	})

	t.Run("NoSnapshot", func(t *testing.T) {
		t.Parallel()
		_, err := run(t, setupProject(t), "", "refresh", "src/index.ts")
		assert.ErrorContains(t, err, "no snapshot found")
	})
}

func TestCleanCmd_Run(t *testing.T) {
	t.Parallel()

	saved := func(t *testing.T) string {
		root := setupProject(t)
		_, err := run(t, root, "", "analyze", "--save")
		require.NoError(t, err)
		return root
	}

	t.Run("Force", func(t *testing.T) {
		t.Parallel()
		root := saved(t)
		out, err := run(t, root, "", "clean", "--force")
		require.NoError(t, err)
		assert.Contains(t, out, "Deleted")
		assert.NoDirExists(t, storage.Path(root))
	})

	t.Run("Confirmed", func(t *testing.T) {
		t.Parallel()
		root := saved(t)
		_, err := run(t, root, "y\n", "clean")
		require.NoError(t, err)
		assert.NoDirExists(t, storage.Path(root))
	})

	t.Run("Aborted", func(t *testing.T) {
		t.Parallel()
		root := saved(t)
		out, err := run(t, root, "n\n", "clean")
		require.NoError(t, err)
		assert.Contains(t, out, "Aborted")
		assert.DirExists(t, storage.Path(root))
	})

	t.Run("NothingToClean", func(t *testing.T) {
		t.Parallel()
		_, err := run(t, t.TempDir(), "", "clean", "-f")
		assert.ErrorContains(t, err, "Nothing to clean")
	})
}

func TestSetupCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("DefaultConfigToStdout", func(t *testing.T) {
		t.Parallel()
		out, err := run(t, t.TempDir(), "", "setup")
		require.NoError(t, err)

		var config map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &config))
		servers := config["mcpServers"].(map[string]any)
		server := servers["axon-context"].(map[string]any)
		assert.Equal(t, "axon-context", server["command"])
		assert.Equal(t, []any{"serve", "--watch"}, server["args"])
	})

	t.Run("YAML", func(t *testing.T) {
		t.Parallel()
		out, err := run(t, t.TempDir(), "", "setup", "--format", "yaml")
		require.NoError(t, err)

		var config map[string]any
		require.NoError(t, yaml.Unmarshal([]byte(out), &config))
		assert.Contains(t, config, "mcpServers")
	})

	t.Run("LocalClients", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		out, err := run(t, root, "", "setup", "--qwen", "--claude", "--cursor")
		require.NoError(t, err)

		for _, dir := range []string{".qwen", ".claude", ".cursor"} {
			path := filepath.Join(root, dir, "mcp.json")
			assert.FileExists(t, path)
			assert.Contains(t, out, path)
		}
	})

	t.Run("CustomPath", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		_, err := run(t, t.TempDir(), "", "setup", "--cursor", "--file-path", dir)
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(dir, "mcp.json"))
		require.NoError(t, err)
		assert.Contains(t, string(data), `"axon-context"`)
	})

	t.Run("InvalidFormat", func(t *testing.T) {
		t.Parallel()
		_, err := run(t, t.TempDir(), "", "setup", "--format", "toml")
		assert.Error(t, err)
	})
}

func TestSetupCmd_Global(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	_, err := run(t, t.TempDir(), "", "setup", "--claude", "--global")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(home, ".claude", "global", "mcp.json"))
}

func TestPlural(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "1 refresh", plural(1, "refresh"))
	assert.Equal(t, "0 refreshes", plural(0, "refresh"))
	assert.Equal(t, "3 files", plural(3, "file"))
}
