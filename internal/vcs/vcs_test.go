package vcs

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper functions for git repo setup

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
}

func initGitRepo(t *testing.T, dir string) {
	t.Helper()
	requireGit(t)

	runGit(t, dir, "init")
	runGit(t, dir, "config", "user.email", "test@test.com")
	runGit(t, dir, "config", "user.name", "Test User")
	runGit(t, dir, "config", "commit.gpgsign", "false")
}

// createCommit writes files and commits them together.
func createCommit(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
		runGit(t, dir, "add", name)
	}
	runGit(t, dir, "commit", "-m", "update")
}

// seedHistory creates three commits: {a,b}, {a}, {b,c}.
func seedHistory(t *testing.T, dir string) {
	t.Helper()
	initGitRepo(t, dir)
	createCommit(t, dir, map[string]string{"a.go": "package a", "b.go": "package a"})
	createCommit(t, dir, map[string]string{"a.go": "package a\n\nfunc A() {}"})
	createCommit(t, dir, map[string]string{"b.go": "package a\n\nfunc B() {}", "c.go": "package c"})
}

func backends(t *testing.T, root string) map[string]VCS {
	t.Helper()
	gg, err := OpenGoGit(root, nil)
	require.NoError(t, err)
	return map[string]VCS{
		"Git":   NewGit(root, nil),
		"GoGit": gg,
	}
}

func TestCommitCount(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	seedHistory(t, dir)
	ctx := context.Background()

	for name, backend := range backends(t, dir) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, 2, backend.CommitCount(ctx, "a.go"))
			assert.Equal(t, 2, backend.CommitCount(ctx, "b.go"))
			assert.Equal(t, 1, backend.CommitCount(ctx, "c.go"))
			assert.Equal(t, 0, backend.CommitCount(ctx, "missing.go"))
		})
	}
}

func TestCommitCount_Rename(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	initGitRepo(t, dir)
	createCommit(t, dir, map[string]string{"old.go": "package moved\n\nfunc Moved() {}\n"})
	runGit(t, dir, "mv", "old.go", "new.go")
	runGit(t, dir, "commit", "-m", "rename")

	ctx := context.Background()
	b := backends(t, dir)

	// The CLI follows the rename back to old.go; go-git only sees new.go.
	assert.Equal(t, 2, b["Git"].CommitCount(ctx, "new.go"))
	assert.Equal(t, 1, b["GoGit"].CommitCount(ctx, "new.go"))
}

func TestCoChangedFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	seedHistory(t, dir)
	ctx := context.Background()

	for name, backend := range backends(t, dir) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, map[string]int{"b.go": 1}, backend.CoChangedFiles(ctx, "a.go", DefaultWindow))
			assert.Equal(t, map[string]int{"a.go": 1, "c.go": 1}, backend.CoChangedFiles(ctx, "b.go", DefaultWindow))
			assert.Empty(t, backend.CoChangedFiles(ctx, "missing.go", DefaultWindow))
		})

		t.Run(name+"/WindowLimitsCommits", func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, map[string]int{"c.go": 1}, backend.CoChangedFiles(ctx, "b.go", 1))
		})
	}
}

func TestSubdirectoryRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	initGitRepo(t, dir)
	createCommit(t, dir, map[string]string{
		"top.go":     "package top",
		"sub/x.go":   "package sub",
		"sub/y.go":   "package sub",
		"other/z.go": "package other",
	})

	root := filepath.Join(dir, "sub")
	ctx := context.Background()

	for name, backend := range backends(t, root) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, 1, backend.CommitCount(ctx, "x.go"))
			assert.Equal(t, map[string]int{"y.go": 1}, backend.CoChangedFiles(ctx, "x.go", DefaultWindow))
		})
	}
}

func TestNotARepository(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a"), 0o644))
	ctx := context.Background()

	t.Run("Git", func(t *testing.T) {
		t.Parallel()
		requireGit(t)
		g := NewGit(dir, nil)
		assert.Equal(t, 0, g.CommitCount(ctx, "a.go"))
		assert.Empty(t, g.CoChangedFiles(ctx, "a.go", DefaultWindow))
	})

	t.Run("MissingBinary", func(t *testing.T) {
		t.Parallel()
		g := NewGit(dir, nil)
		g.binary = "git-binary-that-does-not-exist"
		assert.Equal(t, 0, g.CommitCount(ctx, "a.go"))
		assert.Empty(t, g.CoChangedFiles(ctx, "a.go", DefaultWindow))
	})

	t.Run("GoGitFallsBackToNone", func(t *testing.T) {
		t.Parallel()
		_, err := OpenGoGit(dir, nil)
		require.Error(t, err)

		backend, err := New(KindGoGit, dir, nil)
		require.NoError(t, err)
		assert.IsType(t, None{}, backend)
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	backend, err := New(KindGit, dir, nil)
	require.NoError(t, err)
	assert.IsType(t, &Git{}, backend)

	backend, err = New(KindNone, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, backend.CommitCount(context.Background(), "x"))
	assert.Empty(t, backend.CoChangedFiles(context.Background(), "x", 10))

	_, err = New("svn", dir, nil)
	assert.Error(t, err)
}
