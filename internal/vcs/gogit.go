package vcs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// GoGit mines history in-process with go-git. Unlike the CLI backend it does
// not follow renames. Queries are serialized because a go-git repository is
// not safe for concurrent use.
type GoGit struct {
	mu     sync.Mutex
	repo   *git.Repository
	prefix string // scan root relative to the worktree, "" at the top
	logger *slog.Logger
}

// OpenGoGit opens the repository containing root.
func OpenGoGit(root string, logger *slog.Logger) (*GoGit, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", root, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("opening worktree: %w", err)
	}

	prefix, err := relativeTo(wt.Filesystem.Root(), root)
	if err != nil {
		return nil, err
	}

	return &GoGit{repo: repo, prefix: prefix, logger: logger}, nil
}

// CommitCount returns the number of commits reachable from HEAD that changed path.
func (g *GoGit) CommitCount(ctx context.Context, p string) int {
	count := 0
	err := g.walk(ctx, p, func(*object.Commit) error {
		count++
		return nil
	})
	if err != nil {
		g.logger.Debug("go-git commit count failed", "path", p, "error", err)
		return 0
	}
	return count
}

// CoChangedFiles counts the files changed alongside path in its latest window commits.
func (g *GoGit) CoChangedFiles(ctx context.Context, p string, window int) map[string]int {
	if window <= 0 {
		window = DefaultWindow
	}

	counts := make(map[string]int)
	seen := 0
	err := g.walk(ctx, p, func(c *object.Commit) error {
		if seen == window {
			return storer.ErrStop
		}
		seen++

		files, err := changedFiles(c)
		if err != nil {
			g.logger.Debug("go-git diff failed", "commit", c.Hash.String(), "error", err)
			return nil
		}
		for _, name := range files {
			rel, ok := g.fromRepo(name)
			if !ok || rel == p {
				continue
			}
			counts[rel]++
		}
		return nil
	})
	if err != nil {
		g.logger.Debug("go-git log failed", "path", p, "error", err)
		return make(map[string]int)
	}
	return counts
}

// walk visits the commits touching p, newest first.
func (g *GoGit) walk(ctx context.Context, p string, fn func(*object.Commit) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	head, err := g.repo.Head()
	if err != nil {
		return fmt.Errorf("resolving HEAD: %w", err)
	}

	name := path.Join(g.prefix, p)
	iter, err := g.repo.Log(&git.LogOptions{From: head.Hash(), FileName: &name})
	if err != nil {
		return fmt.Errorf("reading log: %w", err)
	}
	defer iter.Close()

	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(c)
	})
	if errors.Is(err, storer.ErrStop) {
		return nil
	}
	return err
}

// fromRepo maps a worktree path to a scan-root path.
func (g *GoGit) fromRepo(name string) (string, bool) {
	if g.prefix == "" {
		return name, true
	}
	rel, ok := strings.CutPrefix(name, g.prefix+"/")
	return rel, ok
}

// changedFiles lists the paths a commit touched relative to its first parent.
// The root commit touches every file of its tree.
func changedFiles(c *object.Commit) ([]string, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}

	var names []string
	if c.NumParents() == 0 {
		err = tree.Files().ForEach(func(f *object.File) error {
			names = append(names, f.Name)
			return nil
		})
		return names, err
	}

	parent, err := c.Parent(0)
	if err != nil {
		return nil, err
	}
	parentTree, err := parent.Tree()
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTree(parentTree, tree)
	if err != nil {
		return nil, err
	}
	for _, change := range changes {
		name := change.To.Name
		if name == "" {
			name = change.From.Name
		}
		names = append(names, name)
	}
	return names, nil
}

// relativeTo returns dir relative to top in slash form, resolving symlinks on
// both sides so temp directories compare equal.
func relativeTo(top, dir string) (string, error) {
	resolve := func(p string) string {
		abs, err := filepath.Abs(p)
		if err != nil {
			return p
		}
		if real, err := filepath.EvalSymlinks(abs); err == nil {
			return real
		}
		return abs
	}

	rel, err := filepath.Rel(resolve(top), resolve(dir))
	if err != nil {
		return "", fmt.Errorf("locating %s in worktree: %w", dir, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return "", nil
	}
	if strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside worktree %s", dir, top)
	}
	return rel, nil
}
