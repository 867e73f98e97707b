// Package vcs mines version-control history for per-file churn and co-change
// counts.
//
// Every backend degrades instead of failing: a missing tool, a directory that
// is not a repository or a path that was never committed all produce zero
// commits and an empty co-change map. Callers never see an error from a query.
package vcs

import (
	"context"
	"fmt"
	"log/slog"
)

// DefaultWindow is the number of recent commits inspected for co-change counts.
const DefaultWindow = 50

// VCS is the history collaborator used by the file analyzer.
type VCS interface {
	// CommitCount returns the number of commits touching path.
	CommitCount(ctx context.Context, path string) int

	// CoChangedFiles inspects the most recent window commits touching path and
	// counts, per other file, how many of those commits also changed it.
	CoChangedFiles(ctx context.Context, path string, window int) map[string]int
}

// Kind selects a VCS backend.
type Kind string

const (
	// KindGit shells out to the git binary.
	KindGit Kind = "git"
	// KindGoGit reads the repository in-process with go-git.
	KindGoGit Kind = "go-git"
	// KindNone disables history mining.
	KindNone Kind = "none"
)

// New returns the backend for kind rooted at root. A go-git backend that cannot
// open a repository falls back to None.
func New(kind Kind, root string, logger *slog.Logger) (VCS, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	switch kind {
	case KindGit, "":
		return NewGit(root, logger), nil
	case KindGoGit:
		g, err := OpenGoGit(root, logger)
		if err != nil {
			logger.Debug("go-git backend unavailable, history disabled", "root", root, "error", err)
			return None{}, nil
		}
		return g, nil
	case KindNone:
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown vcs backend %q", kind)
	}
}

// None is the VCS used when history is unavailable or disabled.
type None struct{}

// CommitCount always returns 0.
func (None) CommitCount(context.Context, string) int { return 0 }

// CoChangedFiles always returns an empty map.
func (None) CoChangedFiles(context.Context, string, int) map[string]int { return map[string]int{} }
