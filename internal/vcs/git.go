package vcs

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// Git mines history by running the git binary with the scan root as its
// working directory. Paths are relative to that root in both directions.
type Git struct {
	root   string
	binary string
	logger *slog.Logger
}

// NewGit creates a git CLI backend for root.
func NewGit(root string, logger *slog.Logger) *Git {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Git{root: root, binary: "git", logger: logger}
}

// CommitCount follows renames, so history from before a move is counted.
func (g *Git) CommitCount(ctx context.Context, path string) int {
	hashes, err := g.lines(ctx, "log", "--follow", "--format=%H", "--", path)
	if err != nil {
		g.logger.Debug("git commit count failed", "path", path, "error", err)
		return 0
	}
	return len(hashes)
}

// CoChangedFiles lists the latest window commits touching path, then the files
// of each commit. Files outside the scan root are left out.
func (g *Git) CoChangedFiles(ctx context.Context, path string, window int) map[string]int {
	if window <= 0 {
		window = DefaultWindow
	}

	counts := make(map[string]int)
	hashes, err := g.lines(ctx, "log", "-n", strconv.Itoa(window), "--format=%H", "--", path)
	if err != nil {
		g.logger.Debug("git log failed", "path", path, "error", err)
		return counts
	}

	for _, hash := range hashes {
		files, err := g.lines(ctx, "show", "--name-only", "--relative", "--format=", hash)
		if err != nil {
			g.logger.Debug("git show failed", "commit", hash, "error", err)
			continue
		}
		for _, file := range files {
			if file == path {
				continue
			}
			counts[file]++
		}
	}

	return counts
}

// lines runs git and returns its non-empty output lines.
func (g *Git) lines(ctx context.Context, args ...string) ([]string, error) {
	args = append([]string{"-c", "core.quotePath=false"}, args...)
	cmd := exec.CommandContext(ctx, g.binary, args...)
	cmd.Dir = g.root

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git %s: %w: %s", args[2], err, strings.TrimSpace(stderr.String()))
	}

	var out []string
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			out = append(out, line)
		}
	}
	return out, scanner.Err()
}
