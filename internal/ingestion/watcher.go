package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/Benny93/axon-context/internal/graph"
)

// BatchInterval is how long the watcher waits for quiet before flushing.
const BatchInterval = 2 * time.Second

// RefreshFunc re-analyzes one changed file.
type RefreshFunc func(ctx context.Context, relPath string) error

// WatchOptions configures Watch.
type WatchOptions struct {
	// Ignore holds extra gitignore-style patterns.
	Ignore []string

	// Interval overrides BatchInterval.
	Interval time.Duration

	Logger *slog.Logger

	// Ready, when set, is called once all directories are being watched.
	Ready func()
}

// Watch monitors root and passes each changed supported file to refresh once
// events settle. Deleted files are logged and skipped. Blocks until ctx is
// cancelled and returns ctx.Err().
func Watch(ctx context.Context, root string, refresh RefreshFunc, opts WatchOptions) error {
	if opts.Interval <= 0 {
		opts.Interval = BatchInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	matcher := loadIgnoreMatcher(root, opts.Ignore)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := addTree(watcher, root, root, matcher); err != nil {
		return fmt.Errorf("setting up watcher: %w", err)
	}
	logger.Info("watching for changes", "root", root)
	if opts.Ready != nil {
		opts.Ready()
	}

	changed := make(map[string]bool)
	batchTimer := time.NewTimer(opts.Interval)
	batchTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(watcher, root, event.Name, matcher); err != nil {
						logger.Warn("watching new directory failed", "dir", event.Name, "error", err)
					}
					continue
				}
			}

			rel, ok := watchedPath(root, event.Name, matcher)
			if !ok {
				continue
			}
			changed[rel] = true
			batchTimer.Reset(opts.Interval)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)

		case <-batchTimer.C:
			flushChanges(ctx, root, changed, refresh, logger)
			changed = make(map[string]bool)
		}
	}
}

// flushChanges refreshes every changed path that still exists, in lexical order.
func flushChanges(ctx context.Context, root string, changed map[string]bool, refresh RefreshFunc, logger *slog.Logger) {
	if len(changed) == 0 {
		return
	}

	paths := make([]string, 0, len(changed))
	for rel := range changed {
		paths = append(paths, rel)
	}
	sort.Strings(paths)

	logger.Info("refreshing changed files", "count", len(paths))
	for _, rel := range paths {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel))); errors.Is(err, fs.ErrNotExist) {
			logger.Info("file removed", "path", rel)
			continue
		}
		if err := refresh(ctx, rel); err != nil {
			logger.Warn("refresh failed", "path", rel, "error", err)
		}
	}
}

// addTree watches dir and every non-ignored directory below it.
func addTree(watcher *fsnotify.Watcher, root, dir string, matcher gitignore.Matcher) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if d.Name() == ".git" || matcher.Match(splitPath(rel), true) {
				return filepath.SkipDir
			}
		}
		return watcher.Add(path)
	})
}

// watchedPath returns the slash-separated relative path of name when it is a
// supported file that no ignore pattern excludes.
func watchedPath(root, name string, matcher gitignore.Matcher) (string, bool) {
	rel, err := filepath.Rel(root, name)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	if !graph.IsSupported(name) || matcher.Match(splitPath(rel), false) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
