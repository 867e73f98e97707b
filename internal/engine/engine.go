// Package engine owns the analyzed ProjectContext and answers queries over it.
//
// Initialize builds a fresh context from disk. Queries take a read lock and
// may run concurrently with each other; RefreshFile and Initialize take the
// write lock only to swap state, so file analysis never blocks readers.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Benny93/axon-context/internal/analytics"
	"github.com/Benny93/axon-context/internal/ingestion"
	"github.com/Benny93/axon-context/internal/project"
	"github.com/Benny93/axon-context/internal/vcs"
)

type options struct {
	workers  int
	window   int
	ignore   []string
	vcsKind  vcs.Kind
	vcs      vcs.VCS
	logger   *slog.Logger
	progress ingestion.ProgressCallback
}

// Option configures an Engine.
type Option func(*options)

// WithWorkers bounds concurrent file analyses. Zero means one per CPU.
func WithWorkers(n int) Option { return func(o *options) { o.workers = n } }

// WithCoChangeWindow sets how many recent commits are mined per file.
func WithCoChangeWindow(n int) Option { return func(o *options) { o.window = n } }

// WithIgnore adds gitignore-style patterns to file discovery.
func WithIgnore(patterns ...string) Option {
	return func(o *options) { o.ignore = append(o.ignore, patterns...) }
}

// WithVCSKind selects the history backend opened for each root.
func WithVCSKind(kind vcs.Kind) Option { return func(o *options) { o.vcsKind = kind } }

// WithVCS uses v for every root instead of opening a backend.
func WithVCS(v vcs.VCS) Option { return func(o *options) { o.vcs = v } }

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithProgress receives pipeline phase updates during Initialize.
func WithProgress(fn ingestion.ProgressCallback) Option {
	return func(o *options) { o.progress = fn }
}

// Engine is safe for concurrent use.
type Engine struct {
	opts  options
	cache *relevanceCache

	mu       sync.RWMutex
	pc       *ProjectContext
	analyzer *ingestion.Analyzer
}

// New creates an uninitialized engine.
func New(opts ...Option) *Engine {
	o := options{window: vcs.DefaultWindow}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{opts: o, cache: newRelevanceCache()}
}

// Initialize analyzes root and replaces any previous context. On error the
// previous context stays in place.
func (e *Engine) Initialize(ctx context.Context, root string) (*ProjectContext, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", abs, ErrRootNotDirectory)
	}

	history, err := e.history(abs)
	if err != nil {
		return nil, err
	}

	result, err := ingestion.RunPipeline(ctx, abs, ingestion.PipelineOptions{
		Workers: e.opts.workers,
		Ignore:  e.opts.ignore,
		Analyzer: ingestion.AnalyzerOptions{
			VCS:            history,
			CoChangeWindow: e.opts.window,
			Logger:         e.opts.logger,
		},
		Progress: e.opts.progress,
	})
	if err != nil {
		return nil, err
	}

	manifest := project.Detect(abs)
	pc := &ProjectContext{
		RootPath:       abs,
		Graph:          result.Graph,
		Frameworks:     manifest.Frameworks,
		PackageManager: manifest.PackageManager,
		InitializedAt:  time.Now(),
		Report:         analytics.Analyze(result.Graph),
	}

	e.mu.Lock()
	e.pc = pc
	e.analyzer = result.Analyzer
	e.cache.clear()
	e.mu.Unlock()

	e.opts.logger.Info("project analyzed",
		"root", abs,
		"files", result.Graph.NodeCount(),
		"dependencies", result.Graph.EdgeCount(),
		"skipped", result.Skipped,
		"duration_secs", result.DurationSecs,
	)
	return pc, nil
}

// Restore installs a previously built context, typically loaded from a
// snapshot. The analyzer used by RefreshFile is created on first refresh.
func (e *Engine) Restore(pc *ProjectContext) error {
	if pc == nil || pc.Graph == nil {
		return fmt.Errorf("restore: %w", ErrNotInitialized)
	}

	e.mu.Lock()
	e.pc = pc
	e.analyzer = nil
	e.cache.clear()
	e.mu.Unlock()
	return nil
}

// Context returns the current project context.
func (e *Engine) Context() (*ProjectContext, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.pc == nil {
		return nil, ErrNotInitialized
	}
	return e.pc, nil
}

// View calls fn with the current context under the read lock. fn must not
// retain or mutate the context.
func (e *Engine) View(fn func(*ProjectContext) error) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.pc == nil {
		return ErrNotInitialized
	}
	return fn(e.pc)
}

// RefreshFile re-analyzes one file and replaces its node. Edges and project
// aggregates are left as they are. A file that no longer exists is a no-op.
// The relevance cache is always cleared.
func (e *Engine) RefreshFile(ctx context.Context, relPath string) error {
	rel, err := cleanRelative(relPath)
	if err != nil {
		return err
	}

	e.mu.RLock()
	pc, analyzer := e.pc, e.analyzer
	e.mu.RUnlock()
	if pc == nil {
		return ErrNotInitialized
	}

	if analyzer == nil {
		history, err := e.history(pc.RootPath)
		if err != nil {
			return err
		}
		analyzer = ingestion.NewAnalyzer(pc.RootPath, pc.Graph.Order(), ingestion.AnalyzerOptions{
			VCS:            history,
			CoChangeWindow: e.opts.window,
			Logger:         e.opts.logger,
		})
	}

	node := analyzer.Analyze(ctx, rel)
	if node != nil {
		analyzer.Add(rel)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pc != pc {
		// Initialize or Restore won the race; the new context is already fresh.
		return nil
	}
	e.analyzer = analyzer
	if node != nil {
		pc.Graph.SetNode(node)
	}
	e.cache.clear()

	e.opts.logger.Debug("file refreshed", "path", rel, "present", node != nil)
	return nil
}

func (e *Engine) history(root string) (vcs.VCS, error) {
	if e.opts.vcs != nil {
		return e.opts.vcs, nil
	}
	v, err := vcs.New(e.opts.vcsKind, root, e.opts.logger)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return v, nil
}

// cleanRelative normalizes p to a slash-separated path inside the root.
func cleanRelative(p string) (string, error) {
	if p == "" || filepath.IsAbs(p) || strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%q: %w", p, ErrInvalidPath)
	}
	clean := path.Clean(filepath.ToSlash(p))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%q: %w", p, ErrInvalidPath)
	}
	return clean, nil
}
