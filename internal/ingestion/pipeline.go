package ingestion

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Benny93/axon-context/internal/graph"
)

// ProgressCallback is called with phase name and progress (0.0-1.0).
type ProgressCallback func(phase string, progress float64)

// PipelineOptions configures a pipeline run.
type PipelineOptions struct {
	// Workers bounds concurrent file analyses; 0 means runtime.NumCPU().
	Workers int

	// Ignore holds extra gitignore-style patterns for discovery.
	Ignore []string

	// Analyzer configures per-file analysis.
	Analyzer AnalyzerOptions

	// Progress, when set, receives phase updates. It may be called from
	// several goroutines, one call at a time.
	Progress ProgressCallback
}

// PipelineResult summarizes a pipeline run.
type PipelineResult struct {
	// Paths is every discovered path, in discovery order.
	Paths []string

	// Graph holds the analyzed nodes, inserted in discovery order.
	Graph *graph.DependencyGraph

	// Analyzer is kept for later single-file refreshes.
	Analyzer *Analyzer

	// Skipped counts discovered files the analyzer rejected.
	Skipped int

	DurationSecs float64
}

// RunPipeline discovers, analyzes and links every file under root.
func RunPipeline(ctx context.Context, root string, opts PipelineOptions) (*PipelineResult, error) {
	start := time.Now()
	progress := syncProgress(opts.Progress)

	progress("Walking files", 0.0)
	paths := Discover(root, opts.Ignore)
	progress("Walking files", 1.0)

	analyzer := NewAnalyzer(root, paths, opts.Analyzer)

	nodes, err := AnalyzeFiles(ctx, analyzer, paths, opts.Workers, progress)
	if err != nil {
		return nil, fmt.Errorf("analyzing files: %w", err)
	}

	progress("Building graph", 0.0)
	g := graph.Build(nodes)
	progress("Building graph", 1.0)

	return &PipelineResult{
		Paths:        paths,
		Graph:        g,
		Analyzer:     analyzer,
		Skipped:      len(paths) - len(nodes),
		DurationSecs: time.Since(start).Seconds(),
	}, nil
}

// AnalyzeFiles analyzes paths on a bounded worker pool. The returned nodes keep
// the order of paths; rejected files are left out. Cancelling ctx stops
// scheduling and returns ctx.Err().
func AnalyzeFiles(ctx context.Context, a *Analyzer, paths []string, workers int, progress ProgressCallback) ([]*graph.FileNode, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if progress == nil {
		progress = func(string, float64) {}
	}

	results := make([]*graph.FileNode, len(paths))
	var (
		mu   sync.Mutex
		done int
	)

	progress("Analyzing files", 0.0)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = a.Analyze(gctx, p)

			mu.Lock()
			done++
			if done < len(paths) {
				progress("Analyzing files", float64(done)/float64(len(paths)))
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	progress("Analyzing files", 1.0)

	nodes := make([]*graph.FileNode, 0, len(results))
	for _, node := range results {
		if node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes, nil
}

// syncProgress serializes calls to progress and tolerates nil.
func syncProgress(progress ProgressCallback) ProgressCallback {
	if progress == nil {
		return func(string, float64) {}
	}
	var mu sync.Mutex
	return func(phase string, value float64) {
		mu.Lock()
		defer mu.Unlock()
		progress(phase, value)
	}
}
