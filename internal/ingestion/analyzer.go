package ingestion

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/Benny93/axon-context/internal/graph"
	"github.com/Benny93/axon-context/internal/parsers"
	"github.com/Benny93/axon-context/internal/vcs"
)

// AnalyzerOptions configures an Analyzer.
type AnalyzerOptions struct {
	// VCS supplies churn and co-change data. Nil disables history mining.
	VCS vcs.VCS

	// CoChangeWindow is the number of recent commits inspected per file.
	CoChangeWindow int

	// Logger receives debug output for skipped files.
	Logger *slog.Logger
}

// Analyzer turns one relative path into a FileNode. Local imports resolve
// against the set of known paths, which starts as the discovered set.
type Analyzer struct {
	root   string
	vcs    vcs.VCS
	window int
	logger *slog.Logger

	// goModule is the module path declared by <root>/go.mod, if any.
	goModule string

	mu         sync.RWMutex
	known      map[string]struct{}
	goPackages map[string][]string // directory → non-test .go files
}

// NewAnalyzer creates an analyzer for root whose resolution cache holds paths.
func NewAnalyzer(root string, paths []string, opts AnalyzerOptions) *Analyzer {
	if opts.VCS == nil {
		opts.VCS = vcs.None{}
	}
	if opts.CoChangeWindow <= 0 {
		opts.CoChangeWindow = vcs.DefaultWindow
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	a := &Analyzer{
		root:       root,
		vcs:        opts.VCS,
		window:     opts.CoChangeWindow,
		logger:     opts.Logger,
		goModule:   readGoModule(root),
		known:      make(map[string]struct{}, len(paths)),
		goPackages: make(map[string][]string),
	}
	for _, p := range paths {
		a.addLocked(p)
	}
	return a
}

// Add makes path resolvable as an import target.
func (a *Analyzer) Add(path string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.addLocked(path)
}

func (a *Analyzer) addLocked(path string) {
	if _, ok := a.known[path]; ok {
		return
	}
	a.known[path] = struct{}{}

	if strings.HasSuffix(path, ".go") && !strings.HasSuffix(path, "_test.go") {
		dir := pathDir(path)
		files := append(a.goPackages[dir], path)
		sort.Strings(files)
		a.goPackages[dir] = files
	}
}

func (a *Analyzer) has(path string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.known[path]
	return ok
}

// Analyze reads and analyzes a single file. It returns nil when the file is
// missing, not a regular file, unreadable or not valid UTF-8.
func (a *Analyzer) Analyze(ctx context.Context, relPath string) *graph.FileNode {
	absPath := filepath.Join(a.root, filepath.FromSlash(relPath))

	info, err := os.Stat(absPath)
	if err != nil || !info.Mode().IsRegular() {
		a.logger.Debug("skipping file", "path", relPath, "error", err)
		return nil
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		a.logger.Debug("skipping unreadable file", "path", relPath, "error", err)
		return nil
	}
	if !utf8.Valid(content) {
		a.logger.Debug("skipping non-UTF-8 file", "path", relPath)
		return nil
	}

	source := string(content)
	lines := countLines(source)
	lang := graph.DetectLanguage(relPath)

	node := &graph.FileNode{
		Path:         absPath,
		RelativePath: relPath,
		Size:         info.Size(),
		Lines:        lines,
		Language:     lang,
		Complexity:   Complexity(source, lines),
		Dependencies: []string{},
		Exports:      []string{},
		Imports:      []string{},
		LastModified: info.ModTime(),
	}

	if parser := parsers.ForLanguage(lang); parser != nil {
		result, err := parser.Parse(relPath, content)
		if err != nil {
			a.logger.Debug("extraction failed", "path", relPath, "error", err)
		} else {
			node.Exports = append(node.Exports, result.Exports...)
			node.Imports, node.Dependencies = a.link(relPath, lang, result.Imports)
		}
	}

	node.ChangeFrequency = a.vcs.CommitCount(ctx, relPath)
	node.CoChangedWith = a.vcs.CoChangedFiles(ctx, relPath, a.window)

	return node
}

// link returns the raw specifiers and the ordered, deduplicated local
// dependencies they resolve to.
func (a *Analyzer) link(from string, lang graph.Language, imports []parsers.ImportStatement) ([]string, []string) {
	raw := make([]string, 0, len(imports))
	deps := []string{}
	seen := map[string]bool{from: true}

	for _, imp := range imports {
		raw = append(raw, imp.ModulePath)
		for _, target := range a.resolve(from, lang, imp) {
			if seen[target] {
				continue
			}
			seen[target] = true
			deps = append(deps, target)
		}
	}
	return raw, deps
}
