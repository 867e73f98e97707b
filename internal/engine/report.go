package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Benny93/axon-context/internal/graph"
)

const (
	// DefaultTreeDepth is used when GetDependencyTree gets a non-positive depth.
	DefaultTreeDepth = 3

	summaryTop = 5
)

// GetSummary renders a human-readable overview of the project.
func (e *Engine) GetSummary() (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.pc == nil {
		return "", ErrNotInitialized
	}
	pc := e.pc
	g := pc.Graph

	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", pc.RootPath)
	fmt.Fprintf(&b, "Files: %d\n", g.NodeCount())
	fmt.Fprintf(&b, "Dependencies: %d\n", g.EdgeCount())
	fmt.Fprintf(&b, "Package manager: %s\n", pc.PackageManager)
	if len(pc.Frameworks) > 0 {
		fmt.Fprintf(&b, "Frameworks: %s\n", strings.Join(pc.Frameworks, ", "))
	} else {
		b.WriteString("Frameworks: none\n")
	}

	b.WriteString("\nLanguages:\n")
	total := 0
	for _, n := range pc.Languages {
		total += n
	}
	for _, lang := range sortedLanguages(pc.Languages) {
		n := pc.Languages[lang]
		fmt.Fprintf(&b, "  %s: %d (%.1f%%)\n", lang, n, 100*float64(n)/float64(total))
	}

	if len(pc.HotSpots) > 0 {
		b.WriteString("\nHot spots:\n")
		for _, rel := range head(pc.HotSpots, summaryTop) {
			changes := 0
			if node := g.Node(rel); node != nil {
				changes = node.ChangeFrequency
			}
			fmt.Fprintf(&b, "  %s (%d changes)\n", rel, changes)
		}
	}

	if len(pc.ComplexFiles) > 0 {
		b.WriteString("\nComplex files:\n")
		for _, rel := range head(pc.ComplexFiles, summaryTop) {
			complexity := 0.0
			if node := g.Node(rel); node != nil {
				complexity = node.Complexity
			}
			fmt.Fprintf(&b, "  %s (complexity %.1f)\n", rel, complexity)
		}
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "Entry points: %d\n", len(pc.EntryPoints))
	fmt.Fprintf(&b, "Test files: %d\n", len(pc.TestFiles))
	fmt.Fprintf(&b, "Config files: %d\n", len(pc.ConfigFiles))
	return b.String(), nil
}

// GetDependencyTree renders the dependencies of file as a box-drawing tree,
// depth levels deep. A dependency already on the current branch is printed
// once with a "(cycle)" marker and not expanded.
func (e *Engine) GetDependencyTree(file string, depth int) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.pc == nil {
		return "", ErrNotInitialized
	}
	if depth <= 0 {
		depth = DefaultTreeDepth
	}

	g := e.pc.Graph
	if g.Node(file) == nil {
		return "File not found: " + file, nil
	}

	var b strings.Builder
	b.WriteString(file)
	b.WriteString("\n")
	branch := map[string]bool{file: true}
	writeTree(&b, g, file, "", 1, depth, branch)
	return strings.TrimSuffix(b.String(), "\n"), nil
}

func writeTree(b *strings.Builder, g *graph.DependencyGraph, file, prefix string, level, depth int, branch map[string]bool) {
	if level > depth {
		return
	}

	deps := g.Edges[file].Sorted()
	for i, dep := range deps {
		last := i == len(deps)-1
		connector, indent := "├── ", "│   "
		if last {
			connector, indent = "└── ", "    "
		}

		b.WriteString(prefix + connector + dep)
		if branch[dep] {
			b.WriteString(" (cycle)\n")
			continue
		}
		b.WriteString("\n")

		branch[dep] = true
		writeTree(b, g, dep, prefix+indent, level+1, depth, branch)
		delete(branch, dep)
	}
}

// GetReverseDependencies returns the files that import file, sorted. Unknown
// files have no dependents.
func (e *Engine) GetReverseDependencies(file string) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.pc == nil {
		return nil, ErrNotInitialized
	}
	deps := e.pc.Graph.Dependents(file)
	if deps == nil {
		deps = []string{}
	}
	return deps, nil
}

func sortedLanguages(counts map[graph.Language]int) []graph.Language {
	langs := make([]graph.Language, 0, len(counts))
	for lang := range counts {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool {
		if counts[langs[i]] != counts[langs[j]] {
			return counts[langs[i]] > counts[langs[j]]
		}
		return langs[i] < langs[j]
	})
	return langs
}
