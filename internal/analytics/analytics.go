// Package analytics derives project-level aggregates from a dependency graph.
//
// Every function is pure and deterministic for a given graph: candidates are
// visited in discovery order and sorts are stable, so ties keep that order.
package analytics

import (
	"path"
	"sort"
	"strings"

	"github.com/Benny93/axon-context/internal/graph"
)

const (
	// MaxRanked bounds the hot-spot and complex-file lists.
	MaxRanked = 20

	// ComplexityThreshold is the minimum complexity of a complex file (exclusive).
	ComplexityThreshold = 5.0

	// TopDependedUpon is how many most-imported files count as entry points.
	TopDependedUpon = 5
)

// entryBasenames are the canonical entry-point names, without extension.
var entryBasenames = map[string]bool{
	"index":  true,
	"main":   true,
	"app":    true,
	"server": true,
}

var testMarkers = []string{".test.", ".spec.", "__tests__"}

var configMarkers = []string{
	"package.json",
	"tsconfig.json",
	"jsconfig.json",
	".eslintrc",
	"eslint.config",
	".prettierrc",
	"prettier.config",
	"webpack.config",
	"vite.config",
	"rollup.config",
	"babel.config",
	".babelrc",
	"jest.config",
	"vitest.config",
	"next.config",
	"tailwind.config",
}

// Report bundles every aggregate.
type Report struct {
	Languages    map[graph.Language]int `json:"languages"`
	HotSpots     []string               `json:"hot_spots"`
	ComplexFiles []string               `json:"complex_files"`
	EntryPoints  []string               `json:"entry_points"`
	TestFiles    []string               `json:"test_files"`
	ConfigFiles  []string               `json:"config_files"`
}

// Analyze computes every aggregate of g.
func Analyze(g *graph.DependencyGraph) Report {
	return Report{
		Languages:    Languages(g),
		HotSpots:     HotSpots(g),
		ComplexFiles: ComplexFiles(g),
		EntryPoints:  EntryPoints(g),
		TestFiles:    TestFiles(g),
		ConfigFiles:  ConfigFiles(g),
	}
}

// Languages counts nodes per language.
func Languages(g *graph.DependencyGraph) map[graph.Language]int {
	counts := make(map[graph.Language]int)
	for _, node := range g.Ordered() {
		counts[node.Language]++
	}
	return counts
}

// HotSpots returns the most frequently changed files, most changed first.
// Files never changed are excluded.
func HotSpots(g *graph.DependencyGraph) []string {
	return ranked(g, func(n *graph.FileNode) (float64, bool) {
		return float64(n.ChangeFrequency), n.ChangeFrequency > 0
	})
}

// ComplexFiles returns files above ComplexityThreshold, most complex first.
func ComplexFiles(g *graph.DependencyGraph) []string {
	return ranked(g, func(n *graph.FileNode) (float64, bool) {
		return n.Complexity, n.Complexity > ComplexityThreshold
	})
}

// EntryPoints returns source files with a canonical entry-point basename,
// followed by the TopDependedUpon files with the most dependents.
func EntryPoints(g *graph.DependencyGraph) []string {
	var out []string
	seen := make(map[string]bool)

	all := g.Ordered()
	for _, node := range all {
		if isCanonicalEntry(node) {
			seen[node.RelativePath] = true
			out = append(out, node.RelativePath)
		}
	}

	popular := make([]*graph.FileNode, 0, len(all))
	for _, node := range all {
		if len(g.ReverseEdges[node.RelativePath]) > 0 {
			popular = append(popular, node)
		}
	}
	sort.SliceStable(popular, func(i, j int) bool {
		return len(g.ReverseEdges[popular[i].RelativePath]) > len(g.ReverseEdges[popular[j].RelativePath])
	})
	if len(popular) > TopDependedUpon {
		popular = popular[:TopDependedUpon]
	}
	for _, node := range popular {
		if !seen[node.RelativePath] {
			seen[node.RelativePath] = true
			out = append(out, node.RelativePath)
		}
	}

	return out
}

// TestFiles returns files whose path marks them as tests.
func TestFiles(g *graph.DependencyGraph) []string {
	var out []string
	for _, node := range g.Ordered() {
		if IsTestPath(node.RelativePath) {
			out = append(out, node.RelativePath)
		}
	}
	return out
}

// IsTestPath reports whether a relative path looks like a test file.
func IsTestPath(relPath string) bool {
	lower := strings.ToLower(relPath)
	for _, marker := range testMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// ConfigFiles returns files whose basename names a well-known tool config.
func ConfigFiles(g *graph.DependencyGraph) []string {
	var out []string
	for _, node := range g.Ordered() {
		base := node.Basename()
		for _, marker := range configMarkers {
			if strings.Contains(base, marker) {
				out = append(out, node.RelativePath)
				break
			}
		}
	}
	return out
}

func isCanonicalEntry(node *graph.FileNode) bool {
	switch node.Language {
	case graph.LangJSON, graph.LangYAML, graph.LangTOML, graph.LangUnknown:
		return false
	}
	base := node.Basename()
	return entryBasenames[strings.TrimSuffix(base, path.Ext(base))]
}

// ranked keeps the nodes key accepts, sorts them by descending key and
// truncates to MaxRanked.
func ranked(g *graph.DependencyGraph, key func(*graph.FileNode) (float64, bool)) []string {
	type entry struct {
		path  string
		value float64
	}

	var entries []entry
	for _, node := range g.Ordered() {
		if v, ok := key(node); ok {
			entries = append(entries, entry{node.RelativePath, v})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].value > entries[j].value })
	if len(entries) > MaxRanked {
		entries = entries[:MaxRanked]
	}

	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.path
	}
	return out
}
