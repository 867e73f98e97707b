package graph

import (
	"sort"
)

// StringSet is an unordered set of relative paths.
type StringSet map[string]struct{}

// Has reports whether s contains v.
func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Sorted returns the members in lexical order.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// DependencyGraph holds analyzed files and the import edges between them.
//
// Nodes own every FileNode. Edges[f] mirrors the dependencies of f as a set and
// ReverseEdges[d] lists the files depending on d. Edge targets need not be
// nodes: a dependency on a file outside the scanned set is still recorded.
//
// The graph is not safe for concurrent mutation; the engine serialises writers.
type DependencyGraph struct {
	Nodes        map[string]*FileNode `json:"nodes"`
	Edges        map[string]StringSet `json:"edges"`
	ReverseEdges map[string]StringSet `json:"reverse_edges"`

	// order records node discovery order; it is the relevance tie-break.
	order []string
}

// NewDependencyGraph creates a new empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		Nodes:        make(map[string]*FileNode),
		Edges:        make(map[string]StringSet),
		ReverseEdges: make(map[string]StringSet),
	}
}

// Build assembles a graph from nodes given in discovery order.
// It is a single pass; cycles are allowed and not detected.
func Build(nodes []*FileNode) *DependencyGraph {
	g := NewDependencyGraph()
	for _, n := range nodes {
		g.SetNode(n)
	}
	for _, rel := range g.order {
		g.link(g.Nodes[rel])
	}
	return g
}

// link records the forward and reverse edges for one node.
func (g *DependencyGraph) link(n *FileNode) {
	deps := make(StringSet, len(n.Dependencies))
	for _, d := range n.Dependencies {
		deps[d] = struct{}{}
		if g.ReverseEdges[d] == nil {
			g.ReverseEdges[d] = make(StringSet)
		}
		g.ReverseEdges[d][n.RelativePath] = struct{}{}
	}
	g.Edges[n.RelativePath] = deps
}

// SetNode inserts or replaces a node without touching any edge.
// A new key is appended to the discovery order.
func (g *DependencyGraph) SetNode(n *FileNode) {
	if _, exists := g.Nodes[n.RelativePath]; !exists {
		g.order = append(g.order, n.RelativePath)
	}
	g.Nodes[n.RelativePath] = n
}

// Node returns the node for a relative path, or nil.
func (g *DependencyGraph) Node(rel string) *FileNode {
	return g.Nodes[rel]
}

// NodeCount returns the number of nodes.
func (g *DependencyGraph) NodeCount() int {
	return len(g.Nodes)
}

// EdgeCount returns the number of forward edges.
func (g *DependencyGraph) EdgeCount() int {
	count := 0
	for _, deps := range g.Edges {
		count += len(deps)
	}
	return count
}

// Ordered returns nodes in discovery order.
func (g *DependencyGraph) Ordered() []*FileNode {
	out := make([]*FileNode, 0, len(g.order))
	for _, rel := range g.order {
		if n, ok := g.Nodes[rel]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Dependents returns the sorted reverse edges of rel, or nil.
func (g *DependencyGraph) Dependents(rel string) []string {
	deps, ok := g.ReverseEdges[rel]
	if !ok {
		return nil
	}
	return deps.Sorted()
}

// Order returns the relative paths of all nodes in discovery order.
func (g *DependencyGraph) Order() []string {
	return append([]string(nil), g.order...)
}

// Restore rebuilds the discovery order of a deserialized graph. Paths listed in
// order come first; nodes it does not mention follow in lexical order.
func (g *DependencyGraph) Restore(order []string) {
	seen := make(map[string]bool, len(g.Nodes))
	g.order = g.order[:0]
	for _, rel := range order {
		if _, ok := g.Nodes[rel]; ok && !seen[rel] {
			seen[rel] = true
			g.order = append(g.order, rel)
		}
	}

	var rest []string
	for rel := range g.Nodes {
		if !seen[rel] {
			rest = append(rest, rel)
		}
	}
	sort.Strings(rest)
	g.order = append(g.order, rest...)

	if g.Edges == nil {
		g.Edges = make(map[string]StringSet)
	}
	if g.ReverseEdges == nil {
		g.ReverseEdges = make(map[string]StringSet)
	}
}
