package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/Benny93/axon-context/internal/analytics"
	"github.com/Benny93/axon-context/internal/engine"
	"github.com/Benny93/axon-context/internal/graph"
	"github.com/Benny93/axon-context/internal/project"
)

// Encoders are safe for concurrent EncodeAll/DecodeAll use.
var (
	encoder = must(zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault)))
	decoder = must(zstd.NewReader(nil))
)

// must panics on constructor errors; the codec options are fixed.
func must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("storage: building zstd codec: %v", err))
	}
	return v
}

// meta is everything in a ProjectContext except nodes and edges.
type meta struct {
	Version        int                    `json:"version"`
	RootPath       string                 `json:"root_path"`
	Frameworks     []string               `json:"frameworks"`
	PackageManager project.PackageManager `json:"package_manager"`
	InitializedAt  time.Time              `json:"initialized_at"`
	Report         analytics.Report       `json:"report"`

	// Order is the node discovery order.
	Order []string `json:"order"`
}

func metaOf(pc *engine.ProjectContext) meta {
	return meta{
		Version:        snapshotVersion,
		RootPath:       pc.RootPath,
		Frameworks:     pc.Frameworks,
		PackageManager: pc.PackageManager,
		InitializedAt:  pc.InitializedAt,
		Report:         pc.Report,
		Order:          pc.Graph.Order(),
	}
}

// assemble rebuilds a context from its stored parts. Edges are stored rather
// than derived because refreshed nodes may disagree with them.
func assemble(m meta, nodes map[string]*graph.FileNode, edges map[string][]string) (*engine.ProjectContext, error) {
	if m.Version != snapshotVersion {
		return nil, fmt.Errorf("version %d: %w", m.Version, ErrIncompatibleSnapshot)
	}

	g := graph.NewDependencyGraph()
	for rel, node := range nodes {
		g.Nodes[rel] = node
	}
	for from, targets := range edges {
		set := make(graph.StringSet, len(targets))
		for _, to := range targets {
			set[to] = struct{}{}
			if g.ReverseEdges[to] == nil {
				g.ReverseEdges[to] = make(graph.StringSet)
			}
			g.ReverseEdges[to][from] = struct{}{}
		}
		g.Edges[from] = set
	}
	g.Restore(m.Order)

	return &engine.ProjectContext{
		RootPath:       m.RootPath,
		Graph:          g,
		Frameworks:     m.Frameworks,
		PackageManager: m.PackageManager,
		InitializedAt:  m.InitializedAt,
		Report:         m.Report,
	}, nil
}

// edgeLists flattens g.Edges into sorted lists.
func edgeLists(g *graph.DependencyGraph) map[string][]string {
	out := make(map[string][]string, len(g.Edges))
	for from, set := range g.Edges {
		out[from] = set.Sorted()
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// encode marshals v to JSON and compresses it.
func encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling: %w", err)
	}
	return encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// decode reverses encode.
func decode(data []byte, v any) error {
	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return fmt.Errorf("decompressing: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshaling: %w", err)
	}
	return nil
}
