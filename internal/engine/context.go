package engine

import (
	"time"

	"github.com/Benny93/axon-context/internal/analytics"
	"github.com/Benny93/axon-context/internal/graph"
	"github.com/Benny93/axon-context/internal/project"
)

// ProjectContext is the analyzed state of one project. It is built wholesale
// by Initialize. RefreshFile replaces single nodes but never recomputes edges
// or the aggregates in the embedded Report.
type ProjectContext struct {
	RootPath       string                 `json:"root_path"`
	Graph          *graph.DependencyGraph `json:"graph"`
	Frameworks     []string               `json:"frameworks"`
	PackageManager project.PackageManager `json:"package_manager"`
	InitializedAt  time.Time              `json:"initialized_at"`

	analytics.Report
}

// RelevanceScore is one ranked file of a relevance query.
type RelevanceScore struct {
	File    string   `json:"file"`
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}
