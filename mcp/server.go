// Package mcp provides the MCP (Model Context Protocol) server for Axon.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Benny93/axon-context/internal/engine"
)

// Version is reported to MCP clients.
var Version = "0.1.0"

const (
	defaultTreeDepth = 3
	maxTreeDepth     = 10
)

// Engine is the subset of *engine.Engine the server needs.
type Engine interface {
	View(fn func(*engine.ProjectContext) error) error
	CalculateRelevance(query string, currentFiles []string) ([]engine.RelevanceScore, error)
	GetSummary() (string, error)
	GetDependencyTree(file string, depth int) (string, error)
	GetReverseDependencies(file string) ([]string, error)
	RefreshFile(ctx context.Context, relPath string) error
}

// Server represents the MCP server.
type Server struct {
	engine Engine
	logger *slog.Logger
	server *mcp.Server
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Resource represents an MCP resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// NewServer creates a new MCP server over e.
func NewServer(e Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		engine: e,
		logger: logger,
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "axon-context",
		Version: Version,
	}, nil)

	s.registerTools()
	s.registerResources()

	return s
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []Tool {
	return []Tool{
		{
			Name:        "context_relevance",
			Description: "Rank project files by relevance to a task description and the files currently open. Returns up to 20 files with scores and reasons.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"query": {Type: "string", Description: "Free-text task description"},
					"current_files": {
						Type:        "array",
						Items:       &jsonschema.Schema{Type: "string"},
						Description: "Relative paths of the files currently open",
					},
					"limit": {Type: "integer", Description: "Maximum number of results (at most 20)"},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        "context_summary",
			Description: "Summarize the project: languages, package manager, frameworks, hot spots, complex files.",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{},
			},
		},
		{
			Name:        "context_tree",
			Description: "Show the dependency tree of a file.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"file":  {Type: "string", Description: "Relative path of the file"},
					"depth": {Type: "integer", Description: "Maximum tree depth (default 3)"},
				},
				Required: []string{"file"},
			},
		},
		{
			Name:        "context_dependents",
			Description: "List the files that import a given file.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"file": {Type: "string", Description: "Relative path of the file"},
				},
				Required: []string{"file"},
			},
		},
		{
			Name:        "context_refresh",
			Description: "Re-analyze changed files so later queries see their new contents.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"files": {
						Type:        "array",
						Items:       &jsonschema.Schema{Type: "string"},
						Description: "Relative paths of the changed files",
					},
				},
				Required: []string{"files"},
			},
		},
	}
}

// ListResources returns all registered resources.
func (s *Server) ListResources() []Resource {
	return []Resource{
		{
			URI:         "axon://summary",
			Name:        "Project Summary",
			Description: "Languages, frameworks, hot spots and complex files of the analyzed project",
			MimeType:    "text/plain",
		},
		{
			URI:         "axon://hotspots",
			Name:        "Hot Spots",
			Description: "Most frequently changed files with their commit counts",
			MimeType:    "text/plain",
		},
	}
}

// CallTool executes a tool with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case "context_relevance":
		query, _ := args["query"].(string)
		limit, _ := args["limit"].(float64)
		return s.handleRelevance(query, stringList(args["current_files"]), int(limit))
	case "context_summary":
		return s.engine.GetSummary()
	case "context_tree":
		file, _ := args["file"].(string)
		depth, _ := args["depth"].(float64)
		return s.handleTree(file, int(depth))
	case "context_dependents":
		file, _ := args["file"].(string)
		return s.handleDependents(file)
	case "context_refresh":
		return s.handleRefresh(ctx, stringList(args["files"]))
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case "axon://summary":
		return s.engine.GetSummary()
	case "axon://hotspots":
		return s.hotSpots()
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

// Run serves MCP over stdin/stdout until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	return s.RunTransport(ctx, &mcp.StdioTransport{})
}

// RunTransport serves MCP over t.
func (s *Server) RunTransport(ctx context.Context, t mcp.Transport) error {
	s.logger.Info("mcp server started", "tools", len(s.ListTools()), "resources", len(s.ListResources()))
	return s.server.Run(ctx, t)
}

func (s *Server) handleRelevance(query string, currentFiles []string, limit int) (string, error) {
	if strings.TrimSpace(query) == "" && len(currentFiles) == 0 {
		return "", errors.New("query or current_files is required")
	}

	scores, err := s.engine.CalculateRelevance(query, currentFiles)
	if err != nil {
		return "", err
	}
	if limit > 0 && limit < len(scores) {
		scores = scores[:limit]
	}
	if len(scores) == 0 {
		return fmt.Sprintf("No relevant files for %q.", query), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Relevant files for %q:\n", query)
	for i, sc := range scores {
		fmt.Fprintf(&b, "\n%d. %s (score %d)\n", i+1, sc.File, sc.Score)
		for _, reason := range sc.Reasons {
			fmt.Fprintf(&b, "   - %s\n", reason)
		}
	}
	return b.String(), nil
}

func (s *Server) handleTree(file string, depth int) (string, error) {
	if file == "" {
		return "", errors.New("file is required")
	}
	if depth <= 0 {
		depth = defaultTreeDepth
	}
	return s.engine.GetDependencyTree(file, min(depth, maxTreeDepth))
}

func (s *Server) handleDependents(file string) (string, error) {
	if file == "" {
		return "", errors.New("file is required")
	}

	deps, err := s.engine.GetReverseDependencies(file)
	if err != nil {
		return "", err
	}
	if len(deps) == 0 {
		return fmt.Sprintf("No files import %s.", file), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Files importing %s (%d):\n", file, len(deps))
	for _, d := range deps {
		fmt.Fprintf(&b, "  %s\n", d)
	}
	return b.String(), nil
}

func (s *Server) handleRefresh(ctx context.Context, files []string) (string, error) {
	if len(files) == 0 {
		return "", errors.New("files is required")
	}

	var failed []string
	for _, f := range files {
		if err := s.engine.RefreshFile(ctx, f); err != nil {
			if errors.Is(err, engine.ErrNotInitialized) {
				return "", err
			}
			s.logger.Warn("refresh failed", "path", f, "error", err)
			failed = append(failed, fmt.Sprintf("%s: %v", f, err))
		}
	}

	msg := fmt.Sprintf("Refreshed %d file(s).", len(files)-len(failed))
	if len(failed) > 0 {
		msg += "\nFailed:\n  " + strings.Join(failed, "\n  ")
	}
	return msg, nil
}

func (s *Server) hotSpots() (string, error) {
	var b strings.Builder
	err := s.engine.View(func(pc *engine.ProjectContext) error {
		if len(pc.HotSpots) == 0 {
			b.WriteString("No hot spots: no version-control history was found.")
			return nil
		}
		b.WriteString("Hot spots (most changed first):\n")
		for _, rel := range pc.HotSpots {
			changes := 0
			if node := pc.Graph.Node(rel); node != nil {
				changes = node.ChangeFrequency
			}
			fmt.Fprintf(&b, "  %s (%d changes)\n", rel, changes)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *Server) registerTools() {
	for _, tool := range s.ListTools() {
		name := tool.Name
		s.server.AddTool(&mcp.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := map[string]any{}
			if len(req.Params.Arguments) > 0 {
				if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
					return errorResult(fmt.Errorf("invalid arguments: %w", err)), nil
				}
			}

			text, err := s.CallTool(ctx, name, args)
			if err != nil {
				s.logger.Debug("tool failed", "tool", name, "error", err)
				return errorResult(err), nil
			}
			return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}, nil
		})
	}
}

func (s *Server) registerResources() {
	for _, res := range s.ListResources() {
		s.server.AddResource(&mcp.Resource{
			URI:         res.URI,
			Name:        res.Name,
			Description: res.Description,
			MIMEType:    res.MimeType,
		}, func(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			text, err := s.ReadResource(ctx, res.URI)
			if err != nil {
				return nil, err
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{{URI: res.URI, MIMEType: res.MimeType, Text: text}},
			}, nil
		})
	}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: "Error: " + err.Error()}},
	}
}

// stringList converts a decoded JSON array to strings, skipping other values.
func stringList(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
