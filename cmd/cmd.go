// Package cmd provides CLI command implementations for Axon.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/Benny93/axon-context/internal/config"
	"github.com/Benny93/axon-context/internal/engine"
	"github.com/Benny93/axon-context/internal/logging"
	"github.com/Benny93/axon-context/internal/storage"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	green = color.New(color.FgGreen)
	cyan  = color.New(color.FgCyan)
	faint = color.New(color.Faint)
)

// Globals are the flags shared by every command.
type Globals struct {
	Root     string `short:"C" default:"." type:"path" help:"Project root"`
	Config   string `type:"path" help:"Config file (default <root>/.axon/context.yaml)"`
	VCS      string `help:"History backend: git, go-git or none (overrides config)"`
	LogLevel string `help:"Log level: debug, info, warn or error (overrides config)"`
	Verbose  bool   `short:"v" help:"Enable verbose output"`
	Quiet    bool   `short:"q" help:"Suppress non-essential output"`

	stdin  io.Reader `kong:"-"`
	stdout io.Writer `kong:"-"`
	stderr io.Writer `kong:"-"`
}

func (g *Globals) out() io.Writer {
	if g.stdout == nil {
		return os.Stdout
	}
	return g.stdout
}

func (g *Globals) errOut() io.Writer {
	if g.stderr == nil {
		return os.Stderr
	}
	return g.stderr
}

func (g *Globals) in() io.Reader {
	if g.stdin == nil {
		return os.Stdin
	}
	return g.stdin
}

// root returns the absolute project root.
func (g *Globals) root() (string, error) {
	root, err := filepath.Abs(g.Root)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	return root, nil
}

// setup resolves the root and loads the effective configuration and logger.
func (g *Globals) setup() (string, *config.Config, *slog.Logger, error) {
	root, err := g.root()
	if err != nil {
		return "", nil, nil, err
	}

	path := g.Config
	if path == "" {
		path = config.Path(root)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return "", nil, nil, err
	}

	if g.VCS != "" {
		cfg.VCS = g.VCS
	}
	switch {
	case g.LogLevel != "":
		cfg.Log.Level = g.LogLevel
	case g.Verbose:
		cfg.Log.Level = "debug"
	case g.Quiet:
		cfg.Log.Level = "error"
	}
	if err := cfg.Validate(); err != nil {
		return "", nil, nil, err
	}

	logger, err := logging.New(g.errOut(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return "", nil, nil, err
	}
	return root, cfg, logger, nil
}

// analyze sets up and initializes an engine on the project root.
func (g *Globals) analyze(ctx context.Context) (*engine.Engine, *config.Config, *slog.Logger, error) {
	root, cfg, logger, err := g.setup()
	if err != nil {
		return nil, nil, nil, err
	}

	opts := cfg.EngineOptions(logger)
	if !g.Quiet {
		opts = append(opts, engine.WithProgress(func(phase string, pct float64) {
			fmt.Fprintf(g.errOut(), "\r\033[K%s (%.0f%%)", phase, pct*100)
		}))
	}

	e := engine.New(opts...)
	if _, err := e.Initialize(ctx, root); err != nil {
		return nil, nil, nil, fmt.Errorf("analyzing %s: %w", root, err)
	}
	if !g.Quiet {
		fmt.Fprintln(g.errOut())
	}
	return e, cfg, logger, nil
}

// restore builds an engine from the saved snapshot of the project root.
func (g *Globals) restore(ctx context.Context) (*engine.Engine, *config.Config, *slog.Logger, error) {
	root, cfg, logger, err := g.setup()
	if err != nil {
		return nil, nil, nil, err
	}

	pc, err := loadSnapshot(ctx, root, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	e := engine.New(cfg.EngineOptions(logger)...)
	if err := e.Restore(pc); err != nil {
		return nil, nil, nil, err
	}
	return e, cfg, logger, nil
}

// AnalyzeCmd analyzes a project and prints its summary.
type AnalyzeCmd struct {
	Save bool `help:"Save a snapshot to <root>/.axon"`
}

// Run executes the analyze command.
func (c *AnalyzeCmd) Run(g *Globals) error {
	ctx := context.Background()
	e, cfg, logger, err := g.analyze(ctx)
	if err != nil {
		return err
	}

	pc, err := e.Context()
	if err != nil {
		return err
	}
	summary, err := e.GetSummary()
	if err != nil {
		return err
	}

	green.Fprintf(g.out(), "✓ Analyzed %s\n\n", pc.RootPath)
	fmt.Fprint(g.out(), summary)

	if c.Save || cfg.Snapshot {
		path, err := saveSnapshot(ctx, e, pc.RootPath, logger)
		if err != nil {
			return err
		}
		green.Fprintf(g.out(), "\n✓ Snapshot saved to %s\n", path)
	}
	return nil
}

// RelevantCmd ranks files for a task.
type RelevantCmd struct {
	Query string   `arg:"" help:"Task description"`
	Files []string `short:"f" help:"Currently open files (relative paths)"`
	Limit int      `short:"n" default:"20" help:"Maximum results"`
	JSON  bool     `help:"Print results as JSON"`
}

// Run executes the relevant command.
func (c *RelevantCmd) Run(g *Globals) error {
	e, _, _, err := g.analyze(context.Background())
	if err != nil {
		return err
	}

	scores, err := e.CalculateRelevance(c.Query, c.Files)
	if err != nil {
		return err
	}
	if c.Limit > 0 && c.Limit < len(scores) {
		scores = scores[:c.Limit]
	}

	if c.JSON {
		enc := json.NewEncoder(g.out())
		enc.SetIndent("", "  ")
		return enc.Encode(scores)
	}

	if len(scores) == 0 {
		fmt.Fprintln(g.out(), "No relevant files found")
		return nil
	}
	for i, s := range scores {
		fmt.Fprintf(g.out(), "%2d. ", i+1)
		cyan.Fprint(g.out(), s.File)
		fmt.Fprintf(g.out(), " (%d)\n", s.Score)
		for _, reason := range s.Reasons {
			faint.Fprintf(g.out(), "    - %s\n", reason)
		}
	}
	return nil
}

// TreeCmd prints the dependency tree of a file.
type TreeCmd struct {
	File  string `arg:"" help:"File (relative path)"`
	Depth int    `short:"d" default:"3" help:"Maximum depth"`
}

// Run executes the tree command.
func (c *TreeCmd) Run(g *Globals) error {
	e, _, _, err := g.analyze(context.Background())
	if err != nil {
		return err
	}

	tree, err := e.GetDependencyTree(filepath.ToSlash(c.File), c.Depth)
	if err != nil {
		return err
	}
	fmt.Fprintln(g.out(), tree)
	return nil
}

// DependentsCmd lists the files importing a file.
type DependentsCmd struct {
	File string `arg:"" help:"File (relative path)"`
}

// Run executes the dependents command.
func (c *DependentsCmd) Run(g *Globals) error {
	e, _, _, err := g.analyze(context.Background())
	if err != nil {
		return err
	}

	file := filepath.ToSlash(c.File)
	deps, err := e.GetReverseDependencies(file)
	if err != nil {
		return err
	}
	if len(deps) == 0 {
		fmt.Fprintf(g.out(), "No files import %s\n", file)
		return nil
	}

	fmt.Fprintf(g.out(), "Files importing %s:\n", file)
	for _, d := range deps {
		fmt.Fprintf(g.out(), "  %s\n", d)
	}
	return nil
}

// RefreshCmd re-analyzes files in the saved snapshot.
type RefreshCmd struct {
	Files []string `arg:"" help:"Changed files (relative paths)"`
}

// Run executes the refresh command.
func (c *RefreshCmd) Run(g *Globals) error {
	ctx := context.Background()
	e, _, logger, err := g.restore(ctx)
	if err != nil {
		return err
	}

	for _, f := range c.Files {
		if err := e.RefreshFile(ctx, filepath.ToSlash(f)); err != nil {
			return fmt.Errorf("refreshing %s: %w", f, err)
		}
		fmt.Fprintf(g.out(), "Refreshed %s\n", f)
	}

	pc, err := e.Context()
	if err != nil {
		return err
	}
	path, err := saveSnapshot(ctx, e, pc.RootPath, logger)
	if err != nil {
		return err
	}
	green.Fprintf(g.out(), "✓ Snapshot updated at %s\n", path)
	return nil
}

// StatusCmd shows the saved snapshot of the project.
type StatusCmd struct{}

// Run executes the status command.
func (c *StatusCmd) Run(g *Globals) error {
	e, _, _, err := g.restore(context.Background())
	if err != nil {
		return err
	}

	pc, err := e.Context()
	if err != nil {
		return err
	}
	summary, err := e.GetSummary()
	if err != nil {
		return err
	}

	fmt.Fprintf(g.out(), "Snapshot status for %s\n", pc.RootPath)
	fmt.Fprintf(g.out(), "  Analyzed at:    %s\n\n", pc.InitializedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprint(g.out(), summary)
	return nil
}

// CleanCmd deletes the saved snapshot.
type CleanCmd struct {
	Force bool `short:"f" help:"Skip confirmation"`
}

// Run executes the clean command.
func (c *CleanCmd) Run(g *Globals) error {
	root, err := g.root()
	if err != nil {
		return err
	}

	dir := storage.Path(root)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("no snapshot found at %s. Nothing to clean", root)
	}

	if !c.Force {
		fmt.Fprintf(g.out(), "Delete %s? [y/N] ", dir)
		var response string
		_, _ = fmt.Fscanln(g.in(), &response)
		if response != "y" && response != "Y" {
			fmt.Fprintln(g.out(), "Aborted")
			return nil
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}

	green.Fprintf(g.out(), "Deleted %s\n", dir)
	return nil
}

func saveSnapshot(ctx context.Context, e *engine.Engine, root string, logger *slog.Logger) (string, error) {
	path := storage.Path(root)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("creating snapshot directory: %w", err)
	}

	store, err := storage.OpenBadger(path, storage.BadgerOptions{Logger: logger})
	if err != nil {
		return "", fmt.Errorf("opening snapshot: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := e.View(func(pc *engine.ProjectContext) error {
		return store.Save(ctx, pc)
	}); err != nil {
		return "", fmt.Errorf("saving snapshot: %w", err)
	}
	return path, nil
}

func loadSnapshot(ctx context.Context, root string, logger *slog.Logger) (*engine.ProjectContext, error) {
	path := storage.Path(root)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no snapshot found at %s. Run 'axon-context analyze --save' first", root)
	}

	store, err := storage.OpenBadger(path, storage.BadgerOptions{ReadOnly: true, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer func() { _ = store.Close() }()

	pc, err := store.Load(ctx)
	if errors.Is(err, storage.ErrNoSnapshot) {
		return nil, fmt.Errorf("no snapshot found at %s. Run 'axon-context analyze --save' first", root)
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	return pc, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// CLI is the command-line interface definition.
type CLI struct {
	Globals

	Version kong.VersionFlag `help:"Show version information"`

	// Commands
	Analyze    AnalyzeCmd    `cmd:"" help:"Analyze a project and print its summary"`
	Relevant   RelevantCmd   `cmd:"" help:"Rank files by relevance to a task"`
	Tree       TreeCmd       `cmd:"" help:"Show the dependency tree of a file"`
	Dependents DependentsCmd `cmd:"" help:"List the files importing a file"`
	Refresh    RefreshCmd    `cmd:"" help:"Re-analyze files in the saved snapshot"`
	Watch      WatchCmd      `cmd:"" help:"Watch mode with live re-analysis"`
	Serve      ServeCmd      `cmd:"" help:"Start MCP server with optional watch mode"`
	Setup      SetupCmd      `cmd:"" help:"Configure MCP for Claude Code / Cursor / Qwen"`
	Status     StatusCmd     `cmd:"" help:"Show the saved snapshot of the project"`
	Clean      CleanCmd      `cmd:"" help:"Delete the saved snapshot"`
}

// NewCLI creates a new CLI instance.
func NewCLI() *CLI {
	return &CLI{}
}

// Execute parses command-line arguments and executes the selected command.
func (c *CLI) Execute(args []string) error {
	parser, err := kong.New(c,
		kong.Name("axon-context"),
		kong.Description("Context intelligence for coding assistants: dependency graph, churn and relevance ranking"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": Version,
		},
		kong.Writers(c.out(), c.errOut()),
	)
	if err != nil {
		return err
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return kongCtx.Run(&c.Globals)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	if strings.HasSuffix(word, "sh") || strings.HasSuffix(word, "s") {
		return fmt.Sprintf("%d %ses", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
