package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Benny93/axon-context/internal/ingestion"
	"github.com/Benny93/axon-context/mcp"
)

// WatchCmd enables watch mode with live re-analysis.
type WatchCmd struct{}

// Run executes the watch command.
func (c *WatchCmd) Run(g *Globals) error {
	ctx, stop := signalContext()
	defer stop()

	e, cfg, logger, err := g.analyze(ctx)
	if err != nil {
		return err
	}
	pc, err := e.Context()
	if err != nil {
		return err
	}

	fmt.Fprintln(g.out(), "## Watch Mode")
	fmt.Fprintf(g.out(), "Watching %s for changes (Ctrl+C to stop)\n\n", pc.RootPath)

	var refreshed atomic.Int64
	refresh := func(ctx context.Context, rel string) error {
		if err := e.RefreshFile(ctx, rel); err != nil {
			return err
		}
		refreshed.Add(1)
		cyan.Fprintf(g.out(), "↻ %s\n", rel)
		return nil
	}

	err = ingestion.Watch(ctx, pc.RootPath, refresh, ingestion.WatchOptions{
		Ignore: cfg.Ignore,
		Logger: logger,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch error: %w", err)
	}

	fmt.Fprintf(g.out(), "\nWatch mode stopped after %s.\n", plural(int(refreshed.Load()), "refresh"))
	return nil
}

// ServeCmd starts the MCP server with optional watch mode.
type ServeCmd struct {
	Watch    bool `short:"w" help:"Enable file watching"`
	Snapshot bool `help:"Start from the saved snapshot instead of a fresh analysis"`
}

// Run executes the serve command.
func (c *ServeCmd) Run(g *Globals) error {
	ctx, stop := signalContext()
	defer stop()

	load := g.analyze
	if c.Snapshot {
		load = g.restore
	}
	e, cfg, logger, err := load(ctx)
	if err != nil {
		return err
	}

	pc, err := e.Context()
	if err != nil {
		return err
	}

	server := mcp.NewServer(e, logger)

	if !c.Watch {
		fmt.Fprintln(g.errOut(), "Starting MCP server...")
		return ignoreCanceled(server.Run(ctx))
	}

	fmt.Fprintln(g.errOut(), "Starting MCP server with watch mode...")

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return ingestion.Watch(gctx, pc.RootPath, e.RefreshFile, ingestion.WatchOptions{
			Ignore: cfg.Ignore,
			Logger: logger,
			Ready: func() {
				fmt.Fprintln(g.errOut(), "File watching enabled")
			},
		})
	})
	group.Go(func() error {
		err := server.Run(gctx)
		// Client disconnect ends the watcher too.
		stop()
		return err
	})
	return ignoreCanceled(group.Wait())
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
