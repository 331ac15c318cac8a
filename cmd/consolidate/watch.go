package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/consolidate/internal/report"
	"github.com/panbanda/consolidate/internal/service/analysis"
	"github.com/panbanda/consolidate/pkg/watch"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Rescan for duplicates whenever source files change",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watch.DefaultDebounce,
				Usage: "How long changes must settle before rescanning",
			},
			&cli.IntFlag{
				Name:  "min-lines",
				Usage: "Minimum function length in lines (default from config)",
			},
		},
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	root, err := filepath.Abs(getPath(c))
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	svc, err := newService(c, root)
	if err != nil {
		return err
	}

	watcher, err := watch.NewWatcher(root, svc.Config(), c.Duration("debounce"))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()

	opts := analysis.DuplicatesOptions{MinLines: c.Int("min-lines")}
	rescan := func(ctx context.Context) {
		formatter, err := newFormatter(c, svc.Config())
		if err != nil {
			color.Red("Output error: %v", err)
			return
		}
		defer formatter.Close()

		result, err := svc.AnalyzeDuplicates(ctx, root, opts)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				formatter.Error("scan failed: %v", err)
			}
			return
		}
		if err := formatter.Output(report.New(result)); err != nil {
			color.Red("Output error: %v", err)
		}
	}

	watcher.SetCallback(func(ctx context.Context, _ []string) {
		rescan(ctx)
	})

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rescan(ctx)

	if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Println("\nStopping watch...")
	return nil
}
