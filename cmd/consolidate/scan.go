package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/consolidate/internal/progress"
	"github.com/panbanda/consolidate/internal/report"
	"github.com/panbanda/consolidate/internal/service/analysis"
)

// errDuplicatesFound makes --fail-on-duplicates exit non-zero after the report is written.
var errDuplicatesFound = errors.New("duplicate functions found")

func scanCmd() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Aliases:   []string{"dup"},
		Usage:     "Find structurally duplicated functions",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "min-lines",
				Usage: "Minimum function length in lines (default from config)",
			},
			&cli.Float64Flag{
				Name:  "threshold",
				Usage: "Similarity threshold between 0 and 1 (default from config)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Parallel parse workers (default 2x NumCPU)",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Hide the progress bar",
			},
			&cli.BoolFlag{
				Name:  "fail-on-duplicates",
				Usage: "Exit with status 1 when any duplicate group is found",
			},
		},
		Action: runScanCmd,
	}
}

func runScanCmd(c *cli.Context) error {
	if t := c.Float64("threshold"); t < 0 || t > 1 {
		return fmt.Errorf("--threshold must be between 0 and 1, got %g", t)
	}
	if c.Int("min-lines") < 0 {
		return fmt.Errorf("--min-lines must not be negative")
	}

	root, err := filepath.Abs(getPath(c))
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	svc, err := newService(c, root)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := analysis.DuplicatesOptions{
		MinLines:  c.Int("min-lines"),
		Workers:   c.Int("workers"),
	}

	if c.IsSet("threshold") {
		t := c.Float64("threshold")
		opts.Threshold = &t
	}

	var tracker *progress.Tracker
	if !c.Bool("no-progress") {
		tracker = progress.NewTracker("Scanning functions...", os.Stderr)
		opts.Progress = tracker
	}

	result, err := svc.AnalyzeDuplicates(ctx, root, opts)
	if tracker != nil {
		if err != nil {
			tracker.FinishError(err)
		} else {
			tracker.FinishSuccess()
		}
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("scan interrupted")
		}
		return err
	}

	if result.FilesAnalyzed == 0 && len(result.Warnings) == 0 {
		color.Yellow("No source files found")
		return nil
	}

	formatter, err := newFormatter(c, svc.Config())
	if err != nil {
		return err
	}
	defer formatter.Close()

	if err := formatter.Output(report.New(result)); err != nil {
		return err
	}

	if c.Bool("fail-on-duplicates") && len(result.Groups) > 0 {
		return errDuplicatesFound
	}
	return nil
}
