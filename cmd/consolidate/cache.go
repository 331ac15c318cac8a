package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/consolidate/internal/output"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the signature cache",
		Subcommands: []*cli.Command{
			{
				Name:      "stats",
				Usage:     "Show signature cache statistics",
				ArgsUsage: "[path]",
				Action:    runCacheStatsCmd,
			},
			{
				Name:      "clear",
				Usage:     "Delete every cached signature",
				ArgsUsage: "[path]",
				Action:    runCacheClearCmd,
			},
		},
	}
}

func runCacheStatsCmd(c *cli.Context) error {
	root, err := filepath.Abs(getPath(c))
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	svc, err := newService(c, root)
	if err != nil {
		return err
	}

	sc, err := svc.OpenCache(root)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	stats, err := sc.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	w := c.App.Writer
	f := output.NewWriterFormatter(output.FormatText, w, svc.Config().Output.Color)
	f.Info("Directory: %s", sc.Dir())
	if !svc.Config().Cache.Enabled {
		f.Warning("caching is disabled in the configuration")
	}
	fmt.Fprintf(w, "Entries:   %d\n", stats.Entries)
	fmt.Fprintf(w, "Size:      %d bytes\n", stats.TotalSize)
	if stats.Entries > 0 {
		fmt.Fprintf(w, "Oldest:    %s\n", stats.OldestAge.Round(time.Second))
		fmt.Fprintf(w, "Newest:    %s\n", stats.NewestAge.Round(time.Second))
	}
	return nil
}

func runCacheClearCmd(c *cli.Context) error {
	root, err := filepath.Abs(getPath(c))
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	svc, err := newService(c, root)
	if err != nil {
		return err
	}

	sc, err := svc.OpenCache(root)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	if err := sc.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	output.NewWriterFormatter(output.FormatText, c.App.Writer, svc.Config().Output.Color).Success("Cleared %s", sc.Dir())
	return nil
}
