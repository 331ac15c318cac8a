package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/consolidate/internal/output"
	"github.com/panbanda/consolidate/internal/service/analysis"
	"github.com/panbanda/consolidate/pkg/config"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "consolidate",
		Usage:   "Find structurally duplicated functions and suggest where to merge them",
		Version: version,
		Description: `consolidate parses every Go and Python file under a directory, normalizes
each function and groups functions whose normalized structure hashes
identically. Parameters and locals are renamed by position. Docstrings,
comments and formatting are ignored. Literals, attribute names and
references to globals are kept, so functions differing in them never match.

For every group it proposes a shared name and module, estimates the lines a
consolidation would save, and ranks the files carrying the most duplication.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"CONSOLIDATE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown, toon (default from config)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Disable the signature cache",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			scanCmd(),
			watchCmd(),
			mcpCmd(),
			configCmd(),
			cacheCmd(),
		},
	}
}

// getPath returns the first positional argument, defaulting to ".".
func getPath(c *cli.Context) string {
	if c.Args().Len() > 0 {
		return c.Args().First()
	}
	return "."
}

func newLogger(c *cli.Context, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads --config, or searches the standard locations under dir.
func loadConfig(c *cli.Context, dir string) (*config.Config, error) {
	res, err := config.LoadConfig(c.String("config"), dir)
	if err != nil {
		return nil, err
	}
	if err := res.Config.Validate(); err != nil {
		return nil, err
	}
	if res.Source != "" {
		newLogger(c, os.Stderr).Debug("loaded config", "source", res.Source)
	}
	return res.Config, nil
}

func newService(c *cli.Context, dir string) (*analysis.Service, error) {
	cfg, err := loadConfig(c, dir)
	if err != nil {
		return nil, err
	}
	opts := []analysis.Option{
		analysis.WithConfig(cfg),
		analysis.WithLogger(newLogger(c, os.Stderr)),
	}
	if c.Bool("no-cache") {
		opts = append(opts, analysis.WithoutCache())
	}
	return analysis.New(opts...), nil
}

// newFormatter honours --format and --output, falling back to the config.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	format := c.String("format")
	if format == "" {
		format = cfg.Output.Format
	}
	if format != "" && !validFormat(format) {
		return nil, fmt.Errorf("unknown format %q", format)
	}
	return output.NewFormatter(output.ParseFormat(format), c.String("output"), cfg.Output.Color)
}

func validFormat(format string) bool {
	return output.ParseFormat(format) != output.FormatText || strings.EqualFold(format, "text")
}
