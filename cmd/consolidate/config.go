package main

import (
	"fmt"

	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/panbanda/consolidate/internal/output"
	"github.com/panbanda/consolidate/pkg/config"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Subcommands: []*cli.Command{
			{
				Name:  "validate",
				Usage: "Validate a configuration file",
				Description: `Validates a consolidate configuration file for syntax errors and invalid values.

Examples:
  consolidate config validate                         # Validates default config locations
  consolidate -c consolidate.toml config validate     # Validates a specific file`,
				Action: runConfigValidateCmd,
			},
			{
				Name:  "show",
				Usage: "Show the effective configuration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "as",
						Value: "toml",
						Usage: "Encoding: toml or yaml",
					},
				},
				Action: runConfigShowCmd,
			},
		},
	}
}

func runConfigValidateCmd(c *cli.Context) error {
	f := output.NewWriterFormatter(output.FormatText, c.App.Writer, true)

	result, err := config.LoadConfig(c.String("config"), ".")
	if err == nil {
		err = result.Config.Validate()
	}
	if err != nil {
		f.Error("configuration validation failed: %v", err)
		return err
	}

	if result.Source != "" {
		f.Success("Configuration valid: %s", result.Source)
	} else {
		f.Warning("no config file found, default configuration is valid")
	}
	return nil
}

func runConfigShowCmd(c *cli.Context) error {
	result, err := config.LoadConfig(c.String("config"), ".")
	if err != nil {
		return err
	}

	var content []byte
	switch c.String("as") {
	case "toml":
		content, err = toml.Marshal(result.Config)
	case "yaml", "yml":
		content, err = yaml.Marshal(result.Config)
	default:
		return fmt.Errorf("unknown encoding %q", c.String("as"))
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if result.Source != "" {
		fmt.Fprintf(c.App.Writer, "# Configuration from: %s\n\n", result.Source)
	} else {
		fmt.Fprintln(c.App.Writer, "# Default configuration (no config file found)")
	}
	fmt.Fprint(c.App.Writer, string(content))
	return nil
}
