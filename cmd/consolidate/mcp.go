package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/consolidate/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes duplicate detection
as a tool LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "consolidate": {
        "command": "consolidate",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - find_duplicates    Structurally identical functions with merge suggestions

Available prompts:
  - consolidate-duplicates    Walk through merging the largest duplicate groups`,
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:   "manifest",
				Usage:  "Print the MCP registry server.json manifest",
				Action: runMCPManifestCmd,
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	// stdout carries the protocol, so logs go to stderr only.
	svc, err := newService(c, ".")
	if err != nil {
		return err
	}
	return mcpserver.NewServer(version, svc).Run(c.Context)
}

func runMCPManifestCmd(c *cli.Context) error {
	data, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return fmt.Errorf("failed to generate manifest: %w", err)
	}
	_, err = fmt.Fprintln(c.App.Writer, string(data))
	return err
}
