// Package mcpserver exposes duplicate detection as Model Context Protocol tools.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/consolidate/internal/service/analysis"
)

// Server wraps the MCP server and registers the consolidate tools.
type Server struct {
	server   *mcp.Server
	analysis *analysis.Service
}

// NewServer creates a new MCP server. A nil svc uses the default configuration.
func NewServer(version string, svc *analysis.Service) *Server {
	if version == "" {
		version = "dev"
	}
	if svc == nil {
		svc = analysis.New()
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "consolidate",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, analysis: svc}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_duplicates",
		Description: describeFindDuplicates(),
	}, s.handleFindDuplicates)
}
