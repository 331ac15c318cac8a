package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/consolidate/internal/output"
	"github.com/panbanda/consolidate/internal/report"
	"github.com/panbanda/consolidate/internal/service/analysis"
	"github.com/panbanda/consolidate/pkg/analyzer/duplicates"
)

// FindDuplicatesInput is the input of the find_duplicates tool.
type FindDuplicatesInput struct {
	Path      string  `json:"path,omitempty" jsonschema:"Directory to analyze. Defaults to the current directory."`
	MinLines  int     `json:"min_lines,omitempty" jsonschema:"Minimum function length in lines. Defaults to the configured value (5)."`
	Threshold *float64 `json:"threshold,omitempty" jsonschema:"Similarity threshold (0.0-1.0). Groups are exact, so any value up to 1.0 keeps them all."`
	Format    string  `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

func (s *Server) handleFindDuplicates(ctx context.Context, _ *mcp.CallToolRequest, input FindDuplicatesInput) (*mcp.CallToolResult, any, error) {
	root := input.Path
	if root == "" {
		root = "."
	}
	if t := input.Threshold; t != nil && (*t < 0 || *t > 1) {
		return toolError("threshold must be between 0 and 1")
	}
	if input.MinLines < 0 {
		return toolError("min_lines must not be negative")
	}

	result, err := s.analysis.AnalyzeDuplicates(ctx, root, analysis.DuplicatesOptions{
		MinLines:  input.MinLines,
		Threshold: input.Threshold,
	})
	if err != nil {
		var re *duplicates.RootError
		if errors.As(err, &re) {
			return toolError(re.Error())
		}
		return nil, nil, err
	}

	return toolResult(report.New(result), getFormat(input.Format))
}

func getFormat(format string) output.Format {
	switch f := output.ParseFormat(format); f {
	case output.FormatJSON, output.FormatMarkdown:
		return f
	default:
		return output.FormatTOON
	}
}

func formatOutput(r output.Renderable, format output.Format) (string, error) {
	switch format {
	case output.FormatJSON:
		out, err := json.MarshalIndent(r.RenderData(), "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil
	case output.FormatMarkdown:
		var buf bytes.Buffer
		if err := r.RenderMarkdown(&buf); err != nil {
			return "", err
		}
		return buf.String(), nil
	default:
		return output.MarshalTOON(r.RenderData())
	}
}

func toolResult(r output.Renderable, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(r, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}
