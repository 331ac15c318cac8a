package mcpserver

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"text/template"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/*.md
var promptFiles embed.FS

const fence = "---"

// promptArg is one templated argument a prompt accepts.
type promptArg struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
	Default     string `yaml:"default"`
}

// prompt is a parsed markdown prompt: YAML header plus a text/template body.
type prompt struct {
	Name        string      `yaml:"-"`
	Description string      `yaml:"description"`
	Arguments   []promptArg `yaml:"arguments"`
	body        *template.Template
}

// loadPrompts parses every *.md file in fsys, ordered by name.
func loadPrompts(fsys fs.FS) ([]*prompt, error) {
	files, err := fs.Glob(fsys, "prompts/*.md")
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	out := make([]*prompt, 0, len(files))
	for _, file := range files {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read prompt %s: %w", file, err)
		}
		p, err := parsePrompt(strings.TrimSuffix(path.Base(file), ".md"), data)
		if err != nil {
			return nil, fmt.Errorf("prompt %s: %w", file, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// parsePrompt reads an optional fenced YAML header followed by the body.
// A header that opens but never closes, or fails to decode, is an error.
func parsePrompt(name string, data []byte) (*prompt, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	p := &prompt{Name: name}

	if rest, ok := strings.CutPrefix(text, fence+"\n"); ok {
		header, body, found := strings.Cut(rest, "\n"+fence+"\n")
		if !found {
			return nil, errors.New("unterminated header")
		}
		dec := yaml.NewDecoder(bytes.NewBufferString(header))
		dec.KnownFields(true)
		if err := dec.Decode(p); err != nil {
			return nil, fmt.Errorf("decode header: %w", err)
		}
		text = strings.TrimLeft(body, "\n")
	}

	tmpl, err := template.New(name).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse body: %w", err)
	}
	p.body = tmpl
	return p, nil
}

// render fills the body with args, falling back to declared defaults.
func (p *prompt) render(args map[string]string) (string, error) {
	values := make(map[string]string, len(p.Arguments))
	for _, a := range p.Arguments {
		v, ok := args[a.Name]
		if !ok || v == "" {
			if a.Required {
				return "", fmt.Errorf("missing required argument %q", a.Name)
			}
			v = a.Default
		}
		values[a.Name] = v
	}
	var buf bytes.Buffer
	if err := p.body.Execute(&buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (p *prompt) definition() *mcp.Prompt {
	def := &mcp.Prompt{Name: p.Name, Description: p.Description}
	for _, a := range p.Arguments {
		def.Arguments = append(def.Arguments, &mcp.PromptArgument{
			Name:        a.Name,
			Description: a.Description,
			Required:    a.Required,
		})
	}
	return def
}

func (p *prompt) handler() mcp.PromptHandler {
	return func(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		var args map[string]string
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}
		text, err := p.render(args)
		if err != nil {
			return nil, err
		}
		return &mcp.GetPromptResult{
			Description: p.Description,
			Messages:    []*mcp.PromptMessage{{Role: "user", Content: &mcp.TextContent{Text: text}}},
		}, nil
	}
}

// registerPrompts adds the embedded prompts. They ship with the binary, so a
// parse failure is a build defect.
func (s *Server) registerPrompts() {
	prompts, err := loadPrompts(promptFiles)
	if err != nil {
		panic(err)
	}
	for _, p := range prompts {
		s.server.AddPrompt(p.definition(), p.handler())
	}
}
