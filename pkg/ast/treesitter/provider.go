package treesitter

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/consolidate/pkg/ast"
)

// DefaultMaxDepth bounds how deeply nested a tree may be before lowering gives up.
const DefaultMaxDepth = 1000

// Provider implements ast.Parser using tree-sitter.
type Provider struct {
	parser   *sitter.Parser
	maxDepth int
}

// Option configures a Provider.
type Option func(*Provider)

// WithMaxDepth sets the nesting limit used while lowering.
func WithMaxDepth(depth int) Option {
	return func(p *Provider) {
		if depth > 0 {
			p.maxDepth = depth
		}
	}
}

// New creates a new tree-sitter based provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		parser:   sitter.NewParser(),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse lowers src into an ast.File. Source with syntax errors is rejected
// as a whole rather than partially lowered.
func (p *Provider) Parse(path string, src []byte) (*ast.File, error) {
	lang := ast.LanguageOf(path)
	if lang == ast.LangUnknown {
		return nil, &ast.ParseError{Path: path, Err: ast.ErrUnsupportedLanguage}
	}

	tree, err := parseTree(p.parser, lang, src)
	if err != nil {
		return nil, &ast.ParseError{Path: path, Err: err}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, &ast.ParseError{Path: path, Line: firstErrorLine(root), Err: ast.ErrSyntax}
	}

	base := &lowerer{src: src, path: path, maxDepth: p.maxDepth}
	file := &ast.File{Path: path, Language: lang}
	switch lang {
	case ast.LangPython:
		file.Body = (&pyLowerer{base}).module(root)
	case ast.LangGo:
		file.Body = (&goLowerer{base}).sourceFile(root)
	}
	if base.err != nil {
		return nil, base.err
	}
	return file, nil
}

// Language returns the detected language for a file path.
func (p *Provider) Language(path string) ast.Language {
	return ast.LanguageOf(path)
}

// Close releases parser resources.
func (p *Provider) Close() {
	p.parser.Close()
}
