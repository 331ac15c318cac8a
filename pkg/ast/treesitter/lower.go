package treesitter

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/consolidate/pkg/ast"
)

// lowerer holds the state shared by the per-language lowerings.
type lowerer struct {
	src      []byte
	path     string
	maxDepth int
	depth    int
	err      error
}

func (l *lowerer) text(n *sitter.Node) string {
	return nodeText(n, l.src)
}

func (l *lowerer) span(n *sitter.Node) ast.Span {
	return ast.Span{
		StartLine: int(n.StartPoint().Row) + 1,
		EndLine:   int(n.EndPoint().Row) + 1,
	}
}

// enter increments the nesting depth and reports whether lowering may continue.
// Every successful enter must be paired with leave.
func (l *lowerer) enter(n *sitter.Node) bool {
	if l.err != nil {
		return false
	}
	l.depth++
	if l.depth > l.maxDepth {
		l.depth--
		l.err = &ast.ParseError{
			Path: l.path,
			Line: int(n.StartPoint().Row) + 1,
			Err:  ast.ErrTooDeep,
		}
		return false
	}
	return true
}

func (l *lowerer) leave() {
	l.depth--
}

// named returns the named children of n, comments excluded.
func named(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := range count {
		c := n.NamedChild(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// hasToken reports whether n has a direct anonymous child with the given text.
func hasToken(n *sitter.Node, tok string) bool {
	for i := range int(n.ChildCount()) {
		c := n.Child(i)
		if !c.IsNamed() && c.Type() == tok {
			return true
		}
	}
	return false
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// collapse normalizes runs of whitespace to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripQuotes removes a literal's prefix letters and its quote delimiters.
func stripQuotes(s string) (prefix, body string) {
	i := strings.IndexAny(s, "'\"`")
	if i < 0 {
		return "", s
	}
	prefix, body = s[:i], s[i:]
	for _, q := range []string{`"""`, `'''`, `"`, `'`, "`"} {
		if len(body) >= 2*len(q) && strings.HasPrefix(body, q) && strings.HasSuffix(body, q) {
			return prefix, body[len(q) : len(body)-len(q)]
		}
	}
	return prefix, body
}

// generic keeps an unmodeled construct. Leaves retain their text; inner
// nodes keep their lowered named children.
func (l *lowerer) generic(n *sitter.Node, lower func(*sitter.Node) ast.Node) ast.Node {
	g := &ast.Generic{Span: l.span(n), Type: n.Type()}
	kids := named(n)
	if len(kids) == 0 {
		g.Text = collapse(l.text(n))
		return g
	}
	for _, c := range kids {
		if x := lower(c); x != nil {
			g.Children = append(g.Children, x)
		}
	}
	return g
}

func (l *lowerer) typeRef(n *sitter.Node) ast.Node {
	if n == nil {
		return nil
	}
	return &ast.TypeRef{Span: l.span(n), Text: collapse(l.text(n))}
}
