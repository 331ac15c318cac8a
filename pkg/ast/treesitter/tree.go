package treesitter

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/panbanda/consolidate/pkg/ast"
)

func grammar(lang ast.Language) (*sitter.Language, error) {
	switch lang {
	case ast.LangGo:
		return golang.GetLanguage(), nil
	case ast.LangPython:
		return python.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ast.ErrUnsupportedLanguage, lang)
	}
}

// parseTree runs the grammar for lang over src. The caller closes the tree.
func parseTree(p *sitter.Parser, lang ast.Language, src []byte) (*sitter.Tree, error) {
	g, err := grammar(lang)
	if err != nil {
		return nil, err
	}
	p.SetLanguage(g)
	tree, err := p.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter: %w", err)
	}
	return tree, nil
}

// walk visits n and its descendants in pre-order. Returning false from visit
// prunes the subtree.
func walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil {
		return
	}
	stack := []*sitter.Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(cur) {
			continue
		}
		// Reverse push keeps pre-order, left to right.
		for i := int(cur.ChildCount()) - 1; i >= 0; i-- {
			if c := cur.Child(i); c != nil {
				stack = append(stack, c)
			}
		}
	}
}

// firstErrorLine returns the 1-based line of the first ERROR or MISSING node
// under root, or 0 if the tree is clean.
func firstErrorLine(root *sitter.Node) int {
	if root == nil || !root.HasError() {
		return 0
	}
	line := 0
	walk(root, func(n *sitter.Node) bool {
		if line > 0 {
			return false
		}
		if n.IsError() || n.IsMissing() {
			line = int(n.StartPoint().Row) + 1
			return false
		}
		return n.HasError()
	})
	if line == 0 {
		line = int(root.StartPoint().Row) + 1
	}
	return line
}

// nodeText is the source slice n covers, or "" when n is nil or its offsets
// fall outside src.
func nodeText(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	start, end := n.StartByte(), n.EndByte()
	if start > end || end > uint32(len(src)) {
		return ""
	}
	return string(src[start:end])
}
