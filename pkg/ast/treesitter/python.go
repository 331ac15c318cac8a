package treesitter

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/consolidate/pkg/ast"
)

type pyLowerer struct {
	*lowerer
}

func (p *pyLowerer) module(root *sitter.Node) []ast.Node {
	return p.stmts(named(root))
}

func (p *pyLowerer) stmts(nodes []*sitter.Node) []ast.Node {
	var out []ast.Node
	for _, n := range nodes {
		if s := p.stmt(n); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (p *pyLowerer) block(n *sitter.Node) []ast.Node {
	if n == nil {
		return nil
	}
	if n.Type() != "block" {
		return p.stmts([]*sitter.Node{n})
	}
	return p.stmts(named(n))
}

// body lowers a function or class body and splits off its docstring.
func (p *pyLowerer) body(n *sitter.Node) ([]ast.Node, string) {
	if n == nil {
		return nil, ""
	}
	kids := named(n)
	doc := ""
	if len(kids) > 0 && kids[0].Type() == "expression_statement" {
		inner := named(kids[0])
		if len(inner) == 1 && isPlainString(inner[0]) {
			_, doc = stripQuotes(p.text(inner[0]))
			kids = kids[1:]
		}
	}
	return p.stmts(kids), doc
}

func isPlainString(n *sitter.Node) bool {
	switch n.Type() {
	case "string":
		for _, c := range named(n) {
			if c.Type() == "interpolation" {
				return false
			}
		}
		return true
	case "concatenated_string":
		for _, c := range named(n) {
			if !isPlainString(c) {
				return false
			}
		}
		return true
	}
	return false
}

func (p *pyLowerer) stmt(n *sitter.Node) ast.Node {
	if n == nil || !p.enter(n) {
		return nil
	}
	defer p.leave()

	sp := p.span(n)
	switch n.Type() {
	case "expression_statement":
		kids := named(n)
		if len(kids) == 1 {
			switch kids[0].Type() {
			case "assignment":
				return p.assignment(kids[0])
			case "augmented_assignment":
				return p.augAssignment(kids[0])
			}
			return &ast.ExprStmt{Span: sp, X: p.expr(kids[0])}
		}
		return &ast.ExprStmt{Span: sp, X: p.tuple(n, kids, ast.CollTuple)}

	case "function_definition":
		return p.function(n, nil)
	case "class_definition":
		return p.class(n, nil)
	case "decorated_definition":
		return p.decorated(n)

	case "return_statement":
		r := &ast.Return{Span: sp}
		for _, c := range named(n) {
			if v := p.expr(c); v != nil {
				r.Values = append(r.Values, v)
			}
		}
		return r

	case "if_statement":
		return p.ifStmt(n)

	case "for_statement":
		f := &ast.For{
			Span:   sp,
			Async:  hasToken(n, "async"),
			Target: p.expr(n.ChildByFieldName("left")),
			Iter:   p.expr(n.ChildByFieldName("right")),
			Binds:  true,
			Body:   p.block(n.ChildByFieldName("body")),
		}
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			f.Else = p.block(alt.ChildByFieldName("body"))
		}
		return f

	case "while_statement":
		w := &ast.While{
			Span: sp,
			Cond: p.expr(n.ChildByFieldName("condition")),
			Body: p.block(n.ChildByFieldName("body")),
		}
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			w.Else = p.block(alt.ChildByFieldName("body"))
		}
		return w

	case "try_statement":
		return p.tryStmt(n)

	case "with_statement":
		return p.withStmt(n)

	case "raise_statement":
		r := &ast.Raise{Span: sp}
		cause := n.ChildByFieldName("cause")
		for _, c := range named(n) {
			if sameNode(c, cause) {
				continue
			}
			if r.Exc == nil {
				r.Exc = p.expr(c)
			}
		}
		r.Cause = p.expr(cause)
		return r

	case "pass_statement":
		return &ast.Branch{Span: sp, Keyword: "pass"}
	case "break_statement":
		return &ast.Branch{Span: sp, Keyword: "break"}
	case "continue_statement":
		return &ast.Branch{Span: sp, Keyword: "continue"}

	case "global_statement", "nonlocal_statement":
		g := &ast.Global{Span: sp, Nonlocal: n.Type() == "nonlocal_statement"}
		for _, c := range named(n) {
			g.Names = append(g.Names, p.text(c))
		}
		return g

	case "delete_statement":
		d := &ast.Delete{Span: sp}
		for _, c := range named(n) {
			d.Targets = append(d.Targets, p.elements(c)...)
		}
		return d

	case "assert_statement":
		a := &ast.Assert{Span: sp}
		kids := named(n)
		if len(kids) > 0 {
			a.Test = p.expr(kids[0])
		}
		if len(kids) > 1 {
			a.Msg = p.expr(kids[1])
		}
		return a

	case "import_statement", "import_from_statement", "future_import_statement":
		return &ast.Import{Span: sp, Text: collapse(p.text(n))}

	case "match_statement":
		return p.matchStmt(n)

	case "block":
		return p.generic(n, p.stmt)
	}

	return p.generic(n, p.expr)
}

// matchStmt lowers match/case into a Switch whose case values are patterns.
func (p *pyLowerer) matchStmt(n *sitter.Node) ast.Node {
	s := &ast.Switch{Span: p.span(n)}
	body := n.ChildByFieldName("body")
	var subjects []ast.Node
	for _, c := range named(n) {
		if sameNode(c, body) {
			continue
		}
		if x := p.expr(c); x != nil {
			subjects = append(subjects, x)
		}
	}
	switch len(subjects) {
	case 0:
	case 1:
		s.Tag = subjects[0]
	default:
		s.Tag = &ast.Collection{Span: p.span(n), Kind: ast.CollTuple, Elts: subjects}
	}
	if body == nil {
		return s
	}
	for _, c := range named(body) {
		if c.Type() != "case_clause" {
			continue
		}
		if cs := p.caseClause(c); cs != nil {
			s.Cases = append(s.Cases, cs)
		}
	}
	return s
}

func (p *pyLowerer) caseClause(n *sitter.Node) *ast.Case {
	if !p.enter(n) {
		return nil
	}
	defer p.leave()

	cs := &ast.Case{Span: p.span(n)}
	consequence := n.ChildByFieldName("consequence")
	for _, c := range named(n) {
		switch {
		case sameNode(c, consequence):
		case c.Type() == "if_clause":
			g := &ast.Generic{Span: p.span(c), Type: "guard"}
			for _, k := range named(c) {
				if x := p.expr(k); x != nil {
					g.Children = append(g.Children, x)
				}
			}
			cs.Values = append(cs.Values, g)
		default:
			if x := p.pattern(c); x != nil {
				cs.Values = append(cs.Values, x)
			}
		}
	}
	cs.Body = p.block(consequence)
	return cs
}

// pattern lowers a case pattern. Bare names in capture position bind; dotted
// value patterns, class names and keyword names stay verbatim.
func (p *pyLowerer) pattern(n *sitter.Node) ast.Node {
	if n == nil || !p.enter(n) {
		return nil
	}
	defer p.leave()

	switch n.Type() {
	case "case_pattern", "splat_pattern", "as_pattern":
		g := &ast.Generic{Span: p.span(n), Type: n.Type()}
		for _, c := range named(n) {
			var x ast.Node
			if isCapture(c) {
				x = p.capture(c)
			} else {
				x = p.pattern(c)
			}
			if x != nil {
				g.Children = append(g.Children, x)
			}
		}
		if n.Type() == "case_pattern" && len(g.Children) == 1 {
			return g.Children[0]
		}
		return g

	case "keyword_pattern":
		kids := named(n)
		if len(kids) == 2 && kids[0].Type() == "identifier" {
			kw := &ast.Keyword{Span: p.span(n), Name: p.text(kids[0])}
			if isCapture(kids[1]) {
				kw.Value = p.capture(kids[1])
			} else {
				kw.Value = p.pattern(kids[1])
			}
			return kw
		}
	}
	return p.generic(n, p.pattern)
}

// isCapture reports whether a pattern child is a single bare name.
func isCapture(n *sitter.Node) bool {
	switch n.Type() {
	case "identifier":
		return true
	case "dotted_name":
		kids := named(n)
		return len(kids) == 1 && kids[0].Type() == "identifier"
	}
	return false
}

func (p *pyLowerer) capture(n *sitter.Node) ast.Node {
	name := p.text(n)
	if name == "_" {
		return &ast.Generic{Span: p.span(n), Type: "wildcard", Text: "_"}
	}
	sp := p.span(n)
	return &ast.Assign{Span: sp, Op: "capture", Targets: []ast.Node{&ast.Name{Span: sp, ID: name}}, Binds: true}
}

func (p *pyLowerer) decorated(n *sitter.Node) ast.Node {
	var decorators []ast.Node
	for _, c := range named(n) {
		if c.Type() == "decorator" {
			for _, d := range named(c) {
				if x := p.expr(d); x != nil {
					decorators = append(decorators, x)
				}
			}
		}
	}
	def := n.ChildByFieldName("definition")
	if def == nil {
		return p.generic(n, p.expr)
	}
	switch def.Type() {
	case "function_definition":
		return p.function(def, decorators)
	case "class_definition":
		return p.class(def, decorators)
	}
	return p.generic(n, p.expr)
}

func (p *pyLowerer) function(n *sitter.Node, decorators []ast.Node) ast.Node {
	fn := &ast.FunctionDef{
		Span:       p.span(n),
		Name:       p.text(n.ChildByFieldName("name")),
		Async:      hasToken(n, "async"),
		Decorators: decorators,
		Params:     p.params(n.ChildByFieldName("parameters")),
		Returns:    p.expr(n.ChildByFieldName("return_type")),
	}
	fn.Body, fn.Doc = p.body(n.ChildByFieldName("body"))
	return fn
}

func (p *pyLowerer) class(n *sitter.Node, decorators []ast.Node) ast.Node {
	c := &ast.ClassDef{
		Span:       p.span(n),
		Name:       p.text(n.ChildByFieldName("name")),
		Decorators: decorators,
	}
	if sup := n.ChildByFieldName("superclasses"); sup != nil {
		c.Bases = p.args(sup)
	}
	c.Body, _ = p.body(n.ChildByFieldName("body"))
	return c
}

func (p *pyLowerer) params(n *sitter.Node) []*ast.Param {
	var out []*ast.Param
	for _, c := range named(n) {
		if prm := p.param(c); prm != nil {
			out = append(out, prm)
		}
	}
	return out
}

func (p *pyLowerer) param(n *sitter.Node) *ast.Param {
	if !p.enter(n) {
		return nil
	}
	defer p.leave()

	prm := &ast.Param{Span: p.span(n), Kind: ast.ParamPlain}
	switch n.Type() {
	case "identifier":
		prm.Name = p.text(n)
	case "default_parameter":
		prm.Name = p.text(n.ChildByFieldName("name"))
		prm.Default = p.expr(n.ChildByFieldName("value"))
	case "typed_default_parameter":
		prm.Name = p.text(n.ChildByFieldName("name"))
		prm.Annotation = p.expr(n.ChildByFieldName("type"))
		prm.Default = p.expr(n.ChildByFieldName("value"))
	case "typed_parameter":
		typ := n.ChildByFieldName("type")
		for _, c := range named(n) {
			if sameNode(c, typ) {
				continue
			}
			if inner := p.param(c); inner != nil {
				prm.Name, prm.Kind = inner.Name, inner.Kind
			}
			break
		}
		prm.Annotation = p.expr(typ)
	case "list_splat_pattern":
		prm.Kind = ast.ParamVarArgs
		prm.Name = p.splatName(n)
	case "dictionary_splat_pattern":
		prm.Kind = ast.ParamKwArgs
		prm.Name = p.splatName(n)
	case "keyword_separator":
		prm.Kind = ast.ParamKwOnlySep
	case "positional_separator":
		prm.Kind = ast.ParamPosOnlySep
	default:
		prm.Name = collapse(p.text(n))
	}
	return prm
}

func (p *pyLowerer) splatName(n *sitter.Node) string {
	if kids := named(n); len(kids) > 0 {
		return p.text(kids[0])
	}
	return ""
}

func (p *pyLowerer) ifStmt(n *sitter.Node) ast.Node {
	root := &ast.If{
		Span: p.span(n),
		Cond: p.expr(n.ChildByFieldName("condition")),
		Body: p.block(n.ChildByFieldName("consequence")),
	}
	tail := root
	for _, c := range named(n) {
		switch c.Type() {
		case "elif_clause":
			elif := &ast.If{
				Span: p.span(c),
				Cond: p.expr(c.ChildByFieldName("condition")),
				Body: p.block(c.ChildByFieldName("consequence")),
			}
			tail.Else = []ast.Node{elif}
			tail = elif
		case "else_clause":
			tail.Else = p.block(c.ChildByFieldName("body"))
		}
	}
	return root
}

func (p *pyLowerer) tryStmt(n *sitter.Node) ast.Node {
	t := &ast.Try{Span: p.span(n), Body: p.block(n.ChildByFieldName("body"))}
	for _, c := range named(n) {
		switch c.Type() {
		case "except_clause", "except_group_clause":
			if h := p.handler(c); h != nil {
				t.Handlers = append(t.Handlers, h)
			}
		case "else_clause":
			t.Else = p.block(c.ChildByFieldName("body"))
		case "finally_clause":
			for _, b := range named(c) {
				if b.Type() == "block" {
					t.Finally = p.block(b)
				}
			}
		}
	}
	return t
}

func (p *pyLowerer) handler(n *sitter.Node) *ast.Handler {
	if !p.enter(n) {
		return nil
	}
	defer p.leave()

	h := &ast.Handler{Span: p.span(n)}
	var exprs []*sitter.Node
	for _, c := range named(n) {
		if c.Type() == "block" {
			h.Body = p.block(c)
			continue
		}
		exprs = append(exprs, c)
	}
	if len(exprs) == 1 && exprs[0].Type() == "as_pattern" {
		h.Type, h.Target = p.asPattern(exprs[0])
		return h
	}
	if len(exprs) > 0 {
		h.Type = p.expr(exprs[0])
	}
	if len(exprs) > 1 {
		h.Target = p.expr(exprs[1])
	}
	return h
}

// asPattern splits "expr as target" into its two halves.
func (p *pyLowerer) asPattern(n *sitter.Node) (value, target ast.Node) {
	alias := n.ChildByFieldName("alias")
	for _, c := range named(n) {
		if sameNode(c, alias) {
			continue
		}
		value = p.expr(c)
		break
	}
	if alias != nil {
		if alias.Type() == "as_pattern_target" {
			if kids := named(alias); len(kids) > 0 {
				alias = kids[0]
			}
		}
		target = p.expr(alias)
	}
	return value, target
}

func (p *pyLowerer) withStmt(n *sitter.Node) ast.Node {
	w := &ast.With{
		Span:  p.span(n),
		Async: hasToken(n, "async"),
		Body:  p.block(n.ChildByFieldName("body")),
	}
	var items []*sitter.Node
	for _, c := range named(n) {
		if c.Type() == "with_clause" {
			for _, it := range named(c) {
				if it.Type() == "with_item" {
					items = append(items, it)
				}
			}
		}
	}
	for _, it := range items {
		wi := &ast.WithItem{Span: p.span(it)}
		value := it.ChildByFieldName("value")
		if value != nil && value.Type() == "as_pattern" {
			wi.Context, wi.Target = p.asPattern(value)
		} else {
			wi.Context = p.expr(value)
			wi.Target = p.expr(it.ChildByFieldName("alias"))
		}
		w.Items = append(w.Items, wi)
	}
	return w
}

// assignment flattens chained assignments into one Assign with several targets.
func (p *pyLowerer) assignment(n *sitter.Node) ast.Node {
	a := &ast.Assign{Span: p.span(n), Op: "=", Binds: true}
	cur := n
	for {
		a.Targets = append(a.Targets, p.expr(cur.ChildByFieldName("left")))
		if typ := cur.ChildByFieldName("type"); typ != nil && a.Annotation == nil {
			a.Annotation = p.expr(typ)
		}
		right := cur.ChildByFieldName("right")
		if right == nil {
			if a.Annotation != nil && len(a.Targets) == 1 {
				a.Op = ":"
			}
			return a
		}
		if right.Type() != "assignment" {
			a.Values = []ast.Node{p.expr(right)}
			return a
		}
		cur = right
	}
}

func (p *pyLowerer) augAssignment(n *sitter.Node) ast.Node {
	return &ast.Assign{
		Span:    p.span(n),
		Op:      p.text(n.ChildByFieldName("operator")),
		Targets: []ast.Node{p.expr(n.ChildByFieldName("left"))},
		Values:  []ast.Node{p.expr(n.ChildByFieldName("right"))},
		Binds:   true,
	}
}

// elements unpacks a comma list into its items; anything else is one item.
func (p *pyLowerer) elements(n *sitter.Node) []ast.Node {
	switch n.Type() {
	case "expression_list", "pattern_list":
		var out []ast.Node
		for _, c := range named(n) {
			if x := p.expr(c); x != nil {
				out = append(out, x)
			}
		}
		return out
	}
	if x := p.expr(n); x != nil {
		return []ast.Node{x}
	}
	return nil
}

func (p *pyLowerer) tuple(n *sitter.Node, kids []*sitter.Node, kind ast.CollectionKind) ast.Node {
	c := &ast.Collection{Span: p.span(n), Kind: kind}
	for _, k := range kids {
		if x := p.expr(k); x != nil {
			c.Elts = append(c.Elts, x)
		}
	}
	return c
}

func (p *pyLowerer) args(n *sitter.Node) []ast.Node {
	var out []ast.Node
	for _, c := range named(n) {
		if x := p.expr(c); x != nil {
			out = append(out, x)
		}
	}
	return out
}

func (p *pyLowerer) expr(n *sitter.Node) ast.Node {
	if n == nil || !p.enter(n) {
		return nil
	}
	defer p.leave()

	sp := p.span(n)
	switch n.Type() {
	case "identifier", "keyword_identifier":
		return &ast.Name{Span: sp, ID: p.text(n)}

	case "integer", "float":
		text := p.text(n)
		kind := ast.ConstInt
		if n.Type() == "float" {
			kind = ast.ConstFloat
		}
		if strings.HasSuffix(text, "j") || strings.HasSuffix(text, "J") {
			kind = ast.ConstImag
		}
		return &ast.Constant{Span: sp, Kind: kind, Value: text}

	case "string":
		return p.str(n)

	case "concatenated_string":
		return p.concatenated(n)

	case "true", "false":
		return &ast.Constant{Span: sp, Kind: ast.ConstBool, Value: p.text(n)}
	case "none":
		return &ast.Constant{Span: sp, Kind: ast.ConstNone, Value: "None"}

	case "attribute":
		return &ast.Attribute{
			Span: sp,
			X:    p.expr(n.ChildByFieldName("object")),
			Attr: p.text(n.ChildByFieldName("attribute")),
		}

	case "subscript":
		value := n.ChildByFieldName("value")
		var idx []*sitter.Node
		for _, c := range named(n) {
			if !sameNode(c, value) {
				idx = append(idx, c)
			}
		}
		s := &ast.Subscript{Span: sp, X: p.expr(value)}
		if len(idx) == 1 {
			s.Index = p.expr(idx[0])
		} else if len(idx) > 1 {
			s.Index = p.tuple(n, idx, ast.CollTuple)
		}
		return s

	case "slice":
		s := &ast.Slice{Span: sp}
		pos := 0
		for i := range int(n.ChildCount()) {
			c := n.Child(i)
			if !c.IsNamed() {
				if c.Type() == ":" {
					pos++
				}
				continue
			}
			if c.Type() == "comment" {
				continue
			}
			switch pos {
			case 0:
				s.Lo = p.expr(c)
			case 1:
				s.Hi = p.expr(c)
			default:
				s.Step = p.expr(c)
			}
		}
		return s

	case "call":
		call := &ast.Call{Span: sp, Func: p.expr(n.ChildByFieldName("function"))}
		if args := n.ChildByFieldName("arguments"); args != nil {
			if args.Type() == "argument_list" {
				call.Args = p.args(args)
			} else if x := p.expr(args); x != nil {
				call.Args = []ast.Node{x}
			}
		}
		return call

	case "keyword_argument":
		return &ast.Keyword{
			Span:  sp,
			Name:  p.text(n.ChildByFieldName("name")),
			Value: p.expr(n.ChildByFieldName("value")),
		}

	case "list_splat", "list_splat_pattern", "dictionary_splat", "dictionary_splat_pattern":
		s := &ast.Starred{Span: sp, Double: strings.HasPrefix(n.Type(), "dictionary")}
		if kids := named(n); len(kids) > 0 {
			s.X = p.expr(kids[0])
		}
		return s

	case "binary_operator", "boolean_operator":
		return &ast.BinOp{
			Span: sp,
			Op:   p.text(n.ChildByFieldName("operator")),
			L:    p.expr(n.ChildByFieldName("left")),
			R:    p.expr(n.ChildByFieldName("right")),
		}

	case "unary_operator":
		return &ast.UnaryOp{
			Span: sp,
			Op:   p.text(n.ChildByFieldName("operator")),
			X:    p.expr(n.ChildByFieldName("argument")),
		}

	case "not_operator":
		return &ast.UnaryOp{Span: sp, Op: "not", X: p.expr(n.ChildByFieldName("argument"))}

	case "comparison_operator":
		return p.comparison(n)

	case "conditional_expression":
		kids := named(n)
		if len(kids) != 3 {
			return p.generic(n, p.expr)
		}
		return &ast.IfExp{Span: sp, Then: p.expr(kids[0]), Cond: p.expr(kids[1]), Else: p.expr(kids[2])}

	case "named_expression":
		return &ast.Assign{
			Span:    sp,
			Op:      ":=",
			Targets: []ast.Node{p.expr(n.ChildByFieldName("name"))},
			Values:  []ast.Node{p.expr(n.ChildByFieldName("value"))},
			Binds:   true,
		}

	case "list", "list_pattern":
		return p.tuple(n, named(n), ast.CollList)
	case "tuple", "tuple_pattern", "expression_list", "pattern_list":
		return p.tuple(n, named(n), ast.CollTuple)
	case "set":
		return p.tuple(n, named(n), ast.CollSet)
	case "dictionary":
		return p.tuple(n, named(n), ast.CollDict)

	case "pair":
		return &ast.Pair{
			Span:  sp,
			Key:   p.expr(n.ChildByFieldName("key")),
			Value: p.expr(n.ChildByFieldName("value")),
		}

	case "parenthesized_expression", "type":
		if kids := named(n); len(kids) == 1 {
			return p.expr(kids[0])
		}
		return p.generic(n, p.expr)

	case "lambda":
		return &ast.Lambda{
			Span:   sp,
			Params: p.params(n.ChildByFieldName("parameters")),
			Body:   p.expr(n.ChildByFieldName("body")),
		}

	case "list_comprehension":
		return p.comprehension(n, ast.CollList)
	case "set_comprehension":
		return p.comprehension(n, ast.CollSet)
	case "dictionary_comprehension":
		return p.comprehension(n, ast.CollDict)
	case "generator_expression":
		return p.comprehension(n, ast.CollGenerator)

	case "await":
		u := &ast.UnaryOp{Span: sp, Op: "await"}
		if kids := named(n); len(kids) > 0 {
			u.X = p.expr(kids[0])
		}
		return u

	case "yield":
		u := &ast.UnaryOp{Span: sp, Op: "yield"}
		if hasToken(n, "from") {
			u.Op = "yield from"
		}
		if kids := named(n); len(kids) > 0 {
			u.X = p.expr(kids[0])
		}
		return u

	case "assignment":
		return p.assignment(n)
	case "augmented_assignment":
		return p.augAssignment(n)
	}

	return p.generic(n, p.expr)
}

func (p *pyLowerer) comparison(n *sitter.Node) ast.Node {
	c := &ast.Compare{Span: p.span(n)}
	pending := ""
	for i := range int(n.ChildCount()) {
		child := n.Child(i)
		if child.IsNamed() {
			if child.Type() == "comment" {
				continue
			}
			if pending != "" {
				c.Ops = append(c.Ops, pending)
				pending = ""
			}
			if x := p.expr(child); x != nil {
				c.Operands = append(c.Operands, x)
			}
			continue
		}
		tok := child.Type()
		if pending != "" {
			pending += " " + tok
		} else {
			pending = tok
		}
	}
	return c
}

func (p *pyLowerer) comprehension(n *sitter.Node, kind ast.CollectionKind) ast.Node {
	c := &ast.Comprehension{Span: p.span(n), Kind: kind}
	bodyNode := n.ChildByFieldName("body")
	c.Elt = p.expr(bodyNode)
	for _, k := range named(n) {
		switch k.Type() {
		case "for_in_clause":
			g := &ast.Generator{
				Span:   p.span(k),
				Async:  hasToken(k, "async"),
				Target: p.expr(k.ChildByFieldName("left")),
				Iter:   p.expr(k.ChildByFieldName("right")),
			}
			c.Generators = append(c.Generators, g)
		case "if_clause":
			if len(c.Generators) == 0 {
				continue
			}
			g := c.Generators[len(c.Generators)-1]
			for _, cond := range named(k) {
				if x := p.expr(cond); x != nil {
					g.Ifs = append(g.Ifs, x)
				}
			}
		}
	}
	return c
}

func (p *pyLowerer) str(n *sitter.Node) ast.Node {
	sp := p.span(n)
	var interps []*sitter.Node
	for _, c := range named(n) {
		if c.Type() == "interpolation" {
			interps = append(interps, c)
		}
	}
	if len(interps) == 0 {
		prefix, body := stripQuotes(p.text(n))
		kind := ast.ConstString
		if strings.ContainsAny(prefix, "bB") {
			kind = ast.ConstBytes
		}
		return &ast.Constant{Span: sp, Kind: kind, Value: body}
	}

	// The template keeps literal text and format specs with each
	// interpolated expression replaced by an empty placeholder.
	var tmpl strings.Builder
	var exprs []ast.Node
	cursor := n.StartByte()
	for _, in := range interps {
		tmpl.Write(p.src[cursor:in.StartByte()])
		expr := in.ChildByFieldName("expression")
		if expr == nil {
			if kids := named(in); len(kids) > 0 {
				expr = kids[0]
			}
		}
		tmpl.WriteByte('{')
		if expr != nil {
			tmpl.Write(p.src[expr.EndByte():in.EndByte()])
			if x := p.expr(expr); x != nil {
				exprs = append(exprs, x)
			}
		} else {
			tmpl.WriteByte('}')
		}
		cursor = in.EndByte()
	}
	tmpl.Write(p.src[cursor:n.EndByte()])
	_, body := stripQuotes(tmpl.String())

	parts := append([]ast.Node{&ast.Constant{Span: sp, Kind: ast.ConstString, Value: body}}, exprs...)
	return &ast.FString{Span: sp, Parts: parts}
}

func (p *pyLowerer) concatenated(n *sitter.Node) ast.Node {
	var parts []ast.Node
	plain := true
	var joined strings.Builder
	for _, c := range named(n) {
		x := p.expr(c)
		if x == nil {
			continue
		}
		parts = append(parts, x)
		if k, ok := x.(*ast.Constant); ok {
			joined.WriteString(k.Value)
		} else {
			plain = false
		}
	}
	if plain {
		kind := ast.ConstString
		if len(parts) > 0 {
			kind = parts[0].(*ast.Constant).Kind
		}
		return &ast.Constant{Span: p.span(n), Kind: kind, Value: joined.String()}
	}
	return &ast.FString{Span: p.span(n), Parts: parts}
}
