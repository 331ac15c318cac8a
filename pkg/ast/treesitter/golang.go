package treesitter

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/consolidate/pkg/ast"
)

type goLowerer struct {
	*lowerer
}

var goTypeNodes = map[string]bool{
	"type_identifier":            true,
	"qualified_type":             true,
	"pointer_type":               true,
	"slice_type":                 true,
	"array_type":                 true,
	"implicit_length_array_type": true,
	"map_type":                   true,
	"channel_type":               true,
	"function_type":              true,
	"struct_type":                true,
	"interface_type":             true,
	"generic_type":               true,
	"parenthesized_type":         true,
	"negated_type":               true,
	"type_elem":                  true,
	"type_constraint":            true,
	"type_parameter_list":        true,
	"type_arguments":             true,
}

var goComparisons = map[string]bool{
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
}

func (g *goLowerer) sourceFile(root *sitter.Node) []ast.Node {
	var out []ast.Node
	for _, c := range named(root) {
		if c.Type() == "package_clause" {
			continue
		}
		if s := g.stmt(c); s != nil {
			out = append(out, s)
		}
	}
	return out
}

// block lowers a block, flattening the statement_list wrapper newer
// grammars insert.
func (g *goLowerer) block(n *sitter.Node) []ast.Node {
	if n == nil {
		return nil
	}
	return g.stmts(named(n))
}

func (g *goLowerer) stmts(nodes []*sitter.Node) []ast.Node {
	var out []ast.Node
	for _, c := range nodes {
		if c.Type() == "statement_list" {
			out = append(out, g.stmts(named(c))...)
			continue
		}
		if s := g.stmt(c); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (g *goLowerer) stmt(n *sitter.Node) ast.Node {
	if n == nil || !g.enter(n) {
		return nil
	}
	defer g.leave()

	sp := g.span(n)
	switch n.Type() {
	case "empty_statement":
		return nil

	case "function_declaration", "method_declaration":
		return g.function(n)

	case "import_declaration":
		return &ast.Import{Span: sp, Text: collapse(g.text(n))}

	case "type_declaration":
		return g.typeRef(n)

	case "expression_statement":
		if kids := named(n); len(kids) > 0 {
			return &ast.ExprStmt{Span: sp, X: g.expr(kids[0])}
		}
		return nil

	case "short_var_declaration":
		return &ast.Assign{
			Span:    sp,
			Op:      ":=",
			Targets: g.list(n.ChildByFieldName("left")),
			Values:  g.list(n.ChildByFieldName("right")),
			Binds:   true,
		}

	case "assignment_statement":
		return &ast.Assign{
			Span:    sp,
			Op:      g.text(n.ChildByFieldName("operator")),
			Targets: g.list(n.ChildByFieldName("left")),
			Values:  g.list(n.ChildByFieldName("right")),
		}

	case "inc_statement", "dec_statement":
		op := "++"
		if n.Type() == "dec_statement" {
			op = "--"
		}
		a := &ast.Assign{Span: sp, Op: op}
		if kids := named(n); len(kids) > 0 {
			a.Targets = []ast.Node{g.expr(kids[0])}
		}
		return a

	case "var_declaration", "const_declaration":
		return g.declaration(n)

	case "return_statement":
		r := &ast.Return{Span: sp}
		for _, c := range named(n) {
			r.Values = append(r.Values, g.list(c)...)
		}
		return r

	case "if_statement":
		i := &ast.If{
			Span: sp,
			Init: g.stmt(n.ChildByFieldName("initializer")),
			Cond: g.expr(n.ChildByFieldName("condition")),
			Body: g.block(n.ChildByFieldName("consequence")),
		}
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			if alt.Type() == "block" {
				i.Else = g.block(alt)
			} else if s := g.stmt(alt); s != nil {
				i.Else = []ast.Node{s}
			}
		}
		return i

	case "for_statement":
		return g.forStmt(n)

	case "expression_switch_statement":
		return g.switchStmt(n)

	case "type_switch_statement":
		return g.typeSwitchStmt(n)

	case "select_statement":
		return g.selectStmt(n)

	case "receive_statement":
		return g.receive(n)

	case "go_statement", "defer_statement":
		d := &ast.Deferred{Span: sp, Keyword: "go"}
		if n.Type() == "defer_statement" {
			d.Keyword = "defer"
		}
		if kids := named(n); len(kids) > 0 {
			d.Call = g.expr(kids[0])
		}
		return d

	case "break_statement", "continue_statement", "goto_statement", "fallthrough_statement":
		b := &ast.Branch{Span: sp}
		switch n.Type() {
		case "break_statement":
			b.Keyword = "break"
		case "continue_statement":
			b.Keyword = "continue"
		case "goto_statement":
			b.Keyword = "goto"
		default:
			b.Keyword = "fallthrough"
		}
		if kids := named(n); len(kids) > 0 {
			b.Label = g.text(kids[0])
		}
		return b

	case "labeled_statement":
		lbl := &ast.Generic{Span: sp, Type: n.Type()}
		label := n.ChildByFieldName("label")
		for _, c := range named(n) {
			if sameNode(c, label) {
				continue
			}
			if s := g.stmt(c); s != nil {
				lbl.Children = append(lbl.Children, s)
			}
		}
		return lbl

	case "block":
		return &ast.Generic{Span: sp, Type: n.Type(), Children: g.block(n)}
	}

	if goTypeNodes[n.Type()] {
		return g.typeRef(n)
	}
	return g.generic(n, g.lowerAny)
}

// lowerAny lowers a child of an unmodeled construct, which may be a
// statement or an expression.
func (g *goLowerer) lowerAny(n *sitter.Node) ast.Node {
	switch n.Type() {
	case "block", "statement_list":
		return &ast.Generic{Span: g.span(n), Type: "block", Children: g.block(n)}
	case "expression_case", "default_case", "type_case", "communication_case":
		return g.caseClause(n)
	}
	if isGoStatement(n.Type()) {
		return g.stmt(n)
	}
	return g.expr(n)
}

func isGoStatement(t string) bool {
	switch t {
	case "expression_statement", "short_var_declaration", "assignment_statement",
		"inc_statement", "dec_statement", "var_declaration", "const_declaration",
		"return_statement", "if_statement", "for_statement", "expression_switch_statement",
		"type_switch_statement", "select_statement", "go_statement", "defer_statement",
		"break_statement", "continue_statement", "goto_statement", "fallthrough_statement",
		"labeled_statement", "send_statement", "receive_statement", "empty_statement", "type_declaration":
		return true
	}
	return false
}

func (g *goLowerer) declaration(n *sitter.Node) ast.Node {
	op := "var"
	if n.Type() == "const_declaration" {
		op = "const"
	}
	var specs []*sitter.Node
	for _, c := range named(n) {
		switch c.Type() {
		case "var_spec", "const_spec":
			specs = append(specs, c)
		case "var_spec_list", "const_spec_list":
			for _, s := range named(c) {
				if s.Type() == "var_spec" || s.Type() == "const_spec" {
					specs = append(specs, s)
				}
			}
		}
	}

	var out []ast.Node
	for _, s := range specs {
		a := &ast.Assign{Span: g.span(s), Op: op, Binds: true}
		typ := s.ChildByFieldName("type")
		value := s.ChildByFieldName("value")
		for _, c := range named(s) {
			if sameNode(c, typ) || sameNode(c, value) {
				continue
			}
			if c.Type() == "identifier" {
				a.Targets = append(a.Targets, &ast.Name{Span: g.span(c), ID: g.text(c)})
			}
		}
		a.Annotation = g.typeRef(typ)
		if value != nil {
			a.Values = g.list(value)
		}
		out = append(out, a)
	}
	if len(out) == 1 {
		return out[0]
	}
	return &ast.Generic{Span: g.span(n), Type: n.Type(), Children: out}
}

func (g *goLowerer) forStmt(n *sitter.Node) ast.Node {
	sp := g.span(n)
	body := n.ChildByFieldName("body")
	var clause *sitter.Node
	for _, c := range named(n) {
		if !sameNode(c, body) {
			clause = c
			break
		}
	}

	if clause != nil && clause.Type() == "range_clause" {
		f := &ast.For{
			Span:  sp,
			Iter:  g.expr(clause.ChildByFieldName("right")),
			Binds: hasToken(clause, ":="),
			Body:  g.block(body),
		}
		if left := clause.ChildByFieldName("left"); left != nil {
			targets := g.list(left)
			if len(targets) == 1 {
				f.Target = targets[0]
			} else if len(targets) > 1 {
				f.Target = &ast.Collection{Span: g.span(left), Kind: ast.CollTuple, Elts: targets}
			}
		}
		return f
	}

	w := &ast.While{Span: sp, Body: g.block(body)}
	if clause == nil {
		return w
	}
	if clause.Type() == "for_clause" {
		w.Init = g.stmt(clause.ChildByFieldName("initializer"))
		w.Cond = g.expr(clause.ChildByFieldName("condition"))
		w.Post = g.stmt(clause.ChildByFieldName("update"))
		return w
	}
	w.Cond = g.expr(clause)
	return w
}

func (g *goLowerer) switchStmt(n *sitter.Node) ast.Node {
	s := &ast.Switch{
		Span: g.span(n),
		Init: g.stmt(n.ChildByFieldName("initializer")),
		Tag:  g.expr(n.ChildByFieldName("value")),
	}
	for _, c := range named(n) {
		if c.Type() != "expression_case" && c.Type() != "default_case" {
			continue
		}
		if cs := g.caseClause(c); cs != nil {
			s.Cases = append(s.Cases, cs.(*ast.Case))
		}
	}
	return s
}

// typeSwitchStmt lowers switch v := x.(type). The guard becomes the Tag: a
// binding Assign of the alias when present, so v is a local of the function.
func (g *goLowerer) typeSwitchStmt(n *sitter.Node) ast.Node {
	sp := g.span(n)
	guard := &ast.Generic{Span: sp, Type: "type_guard"}
	if v := g.expr(n.ChildByFieldName("value")); v != nil {
		guard.Children = []ast.Node{v}
	}
	s := &ast.Switch{
		Span: sp,
		Init: g.stmt(n.ChildByFieldName("initializer")),
		Tag:  guard,
	}
	if alias := n.ChildByFieldName("alias"); alias != nil {
		s.Tag = &ast.Assign{
			Span:    sp,
			Op:      ":=",
			Targets: g.list(alias),
			Values:  []ast.Node{guard},
			Binds:   true,
		}
	}
	for _, c := range named(n) {
		switch c.Type() {
		case "type_case":
			if cs := g.typeCase(c); cs != nil {
				s.Cases = append(s.Cases, cs)
			}
		case "default_case":
			if cs := g.caseClause(c); cs != nil {
				s.Cases = append(s.Cases, cs.(*ast.Case))
			}
		}
	}
	return s
}

// typeCase lowers case T1, T2: body. The grammar repeats the type field, so
// every non-statement child is a type.
func (g *goLowerer) typeCase(n *sitter.Node) *ast.Case {
	if !g.enter(n) {
		return nil
	}
	defer g.leave()

	cs := &ast.Case{Span: g.span(n)}
	var body []*sitter.Node
	for _, c := range named(n) {
		if c.Type() == "statement_list" || isGoStatement(c.Type()) || c.Type() == "block" {
			body = append(body, c)
			continue
		}
		if t := g.typeRef(c); t != nil {
			cs.Values = append(cs.Values, t)
		}
	}
	cs.Body = g.stmts(body)
	return cs
}

// selectStmt lowers select as a Switch with a select marker as its Tag. Each
// communication clause carries its send or receive as the case value.
func (g *goLowerer) selectStmt(n *sitter.Node) ast.Node {
	s := &ast.Switch{Span: g.span(n), Tag: &ast.Generic{Span: g.span(n), Type: "select"}}
	for _, c := range named(n) {
		if c.Type() != "communication_case" && c.Type() != "default_case" {
			continue
		}
		if cs := g.caseClause(c); cs != nil {
			s.Cases = append(s.Cases, cs.(*ast.Case))
		}
	}
	return s
}

// receive lowers v, ok := <-c (binding), v = <-c, or a bare <-c.
func (g *goLowerer) receive(n *sitter.Node) ast.Node {
	sp := g.span(n)
	right := g.expr(n.ChildByFieldName("right"))
	left := n.ChildByFieldName("left")
	if left == nil {
		return &ast.ExprStmt{Span: sp, X: right}
	}
	a := &ast.Assign{Span: sp, Op: "=", Targets: g.list(left), Values: []ast.Node{right}}
	if hasToken(n, ":=") {
		a.Op = ":="
		a.Binds = true
	}
	return a
}

func (g *goLowerer) caseClause(n *sitter.Node) ast.Node {
	if !g.enter(n) {
		return nil
	}
	defer g.leave()

	cs := &ast.Case{Span: g.span(n), Default: n.Type() == "default_case"}
	value := n.ChildByFieldName("value")
	if value == nil {
		value = n.ChildByFieldName("type")
	}
	if value == nil {
		value = n.ChildByFieldName("communication")
	}
	var rest []*sitter.Node
	for _, c := range named(n) {
		if sameNode(c, value) {
			continue
		}
		rest = append(rest, c)
	}
	switch {
	case value == nil:
	case n.Type() == "communication_case":
		if st := g.stmt(value); st != nil {
			cs.Values = []ast.Node{st}
		}
	default:
		cs.Values = g.list(value)
	}
	cs.Body = g.stmts(rest)
	return cs
}

func (g *goLowerer) function(n *sitter.Node) ast.Node {
	fn := &ast.FunctionDef{
		Span: g.span(n),
		Name: g.text(n.ChildByFieldName("name")),
	}
	if recv := n.ChildByFieldName("receiver"); recv != nil {
		fn.Params = append(fn.Params, g.params(recv, ast.ParamReceiver)...)
	}
	fn.Params = append(fn.Params, g.params(n.ChildByFieldName("parameters"), ast.ParamPlain)...)
	if res := n.ChildByFieldName("result"); res != nil {
		if res.Type() == "parameter_list" {
			fn.Params = append(fn.Params, g.params(res, ast.ParamResult)...)
		} else {
			fn.Returns = g.typeRef(res)
		}
	}
	fn.Body = g.block(n.ChildByFieldName("body"))
	return fn
}

func (g *goLowerer) params(list *sitter.Node, kind ast.ParamKind) []*ast.Param {
	var out []*ast.Param
	for _, decl := range named(list) {
		typ := decl.ChildByFieldName("type")
		k := kind
		if decl.Type() == "variadic_parameter_declaration" {
			k = ast.ParamVarArgs
		}
		var names []*sitter.Node
		for _, c := range named(decl) {
			if !sameNode(c, typ) && c.Type() == "identifier" {
				names = append(names, c)
			}
		}
		if len(names) == 0 {
			out = append(out, &ast.Param{Span: g.span(decl), Kind: k, Annotation: g.typeRef(typ)})
			continue
		}
		for _, nm := range names {
			out = append(out, &ast.Param{
				Span:       g.span(nm),
				Name:       g.text(nm),
				Kind:       k,
				Annotation: g.typeRef(typ),
			})
		}
	}
	return out
}

// list lowers an expression_list into its items; any other node is one item.
func (g *goLowerer) list(n *sitter.Node) []ast.Node {
	if n == nil {
		return nil
	}
	if n.Type() != "expression_list" {
		if x := g.expr(n); x != nil {
			return []ast.Node{x}
		}
		return nil
	}
	var out []ast.Node
	for _, c := range named(n) {
		if x := g.expr(c); x != nil {
			out = append(out, x)
		}
	}
	return out
}

func (g *goLowerer) expr(n *sitter.Node) ast.Node {
	if n == nil || !g.enter(n) {
		return nil
	}
	defer g.leave()

	sp := g.span(n)
	switch n.Type() {
	case "identifier", "field_identifier", "package_identifier", "iota":
		return &ast.Name{Span: sp, ID: g.text(n)}

	case "int_literal":
		return &ast.Constant{Span: sp, Kind: ast.ConstInt, Value: g.text(n)}
	case "float_literal":
		return &ast.Constant{Span: sp, Kind: ast.ConstFloat, Value: g.text(n)}
	case "imaginary_literal":
		return &ast.Constant{Span: sp, Kind: ast.ConstImag, Value: g.text(n)}
	case "rune_literal":
		_, body := stripQuotes(g.text(n))
		return &ast.Constant{Span: sp, Kind: ast.ConstRune, Value: body}
	case "interpreted_string_literal", "raw_string_literal":
		_, body := stripQuotes(g.text(n))
		return &ast.Constant{Span: sp, Kind: ast.ConstString, Value: body}
	case "true", "false":
		return &ast.Constant{Span: sp, Kind: ast.ConstBool, Value: g.text(n)}
	case "nil":
		return &ast.Constant{Span: sp, Kind: ast.ConstNone, Value: "nil"}

	case "selector_expression":
		return &ast.Attribute{
			Span: sp,
			X:    g.expr(n.ChildByFieldName("operand")),
			Attr: g.text(n.ChildByFieldName("field")),
		}

	case "call_expression":
		call := &ast.Call{Span: sp, Func: g.expr(n.ChildByFieldName("function"))}
		for _, a := range named(n.ChildByFieldName("arguments")) {
			if x := g.expr(a); x != nil {
				call.Args = append(call.Args, x)
			}
		}
		return call

	case "variadic_argument":
		s := &ast.Starred{Span: sp}
		if kids := named(n); len(kids) > 0 {
			s.X = g.expr(kids[0])
		}
		return s

	case "index_expression":
		return &ast.Subscript{
			Span:  sp,
			X:     g.expr(n.ChildByFieldName("operand")),
			Index: g.expr(n.ChildByFieldName("index")),
		}

	case "slice_expression":
		return &ast.Subscript{
			Span: sp,
			X:    g.expr(n.ChildByFieldName("operand")),
			Index: &ast.Slice{
				Span: sp,
				Lo:   g.expr(n.ChildByFieldName("start")),
				Hi:   g.expr(n.ChildByFieldName("end")),
				Step: g.expr(n.ChildByFieldName("capacity")),
			},
		}

	case "type_conversion_expression":
		call := &ast.Call{Span: sp, Func: g.typeRef(n.ChildByFieldName("type"))}
		if x := g.expr(n.ChildByFieldName("operand")); x != nil {
			call.Args = []ast.Node{x}
		}
		return call

	case "type_assertion_expression":
		ga := &ast.Generic{Span: sp, Type: n.Type()}
		if x := g.expr(n.ChildByFieldName("operand")); x != nil {
			ga.Children = append(ga.Children, x)
		}
		if t := g.typeRef(n.ChildByFieldName("type")); t != nil {
			ga.Children = append(ga.Children, t)
		}
		return ga

	case "binary_expression":
		op := g.text(n.ChildByFieldName("operator"))
		l := g.expr(n.ChildByFieldName("left"))
		r := g.expr(n.ChildByFieldName("right"))
		if goComparisons[op] {
			return &ast.Compare{Span: sp, Ops: []string{op}, Operands: []ast.Node{l, r}}
		}
		return &ast.BinOp{Span: sp, Op: op, L: l, R: r}

	case "unary_expression":
		return &ast.UnaryOp{
			Span: sp,
			Op:   g.text(n.ChildByFieldName("operator")),
			X:    g.expr(n.ChildByFieldName("operand")),
		}

	case "parenthesized_expression":
		if kids := named(n); len(kids) == 1 {
			return g.expr(kids[0])
		}
		return g.generic(n, g.expr)

	case "composite_literal":
		typ := n.ChildByFieldName("type")
		c := &ast.Collection{Span: sp, Kind: ast.CollComposite, Type: g.typeRef(typ)}
		c.Elts = g.literalElements(n.ChildByFieldName("body"), !expressionKeyed(typ))
		return c

	case "literal_value":
		return &ast.Collection{Span: sp, Kind: ast.CollComposite, Elts: g.literalElements(n, true)}

	case "literal_element":
		if kids := named(n); len(kids) == 1 {
			return g.expr(kids[0])
		}
		return g.generic(n, g.expr)

	case "keyed_element":
		return g.keyedElement(n, false)

	case "func_literal":
		return g.function(n)

	case "expression_list":
		return &ast.Collection{Span: sp, Kind: ast.CollTuple, Elts: g.list(n)}
	}

	if goTypeNodes[n.Type()] {
		return g.typeRef(n)
	}
	return g.generic(n, g.lowerAny)
}

// literalElements lowers the elements of a literal body. When fields is set,
// bare identifier keys name struct fields rather than variables.
func (g *goLowerer) literalElements(body *sitter.Node, fields bool) []ast.Node {
	var out []ast.Node
	for _, c := range named(body) {
		var x ast.Node
		if c.Type() == "keyed_element" {
			x = g.keyedElement(c, fields)
		} else {
			x = g.expr(c)
		}
		if x != nil {
			out = append(out, x)
		}
	}
	return out
}

// keyedElement lowers key: value. A field key is kept by name as a Keyword so
// it never resolves to a local that happens to share the name.
func (g *goLowerer) keyedElement(n *sitter.Node, fields bool) ast.Node {
	if !g.enter(n) {
		return nil
	}
	defer g.leave()

	kids := named(n)
	if len(kids) != 2 {
		return g.generic(n, g.expr)
	}
	key, value := unwrapElement(kids[0]), kids[1]
	if fields && (key.Type() == "field_identifier" || key.Type() == "identifier") {
		return &ast.Keyword{Span: g.span(n), Name: g.text(key), Value: g.expr(value)}
	}
	return &ast.Pair{Span: g.span(n), Key: g.expr(key), Value: g.expr(value)}
}

// unwrapElement strips the literal_element wrapper newer grammars put around
// keys and values.
func unwrapElement(n *sitter.Node) *sitter.Node {
	if n.Type() == "literal_element" {
		if kids := named(n); len(kids) == 1 {
			return kids[0]
		}
	}
	return n
}

// expressionKeyed reports whether a composite literal of type typ takes
// expression keys (maps) or index keys (arrays, slices) instead of field names.
func expressionKeyed(typ *sitter.Node) bool {
	if typ == nil {
		return false
	}
	switch typ.Type() {
	case "map_type", "slice_type", "array_type", "implicit_length_array_type":
		return true
	}
	return false
}
