package duplicates

import (
	"strconv"
	"strings"

	"github.com/panbanda/consolidate/pkg/ast"
)

// Normalize returns the canonical text of fn: a pre-order token stream of node
// kinds in which every local name is replaced by a placeholder numbered by
// first occurrence within its scope (VAR0, VAR1, ...).
//
// Names from an outer scope inside the traversal carry the distance to that
// scope (VAR0^1). Names bound by the functions in enclosing (outermost first),
// which lie outside fn, become FREE0, FREE1, .... Everything else, including
// globals, call targets and attribute names, is kept verbatim. The function's
// own name and its docstring are not part of the text.
func Normalize(lang ast.Language, fn *ast.FunctionDef, enclosing []*ast.FunctionDef) string {
	n := &normalizer{
		free:    make(map[string]bool),
		freeIDs: make(map[string]int),
	}
	for _, enc := range enclosing {
		for name := range ast.LocalNames(enc) {
			n.free[name] = true
		}
	}
	n.write("Lang:" + string(lang))
	n.push(n.function(fn, true))
	n.run()
	return n.buf.String()
}

type scope struct {
	locals map[string]bool
	ids    map[string]int
}

func newScope(locals map[string]bool) *scope {
	return &scope{locals: locals, ids: make(map[string]int)}
}

func (s *scope) placeholder(name string) int {
	id, ok := s.ids[name]
	if !ok {
		id = len(s.ids)
		s.ids[name] = id
	}
	return id
}

type frameKind uint8

const (
	frameNode frameKind = iota
	frameToken
	frameName
	frameEnter
	frameExit
)

type frame struct {
	kind  frameKind
	node  ast.Node
	tok   string
	scope *scope
}

type normalizer struct {
	buf     strings.Builder
	stack   []frame
	scopes  []*scope
	free    map[string]bool
	freeIDs map[string]int
}

func (n *normalizer) write(tok string) {
	if n.buf.Len() > 0 {
		n.buf.WriteByte(' ')
	}
	n.buf.WriteString(tok)
}

// push schedules frames so that frames[0] is processed next.
func (n *normalizer) push(frames []frame) {
	for i := len(frames) - 1; i >= 0; i-- {
		n.stack = append(n.stack, frames[i])
	}
}

func (n *normalizer) run() {
	for len(n.stack) > 0 {
		f := n.stack[len(n.stack)-1]
		n.stack = n.stack[:len(n.stack)-1]
		switch f.kind {
		case frameToken:
			n.write(f.tok)
		case frameName:
			n.write(n.resolve(f.tok))
		case frameEnter:
			n.scopes = append(n.scopes, f.scope)
		case frameExit:
			n.scopes = n.scopes[:len(n.scopes)-1]
		case frameNode:
			n.push(n.expand(f.node))
		}
	}
}

func (n *normalizer) resolve(id string) string {
	for i := len(n.scopes) - 1; i >= 0; i-- {
		s := n.scopes[i]
		if !s.locals[id] {
			continue
		}
		tok := "VAR" + strconv.Itoa(s.placeholder(id))
		if up := len(n.scopes) - 1 - i; up > 0 {
			tok += "^" + strconv.Itoa(up)
		}
		return tok
	}
	if n.free[id] {
		fid, ok := n.freeIDs[id]
		if !ok {
			fid = len(n.freeIDs)
			n.freeIDs[id] = fid
		}
		return "FREE" + strconv.Itoa(fid)
	}
	return "Name:" + id
}

func tok(s string) frame { return frame{kind: frameToken, tok: s} }

func name(id string) frame { return frame{kind: frameName, tok: id} }

// nodes turns xs into node frames, dropping nils.
func nodes(xs ...ast.Node) []frame {
	out := make([]frame, 0, len(xs))
	for _, x := range xs {
		if x != nil {
			out = append(out, frame{kind: frameNode, node: x})
		}
	}
	return out
}

// wrap brackets xs under label. The label is emitted even when xs is empty.
func wrap(label string, xs []ast.Node) []frame {
	out := make([]frame, 0, len(xs)+2)
	out = append(out, tok(label+"("))
	out = append(out, nodes(xs...)...)
	return append(out, tok(")"))
}

// opt brackets x under label, or yields nothing when x is nil.
func opt(label string, x ast.Node) []frame {
	if x == nil {
		return nil
	}
	return []frame{tok(label + "("), {kind: frameNode, node: x}, tok(")")}
}

func join(parts ...[]frame) []frame {
	size := 0
	for _, p := range parts {
		size += len(p)
	}
	out := make([]frame, 0, size)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func quote(s string) string {
	return strconv.Quote(s)
}

// signature emits the parts of a parameter list evaluated in the enclosing
// scope: defaults and annotations, keyed by parameter position.
func signature(params []*ast.Param) []frame {
	out := []frame{tok("Signature(")}
	for i, p := range params {
		idx := strconv.Itoa(i)
		if p.Default != nil {
			out = append(out, tok("Default:"+idx+"("), frame{kind: frameNode, node: p.Default}, tok(")"))
		}
		if p.Annotation != nil {
			out = append(out, tok("Ann:"+idx+"("), frame{kind: frameNode, node: p.Annotation}, tok(")"))
		}
	}
	return append(out, tok(")"))
}

// paramList emits parameter roles and their placeholders; it must run inside
// the function's own scope.
func paramList(params []*ast.Param) []frame {
	out := []frame{tok("Params(")}
	for _, p := range params {
		out = append(out, tok("Param:"+string(p.Kind)+"("))
		if p.Name != "" {
			out = append(out, name(p.Name))
		}
		out = append(out, tok(")"))
	}
	return append(out, tok(")"))
}

func (n *normalizer) function(fn *ast.FunctionDef, target bool) []frame {
	head := "FunctionDef"
	if fn.Async {
		head += ":async"
	}
	out := []frame{tok(head + "(")}
	if !target && fn.Name != "" {
		out = append(out, tok("Bind("), name(fn.Name), tok(")"))
	}
	out = append(out, wrap("Decorators", fn.Decorators)...)
	out = append(out, signature(fn.Params)...)
	out = append(out, opt("Returns", fn.Returns)...)
	out = append(out, frame{kind: frameEnter, scope: newScope(ast.LocalNames(fn))})
	out = append(out, paramList(fn.Params)...)
	out = append(out, wrap("Body", fn.Body)...)
	return append(out, frame{kind: frameExit}, tok(")"))
}

func (n *normalizer) lambda(l *ast.Lambda) []frame {
	return join(
		[]frame{tok("Lambda(")},
		signature(l.Params),
		[]frame{{kind: frameEnter, scope: newScope(ast.LambdaNames(l))}},
		paramList(l.Params),
		opt("Body", l.Body),
		[]frame{{kind: frameExit}, tok(")")},
	)
}

// expand writes the header of x and returns the frames for its children.
func (n *normalizer) expand(x ast.Node) []frame {
	switch x := x.(type) {
	case *ast.FunctionDef:
		return n.function(x, false)

	case *ast.Lambda:
		return n.lambda(x)

	case *ast.ClassDef:
		n.write("ClassDef(")
		return join(
			[]frame{tok("Bind("), name(x.Name), tok(")")},
			wrap("Decorators", x.Decorators),
			wrap("Bases", x.Bases),
			wrap("Body", x.Body),
			[]frame{tok(")")},
		)

	case *ast.Param:
		// Parameters are emitted by their owning function.
		return nil

	case *ast.Return:
		n.write("Return(")
		return append(nodes(x.Values...), tok(")"))

	case *ast.Assign:
		n.write("Assign:" + x.Op + "(")
		return join(
			wrap("Targets", x.Targets),
			opt("Ann", x.Annotation),
			wrap("Values", x.Values),
			[]frame{tok(")")},
		)

	case *ast.ExprStmt:
		n.write("Expr(")
		return append(nodes(x.X), tok(")"))

	case *ast.If:
		n.write("If(")
		return join(
			opt("Init", x.Init),
			opt("Cond", x.Cond),
			wrap("Then", x.Body),
			wrap("Else", x.Else),
			[]frame{tok(")")},
		)

	case *ast.For:
		head := "For("
		if x.Async {
			head = "For:async("
		}
		n.write(head)
		return join(
			opt("Target", x.Target),
			opt("Iter", x.Iter),
			wrap("Body", x.Body),
			wrap("Else", x.Else),
			[]frame{tok(")")},
		)

	case *ast.While:
		n.write("While(")
		return join(
			opt("Init", x.Init),
			opt("Cond", x.Cond),
			opt("Post", x.Post),
			wrap("Body", x.Body),
			wrap("Else", x.Else),
			[]frame{tok(")")},
		)

	case *ast.Try:
		n.write("Try(")
		handlers := make([]ast.Node, len(x.Handlers))
		for i, h := range x.Handlers {
			handlers[i] = h
		}
		return join(
			wrap("Body", x.Body),
			wrap("Handlers", handlers),
			wrap("Else", x.Else),
			wrap("Finally", x.Finally),
			[]frame{tok(")")},
		)

	case *ast.Handler:
		n.write("Handler(")
		return join(opt("Type", x.Type), opt("As", x.Target), wrap("Body", x.Body), []frame{tok(")")})

	case *ast.With:
		head := "With("
		if x.Async {
			head = "With:async("
		}
		n.write(head)
		items := make([]ast.Node, len(x.Items))
		for i, it := range x.Items {
			items[i] = it
		}
		return join(nodes(items...), wrap("Body", x.Body), []frame{tok(")")})

	case *ast.WithItem:
		n.write("Item(")
		return join(nodes(x.Context), opt("As", x.Target), []frame{tok(")")})

	case *ast.Switch:
		n.write("Switch(")
		cases := make([]ast.Node, len(x.Cases))
		for i, c := range x.Cases {
			cases[i] = c
		}
		return join(opt("Init", x.Init), opt("Tag", x.Tag), nodes(cases...), []frame{tok(")")})

	case *ast.Case:
		if x.Default {
			n.write("Default(")
		} else {
			n.write("Case(")
		}
		return join(wrap("Values", x.Values), wrap("Body", x.Body), []frame{tok(")")})

	case *ast.Raise:
		n.write("Raise(")
		return join(nodes(x.Exc), opt("From", x.Cause), []frame{tok(")")})

	case *ast.Branch:
		if x.Label != "" {
			n.write("Branch:" + x.Keyword + ":label")
		} else {
			n.write("Branch:" + x.Keyword)
		}
		return nil

	case *ast.Global:
		head := "Global("
		if x.Nonlocal {
			head = "Nonlocal("
		}
		n.write(head)
		out := make([]frame, 0, len(x.Names)+1)
		for _, id := range x.Names {
			out = append(out, name(id))
		}
		return append(out, tok(")"))

	case *ast.Delete:
		n.write("Delete(")
		return append(nodes(x.Targets...), tok(")"))

	case *ast.Assert:
		n.write("Assert(")
		return join(nodes(x.Test), opt("Msg", x.Msg), []frame{tok(")")})

	case *ast.Import:
		n.write("Import:" + quote(x.Text))
		return nil

	case *ast.Deferred:
		n.write("Deferred:" + x.Keyword + "(")
		return append(nodes(x.Call), tok(")"))

	case *ast.Name:
		n.write(n.resolve(x.ID))
		return nil

	case *ast.Constant:
		n.write("Const:" + string(x.Kind) + ":" + quote(x.Value))
		return nil

	case *ast.FString:
		n.write("FString(")
		return append(nodes(x.Parts...), tok(")"))

	case *ast.Attribute:
		n.write("Attr:" + x.Attr + "(")
		return append(nodes(x.X), tok(")"))

	case *ast.Subscript:
		n.write("Subscript(")
		return join(nodes(x.X), opt("Index", x.Index), []frame{tok(")")})

	case *ast.Slice:
		n.write("Slice(")
		return join(opt("Lo", x.Lo), opt("Hi", x.Hi), opt("Step", x.Step), []frame{tok(")")})

	case *ast.Call:
		n.write("Call(")
		return join(nodes(x.Func), wrap("Args", x.Args), []frame{tok(")")})

	case *ast.Keyword:
		n.write("Keyword:" + x.Name + "(")
		return append(nodes(x.Value), tok(")"))

	case *ast.Starred:
		if x.Double {
			n.write("DoubleStar(")
		} else {
			n.write("Star(")
		}
		return append(nodes(x.X), tok(")"))

	case *ast.BinOp:
		n.write("BinOp:" + x.Op + "(")
		return append(nodes(x.L, x.R), tok(")"))

	case *ast.UnaryOp:
		n.write("UnaryOp:" + strings.ReplaceAll(x.Op, " ", "_") + "(")
		return append(nodes(x.X), tok(")"))

	case *ast.Compare:
		ops := make([]string, len(x.Ops))
		for i, op := range x.Ops {
			ops[i] = strings.ReplaceAll(op, " ", "_")
		}
		n.write("Compare:" + strings.Join(ops, ",") + "(")
		return append(nodes(x.Operands...), tok(")"))

	case *ast.IfExp:
		n.write("IfExp(")
		return join(opt("Cond", x.Cond), opt("Then", x.Then), opt("Else", x.Else), []frame{tok(")")})

	case *ast.Collection:
		n.write(string(x.Kind) + "(")
		return join(opt("Type", x.Type), nodes(x.Elts...), []frame{tok(")")})

	case *ast.Pair:
		n.write("Pair(")
		return join(opt("Key", x.Key), opt("Value", x.Value), []frame{tok(")")})

	case *ast.Comprehension:
		n.write("Comp:" + string(x.Kind) + "(")
		gens := make([]ast.Node, len(x.Generators))
		for i, g := range x.Generators {
			gens[i] = g
		}
		return join(opt("Elt", x.Elt), nodes(gens...), []frame{tok(")")})

	case *ast.Generator:
		if x.Async {
			n.write("Gen:async(")
		} else {
			n.write("Gen(")
		}
		return join(opt("Target", x.Target), opt("Iter", x.Iter), wrap("If", x.Ifs), []frame{tok(")")})

	case *ast.TypeRef:
		n.write("Type:" + quote(x.Text))
		return nil

	case *ast.Generic:
		head := "Node:" + x.Type
		if x.Text != "" {
			head += ":" + quote(x.Text)
		}
		if len(x.Children) == 0 {
			n.write(head)
			return nil
		}
		n.write(head + "(")
		return append(nodes(x.Children...), tok(")"))
	}
	return nil
}
