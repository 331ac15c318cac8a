package ast

// Children returns the direct children of n in source order. Nil fields are skipped.
func Children(n Node) []Node {
	var out []Node
	add := func(ns ...Node) {
		for _, c := range ns {
			if c != nil {
				out = append(out, c)
			}
		}
	}
	switch n := n.(type) {
	case *FunctionDef:
		add(n.Decorators...)
		for _, p := range n.Params {
			add(p)
		}
		add(n.Returns)
		add(n.Body...)
	case *ClassDef:
		add(n.Decorators...)
		add(n.Bases...)
		add(n.Body...)
	case *Param:
		add(n.Annotation, n.Default)
	case *Return:
		add(n.Values...)
	case *Assign:
		add(n.Targets...)
		add(n.Annotation)
		add(n.Values...)
	case *ExprStmt:
		add(n.X)
	case *If:
		add(n.Init, n.Cond)
		add(n.Body...)
		add(n.Else...)
	case *For:
		add(n.Target, n.Iter)
		add(n.Body...)
		add(n.Else...)
	case *While:
		add(n.Init, n.Cond, n.Post)
		add(n.Body...)
		add(n.Else...)
	case *Try:
		add(n.Body...)
		for _, h := range n.Handlers {
			add(h)
		}
		add(n.Else...)
		add(n.Finally...)
	case *Handler:
		add(n.Type, n.Target)
		add(n.Body...)
	case *With:
		for _, it := range n.Items {
			add(it)
		}
		add(n.Body...)
	case *WithItem:
		add(n.Context, n.Target)
	case *Switch:
		add(n.Init, n.Tag)
		for _, c := range n.Cases {
			add(c)
		}
	case *Case:
		add(n.Values...)
		add(n.Body...)
	case *Raise:
		add(n.Exc, n.Cause)
	case *Delete:
		add(n.Targets...)
	case *Assert:
		add(n.Test, n.Msg)
	case *Deferred:
		add(n.Call)
	case *FString:
		add(n.Parts...)
	case *Attribute:
		add(n.X)
	case *Subscript:
		add(n.X, n.Index)
	case *Slice:
		add(n.Lo, n.Hi, n.Step)
	case *Call:
		add(n.Func)
		add(n.Args...)
	case *Keyword:
		add(n.Value)
	case *Starred:
		add(n.X)
	case *BinOp:
		add(n.L, n.R)
	case *UnaryOp:
		add(n.X)
	case *Compare:
		add(n.Operands...)
	case *IfExp:
		add(n.Cond, n.Then, n.Else)
	case *Collection:
		add(n.Type)
		add(n.Elts...)
	case *Pair:
		add(n.Key, n.Value)
	case *Lambda:
		for _, p := range n.Params {
			add(p)
		}
		add(n.Body)
	case *Comprehension:
		add(n.Elt)
		for _, g := range n.Generators {
			add(g)
		}
	case *Generator:
		add(n.Target, n.Iter)
		add(n.Ifs...)
	case *Generic:
		add(n.Children...)
	}
	return out
}

// Inspect visits root and its descendants in pre-order using an explicit
// stack. Returning false from fn skips the node's children.
func Inspect(root Node, fn func(Node) bool) {
	if root == nil {
		return
	}
	stack := []Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			continue
		}
		kids := Children(n)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
}

// FuncInfo locates a function definition within its file.
type FuncInfo struct {
	Def *FunctionDef
	// QualifiedName joins enclosing class and function names with dots.
	QualifiedName string
	// Enclosing lists the function definitions around Def, outermost first.
	Enclosing []*FunctionDef
}

// Functions returns every function definition in f, nested ones included,
// in pre-order. Anonymous functions are reported with the name "<anonymous>".
func Functions(f *File) []FuncInfo {
	type frame struct {
		n         Node
		qual      string
		enclosing []*FunctionDef
	}
	var out []FuncInfo
	stack := make([]frame, 0, len(f.Body))
	for i := len(f.Body) - 1; i >= 0; i-- {
		stack = append(stack, frame{n: f.Body[i]})
	}
	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if fr.n == nil {
			continue
		}

		qual, enclosing := fr.qual, fr.enclosing
		switch n := fr.n.(type) {
		case *FunctionDef:
			name := n.Name
			if name == "" {
				name = "<anonymous>"
			}
			q := joinQual(qual, name)
			out = append(out, FuncInfo{Def: n, QualifiedName: q, Enclosing: enclosing})
			qual = q
			inner := make([]*FunctionDef, len(enclosing), len(enclosing)+1)
			copy(inner, enclosing)
			enclosing = append(inner, n)
		case *ClassDef:
			qual = joinQual(qual, n.Name)
		}

		kids := Children(fr.n)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{n: kids[i], qual: qual, enclosing: enclosing})
		}
	}
	return out
}

func joinQual(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
