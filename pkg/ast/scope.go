package ast

// LocalNames returns the names bound in fn's own scope: its parameters, the
// targets of binding assignments and loops, context-manager and exception
// targets, and the names of nested functions and classes. Names declared
// global or nonlocal are excluded. Nested function, lambda and class bodies
// are not entered.
func LocalNames(fn *FunctionDef) map[string]bool {
	locals := make(map[string]bool)
	for _, p := range fn.Params {
		if p.Name != "" {
			locals[p.Name] = true
		}
	}
	declared := collectBindings(fn.Body, locals)
	for name := range declared {
		delete(locals, name)
	}
	return locals
}

// LambdaNames returns the parameter names of a lambda.
func LambdaNames(l *Lambda) map[string]bool {
	locals := make(map[string]bool, len(l.Params))
	for _, p := range l.Params {
		if p.Name != "" {
			locals[p.Name] = true
		}
	}
	return locals
}

// collectBindings adds every name bound by body into locals and returns the
// names declared global or nonlocal.
func collectBindings(body []Node, locals map[string]bool) map[string]bool {
	declared := make(map[string]bool)
	bind := func(target Node) {
		for _, name := range BoundNames(target) {
			locals[name] = true
		}
	}
	for _, stmt := range body {
		Inspect(stmt, func(n Node) bool {
			switch n := n.(type) {
			case *FunctionDef:
				if n.Name != "" {
					locals[n.Name] = true
				}
				return false
			case *ClassDef:
				locals[n.Name] = true
				return false
			case *Lambda:
				return false
			case *Assign:
				if n.Binds {
					for _, t := range n.Targets {
						bind(t)
					}
				}
			case *For:
				if n.Binds {
					bind(n.Target)
				}
			case *WithItem:
				bind(n.Target)
			case *Handler:
				bind(n.Target)
			case *Generator:
				bind(n.Target)
			case *Global:
				for _, name := range n.Names {
					declared[name] = true
				}
			}
			return true
		})
	}
	return declared
}

// BoundNames returns the plain names a binding target introduces, unpacking
// tuples, lists and starred targets. Attribute and subscript targets bind nothing.
func BoundNames(target Node) []string {
	var names []string
	stack := []Node{target}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch n := n.(type) {
		case *Name:
			names = append(names, n.ID)
		case *Starred:
			stack = append(stack, n.X)
		case *Collection:
			for i := len(n.Elts) - 1; i >= 0; i-- {
				stack = append(stack, n.Elts[i])
			}
		}
	}
	return names
}
