// Package ast defines a small, closed syntax tree for function-level
// structural analysis.
//
// Every node kind the analyzers care about (function definitions, control
// flow, calls, operators, names, literals) is a concrete Go type carrying
// typed fields. Constructs a lowering does not model are kept as Generic
// nodes so that structure is never silently lost.
//
// Parsers implement the Parser interface and are language specific; the
// tree-sitter implementation lives in the treesitter subpackage.
//
// Usage:
//
//	p := treesitter.New()
//	defer p.Close()
//
//	file, err := p.Parse("orders.py", src)
//	if err != nil {
//	    return err
//	}
//
//	for _, fn := range ast.Functions(file) {
//	    fmt.Printf("%s at line %d\n", fn.Def.Name, fn.Def.Span.StartLine)
//	}
package ast
