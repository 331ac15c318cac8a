package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageOf(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"main.go", LangGo},
		{"Main.GO", LangGo},
		{"pkg/orders/orders.py", LangPython},
		{"gui.pyw", LangPython},
		{"SCRIPT.PY", LangPython},
		{"types.pyi", LangUnknown},
		{"main.rs", LangUnknown},
		{"Makefile", LangUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LanguageOf(tt.path), tt.path)
	}
}

func TestSpanLines(t *testing.T) {
	assert.Equal(t, 1, Span{StartLine: 4, EndLine: 4}.Lines())
	assert.Equal(t, 1, Span{StartLine: 4, EndLine: 2}.Lines())
	assert.Equal(t, 5, Span{StartLine: 3, EndLine: 7}.Lines())
}

func TestFunctionsQualifiedNames(t *testing.T) {
	inner := &FunctionDef{Span: Span{5, 6}, Name: "inner"}
	method := &FunctionDef{Span: Span{3, 7}, Name: "total", Body: []Node{inner}}
	lambdaLike := &FunctionDef{Span: Span{9, 9}}
	file := &File{Body: []Node{
		&ClassDef{Span: Span{1, 7}, Name: "Cart", Body: []Node{method}},
		lambdaLike,
	}}

	fns := Functions(file)
	require.Len(t, fns, 3)
	assert.Equal(t, "Cart.total", fns[0].QualifiedName)
	assert.Empty(t, fns[0].Enclosing)
	assert.Equal(t, "Cart.total.inner", fns[1].QualifiedName)
	assert.Equal(t, []*FunctionDef{method}, fns[1].Enclosing)
	assert.Equal(t, "<anonymous>", fns[2].QualifiedName)
}

func TestInspectPrunes(t *testing.T) {
	call := &Call{Func: &Name{ID: "f"}, Args: []Node{&Name{ID: "x"}}}
	body := &If{Cond: &Name{ID: "ok"}, Body: []Node{&ExprStmt{X: call}}}

	var seen []string
	Inspect(body, func(n Node) bool {
		if nm, ok := n.(*Name); ok {
			seen = append(seen, nm.ID)
		}
		_, isCall := n.(*Call)
		return !isCall
	})
	assert.Equal(t, []string{"ok"}, seen)
}

func TestLocalNames(t *testing.T) {
	fn := &FunctionDef{
		Params: []*Param{{Name: "items"}, {Kind: ParamKwOnlySep}},
		Body: []Node{
			&Global{Names: []string{"counter"}},
			&Assign{Op: "=", Binds: true, Targets: []Node{&Name{ID: "total"}}, Values: []Node{&Constant{Kind: ConstInt, Value: "0"}}},
			&Assign{Op: "+=", Binds: true, Targets: []Node{&Name{ID: "counter"}}},
			&For{Binds: true, Target: &Name{ID: "item"}, Iter: &Name{ID: "items"}},
			&FunctionDef{Name: "helper", Params: []*Param{{Name: "hidden"}}},
		},
	}

	got := LocalNames(fn)
	assert.Equal(t, map[string]bool{"items": true, "total": true, "item": true, "helper": true}, got)
}

func TestParseErrorMessage(t *testing.T) {
	err := &ParseError{Path: "a.py", Line: 3, Err: ErrSyntax}
	assert.Equal(t, "a.py:3: syntax error", err.Error())
	assert.ErrorIs(t, err, ErrSyntax)
	assert.Equal(t, "a.py: unsupported language", (&ParseError{Path: "a.py", Err: ErrUnsupportedLanguage}).Error())
}
