package treesitter

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/consolidate/pkg/ast"
)

func TestProviderImplementsInterface(t *testing.T) {
	var _ ast.Parser = (*Provider)(nil)
}

func parse(t *testing.T, path, src string) *ast.File {
	t.Helper()
	p := New()
	defer p.Close()
	f, err := p.Parse(path, []byte(src))
	require.NoError(t, err)
	return f
}

func onlyFunction(t *testing.T, f *ast.File) *ast.FunctionDef {
	t.Helper()
	fns := ast.Functions(f)
	require.Len(t, fns, 1)
	return fns[0].Def
}

func TestProviderLanguage(t *testing.T) {
	p := New()
	defer p.Close()

	assert.Equal(t, ast.LangGo, p.Language("a/b.go"))
	assert.Equal(t, ast.LangPython, p.Language("a/b.py"))
	assert.Equal(t, ast.LangUnknown, p.Language("a/b.rs"))
}

func TestParseUnsupportedLanguage(t *testing.T) {
	p := New()
	defer p.Close()

	_, err := p.Parse("lib.rs", []byte("fn main() {}"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ast.ErrUnsupportedLanguage))
}

func TestParseSyntaxError(t *testing.T) {
	p := New()
	defer p.Close()

	_, err := p.Parse("bad.py", []byte("x = 1\n\ndef broken(:\n    return\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ast.ErrSyntax))

	var perr *ast.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "bad.py", perr.Path)
	assert.Positive(t, perr.Line)
}

func TestParseTooDeep(t *testing.T) {
	src := "def deep():\n    return " + strings.Repeat("(", 60) + "1" + strings.Repeat(")", 60) + " + " +
		strings.Repeat("[", 60) + "1" + strings.Repeat("]", 60) + "\n"

	p := New(WithMaxDepth(30))
	defer p.Close()

	_, err := p.Parse("deep.py", []byte(src))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ast.ErrTooDeep))

	// The default limit accepts the same source.
	_ = parse(t, "deep.py", src)
}

func TestPythonFunctionShape(t *testing.T) {
	src := `
@cached
async def fetch(self, url: str, *args, retries=3, **kwargs) -> dict:
    """Fetch a resource."""
    # comment
    for attempt in range(retries):
        result = await self.client.get(url)
        if result.ok:
            return result.json()
    raise RuntimeError("failed")
`
	fn := onlyFunction(t, parse(t, "svc.py", src))

	assert.Equal(t, "fetch", fn.Name)
	assert.True(t, fn.Async)
	assert.Equal(t, "Fetch a resource.", fn.Doc)
	require.Len(t, fn.Decorators, 1)
	assert.Equal(t, &ast.Name{Span: fn.Decorators[0].Pos(), ID: "cached"}, fn.Decorators[0])
	assert.Equal(t, 3, fn.StartLine)
	assert.Equal(t, 10, fn.EndLine)

	require.Len(t, fn.Params, 5)
	assert.Equal(t, "self", fn.Params[0].Name)
	assert.Equal(t, "url", fn.Params[1].Name)
	assert.NotNil(t, fn.Params[1].Annotation)
	assert.Equal(t, ast.ParamVarArgs, fn.Params[2].Kind)
	assert.Equal(t, "args", fn.Params[2].Name)
	assert.Equal(t, "retries", fn.Params[3].Name)
	assert.Equal(t, &ast.Constant{Span: fn.Params[3].Default.Pos(), Kind: ast.ConstInt, Value: "3"}, fn.Params[3].Default)
	assert.Equal(t, ast.ParamKwArgs, fn.Params[4].Kind)
	assert.NotNil(t, fn.Returns)

	// Docstring and comment are gone; the loop and raise remain.
	require.Len(t, fn.Body, 2)
	loop, ok := fn.Body[0].(*ast.For)
	require.True(t, ok)
	assert.True(t, loop.Binds)
	assert.IsType(t, &ast.Raise{}, fn.Body[1])
}

func TestPythonAssignments(t *testing.T) {
	src := `
def f(items):
    a = b = 0
    total += 1
    x, *rest = items
    obj.attr = 2
    if (n := len(items)) > 2:
        pass
    return a
`
	fn := onlyFunction(t, parse(t, "a.py", src))
	require.Len(t, fn.Body, 6)

	chained := fn.Body[0].(*ast.Assign)
	assert.Len(t, chained.Targets, 2)
	assert.Len(t, chained.Values, 1)

	aug := fn.Body[1].(*ast.Assign)
	assert.Equal(t, "+=", aug.Op)

	unpack := fn.Body[2].(*ast.Assign)
	assert.Equal(t, []string{"x", "rest"}, ast.BoundNames(unpack.Targets[0]))

	attr := fn.Body[3].(*ast.Assign)
	assert.Empty(t, ast.BoundNames(attr.Targets[0]))

	locals := ast.LocalNames(fn)
	for _, name := range []string{"items", "a", "b", "total", "x", "rest", "n"} {
		assert.True(t, locals[name], "expected %s to be local", name)
	}
	assert.False(t, locals["obj"])
	assert.False(t, locals["len"])
}

func TestPythonControlFlow(t *testing.T) {
	src := `
def g(path):
    try:
        with open(path) as fh, lock:
            data = [line.strip() for line in fh if line]
    except (IOError, OSError) as exc:
        log(exc)
    else:
        pass
    finally:
        close()
    if not data:
        return None
    elif len(data) > 1 and data[0] == "x":
        return data[1:]
    else:
        return {k: v for k, v in enumerate(data)}
`
	fn := onlyFunction(t, parse(t, "b.py", src))
	require.Len(t, fn.Body, 2)

	try := fn.Body[0].(*ast.Try)
	require.Len(t, try.Handlers, 1)
	assert.Equal(t, "exc", try.Handlers[0].Target.(*ast.Name).ID)
	assert.Len(t, try.Else, 1)
	assert.Len(t, try.Finally, 1)

	with := try.Body[0].(*ast.With)
	require.Len(t, with.Items, 2)
	assert.Equal(t, "fh", with.Items[0].Target.(*ast.Name).ID)
	assert.Nil(t, with.Items[1].Target)

	ifs := fn.Body[1].(*ast.If)
	require.Len(t, ifs.Else, 1)
	elif := ifs.Else[0].(*ast.If)
	assert.Len(t, elif.Else, 1)

	locals := ast.LocalNames(fn)
	for _, name := range []string{"path", "fh", "data", "line", "exc", "k", "v"} {
		assert.True(t, locals[name], "expected %s to be local", name)
	}
}

func TestPythonGlobalsExcluded(t *testing.T) {
	src := `
def bump():
    global counter
    counter = counter + 1
    return counter
`
	fn := onlyFunction(t, parse(t, "c.py", src))
	assert.False(t, ast.LocalNames(fn)["counter"])
}

func TestPythonNestedFunctions(t *testing.T) {
	src := `
class Repo:
    def load(self):
        def inner(x):
            return x + 1
        return inner(self.value)
`
	fns := ast.Functions(parse(t, "d.py", src))
	require.Len(t, fns, 2)
	assert.Equal(t, "Repo.load", fns[0].QualifiedName)
	assert.Empty(t, fns[0].Enclosing)
	assert.Equal(t, "Repo.load.inner", fns[1].QualifiedName)
	require.Len(t, fns[1].Enclosing, 1)
	assert.Same(t, fns[0].Def, fns[1].Enclosing[0])

	outer := ast.LocalNames(fns[0].Def)
	assert.True(t, outer["inner"])
	assert.False(t, outer["x"])
}

func TestPythonStrings(t *testing.T) {
	src := `
def h(name):
    a = 'single'
    b = "single"
    c = b"raw"
    d = f"hello {name!r:>10} there"
    e = "a" "b"
`
	fn := onlyFunction(t, parse(t, "e.py", src))
	require.Len(t, fn.Body, 5)

	value := func(i int) ast.Node { return fn.Body[i].(*ast.Assign).Values[0] }

	assert.Equal(t, "single", value(0).(*ast.Constant).Value)
	assert.Equal(t, value(0).(*ast.Constant).Value, value(1).(*ast.Constant).Value)
	assert.Equal(t, ast.ConstBytes, value(2).(*ast.Constant).Kind)

	fs := value(3).(*ast.FString)
	require.Len(t, fs.Parts, 2)
	assert.Equal(t, "hello {!r:>10} there", fs.Parts[0].(*ast.Constant).Value)
	assert.Equal(t, "name", fs.Parts[1].(*ast.Name).ID)

	assert.Equal(t, "ab", value(4).(*ast.Constant).Value)
}

func TestGoFunctionShape(t *testing.T) {
	src := `package svc

import "fmt"

// Sum adds.
func (s *Service) Sum(ctx context.Context, xs ...int) (total int, err error) {
	for _, x := range xs {
		total += x
	}
	if total > 100 {
		return 0, fmt.Errorf("too big: %d", total)
	}
	return total, nil
}
`
	f := parse(t, "svc.go", src)
	assert.Equal(t, ast.LangGo, f.Language)

	fn := onlyFunction(t, f)
	assert.Equal(t, "Sum", fn.Name)
	assert.Equal(t, 6, fn.StartLine)
	assert.Equal(t, 14, fn.EndLine)

	require.Len(t, fn.Params, 5)
	assert.Equal(t, ast.ParamReceiver, fn.Params[0].Kind)
	assert.Equal(t, "s", fn.Params[0].Name)
	assert.Equal(t, "ctx", fn.Params[1].Name)
	assert.Equal(t, ast.ParamVarArgs, fn.Params[2].Kind)
	assert.Equal(t, ast.ParamResult, fn.Params[3].Kind)
	assert.Equal(t, "err", fn.Params[4].Name)

	require.Len(t, fn.Body, 3)
	loop := fn.Body[0].(*ast.For)
	assert.True(t, loop.Binds)

	ret := fn.Body[2].(*ast.Return)
	assert.Len(t, ret.Values, 2)

	locals := ast.LocalNames(fn)
	for _, name := range []string{"s", "ctx", "xs", "total", "err", "_", "x"} {
		assert.True(t, locals[name], "expected %s to be local", name)
	}
	assert.False(t, locals["fmt"])
}

func TestGoBindings(t *testing.T) {
	src := `package p

func f() int {
	var a, b int = 1, 2
	c := a + b
	b = c
	d.field = 3
	for i := 0; i < c; i++ {
		b++
	}
	switch c {
	case 1, 2:
		return a
	default:
	}
	go func() { done() }()
	defer cleanup()
	return b
}
`
	fn := onlyFunction(t, parse(t, "p.go", src))

	decl := fn.Body[0].(*ast.Assign)
	assert.Equal(t, "var", decl.Op)
	assert.Len(t, decl.Targets, 2)
	assert.Len(t, decl.Values, 2)

	plain := fn.Body[2].(*ast.Assign)
	assert.Equal(t, "=", plain.Op)
	assert.False(t, plain.Binds)

	loop := fn.Body[4].(*ast.While)
	assert.NotNil(t, loop.Init)
	assert.NotNil(t, loop.Cond)
	assert.NotNil(t, loop.Post)

	sw := fn.Body[5].(*ast.Switch)
	require.Len(t, sw.Cases, 2)
	assert.Len(t, sw.Cases[0].Values, 2)
	assert.True(t, sw.Cases[1].Default)

	assert.Equal(t, "go", fn.Body[6].(*ast.Deferred).Keyword)
	assert.Equal(t, "defer", fn.Body[7].(*ast.Deferred).Keyword)

	locals := ast.LocalNames(fn)
	for _, name := range []string{"a", "b", "c", "i"} {
		assert.True(t, locals[name], "expected %s to be local", name)
	}
	assert.False(t, locals["d"])

	// The closure is reported as its own anonymous function.
	all := ast.Functions(parse(t, "p.go", src))
	require.Len(t, all, 2)
	assert.Equal(t, "f.<anonymous>", all[1].QualifiedName)
}

func TestGoCompositeLiterals(t *testing.T) {
	src := `package p

func build() []Point {
	return []Point{{X: 1, Y: 2}, {3, 4}}
}
`
	fn := onlyFunction(t, parse(t, "lit.go", src))
	ret := fn.Body[0].(*ast.Return)
	require.Len(t, ret.Values, 1)

	lit := ret.Values[0].(*ast.Collection)
	assert.Equal(t, ast.CollComposite, lit.Kind)
	assert.Equal(t, "[]Point", lit.Type.(*ast.TypeRef).Text)
	require.Len(t, lit.Elts, 2)

	keyed := lit.Elts[0].(*ast.Collection)
	require.Len(t, keyed.Elts, 2)
	assert.IsType(t, &ast.Pair{}, keyed.Elts[0])
}
