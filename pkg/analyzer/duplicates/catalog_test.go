package duplicates

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/consolidate/internal/cache"
	"github.com/panbanda/consolidate/pkg/ast"
	"github.com/panbanda/consolidate/pkg/ast/treesitter"
	"github.com/panbanda/consolidate/pkg/source"
)

type countingParser struct {
	ast.Parser
	parses *atomic.Int32
}

func (p countingParser) Parse(path string, src []byte) (*ast.File, error) {
	p.parses.Add(1)
	return p.Parser.Parse(path, src)
}

func newBuilder(src source.ContentSource, parses *atomic.Int32) *CatalogBuilder {
	return &CatalogBuilder{
		source: src,
		newParser: func() (ast.Parser, error) {
			return countingParser{Parser: treesitter.New(), parses: parses}, nil
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

const pyPair = `def first(a, b):
    return a + b


class Box:
    def second(self, x):
        def inner(y):
            return y * x
        return inner
`

func TestCatalogBuild(t *testing.T) {
	src := source.NewMap(map[string][]byte{
		"/proj/pkg/b.py": []byte(pyPair),
		"/proj/a.go":     []byte("package a\n\nfunc Sum(xs []int) int {\n\tt := 0\n\tfor _, x := range xs {\n\t\tt += x\n\t}\n\treturn t\n}\n"),
	})
	var parses atomic.Int32

	cat, err := newBuilder(src, &parses).Build(context.Background(), "/proj", []string{"/proj/pkg/b.py", "/proj/a.go"})
	require.NoError(t, err)

	assert.Equal(t, 2, cat.FilesAnalyzed)
	assert.Empty(t, cat.Warnings)

	var names []string
	for _, s := range cat.Signatures {
		names = append(names, s.File+":"+s.QualifiedName)
	}
	assert.Equal(t, []string{
		"a.go:Sum",
		"pkg/b.py:first",
		"pkg/b.py:Box.second",
		"pkg/b.py:Box.second.inner",
	}, names)

	sum := cat.Signatures[0]
	assert.Equal(t, ast.LangGo, sum.Language)
	assert.Equal(t, 3, sum.StartLine)
	assert.Equal(t, 9, sum.EndLine)
	assert.Equal(t, []string{"xs"}, sum.Params)
	assert.False(t, sum.BodyHash.IsZero())

	second := cat.Signatures[2]
	assert.Equal(t, "second", second.Name)
	assert.Equal(t, []string{"self", "x"}, second.Params)
}

func TestCatalogBuildRecordsWarnings(t *testing.T) {
	src := source.NewMap(map[string][]byte{
		"/proj/ok.py":     []byte("def f(a):\n    return a\n"),
		"/proj/broken.py": []byte("def f(:\n    return\n"),
	})
	var parses atomic.Int32

	cat, err := newBuilder(src, &parses).Build(context.Background(), "/proj",
		[]string{"/proj/ok.py", "/proj/missing.py", "/proj/broken.py"})
	require.NoError(t, err)

	assert.Equal(t, 1, cat.FilesAnalyzed)
	require.Len(t, cat.Signatures, 1)
	require.Len(t, cat.Warnings, 2)

	assert.Equal(t, "broken.py", cat.Warnings[0].Path)
	assert.Equal(t, FileErrorParse, cat.Warnings[0].Kind)
	var pe *ast.ParseError
	assert.ErrorAs(t, cat.Warnings[0], &pe)

	assert.Equal(t, "missing.py", cat.Warnings[1].Path)
	assert.Equal(t, FileErrorIO, cat.Warnings[1].Kind)
	assert.ErrorIs(t, cat.Warnings[1], fs.ErrNotExist)
}

func TestCatalogBuildReportsOversizedFiles(t *testing.T) {
	src := source.NewMap(map[string][]byte{
		"/proj/small.py": []byte("def f():\n    pass\n"),
		"/proj/big.py":   []byte("def g():\n    return 'this file is well over the limit'\n"),
	})
	var parses atomic.Int32
	b := newBuilder(src, &parses)
	b.maxFileSize = 32

	cat, err := b.Build(context.Background(), "/proj", []string{"/proj/small.py", "/proj/big.py"})
	require.NoError(t, err)

	assert.Equal(t, 1, cat.FilesAnalyzed)
	require.Len(t, cat.Warnings, 1)
	assert.Equal(t, "big.py", cat.Warnings[0].Path)
	assert.Equal(t, FileErrorSize, cat.Warnings[0].Kind)
	assert.ErrorIs(t, cat.Warnings[0], ErrFileTooLarge)
	assert.Equal(t, int32(1), parses.Load())
	require.Len(t, cat.Signatures, 1)
	assert.Equal(t, "f", cat.Signatures[0].Name)
}

func TestCatalogBuildUsesCache(t *testing.T) {
	c, err := cache.New(t.TempDir(), 0, true)
	require.NoError(t, err)

	src := source.NewMap(map[string][]byte{"/proj/a.py": []byte(pyPair)})
	var parses atomic.Int32
	b := newBuilder(src, &parses)
	b.cache = c

	first, err := b.Build(context.Background(), "/proj", []string{"/proj/a.py"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), parses.Load())

	second, err := b.Build(context.Background(), "/proj", []string{"/proj/a.py"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), parses.Load(), "second build should be served from cache")
	assert.Equal(t, first, second)

	src.Put("/proj/a.py", []byte(pyPair+"\n\ndef third():\n    pass\n"))
	third, err := b.Build(context.Background(), "/proj", []string{"/proj/a.py"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), parses.Load(), "changed content must be reparsed")
	assert.Len(t, third.Signatures, 4)
}

func TestCatalogBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := source.NewMap(map[string][]byte{"/proj/a.py": []byte(pyPair)})
	var parses atomic.Int32

	cat, err := newBuilder(src, &parses).Build(ctx, "/proj", []string{"/proj/a.py"})
	assert.Nil(t, cat)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCatalogBuildParserInitFailure(t *testing.T) {
	b := newBuilder(source.NewMap(nil), new(atomic.Int32))
	b.newParser = func() (ast.Parser, error) { return nil, errors.New("no grammar") }

	_, err := b.Build(context.Background(), "/proj", []string{"/proj/a.py"})
	assert.ErrorContains(t, err, "no grammar")
}

func TestRelativizer(t *testing.T) {
	rel := relativizer("/proj")

	assert.Equal(t, "a/b.py", rel("/proj/a/b.py"))
	assert.Equal(t, "/elsewhere/c.py", rel("/elsewhere/c.py"))
	assert.Equal(t, "/proj2/c.py", rel("/proj2/c.py"))
}
