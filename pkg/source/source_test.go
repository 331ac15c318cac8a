package source

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ContentSource = (*FilesystemSource)(nil)
	_ ContentSource = (*BillySource)(nil)
	_ ContentSource = (*MapSource)(nil)
	_ Sizer         = (*FilesystemSource)(nil)
	_ Sizer         = (*BillySource)(nil)
)

func TestFilesystemSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	require.NoError(t, os.WriteFile(path, []byte("def f():\n    pass\n"), 0o644))

	src := NewFilesystem()

	content, err := src.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "def f():\n    pass\n", string(content))

	size, err := src.Size(path)
	require.NoError(t, err)
	assert.EqualValues(t, len(content), size)

	_, err = src.Read(filepath.Join(dir, "missing.py"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestBillySource(t *testing.T) {
	mem := memfs.New()
	require.NoError(t, util.WriteFile(mem, "pkg/util.go", []byte("package pkg\n"), 0o644))

	src := NewBilly(mem)

	content, err := src.Read("pkg/util.go")
	require.NoError(t, err)
	assert.Equal(t, "package pkg\n", string(content))

	size, err := src.Size("pkg/util.go")
	require.NoError(t, err)
	assert.EqualValues(t, 12, size)

	_, err = src.Read("nope.go")
	assert.Error(t, err)
}

func TestMapSource(t *testing.T) {
	files := map[string][]byte{"a.py": []byte("x = 1\n")}
	src := NewMap(files)

	files["b.py"] = []byte("leaked")
	_, err := src.Read("b.py")
	assert.ErrorIs(t, err, fs.ErrNotExist, "NewMap copies its input")

	src.Put("b.py", []byte("y = 2\n"))
	content, err := src.Read("b.py")
	require.NoError(t, err)
	assert.Equal(t, "y = 2\n", string(content))
}
