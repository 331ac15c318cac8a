package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/panbanda/consolidate/pkg/ast"
	"github.com/panbanda/consolidate/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func relPaths(t *testing.T, root string, files []string) []string {
	t.Helper()
	out := make([]string, len(files))
	for i, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

func TestNewScanner(t *testing.T) {
	s := NewScanner(nil)
	require.NotNil(t, s)
	assert.NotNil(t, s.config)

	cfg := config.DefaultConfig()
	assert.Same(t, cfg, NewScanner(cfg).config)
}

func TestScanDir(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"main.go":          "package main\n",
		"lib.go":           "package lib\n",
		"util/helper.go":   "package util\n",
		"util/helper.py":   "# python\n",
		"util.py":          "# python\n",
		"internal/core.rs": "fn main() {}\n",
		"README.md":        "# readme\n",
	})

	result, err := NewScanner(nil).ScanDir(tmpDir)
	require.NoError(t, err)

	// Sorted by slash path: "util.py" sorts before "util/...".
	assert.Equal(t, []string{
		"lib.go",
		"main.go",
		"util.py",
		"util/helper.go",
		"util/helper.py",
	}, relPaths(t, tmpDir, result))
}

func TestScanDirIsStable(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"b/x.py": "", "a/y.py": "", "a/b/z.py": "", "c.go": "package c\n",
	})

	s := NewScanner(nil)
	first, err := s.ScanDir(tmpDir)
	require.NoError(t, err)
	second, err := s.ScanDir(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestScanDirExcludesDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"vendor/file.go":         "package x\n",
		"node_modules/file.go":   "package x\n",
		".git/file.go":           "package x\n",
		"pkg/__pycache__/mod.py": "",
		"main.go":                "package main\n",
	})

	result, err := NewScanner(nil).ScanDir(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, relPaths(t, tmpDir, result))
}

func TestScanDirExcludesPatterns(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"main.go":            "package main\n",
		"main_test.go":       "package main\n",
		"pkg/test_helper.py": "",
		"pkg/helper.py":      "",
	})

	result, err := NewScanner(nil).ScanDir(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go", "pkg/helper.py"}, relPaths(t, tmpDir, result))
}

func TestScanDirWithGitignore(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, ".git"), 0755))
	writeTree(t, tmpDir, map[string]string{
		".gitignore":         "skipme/\n*.gen.go\n",
		"main.go":            "package main\n",
		"skipme/skip.go":     "package skipme\n",
		"src/app.go":         "package src\n",
		"src/model.gen.go":   "package src\n",
		"src/.gitignore":     "local.py\n",
		"src/local.py":       "",
		"other/local.py":     "",
	})

	cfg := config.DefaultConfig()
	cfg.Exclude.Gitignore = true

	result, err := NewScanner(cfg).ScanDir(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go", "other/local.py", "src/app.go"}, relPaths(t, tmpDir, result))
}

func TestScanDirGitignoreFromRepoRoot(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(repo, ".git"), 0755))
	writeTree(t, repo, map[string]string{
		".gitignore":            "generated/\n",
		"svc/app.py":            "",
		"svc/generated/gen.py":  "",
	})

	// Scanning a subdirectory still honours the repository's ignore rules.
	root := filepath.Join(repo, "svc")
	result, err := NewScanner(nil).ScanDir(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.py"}, relPaths(t, root, result))
}

func TestScanDirDisabledGitignore(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, ".git"), 0755))
	writeTree(t, tmpDir, map[string]string{
		".gitignore":      "ignored/\n",
		"ignored/file.go": "package x\n",
	})

	cfg := config.DefaultConfig()
	cfg.Exclude.Gitignore = false

	result, err := NewScanner(cfg).ScanDir(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"ignored/file.go"}, relPaths(t, tmpDir, result))
}

func TestScanDirEmptyDirectory(t *testing.T) {
	result, err := NewScanner(nil).ScanDir(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestScanDirMissingRoot(t *testing.T) {
	_, err := NewScanner(nil).ScanDir(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestScanFile(t *testing.T) {
	tmpDir := t.TempDir()
	s := NewScanner(nil)

	assert.True(t, s.ScanFile(tmpDir, "pkg/util.py"))
	assert.True(t, s.ScanFile(tmpDir, filepath.Join(tmpDir, "main.go")))
	assert.False(t, s.ScanFile(tmpDir, "README.md"))
	assert.False(t, s.ScanFile(tmpDir, "vendor/x.go"))
	assert.False(t, s.ScanFile(tmpDir, "main_test.go"))
	assert.False(t, s.ScanFile(tmpDir, filepath.Join(filepath.Dir(tmpDir), "elsewhere.py")))
}

func TestGroupByLanguage(t *testing.T) {
	groups := GroupByLanguage([]string{"a.go", "b.py", "c.go", "d.txt"})

	assert.Equal(t, []string{"a.go", "c.go"}, groups[ast.LangGo])
	assert.Equal(t, []string{"b.py"}, groups[ast.LangPython])
	assert.Len(t, groups, 2)
	assert.Empty(t, GroupByLanguage(nil))
}

func TestIsWithinRoot(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"same path", tmpDir, true},
		{"child path", filepath.Join(tmpDir, "subdir", "file.go"), true},
		{"path outside root", "/some/other/path", false},
		{"parent path", filepath.Dir(tmpDir), false},
		{"similar prefix but different dir", tmpDir + "2/file.go", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isWithinRoot(tt.path, tmpDir))
		})
	}
}

func TestFindGitRoot(t *testing.T) {
	tmpDir := t.TempDir()
	assert.Empty(t, findGitRoot(tmpDir))

	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, ".git"), 0755))
	assert.Equal(t, tmpDir, findGitRoot(tmpDir))

	subDir := filepath.Join(tmpDir, "src", "pkg")
	require.NoError(t, os.MkdirAll(subDir, 0755))
	assert.Equal(t, tmpDir, findGitRoot(subDir))
}

func TestScanDirWithSymlinks(t *testing.T) {
	tmpDir := t.TempDir()
	realFile := filepath.Join(tmpDir, "real.go")
	require.NoError(t, os.WriteFile(realFile, []byte("package main\n"), 0644))
	if err := os.Symlink(realFile, filepath.Join(tmpDir, "link.go")); err != nil {
		t.Skip("Symlinks not supported on this system")
	}
	if err := os.Symlink("/nonexistent/path/file.go", filepath.Join(tmpDir, "dangling.go")); err != nil {
		t.Skip("Symlinks not supported on this system")
	}

	outsideDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outsideDir, "outside.go"), []byte("package outside\n"), 0644))
	require.NoError(t, os.Symlink(outsideDir, filepath.Join(tmpDir, "linked")))
	require.NoError(t, os.Symlink(filepath.Join(outsideDir, "outside.go"), filepath.Join(tmpDir, "escape.go")))

	result, err := NewScanner(nil).ScanDir(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"link.go", "real.go"}, relPaths(t, tmpDir, result))
}
