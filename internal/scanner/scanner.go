// Package scanner enumerates the source files of a project.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/panbanda/consolidate/pkg/ast"
	"github.com/panbanda/consolidate/pkg/config"
)

// Scanner finds source files in a directory.
type Scanner struct {
	config *config.Config
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// findGitRoot finds the root of the git repository by looking for .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// matcher applies gitignore-syntax patterns to paths relative to base.
type matcher struct {
	base string
	m    gitignore.Matcher
}

func (m matcher) match(path string, isDir bool) bool {
	rel, err := filepath.Rel(m.base, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	return m.m.Match(strings.Split(filepath.ToSlash(rel), "/"), isDir)
}

// loadMatchers builds matchers from config patterns (relative to root) and,
// if enabled, from every .gitignore of the enclosing repository.
func (s *Scanner) loadMatchers(root string) []matcher {
	var matchers []matcher

	if len(s.config.Exclude.Patterns) > 0 {
		patterns := make([]gitignore.Pattern, 0, len(s.config.Exclude.Patterns))
		for _, pattern := range s.config.Exclude.Patterns {
			patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
		}
		matchers = append(matchers, matcher{base: root, m: gitignore.NewMatcher(patterns)})
	}

	if s.config.Exclude.Gitignore {
		if gitRoot := findGitRoot(root); gitRoot != "" {
			// ReadPatterns walks every .gitignore below the repository root.
			if gitPatterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil); err == nil && len(gitPatterns) > 0 {
				matchers = append(matchers, matcher{base: gitRoot, m: gitignore.NewMatcher(gitPatterns)})
			}
		}
	}

	return matchers
}

func isExcluded(matchers []matcher, path string, isDir bool) bool {
	for _, m := range matchers {
		if m.match(path, isDir) {
			return true
		}
	}
	return false
}

// ScanDir recursively scans a directory for source files of a supported
// language. Paths are returned joined onto root, sorted by their slash-separated
// path relative to root. Symlinks that resolve outside root are skipped.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	matchers := s.loadMatchers(absRoot)

	type entry struct {
		rel  string
		path string
	}
	entries := make([]entry, 0, 256)

	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			return nil
		}
		if path == absRoot {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
			info, err := os.Stat(resolved)
			if err != nil || info.IsDir() {
				// Linked directories are not followed.
				return nil
			}
		}

		if d.IsDir() {
			if s.config.ShouldExcludeDir(d.Name()) || isExcluded(matchers, path, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if isExcluded(matchers, path, false) {
			return nil
		}
		if ast.LanguageOf(path) == ast.LangUnknown {
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		entries = append(entries, entry{
			rel:  filepath.ToSlash(rel),
			path: filepath.Join(root, rel),
		})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].rel < entries[j].rel })

	files := make([]string, len(entries))
	for i, e := range entries {
		files[i] = e.path
	}
	return files, nil
}

// isWithinRoot checks if a path is contained within the root directory.
// Returns false if the path escapes via symlinks or relative paths.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// Add separator to prevent "/root2" matching "/root"
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// ScanFile checks if a single file, given relative to root, would be analyzed.
// The watcher uses it to decide whether a change event warrants a rescan.
func (s *Scanner) ScanFile(root, path string) bool {
	if ast.LanguageOf(path) == ast.LangUnknown {
		return false
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	absPath := path
	if !filepath.IsAbs(absPath) {
		absPath = filepath.Join(absRoot, path)
	}
	if !isWithinRoot(absPath, absRoot) {
		return false
	}

	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return false
	}
	if s.config.ShouldExclude(rel) {
		return false
	}

	return !isExcluded(s.loadMatchers(absRoot), absPath, false)
}

// GroupByLanguage groups files by their detected language.
func GroupByLanguage(files []string) map[ast.Language][]string {
	groups := make(map[ast.Language][]string)
	for _, f := range files {
		lang := ast.LanguageOf(f)
		if lang != ast.LangUnknown {
			groups[lang] = append(groups[lang], f)
		}
	}
	return groups
}
