package duplicates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/panbanda/consolidate/internal/cache"
	"github.com/panbanda/consolidate/internal/fileproc"
	"github.com/panbanda/consolidate/pkg/ast"
	"github.com/panbanda/consolidate/pkg/ast/treesitter"
	"github.com/panbanda/consolidate/pkg/source"
)

// normalizerVersion is folded into cache keys. Bump it whenever the canonical
// text of an unchanged function may differ.
const normalizerVersion = "consolidate/normalize/2"

// ParserFactory creates a parser for one worker.
type ParserFactory func() (ast.Parser, error)

// DefaultParserFactory returns tree-sitter backed parsers.
func DefaultParserFactory() (ast.Parser, error) {
	return treesitter.New(), nil
}

// Catalog is every function found under one root.
type Catalog struct {
	// Signatures are ordered by file, then start line, then qualified name.
	Signatures []FunctionSignature
	// FilesAnalyzed counts files that were parsed successfully.
	FilesAnalyzed int
	// Warnings lists skipped files ordered by path.
	Warnings []*FileError
}

// CatalogBuilder parses files concurrently into a Catalog.
type CatalogBuilder struct {
	source      source.ContentSource
	newParser   ParserFactory
	cache       *cache.Cache
	workers     int
	maxFileSize int64
	logger      *slog.Logger
	onProgress  fileproc.ProgressFunc
}

type fileResult struct {
	signatures []FunctionSignature
	parsed     bool
}

// Build reads and parses files, which must lie under root. Unreadable and
// unparsable files become warnings; only cancellation fails the build.
func (b *CatalogBuilder) Build(ctx context.Context, root string, files []string) (*Catalog, error) {
	start := time.Now()
	rel := relativizer(root)

	results, errs, err := fileproc.MapWithResource(ctx, files,
		fileproc.Options{Workers: b.workers, OnProgress: b.onProgress},
		b.newParser,
		func(p ast.Parser) { p.Close() },
		func(_ context.Context, p ast.Parser, path string) (fileResult, error) {
			return b.processFile(p, rel(path), path)
		},
	)
	if err != nil {
		return nil, err
	}

	cat := &Catalog{Signatures: make([]FunctionSignature, 0)}
	for _, res := range results {
		if res.parsed {
			cat.FilesAnalyzed++
		}
		cat.Signatures = append(cat.Signatures, res.signatures...)
	}
	sort.SliceStable(cat.Signatures, func(i, j int) bool { return cat.Signatures[i].less(cat.Signatures[j]) })

	if errs.HasErrors() {
		for _, pe := range errs.Errors {
			var fe *FileError
			if !errors.As(pe.Err, &fe) {
				fe = newFileError(rel(pe.Path), FileErrorParse, pe.Err)
			}
			b.logger.Warn("skipping file", "path", fe.Path, "kind", fe.Kind, "err", fe.Err)
			cat.Warnings = append(cat.Warnings, fe)
		}
		sort.SliceStable(cat.Warnings, func(i, j int) bool { return cat.Warnings[i].Path < cat.Warnings[j].Path })
	}

	b.logger.Debug("catalog built",
		"files", len(files),
		"parsed", cat.FilesAnalyzed,
		"functions", len(cat.Signatures),
		"warnings", len(cat.Warnings),
		"elapsed", time.Since(start))
	return cat, nil
}

func (b *CatalogBuilder) tooLarge(rel string, size int64) *FileError {
	return newFileError(rel, FileErrorSize, fmt.Errorf("%w: %d > %d bytes", ErrFileTooLarge, size, b.maxFileSize))
}

func (b *CatalogBuilder) processFile(p ast.Parser, rel, path string) (fileResult, error) {
	if b.maxFileSize > 0 {
		if sizer, ok := b.source.(source.Sizer); ok {
			if size, err := sizer.Size(path); err == nil && size > b.maxFileSize {
				return fileResult{}, b.tooLarge(rel, size)
			}
		}
	}

	content, err := b.source.Read(path)
	if err != nil {
		return fileResult{}, newFileError(rel, FileErrorIO, err)
	}
	if b.maxFileSize > 0 && int64(len(content)) > b.maxFileSize {
		return fileResult{}, b.tooLarge(rel, int64(len(content)))
	}

	var key string
	if b.cache.Enabled() {
		key = cache.Key(content, normalizerVersion, rel)
		if data, ok := b.cache.Get(key); ok {
			var sigs []FunctionSignature
			if err := json.Unmarshal(data, &sigs); err == nil {
				return fileResult{signatures: sigs, parsed: true}, nil
			}
			b.logger.Debug("discarding unreadable cache entry", "path", rel)
			_ = b.cache.Invalidate(key)
		}
	}

	file, err := p.Parse(rel, content)
	if err != nil {
		return fileResult{}, newFileError(rel, FileErrorParse, err)
	}
	sigs := Signatures(file)

	if key != "" {
		data, err := json.Marshal(sigs)
		if err == nil {
			err = b.cache.Set(key, data)
		}
		if err != nil {
			b.logger.Debug("cache write failed", "path", rel, "err", err)
		}
	}

	return fileResult{signatures: sigs, parsed: true}, nil
}

// Signatures builds a FunctionSignature for every function in file, nested
// functions and methods included, in source order.
func Signatures(file *ast.File) []FunctionSignature {
	funcs := ast.Functions(file)
	sigs := make([]FunctionSignature, 0, len(funcs))
	for _, fi := range funcs {
		def := fi.Def
		name := def.Name
		if name == "" {
			name = "<anonymous>"
		}
		sigs = append(sigs, FunctionSignature{
			File:          file.Path,
			Name:          name,
			QualifiedName: fi.QualifiedName,
			Language:      file.Language,
			StartLine:     def.StartLine,
			EndLine:       def.EndLine,
			Params:        paramNames(def.Params),
			BodyHash:      Hash(Normalize(file.Language, def, fi.Enclosing)),
		})
	}
	return sigs
}

// paramNames lists the names callers bind: plain, variadic and keyword
// parameters. Receivers, results and separators are left out.
func paramNames(params []*ast.Param) []string {
	names := make([]string, 0, len(params))
	for _, p := range params {
		switch p.Kind {
		case ast.ParamPlain, ast.ParamVarArgs, ast.ParamKwArgs:
			if p.Name != "" {
				names = append(names, p.Name)
			}
		}
	}
	return names
}

// relativizer returns a func mapping paths under root to slash-separated
// relative paths. Both the absolute and the symlink-resolved forms of root are
// tried, since the scanner reports resolved paths. Paths outside root are
// returned cleaned but otherwise unchanged.
func relativizer(root string) func(string) string {
	var bases []string
	if abs, err := filepath.Abs(root); err == nil {
		bases = append(bases, abs)
		if real, err := filepath.EvalSymlinks(abs); err == nil && real != abs {
			bases = append(bases, real)
		}
	}
	return func(path string) string {
		p, err := filepath.Abs(path)
		if err != nil {
			return filepath.ToSlash(filepath.Clean(path))
		}
		for _, base := range bases {
			if rel, ok := within(base, p); ok {
				return filepath.ToSlash(rel)
			}
		}
		return filepath.ToSlash(filepath.Clean(path))
	}
}

func within(base, path string) (string, bool) {
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}
