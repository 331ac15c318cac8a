// Package duplicates finds functions that are structurally identical once
// local names are disregarded, and turns them into consolidation advice.
package duplicates

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/panbanda/consolidate/internal/cache"
	"github.com/panbanda/consolidate/internal/scanner"
	"github.com/panbanda/consolidate/pkg/ast"
	"github.com/panbanda/consolidate/pkg/config"
	"github.com/panbanda/consolidate/pkg/source"
)

// Enumerator lists the candidate files under a root.
type Enumerator interface {
	ScanDir(root string) ([]string, error)
}

// Progress receives scan progress. Tick may be called concurrently.
type Progress interface {
	Start(total int)
	Tick()
}

// Analyzer detects structurally duplicated functions across a project.
type Analyzer struct {
	minLines    int
	threshold   float64
	workers     int
	maxFileSize int64

	enumerator  Enumerator
	source      source.ContentSource
	newParser   ParserFactory
	cache       *cache.Cache
	logger      *slog.Logger
	progress    Progress
	recommender *Recommender
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithMinLines sets the minimum function length, in lines, for grouping.
func WithMinLines(n int) Option {
	return func(a *Analyzer) {
		a.minLines = n
	}
}

// WithSimilarityThreshold sets the similarity a group must reach to be reported.
func WithSimilarityThreshold(threshold float64) Option {
	return func(a *Analyzer) {
		a.threshold = threshold
	}
}

// WithWorkers caps the number of files processed concurrently (0 = 2x NumCPU).
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		a.workers = n
	}
}

// WithMaxFileSize sets the maximum file size to analyze (0 = no limit).
func WithMaxFileSize(maxSize int64) Option {
	return func(a *Analyzer) {
		a.maxFileSize = maxSize
	}
}

// WithEnumerator replaces the default gitignore-aware scanner.
func WithEnumerator(e Enumerator) Option {
	return func(a *Analyzer) {
		a.enumerator = e
	}
}

// WithSource sets where file content is read from.
func WithSource(src source.ContentSource) Option {
	return func(a *Analyzer) {
		a.source = src
	}
}

// WithParserFactory sets how per-worker parsers are created.
func WithParserFactory(f ParserFactory) Option {
	return func(a *Analyzer) {
		a.newParser = f
	}
}

// WithCache reuses per-file signatures across runs.
func WithCache(c *cache.Cache) Option {
	return func(a *Analyzer) {
		a.cache = c
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithProgress reports per-file progress.
func WithProgress(p Progress) Option {
	return func(a *Analyzer) {
		a.progress = p
	}
}

// WithGenericNames sets names never chosen as a group's suggested name.
func WithGenericNames(names []string) Option {
	return func(a *Analyzer) {
		a.recommender.setGenericNames(names)
	}
}

// WithSharedDir sets the directory suggested when group members only share the root.
func WithSharedDir(dir string) Option {
	return func(a *Analyzer) {
		a.recommender.sharedDir = dir
	}
}

// WithRepeatedNameMin sets how many distinct files must define a name before
// it is reported as repeated.
func WithRepeatedNameMin(n int) Option {
	return func(a *Analyzer) {
		a.recommender.repeatedNameMin = n
	}
}

// WithIgnoredNames sets names never reported as repeated.
func WithIgnoredNames(names []string) Option {
	return func(a *Analyzer) {
		a.recommender.setIgnoredNames(names)
	}
}

// WithConfig applies every setting from a loaded configuration. The cache is
// configured separately, since opening it touches the filesystem.
func WithConfig(cfg *config.Config) Option {
	return func(a *Analyzer) {
		a.minLines = cfg.Duplicates.MinLines
		a.threshold = cfg.Duplicates.SimilarityThreshold
		a.workers = cfg.Analysis.Workers
		a.maxFileSize = cfg.Analysis.MaxFileSize
		a.enumerator = scanner.NewScanner(cfg)
		a.recommender.setGenericNames(cfg.Duplicates.GenericNames)
		a.recommender.sharedDir = cfg.Duplicates.SharedDir
		a.recommender.repeatedNameMin = cfg.Recommendations.RepeatedNameMinFiles
		a.recommender.setIgnoredNames(cfg.Recommendations.IgnoredNames)
	}
}

// New creates a new duplicate analyzer with default config.
func New(opts ...Option) *Analyzer {
	defaults := config.DefaultConfig()
	a := &Analyzer{
		minLines:    defaults.Duplicates.MinLines,
		threshold:   defaults.Duplicates.SimilarityThreshold,
		enumerator:  scanner.NewScanner(defaults),
		source:      source.NewFilesystem(),
		newParser:   DefaultParserFactory,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		recommender: NewRecommender(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// MinLines returns the effective minimum function length.
func (a *Analyzer) MinLines() int { return a.minLines }

// Threshold returns the effective similarity threshold.
func (a *Analyzer) Threshold() float64 { return a.threshold }

// AnalyzeProject scans root and reports its duplicate functions.
//
// Per-file failures are recorded in the result's Warnings. The returned error
// is a *RootError when root is not a readable directory, or ctx.Err() when the
// scan is cancelled; no partial analysis is returned in either case.
func (a *Analyzer) AnalyzeProject(ctx context.Context, root string) (*ProjectAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkRoot(root); err != nil {
		return nil, err
	}

	start := time.Now()
	files, err := a.enumerator.ScanDir(root)
	if err != nil {
		return nil, &RootError{Path: root, Err: err}
	}
	if a.logger.Enabled(ctx, slog.LevelDebug) {
		byLang := scanner.GroupByLanguage(files)
		a.logger.Debug("enumerated files",
			"root", root,
			"files", len(files),
			"go", len(byLang[ast.LangGo]),
			"python", len(byLang[ast.LangPython]),
			"elapsed", time.Since(start))
	}

	return a.AnalyzeFiles(ctx, root, files)
}

// AnalyzeFiles analyzes an explicit file list. Every file must lie under root,
// which is used to relativize paths in the result.
func (a *Analyzer) AnalyzeFiles(ctx context.Context, root string, files []string) (*ProjectAnalysis, error) {
	builder := &CatalogBuilder{
		source:      a.source,
		newParser:   a.newParser,
		cache:       a.cache,
		workers:     a.workers,
		maxFileSize: a.maxFileSize,
		logger:      a.logger,
	}
	if a.progress != nil {
		a.progress.Start(len(files))
		builder.onProgress = a.progress.Tick
	}

	cat, err := builder.Build(ctx, root, files)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	groups := groupByHash(cat.Signatures, a.threshold, a.minLines)
	a.recommender.Annotate(groups)

	analysis := &ProjectAnalysis{
		Root:            root,
		FilesAnalyzed:   cat.FilesAnalyzed,
		FunctionsFound:  len(cat.Signatures),
		Groups:          groups,
		Recommendations: a.recommender.Recommendations(groups, cat.Signatures),
		Hotspots:        a.recommender.Hotspots(groups),
		Warnings:        cat.Warnings,
		MinLines:        a.minLines,
		Threshold:       a.threshold,
	}
	a.logger.Debug("grouped duplicates",
		"groups", len(groups),
		"savings", analysis.PotentialSavings(),
		"elapsed", time.Since(start))

	return analysis, nil
}

func checkRoot(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return &RootError{Path: root, Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return &RootError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return &RootError{Path: root, Err: errNotDir}
	}
	return nil
}

var errNotDir = errors.New("not a directory")
