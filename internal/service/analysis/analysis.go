// Package analysis wires configuration into the duplicate analyzer for the
// CLI, the watcher and the MCP server.
package analysis

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/panbanda/consolidate/internal/cache"
	"github.com/panbanda/consolidate/pkg/analyzer/duplicates"
	"github.com/panbanda/consolidate/pkg/config"
)

// Service runs duplicate analysis with a fixed configuration.
type Service struct {
	config  *config.Config
	logger  *slog.Logger
	noCache bool
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithLogger sets the logger handed to the analyzer.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithoutCache disables the signature cache even when the config enables it.
func WithoutCache() Option {
	return func(s *Service) {
		s.noCache = true
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.DefaultConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the configuration in use.
func (s *Service) Config() *config.Config {
	return s.config
}

// DuplicatesOptions overrides configuration for a single run. Zero values
// keep the configured setting. Threshold is a pointer so an explicit 0 still
// overrides.
type DuplicatesOptions struct {
	MinLines  int
	Threshold *float64
	Workers   int
	Progress  duplicates.Progress
}

// AnalyzeDuplicates scans root for duplicate functions.
func (s *Service) AnalyzeDuplicates(ctx context.Context, root string, opts DuplicatesOptions) (*duplicates.ProjectAnalysis, error) {
	analyzerOpts := []duplicates.Option{
		duplicates.WithConfig(s.config),
		duplicates.WithLogger(s.logger),
	}
	if opts.MinLines > 0 {
		analyzerOpts = append(analyzerOpts, duplicates.WithMinLines(opts.MinLines))
	}
	if opts.Threshold != nil {
		analyzerOpts = append(analyzerOpts, duplicates.WithSimilarityThreshold(*opts.Threshold))
	}
	if opts.Workers > 0 {
		analyzerOpts = append(analyzerOpts, duplicates.WithWorkers(opts.Workers))
	}
	if opts.Progress != nil {
		analyzerOpts = append(analyzerOpts, duplicates.WithProgress(opts.Progress))
	}
	if c := s.openCache(root); c != nil {
		analyzerOpts = append(analyzerOpts, duplicates.WithCache(c))
	}

	return duplicates.New(analyzerOpts...).AnalyzeProject(ctx, root)
}

// CacheDir returns the signature cache directory for root. Relative cache
// dirs are resolved against root.
func (s *Service) CacheDir(root string) string {
	dir := s.config.Cache.Dir
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

// OpenCache opens the signature cache for root regardless of whether caching
// is enabled, for inspection and cleanup.
func (s *Service) OpenCache(root string) (*cache.Cache, error) {
	return cache.New(s.CacheDir(root), s.config.Cache.TTL, true)
}

// openCache returns nil when caching is off or the cache cannot be created.
// A broken cache never fails a scan.
func (s *Service) openCache(root string) *cache.Cache {
	if s.noCache || !s.config.Cache.Enabled {
		return nil
	}
	c, err := s.OpenCache(root)
	if err != nil {
		s.logger.Warn("signature cache disabled", "dir", s.CacheDir(root), "err", err)
		return nil
	}
	return c
}
