package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for consolidate.
type Config struct {
	// Duplicate detection settings
	Duplicates DuplicatesConfig `koanf:"duplicates" toml:"duplicates" yaml:"duplicates"`

	// Free-text recommendation settings
	Recommendations RecommendationsConfig `koanf:"recommendations" toml:"recommendations" yaml:"recommendations"`

	// Scan execution settings
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis" yaml:"analysis"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude" yaml:"exclude"`

	// Cache settings
	Cache CacheConfig `koanf:"cache" toml:"cache" yaml:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output" yaml:"output"`
}

// DuplicatesConfig controls grouping and suggestions.
type DuplicatesConfig struct {
	MinLines            int      `koanf:"min_lines" toml:"min_lines" yaml:"min_lines"`
	SimilarityThreshold float64  `koanf:"similarity_threshold" toml:"similarity_threshold" yaml:"similarity_threshold"`
	GenericNames        []string `koanf:"generic_names" toml:"generic_names" yaml:"generic_names"`
	SharedDir           string   `koanf:"shared_dir" toml:"shared_dir" yaml:"shared_dir"`
}

// RecommendationsConfig controls the repeated-name hints.
type RecommendationsConfig struct {
	RepeatedNameMinFiles int      `koanf:"repeated_name_min_files" toml:"repeated_name_min_files" yaml:"repeated_name_min_files"`
	IgnoredNames         []string `koanf:"ignored_names" toml:"ignored_names" yaml:"ignored_names"`
}

// AnalysisConfig controls how files are processed.
type AnalysisConfig struct {
	Workers     int   `koanf:"workers" toml:"workers" yaml:"workers"`                   // 0 = 2x NumCPU
	MaxFileSize int64 `koanf:"max_file_size" toml:"max_file_size" yaml:"max_file_size"` // bytes, 0 = unlimited
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns" yaml:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs" yaml:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore" yaml:"gitignore"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled" yaml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir" yaml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl" yaml:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format" yaml:"format"` // text, json, markdown, toon
	Color  bool   `koanf:"color" toml:"color" yaml:"color"`
}

// Formats lists the accepted output formats.
var Formats = []string{"text", "json", "markdown", "toon"}

// DefaultGenericNames are function names too vague to suggest for a shared helper.
var DefaultGenericNames = []string{
	"get", "set", "run", "main", "process", "handle", "execute", "do",
	"func", "function", "helper", "util", "utils", "wrapper", "inner", "callback",
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Duplicates: DuplicatesConfig{
			MinLines:            5,
			SimilarityThreshold: 0.8,
			GenericNames:        append([]string(nil), DefaultGenericNames...),
			SharedDir:           "shared",
		},
		Recommendations: RecommendationsConfig{
			RepeatedNameMinFiles: 3,
			IgnoredNames:         []string{"__init__", "main", "setup", "init"},
		},
		Analysis: AnalysisConfig{
			Workers:     0,
			MaxFileSize: 0,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*_test.go",
				"test_*.py",
				"*_test.py",
			},
			Dirs: []string{
				"vendor",
				"node_modules",
				".git",
				".consolidate",
				"dist",
				"build",
				"__pycache__",
				".venv",
				"venv",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: false,
			Dir:     ".consolidate/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// ValidationError lists every invalid setting found in a Config.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid config: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid config: %d problems: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

// Validate checks value ranges. It returns a *ValidationError or nil.
func (c *Config) Validate() error {
	var problems []string
	if c.Duplicates.MinLines < 1 {
		problems = append(problems, fmt.Sprintf("duplicates.min_lines must be >= 1, got %d", c.Duplicates.MinLines))
	}
	if t := c.Duplicates.SimilarityThreshold; t < 0 || t > 1 {
		problems = append(problems, fmt.Sprintf("duplicates.similarity_threshold must be in [0, 1], got %g", t))
	}
	if c.Recommendations.RepeatedNameMinFiles < 2 {
		problems = append(problems, fmt.Sprintf("recommendations.repeated_name_min_files must be >= 2, got %d", c.Recommendations.RepeatedNameMinFiles))
	}
	if c.Analysis.Workers < 0 {
		problems = append(problems, fmt.Sprintf("analysis.workers must be >= 0, got %d", c.Analysis.Workers))
	}
	if c.Analysis.MaxFileSize < 0 {
		problems = append(problems, fmt.Sprintf("analysis.max_file_size must be >= 0, got %d", c.Analysis.MaxFileSize))
	}
	if c.Cache.TTL < 0 {
		problems = append(problems, fmt.Sprintf("cache.ttl must be >= 0, got %d", c.Cache.TTL))
	}
	if !validFormat(c.Output.Format) {
		problems = append(problems, fmt.Sprintf("output.format must be one of %s, got %q", strings.Join(Formats, ", "), c.Output.Format))
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func validFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// Load loads configuration from a file, layered over the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return cfg, nil
}

// Standard config file names, searched in order.
var configNames = []string{
	"consolidate.toml",
	"consolidate.yaml",
	"consolidate.yml",
	"consolidate.json",
	".consolidate.toml",
	".consolidate.yaml",
	".consolidate.yml",
	".consolidate.json",
}

// LoadResult reports which file, if any, a configuration came from.
type LoadResult struct {
	Config *Config
	Source string // empty when defaults were used
}

// LoadConfig loads the config at path, or searches the standard locations
// under dir when path is empty. A broken config file is an error; a missing
// one yields the defaults.
func LoadConfig(path, dir string) (*LoadResult, error) {
	if path != "" {
		cfg, err := Load(path)
		if err != nil {
			return nil, err
		}
		return &LoadResult{Config: cfg, Source: path}, nil
	}

	for _, sub := range []string{".", ".consolidate"} {
		for _, name := range configNames {
			candidate := filepath.Join(dir, sub, name)
			if _, err := os.Stat(candidate); err != nil {
				if errors.Is(err, os.ErrNotExist) {
					continue
				}
				return nil, err
			}
			cfg, err := Load(candidate)
			if err != nil {
				return nil, err
			}
			return &LoadResult{Config: cfg, Source: candidate}, nil
		}
	}

	return &LoadResult{Config: DefaultConfig()}, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	res, err := LoadConfig("", ".")
	if err != nil {
		return DefaultConfig()
	}
	return res.Config
}

// ShouldExcludeDir reports whether a directory with the given base name is
// skipped entirely.
func (c *Config) ShouldExcludeDir(name string) bool {
	for _, dir := range c.Exclude.Dirs {
		if name == dir {
			return true
		}
	}
	return false
}

// ShouldExclude checks if a slash- or OS-separated relative path should be
// excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	parts := strings.Split(filepath.ToSlash(path), "/")
	for _, part := range parts[:len(parts)-1] {
		if c.ShouldExcludeDir(part) {
			return true
		}
	}

	base := parts[len(parts)-1]
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
