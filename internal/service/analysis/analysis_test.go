package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/consolidate/pkg/config"
)

const pair = `def scale(values, k):
    out = []
    for v in values:
        out.append(v * k)
    return out
`

const pairRenamed = `def multiply_all(items, factor):
    result = []
    for item in items:
        result.append(item * factor)
    return result
`

func project(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.py"), []byte(pair), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.py"), []byte(pairRenamed), 0o644))
	return dir
}

func TestNew(t *testing.T) {
	svc := New()
	require.NotNil(t, svc.Config())
	assert.Equal(t, config.DefaultConfig().Duplicates.MinLines, svc.Config().Duplicates.MinLines)

	cfg := config.DefaultConfig()
	cfg.Duplicates.MinLines = 9
	assert.Equal(t, 9, New(WithConfig(cfg)).Config().Duplicates.MinLines)
	assert.NotNil(t, New(WithConfig(nil)).Config())
}

func TestAnalyzeDuplicates(t *testing.T) {
	dir := project(t)

	result, err := New().AnalyzeDuplicates(context.Background(), dir, DuplicatesOptions{})
	require.NoError(t, err)
	require.Len(t, result.Groups, 1)
	assert.Equal(t, 5, result.MinLines)
}

func TestAnalyzeDuplicatesOverrides(t *testing.T) {
	dir := project(t)

	result, err := New().AnalyzeDuplicates(context.Background(), dir, DuplicatesOptions{MinLines: 6})
	require.NoError(t, err)
	assert.Empty(t, result.Groups)
	assert.Equal(t, 6, result.MinLines)
	assert.Equal(t, 2, result.FunctionsFound)
}

func TestAnalyzeDuplicatesThresholdOverride(t *testing.T) {
	dir := project(t)
	cfg := config.DefaultConfig()
	cfg.Duplicates.SimilarityThreshold = 0.8
	svc := New(WithConfig(cfg), WithoutCache())

	result, err := svc.AnalyzeDuplicates(context.Background(), dir, DuplicatesOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0.8, result.Threshold)

	zero := 0.0
	result, err = svc.AnalyzeDuplicates(context.Background(), dir, DuplicatesOptions{Threshold: &zero})
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Threshold)
	assert.Len(t, result.Groups, 1)
}

func TestAnalyzeDuplicatesUsesConfiguredCache(t *testing.T) {
	dir := project(t)
	cfg := config.DefaultConfig()
	cfg.Cache.Enabled = true

	svc := New(WithConfig(cfg))
	first, err := svc.AnalyzeDuplicates(context.Background(), dir, DuplicatesOptions{})
	require.NoError(t, err)

	c, err := svc.OpenCache(dir)
	require.NoError(t, err)
	stats, err := c.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, filepath.Join(dir, ".consolidate", "cache"), c.Dir())

	second, err := svc.AnalyzeDuplicates(context.Background(), dir, DuplicatesOptions{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAnalyzeDuplicatesWithoutCache(t *testing.T) {
	dir := project(t)
	cfg := config.DefaultConfig()
	cfg.Cache.Enabled = true

	_, err := New(WithConfig(cfg), WithoutCache()).AnalyzeDuplicates(context.Background(), dir, DuplicatesOptions{})
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(dir, ".consolidate"))
}

func TestCacheDir(t *testing.T) {
	cfg := config.DefaultConfig()
	svc := New(WithConfig(cfg))
	assert.Equal(t, filepath.Join("root", ".consolidate", "cache"), svc.CacheDir("root"))

	abs := filepath.Join(t.TempDir(), "c")
	cfg.Cache.Dir = abs
	assert.Equal(t, abs, svc.CacheDir("root"))
}
