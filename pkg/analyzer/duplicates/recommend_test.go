package duplicates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func group(members ...FunctionSignature) DuplicateGroup {
	return DuplicateGroup{Hash: members[0].BodyHash, ID: GroupID(members[0].BodyHash), Functions: members, Similarity: 1}
}

func TestSuggestName(t *testing.T) {
	r := NewRecommender()

	tests := []struct {
		name  string
		names []string
		want  string
	}{
		{"shortest wins", []string{"compute_total", "total", "sum_values"}, "total"},
		{"tie goes to smallest", []string{"beta", "alfa"}, "alfa"},
		{"generic skipped", []string{"helper", "process", "normalize"}, "normalize"},
		{"generic is case insensitive", []string{"Run", "Execute", "Launch"}, "Launch"},
		{"dunder skipped", []string{"__call__", "invoke"}, "invoke"},
		{"anonymous skipped", []string{"<anonymous>", "build"}, "build"},
		{"all generic falls back to kept", []string{"run", "get"}, "run"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var members []FunctionSignature
			for i, n := range tt.names {
				members = append(members, sig(string(rune('a'+i))+".py", n, 1, 5, "x"))
			}
			assert.Equal(t, tt.want, r.SuggestName(group(members...)))
		})
	}
}

func TestSuggestModule(t *testing.T) {
	r := NewRecommender()

	tests := []struct {
		name  string
		files []string
		want  string
	}{
		{"same directory", []string{"pkg/a.py", "pkg/b.py"}, "pkg/utils.py"},
		{"common ancestor", []string{"svc/api/a.py", "svc/db/b.py"}, "svc/utils.py"},
		{"deep common", []string{"a/b/c/x.go", "a/b/c/d/y.go"}, "a/b/c/utils.go"},
		{"only root in common", []string{"api/a.py", "db/b.py"}, "shared/utils.py"},
		{"top level files", []string{"a.py", "b.py"}, "shared/utils.py"},
		{"prefix is per segment", []string{"app/x.py", "apple/y.py"}, "shared/utils.py"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var members []FunctionSignature
			for _, f := range tt.files {
				members = append(members, sig(f, "fn", 1, 5, "x"))
			}
			assert.Equal(t, tt.want, r.SuggestModule(group(members...)))
		})
	}

	r.sharedDir = "common"
	assert.Equal(t, "common/utils.py", r.SuggestModule(group(sig("a.py", "f", 1, 2, "x"), sig("b.py", "f", 1, 2, "x"))))
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "Found 0 duplicate group(s); consolidating could save ~0 lines", Summary(nil))

	groups := []DuplicateGroup{
		group(sig("a.py", "f", 1, 5, "x"), sig("b.py", "f", 1, 5, "x")),
		group(sig("a.py", "g", 10, 12, "y"), sig("b.py", "g", 10, 12, "y"), sig("c.py", "g", 1, 3, "y")),
	}
	assert.Equal(t, "Found 2 duplicate group(s); consolidating could save ~11 lines", Summary(groups))
}

func TestRecommendationsRepeatedNames(t *testing.T) {
	r := NewRecommender()
	sigs := []FunctionSignature{
		sig("a.py", "load", 1, 2, "1"),
		sig("b.py", "load", 1, 2, "2"),
		sig("c.py", "load", 1, 2, "3"),
		sig("c.py", "load", 5, 6, "4"), // same file twice counts once
		sig("a.py", "save", 1, 2, "5"),
		sig("b.py", "save", 1, 2, "6"),
		sig("a.py", "main", 1, 2, "7"),
		sig("b.py", "main", 1, 2, "8"),
		sig("c.py", "main", 1, 2, "9"),
		sig("a.py", "__init__", 1, 2, "10"),
		sig("b.py", "__init__", 1, 2, "11"),
		sig("c.py", "__init__", 1, 2, "12"),
		sig("a.py", "parse", 1, 2, "13"),
		sig("b.py", "parse", 1, 2, "14"),
		sig("c.py", "parse", 1, 2, "15"),
		sig("d.py", "parse", 1, 2, "16"),
	}

	recs := r.Recommendations(nil, sigs)
	assert.Equal(t, []string{
		"Found 0 duplicate group(s); consolidating could save ~0 lines",
		"Function 'parse' appears in 4 files. Consider if these should be consolidated.",
		"Function 'load' appears in 3 files. Consider if these should be consolidated.",
	}, recs)

	r.repeatedNameMin = 2
	r.setIgnoredNames(nil)
	recs = r.Recommendations(nil, sigs)
	assert.Contains(t, recs, "Function 'save' appears in 2 files. Consider if these should be consolidated.")
	assert.Contains(t, recs, "Function 'main' appears in 3 files. Consider if these should be consolidated.")
}

func TestHotspots(t *testing.T) {
	r := NewRecommender()
	groups := []DuplicateGroup{
		group(sig("a.py", "f", 1, 10, "x"), sig("b.py", "f", 1, 10, "x")),
		group(sig("a.py", "g", 20, 24, "y"), sig("c.py", "g", 1, 5, "y")),
	}

	hotspots := r.Hotspots(groups)
	require.Len(t, hotspots, 3)
	assert.Equal(t, "a.py", hotspots[0].File)
	assert.Equal(t, 15, hotspots[0].DuplicateLines)
	assert.Equal(t, 2, hotspots[0].GroupCount)
	assert.Greater(t, hotspots[0].Severity, hotspots[1].Severity)
	assert.Equal(t, "b.py", hotspots[1].File)
	assert.Equal(t, "c.py", hotspots[2].File)
}

func TestHotspotsLimit(t *testing.T) {
	r := NewRecommender()
	var groups []DuplicateGroup
	for i := 0; i < 8; i++ {
		body := string(rune('a' + i))
		groups = append(groups, group(
			sig(body+"1.py", "f", 1, 5, body),
			sig(body+"2.py", "f", 1, 5, body),
		))
	}

	assert.Len(t, r.Hotspots(groups), DefaultHotspotLimit)
	assert.Empty(t, r.Hotspots(nil))
}
