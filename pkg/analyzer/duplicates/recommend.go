package duplicates

import (
	"fmt"
	"math"
	"path"
	"sort"
	"strings"

	"github.com/panbanda/consolidate/pkg/config"
)

// DefaultHotspotLimit caps the number of hotspots reported.
const DefaultHotspotLimit = 10

// Recommender derives suggestions and free-text advice from duplicate groups.
// Its zero value is not usable; start from NewRecommender.
type Recommender struct {
	genericNames    map[string]bool
	ignoredNames    map[string]bool
	sharedDir       string
	repeatedNameMin int
	hotspotLimit    int
}

// NewRecommender returns a Recommender with the default configuration.
func NewRecommender() *Recommender {
	defaults := config.DefaultConfig()
	r := &Recommender{
		sharedDir:       defaults.Duplicates.SharedDir,
		repeatedNameMin: defaults.Recommendations.RepeatedNameMinFiles,
		hotspotLimit:    DefaultHotspotLimit,
	}
	r.setGenericNames(defaults.Duplicates.GenericNames)
	r.setIgnoredNames(defaults.Recommendations.IgnoredNames)
	return r
}

func (r *Recommender) setGenericNames(names []string) {
	r.genericNames = make(map[string]bool, len(names))
	for _, n := range names {
		r.genericNames[strings.ToLower(n)] = true
	}
}

func (r *Recommender) setIgnoredNames(names []string) {
	r.ignoredNames = make(map[string]bool, len(names))
	for _, n := range names {
		r.ignoredNames[n] = true
	}
}

func (r *Recommender) isGeneric(name string) bool {
	switch {
	case name == "", strings.HasPrefix(name, "<"):
		return true
	case len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__"):
		return true
	}
	return r.genericNames[strings.ToLower(name)]
}

// SuggestName picks the shortest member name that is not generic, breaking
// ties lexicographically. If every name is generic the kept member's name is
// returned.
func (r *Recommender) SuggestName(g DuplicateGroup) string {
	best := ""
	for _, f := range g.Functions {
		if r.isGeneric(f.Name) {
			continue
		}
		if best == "" || len(f.Name) < len(best) || (len(f.Name) == len(best) && f.Name < best) {
			best = f.Name
		}
	}
	if best == "" && len(g.Functions) > 0 {
		best = g.Kept().Name
	}
	return best
}

// SuggestModule proposes where the shared implementation should live: a utils
// module in the deepest directory common to every member, or in the shared
// directory when the members only share the project root.
func (r *Recommender) SuggestModule(g DuplicateGroup) string {
	if len(g.Functions) == 0 {
		return ""
	}
	ext := path.Ext(g.Kept().File)

	common := strings.Split(path.Dir(g.Functions[0].File), "/")
	for _, f := range g.Functions[1:] {
		common = commonPrefix(common, strings.Split(path.Dir(f.File), "/"))
	}
	dir := path.Join(common...)
	if dir == "" || dir == "." {
		dir = r.sharedDir
		if dir == "" {
			dir = "shared"
		}
	}
	return dir + "/utils" + ext
}

func commonPrefix(a, b []string) []string {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return a[:n]
}

// Annotate fills in the suggested name and module of every group.
func (r *Recommender) Annotate(groups []DuplicateGroup) {
	for i := range groups {
		groups[i].SuggestedName = r.SuggestName(groups[i])
		groups[i].SuggestedModule = r.SuggestModule(groups[i])
	}
}

// Summary is the headline recommendation for a set of groups.
func Summary(groups []DuplicateGroup) string {
	savings := 0
	for _, g := range groups {
		savings += g.PotentialSavings()
	}
	return fmt.Sprintf("Found %d duplicate group(s); consolidating could save ~%d lines", len(groups), savings)
}

// Recommendations returns the summary line followed by one hint per function
// name defined in at least the configured number of distinct files. Hints are
// ordered by file count desc, then name.
func (r *Recommender) Recommendations(groups []DuplicateGroup, signatures []FunctionSignature) []string {
	recs := []string{Summary(groups)}

	files := make(map[string]map[string]bool)
	for _, sig := range signatures {
		if r.ignoredNames[sig.Name] || strings.HasPrefix(sig.Name, "<") {
			continue
		}
		set, ok := files[sig.Name]
		if !ok {
			set = make(map[string]bool)
			files[sig.Name] = set
		}
		set[sig.File] = true
	}

	type repeated struct {
		name  string
		count int
	}
	var names []repeated
	for name, set := range files {
		if len(set) >= r.repeatedNameMin {
			names = append(names, repeated{name, len(set)})
		}
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i].count != names[j].count {
			return names[i].count > names[j].count
		}
		return names[i].name < names[j].name
	})

	for _, n := range names {
		recs = append(recs, fmt.Sprintf("Function '%s' appears in %d files. Consider if these should be consolidated.", n.name, n.count))
	}
	return recs
}

// Hotspots identifies files with high duplication. Severity grows with the
// duplicated line count and the number of groups touching the file.
func (r *Recommender) Hotspots(groups []DuplicateGroup) []Hotspot {
	type fileStats struct {
		lines  int
		groups map[uint64]bool
	}
	byFile := make(map[string]*fileStats)

	for _, group := range groups {
		for _, fn := range group.Functions {
			stats, ok := byFile[fn.File]
			if !ok {
				stats = &fileStats{groups: make(map[uint64]bool)}
				byFile[fn.File] = stats
			}
			stats.lines += fn.LineCount()
			stats.groups[group.ID] = true
		}
	}

	hotspots := make([]Hotspot, 0, len(byFile))
	for file, stats := range byFile {
		hotspots = append(hotspots, Hotspot{
			File:           file,
			DuplicateLines: stats.lines,
			GroupCount:     len(stats.groups),
			Severity:       math.Log(float64(stats.lines)+1) * math.Sqrt(float64(len(stats.groups))),
		})
	}

	sort.Slice(hotspots, func(i, j int) bool {
		if hotspots[i].Severity != hotspots[j].Severity {
			return hotspots[i].Severity > hotspots[j].Severity
		}
		return hotspots[i].File < hotspots[j].File
	})

	if r.hotspotLimit > 0 && len(hotspots) > r.hotspotLimit {
		hotspots = hotspots[:r.hotspotLimit]
	}
	return hotspots
}
