package duplicates

import (
	"bytes"
	"sort"
)

// ExactSimilarity is the similarity of functions sharing one normalized form.
const ExactSimilarity = 1.0

// FindDuplicates partitions signatures into groups of identical normalized
// bodies. Signatures shorter than minLines are ignored before grouping.
// Groups are annotated with the default Recommender's suggestions and
// ranked by potential savings, then size, then smallest member path.
func FindDuplicates(signatures []FunctionSignature, threshold float64, minLines int) []DuplicateGroup {
	groups := groupByHash(signatures, threshold, minLines)
	NewRecommender().Annotate(groups)
	return groups
}

func groupByHash(signatures []FunctionSignature, threshold float64, minLines int) []DuplicateGroup {
	buckets := make(map[Digest][]FunctionSignature)
	for _, sig := range signatures {
		if sig.LineCount() < minLines || sig.BodyHash.IsZero() {
			continue
		}
		buckets[sig.BodyHash] = append(buckets[sig.BodyHash], sig)
	}

	groups := make([]DuplicateGroup, 0)
	for digest, members := range buckets {
		if len(members) < 2 || ExactSimilarity < threshold {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return members[i].less(members[j]) })
		groups = append(groups, DuplicateGroup{
			ID:         GroupID(digest),
			Hash:       digest,
			Functions:  members,
			Similarity: ExactSimilarity,
		})
	}

	rankGroups(groups)
	return groups
}

// rankGroups orders groups by savings desc, size desc, then the first member's
// path and line. The digest makes the order total.
func rankGroups(groups []DuplicateGroup) {
	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if sa, sb := a.PotentialSavings(), b.PotentialSavings(); sa != sb {
			return sa > sb
		}
		if a.Count() != b.Count() {
			return a.Count() > b.Count()
		}
		ka, kb := a.Kept(), b.Kept()
		if ka.File != kb.File {
			return ka.File < kb.File
		}
		if ka.StartLine != kb.StartLine {
			return ka.StartLine < kb.StartLine
		}
		return bytes.Compare(a.Hash[:], b.Hash[:]) < 0
	})
}
