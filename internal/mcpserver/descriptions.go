package mcpserver

func describeFindDuplicates() string {
	return `Finds functions that are structurally identical once local variable and parameter names are ignored, and suggests how to consolidate them.

USE WHEN:
- Finding copy-pasted functions that were renamed after copying
- Identifying candidates for a shared utility module
- Estimating how many lines a consolidation would remove

INTERPRETING RESULTS:
- Each duplicate group holds two or more functions with the same normalized body
- Similarity is always 1.0: only exact structural matches are grouped
- The first function of a group is the one to keep; the others are savings
- Groups are ordered by potential savings, largest first
- Literal values, attribute names and called globals must match exactly

METRICS RETURNED:
- duplicate_groups: members (file, qualified name, lines), suggested name and module
- potential_savings: lines removed if every group were consolidated
- hotspots: files concentrating duplicated lines
- recommendations: summary plus function names repeated across many files
- warnings: files skipped because they could not be read or parsed

Raise min_lines to ignore trivial one-liners.`
}
