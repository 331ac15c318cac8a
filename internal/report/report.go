// Package report renders a duplicate analysis for people and machines.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/panbanda/consolidate/internal/output"
	"github.com/panbanda/consolidate/pkg/analyzer/duplicates"
)

// Severity bands used to color hotspot rows.
const (
	severityMedium = 2.0
	severityHigh   = 4.0
)

const ruleWidth = 80

// Function is one group member in serialized reports.
type Function struct {
	File          string   `json:"file" toon:"file"`
	Name          string   `json:"name" toon:"name"`
	QualifiedName string   `json:"qualified_name" toon:"qualified_name"`
	Language      string   `json:"language" toon:"language"`
	StartLine     int      `json:"start_line" toon:"start_line"`
	EndLine       int      `json:"end_line" toon:"end_line"`
	Lines         int      `json:"lines" toon:"lines"`
	Params        []string `json:"params" toon:"params"`
}

// Group is one duplicate group in serialized reports.
type Group struct {
	ID               string     `json:"id" toon:"id"`
	Hash             string     `json:"hash" toon:"hash"`
	Similarity       float64    `json:"similarity" toon:"similarity"`
	Count            int        `json:"count" toon:"count"`
	SuggestedName    string     `json:"suggested_name" toon:"suggested_name"`
	SuggestedModule  string     `json:"suggested_module" toon:"suggested_module"`
	PotentialSavings int        `json:"potential_savings" toon:"potential_savings"`
	Functions        []Function `json:"functions" toon:"functions"`
}

// Hotspot is a file with concentrated duplication.
type Hotspot struct {
	File           string  `json:"file" toon:"file"`
	DuplicateLines int     `json:"duplicate_lines" toon:"duplicate_lines"`
	GroupCount     int     `json:"group_count" toon:"group_count"`
	Severity       float64 `json:"severity" toon:"severity"`
}

// Warning is a file skipped during the scan.
type Warning struct {
	Path    string `json:"path" toon:"path"`
	Kind    string `json:"kind" toon:"kind"`
	Message string `json:"message" toon:"message"`
}

// Data is the serialized form of a ProjectAnalysis.
type Data struct {
	Root               string    `json:"root" toon:"root"`
	FilesAnalyzed      int       `json:"files_analyzed" toon:"files_analyzed"`
	FunctionsFound     int       `json:"functions_found" toon:"functions_found"`
	MinLines           int       `json:"min_lines" toon:"min_lines"`
	Threshold          float64   `json:"threshold" toon:"threshold"`
	DuplicateFunctions int       `json:"duplicate_functions" toon:"duplicate_functions"`
	PotentialSavings   int       `json:"potential_savings" toon:"potential_savings"`
	Groups             []Group   `json:"duplicate_groups" toon:"duplicate_groups"`
	Hotspots           []Hotspot `json:"hotspots" toon:"hotspots"`
	Recommendations    []string  `json:"recommendations" toon:"recommendations"`
	Warnings           []Warning `json:"warnings,omitempty" toon:"warnings,omitempty"`
}

// NewData flattens an analysis into its serialized form. Slices are never nil.
func NewData(a *duplicates.ProjectAnalysis) Data {
	d := Data{
		Root:               a.Root,
		FilesAnalyzed:      a.FilesAnalyzed,
		FunctionsFound:     a.FunctionsFound,
		MinLines:           a.MinLines,
		Threshold:          a.Threshold,
		DuplicateFunctions: a.DuplicateCount(),
		PotentialSavings:   a.PotentialSavings(),
		Groups:             make([]Group, 0, len(a.Groups)),
		Hotspots:           make([]Hotspot, 0, len(a.Hotspots)),
		Recommendations:    append([]string{}, a.Recommendations...),
	}

	for _, g := range a.Groups {
		group := Group{
			ID:               strconv.FormatUint(g.ID, 16),
			Hash:             g.Hash.String(),
			Similarity:       g.Similarity,
			Count:            g.Count(),
			SuggestedName:    g.SuggestedName,
			SuggestedModule:  g.SuggestedModule,
			PotentialSavings: g.PotentialSavings(),
			Functions:        make([]Function, 0, len(g.Functions)),
		}
		for _, f := range g.Functions {
			params := f.Params
			if params == nil {
				params = []string{}
			}
			group.Functions = append(group.Functions, Function{
				File:          f.File,
				Name:          f.Name,
				QualifiedName: f.QualifiedName,
				Language:      string(f.Language),
				StartLine:     f.StartLine,
				EndLine:       f.EndLine,
				Lines:         f.LineCount(),
				Params:        params,
			})
		}
		d.Groups = append(d.Groups, group)
	}

	for _, h := range a.Hotspots {
		d.Hotspots = append(d.Hotspots, Hotspot(h))
	}
	for _, w := range a.Warnings {
		d.Warnings = append(d.Warnings, Warning{Path: w.Path, Kind: string(w.Kind), Message: w.Message})
	}
	return d
}

// Analysis renders a ProjectAnalysis through output.Formatter.
type Analysis struct {
	*duplicates.ProjectAnalysis
}

// New wraps a for rendering.
func New(a *duplicates.ProjectAnalysis) *Analysis {
	return &Analysis{ProjectAnalysis: a}
}

func (r *Analysis) RenderData() any {
	return NewData(r.ProjectAnalysis)
}

func (r *Analysis) RenderText(w io.Writer, colored bool) error {
	bold := color.New(color.Bold)
	header := color.New(color.Bold, color.FgCyan)
	good := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)
	if !colored {
		for _, c := range []*color.Color{bold, header, good, warn} {
			c.DisableColor()
		}
	}

	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
	header.Fprintln(w, "PROJECT-LEVEL ANALYSIS")
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
	fmt.Fprintf(w, "Root: %s\n", r.Root)
	fmt.Fprintf(w, "Files Analyzed: %d\n", r.FilesAnalyzed)
	fmt.Fprintf(w, "Functions Found: %d\n", r.FunctionsFound)
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))

	if len(r.Groups) == 0 {
		fmt.Fprintln(w)
		good.Fprintln(w, "No duplicate code detected!")
	} else {
		fmt.Fprintln(w)
		warn.Fprintf(w, "DUPLICATE CODE DETECTED (%d groups):\n", len(r.Groups))
		fmt.Fprintln(w, strings.Repeat("-", ruleWidth/2))
		for i, g := range r.Groups {
			fmt.Fprintln(w)
			bold.Fprintf(w, "Group %d: %.0f%% Similar (%d functions)\n", i+1, g.Similarity*100, g.Count())
			for _, f := range g.Functions {
				fmt.Fprintf(w, "  - %s:%s() [lines %d-%d]\n", f.File, f.QualifiedName, f.StartLine, f.EndLine)
			}
			fmt.Fprintln(w)
			fmt.Fprintf(w, "  Suggestion: Extract %s() to %s\n", g.SuggestedName, g.SuggestedModule)
			fmt.Fprintf(w, "     Potential savings: ~%d lines\n", g.PotentialSavings())
		}
	}

	if len(r.Hotspots) > 0 {
		fmt.Fprintln(w)
		if err := r.hotspotTable(colored).RenderText(w, colored); err != nil {
			return err
		}
	}

	if len(r.Recommendations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, strings.Repeat("-", ruleWidth/2))
		bold.Fprintln(w, "RECOMMENDATIONS:")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(w, "  - %s\n", rec)
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w)
		warn.Fprintf(w, "SKIPPED FILES (%d):\n", len(r.Warnings))
		for _, fe := range r.Warnings {
			fmt.Fprintf(w, "  - %s (%s): %s\n", fe.Path, fe.Kind, fe.Message)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
	return nil
}

func (r *Analysis) RenderMarkdown(w io.Writer) error {
	fmt.Fprintf(w, "# Project Analysis\n\n")
	fmt.Fprintf(w, "- **Root:** `%s`\n", r.Root)
	fmt.Fprintf(w, "- **Files analyzed:** %d\n", r.FilesAnalyzed)
	fmt.Fprintf(w, "- **Functions found:** %d\n", r.FunctionsFound)
	fmt.Fprintf(w, "- **Potential savings:** ~%d lines\n\n", r.PotentialSavings())

	fmt.Fprintf(w, "## Duplicate Groups\n\n")
	if len(r.Groups) == 0 {
		fmt.Fprintf(w, "No duplicate code detected.\n\n")
	}
	for i, g := range r.Groups {
		fmt.Fprintf(w, "### Group %d: %.0f%% similar (%d functions)\n\n", i+1, g.Similarity*100, g.Count())
		fmt.Fprintf(w, "Structure `%s`\n\n", g.Hash.Short())
		for _, f := range g.Functions {
			fmt.Fprintf(w, "- `%s` `%s()` lines %d-%d\n", f.File, f.QualifiedName, f.StartLine, f.EndLine)
		}
		fmt.Fprintf(w, "\nExtract `%s()` to `%s` to save ~%d lines.\n\n", g.SuggestedName, g.SuggestedModule, g.PotentialSavings())
	}

	if len(r.Hotspots) > 0 {
		if err := r.hotspotTable(false).RenderMarkdown(w); err != nil {
			return err
		}
	}

	if len(r.Recommendations) > 0 {
		fmt.Fprintf(w, "## Recommendations\n\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(w, "- %s\n", rec)
		}
		fmt.Fprintln(w)
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "## Skipped Files\n\n")
		for _, fe := range r.Warnings {
			fmt.Fprintf(w, "- `%s` (%s): %s\n", fe.Path, fe.Kind, fe.Message)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func (r *Analysis) hotspotTable(colored bool) *output.Table {
	rows := make([][]string, 0, len(r.Hotspots))
	for _, h := range r.Hotspots {
		severity := fmt.Sprintf("%.2f", h.Severity)
		if colored {
			severity = output.SeverityColor(h.Severity, severityMedium, severityHigh, severity)
		}
		rows = append(rows, []string{h.File, strconv.Itoa(h.DuplicateLines), strconv.Itoa(h.GroupCount), severity})
	}
	return output.NewTable("Duplication Hotspots", []string{"File", "Duplicate Lines", "Groups", "Severity"}, rows, nil, nil)
}
