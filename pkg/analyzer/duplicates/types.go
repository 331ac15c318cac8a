package duplicates

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/panbanda/consolidate/pkg/ast"
)

// ErrInvalidRoot is wrapped by RootError when the scan root is missing or not a directory.
var ErrInvalidRoot = errors.New("invalid root")

// ErrFileTooLarge marks a file skipped for exceeding the size limit.
var ErrFileTooLarge = errors.New("file exceeds max_file_size")

// RootError reports an unusable scan root. It is the only fatal analysis error
// besides cancellation.
type RootError struct {
	Path string
	Err  error
}

func (e *RootError) Error() string {
	return fmt.Sprintf("invalid root %q: %v", e.Path, e.Err)
}

// Unwrap exposes both ErrInvalidRoot and the underlying cause.
func (e *RootError) Unwrap() []error {
	return []error{ErrInvalidRoot, e.Err}
}

// FileErrorKind classifies a per-file failure.
type FileErrorKind string

const (
	FileErrorParse FileErrorKind = "parse"
	FileErrorIO    FileErrorKind = "io"
	FileErrorSize  FileErrorKind = "size"
)

// FileError records a file that was skipped. It never stops a scan.
type FileError struct {
	Path    string        `json:"path"`
	Kind    FileErrorKind `json:"kind"`
	Message string        `json:"message"`
	Err     error         `json:"-"`
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s (%s): %s", e.Path, e.Kind, e.Message)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

func newFileError(path string, kind FileErrorKind, err error) *FileError {
	return &FileError{Path: path, Kind: kind, Message: err.Error(), Err: err}
}

// FunctionSignature describes one function definition and the digest of its
// normalized form.
type FunctionSignature struct {
	File          string       `json:"file"`
	Name          string       `json:"name"`
	QualifiedName string       `json:"qualified_name"`
	Language      ast.Language `json:"language"`
	StartLine     int          `json:"start_line"`
	EndLine       int          `json:"end_line"`
	Params        []string     `json:"params"`
	BodyHash      Digest       `json:"body_hash"`
}

// ParameterCount returns the number of named parameters.
func (s FunctionSignature) ParameterCount() int {
	return len(s.Params)
}

// LineCount returns the inclusive number of lines, at least 1.
func (s FunctionSignature) LineCount() int {
	if n := s.EndLine - s.StartLine + 1; n > 1 {
		return n
	}
	return 1
}

// Location formats the signature as file:start-end.
func (s FunctionSignature) Location() string {
	return s.File + ":" + strconv.Itoa(s.StartLine) + "-" + strconv.Itoa(s.EndLine)
}

// less orders signatures by file, then start line, then qualified name.
func (s FunctionSignature) less(o FunctionSignature) bool {
	if s.File != o.File {
		return s.File < o.File
	}
	if s.StartLine != o.StartLine {
		return s.StartLine < o.StartLine
	}
	return s.QualifiedName < o.QualifiedName
}

// DuplicateGroup is a set of two or more functions sharing one normalized form.
// Functions are ordered by file then line; the first one is the kept member.
type DuplicateGroup struct {
	ID              uint64              `json:"id"`
	Hash            Digest              `json:"hash"`
	Functions       []FunctionSignature `json:"functions"`
	Similarity      float64             `json:"similarity"`
	SuggestedName   string              `json:"suggested_name"`
	SuggestedModule string              `json:"suggested_module"`
}

// Count returns the number of members.
func (g DuplicateGroup) Count() int {
	return len(g.Functions)
}

// Kept returns the member that stays when the group is consolidated.
func (g DuplicateGroup) Kept() FunctionSignature {
	return g.Functions[0]
}

// Files returns the distinct member files in sorted order.
func (g DuplicateGroup) Files() []string {
	seen := make(map[string]bool, len(g.Functions))
	var files []string
	for _, f := range g.Functions {
		if !seen[f.File] {
			seen[f.File] = true
			files = append(files, f.File)
		}
	}
	sort.Strings(files)
	return files
}

// PotentialSavings is the number of lines removed by keeping one member and
// deleting the rest.
func (g DuplicateGroup) PotentialSavings() int {
	total := 0
	for i, f := range g.Functions {
		if i == 0 {
			continue
		}
		total += f.LineCount()
	}
	return total
}

// Hotspot represents a file with high duplication.
type Hotspot struct {
	File           string  `json:"file"`
	DuplicateLines int     `json:"duplicate_lines"`
	GroupCount     int     `json:"group_count"`
	Severity       float64 `json:"severity"`
}

// ProjectAnalysis is the result of scanning one root.
type ProjectAnalysis struct {
	Root            string           `json:"root"`
	FilesAnalyzed   int              `json:"files_analyzed"`
	FunctionsFound  int              `json:"functions_found"`
	Groups          []DuplicateGroup `json:"duplicate_groups"`
	Recommendations []string         `json:"recommendations"`
	Hotspots        []Hotspot        `json:"hotspots,omitempty"`
	Warnings        []*FileError     `json:"warnings,omitempty"`
	MinLines        int              `json:"min_lines"`
	Threshold       float64          `json:"threshold"`
}

// DuplicateCount returns the number of functions that belong to some group.
func (a *ProjectAnalysis) DuplicateCount() int {
	n := 0
	for _, g := range a.Groups {
		n += g.Count()
	}
	return n
}

// PotentialSavings sums the savings over all groups.
func (a *ProjectAnalysis) PotentialSavings() int {
	n := 0
	for _, g := range a.Groups {
		n += g.PotentialSavings()
	}
	return n
}
