package ast

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedLanguage is returned when parsing a file with an unsupported language.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// ErrSyntax is wrapped by ParseError when the source does not parse cleanly.
var ErrSyntax = errors.New("syntax error")

// ErrTooDeep is wrapped by ParseError when the tree exceeds the lowering depth limit.
var ErrTooDeep = errors.New("syntax tree too deep")

// Language represents a programming language.
type Language string

const (
	LangGo      Language = "go"
	LangPython  Language = "python"
	LangUnknown Language = "unknown"
)

// LanguageOf maps a file path to its language by extension. Stub files
// (.pyi) carry no bodies and are reported as unknown.
func LanguageOf(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return LangGo
	case ".py", ".pyw":
		return LangPython
	default:
		return LangUnknown
	}
}

// ParseError reports why a single file could not be turned into a tree.
type ParseError struct {
	Path string
	Line int // 1-based line of the first problem, 0 if unknown
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// File is a lowered source file.
type File struct {
	Path     string
	Language Language
	Body     []Node
}

// Parser turns source text into a File.
// Implementations need not be safe for concurrent use; create one per worker.
type Parser interface {
	// Parse lowers src, read from path, into a File.
	// Invalid source yields a *ParseError.
	Parse(path string, src []byte) (*File, error)

	// Language returns the language detected for path.
	Language(path string) Language

	// Close releases parser resources.
	Close()
}
