// Package parsers provides heuristic import/export extractors for multiple languages.
//
// Extraction is lexical: every parser is a set of regular expressions tuned per
// language family. It does not build an AST and it will misread code that hides
// imports in strings or comments. Callers only need approximate signals.
package parsers

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Benny93/axon-context/internal/graph"
)

// ImportStatement represents an import statement.
type ImportStatement struct {
	// ModulePath is the imported module/file path as written.
	ModulePath string

	// Symbols is the list of imported symbol names, when the syntax names them.
	Symbols []string

	// IsRelative indicates the specifier points at a file of the same project.
	IsRelative bool

	// StartLine is the line number of the import (1-based).
	StartLine int
}

// ParseResult contains the extracted information from a source file.
type ParseResult struct {
	// Imports found in the file, in source order, one entry per distinct specifier.
	Imports []ImportStatement

	// Exports holds exported symbol names, in source order, without duplicates.
	Exports []string
}

// Parser defines the interface for language-specific extractors.
type Parser interface {
	// Parse extracts imports and exports from source code.
	Parse(filePath string, content []byte) (*ParseResult, error)

	// Language returns the language this parser handles.
	Language() graph.Language
}

// ForLanguage returns the parser for a language, or nil when the language has
// no import syntax worth extracting (data formats, unknown files).
func ForLanguage(lang graph.Language) Parser {
	switch lang {
	case graph.LangTypeScript, graph.LangJavaScript, graph.LangVue, graph.LangSvelte:
		return NewTypeScriptParser(lang)
	case graph.LangPython:
		return NewPythonParser()
	case graph.LangGo:
		return NewGoParser()
	case graph.LangRust:
		return rustParser
	case graph.LangJava:
		return javaParser
	case graph.LangKotlin:
		return kotlinParser
	case graph.LangRuby:
		return rubyParser
	case graph.LangC, graph.LangCPP:
		return cParser
	case graph.LangPHP:
		return phpParser
	case graph.LangCSharp:
		return csharpParser
	case graph.LangSwift:
		return swiftParser
	default:
		return nil
	}
}

// match is one regex hit located in the source.
type match struct {
	offset int
	value  string
	local  bool
}

// collect runs re over source and records capture group 1 of every hit.
func collect(re *regexp.Regexp, source string, local bool, out []match) []match {
	for _, loc := range re.FindAllStringSubmatchIndex(source, -1) {
		if len(loc) < 4 || loc[2] < 0 {
			continue
		}
		out = append(out, match{offset: loc[0], value: source[loc[2]:loc[3]], local: local})
	}
	return out
}

// toImports orders matches by position and drops repeated specifiers.
func toImports(source string, matches []match) []ImportStatement {
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].offset < matches[j].offset })

	seen := make(map[string]bool, len(matches))
	imports := make([]ImportStatement, 0, len(matches))
	for _, m := range matches {
		spec := strings.TrimSpace(m.value)
		if spec == "" || seen[spec] {
			continue
		}
		seen[spec] = true
		imports = append(imports, ImportStatement{
			ModulePath: spec,
			IsRelative: m.local,
			StartLine:  lineAt(source, m.offset),
		})
	}
	return imports
}

// toNames orders matches by position and drops repeated names.
func toNames(matches []match) []string {
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].offset < matches[j].offset })

	seen := make(map[string]bool, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.value == "" || seen[m.value] {
			continue
		}
		seen[m.value] = true
		names = append(names, m.value)
	}
	return names
}

// lineAt returns the 1-based line number of a byte offset.
func lineAt(source string, offset int) int {
	if offset > len(source) {
		offset = len(source)
	}
	return strings.Count(source[:offset], "\n") + 1
}
