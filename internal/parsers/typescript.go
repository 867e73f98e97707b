package parsers

import (
	"regexp"
	"strings"

	"github.com/Benny93/axon-context/internal/graph"
)

var (
	tsImportFromRegex  = regexp.MustCompile(`(?m)^\s*import\s+(?:type\s+)?([^;'"]*?)\s*from\s*['"]([^'"]+)['"]`)
	tsBareImportRegex  = regexp.MustCompile(`(?m)^\s*import\s*['"]([^'"]+)['"]`)
	tsExportFromRegex  = regexp.MustCompile(`(?m)^\s*export\s+(?:type\s+)?(?:\*(?:\s+as\s+[\w$]+)?|\{[^}]*\})\s*from\s*['"]([^'"]+)['"]`)
	tsRequireRegex     = regexp.MustCompile(`\brequire\s*\(\s*['"]([^'"]+)['"]\s*\)`)
	tsDynamicImportRe  = regexp.MustCompile(`\bimport\s*\(\s*['"]([^'"]+)['"]\s*\)`)
	tsExportDeclRegex  = regexp.MustCompile(`(?m)^\s*export\s+(?:default\s+)?(?:declare\s+)?(?:abstract\s+)?(?:async\s+)?(?:function\*?|class|const|let|var|interface|type|enum|namespace)\s+([A-Za-z_$][\w$]*)`)
	tsExportListRegex  = regexp.MustCompile(`(?m)^\s*export\s*\{([^}]*)\}`)
	tsExportDefaultRef = regexp.MustCompile(`(?m)^\s*export\s+default\s+([A-Za-z_$][\w$]*)\s*;?\s*$`)
)

// TypeScriptParser extracts imports and exports from TypeScript, JavaScript and
// single-file component sources (Vue, Svelte), which share the ES module syntax.
type TypeScriptParser struct {
	lang graph.Language
}

// NewTypeScriptParser creates a new TypeScript/JavaScript parser.
func NewTypeScriptParser(lang graph.Language) *TypeScriptParser {
	if lang == "" {
		lang = graph.LangTypeScript
	}
	return &TypeScriptParser{lang: lang}
}

// Language returns the language this parser handles.
func (p *TypeScriptParser) Language() graph.Language {
	return p.lang
}

// Parse extracts ES module and CommonJS imports plus exported names.
func (p *TypeScriptParser) Parse(filePath string, content []byte) (*ParseResult, error) {
	source := string(content)

	var found []match
	for _, loc := range tsImportFromRegex.FindAllStringSubmatchIndex(source, -1) {
		spec := source[loc[4]:loc[5]]
		found = append(found, match{offset: loc[0], value: spec, local: isLocalSpecifier(spec)})
	}
	for _, re := range []*regexp.Regexp{tsBareImportRegex, tsExportFromRegex, tsRequireRegex, tsDynamicImportRe} {
		for _, loc := range re.FindAllStringSubmatchIndex(source, -1) {
			spec := source[loc[2]:loc[3]]
			found = append(found, match{offset: loc[0], value: spec, local: isLocalSpecifier(spec)})
		}
	}

	result := &ParseResult{Imports: toImports(source, found)}
	p.attachSymbols(source, result)
	result.Exports = p.parseExports(source)
	return result, nil
}

// attachSymbols fills in named bindings for `import ... from` statements.
func (p *TypeScriptParser) attachSymbols(source string, result *ParseResult) {
	bindings := make(map[string][]string)
	for _, m := range tsImportFromRegex.FindAllStringSubmatch(source, -1) {
		bindings[m[2]] = append(bindings[m[2]], splitBindings(m[1])...)
	}
	for i := range result.Imports {
		result.Imports[i].Symbols = bindings[result.Imports[i].ModulePath]
	}
}

func (p *TypeScriptParser) parseExports(source string) []string {
	var found []match
	found = collect(tsExportDeclRegex, source, false, found)
	found = collect(tsExportDefaultRef, source, false, found)

	for _, loc := range tsExportListRegex.FindAllStringSubmatchIndex(source, -1) {
		for _, name := range splitBindings(source[loc[2]:loc[3]]) {
			found = append(found, match{offset: loc[0], value: name})
		}
	}
	return toNames(found)
}

// splitBindings turns `Default, { a, b as c }` or `* as ns` into binding names.
func splitBindings(clause string) []string {
	clause = strings.NewReplacer("{", ",", "}", ",", "\n", " ").Replace(clause)
	var names []string
	for _, part := range strings.Split(clause, ",") {
		part = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(part), "type "))
		if part == "" {
			continue
		}
		if idx := strings.LastIndex(part, " as "); idx >= 0 {
			part = strings.TrimSpace(part[idx+4:])
		}
		if part == "*" {
			continue
		}
		names = append(names, part)
	}
	return names
}

// isLocalSpecifier reports whether an ES specifier names a project file.
func isLocalSpecifier(spec string) bool {
	return strings.HasPrefix(spec, ".") || strings.HasPrefix(spec, "/")
}
