package parsers

import (
	"regexp"

	"github.com/Benny93/axon-context/internal/graph"
)

// GoParser extracts imports and exported identifiers from Go source.
//
// It deliberately avoids go/parser so that files with syntax errors still
// yield their imports, in line with the other lexical extractors.
type GoParser struct {
	singleImportRegex *regexp.Regexp
	importBlockRegex  *regexp.Regexp
	blockEntryRegex   *regexp.Regexp
	funcRegex         *regexp.Regexp
	declRegex         *regexp.Regexp
}

// NewGoParser creates a new Go parser.
func NewGoParser() *GoParser {
	return &GoParser{
		singleImportRegex: regexp.MustCompile(`(?m)^import[ \t]+(?:[\w.]+[ \t]+)?"([^"]+)"`),
		importBlockRegex:  regexp.MustCompile(`(?ms)^import[ \t]*\((.*?)\)`),
		blockEntryRegex:   regexp.MustCompile(`(?m)^[ \t]*(?:[\w.]+[ \t]+)?"([^"]+)"`),
		funcRegex:         regexp.MustCompile(`(?m)^func[ \t]+([A-Z]\w*)`),
		declRegex:         regexp.MustCompile(`(?m)^(?:type|var|const)[ \t]+([A-Z]\w*)`),
	}
}

// Language returns the language this parser handles.
func (p *GoParser) Language() graph.Language {
	return graph.LangGo
}

// Parse extracts single and grouped imports and exported top-level names.
// Whether an import is local depends on the module path, so IsRelative is
// left false and resolution is done by the caller.
func (p *GoParser) Parse(filePath string, content []byte) (*ParseResult, error) {
	source := string(content)

	var found []match
	found = collect(p.singleImportRegex, source, false, found)
	for _, loc := range p.importBlockRegex.FindAllStringSubmatchIndex(source, -1) {
		block := source[loc[2]:loc[3]]
		for _, entry := range p.blockEntryRegex.FindAllStringSubmatchIndex(block, -1) {
			found = append(found, match{offset: loc[2] + entry[0], value: block[entry[2]:entry[3]]})
		}
	}

	var names []match
	names = collect(p.funcRegex, source, false, names)
	names = collect(p.declRegex, source, false, names)

	return &ParseResult{
		Imports: toImports(source, found),
		Exports: toNames(names),
	}, nil
}
