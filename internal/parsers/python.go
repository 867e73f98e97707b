package parsers

import (
	"regexp"
	"strings"

	"github.com/Benny93/axon-context/internal/graph"
)

// PythonParser extracts imports and public top-level names from Python source.
// Note: only unindented definitions count as exports.
type PythonParser struct {
	importRegex   *regexp.Regexp
	fromRegex     *regexp.Regexp
	functionRegex *regexp.Regexp
	classRegex    *regexp.Regexp
}

// NewPythonParser creates a new Python parser.
func NewPythonParser() *PythonParser {
	return &PythonParser{
		importRegex:   regexp.MustCompile(`(?m)^[ \t]*import[ \t]+([\w. \t,]+)`),
		fromRegex:     regexp.MustCompile(`(?m)^[ \t]*from[ \t]+(\.*[\w.]*)[ \t]+import[ \t]+(?:\(([^)]*)\)|([\w \t,*]*))`),
		functionRegex: regexp.MustCompile(`(?m)^(?:async[ \t]+)?def[ \t]+([A-Za-z]\w*)`),
		classRegex:    regexp.MustCompile(`(?m)^class[ \t]+([A-Za-z]\w*)`),
	}
}

// Language returns the language this parser handles.
func (p *PythonParser) Language() graph.Language {
	return graph.LangPython
}

// Parse extracts `import` and `from ... import` statements and public names.
func (p *PythonParser) Parse(filePath string, content []byte) (*ParseResult, error) {
	source := string(content)

	var found []match
	for _, loc := range p.importRegex.FindAllStringSubmatchIndex(source, -1) {
		for _, part := range strings.Split(source[loc[2]:loc[3]], ",") {
			fields := strings.Fields(part)
			if len(fields) == 0 {
				continue
			}
			// `import a.b as c` keeps the module, not the alias
			found = append(found, match{offset: loc[0], value: fields[0]})
		}
	}

	symbols := make(map[string][]string)
	for _, loc := range p.fromRegex.FindAllStringSubmatchIndex(source, -1) {
		module := source[loc[2]:loc[3]]
		found = append(found, match{offset: loc[0], value: module, local: strings.HasPrefix(module, ".")})
		names := loc[6:8]
		if loc[4] >= 0 {
			// parenthesized lists may span lines
			names = loc[4:6]
		}
		for _, line := range strings.Split(source[names[0]:names[1]], "\n") {
			line, _, _ = strings.Cut(line, "#")
			for _, name := range strings.Split(line, ",") {
				// `from m import a as b` resolves through a, not the alias
				if fields := strings.Fields(name); len(fields) > 0 {
					symbols[module] = append(symbols[module], fields[0])
				}
			}
		}
	}

	result := &ParseResult{Imports: toImports(source, found)}
	for i := range result.Imports {
		result.Imports[i].Symbols = symbols[result.Imports[i].ModulePath]
	}

	var names []match
	names = collect(p.functionRegex, source, false, names)
	names = collect(p.classRegex, source, false, names)
	result.Exports = toNames(names)

	return result, nil
}
