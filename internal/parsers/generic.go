package parsers

import (
	"regexp"

	"github.com/Benny93/axon-context/internal/graph"
)

// importRule pairs an import pattern with whether its hits are project-local.
type importRule struct {
	re    *regexp.Regexp
	local bool
}

// RegexParser is a table-driven extractor for languages whose import and
// export syntax fits a handful of line-anchored patterns.
type RegexParser struct {
	lang    graph.Language
	imports []importRule
	exports []*regexp.Regexp
}

// Language returns the language this parser handles.
func (p *RegexParser) Language() graph.Language {
	return p.lang
}

// Parse applies the import and export tables to the source.
func (p *RegexParser) Parse(filePath string, content []byte) (*ParseResult, error) {
	source := string(content)

	var found []match
	for _, rule := range p.imports {
		found = collect(rule.re, source, rule.local, found)
	}

	var names []match
	for _, re := range p.exports {
		names = collect(re, source, false, names)
	}

	return &ParseResult{
		Imports: toImports(source, found),
		Exports: toNames(names),
	}, nil
}

var rustParser = &RegexParser{
	lang: graph.LangRust,
	imports: []importRule{
		{re: regexp.MustCompile(`(?m)^[ \t]*(?:pub(?:\([^)]*\))?[ \t]+)?use[ \t]+([\w:]+)`)},
		{re: regexp.MustCompile(`(?m)^[ \t]*(?:pub(?:\([^)]*\))?[ \t]+)?mod[ \t]+(\w+)[ \t]*;`), local: true},
	},
	exports: []*regexp.Regexp{
		regexp.MustCompile(`(?m)^[ \t]*pub[ \t]+(?:async[ \t]+)?(?:unsafe[ \t]+)?(?:fn|struct|enum|trait|mod|const|static|type|union)[ \t]+(\w+)`),
	},
}

var javaParser = &RegexParser{
	lang: graph.LangJava,
	imports: []importRule{
		{re: regexp.MustCompile(`(?m)^[ \t]*import[ \t]+(?:static[ \t]+)?([\w.]+(?:\.\*)?)[ \t]*;`)},
	},
	exports: []*regexp.Regexp{
		regexp.MustCompile(`(?m)^[ \t]*public[ \t]+(?:(?:abstract|final|static|sealed)[ \t]+)*(?:class|interface|enum|record|@interface)[ \t]+(\w+)`),
	},
}

var kotlinParser = &RegexParser{
	lang: graph.LangKotlin,
	imports: []importRule{
		{re: regexp.MustCompile(`(?m)^[ \t]*import[ \t]+([\w.]+(?:\.\*)?)`)},
	},
	exports: []*regexp.Regexp{
		regexp.MustCompile(`(?m)^(?:(?:public|open|abstract|data|sealed|enum|inline|value)[ \t]+)*(?:class|interface|object|fun)[ \t]+(\w+)`),
	},
}

var rubyParser = &RegexParser{
	lang: graph.LangRuby,
	imports: []importRule{
		{re: regexp.MustCompile(`(?m)^[ \t]*require_relative[ \t(]+['"]([^'"]+)['"]`), local: true},
		{re: regexp.MustCompile(`(?m)^[ \t]*require[ \t(]+['"]([^'"]+)['"]`)},
	},
	exports: []*regexp.Regexp{
		regexp.MustCompile(`(?m)^[ \t]*(?:class|module)[ \t]+([A-Z]\w*)`),
	},
}

// cParser serves C and C++; quoted includes are local, angle includes are not.
var cParser = &RegexParser{
	lang: graph.LangC,
	imports: []importRule{
		{re: regexp.MustCompile(`(?m)^[ \t]*#[ \t]*include[ \t]+"([^"]+)"`), local: true},
		{re: regexp.MustCompile(`(?m)^[ \t]*#[ \t]*include[ \t]+<([^>]+)>`)},
	},
	exports: []*regexp.Regexp{
		regexp.MustCompile(`(?m)^(?:typedef[ \t]+)?(?:struct|class|enum|union)[ \t]+(\w+)[ \t]*\{`),
	},
}

var phpParser = &RegexParser{
	lang: graph.LangPHP,
	imports: []importRule{
		{re: regexp.MustCompile(`(?m)^[ \t]*(?:require|include)(?:_once)?[ \t(]*['"](\.{1,2}/[^'"]+)['"]`), local: true},
		{re: regexp.MustCompile(`(?m)^[ \t]*use[ \t]+([\w\\]+)`)},
	},
	exports: []*regexp.Regexp{
		regexp.MustCompile(`(?m)^[ \t]*(?:(?:abstract|final)[ \t]+)?(?:class|interface|trait|enum)[ \t]+(\w+)`),
	},
}

var csharpParser = &RegexParser{
	lang: graph.LangCSharp,
	imports: []importRule{
		{re: regexp.MustCompile(`(?m)^[ \t]*using[ \t]+(?:static[ \t]+)?([\w.]+)[ \t]*;`)},
	},
	exports: []*regexp.Regexp{
		regexp.MustCompile(`(?m)^[ \t]*public[ \t]+(?:(?:abstract|sealed|static|partial)[ \t]+)*(?:class|interface|struct|enum|record)[ \t]+(\w+)`),
	},
}

var swiftParser = &RegexParser{
	lang: graph.LangSwift,
	imports: []importRule{
		{re: regexp.MustCompile(`(?m)^[ \t]*import[ \t]+(\w+)`)},
	},
	exports: []*regexp.Regexp{
		regexp.MustCompile(`(?m)^[ \t]*(?:public|open)[ \t]+(?:final[ \t]+)?(?:class|struct|enum|protocol|func)[ \t]+(\w+)`),
	},
}
