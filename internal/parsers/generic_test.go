package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/axon-context/internal/graph"
)

func TestForLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		lang     graph.Language
		expected graph.Language
	}{
		{graph.LangTypeScript, graph.LangTypeScript},
		{graph.LangVue, graph.LangVue},
		{graph.LangPython, graph.LangPython},
		{graph.LangGo, graph.LangGo},
		{graph.LangRust, graph.LangRust},
		{graph.LangCPP, graph.LangC},
	}

	for _, tt := range tests {
		t.Run(string(tt.lang), func(t *testing.T) {
			t.Parallel()
			p := ForLanguage(tt.lang)
			require.NotNil(t, p)
			assert.Equal(t, tt.expected, p.Language())
		})
	}

	t.Run("DataFormatsHaveNoParser", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, ForLanguage(graph.LangJSON))
		assert.Nil(t, ForLanguage(graph.LangUnknown))
	})
}

func TestRegexParsers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		lang    graph.Language
		source  string
		imports []string
		local   []bool
		exports []string
	}{
		{
			name:    "Rust",
			lang:    graph.LangRust,
			source:  "use std::collections::HashMap;\nmod config;\npub mod server;\npub fn run() {}\nfn private() {}\npub struct App;\n",
			imports: []string{"std::collections::HashMap", "config", "server"},
			local:   []bool{false, true, true},
			exports: []string{"server", "run", "App"},
		},
		{
			name:    "Java",
			lang:    graph.LangJava,
			source:  "package a;\nimport java.util.List;\nimport static org.junit.Assert.*;\npublic final class Service {}\nclass Hidden {}\n",
			imports: []string{"java.util.List", "org.junit.Assert.*"},
			local:   []bool{false, false},
			exports: []string{"Service"},
		},
		{
			name:    "Ruby",
			lang:    graph.LangRuby,
			source:  "require 'json'\nrequire_relative 'lib/helper'\nmodule Billing\n  class Invoice\n  end\nend\n",
			imports: []string{"json", "lib/helper"},
			local:   []bool{false, true},
			exports: []string{"Billing", "Invoice"},
		},
		{
			name:    "C",
			lang:    graph.LangC,
			source:  "#include <stdio.h>\n#include \"util.h\"\nstruct point {\n  int x;\n};\n",
			imports: []string{"stdio.h", "util.h"},
			local:   []bool{false, true},
			exports: []string{"point"},
		},
		{
			name:    "Kotlin",
			lang:    graph.LangKotlin,
			source:  "import kotlinx.coroutines.launch\ndata class User(val id: Int)\nfun main() {}\n",
			imports: []string{"kotlinx.coroutines.launch"},
			local:   []bool{false},
			exports: []string{"User", "main"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result, err := ForLanguage(tt.lang).Parse("file", []byte(tt.source))
			require.NoError(t, err)

			assert.Equal(t, tt.imports, modulePaths(result.Imports))
			for i, imp := range result.Imports {
				assert.Equal(t, tt.local[i], imp.IsRelative, imp.ModulePath)
			}
			assert.Equal(t, tt.exports, result.Exports)
		})
	}
}

func TestLineAt(t *testing.T) {
	t.Parallel()

	source := "a\nb\nc"
	assert.Equal(t, 1, lineAt(source, 0))
	assert.Equal(t, 2, lineAt(source, 2))
	assert.Equal(t, 3, lineAt(source, 100))
}
