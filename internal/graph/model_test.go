package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		file     string
		expected Language
	}{
		{"TypeScript", "src/app.ts", LangTypeScript},
		{"TSX", "src/App.tsx", LangTypeScript},
		{"JavaScript", "lib/index.js", LangJavaScript},
		{"ESModule", "lib/index.mjs", LangJavaScript},
		{"Python", "pkg/mod.py", LangPython},
		{"Go", "cmd/main.go", LangGo},
		{"Rust", "src/lib.rs", LangRust},
		{"UpperCaseExtension", "README.JSON", LangJSON},
		{"Header", "include/x.h", LangC},
		{"Unknown", "notes.md", LangUnknown},
		{"NoExtension", "Makefile", LangUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, DetectLanguage(tt.file))
		})
	}
}

func TestIsSupported(t *testing.T) {
	t.Parallel()

	assert.True(t, IsSupported("a.ts"))
	assert.True(t, IsSupported("config/settings.yml"))
	assert.False(t, IsSupported("image.png"))
	assert.False(t, IsSupported("Dockerfile"))
}

func TestFileNode_DependsOn(t *testing.T) {
	t.Parallel()

	n := &FileNode{RelativePath: "src/a.ts", Dependencies: []string{"src/b.ts", "src/c.ts"}}

	assert.True(t, n.DependsOn("src/b.ts"))
	assert.False(t, n.DependsOn("src/d.ts"))
	assert.Equal(t, "a.ts", n.Basename())
}
