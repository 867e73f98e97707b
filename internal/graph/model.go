// Package graph provides the file-level dependency graph model for Axon.
//
// It defines the FileNode record produced by the analyzer for every scanned
// source file and the Language enumeration derived from file extensions.
package graph

import (
	"path"
	"strings"
	"time"
)

// Language represents the programming language of a file.
type Language string

const (
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
	LangPython     Language = "python"
	LangGo         Language = "go"
	LangRust       Language = "rust"
	LangJava       Language = "java"
	LangKotlin     Language = "kotlin"
	LangRuby       Language = "ruby"
	LangPHP        Language = "php"
	LangC          Language = "c"
	LangCPP        Language = "cpp"
	LangCSharp     Language = "csharp"
	LangSwift      Language = "swift"
	LangVue        Language = "vue"
	LangSvelte     Language = "svelte"
	LangJSON       Language = "json"
	LangYAML       Language = "yaml"
	LangTOML       Language = "toml"
	LangUnknown    Language = "unknown"
)

// Supported file extensions and their languages.
var extensionLanguages = map[string]Language{
	".ts":     LangTypeScript,
	".tsx":    LangTypeScript,
	".mts":    LangTypeScript,
	".cts":    LangTypeScript,
	".js":     LangJavaScript,
	".jsx":    LangJavaScript,
	".mjs":    LangJavaScript,
	".cjs":    LangJavaScript,
	".py":     LangPython,
	".go":     LangGo,
	".rs":     LangRust,
	".java":   LangJava,
	".kt":     LangKotlin,
	".kts":    LangKotlin,
	".rb":     LangRuby,
	".php":    LangPHP,
	".c":      LangC,
	".h":      LangC,
	".cc":     LangCPP,
	".cpp":    LangCPP,
	".cxx":    LangCPP,
	".hpp":    LangCPP,
	".hh":     LangCPP,
	".cs":     LangCSharp,
	".swift":  LangSwift,
	".vue":    LangVue,
	".svelte": LangSvelte,
	".json":   LangJSON,
	".yaml":   LangYAML,
	".yml":    LangYAML,
	".toml":   LangTOML,
}

// DetectLanguage maps a file name to its language by extension.
// Unmapped extensions yield LangUnknown.
func DetectLanguage(name string) Language {
	if lang, ok := extensionLanguages[strings.ToLower(path.Ext(name))]; ok {
		return lang
	}
	return LangUnknown
}

// IsSupported reports whether the file extension is one the discoverer scans.
func IsSupported(name string) bool {
	_, ok := extensionLanguages[strings.ToLower(path.Ext(name))]
	return ok
}

// SupportedExtensions returns the scanned extensions, including the dot.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extensionLanguages))
	for ext := range extensionLanguages {
		exts = append(exts, ext)
	}
	return exts
}

// FileNode is one analyzed file.
type FileNode struct {
	// Path is the absolute file path.
	Path string `json:"path"`

	// RelativePath is the slash-separated path relative to the project root.
	// It is the node key and is unique within a graph.
	RelativePath string `json:"relative_path"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// Lines is the line count.
	Lines int `json:"lines"`

	// Language is derived from the file extension.
	Language Language `json:"language"`

	// Complexity is the decision-point density per 100 lines.
	// It is a heuristic, not cyclomatic complexity.
	Complexity float64 `json:"complexity"`

	// Dependencies holds resolved local imports as relative paths, in source order.
	Dependencies []string `json:"dependencies"`

	// Exports holds exported symbol names (best-effort).
	Exports []string `json:"exports"`

	// Imports holds raw import specifiers as written, local or not.
	Imports []string `json:"imports"`

	// LastModified is the file modification time.
	LastModified time.Time `json:"last_modified"`

	// ChangeFrequency is the number of commits touching the file.
	ChangeFrequency int `json:"change_frequency"`

	// CoChangedWith maps other relative paths to the number of recent
	// commits they shared with this file.
	CoChangedWith map[string]int `json:"co_changed_with"`
}

// Basename returns the final element of the relative path.
func (n *FileNode) Basename() string {
	return path.Base(n.RelativePath)
}

// DependsOn reports whether the node lists dep among its dependencies.
func (n *FileNode) DependsOn(dep string) bool {
	for _, d := range n.Dependencies {
		if d == dep {
			return true
		}
	}
	return false
}
