package ingestion

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"

	"github.com/Benny93/axon-context/internal/graph"
	"github.com/Benny93/axon-context/internal/parsers"
)

// candidateSuffixes are probed, in order, against the known paths when
// resolving a local specifier.
var candidateSuffixes = []string{
	"",
	".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs",
	".py", ".go", ".rs", ".rb", ".vue", ".svelte",
	"/index.ts", "/index.tsx", "/index.js", "/index.jsx",
	"/__init__.py", "/mod.rs",
}

// resolve maps one import to the known files it refers to. Most imports
// resolve to at most one file; a Go package import resolves to every non-test
// file of the package.
func (a *Analyzer) resolve(from string, lang graph.Language, imp parsers.ImportStatement) []string {
	spec := imp.ModulePath

	switch lang {
	case graph.LangPython:
		return a.resolvePython(from, imp)
	case graph.LangGo:
		return a.resolveGo(spec)
	}

	if !imp.IsRelative {
		return nil
	}

	var target string
	if strings.HasPrefix(spec, "/") {
		target = path.Clean(strings.TrimPrefix(spec, "/"))
	} else {
		target = path.Join(pathDir(from), spec)
	}
	return a.probe(target)
}

// resolvePython handles dotted imports. Relative imports climb one directory
// per leading dot beyond the first; absolute ones resolve from the root. When
// the module itself is not a known file, imported names are tried as
// submodules ("from pkg import mod").
func (a *Analyzer) resolvePython(from string, imp parsers.ImportStatement) []string {
	spec := imp.ModulePath
	target := strings.ReplaceAll(spec, ".", "/")

	if imp.IsRelative {
		rest := strings.TrimLeft(spec, ".")
		base := pathDir(from)
		for range len(spec) - len(rest) - 1 {
			base = pathDir(base)
		}

		if rest == "" {
			// "from . import x" names modules of the package itself.
			if out := a.probeSymbols(base, imp.Symbols); len(out) > 0 {
				return out
			}
			return a.probe(base)
		}
		target = path.Join(base, strings.ReplaceAll(rest, ".", "/"))
	}

	if out := a.probe(target); len(out) > 0 {
		return out
	}
	return a.probeSymbols(target, imp.Symbols)
}

// probeSymbols resolves each name as a module under dir.
func (a *Analyzer) probeSymbols(dir string, symbols []string) []string {
	var out []string
	for _, symbol := range symbols {
		out = append(out, a.probe(path.Join(dir, symbol))...)
	}
	return out
}

// resolveGo maps an import under the root module to the package's files.
func (a *Analyzer) resolveGo(spec string) []string {
	if a.goModule == "" {
		return nil
	}

	var dir string
	switch {
	case spec == a.goModule:
		dir = "."
	case strings.HasPrefix(spec, a.goModule+"/"):
		dir = strings.TrimPrefix(spec, a.goModule+"/")
	default:
		return nil
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string(nil), a.goPackages[dir]...)
}

// probe returns the first known path formed by target plus a candidate suffix.
func (a *Analyzer) probe(target string) []string {
	if target == ".." || strings.HasPrefix(target, "../") {
		return nil
	}

	for _, suffix := range candidateSuffixes {
		candidate := target + suffix
		if target == "." {
			if suffix == "" {
				continue
			}
			candidate = strings.TrimPrefix(suffix, "/")
		}
		if a.has(candidate) {
			return []string{candidate}
		}
	}
	return nil
}

// readGoModule returns the module path of <root>/go.mod, or "".
func readGoModule(root string) string {
	content, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return ""
	}
	return modfile.ModulePath(content)
}

// pathDir is path.Dir for slash-separated relative paths; the root is ".".
func pathDir(p string) string {
	return path.Dir(p)
}
