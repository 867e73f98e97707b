// Package project detects the package manager and frameworks of a project
// from its manifests and lockfiles.
package project

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/modfile"
)

// PackageManager identifies the tool that manages a project's dependencies.
type PackageManager string

// Package managers.
const (
	PackageManagerNone   PackageManager = "none"
	PackageManagerNPM    PackageManager = "npm"
	PackageManagerYarn   PackageManager = "yarn"
	PackageManagerPNPM   PackageManager = "pnpm"
	PackageManagerBun    PackageManager = "bun"
	PackageManagerGo     PackageManager = "go"
	PackageManagerCargo  PackageManager = "cargo"
	PackageManagerPoetry PackageManager = "poetry"
	PackageManagerPipenv PackageManager = "pipenv"
	PackageManagerPip    PackageManager = "pip"
)

// Manifest is what Detect learned about a project.
type Manifest struct {
	PackageManager PackageManager `json:"package_manager"`
	Frameworks     []string       `json:"frameworks"`
}

// lockfiles maps lockfile names to their package manager, checked in order.
var lockfiles = []struct {
	name    string
	manager PackageManager
}{
	{"bun.lockb", PackageManagerBun},
	{"bun.lock", PackageManagerBun},
	{"pnpm-lock.yaml", PackageManagerPNPM},
	{"yarn.lock", PackageManagerYarn},
	{"package-lock.json", PackageManagerNPM},
	{"package.json", PackageManagerNPM},
	{"go.mod", PackageManagerGo},
	{"Cargo.toml", PackageManagerCargo},
	{"poetry.lock", PackageManagerPoetry},
	{"Pipfile.lock", PackageManagerPipenv},
	{"Pipfile", PackageManagerPipenv},
	{"requirements.txt", PackageManagerPip},
	{"pyproject.toml", PackageManagerPip},
}

// Dependency name → framework, per ecosystem.
var (
	npmFrameworks = map[string]string{
		"react":            "react",
		"react-native":     "react-native",
		"next":             "nextjs",
		"vue":              "vue",
		"nuxt":             "nuxt",
		"svelte":           "svelte",
		"@sveltejs/kit":    "sveltekit",
		"@angular/core":    "angular",
		"solid-js":         "solid",
		"astro":            "astro",
		"@remix-run/react": "remix",
		"express":          "express",
		"fastify":          "fastify",
		"koa":              "koa",
		"@nestjs/core":     "nestjs",
		"electron":         "electron",
		"vite":             "vite",
		"webpack":          "webpack",
		"tailwindcss":      "tailwind",
		"typescript":       "typescript",
		"jest":             "jest",
		"vitest":           "vitest",
		"mocha":            "mocha",
	}

	goFrameworks = map[string]string{
		"github.com/gin-gonic/gin":    "gin",
		"github.com/labstack/echo":    "echo",
		"github.com/gofiber/fiber":    "fiber",
		"github.com/go-chi/chi":       "chi",
		"github.com/gorilla/mux":      "gorilla",
		"github.com/spf13/cobra":      "cobra",
		"github.com/alecthomas/kong":  "kong",
		"google.golang.org/grpc":      "grpc",
		"github.com/stretchr/testify": "testify",
	}

	pythonFrameworks = map[string]string{
		"django":     "django",
		"flask":      "flask",
		"fastapi":    "fastapi",
		"starlette":  "starlette",
		"pytest":     "pytest",
		"numpy":      "numpy",
		"pandas":     "pandas",
		"torch":      "pytorch",
		"tensorflow": "tensorflow",
		"sqlalchemy": "sqlalchemy",
	}

	cargoFrameworks = map[string]string{
		"tokio":     "tokio",
		"actix-web": "actix",
		"axum":      "axum",
		"rocket":    "rocket",
		"warp":      "warp",
		"serde":     "serde",
		"clap":      "clap",
	}
)

// Detect inspects the manifests in root. Missing or malformed manifests are
// ignored; a directory without any yields PackageManagerNone.
func Detect(root string) Manifest {
	m := Manifest{PackageManager: PackageManagerNone}

	for _, lf := range lockfiles {
		if fileExists(filepath.Join(root, lf.name)) {
			m.PackageManager = lf.manager
			break
		}
	}

	found := make(map[string]struct{})
	add := func(table map[string]string, deps []string) {
		for _, dep := range deps {
			if fw, ok := table[strings.ToLower(dep)]; ok {
				found[fw] = struct{}{}
			}
		}
	}

	add(npmFrameworks, packageJSONDeps(root))
	add(pythonFrameworks, pythonDeps(root))
	add(cargoFrameworks, cargoDeps(root))
	for _, dep := range goModDeps(root) {
		if fw, ok := goFrameworks[trimMajorVersion(dep)]; ok {
			found[fw] = struct{}{}
		}
	}

	m.Frameworks = make([]string, 0, len(found))
	for fw := range found {
		m.Frameworks = append(m.Frameworks, fw)
	}
	sort.Strings(m.Frameworks)
	return m
}

func packageJSONDeps(root string) []string {
	content, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return nil
	}

	var pkg struct {
		Dependencies     map[string]string `json:"dependencies"`
		DevDependencies  map[string]string `json:"devDependencies"`
		PeerDependencies map[string]string `json:"peerDependencies"`
	}
	if err := json.Unmarshal(content, &pkg); err != nil {
		return nil
	}

	var deps []string
	for _, set := range []map[string]string{pkg.Dependencies, pkg.DevDependencies, pkg.PeerDependencies} {
		for name := range set {
			deps = append(deps, name)
		}
	}
	return deps
}

func goModDeps(root string) []string {
	content, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return nil
	}

	f, err := modfile.ParseLax("go.mod", content, nil)
	if err != nil {
		return nil
	}

	deps := make([]string, 0, len(f.Require))
	for _, req := range f.Require {
		deps = append(deps, req.Mod.Path)
	}
	return deps
}

// trimMajorVersion drops a trailing /vN major-version suffix.
func trimMajorVersion(modPath string) string {
	i := strings.LastIndex(modPath, "/v")
	if i < 0 || i+2 >= len(modPath) {
		return modPath
	}
	for _, r := range modPath[i+2:] {
		if r < '0' || r > '9' {
			return modPath
		}
	}
	return modPath[:i]
}

func pythonDeps(root string) []string {
	var deps []string

	if content, err := os.ReadFile(filepath.Join(root, "pyproject.toml")); err == nil {
		var py struct {
			Project struct {
				Dependencies []string `toml:"dependencies"`
			} `toml:"project"`
			Tool struct {
				Poetry struct {
					Dependencies map[string]any `toml:"dependencies"`
				} `toml:"poetry"`
			} `toml:"tool"`
		}
		if err := toml.Unmarshal(content, &py); err == nil {
			for _, req := range py.Project.Dependencies {
				deps = append(deps, requirementName(req))
			}
			for name := range py.Tool.Poetry.Dependencies {
				deps = append(deps, name)
			}
		}
	}

	if content, err := os.ReadFile(filepath.Join(root, "requirements.txt")); err == nil {
		scanner := bufio.NewScanner(bytes.NewReader(content))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
				continue
			}
			deps = append(deps, requirementName(line))
		}
	}

	return deps
}

// requirementName extracts the distribution name from a PEP 508 requirement.
func requirementName(req string) string {
	end := strings.IndexAny(req, " <>=!~;[@(")
	if end >= 0 {
		req = req[:end]
	}
	return strings.TrimSpace(req)
}

func cargoDeps(root string) []string {
	content, err := os.ReadFile(filepath.Join(root, "Cargo.toml"))
	if err != nil {
		return nil
	}

	var cargo struct {
		Dependencies    map[string]any `toml:"dependencies"`
		DevDependencies map[string]any `toml:"dev-dependencies"`
	}
	if err := toml.Unmarshal(content, &cargo); err != nil {
		return nil
	}

	var deps []string
	for _, set := range []map[string]any{cargo.Dependencies, cargo.DevDependencies} {
		for name := range set {
			deps = append(deps, name)
		}
	}
	return deps
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
