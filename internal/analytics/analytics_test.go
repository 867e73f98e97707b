package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/axon-context/internal/graph"
)

func file(rel string, deps ...string) *graph.FileNode {
	return &graph.FileNode{
		RelativePath: rel,
		Language:     graph.DetectLanguage(rel),
		Dependencies: deps,
	}
}

func TestLanguages(t *testing.T) {
	t.Parallel()

	g := graph.Build([]*graph.FileNode{file("a.ts"), file("b.ts"), file("c.py"), file("notes.txt")})

	assert.Equal(t, map[graph.Language]int{
		graph.LangTypeScript: 2,
		graph.LangPython:     1,
		graph.LangUnknown:    1,
	}, Languages(g))
}

func TestHotSpots(t *testing.T) {
	t.Parallel()

	t.Run("SortedAndBounded", func(t *testing.T) {
		t.Parallel()

		var nodes []*graph.FileNode
		for i := range 30 {
			n := file(fmt.Sprintf("f%02d.ts", i))
			n.ChangeFrequency = i % 7
			nodes = append(nodes, n)
		}
		g := graph.Build(nodes)

		hot := HotSpots(g)
		require.LessOrEqual(t, len(hot), MaxRanked)
		require.Len(t, hot, MaxRanked)

		prev := -1
		for i, rel := range hot {
			freq := g.Node(rel).ChangeFrequency
			assert.Positive(t, freq)
			if i > 0 {
				assert.LessOrEqual(t, freq, prev)
			}
			prev = freq
		}
	})

	t.Run("TiesKeepDiscoveryOrder", func(t *testing.T) {
		t.Parallel()

		a, b, c := file("z.ts"), file("a.ts"), file("m.ts")
		a.ChangeFrequency, b.ChangeFrequency, c.ChangeFrequency = 3, 3, 5
		g := graph.Build([]*graph.FileNode{a, b, c})

		assert.Equal(t, []string{"m.ts", "z.ts", "a.ts"}, HotSpots(g))
	})

	t.Run("NoHistory", func(t *testing.T) {
		t.Parallel()
		g := graph.Build([]*graph.FileNode{file("a.ts"), file("b.ts")})
		assert.Empty(t, HotSpots(g))
	})
}

func TestComplexFiles(t *testing.T) {
	t.Parallel()

	low, mid, high, edge := file("low.ts"), file("mid.ts"), file("high.ts"), file("edge.ts")
	low.Complexity, mid.Complexity, high.Complexity, edge.Complexity = 2, 6, 16, 5
	g := graph.Build([]*graph.FileNode{low, mid, high, edge})

	assert.Equal(t, []string{"high.ts", "mid.ts"}, ComplexFiles(g))
}

func TestEntryPoints(t *testing.T) {
	t.Parallel()

	t.Run("CanonicalNamesThenMostDependedUpon", func(t *testing.T) {
		t.Parallel()

		g := graph.Build([]*graph.FileNode{
			file("src/index.ts", "src/util.ts", "src/db.ts"),
			file("cmd/main.go"),
			file("app.json"),
			file("src/util.ts"),
			file("src/db.ts", "src/util.ts"),
			file("src/api.ts", "src/util.ts", "src/index.ts"),
			file("server.py"),
		})

		assert.Equal(t, []string{
			"src/index.ts",
			"cmd/main.go",
			"server.py",
			"src/util.ts",
			"src/db.ts",
		}, EntryPoints(g))
	})

	t.Run("OnlyTopFiveByDependents", func(t *testing.T) {
		t.Parallel()

		var nodes []*graph.FileNode
		for i := range 8 {
			target := fmt.Sprintf("lib%d.ts", i)
			nodes = append(nodes, file(target))
			for j := 0; j <= i; j++ {
				nodes = append(nodes, file(fmt.Sprintf("user%d_%d.ts", i, j), target))
			}
		}
		g := graph.Build(nodes)

		assert.Equal(t, []string{"lib7.ts", "lib6.ts", "lib5.ts", "lib4.ts", "lib3.ts"}, EntryPoints(g))
	})
}

func TestTestFiles(t *testing.T) {
	t.Parallel()

	g := graph.Build([]*graph.FileNode{
		file("src/auth.test.ts"),
		file("src/Auth.SPEC.js"),
		file("src/__tests__/login.ts"),
		file("src/auth.ts"),
		file("src/contest.ts"),
	})

	assert.Equal(t, []string{"src/auth.test.ts", "src/Auth.SPEC.js", "src/__tests__/login.ts"}, TestFiles(g))
	assert.False(t, IsTestPath("pkg/store_test.go"))
}

func TestConfigFiles(t *testing.T) {
	t.Parallel()

	g := graph.Build([]*graph.FileNode{
		file("package.json"),
		file("web/tsconfig.json"),
		file("vite.config.ts"),
		file(".eslintrc.json"),
		file("src/config.ts"),
		file("data/package.json.bak.json"),
	})

	assert.Equal(t, []string{
		"package.json",
		"web/tsconfig.json",
		"vite.config.ts",
		".eslintrc.json",
		"data/package.json.bak.json",
	}, ConfigFiles(g))
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	hot := file("main.go")
	hot.ChangeFrequency = 4
	hot.Complexity = 9
	g := graph.Build([]*graph.FileNode{hot, file("main_test.go"), file("package.json")})

	report := Analyze(g)
	assert.Equal(t, []string{"main.go"}, report.HotSpots)
	assert.Equal(t, []string{"main.go"}, report.ComplexFiles)
	assert.Equal(t, []string{"main.go"}, report.EntryPoints)
	assert.Empty(t, report.TestFiles)
	assert.Equal(t, []string{"package.json"}, report.ConfigFiles)
	assert.Equal(t, 2, report.Languages[graph.LangGo])
}
