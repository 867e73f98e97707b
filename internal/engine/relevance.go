package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

const (
	// MaxResults is the number of scores returned by CalculateRelevance.
	MaxResults = 20

	// maxCached is the number of scores kept per cache entry.
	maxCached = 50

	// frequentChangeThreshold is the commit count above which a file counts
	// as frequently modified (exclusive).
	frequentChangeThreshold = 10

	// maxCoChangeBonus caps the co-change bonus per open file.
	maxCoChangeBonus = 20
)

// Score weights.
const (
	weightPathToken   = 10
	weightOpen        = 50
	weightImportedBy  = 30
	weightImports     = 25
	weightEntryPoint  = 15
	weightFrequent    = 10
	weightTestFile    = 20
	coChangePerCommit = 2
)

var testQueryTokens = map[string]bool{"test": true, "testing": true, "spec": true}

// CalculateRelevance ranks the project's files for a free-text query and the
// set of files currently open. At most MaxResults scores are returned, highest
// first; files scoring zero are omitted.
func (e *Engine) CalculateRelevance(query string, currentFiles []string) ([]RelevanceScore, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.pc == nil {
		return nil, ErrNotInitialized
	}

	pc := e.pc
	key := query + ":" + strings.Join(currentFiles, ",")
	return e.cache.get(key, func() []RelevanceScore {
		return scoreFiles(pc, query, currentFiles)
	}), nil
}

func scoreFiles(pc *ProjectContext, query string, currentFiles []string) []RelevanceScore {
	tokens := strings.Fields(strings.ToLower(query))
	wantsTests := false
	for _, tok := range tokens {
		if testQueryTokens[tok] {
			wantsTests = true
			break
		}
	}

	open := toSet(currentFiles)
	entries := toSet(pc.EntryPoints)
	tests := toSet(pc.TestFiles)
	g := pc.Graph

	// Dependencies of each open file, read from its node so a refreshed file's
	// new imports count before edges are rebuilt.
	openDeps := make(map[string]map[string]bool, len(currentFiles))
	for _, c := range currentFiles {
		if cn := g.Node(c); cn != nil {
			openDeps[c] = toSet(cn.Dependencies)
		}
	}

	var out []RelevanceScore
	for _, node := range g.Ordered() {
		f := node.RelativePath
		lower := strings.ToLower(f)
		s := RelevanceScore{File: f}

		for _, tok := range tokens {
			if strings.Contains(lower, tok) {
				s.add(weightPathToken, fmt.Sprintf("Path matches %q", tok))
			}
		}
		if open[f] {
			s.add(weightOpen, "Currently open")
		}
		for _, c := range currentFiles {
			if openDeps[c][f] {
				s.add(weightImportedBy, "Imported by "+c)
			}
			if g.ReverseEdges[c].Has(f) {
				s.add(weightImports, "Imports "+c)
			}
		}
		for _, c := range currentFiles {
			cn := g.Node(c)
			if cn == nil {
				continue
			}
			if n := cn.CoChangedWith[f]; n > 0 {
				s.add(min(coChangePerCommit*n, maxCoChangeBonus), "Often changes with "+c)
			}
		}
		if entries[f] {
			s.add(weightEntryPoint, "Entry point")
		}
		if node.ChangeFrequency > frequentChangeThreshold {
			s.add(weightFrequent, "Frequently modified")
		}
		if wantsTests && tests[f] {
			s.add(weightTestFile, "Test file")
		}

		if s.Score > 0 {
			out = append(out, s)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func (s *RelevanceScore) add(points int, reason string) {
	s.Score += points
	s.Reasons = append(s.Reasons, reason)
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}

// relevanceCache memoizes ranked results per (query, open files) key.
// Concurrent misses on one key share a single computation.
type relevanceCache struct {
	group singleflight.Group

	mu         sync.Mutex
	entries    map[string][]RelevanceScore
	generation uint64
}

func newRelevanceCache() *relevanceCache {
	return &relevanceCache{entries: make(map[string][]RelevanceScore)}
}

func (c *relevanceCache) get(key string, compute func() []RelevanceScore) []RelevanceScore {
	c.mu.Lock()
	cached, ok := c.entries[key]
	gen := c.generation
	c.mu.Unlock()
	if ok {
		return head(cached, MaxResults)
	}

	v, _, _ := c.group.Do(fmt.Sprintf("%d/%s", gen, key), func() (any, error) {
		results := head(compute(), maxCached)
		c.mu.Lock()
		if c.generation == gen {
			c.entries[key] = results
		}
		c.mu.Unlock()
		return results, nil
	})
	return head(v.([]RelevanceScore), MaxResults)
}

func (c *relevanceCache) clear() {
	c.mu.Lock()
	c.entries = make(map[string][]RelevanceScore)
	c.generation++
	c.mu.Unlock()
}

func (c *relevanceCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// head returns a copy of at most n leading items.
func head[T any](items []T, n int) []T {
	if len(items) > n {
		items = items[:n]
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}
