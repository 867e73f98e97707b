package storage

import (
	"context"
	"sync"

	"github.com/Benny93/axon-context/internal/engine"
	"github.com/Benny93/axon-context/internal/graph"
)

// MemoryStore is an in-memory implementation of Store for testing. It keeps
// the encoded form so a loaded context never aliases the saved one.
type MemoryStore struct {
	mu   sync.RWMutex
	data []byte
}

type memoryDocument struct {
	Meta  meta                       `json:"meta"`
	Nodes map[string]*graph.FileNode `json:"nodes"`
	Edges map[string][]string        `json:"edges"`
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save implements Store.
func (m *MemoryStore) Save(ctx context.Context, pc *engine.ProjectContext) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encode(memoryDocument{
		Meta:  metaOf(pc),
		Nodes: pc.Graph.Nodes,
		Edges: edgeLists(pc.Graph),
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(ctx context.Context) (*engine.ProjectContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	data := m.data
	m.mu.RUnlock()
	if data == nil {
		return nil, ErrNoSnapshot
	}

	var doc memoryDocument
	if err := decode(data, &doc); err != nil {
		return nil, err
	}
	return assemble(doc.Meta, doc.Nodes, doc.Edges)
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}
