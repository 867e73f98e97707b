package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/Benny93/axon-context/internal/engine"
	"github.com/Benny93/axon-context/internal/graph"
)

// Key prefixes for different data types
const (
	keyMeta    = "m:context" // context metadata
	prefixNode = "n:"        // node data
	prefixEdge = "e:"        // forward edges of one file
)

// BadgerOptions configures OpenBadger.
type BadgerOptions struct {
	ReadOnly bool

	// Logger receives badger's warnings and errors. Nil discards them.
	Logger *slog.Logger
}

// BadgerStore keeps a snapshot in a BadgerDB directory. Values are
// zstd-compressed JSON.
type BadgerStore struct {
	mu sync.RWMutex
	db *badger.DB
}

// OpenBadger opens or creates the database at path.
func OpenBadger(path string, opts BadgerOptions) (*BadgerStore, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	bopts := badger.DefaultOptions(path).
		WithNumCompactors(2).
		WithNumMemtables(2).
		WithLogger(badgerLogger{logger}).
		WithLoggingLevel(badger.WARNING).
		WithReadOnly(opts.ReadOnly)

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("opening badger DB: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Close implements Store.
func (b *BadgerStore) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

// Save implements Store.
func (b *BadgerStore) Save(ctx context.Context, pc *engine.ProjectContext) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return errors.New("store closed")
	}

	if err := b.db.DropAll(); err != nil {
		return fmt.Errorf("clearing snapshot: %w", err)
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()

	g := pc.Graph
	for _, rel := range sortedKeys(g.Nodes) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := setEncoded(wb, prefixNode+rel, g.Nodes[rel]); err != nil {
			return fmt.Errorf("setting node %s: %w", rel, err)
		}
	}
	for from, targets := range edgeLists(g) {
		if err := setEncoded(wb, prefixEdge+from, targets); err != nil {
			return fmt.Errorf("setting edges of %s: %w", from, err)
		}
	}
	// Metadata goes last so a torn write reads as no snapshot.
	if err := setEncoded(wb, keyMeta, metaOf(pc)); err != nil {
		return fmt.Errorf("setting metadata: %w", err)
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flushing snapshot: %w", err)
	}
	return nil
}

// Load implements Store.
func (b *BadgerStore) Load(ctx context.Context) (*engine.ProjectContext, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.db == nil {
		return nil, errors.New("store closed")
	}

	var (
		m     meta
		nodes = make(map[string]*graph.FileNode)
		edges = make(map[string][]string)
	)

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyMeta))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoSnapshot
		}
		if err != nil {
			return fmt.Errorf("getting metadata: %w", err)
		}
		if err := item.Value(func(val []byte) error { return decode(val, &m) }); err != nil {
			return fmt.Errorf("metadata: %w", err)
		}

		if err := scan(ctx, txn, prefixNode, func(rel string, val []byte) error {
			var node graph.FileNode
			if err := decode(val, &node); err != nil {
				return err
			}
			nodes[rel] = &node
			return nil
		}); err != nil {
			return fmt.Errorf("loading nodes: %w", err)
		}

		return scan(ctx, txn, prefixEdge, func(from string, val []byte) error {
			var targets []string
			if err := decode(val, &targets); err != nil {
				return err
			}
			edges[from] = targets
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return assemble(m, nodes, edges)
}

// scan calls fn with the unprefixed key and value of every item under prefix.
func scan(ctx context.Context, txn *badger.Txn, prefix string, fn func(key string, val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		item := it.Item()
		key := strings.TrimPrefix(string(item.Key()), prefix)
		if err := item.Value(func(val []byte) error { return fn(key, val) }); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

func setEncoded(wb *badger.WriteBatch, key string, v any) error {
	data, err := encode(v)
	if err != nil {
		return err
	}
	return wb.Set([]byte(key), data)
}

// badgerLogger routes badger's printf-style logging into slog.
type badgerLogger struct {
	l *slog.Logger
}

func (b badgerLogger) Errorf(format string, args ...any) {
	b.l.Error(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}

func (b badgerLogger) Warningf(format string, args ...any) {
	b.l.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}

func (b badgerLogger) Infof(format string, args ...any) {
	b.l.Info(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}

func (b badgerLogger) Debugf(format string, args ...any) {
	b.l.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}
