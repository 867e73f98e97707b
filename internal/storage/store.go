// Package storage persists ProjectContext snapshots between runs.
//
// The engine itself is purely in-memory. A snapshot lets the CLI report on a
// project without rescanning it, and lets a later run restore the context
// instead of rebuilding it.
package storage

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/Benny93/axon-context/internal/engine"
)

// DirName is the per-project directory holding snapshots. Discovery ignores it.
const DirName = ".axon"

// snapshotVersion changes whenever the stored layout does.
const snapshotVersion = 1

var (
	// ErrNoSnapshot is returned by Load when nothing has been saved.
	ErrNoSnapshot = errors.New("no snapshot")

	// ErrIncompatibleSnapshot is returned by Load for snapshots written with
	// another layout version.
	ErrIncompatibleSnapshot = errors.New("incompatible snapshot version")
)

// Store saves and loads one project's context.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Save replaces any stored snapshot with pc. The caller must keep pc
	// unchanged until Save returns.
	Save(ctx context.Context, pc *engine.ProjectContext) error

	// Load returns the stored snapshot, or ErrNoSnapshot.
	Load(ctx context.Context) (*engine.ProjectContext, error)

	// Close releases all resources held by the store.
	Close() error
}

// Dir returns the snapshot directory of root.
func Dir(root string) string {
	return filepath.Join(root, DirName)
}

// Path returns the badger database location for root.
func Path(root string) string {
	return filepath.Join(Dir(root), "context.db")
}
