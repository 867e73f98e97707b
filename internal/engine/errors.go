package engine

import "errors"

var (
	// ErrNotInitialized is returned by queries issued before Initialize.
	ErrNotInitialized = errors.New("engine not initialized")

	// ErrInvalidPath is returned for empty, absolute or root-escaping paths.
	ErrInvalidPath = errors.New("invalid relative path")

	// ErrRootNotDirectory is returned when the root exists but is not a directory.
	ErrRootNotDirectory = errors.New("root is not a directory")
)
