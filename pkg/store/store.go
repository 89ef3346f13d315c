package store

import (
	"fmt"

	"github.com/oiutils/threearc/pkg/types"
)

// MemoryPath selects the in-memory store.
const MemoryPath = ":memory:"

// Store provides persistence for extraction manifests.
// This interface abstracts the underlying storage implementation,
// allowing for different backends.
type Store interface {
	// AddContainer stores the summary of a processed container, replacing
	// any earlier run for the same path.
	AddContainer(run *types.ContainerRun) error

	// AddRecord stores an entry record, replacing any earlier record for the
	// same container and index.
	AddRecord(r *types.Record) error

	// GetContainers retrieves all container runs ordered by path.
	GetContainers() ([]*types.ContainerRun, error)

	// GetRecords retrieves the records of one container ordered by index,
	// or of every container when path is empty.
	GetRecords(path string) ([]*types.Record, error)

	// ContainerExists checks if a container has already been processed.
	ContainerExists(path string) (bool, error)

	// Close closes the underlying database.
	Close() error
}

// Config for store initialization.
type Config struct {
	// Path is the database file path.
	// Use ":memory:" for an in-memory store (useful for testing).
	Path string
}

// New creates a new Store. ":memory:" yields a MemoryStore, any other path
// a SQLite database.
func New(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	if cfg.Path == MemoryPath {
		return NewMemory(), nil
	}

	return NewSQLite(cfg.Path)
}
