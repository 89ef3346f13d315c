package store

import (
	"sort"
	"sync"

	"github.com/oiutils/threearc/pkg/types"
)

// recordKey identifies one entry of one container.
type recordKey struct {
	container string
	index     int
}

// MemoryStore implements Store using in-memory data structures.
type MemoryStore struct {
	mu         sync.RWMutex
	containers map[string]*types.ContainerRun // keyed by path
	records    map[recordKey]*types.Record
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		containers: make(map[string]*types.ContainerRun),
		records:    make(map[recordKey]*types.Record),
	}
}

// AddContainer stores a container run.
func (m *MemoryStore) AddContainer(run *types.ContainerRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *run
	m.containers[run.Path] = &c
	return nil
}

// AddRecord stores an entry record.
func (m *MemoryStore) AddRecord(r *types.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *r
	m.records[recordKey{container: r.Container, index: r.Index}] = &c
	return nil
}

// GetContainers retrieves all container runs.
func (m *MemoryStore) GetContainers() ([]*types.ContainerRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]*types.ContainerRun, 0, len(m.containers))
	for _, run := range m.containers {
		c := *run
		runs = append(runs, &c)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Path < runs[j].Path
	})
	return runs, nil
}

// GetRecords retrieves entry records.
func (m *MemoryStore) GetRecords(path string) ([]*types.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var records []*types.Record
	for key, r := range m.records {
		if path != "" && key.container != path {
			continue
		}
		c := *r
		records = append(records, &c)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Container != records[j].Container {
			return records[i].Container < records[j].Container
		}
		return records[i].Index < records[j].Index
	})
	return records, nil
}

// ContainerExists checks if a container run was stored.
func (m *MemoryStore) ContainerExists(path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.containers[path]
	return exists, nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error {
	return nil
}
