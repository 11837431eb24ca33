package storage

import (
	"context"
	"sync"

	"github.com/platinummonkey/petstore/pkg/pets"
)

// TypeMemory names the in-memory store
const TypeMemory = "memory"

// MemoryDocumentStore keeps the catalog in memory. Used by tests and as a
// scratch store for the CLI.
type MemoryDocumentStore struct {
	mu      sync.Mutex
	catalog pets.Catalog
	loads   int
	saves   int
}

// NewMemoryDocumentStore creates a store holding a copy of catalog
func NewMemoryDocumentStore(catalog pets.Catalog) *MemoryDocumentStore {
	if catalog == nil {
		catalog = pets.Catalog{}
	}
	return &MemoryDocumentStore{catalog: catalog.Clone()}
}

// Name implements DocumentStore.Name
func (s *MemoryDocumentStore) Name() string {
	return TypeMemory
}

// Load implements DocumentStore.Load
func (s *MemoryDocumentStore) Load(ctx context.Context) (pets.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	return s.catalog.Clone(), nil
}

// Save implements DocumentStore.Save
func (s *MemoryDocumentStore) Save(ctx context.Context, catalog pets.Catalog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.catalog = catalog.Clone()
	return nil
}

// Counts returns how many loads and saves reached the store
func (s *MemoryDocumentStore) Counts() (loads, saves int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads, s.saves
}
