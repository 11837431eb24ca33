package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/platinummonkey/petstore/pkg/pets"
)

// DocumentRepository implements pets.Repository on top of a DocumentStore.
// Every call loads the whole catalog; every mutation saves the whole catalog.
type DocumentRepository struct {
	store DocumentStore
	mu    sync.Mutex // serialises load-mutate-save within this process
}

// NewDocumentRepository creates a repository over the given document store
func NewDocumentRepository(store DocumentStore) *DocumentRepository {
	return &DocumentRepository{store: store}
}

// Store returns the underlying document store
func (r *DocumentRepository) Store() DocumentStore {
	return r.store
}

// List implements pets.Repository.List
func (r *DocumentRepository) List(ctx context.Context) (pets.Catalog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	catalog, err := r.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pets: %w", err)
	}
	return catalog, nil
}

// Get implements pets.Repository.Get
func (r *DocumentRepository) Get(ctx context.Context, id string) (pets.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	catalog, err := r.store.Load(ctx)
	if err != nil {
		return pets.Pet{}, fmt.Errorf("failed to load pets: %w", err)
	}

	pet, ok := catalog[id]
	if !ok {
		return pets.Pet{}, fmt.Errorf("pet %s: %w", id, pets.ErrNotFound)
	}
	return pet, nil
}

// Add implements pets.Repository.Add
func (r *DocumentRepository) Add(ctx context.Context, pet pets.Pet) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	catalog, err := r.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load pets: %w", err)
	}

	id, err := catalog.NextID()
	if err != nil {
		return "", err
	}

	catalog[id] = pet
	if err := r.store.Save(ctx, catalog); err != nil {
		return "", fmt.Errorf("failed to save pets: %w", err)
	}
	return id, nil
}

// Update implements pets.Repository.Update
func (r *DocumentRepository) Update(ctx context.Context, id string, pet pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	catalog, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pets: %w", err)
	}

	if _, ok := catalog[id]; !ok {
		return fmt.Errorf("pet %s: %w", id, pets.ErrNotFound)
	}

	catalog[id] = pet
	if err := r.store.Save(ctx, catalog); err != nil {
		return fmt.Errorf("failed to save pets: %w", err)
	}
	return nil
}

// Remove implements pets.Repository.Remove
func (r *DocumentRepository) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	catalog, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pets: %w", err)
	}

	if _, ok := catalog[id]; !ok {
		return fmt.Errorf("pet %s: %w", id, pets.ErrNotFound)
	}

	delete(catalog, id)
	if err := r.store.Save(ctx, catalog); err != nil {
		return fmt.Errorf("failed to save pets: %w", err)
	}
	return nil
}
