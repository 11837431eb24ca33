package pets

import "context"

// Repository is the persistence contract every pet store backend implements
type Repository interface {
	// List returns the whole store
	List(ctx context.Context) (Catalog, error)

	// Get returns a single pet, ErrNotFound when the id is absent
	Get(ctx context.Context, id string) (Pet, error)

	// Add stores a new pet under the next id and returns that id
	Add(ctx context.Context, pet Pet) (string, error)

	// Update replaces every field of an existing pet, ErrNotFound when absent
	Update(ctx context.Context, id string, pet Pet) error

	// Remove deletes a pet, ErrNotFound when absent
	Remove(ctx context.Context, id string) error
}
