package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/platinummonkey/petstore/pkg/pets"
)

// FileDocumentStore keeps the catalog in a JSON file on the local filesystem
type FileDocumentStore struct {
	path            string
	createIfMissing bool
}

// NewFileDocumentStore creates a filesystem-backed document store.
// When createIfMissing is set and the file does not exist, it is seeded with
// the fixture catalog.
func NewFileDocumentStore(path string, createIfMissing bool) (*FileDocumentStore, error) {
	if path == "" {
		return nil, fmt.Errorf("document path is required")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create document directory: %w", err)
	}

	s := &FileDocumentStore{path: path, createIfMissing: createIfMissing}

	if createIfMissing {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			if err := s.Seed(context.Background()); err != nil {
				return nil, err
			}
		}
	}

	return s, nil
}

// Path returns the location of the document
func (s *FileDocumentStore) Path() string {
	return s.path
}

// Name implements DocumentStore.Name
func (s *FileDocumentStore) Name() string {
	return TypeFile
}

// Load implements DocumentStore.Load
func (s *FileDocumentStore) Load(ctx context.Context) (pets.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pet store file: %w", err)
	}

	catalog := pets.Catalog{}
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pet store: %w", err)
	}

	return catalog, nil
}

// Save implements DocumentStore.Save. The document is written to a temporary
// file in the same directory and renamed over the original.
func (s *FileDocumentStore) Save(ctx context.Context, catalog pets.Catalog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if catalog == nil {
		catalog = pets.Catalog{}
	}

	data, err := json.MarshalIndent(catalog, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal pet store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".pets-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write pet store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close pet store file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set pet store file mode: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace pet store file: %w", err)
	}

	return nil
}

// Seed overwrites the document with the fixture catalog
func (s *FileDocumentStore) Seed(ctx context.Context) error {
	return s.Save(ctx, pets.SeedCatalog())
}
