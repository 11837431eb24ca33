package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/platinummonkey/petstore/pkg/api"
	"github.com/platinummonkey/petstore/pkg/pets"
	"github.com/platinummonkey/petstore/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects command output for the duration of the test
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })
	return &buf
}

// startServer runs the real API over an in-memory seeded store
func startServer(t *testing.T) (*httptest.Server, *storage.MemoryDocumentStore) {
	t.Helper()
	store := storage.NewMemoryDocumentStore(pets.SeedCatalog())
	srv := httptest.NewServer(api.NewServer(storage.NewDocumentRepository(store)))
	t.Cleanup(srv.Close)
	return srv, store
}

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand()

	assert.Equal(t, "petstore", root.Name)
	for _, name := range []string{"list", "get", "add", "update", "remove", "seed"} {
		assert.Contains(t, root.Subcommands, name)
	}
	assert.Len(t, root.Subcommands, 6)
}

func TestCommandUsage(t *testing.T) {
	out := captureOutput(t)

	require.NoError(t, NewRootCommand().ExecuteArgs(nil))
	assert.Contains(t, out.String(), "Usage: petstore <command> [args]")
	assert.Contains(t, out.String(), "seed")

	out.Reset()
	require.NoError(t, NewRootCommand().ExecuteArgs([]string{"--help"}))
	assert.Contains(t, out.String(), "Commands:")
}

func TestUnknownCommand(t *testing.T) {
	err := NewRootCommand().ExecuteArgs([]string{"adopt"})
	assert.EqualError(t, err, "unknown command: adopt")
}

func TestListCommand(t *testing.T) {
	srv, _ := startServer(t)
	out := captureOutput(t)

	require.NoError(t, NewRootCommand().ExecuteArgs([]string{"list", "-server", srv.URL}))
	assert.Contains(t, out.String(), "ginger")
	assert.Contains(t, out.String(), "python")
	assert.Contains(t, out.String(), "Total: 3 pets")

	out.Reset()
	require.NoError(t, NewRootCommand().ExecuteArgs([]string{"list", "-server", srv.URL, "-json"}))
	assert.JSONEq(t, `[
		{"id": "1", "name": "ginger", "breed": "bengal", "price": 100},
		{"id": "2", "name": "sam", "breed": "husky", "price": 10},
		{"id": "3", "name": "guido", "breed": "python", "price": 518}
	]`, out.String())
}

func TestGetCommand(t *testing.T) {
	srv, _ := startServer(t)
	out := captureOutput(t)

	require.NoError(t, NewRootCommand().ExecuteArgs([]string{"get", "-server", srv.URL, "-id", "2"}))
	assert.Contains(t, out.String(), "Name:  sam")
	assert.Contains(t, out.String(), "Price: 10")

	out.Reset()
	require.NoError(t, NewRootCommand().ExecuteArgs([]string{"get", "-server", srv.URL, "3"}))
	assert.Contains(t, out.String(), "Name:  guido")

	err := NewRootCommand().ExecuteArgs([]string{"get", "-server", srv.URL, "-id", "99"})
	assert.ErrorIs(t, err, pets.ErrNotFound)

	err = NewRootCommand().ExecuteArgs([]string{"get", "-server", srv.URL})
	assert.EqualError(t, err, "pet id is required")
}

func TestAddUpdateRemoveCommands(t *testing.T) {
	srv, store := startServer(t)
	out := captureOutput(t)
	root := NewRootCommand()

	require.NoError(t, root.ExecuteArgs([]string{"add", "-server", srv.URL, "-name", "Yolo", "-breed", "shorthair", "-price", "100"}))
	assert.Contains(t, out.String(), "Added Yolo with id 4")

	require.NoError(t, root.ExecuteArgs([]string{"update", "-server", srv.URL, "-id", "4", "-name", "Yolo", "-breed", "persian", "-price", "99.5"}))
	require.NoError(t, root.ExecuteArgs([]string{"remove", "-server", srv.URL, "-id", "1"}))

	catalog, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pets.Catalog{
		"2": {Name: "sam", Breed: "husky", Price: 10},
		"3": {Name: "guido", Breed: "python", Price: 518},
		"4": {Name: "Yolo", Breed: "persian", Price: 99.5},
	}, catalog)

	err = root.ExecuteArgs([]string{"remove", "-server", srv.URL, "-id", "1"})
	assert.ErrorIs(t, err, pets.ErrNotFound)

	err = root.ExecuteArgs([]string{"update", "-server", srv.URL, "-id", "1", "-name", "a", "-breed", "b", "-price", "1"})
	assert.ErrorIs(t, err, pets.ErrNotFound)
}

func TestPetFlagValidation(t *testing.T) {
	captureOutput(t)
	root := NewRootCommand()

	err := root.ExecuteArgs([]string{"add", "-name", "Yolo", "-breed", "shorthair"})
	assert.EqualError(t, err, "name, breed and price are required")

	err = root.ExecuteArgs([]string{"add", "-name", "Yolo", "-breed", "shorthair", "-price", "lots"})
	assert.ErrorContains(t, err, `invalid price "lots"`)

	err = root.ExecuteArgs([]string{"add", "-colour", "ginger"})
	assert.Error(t, err)
}

func TestAddWithEmptyName(t *testing.T) {
	srv, store := startServer(t)
	out := captureOutput(t)

	require.NoError(t, NewRootCommand().ExecuteArgs([]string{"add", "-server", srv.URL, "-name", "", "-breed", "shorthair", "-price", "100"}))
	assert.Contains(t, out.String(), "with id 4")

	catalog, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pets.Pet{Name: "", Breed: "shorthair", Price: 100}, catalog["4"])

	err = NewRootCommand().ExecuteArgs([]string{"add", "-server", srv.URL, "-breed", "shorthair", "-price", "100"})
	assert.EqualError(t, err, "name, breed and price are required")
}

func TestSeedCommand(t *testing.T) {
	out := captureOutput(t)
	path := filepath.Join(t.TempDir(), "data", "pets.json")

	require.NoError(t, NewRootCommand().ExecuteArgs([]string{"seed", "-file", path}))
	assert.Contains(t, out.String(), "Seeded "+path)

	store, err := storage.NewFileDocumentStore(path, false)
	require.NoError(t, err)
	catalog, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pets.SeedCatalog(), catalog)
}

func TestClientServerError(t *testing.T) {
	store := storage.NewMemoryDocumentStore(pets.Catalog{"abc": {Name: "x", Breed: "y", Price: 1}})
	srv := httptest.NewServer(api.NewServer(storage.NewDocumentRepository(store)))
	defer srv.Close()

	_, err := NewClient(srv.URL).Add(context.Background(), pets.Pet{Name: "a", Breed: "b", Price: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.False(t, errors.Is(err, pets.ErrNotFound))
}

func TestDefaultServer(t *testing.T) {
	t.Setenv("PETSTORE_URL", "")
	assert.Equal(t, "http://localhost:8080", defaultServer())

	t.Setenv("PETSTORE_URL", "http://pets.internal:9000")
	assert.Equal(t, "http://pets.internal:9000", defaultServer())
}
