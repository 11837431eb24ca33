package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/platinummonkey/petstore/pkg/events"
	"github.com/platinummonkey/petstore/pkg/pets"
	"github.com/platinummonkey/petstore/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepository is a pets.Repository with injectable errors
type mockRepository struct {
	catalog pets.Catalog

	listError   error
	getError    error
	addError    error
	updateError error
	removeError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{catalog: pets.SeedCatalog()}
}

func (m *mockRepository) List(ctx context.Context) (pets.Catalog, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	return m.catalog.Clone(), nil
}

func (m *mockRepository) Get(ctx context.Context, id string) (pets.Pet, error) {
	if m.getError != nil {
		return pets.Pet{}, m.getError
	}
	pet, ok := m.catalog[id]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return pet, nil
}

func (m *mockRepository) Add(ctx context.Context, pet pets.Pet) (string, error) {
	if m.addError != nil {
		return "", m.addError
	}
	id, err := m.catalog.NextID()
	if err != nil {
		return "", err
	}
	m.catalog[id] = pet
	return id, nil
}

func (m *mockRepository) Update(ctx context.Context, id string, pet pets.Pet) error {
	if m.updateError != nil {
		return m.updateError
	}
	if _, ok := m.catalog[id]; !ok {
		return pets.ErrNotFound
	}
	m.catalog[id] = pet
	return nil
}

func (m *mockRepository) Remove(ctx context.Context, id string) error {
	if m.removeError != nil {
		return m.removeError
	}
	if _, ok := m.catalog[id]; !ok {
		return pets.ErrNotFound
	}
	delete(m.catalog, id)
	return nil
}

// recordingPublisher remembers every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(name string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events.Event{Name: name, Data: data})
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		names = append(names, ev.Name)
	}
	return names
}

func setupRouter(repo pets.Repository) (*mux.Router, *recordingPublisher) {
	publisher := &recordingPublisher{}
	router := mux.NewRouter()
	NewPetHandlers(repo, publisher).RegisterRoutes(router)
	return router, publisher
}

func doRequest(h http.Handler, method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

const jsonType = "application/json"

// TestPetStoreScenario walks the seeded store through the documented example
func TestPetStoreScenario(t *testing.T) {
	repo := storage.NewDocumentRepository(storage.NewMemoryDocumentStore(pets.SeedCatalog()))
	router, publisher := setupRouter(repo)

	w := doRequest(router, http.MethodGet, "/api/v1/pet", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[
		{"id": "1", "name": "ginger", "breed": "bengal", "price": 100},
		{"id": "2", "name": "sam", "breed": "husky", "price": 10},
		{"id": "3", "name": "guido", "breed": "python", "price": 518}
	]`, w.Body.String())

	w = doRequest(router, http.MethodPost, "/api/v1/pet", jsonType, `{"name": "Yolo", "breed": "shorthair", "price": 100}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id": 4}`, w.Body.String())

	for _, body := range []string{`{}`, `{"a": "b"}`} {
		w = doRequest(router, http.MethodPost, "/api/v1/pet", jsonType, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.JSONEq(t, `{"id": -1}`, w.Body.String(), body)
	}

	w = doRequest(router, http.MethodPost, "/api/v1/pet", "text/plain", `{"name": "Yolo", "breed": "shorthair", "price": 100}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"id": -1}`, w.Body.String())

	w = doRequest(router, http.MethodGet, "/api/v1/pet/4", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id": "4", "name": "Yolo", "breed": "shorthair", "price": 100}`, w.Body.String())

	w = doRequest(router, http.MethodPatch, "/api/v1/pet/4", jsonType, `{"name": "Yolo", "breed": "persian", "price": 250}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())

	w = doRequest(router, http.MethodDelete, "/api/v1/pet/2", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())

	catalog, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pets.Catalog{
		"1": {Name: "ginger", Breed: "bengal", Price: 100},
		"3": {Name: "guido", Breed: "python", Price: 518},
		"4": {Name: "Yolo", Breed: "persian", Price: 250},
	}, catalog)

	assert.Equal(t, []string{events.PetAdded, events.PetUpdated, events.PetRemoved}, publisher.names())
}

func TestListPets(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		repo := newMockRepository()
		repo.catalog = pets.Catalog{}
		router, _ := setupRouter(repo)

		w := doRequest(router, http.MethodGet, "/api/v1/pet", "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("numeric order", func(t *testing.T) {
		repo := newMockRepository()
		repo.catalog["10"] = pets.Pet{Name: "rex", Breed: "collie", Price: 1}
		router, _ := setupRouter(repo)

		w := doRequest(router, http.MethodGet, "/api/v1/pet", "", "")
		require.Equal(t, http.StatusOK, w.Code)

		var records []pets.Record
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
		ids := make([]string, 0, len(records))
		for _, rec := range records {
			ids = append(ids, rec.ID)
		}
		assert.Equal(t, []string{"1", "2", "3", "10"}, ids)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := newMockRepository()
		repo.listError = errors.New("disk on fire")
		router, _ := setupRouter(repo)

		w := doRequest(router, http.MethodGet, "/api/v1/pet", "", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "disk on fire")
	})
}

func TestAddPet(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		addError    error
		wantStatus  int
		wantBody    string
	}{
		{name: "created", contentType: jsonType, body: `{"name": "a", "breed": "b", "price": 0}`, wantStatus: http.StatusCreated, wantBody: `{"id": 4}`},
		{name: "charset parameter", contentType: "application/json; charset=utf-8", body: `{"name": "a", "breed": "b", "price": 1.5}`, wantStatus: http.StatusCreated, wantBody: `{"id": 4}`},
		{name: "missing content type", body: `{"name": "a", "breed": "b", "price": 1}`, wantStatus: http.StatusBadRequest, wantBody: `{"id": -1}`},
		{name: "empty strings", contentType: jsonType, body: `{"name": "", "breed": "x", "price": 1}`, wantStatus: http.StatusCreated, wantBody: `{"id": 4}`},
		{name: "missing price", contentType: jsonType, body: `{"name": "a", "breed": "b"}`, wantStatus: http.StatusBadRequest, wantBody: `{"id": -1}`},
		{name: "null name", contentType: jsonType, body: `{"name": null, "breed": "b", "price": 1}`, wantStatus: http.StatusBadRequest, wantBody: `{"id": -1}`},
		{name: "extra field", contentType: jsonType, body: `{"name": "a", "breed": "b", "price": 1, "age": 3}`, wantStatus: http.StatusBadRequest, wantBody: `{"id": -1}`},
		{name: "wrong type", contentType: jsonType, body: `{"name": "a", "breed": "b", "price": "cheap"}`, wantStatus: http.StatusBadRequest, wantBody: `{"id": -1}`},
		{name: "malformed", contentType: jsonType, body: `{"name":`, wantStatus: http.StatusBadRequest, wantBody: `{"id": -1}`},
		{name: "empty store", contentType: jsonType, body: `{"name": "a", "breed": "b", "price": 1}`, addError: pets.ErrEmptyStore, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			repo.addError = tt.addError
			router, publisher := setupRouter(repo)

			w := doRequest(router, http.MethodPost, "/api/v1/pet", tt.contentType, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}

			if tt.wantStatus == http.StatusCreated {
				assert.Len(t, repo.catalog, 4)
				assert.Equal(t, []string{events.PetAdded}, publisher.names())
			} else {
				assert.Len(t, repo.catalog, 3)
				assert.Empty(t, publisher.names())
			}
		})
	}
}

func TestAddPetEventCarriesRecord(t *testing.T) {
	router, publisher := setupRouter(newMockRepository())

	w := doRequest(router, http.MethodPost, "/api/v1/pet", jsonType, `{"name": "Yolo", "breed": "shorthair", "price": 100}`)
	require.Equal(t, http.StatusCreated, w.Code)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, pets.Record{ID: "4", Name: "Yolo", Breed: "shorthair", Price: 100}, publisher.events[0].Data)
}

func TestGetPet(t *testing.T) {
	repo := newMockRepository()
	router, _ := setupRouter(repo)

	w := doRequest(router, http.MethodGet, "/api/v1/pet/2", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id": "2", "name": "sam", "breed": "husky", "price": 10}`, w.Body.String())

	w = doRequest(router, http.MethodGet, "/api/v1/pet/99", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())

	repo.getError = errors.New("boom")
	w = doRequest(router, http.MethodGet, "/api/v1/pet/2", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestUpdatePet(t *testing.T) {
	tests := []struct {
		name        string
		id          string
		contentType string
		body        string
		updateError error
		wantStatus  int
	}{
		{name: "replaced", id: "1", contentType: jsonType, body: `{"name": "g", "breed": "b", "price": 1}`, wantStatus: http.StatusOK},
		{name: "absent", id: "99", contentType: jsonType, body: `{"name": "g", "breed": "b", "price": 1}`, wantStatus: http.StatusNotFound},
		{name: "partial body", id: "1", contentType: jsonType, body: `{"price": 1}`, wantStatus: http.StatusBadRequest},
		{name: "not json", id: "1", contentType: "text/plain", body: `{"name": "g", "breed": "b", "price": 1}`, wantStatus: http.StatusBadRequest},
		{name: "storage failure", id: "1", contentType: jsonType, body: `{"name": "g", "breed": "b", "price": 1}`, updateError: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			repo.updateError = tt.updateError
			router, publisher := setupRouter(repo)

			w := doRequest(router, http.MethodPatch, "/api/v1/pet/"+tt.id, tt.contentType, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusOK {
				assert.JSONEq(t, `{}`, w.Body.String())
				assert.Equal(t, pets.Pet{Name: "g", Breed: "b", Price: 1}, repo.catalog["1"])
				assert.Equal(t, []string{events.PetUpdated}, publisher.names())
				return
			}
			assert.Equal(t, pets.SeedCatalog()["1"], repo.catalog["1"])
			assert.Empty(t, publisher.names())
		})
	}
}

func TestEmptyStringFieldsAreValues(t *testing.T) {
	repo := storage.NewDocumentRepository(storage.NewMemoryDocumentStore(pets.SeedCatalog()))
	router, _ := setupRouter(repo)

	w := doRequest(router, http.MethodPost, "/api/v1/pet", jsonType, `{"name": "", "breed": "shorthair", "price": 100}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id": 4}`, w.Body.String())

	w = doRequest(router, http.MethodPatch, "/api/v1/pet/1", jsonType, `{"name": "ginger", "breed": "", "price": 100}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())

	catalog, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pets.Pet{Name: "", Breed: "shorthair", Price: 100}, catalog["4"])
	assert.Equal(t, pets.Pet{Name: "ginger", Breed: "", Price: 100}, catalog["1"])
}

func TestRemovePet(t *testing.T) {
	repo := newMockRepository()
	router, publisher := setupRouter(repo)

	w := doRequest(router, http.MethodDelete, "/api/v1/pet/3", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())
	assert.NotContains(t, repo.catalog, "3")
	assert.Len(t, repo.catalog, 2)

	w = doRequest(router, http.MethodDelete, "/api/v1/pet/3", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())

	repo.removeError = errors.New("boom")
	w = doRequest(router, http.MethodDelete, "/api/v1/pet/1", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, map[string]string{"id": "3"}, publisher.events[0].Data)
}

func TestHandlersWithoutPetID(t *testing.T) {
	repo := newMockRepository()
	h := NewPetHandlers(repo, nil)

	handlers := map[string]http.HandlerFunc{
		http.MethodGet:    h.getPet,
		http.MethodPatch:  h.updatePet,
		http.MethodDelete: h.removePet,
	}
	for method, handler := range handlers {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/api/v1/pet/", bytes.NewBufferString(`{"name": "a", "breed": "b", "price": 1}`))
			req.Header.Set("Content-Type", jsonType)
			w := httptest.NewRecorder()
			handler(w, req)

			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.JSONEq(t, `{}`, w.Body.String())
			assert.Equal(t, pets.SeedCatalog(), repo.catalog)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	router, _ := setupRouter(newMockRepository())

	w := doRequest(router, http.MethodPut, "/api/v1/pet/1", jsonType, `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
