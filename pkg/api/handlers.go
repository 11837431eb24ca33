package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/platinummonkey/petstore/pkg/events"
	"github.com/platinummonkey/petstore/pkg/httputil"
	"github.com/platinummonkey/petstore/pkg/observability"
	"github.com/platinummonkey/petstore/pkg/pets"
)

// rejectedID is returned as the id when a pet could not be created
const rejectedID = json.Number("-1")

// PetHandlers maps the pet routes onto a pets.Repository
type PetHandlers struct {
	repo      pets.Repository
	publisher events.Publisher
}

// NewPetHandlers creates pet handlers. A nil publisher drops change events.
func NewPetHandlers(repo pets.Repository, publisher events.Publisher) *PetHandlers {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &PetHandlers{repo: repo, publisher: publisher}
}

// RegisterRoutes registers the pet routes with the router
func (h *PetHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/pet", h.listPets).Methods("GET")
	router.HandleFunc("/api/v1/pet", h.addPet).Methods("POST")
	router.HandleFunc("/api/v1/pet/{id}", h.getPet).Methods("GET")
	router.HandleFunc("/api/v1/pet/{id}", h.updatePet).Methods("PATCH")
	router.HandleFunc("/api/v1/pet/{id}", h.removePet).Methods("DELETE")
}

// createdResponse is the body of POST /api/v1/pet
type createdResponse struct {
	ID json.Number `json:"id"`
}

// listPets handles GET /api/v1/pet
func (h *PetHandlers) listPets(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.repo.List(r.Context())
	if err != nil {
		h.internalError(w, r, "list", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, catalog.Records())
}

// addPet handles POST /api/v1/pet
func (h *PetHandlers) addPet(w http.ResponseWriter, r *http.Request) {
	pet, err := decodePet(r)
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Debug("Rejected pet body")
		httputil.WriteJSON(w, http.StatusBadRequest, createdResponse{ID: rejectedID})
		return
	}

	id, err := h.repo.Add(r.Context(), pet)
	if err != nil {
		h.internalError(w, r, "add", err)
		return
	}

	h.publisher.Publish(events.PetAdded, pet.WithID(id))
	httputil.WriteJSON(w, http.StatusCreated, createdResponse{ID: json.Number(id)})
}

// getPet handles GET /api/v1/pet/{id}
func (h *PetHandlers) getPet(w http.ResponseWriter, r *http.Request) {
	id, ok := petID(w, r)
	if !ok {
		return
	}

	pet, err := h.repo.Get(r.Context(), id)
	if errors.Is(err, pets.ErrNotFound) {
		httputil.WriteEmpty(w, http.StatusNotFound)
		return
	}
	if err != nil {
		h.internalError(w, r, "get", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pet.WithID(id))
}

// updatePet handles PATCH /api/v1/pet/{id}
func (h *PetHandlers) updatePet(w http.ResponseWriter, r *http.Request) {
	id, ok := petID(w, r)
	if !ok {
		return
	}

	pet, err := decodePet(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	err = h.repo.Update(r.Context(), id, pet)
	if errors.Is(err, pets.ErrNotFound) {
		httputil.WriteEmpty(w, http.StatusNotFound)
		return
	}
	if err != nil {
		h.internalError(w, r, "update", err)
		return
	}

	h.publisher.Publish(events.PetUpdated, pet.WithID(id))
	httputil.WriteEmpty(w, http.StatusOK)
}

// removePet handles DELETE /api/v1/pet/{id}
func (h *PetHandlers) removePet(w http.ResponseWriter, r *http.Request) {
	id, ok := petID(w, r)
	if !ok {
		return
	}

	err := h.repo.Remove(r.Context(), id)
	if errors.Is(err, pets.ErrNotFound) {
		httputil.WriteEmpty(w, http.StatusNotFound)
		return
	}
	if err != nil {
		h.internalError(w, r, "remove", err)
		return
	}

	h.publisher.Publish(events.PetRemoved, map[string]string{"id": id})
	httputil.WriteEmpty(w, http.StatusOK)
}

// petID reads the {id} path variable. A request routed without one is
// answered as an unknown pet.
func petID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := httputil.ParsePathString(r, "id")
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Debug("Request has no pet id")
		httputil.WriteEmpty(w, http.StatusNotFound)
		return "", false
	}
	return id, true
}

func (h *PetHandlers) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	observability.FromContext(r.Context()).
		WithError(err).
		WithField("operation", op).
		Error("Pet repository call failed")
	httputil.WriteInternalError(w, err)
}

// decodePet reads a strict JSON pet body and checks every field is present
func decodePet(r *http.Request) (pets.Pet, error) {
	var in pets.Input
	if err := httputil.ParseStrictJSON(r, &in); err != nil {
		return pets.Pet{}, err
	}
	if err := in.Validate(); err != nil {
		return pets.Pet{}, err
	}
	return in.Pet(), nil
}
