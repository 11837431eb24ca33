package pets

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrNotFound is returned when a pet id is not present in the store
	ErrNotFound = errors.New("pet not found")
	// ErrEmptyStore is returned when no next id can be derived from the store
	ErrEmptyStore = errors.New("store has no numeric ids to derive the next id from")
	// ErrInvalidPet is returned when a pet body is missing required fields
	ErrInvalidPet = errors.New("invalid pet")
	// ErrIDExhausted is returned when the highest id leaves no room for another
	ErrIDExhausted = errors.New("no ids left above the current maximum")
)

// Pet is a single entry in the store
type Pet struct {
	Name  string  `json:"name"`
	Breed string  `json:"breed"`
	Price float64 `json:"price"`
}

// Record is a pet with its id merged in, the shape returned by the API
type Record struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Breed string  `json:"breed"`
	Price float64 `json:"price"`
}

// WithID merges an id into the pet
func (p Pet) WithID(id string) Record {
	return Record{
		ID:    id,
		Name:  p.Name,
		Breed: p.Breed,
		Price: p.Price,
	}
}

// Input is the request body for creating or replacing a pet. Fields are
// pointers so a missing field can be told apart from an empty or zero one.
type Input struct {
	Name  *string  `json:"name"`
	Breed *string  `json:"breed"`
	Price *float64 `json:"price"`
}

// Validate checks that every field of the body was supplied. Empty strings
// and zero prices are values, not omissions.
func (in Input) Validate() error {
	var missing []string
	if in.Name == nil {
		missing = append(missing, "name")
	}
	if in.Breed == nil {
		missing = append(missing, "breed")
	}
	if in.Price == nil {
		missing = append(missing, "price")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrInvalidPet, strings.Join(missing, ", "))
	}
	return nil
}

// Pet converts a validated input into a Pet
func (in Input) Pet() Pet {
	var pet Pet
	if in.Name != nil {
		pet.Name = *in.Name
	}
	if in.Breed != nil {
		pet.Breed = *in.Breed
	}
	if in.Price != nil {
		pet.Price = *in.Price
	}
	return pet
}

// Catalog is the whole store: pet id to pet
type Catalog map[string]Pet

// SeedCatalog returns the three pets every fresh store starts with
func SeedCatalog() Catalog {
	return Catalog{
		"1": {Name: "ginger", Breed: "bengal", Price: 100},
		"2": {Name: "sam", Breed: "husky", Price: 10},
		"3": {Name: "guido", Breed: "python", Price: 518},
	}
}

// NextID returns max(numeric ids)+1. Ids that are not integers are skipped.
func (c Catalog) NextID() (string, error) {
	found := false
	var highest int64
	for id := range c {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			continue
		}
		if !found || n > highest {
			highest = n
			found = true
		}
	}
	if !found {
		return "", ErrEmptyStore
	}
	if highest == math.MaxInt64 {
		return "", fmt.Errorf("%w: %d", ErrIDExhausted, highest)
	}
	return strconv.FormatInt(highest+1, 10), nil
}

// Records returns every pet with its id, numeric ids first in ascending order
func (c Catalog) Records() []Record {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	SortIDs(ids)

	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		records = append(records, c[id].WithID(id))
	}
	return records
}

// Clone returns a shallow copy safe to mutate
func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	for id, pet := range c {
		out[id] = pet
	}
	return out
}

// SortIDs orders ids numerically, with non-numeric ids after them in lexical order
func SortIDs(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, errA := strconv.ParseInt(ids[i], 10, 64)
		b, errB := strconv.ParseInt(ids[j], 10, 64)
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})
}
