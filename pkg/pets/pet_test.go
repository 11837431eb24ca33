package pets

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCatalog_NextID(t *testing.T) {
	tests := []struct {
		name    string
		catalog Catalog
		want    string
		wantErr error
	}{
		{
			name:    "seed catalog",
			catalog: SeedCatalog(),
			want:    "4",
		},
		{
			name: "non-contiguous ids use the maximum",
			catalog: Catalog{
				"2":  {Name: "a"},
				"10": {Name: "b"},
				"7":  {Name: "c"},
			},
			want: "11",
		},
		{
			name: "non-numeric ids are skipped",
			catalog: Catalog{
				"rex": {Name: "a"},
				"5":   {Name: "b"},
			},
			want: "6",
		},
		{
			name:    "empty store",
			catalog: Catalog{},
			wantErr: ErrEmptyStore,
		},
		{
			name:    "only non-numeric ids",
			catalog: Catalog{"rex": {Name: "a"}},
			wantErr: ErrEmptyStore,
		},
		{
			name:    "maximum id leaves no room",
			catalog: Catalog{strconv.FormatInt(math.MaxInt64, 10): {Name: "a"}},
			wantErr: ErrIDExhausted,
		},
		{
			name:    "one below the maximum",
			catalog: Catalog{strconv.FormatInt(math.MaxInt64-1, 10): {Name: "a"}},
			want:    strconv.FormatInt(math.MaxInt64, 10),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.catalog.NextID()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatalog_NextIDIsOneAboveMaximum(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ids := rapid.SliceOfNDistinct(rapid.IntRange(0, 1_000_000), 1, 50, rapid.ID[int]).Draw(t, "ids")

		catalog := make(Catalog, len(ids))
		highest := ids[0]
		for _, id := range ids {
			catalog[strconv.Itoa(id)] = Pet{Name: "pet"}
			if id > highest {
				highest = id
			}
		}

		next, err := catalog.NextID()
		if err != nil {
			t.Fatalf("NextID() error = %v", err)
		}
		if next != strconv.Itoa(highest+1) {
			t.Fatalf("NextID() = %s, want %d", next, highest+1)
		}
		if _, exists := catalog[next]; exists {
			t.Fatalf("NextID() returned existing id %s", next)
		}
	})
}

func TestCatalog_Records(t *testing.T) {
	catalog := Catalog{
		"10":  {Name: "ten", Breed: "x", Price: 1},
		"2":   {Name: "two", Breed: "y", Price: 2},
		"abc": {Name: "letters", Breed: "z", Price: 3},
		"1":   {Name: "one", Breed: "w", Price: 4},
	}

	records := catalog.Records()
	require.Len(t, records, 4)

	var ids []string
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"1", "2", "10", "abc"}, ids)
	assert.Equal(t, Record{ID: "2", Name: "two", Breed: "y", Price: 2}, records[1])
}

func TestCatalog_RecordsSeed(t *testing.T) {
	expected := []Record{
		{ID: "1", Name: "ginger", Breed: "bengal", Price: 100},
		{ID: "2", Name: "sam", Breed: "husky", Price: 10},
		{ID: "3", Name: "guido", Breed: "python", Price: 518},
	}
	assert.Equal(t, expected, SeedCatalog().Records())
}

func TestCatalog_Clone(t *testing.T) {
	original := SeedCatalog()
	clone := original.Clone()

	clone["1"] = Pet{Name: "changed"}
	delete(clone, "2")

	assert.Equal(t, "ginger", original["1"].Name)
	assert.Contains(t, original, "2")
}

func strPtr(s string) *string { return &s }

func TestInput_Validate(t *testing.T) {
	price := 100.0
	zero := 0.0
	yolo, shorthair, empty := strPtr("Yolo"), strPtr("shorthair"), strPtr("")

	tests := []struct {
		name    string
		input   Input
		wantErr bool
	}{
		{name: "complete", input: Input{Name: yolo, Breed: shorthair, Price: &price}},
		{name: "zero price is allowed", input: Input{Name: yolo, Breed: shorthair, Price: &zero}},
		{name: "empty strings are allowed", input: Input{Name: empty, Breed: empty, Price: &price}},
		{name: "empty body", input: Input{}, wantErr: true},
		{name: "missing price", input: Input{Name: yolo, Breed: shorthair}, wantErr: true},
		{name: "missing name", input: Input{Breed: shorthair, Price: &price}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidPet))
				return
			}
			require.NoError(t, err)
			pet := tt.input.Pet()
			assert.Equal(t, *tt.input.Name, pet.Name)
			assert.Equal(t, *tt.input.Breed, pet.Breed)
			assert.Equal(t, *tt.input.Price, pet.Price)
		})
	}
}

func TestInput_ValidateListsMissingFields(t *testing.T) {
	err := Input{}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name, breed, price")
}
