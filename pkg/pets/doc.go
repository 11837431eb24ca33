// Package pets defines the pet store domain: the Pet entity, the Catalog that
// holds the whole store as one id-to-pet mapping, and the Repository contract
// implemented by every storage backend.
//
// Ids are strings. New ids are derived from the catalog as the highest numeric
// id plus one, so a store that contains no numeric id cannot accept new pets
// and reports ErrEmptyStore.
package pets
