// Package storage persists the pet catalog.
//
// The core abstraction is DocumentStore: the whole catalog is loaded on
// every operation and written back whole on every mutation. The
// DocumentRepository turns any DocumentStore into a pets.Repository.
//
// Backends:
//
//   - FileDocumentStore: a JSON file on local disk (the default)
//   - MemoryDocumentStore: in-process, for tests
//   - s3store.Store: one object in an S3 compatible bucket
//   - cache.Store: L1 LRU and optional Redis in front of another store
//   - sqlstore.Repository: a relational table, implementing pets.Repository directly
//
// Watcher reports edits made to the JSON file by other processes so caches
// can be invalidated. InstrumentedRepository adds Prometheus metrics to any
// repository.
package storage
