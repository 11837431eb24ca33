package storage

import (
	"context"
	"time"

	"github.com/platinummonkey/petstore/pkg/pets"
)

// DocumentStore persists the whole pet catalog as a single document.
// Load always returns the full catalog and Save always replaces it.
type DocumentStore interface {
	Load(ctx context.Context) (pets.Catalog, error)
	Save(ctx context.Context, catalog pets.Catalog) error

	// Name identifies the backend in logs and metrics
	Name() string
}

// Storage backend types
const (
	TypeFile     = "file"
	TypeS3       = "s3"
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

// Config for storage backend
type Config struct {
	Type string // "file", "s3", "postgres", "sqlite"

	// File config
	FilePath        string
	CreateIfMissing bool // seed the fixture when the document does not exist yet

	// SQL config
	SQLURL      string
	SQLTable    string // "pets", "cats" or "dogs"
	SQLMaxConns int
	SQLTimeout  time.Duration

	// S3 config
	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3Key          string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool

	// Redis config
	RedisURL      string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int

	// Cache config
	CacheEnabled bool
	CacheTTL     time.Duration
	L1CacheSize  int // entries

	// Watch the document file for edits made by other processes
	WatchFile bool
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		Type:            TypeFile,
		FilePath:        "pets.json",
		CreateIfMissing: true,
		SQLTable:        "pets",
		SQLMaxConns:     10,
		SQLTimeout:      10 * time.Second,
		S3Region:        "us-east-1",
		S3Key:           "pets.json",
		RedisDB:         0,
		RedisPoolSize:   10,
		CacheEnabled:    false,
		CacheTTL:        5 * time.Minute,
		L1CacheSize:     16,
		WatchFile:       true,
	}
}
