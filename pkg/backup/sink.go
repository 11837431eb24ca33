package backup

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/platinummonkey/petstore/pkg/pets"
	"github.com/platinummonkey/petstore/pkg/storage"
	"github.com/platinummonkey/petstore/pkg/storage/s3store"
)

// Sink stores one named snapshot
type Sink interface {
	WriteSnapshot(ctx context.Context, name string, catalog pets.Catalog) error
	String() string
}

// DirSink writes snapshots as files in a local directory
type DirSink struct {
	dir string
}

// NewDirSink creates a sink writing into dir
func NewDirSink(dir string) *DirSink {
	return &DirSink{dir: dir}
}

// WriteSnapshot implements Sink
func (s *DirSink) WriteSnapshot(ctx context.Context, name string, catalog pets.Catalog) error {
	store, err := storage.NewFileDocumentStore(filepath.Join(s.dir, name), false)
	if err != nil {
		return err
	}
	return store.Save(ctx, catalog)
}

func (s *DirSink) String() string {
	return "dir:" + s.dir
}

// snapshotWriter is the part of s3store.Store a sink needs
type snapshotWriter interface {
	SaveAs(ctx context.Context, key string, catalog pets.Catalog) error
}

// S3Sink writes snapshots as objects under a key prefix
type S3Sink struct {
	store  snapshotWriter
	prefix string
}

// NewS3Sink creates a sink writing next to the live document in the store's bucket
func NewS3Sink(store *s3store.Store, prefix string) *S3Sink {
	return &S3Sink{store: store, prefix: prefix}
}

// WriteSnapshot implements Sink
func (s *S3Sink) WriteSnapshot(ctx context.Context, name string, catalog pets.Catalog) error {
	key := path.Join(s.prefix, name)
	if err := s.store.SaveAs(ctx, key, catalog); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", key, err)
	}
	return nil
}

func (s *S3Sink) String() string {
	return "s3:" + s.prefix
}
