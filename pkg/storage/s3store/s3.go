// Package s3store keeps the pet catalog document in an S3 compatible object store.
package s3store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/petstore/pkg/pets"
	"github.com/platinummonkey/petstore/pkg/storage"
)

const contentTypeJSON = "application/json"

// ChecksumMetadataKey is the object metadata entry holding the document's sha256
const ChecksumMetadataKey = "checksum-sha256"

var tracer = otel.Tracer("github.com/platinummonkey/petstore/pkg/storage/s3store")

// objectAPI is the subset of the S3 client the store uses
type objectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// Store implements storage.DocumentStore on a single S3 object
type Store struct {
	client objectAPI
	bucket string
	key    string
}

// New builds an S3 client from cfg and makes sure the bucket exists
func New(ctx context.Context, cfg storage.Config) (*Store, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		// static keys for MinIO or explicit AWS credentials
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3UsePathStyle
	})

	if err := ensureBucket(ctx, client, cfg.S3Bucket); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return newStore(client, cfg.S3Bucket, cfg.S3Key), nil
}

func newStore(client objectAPI, bucket, key string) *Store {
	if key == "" {
		key = "pets.json"
	}
	return &Store{client: client, bucket: bucket, key: key}
}

// Name implements storage.DocumentStore.Name
func (s *Store) Name() string {
	return storage.TypeS3
}

// Key returns the object key holding the catalog
func (s *Store) Key() string {
	return s.key
}

// Load implements storage.DocumentStore.Load. A missing object is an empty catalog.
func (s *Store) Load(ctx context.Context) (pets.Catalog, error) {
	ctx, span := tracer.Start(ctx, "S3.GetObject",
		trace.WithAttributes(
			attribute.String("s3.operation", "GetObject"),
			attribute.String("s3.bucket", s.bucket),
			attribute.String("s3.key", s.key),
		),
	)
	defer span.End()

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		if isNotFound(err) {
			span.SetAttributes(attribute.Bool("s3.object_missing", true))
			return pets.Catalog{}, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get object from s3")
		return nil, fmt.Errorf("failed to get object from s3: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read object body")
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	span.SetAttributes(attribute.Int("content.size", len(data)))

	catalog := pets.Catalog{}
	if err := json.Unmarshal(data, &catalog); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode catalog")
		return nil, fmt.Errorf("failed to unmarshal pet store: %w", err)
	}

	span.SetStatus(codes.Ok, "catalog loaded")
	return catalog, nil
}

// Save implements storage.DocumentStore.Save
func (s *Store) Save(ctx context.Context, catalog pets.Catalog) error {
	return s.SaveAs(ctx, s.key, catalog)
}

// SaveAs writes catalog under an arbitrary key in the same bucket
func (s *Store) SaveAs(ctx context.Context, key string, catalog pets.Catalog) error {
	ctx, span := tracer.Start(ctx, "S3.PutObject",
		trace.WithAttributes(
			attribute.String("s3.operation", "PutObject"),
			attribute.String("s3.bucket", s.bucket),
			attribute.String("s3.key", key),
			attribute.String("content.type", contentTypeJSON),
		),
	)
	defer span.End()

	if catalog == nil {
		catalog = pets.Catalog{}
	}
	data, err := json.MarshalIndent(catalog, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal pet store: %w", err)
	}
	span.SetAttributes(attribute.Int("content.size", len(data)))

	sum := sha256.Sum256(data)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeJSON),
		Metadata: map[string]string{
			ChecksumMetadataKey: hex.EncodeToString(sum[:]),
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upload to s3")
		return fmt.Errorf("failed to upload to s3: %w", err)
	}

	span.SetStatus(codes.Ok, "object uploaded successfully")
	return nil
}

// HealthCheck verifies the bucket is reachable
func (s *Store) HealthCheck(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("s3 health check failed: %w", err)
	}
	return nil
}

func ensureBucket(ctx context.Context, client objectAPI, bucket string) error {
	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err == nil {
		return nil
	}

	_, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		var exists *types.BucketAlreadyExists
		if errors.As(err, &owned) || errors.As(err, &exists) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noKey) || errors.As(err, &notFound)
}
