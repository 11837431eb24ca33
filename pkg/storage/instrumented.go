package storage

import (
	"context"
	"errors"
	"time"

	"github.com/platinummonkey/petstore/pkg/observability"
	"github.com/platinummonkey/petstore/pkg/pets"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedRepository records metrics, spans and debug logs around another repository
type InstrumentedRepository struct {
	next    pets.Repository
	backend string
	metrics *observability.Metrics
	logger  *observability.Logger
}

// NewInstrumentedRepository wraps next; backend labels the metrics
func NewInstrumentedRepository(next pets.Repository, backend string, metrics *observability.Metrics, logger *observability.Logger) *InstrumentedRepository {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &InstrumentedRepository{
		next:    next,
		backend: backend,
		metrics: metrics,
		logger:  logger.WithField("backend", backend),
	}
}

// List implements pets.Repository.List and refreshes the pets gauge
func (r *InstrumentedRepository) List(ctx context.Context) (pets.Catalog, error) {
	ctx, span := r.startSpan(ctx, "list")
	start := time.Now()
	catalog, err := r.next.List(ctx)
	r.observe(ctx, span, "list", start, err)
	if err == nil {
		r.setPetsTotal(len(catalog))
	}
	return catalog, err
}

// Get implements pets.Repository.Get
func (r *InstrumentedRepository) Get(ctx context.Context, id string) (pets.Pet, error) {
	ctx, span := r.startSpan(ctx, "get", attribute.String("pet.id", id))
	start := time.Now()
	pet, err := r.next.Get(ctx, id)
	r.observe(ctx, span, "get", start, err)
	return pet, err
}

// Add implements pets.Repository.Add
func (r *InstrumentedRepository) Add(ctx context.Context, pet pets.Pet) (string, error) {
	ctx, span := r.startSpan(ctx, "add")
	start := time.Now()
	id, err := r.next.Add(ctx, pet)
	if err == nil {
		span.SetAttributes(attribute.String("pet.id", id))
	}
	r.observe(ctx, span, "add", start, err)
	if err == nil {
		r.RefreshPetsTotal(ctx)
	}
	return id, err
}

// Update implements pets.Repository.Update
func (r *InstrumentedRepository) Update(ctx context.Context, id string, pet pets.Pet) error {
	ctx, span := r.startSpan(ctx, "update", attribute.String("pet.id", id))
	start := time.Now()
	err := r.next.Update(ctx, id, pet)
	r.observe(ctx, span, "update", start, err)
	return err
}

// Remove implements pets.Repository.Remove
func (r *InstrumentedRepository) Remove(ctx context.Context, id string) error {
	ctx, span := r.startSpan(ctx, "remove", attribute.String("pet.id", id))
	start := time.Now()
	err := r.next.Remove(ctx, id)
	r.observe(ctx, span, "remove", start, err)
	if err == nil {
		r.RefreshPetsTotal(ctx)
	}
	return err
}

// RefreshPetsTotal sets the pets gauge from the size of the wrapped
// repository. Another writer may have changed the store since the last
// read, so the gauge is never adjusted relative to a cached value.
func (r *InstrumentedRepository) RefreshPetsTotal(ctx context.Context) {
	if r.metrics == nil {
		return
	}
	catalog, err := r.next.List(ctx)
	if err != nil {
		r.logger.WithError(err).Warn("Failed to refresh pets gauge")
		return
	}
	r.setPetsTotal(len(catalog))
}

func (r *InstrumentedRepository) setPetsTotal(n int) {
	if r.metrics != nil {
		r.metrics.PetsTotal.Set(float64(n))
	}
}

func (r *InstrumentedRepository) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("storage.operation", op),
		attribute.String("storage.backend", r.backend),
	)
	return observability.Tracer().Start(ctx, "PetRepository."+op, trace.WithAttributes(attrs...))
}

func (r *InstrumentedRepository) observe(ctx context.Context, span trace.Span, op string, start time.Time, err error) {
	defer span.End()

	duration := time.Since(start)
	errType := errorType(err)

	if r.metrics != nil {
		r.metrics.RecordStorageOperation(op, r.backend, duration, errType)
	}

	logger := observability.UpdateLoggerWithTraceContext(ctx, r.logger).WithFields(map[string]interface{}{
		"operation":   op,
		"duration_ms": duration.Milliseconds(),
	})
	if errType == "" || errType == "not_found" {
		if errType != "" {
			span.SetAttributes(attribute.Bool("pet.missing", true))
		}
		logger.Debug("Storage operation")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, errType)
	logger.WithError(err).Warn("Storage operation failed")
}

func errorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, pets.ErrNotFound):
		return "not_found"
	case errors.Is(err, pets.ErrEmptyStore):
		return "empty_store"
	case errors.Is(err, pets.ErrIDExhausted):
		return "id_exhausted"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "context"
	default:
		return "internal"
	}
}
