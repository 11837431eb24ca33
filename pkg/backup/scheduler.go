package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/platinummonkey/petstore/pkg/observability"
	"github.com/platinummonkey/petstore/pkg/pets"
	"github.com/robfig/cron/v3"
)

// snapshotLayout names snapshots so they sort chronologically
const snapshotLayout = "20060102T150405Z"

// DefaultTimeout bounds a single snapshot run
const DefaultTimeout = time.Minute

// SnapshotName returns the file or key name for a snapshot taken at t
func SnapshotName(t time.Time) string {
	return "pets-" + t.UTC().Format(snapshotLayout) + ".json"
}

// Scheduler snapshots the catalog into a sink on a cron schedule
type Scheduler struct {
	cron    *cron.Cron
	repo    pets.Repository
	sink    Sink
	logger  *observability.Logger
	metrics *observability.Metrics
	now     func() time.Time
	timeout time.Duration
}

// NewScheduler validates the schedule and registers the snapshot job.
// The schedule uses the standard five field cron syntax or descriptors such as @hourly.
func NewScheduler(schedule string, repo pets.Repository, sink Sink, logger *observability.Logger, metrics *observability.Metrics) (*Scheduler, error) {
	if logger == nil {
		logger = observability.NewNopLogger()
	}

	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		repo:    repo,
		sink:    sink,
		logger:  logger.WithField("component", "backup"),
		metrics: metrics,
		now:     time.Now,
		timeout: DefaultTimeout,
	}

	if _, err := s.cron.AddFunc(schedule, s.runScheduled); err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs the scheduler in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.WithField("sink", s.sink.String()).Info("Backup scheduler started")
}

// Stop stops scheduling and waits for a running snapshot, bounded by ctx
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("backup scheduler did not stop: %w", ctx.Err())
	}
}

// Snapshot writes the current catalog to the sink and returns the snapshot name
func (s *Scheduler) Snapshot(ctx context.Context) (string, error) {
	name := SnapshotName(s.now())

	catalog, err := s.repo.List(ctx)
	if err != nil {
		s.record("error")
		return "", fmt.Errorf("failed to read catalog: %w", err)
	}

	if err := s.sink.WriteSnapshot(ctx, name, catalog); err != nil {
		s.record("error")
		return "", err
	}

	s.record("success")
	return name, nil
}

func (s *Scheduler) runScheduled() {
	defer observability.RecoverPanic(s.logger, "backup.runScheduled")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	name, err := s.Snapshot(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Backup failed")
		return
	}
	s.logger.WithFields(map[string]interface{}{
		"snapshot":    name,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Backup completed")
}

func (s *Scheduler) record(status string) {
	if s.metrics != nil {
		s.metrics.BackupsTotal.WithLabelValues(status).Inc()
	}
}
