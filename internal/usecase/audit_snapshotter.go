package usecase

import (
	"context"
	"time"

	"RiskGate/internal/domain/models"
	drepo "RiskGate/internal/domain/repository"
	"RiskGate/internal/services/risk"
	"RiskGate/pkg/cache"
	applogger "RiskGate/pkg/logger"
	"RiskGate/pkg/queue"
)

const (
	auditSnapshotType = "audit.snapshot"
	auditLockKey      = "audit:lock"
)

// AuditSnapshotJob persists one queued breaker snapshot. It runs on the
// redis queue workers so slow ClickHouse inserts never block the snapshot
// loop.
type AuditSnapshotJob struct {
	store  drepo.AuditStore
	logger *applogger.Logger
}

func NewAuditSnapshotJob(store drepo.AuditStore, logger *applogger.Logger) *AuditSnapshotJob {
	return &AuditSnapshotJob{store: store, logger: logger}
}

func (j *AuditSnapshotJob) Name() string { return "audit-snapshot" }
func (j *AuditSnapshotJob) Type() string { return auditSnapshotType }

func (j *AuditSnapshotJob) Handle(ctx context.Context, payload interface{}) error {
	records, err := queue.ParsePayload[[]models.BreakerRecord](payload)
	if err != nil {
		return err
	}
	if err := j.store.StoreSnapshot(ctx, *records); err != nil {
		j.logger.Error("store audit snapshot", applogger.Error(err))
		return err
	}
	return nil
}

var _ queue.Job = (*AuditSnapshotJob)(nil)

// AuditSnapshotter periodically snapshots the breaker registry into the
// audit queue. A cache lock keeps exactly one replica snapshotting when the
// service runs scaled out.
type AuditSnapshotter struct {
	registry *risk.BreakerRegistry
	queue    queue.QueueService
	locker   cache.Service
	logger   *applogger.Logger
	metrics  drepo.Metrics

	interval time.Duration
	lockTTL  time.Duration
}

// SnapshotterOption configures AuditSnapshotter.
type SnapshotterOption func(*AuditSnapshotter)

// WithSnapshotInterval sets the snapshot cadence.
func WithSnapshotInterval(d time.Duration) SnapshotterOption {
	return func(s *AuditSnapshotter) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLockTTL sets how long the leader lock is held.
func WithLockTTL(d time.Duration) SnapshotterOption {
	return func(s *AuditSnapshotter) {
		if d > 0 {
			s.lockTTL = d
		}
	}
}

func NewAuditSnapshotter(registry *risk.BreakerRegistry, q queue.QueueService, locker cache.Service, metrics drepo.Metrics, logger *applogger.Logger, opts ...SnapshotterOption) *AuditSnapshotter {
	s := &AuditSnapshotter{
		registry: registry,
		queue:    q,
		locker:   locker,
		logger:   logger,
		metrics:  metrics,
		interval: time.Minute,
		lockTTL:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run snapshots on a ticker until ctx is cancelled.
func (s *AuditSnapshotter) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.snapshot(ctx)
		}
	}
}

func (s *AuditSnapshotter) snapshot(ctx context.Context) {
	if !s.tryLock(ctx) {
		return
	}

	records := s.registry.Records()
	if len(records) == 0 {
		return
	}

	if err := s.queue.PublishMessage(ctx, auditSnapshotType, records); err != nil {
		if s.metrics != nil {
			s.metrics.RecordError("audit_enqueue")
		}
		s.logger.Error("enqueue audit snapshot", applogger.Error(err))
		return
	}
	s.logger.Debug("audit snapshot enqueued", applogger.Int("records", len(records)))
}

// tryLock takes the leader lock for one interval. Lock loss mid-snapshot is
// harmless: snapshots are append-only and duplicates carry the same data.
func (s *AuditSnapshotter) tryLock(ctx context.Context) bool {
	if s.locker == nil {
		return true // single-replica deployment
	}
	ok, err := s.locker.TryLock(ctx, auditLockKey, s.lockTTL)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordError("audit_lock")
		}
		s.logger.Warn("audit lock", applogger.Error(err))
		return false
	}
	return ok
}
