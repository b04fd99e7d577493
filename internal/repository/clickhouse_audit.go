package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"RiskGate/internal/domain/models"
	"RiskGate/internal/domain/repository"
	pkgch "RiskGate/pkg/clickhouse"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS %s (
    snapshot_ts  DateTime64(3)  CODEC(Delta, ZSTD),
    breaker_type LowCardinality(String),
    scope        LowCardinality(String),
    status       LowCardinality(String),
    reason       String,
    tripped_at   DateTime64(3),
    reset_after  Nullable(Int64),
    active       UInt8
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(snapshot_ts)
ORDER BY (breaker_type, scope, snapshot_ts)
TTL toDateTime(snapshot_ts) + INTERVAL 90 DAY`

// ClickHouseAuditStore persists periodic breaker snapshots for audit queries.
type ClickHouseAuditStore struct {
	client *pkgch.Client
	table  string
	now    func() time.Time
}

// NewClickHouseAuditStore creates a ClickHouse-backed audit store.
func NewClickHouseAuditStore(client *pkgch.Client, table string) repository.AuditStore {
	if table == "" {
		table = "risk_breaker_audit"
	}
	return &ClickHouseAuditStore{client: client, table: table, now: time.Now}
}

func (s *ClickHouseAuditStore) Init(ctx context.Context) error {
	if err := s.client.Health(ctx); err != nil {
		return fmt.Errorf("clickhouse health: %w", err)
	}
	return s.client.InitSchema(ctx, []string{fmt.Sprintf(auditSchema, s.table)})
}

func (s *ClickHouseAuditStore) StoreSnapshot(ctx context.Context, records []models.BreakerRecord) error {
	if len(records) == 0 {
		return nil
	}
	ts := s.now()

	values := make([]string, 0, len(records))
	args := make([]interface{}, 0, len(records)*8)
	for _, r := range records {
		var resetAfter sql.NullInt64
		if r.ResetAfter != nil {
			resetAfter = sql.NullInt64{Int64: int64(r.ResetAfter.Seconds()), Valid: true}
		}
		active := uint8(0)
		if r.Active {
			active = 1
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			ts,
			r.Type.String(),
			r.Scope,
			r.Status.String(),
			r.Reason,
			r.TrippedAt,
			resetAfter,
			active,
		)
	}

	q := fmt.Sprintf(
		"INSERT INTO %s (snapshot_ts, breaker_type, scope, status, reason, tripped_at, reset_after, active) VALUES %s",
		s.table, strings.Join(values, ","),
	)
	if _, err := s.client.DB().ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert audit snapshot: %w", err)
	}
	return nil
}

func (s *ClickHouseAuditStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *ClickHouseAuditStore) Close() error {
	return nil // Connection managed by pkg client
}
