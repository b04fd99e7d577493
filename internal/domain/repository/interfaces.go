package repository

import (
	"context"

	"RiskGate/internal/domain/models"
)

type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// AuditStore persists breaker-record snapshots. The risk core never touches
// it; the audit snapshotter calls it out of band.
type AuditStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	StoreSnapshot(ctx context.Context, records []models.BreakerRecord) error
	Health(ctx context.Context) error // ping
	Close() error
}

// EventPublisher emits breaker transitions to the event bus.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev *models.BreakerEvent) error
	PublishEvents(ctx context.Context, evs []*models.BreakerEvent) error
	Close() error
}

type Metrics interface {
	RecordEvaluation(symbol, regime string)
	RecordBreakerTrip(breakerType, scope, status string)
	RecordError(kind string)
	RecordSizing(symbol string, fraction float64)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
