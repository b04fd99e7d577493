package analytics

import (
	"context"
	"time"

	"RiskGate/internal/domain/models"
	domsvc "RiskGate/internal/domain/service"
	"RiskGate/internal/service/cache"
)

// CachedConditionDetector memoizes detections per symbol for a short TTL.
// Condition changes on the scale of minutes, while evaluations arrive per
// tick, so a small cache removes almost all sidecar round trips.
type CachedConditionDetector struct {
	inner domsvc.ConditionDetector
	store cache.BytesCache
	ttl   time.Duration
}

func NewCachedConditionDetector(inner domsvc.ConditionDetector, store cache.BytesCache, ttl time.Duration) *CachedConditionDetector {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedConditionDetector{inner: inner, store: store, ttl: ttl}
}

func (d *CachedConditionDetector) Detect(ctx context.Context, symbol string, window models.PriceWindow) (models.MarketCondition, error) {
	key := "condition:" + symbol
	if b, ok, err := d.store.GetBytes(key); err == nil && ok {
		return models.ParseMarketCondition(string(b)), nil
	}

	condition, err := d.inner.Detect(ctx, symbol, window)
	if err != nil {
		return condition, err
	}
	// Cache errors are non-fatal; a miss next time just re-detects.
	_ = d.store.SetBytes(key, []byte(condition.String()), d.ttl)
	return condition, nil
}

var _ domsvc.ConditionDetector = (*CachedConditionDetector)(nil)
