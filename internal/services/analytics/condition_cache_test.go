package analytics

import (
	"context"
	"testing"
	"time"

	"RiskGate/internal/domain/models"
	"RiskGate/internal/service/cache"
)

type countingDetector struct {
	calls     int
	condition models.MarketCondition
}

func (d *countingDetector) Detect(_ context.Context, _ string, _ models.PriceWindow) (models.MarketCondition, error) {
	d.calls++
	return d.condition, nil
}

func TestCachedConditionDetector(t *testing.T) {
	inner := &countingDetector{condition: models.ConditionBullTrending}
	d := NewCachedConditionDetector(inner, cache.NewTTLCache(), time.Minute)
	ctx := context.Background()
	w := drift(30, 0.003)

	for i := 0; i < 3; i++ {
		got, err := d.Detect(ctx, "AAPL", w)
		if err != nil {
			t.Fatalf("detect: %v", err)
		}
		if got != models.ConditionBullTrending {
			t.Fatalf("got %s", got)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", inner.calls)
	}

	// Different symbols miss independently.
	if _, err := d.Detect(ctx, "MSFT", w); err != nil {
		t.Fatalf("detect: %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("expected a miss for a new symbol, got %d calls", inner.calls)
	}
}
