package features

import (
	"math"
	"testing"
	"time"

	"RiskGate/internal/domain/models"
)

func windowFromCloses(closes []float64) models.PriceWindow {
	w := make(models.PriceWindow, len(closes))
	t0 := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		w[i] = models.PricePoint{Timestamp: t0.AddDate(0, 0, i), Close: c}
	}
	return w
}

func TestComputeSimpleReturns(t *testing.T) {
	rets := ComputeSimpleReturns(windowFromCloses([]float64{100, 110, 99}))
	if len(rets) != 2 {
		t.Fatalf("expected 2 returns, got %d", len(rets))
	}
	if math.Abs(rets[0]-0.10) > 1e-12 {
		t.Fatalf("unexpected first return %v", rets[0])
	}
	if math.Abs(rets[1]-(-0.10)) > 1e-12 {
		t.Fatalf("unexpected second return %v", rets[1])
	}
}

func TestComputeSimpleReturnsShortWindow(t *testing.T) {
	if rets := ComputeSimpleReturns(windowFromCloses([]float64{100})); rets != nil {
		t.Fatalf("expected nil for short window, got %v", rets)
	}
}

func TestAnnualizedVolatilityPercent(t *testing.T) {
	// Alternating +1%/-1% returns: sample stddev slightly above 0.01.
	rets := make([]float64, 40)
	for i := range rets {
		if i%2 == 0 {
			rets[i] = 0.01
		} else {
			rets[i] = -0.01
		}
	}
	got := AnnualizedVolatilityPercent(rets, 20)
	want := 0.01 * math.Sqrt(20.0/19.0) * math.Sqrt(252) * 100
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("vol %v, want %v", got, want)
	}
}

func TestAnnualizedVolatilityPercentUsesAllWhenShort(t *testing.T) {
	rets := []float64{0.02, -0.02, 0.02, -0.02, 0.02}
	all := AnnualizedVolatilityPercent(rets, 20)
	exact := AnnualizedVolatilityPercent(rets, 5)
	if all != exact {
		t.Fatalf("short series should use all returns: %v != %v", all, exact)
	}
}

func TestAnnualizedVolatilityPercentConstantSeries(t *testing.T) {
	if v := AnnualizedVolatilityPercent([]float64{0, 0, 0, 0}, 20); v != 0 {
		t.Fatalf("expected zero vol, got %v", v)
	}
}
