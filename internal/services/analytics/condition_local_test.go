package analytics

import (
	"context"
	"testing"
	"time"

	"RiskGate/internal/domain/models"
)

func window(closes []float64) models.PriceWindow {
	w := make(models.PriceWindow, len(closes))
	t0 := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		w[i] = models.PricePoint{Timestamp: t0.AddDate(0, 0, i), Close: c}
	}
	return w
}

// drift builds n closes with a constant daily return, an almost
// zero-volatility trend.
func drift(n int, daily float64) models.PriceWindow {
	closes := make([]float64, n)
	closes[0] = 100
	for i := 1; i < n; i++ {
		closes[i] = closes[i-1] * (1 + daily)
	}
	return window(closes)
}

// choppy builds n closes alternating +/-move, a high-volatility range.
func choppy(n int, move float64) models.PriceWindow {
	closes := make([]float64, n)
	closes[0] = 100
	for i := 1; i < n; i++ {
		if i%2 == 0 {
			closes[i] = closes[i-1] * (1 - move)
		} else {
			closes[i] = closes[i-1] * (1 + move)
		}
	}
	return window(closes)
}

func TestLocalDetectorConditions(t *testing.T) {
	d := NewLocalConditionDetector()
	ctx := context.Background()

	cases := []struct {
		name   string
		window models.PriceWindow
		want   models.MarketCondition
	}{
		// +0.3% a day over 30 days is ~+9% with ~5% annualized vol.
		{"bull trending", drift(30, 0.003), models.ConditionBullTrending},
		{"bear trending", drift(30, -0.003), models.ConditionBearTrending},
		// Alternating +/-3% stays near flat but annualizes near 48% vol.
		{"range volatile", choppy(30, 0.03), models.ConditionRangeVolatile},
		// +/-0.05% barely moves and barely varies.
		{"range bound", choppy(30, 0.0005), models.ConditionRangeBound},
	}
	for _, c := range cases {
		got, err := d.Detect(ctx, "AAPL", c.window)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("%s: got %s, want %s", c.name, got, c.want)
		}
	}
}

func TestLocalDetectorShortWindow(t *testing.T) {
	d := NewLocalConditionDetector()
	got, err := d.Detect(context.Background(), "AAPL", window([]float64{100, 101}))
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if got != models.ConditionUnknown {
		t.Fatalf("short window must be UNKNOWN, got %s", got)
	}
}

func TestLocalDetectorThresholdOptions(t *testing.T) {
	// A 9% move is trending under the default but range-bound if the
	// threshold is raised above it.
	d := NewLocalConditionDetector(WithTrendThreshold(15))
	got, err := d.Detect(context.Background(), "AAPL", drift(30, 0.003))
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if got != models.ConditionRangeBound {
		t.Fatalf("raised threshold should demote the trend, got %s", got)
	}
}
