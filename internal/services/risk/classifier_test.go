package risk

import (
	"errors"
	"math"
	"testing"
	"time"

	"RiskGate/internal/domain/models"
)

func dailyWindow(closes []float64) models.PriceWindow {
	w := make(models.PriceWindow, len(closes))
	t0 := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		w[i] = models.PricePoint{Timestamp: t0.AddDate(0, 0, i), Close: c}
	}
	return w
}

// closesWithDailyMove builds a window whose returns alternate +/-move,
// giving an annualized volatility of roughly move*sqrt(252)*100.
func closesWithDailyMove(n int, move float64) models.PriceWindow {
	closes := make([]float64, n)
	closes[0] = 100
	for i := 1; i < n; i++ {
		if i%2 == 0 {
			closes[i] = closes[i-1] * (1 - move)
		} else {
			closes[i] = closes[i-1] * (1 + move)
		}
	}
	return dailyWindow(closes)
}

func TestClassifyVolatilityBands(t *testing.T) {
	cases := []struct {
		value float64
		want  models.VolatilityRegime
	}{
		{10, models.RegimeLow},
		{20, models.RegimeNormal},
		{30, models.RegimeHigh},
		{50, models.RegimeExtreme},
		{0, models.RegimeLow},
		{14.999, models.RegimeLow},
		{15, models.RegimeNormal},
		{25, models.RegimeHigh},
		{40, models.RegimeExtreme},
	}
	for _, c := range cases {
		if got := models.ClassifyVolatility(c.value); got != c.want {
			t.Fatalf("classify %v = %s, want %s", c.value, got, c.want)
		}
	}
}

func TestDetectRegimeInsufficientData(t *testing.T) {
	c := NewVolatilityClassifier()
	_, _, err := c.DetectRegime(dailyWindow([]float64{100}), nil)
	if err == nil {
		t.Fatalf("expected error for single-point window")
	}
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestDetectRegimeTwoPointWindowIsValid(t *testing.T) {
	// Two closes compute one return, the smallest valid input. A single
	// return has no sample deviation, so the value degrades to 0 -> LOW.
	c := NewVolatilityClassifier()
	regime, value, err := c.DetectRegime(dailyWindow([]float64{100, 101}), nil)
	if err != nil {
		t.Fatalf("two-point window must classify: %v", err)
	}
	if regime != models.RegimeLow || value != 0 {
		t.Fatalf("got (%s, %v), want (LOW, 0)", regime, value)
	}
}

func TestDetectRegimeLowVolSeries(t *testing.T) {
	// ~0.5% daily alternating moves -> ~8% annualized.
	c := NewVolatilityClassifier()
	regime, value, err := c.DetectRegime(closesWithDailyMove(40, 0.005), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if regime != models.RegimeLow {
		t.Fatalf("regime %s (vol %.2f), want LOW", regime, value)
	}
	if value < 4 || value > 12 {
		t.Fatalf("vol %.2f outside expected LOW range", value)
	}
	if c.ShouldActivateCircuitBreaker(regime, value) {
		t.Fatalf("LOW regime must not activate breaker")
	}
}

func TestDetectRegimeExtremeVolSeries(t *testing.T) {
	// ~4.5% daily alternating moves -> ~71% annualized.
	c := NewVolatilityClassifier()
	regime, value, err := c.DetectRegime(closesWithDailyMove(40, 0.045), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if regime != models.RegimeExtreme {
		t.Fatalf("regime %s (vol %.2f), want EXTREME", regime, value)
	}
	if value < 60 || value > 85 {
		t.Fatalf("vol %.2f outside expected EXTREME range", value)
	}
	if !c.ShouldActivateCircuitBreaker(regime, value) {
		t.Fatalf("EXTREME regime must activate breaker")
	}
}

func TestDetectRegimeBlendsReferenceIndex(t *testing.T) {
	c := NewVolatilityClassifier()
	window := closesWithDailyMove(40, 0.005)

	_, realized, err := c.DetectRegime(window, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ref := dailyWindow([]float64{60})
	regime, blended, err := c.DetectRegime(window, ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 0.7*realized + 0.3*60
	if math.Abs(blended-want) > 1e-9 {
		t.Fatalf("blended %v, want %v", blended, want)
	}
	if regime != models.ClassifyVolatility(want) {
		t.Fatalf("regime %s does not match blended value %v", regime, want)
	}
}

func TestDetectRegimeMalformedReferenceFallsBack(t *testing.T) {
	c := NewVolatilityClassifier()
	window := closesWithDailyMove(40, 0.005)

	_, realized, err := c.DetectRegime(window, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Non-positive latest value is unusable; classification must degrade
	// to realized-only, not fail.
	bad := dailyWindow([]float64{-5})
	_, value, err := c.DetectRegime(window, bad)
	if err != nil {
		t.Fatalf("malformed reference must not raise: %v", err)
	}
	if value != realized {
		t.Fatalf("expected realized-only fallback %v, got %v", realized, value)
	}
}

func TestShouldActivateCircuitBreakerNearExtreme(t *testing.T) {
	c := NewVolatilityClassifier()
	if !c.ShouldActivateCircuitBreaker(models.RegimeHigh, 39) {
		t.Fatalf("HIGH at 39%% must activate")
	}
	if c.ShouldActivateCircuitBreaker(models.RegimeHigh, 30) {
		t.Fatalf("HIGH at 30%% must not activate")
	}
	if c.ShouldActivateCircuitBreaker(models.RegimeNormal, 39) {
		t.Fatalf("NORMAL never activates regardless of value")
	}
}

func TestRecommendedParametersRows(t *testing.T) {
	c := NewVolatilityClassifier()
	low := c.RecommendedParameters(models.RegimeLow)
	extreme := c.RecommendedParameters(models.RegimeExtreme)

	if low.CircuitBreaker {
		t.Fatalf("LOW row must not carry the breaker flag")
	}
	if !extreme.CircuitBreaker {
		t.Fatalf("EXTREME row must carry the breaker flag")
	}
	if extreme.ConfidenceThreshold <= low.ConfidenceThreshold {
		t.Fatalf("confidence must rise with severity: %v <= %v",
			extreme.ConfidenceThreshold, low.ConfidenceThreshold)
	}
	if extreme.PredictionHorizon >= low.PredictionHorizon {
		t.Fatalf("horizon must shrink with severity")
	}

	// Returned rows are copies; mutating one must not leak into the table.
	low.ModelWeights["lstm"] = 99
	if c.RecommendedParameters(models.RegimeLow).ModelWeights["lstm"] == 99 {
		t.Fatalf("policy row weights must be copied")
	}
}
