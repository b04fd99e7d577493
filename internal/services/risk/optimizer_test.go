package risk

import (
	"context"
	"errors"
	"math"
	"testing"

	"RiskGate/internal/domain/models"
)

// stubDetector returns a fixed condition or error for every lookup.
type stubDetector struct {
	condition models.MarketCondition
	err       error
}

func (s stubDetector) Detect(_ context.Context, _ string, _ models.PriceWindow) (models.MarketCondition, error) {
	return s.condition, s.err
}

func TestOptimizeParametersRegimeRow(t *testing.T) {
	o := NewParameterOptimizer(NewVolatilityClassifier(), nil)

	// ~0.5% daily moves land well inside the LOW band.
	params, err := o.OptimizeParameters(context.Background(), "AAPL", closesWithDailyMove(40, 0.005), nil)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if params.RegimeInfo.Regime != models.RegimeLow {
		t.Fatalf("regime %s, want LOW", params.RegimeInfo.Regime)
	}
	if params.RegimeInfo.Condition != models.ConditionUnknown {
		t.Fatalf("nil detector must yield UNKNOWN condition, got %s", params.RegimeInfo.Condition)
	}
	if params.ConfidenceThreshold != 0.60 || params.PredictionHorizon != 12 {
		t.Fatalf("unexpected LOW row: %+v", params)
	}
	if params.PositionSizingBaseline != 1.0 {
		t.Fatalf("LOW/unknown baseline %v, want 1.0", params.PositionSizingBaseline)
	}
}

func TestOptimizeParametersInsufficientData(t *testing.T) {
	o := NewParameterOptimizer(NewVolatilityClassifier(), nil)
	// A single close computes no return at all.
	_, err := o.OptimizeParameters(context.Background(), "AAPL", dailyWindow([]float64{100}), nil)
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestOptimizeParametersConditionRefinement(t *testing.T) {
	o := NewParameterOptimizer(NewVolatilityClassifier(),
		stubDetector{condition: models.ConditionBearVolatile})

	params, err := o.OptimizeParameters(context.Background(), "AAPL", closesWithDailyMove(40, 0.005), nil)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if params.RegimeInfo.Condition != models.ConditionBearVolatile {
		t.Fatalf("condition %s, want BEAR_VOLATILE", params.RegimeInfo.Condition)
	}
	// LOW confidence 0.60 plus the bear-volatile delta 0.10.
	if math.Abs(params.ConfidenceThreshold-0.70) > 1e-9 {
		t.Fatalf("confidence %v, want 0.70", params.ConfidenceThreshold)
	}
	// LOW baseline 1.0 times the bear-volatile factor 0.6.
	if math.Abs(params.PositionSizingBaseline-0.6) > 1e-9 {
		t.Fatalf("baseline %v, want 0.6", params.PositionSizingBaseline)
	}
}

func TestOptimizeParametersDetectorFailureDegrades(t *testing.T) {
	o := NewParameterOptimizer(NewVolatilityClassifier(),
		stubDetector{err: errors.New("sidecar down")})

	params, err := o.OptimizeParameters(context.Background(), "AAPL", closesWithDailyMove(40, 0.005), nil)
	if err != nil {
		t.Fatalf("detector failure must not fail the call: %v", err)
	}
	if params.RegimeInfo.Condition != models.ConditionUnknown {
		t.Fatalf("failed detector must fall back to UNKNOWN, got %s", params.RegimeInfo.Condition)
	}
}

func TestRecommendedPositionSizingStatusCaps(t *testing.T) {
	o := NewParameterOptimizer(NewVolatilityClassifier(), nil)

	cases := []struct {
		status models.BreakerStatus
		want   float64
	}{
		{models.StatusOpen, 0.0},
		{models.StatusRestricted, 0.5},
		{models.StatusCautious, 0.75},
	}
	for _, c := range cases {
		got := o.RecommendedPositionSizing(models.RegimeLow, models.ConditionBullTrending, c.status)
		if got != c.want {
			t.Fatalf("%s: sizing %v, want %v", c.status, got, c.want)
		}
	}

	// CLOSED exposes the table: EXTREME x BEAR_VOLATILE = 0.25 * 0.6.
	got := o.RecommendedPositionSizing(models.RegimeExtreme, models.ConditionBearVolatile, models.StatusClosed)
	if math.Abs(got-0.15) > 1e-9 {
		t.Fatalf("EXTREME/BEAR_VOLATILE sizing %v, want 0.15", got)
	}
	if got > regimeSizingBaseline[models.RegimeExtreme] {
		t.Fatalf("condition refinement must never size above the regime baseline")
	}
}

func TestRecommendedPositionSizingUnknownConditionFallsBack(t *testing.T) {
	o := NewParameterOptimizer(NewVolatilityClassifier(), nil)
	got := o.RecommendedPositionSizing(models.RegimeHigh, models.ConditionUnknown, models.StatusClosed)
	if got != 0.5 {
		t.Fatalf("HIGH regime-only sizing %v, want 0.5", got)
	}
}

func TestRecordModelPerformanceWindowEviction(t *testing.T) {
	o := NewParameterOptimizer(NewVolatilityClassifier(), nil, WithHistoryWindow(5))
	for i := 0; i < 12; i++ {
		o.RecordModelPerformance("AAPL", "lstm", 0.5)
	}
	if got := o.HistoryLen("AAPL"); got != 5 {
		t.Fatalf("history length %d, want 5", got)
	}
	if got := o.HistoryLen("MSFT"); got != 0 {
		t.Fatalf("history must be per symbol, got %d for MSFT", got)
	}
}

func TestOnlineLearningAdaptsWeights(t *testing.T) {
	o := NewParameterOptimizer(NewVolatilityClassifier(), nil,
		WithOnlineLearning(true), WithAdaptationSpeed(0.1))

	// Strong lstm performance, weak transformer, nothing for xgboost.
	for i := 0; i < 10; i++ {
		o.RecordModelPerformance("AAPL", "lstm", 0.9)
		o.RecordModelPerformance("AAPL", "transformer", 0.2)
	}

	params, err := o.OptimizeParameters(context.Background(), "AAPL", closesWithDailyMove(60, 0.011), nil)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	static := regimeParameters[params.RegimeInfo.Regime].ModelWeights
	if params.ModelWeights["lstm"] <= static["lstm"] {
		t.Fatalf("above-average lstm must gain weight: %v <= %v",
			params.ModelWeights["lstm"], static["lstm"])
	}
	if params.ModelWeights["transformer"] >= static["transformer"] {
		t.Fatalf("below-average transformer must lose weight: %v >= %v",
			params.ModelWeights["transformer"], static["transformer"])
	}
	if params.ModelWeights["xgboost"] != static["xgboost"] {
		t.Fatalf("unsampled model must keep its static weight")
	}
}

func TestOnlineLearningOffKeepsStaticWeights(t *testing.T) {
	o := NewParameterOptimizer(NewVolatilityClassifier(), nil)
	o.RecordModelPerformance("AAPL", "lstm", 1.0)

	params, err := o.OptimizeParameters(context.Background(), "AAPL", closesWithDailyMove(40, 0.005), nil)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	static := regimeParameters[params.RegimeInfo.Regime].ModelWeights
	for model, w := range static {
		if params.ModelWeights[model] != w {
			t.Fatalf("weights must stay static with learning off: %s %v != %v",
				model, params.ModelWeights[model], w)
		}
	}
}

func TestDetectMarketCondition(t *testing.T) {
	o := NewParameterOptimizer(NewVolatilityClassifier(),
		stubDetector{condition: models.ConditionRangeBound})

	regime, condition, value, err := o.DetectMarketCondition(context.Background(), "AAPL", closesWithDailyMove(40, 0.005))
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if regime != models.RegimeLow || condition != models.ConditionRangeBound {
		t.Fatalf("got (%s,%s)", regime, condition)
	}
	if value <= 0 {
		t.Fatalf("volatility value must be positive, got %v", value)
	}
}
