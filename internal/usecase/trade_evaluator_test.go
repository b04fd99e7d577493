package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"RiskGate/internal/domain/models"
	"RiskGate/internal/services/risk"
)

type nopMetrics struct{}

func (nopMetrics) RecordEvaluation(string, string)  {}
func (nopMetrics) RecordBreakerTrip(_, _, _ string) {}
func (nopMetrics) RecordError(string)               {}
func (nopMetrics) RecordSizing(string, float64)     {}
func (nopMetrics) RecordLastPrice(string, float64)  {}
func (nopMetrics) RecordLatency(string, float64)    {}

func newEvaluator(opts ...EvaluatorOption) (*TradeEvaluator, *WindowBuilder, *risk.BreakerRegistry) {
	classifier := risk.NewVolatilityClassifier()
	optimizer := risk.NewParameterOptimizer(classifier, nil)
	registry := risk.NewBreakerRegistry()
	windows := NewWindowBuilder(512)
	return NewTradeEvaluator(optimizer, registry, windows, nopMetrics{}, opts...), windows, registry
}

// feed writes n one-second closes alternating +/-move into the builder.
func feed(b *WindowBuilder, symbol string, n int, move float64) {
	base := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC).Unix()
	price := 100.0
	for i := 0; i < n; i++ {
		if i > 0 {
			if i%2 == 0 {
				price *= 1 - move
			} else {
				price *= 1 + move
			}
		}
		b.Add(tick(symbol, base+int64(i), price))
	}
}

func TestEvaluateCalmMarketAllows(t *testing.T) {
	e, windows, _ := newEvaluator()
	feed(windows, "AAPL", 60, 0.005)

	d, err := e.Evaluate(context.Background(), "AAPL", 60)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("calm market must allow trading")
	}
	if d.BreakerStatus != models.StatusClosed {
		t.Fatalf("status %s, want CLOSED", d.BreakerStatus)
	}
	if d.Parameters.RegimeInfo.Regime != models.RegimeLow {
		t.Fatalf("regime %s, want LOW", d.Parameters.RegimeInfo.Regime)
	}
	if d.SizingFactor != 1.0 {
		t.Fatalf("sizing %v, want 1.0", d.SizingFactor)
	}
}

func TestEvaluateExtremeMarketBlocks(t *testing.T) {
	e, windows, registry := newEvaluator()
	// +/-4.5% per point annualizes around 70%, well into EXTREME.
	feed(windows, "TSLA", 60, 0.045)

	d, err := e.Evaluate(context.Background(), "TSLA", 60)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Allowed {
		t.Fatalf("extreme volatility must block trading")
	}
	if d.BreakerStatus != models.StatusOpen {
		t.Fatalf("status %s, want OPEN", d.BreakerStatus)
	}
	if d.SizingFactor != 0.0 {
		t.Fatalf("sizing %v, want 0.0", d.SizingFactor)
	}

	// The evaluation tripped a real registry record scoped to the symbol.
	allowed, status := registry.Check(models.BreakerVolatility, "TSLA")
	if allowed || status != models.StatusOpen {
		t.Fatalf("registry state after evaluation: (%v,%s)", allowed, status)
	}
}

func TestEvaluateRecoveryClearsBreaker(t *testing.T) {
	e, windows, _ := newEvaluator()
	feed(windows, "TSLA", 60, 0.045)
	if _, err := e.Evaluate(context.Background(), "TSLA", 60); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	// Replace the stream with a calm continuation and re-evaluate over the
	// calm tail only.
	base := time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC).Unix()
	price := 100.0
	for i := 0; i < 200; i++ {
		if i%2 == 0 {
			price *= 1.0005
		} else {
			price *= 0.9995
		}
		windows.Add(tick("TSLA", base+int64(i), price))
	}

	d, err := e.Evaluate(context.Background(), "TSLA", 60)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !d.Allowed || d.BreakerStatus != models.StatusClosed {
		t.Fatalf("calm re-evaluation must clear the breaker: (%v,%s)", d.Allowed, d.BreakerStatus)
	}
}

func TestEvaluateInsufficientData(t *testing.T) {
	e, windows, _ := newEvaluator()
	// One tick folds into a single close, which computes no return.
	feed(windows, "AAPL", 1, 0.005)

	_, err := e.Evaluate(context.Background(), "AAPL", 60)
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestEvaluateBlendsReferenceWindow(t *testing.T) {
	e, windows, _ := newEvaluator(WithReferenceSymbol("SPY"))
	feed(windows, "AAPL", 60, 0.005)

	// Reference window whose latest close is an index volatility reading of
	// 60%: the 0.3 blend weight pulls an otherwise LOW symbol well upward.
	base := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC).Unix()
	for i := 0; i < 60; i++ {
		windows.Add(tick("SPY", base+int64(i), 60))
	}

	d, err := e.Evaluate(context.Background(), "AAPL", 60)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Parameters.RegimeInfo.Regime == models.RegimeLow {
		t.Fatalf("reference blend should lift the regime, got LOW at %v",
			d.Parameters.RegimeInfo.Volatility)
	}
}

func TestSizingLookup(t *testing.T) {
	e, _, registry := newEvaluator()
	registry.Trip(models.BreakerVolatility, "AAPL", "spike",
		risk.WithStatus(models.StatusRestricted))

	sizing, status := e.Sizing(models.RegimeLow, models.ConditionBullTrending, models.BreakerVolatility, "AAPL")
	if status != models.StatusRestricted {
		t.Fatalf("status %s, want RESTRICTED", status)
	}
	if sizing != 0.5 {
		t.Fatalf("sizing %v, want 0.5", sizing)
	}
}

func TestBreakersScopeFilter(t *testing.T) {
	e, _, _ := newEvaluator()
	e.Trip(models.BreakerVolatility, "AAPL", "a")
	e.Trip(models.BreakerMarket, "TSLA", "b")

	if got := len(e.Breakers("")); got != 2 {
		t.Fatalf("unfiltered: %d, want 2", got)
	}
	got := e.Breakers("AAPL")
	if len(got) != 1 || got[0].Scope != "AAPL" {
		t.Fatalf("scope filter wrong: %+v", got)
	}
}
