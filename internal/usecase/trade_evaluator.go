package usecase

import (
	"context"
	"fmt"
	"time"

	"RiskGate/internal/domain/models"
	drepo "RiskGate/internal/domain/repository"
	"RiskGate/internal/services/risk"
	applogger "RiskGate/pkg/logger"
)

// TradeEvaluator orchestrates one full risk evaluation: classify the window,
// drive the volatility breaker, gate on breaker status, and compose the final
// position sizing. It is the only caller that couples the optimizer and the
// registry; both stay usable on their own.
type TradeEvaluator struct {
	optimizer *risk.ParameterOptimizer
	registry  *risk.BreakerRegistry
	windows   *WindowBuilder
	metrics   drepo.Metrics
	logger    *applogger.Logger

	referenceSymbol string
	now             func() time.Time
}

// EvaluatorOption configures TradeEvaluator.
type EvaluatorOption func(*TradeEvaluator)

// WithReferenceSymbol names the index window blended into classification.
func WithReferenceSymbol(symbol string) EvaluatorOption {
	return func(e *TradeEvaluator) { e.referenceSymbol = symbol }
}

// WithEvaluatorLogger injects a structured logger.
func WithEvaluatorLogger(l *applogger.Logger) EvaluatorOption {
	return func(e *TradeEvaluator) { e.logger = l }
}

// WithEvaluatorClock overrides the time source.
func WithEvaluatorClock(now func() time.Time) EvaluatorOption {
	return func(e *TradeEvaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// NewTradeEvaluator wires the evaluator.
func NewTradeEvaluator(optimizer *risk.ParameterOptimizer, registry *risk.BreakerRegistry, windows *WindowBuilder, metrics drepo.Metrics, opts ...EvaluatorOption) *TradeEvaluator {
	e := &TradeEvaluator{
		optimizer: optimizer,
		registry:  registry,
		windows:   windows,
		metrics:   metrics,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs the full decision path for a symbol over its last n points.
func (e *TradeEvaluator) Evaluate(ctx context.Context, symbol string, n int) (*models.TradeDecision, error) {
	start := e.now()

	window := e.windows.Tail(symbol, n)
	var reference models.PriceWindow
	if e.referenceSymbol != "" && e.referenceSymbol != symbol {
		reference = e.windows.Tail(e.referenceSymbol, n)
	}

	params, err := e.optimizer.OptimizeParameters(ctx, symbol, window, reference)
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordError("evaluate")
		}
		return nil, fmt.Errorf("evaluate %s: %w", symbol, err)
	}
	params.RegimeInfo.DetectedAt = start

	regime := params.RegimeInfo.Regime
	e.registry.ProcessVolatility(regime, params.RegimeInfo.Volatility, symbol)

	allowed, status := e.registry.Check(models.BreakerVolatility, symbol)
	sizing := e.optimizer.RecommendedPositionSizing(regime, params.RegimeInfo.Condition, status)

	if e.metrics != nil {
		e.metrics.RecordEvaluation(symbol, regime.String())
		e.metrics.RecordSizing(symbol, sizing)
		e.metrics.RecordLatency("evaluate", e.now().Sub(start).Seconds())
	}
	if e.logger != nil {
		e.logger.Debug("evaluated",
			applogger.String("symbol", symbol),
			applogger.String("regime", regime.String()),
			applogger.String("status", status.String()),
			applogger.Bool("allowed", allowed),
		)
	}

	return &models.TradeDecision{
		Symbol:        symbol,
		Allowed:       allowed,
		BreakerStatus: status,
		SizingFactor:  sizing,
		Parameters:    params,
		EvaluatedAt:   start,
	}, nil
}

// Sizing answers the sizing question directly from enum inputs, without a
// price window. The breaker status is looked up live for the given key.
func (e *TradeEvaluator) Sizing(regime models.VolatilityRegime, condition models.MarketCondition, btype models.BreakerType, scope string) (float64, models.BreakerStatus) {
	_, status := e.registry.Check(btype, scope)
	return e.optimizer.RecommendedPositionSizing(regime, condition, status), status
}

// Trip manually trips a breaker.
func (e *TradeEvaluator) Trip(btype models.BreakerType, scope, reason string, opts ...risk.TripOption) models.BreakerRecord {
	rec := e.registry.Trip(btype, scope, reason, opts...)
	if e.metrics != nil {
		e.metrics.RecordBreakerTrip(rec.Type.String(), rec.Scope, rec.Status.String())
	}
	return rec
}

// Reset resets one breaker; reports whether a record existed.
func (e *TradeEvaluator) Reset(btype models.BreakerType, scope string) bool {
	return e.registry.Reset(btype, scope)
}

// ResetAll resets every active breaker.
func (e *TradeEvaluator) ResetAll() {
	e.registry.ResetAll()
}

// Breakers returns the active breaker snapshot, optionally filtered by scope.
func (e *TradeEvaluator) Breakers(scope string) []models.BreakerRecord {
	records := e.registry.Status()
	if scope == "" {
		return records
	}
	out := records[:0:0]
	for _, r := range records {
		if r.Scope == scope {
			out = append(out, r)
		}
	}
	return out
}

// RecordPerformance feeds one model performance sample into the optimizer.
func (e *TradeEvaluator) RecordPerformance(symbol, model string, score float64) {
	e.optimizer.RecordModelPerformance(symbol, model, score)
}
