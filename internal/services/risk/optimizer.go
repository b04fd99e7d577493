package risk

import (
	"context"
	"fmt"
	"sync"

	"RiskGate/internal/domain/models"
	domsvc "RiskGate/internal/domain/service"
	applogger "RiskGate/pkg/logger"
)

const (
	// DefaultHistoryWindow bounds the per-symbol rolling performance buffer.
	DefaultHistoryWindow = 30
)

// modelScore is one observed per-model performance sample.
type modelScore struct {
	Model string
	Score float64
}

// ParameterOptimizer maps (regime, condition) to recommended trading
// parameters and a baseline position-sizing fraction, folding in breaker
// status as the final authority on sizing. Per-symbol performance history
// optionally shifts the static model weights when online learning is on.
type ParameterOptimizer struct {
	classifier *VolatilityClassifier
	conditions domsvc.ConditionDetector
	logger     *applogger.Logger

	adaptationSpeed float64
	onlineLearning  bool
	historyWindow   int

	mu      sync.RWMutex
	history map[string][]modelScore // keyed by symbol
}

// OptimizerOption configures ParameterOptimizer.
type OptimizerOption func(*ParameterOptimizer)

// WithAdaptationSpeed sets how strongly recent performance shifts static
// weights, in [0,1]. Zero keeps the table static even with learning enabled.
func WithAdaptationSpeed(speed float64) OptimizerOption {
	return func(o *ParameterOptimizer) {
		if speed >= 0 && speed <= 1 {
			o.adaptationSpeed = speed
		}
	}
}

// WithOnlineLearning toggles weight adaptation from recorded performance.
func WithOnlineLearning(enabled bool) OptimizerOption {
	return func(o *ParameterOptimizer) { o.onlineLearning = enabled }
}

// WithHistoryWindow sets the per-symbol rolling buffer size.
func WithHistoryWindow(n int) OptimizerOption {
	return func(o *ParameterOptimizer) {
		if n > 0 {
			o.historyWindow = n
		}
	}
}

// WithOptimizerLogger injects a structured logger.
func WithOptimizerLogger(l *applogger.Logger) OptimizerOption {
	return func(o *ParameterOptimizer) { o.logger = l }
}

// NewParameterOptimizer creates an optimizer around a classifier and a
// condition detector. The detector may be nil, in which case every lookup
// uses the regime-only policy row.
func NewParameterOptimizer(classifier *VolatilityClassifier, conditions domsvc.ConditionDetector, opts ...OptimizerOption) *ParameterOptimizer {
	o := &ParameterOptimizer{
		classifier:      classifier,
		conditions:      conditions,
		adaptationSpeed: 0.1,
		historyWindow:   DefaultHistoryWindow,
		history:         make(map[string][]modelScore),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// OptimizeParameters classifies the window, resolves the market condition,
// and returns the (regime, condition) policy row with the baseline sizing
// fraction. Unknown conditions fall back to the regime-only row; a failing
// condition detector is degraded input, logged and never raised.
func (o *ParameterOptimizer) OptimizeParameters(ctx context.Context, symbol string, window, referenceIndex models.PriceWindow) (models.OptimizedParameters, error) {
	regime, value, err := o.classifier.DetectRegime(window, referenceIndex)
	if err != nil {
		return models.OptimizedParameters{}, fmt.Errorf("optimize %s: %w", symbol, err)
	}

	condition := o.resolveCondition(ctx, symbol, window)
	return o.buildParameters(symbol, regime, condition, value), nil
}

// DetectMarketCondition bundles regime, condition, and volatility value for a
// single evaluation.
func (o *ParameterOptimizer) DetectMarketCondition(ctx context.Context, symbol string, window models.PriceWindow) (models.VolatilityRegime, models.MarketCondition, float64, error) {
	regime, value, err := o.classifier.DetectRegime(window, nil)
	if err != nil {
		return models.RegimeNormal, models.ConditionUnknown, 0, fmt.Errorf("detect condition %s: %w", symbol, err)
	}
	return regime, o.resolveCondition(ctx, symbol, window), value, nil
}

// RecommendedPositionSizing composes the final sizing fraction. The breaker
// status dominates: OPEN blocks entirely, RESTRICTED and CAUTIOUS cap the
// fraction, and only CLOSED exposes the (regime, condition) table value.
// Severity caps but never raises the baseline.
func (o *ParameterOptimizer) RecommendedPositionSizing(regime models.VolatilityRegime, condition models.MarketCondition, status models.BreakerStatus) float64 {
	ceiling, ok := statusSizingCap[status]
	if !ok {
		ceiling = 1.0
	}
	if status != models.StatusClosed {
		return ceiling
	}
	return baselineSizing(regime, condition)
}

// RecordModelPerformance appends one per-model performance sample to the
// symbol's rolling buffer, evicting the oldest beyond the window.
func (o *ParameterOptimizer) RecordModelPerformance(symbol, model string, score float64) {
	o.mu.Lock()
	buf := append(o.history[symbol], modelScore{Model: model, Score: score})
	if len(buf) > o.historyWindow {
		buf = buf[len(buf)-o.historyWindow:]
	}
	o.history[symbol] = buf
	o.mu.Unlock()
}

// HistoryLen reports the current buffer length for a symbol.
func (o *ParameterOptimizer) HistoryLen(symbol string) int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.history[symbol])
}

func (o *ParameterOptimizer) resolveCondition(ctx context.Context, symbol string, window models.PriceWindow) models.MarketCondition {
	if o.conditions == nil {
		return models.ConditionUnknown
	}
	condition, err := o.conditions.Detect(ctx, symbol, window)
	if err != nil {
		if o.logger != nil {
			o.logger.Warn("condition detector failed, using regime-only policy",
				applogger.String("symbol", symbol), applogger.Error(err))
		}
		return models.ConditionUnknown
	}
	return condition
}

func (o *ParameterOptimizer) buildParameters(symbol string, regime models.VolatilityRegime, condition models.MarketCondition, value float64) models.OptimizedParameters {
	row := o.classifier.RecommendedParameters(regime)

	confidence := row.ConfidenceThreshold
	if cp, ok := conditionPolicies[condition]; ok {
		confidence += cp.ConfidenceDelta
		if confidence > 0.95 {
			confidence = 0.95
		}
	}

	weights := row.ModelWeights
	if o.onlineLearning {
		weights = o.adaptWeights(symbol, weights)
	}

	return models.OptimizedParameters{
		ConfidenceThreshold:    confidence,
		PredictionHorizon:      row.PredictionHorizon,
		LookbackPeriods:        row.LookbackPeriods,
		ModelWeights:           weights,
		PositionSizingBaseline: baselineSizing(regime, condition),
		RegimeInfo: models.RegimeInfo{
			Regime:      regime,
			Condition:   condition,
			Volatility:  value,
			Description: o.classifier.RegimeDescription(regime),
		},
	}
}

// adaptWeights blends the static table weights toward each model's mean
// recent performance, scaled by adaptationSpeed. A model with no recorded
// samples keeps its static weight.
func (o *ParameterOptimizer) adaptWeights(symbol string, static map[string]float64) map[string]float64 {
	o.mu.RLock()
	buf := o.history[symbol]
	sums := make(map[string]float64, len(static))
	counts := make(map[string]int, len(static))
	for _, s := range buf {
		sums[s.Model] += s.Score
		counts[s.Model]++
	}
	o.mu.RUnlock()

	if len(counts) == 0 || o.adaptationSpeed == 0 {
		return static
	}

	out := make(map[string]float64, len(static))
	for model, w := range static {
		n := counts[model]
		if n == 0 {
			out[model] = w
			continue
		}
		mean := sums[model] / float64(n)
		// Performance scores live in [0,1]; 0.5 is neutral. Above-average
		// performance nudges the weight up, below-average down.
		out[model] = w * (1 + o.adaptationSpeed*(mean-0.5)*2)
	}
	return out
}
