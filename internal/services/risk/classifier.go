package risk

import (
	"fmt"
	"maps"

	"RiskGate/internal/domain/models"
	"RiskGate/internal/services/features"
	applogger "RiskGate/pkg/logger"
)

const (
	// DefaultLookback is the rolling window of returns used for realized
	// volatility; shorter histories use all available returns down to
	// MinLookback.
	DefaultLookback = 20
	MinLookback     = 5

	// DefaultBlendWeight is the share of the reference index in the blended
	// volatility value.
	DefaultBlendWeight = 0.3

	// DefaultNearExtremeThreshold is the volatility percent above which a
	// HIGH regime already warrants a circuit breaker.
	DefaultNearExtremeThreshold = 38.0
)

// VolatilityClassifier converts a price history into a volatility regime and
// a numeric annualized volatility percent. It holds no per-symbol state.
type VolatilityClassifier struct {
	lookback       int
	blendWeight    float64
	nearExtremePct float64
	logger         *applogger.Logger
}

// ClassifierOption configures VolatilityClassifier.
type ClassifierOption func(*VolatilityClassifier)

// WithLookback sets the rolling return window.
func WithLookback(n int) ClassifierOption {
	return func(c *VolatilityClassifier) {
		if n >= MinLookback {
			c.lookback = n
		}
	}
}

// WithBlendWeight sets the reference-index blend weight in [0,1].
func WithBlendWeight(w float64) ClassifierOption {
	return func(c *VolatilityClassifier) {
		if w >= 0 && w <= 1 {
			c.blendWeight = w
		}
	}
}

// WithNearExtremeThreshold sets the HIGH-band activation threshold.
func WithNearExtremeThreshold(pct float64) ClassifierOption {
	return func(c *VolatilityClassifier) {
		if pct > 0 {
			c.nearExtremePct = pct
		}
	}
}

// WithClassifierLogger injects a structured logger.
func WithClassifierLogger(l *applogger.Logger) ClassifierOption {
	return func(c *VolatilityClassifier) { c.logger = l }
}

// NewVolatilityClassifier creates a classifier with the default policy.
func NewVolatilityClassifier(opts ...ClassifierOption) *VolatilityClassifier {
	c := &VolatilityClassifier{
		lookback:       DefaultLookback,
		blendWeight:    DefaultBlendWeight,
		nearExtremePct: DefaultNearExtremeThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DetectRegime computes realized annualized volatility from the price window,
// optionally blends in the latest reference-index value, and classifies the
// result into a regime band. referenceIndex may be nil; a malformed reference
// series degrades to realized-only classification and is never an error.
func (c *VolatilityClassifier) DetectRegime(window models.PriceWindow, referenceIndex models.PriceWindow) (models.VolatilityRegime, float64, error) {
	returns := features.ComputeSimpleReturns(window)
	if returns == nil {
		return models.RegimeNormal, 0, fmt.Errorf("detect regime: %d points: %w", len(window), models.ErrInsufficientData)
	}

	realized := features.AnnualizedVolatilityPercent(returns, c.lookback)
	value := realized

	if len(referenceIndex) > 0 {
		if ref, ok := referenceIndex.Latest(); ok && ref.Close > 0 {
			value = (1-c.blendWeight)*realized + c.blendWeight*ref.Close
		} else if c.logger != nil {
			c.logger.Warn("reference index unusable, falling back to realized volatility",
				applogger.Int("points", len(referenceIndex)))
		}
	}

	return models.ClassifyVolatility(value), value, nil
}

// RegimeDescription returns a human-readable summary of the regime band.
func (c *VolatilityClassifier) RegimeDescription(regime models.VolatilityRegime) string {
	switch regime {
	case models.RegimeLow:
		return "Low volatility (<15% annualized) - stable conditions, full sizing"
	case models.RegimeNormal:
		return "Normal volatility (15-25% annualized) - typical market conditions"
	case models.RegimeHigh:
		return "High volatility (25-40% annualized) - elevated risk, reduced sizing"
	case models.RegimeExtreme:
		return "Extreme volatility (>=40% annualized) - circuit breaker territory"
	default:
		return "Unknown regime"
	}
}

// ShouldActivateCircuitBreaker reports whether the classification alone is
// severe enough to trip a volatility breaker: EXTREME always, HIGH when the
// value is already near the extreme band.
func (c *VolatilityClassifier) ShouldActivateCircuitBreaker(regime models.VolatilityRegime, value float64) bool {
	if regime == models.RegimeExtreme {
		return true
	}
	return regime == models.RegimeHigh && value > c.nearExtremePct
}

// RecommendedParameters returns the static policy row for a regime. The map
// is copied so callers can mutate their row freely.
func (c *VolatilityClassifier) RecommendedParameters(regime models.VolatilityRegime) models.RegimeParameters {
	row, ok := regimeParameters[regime]
	if !ok {
		row = regimeParameters[models.RegimeNormal]
	}
	row.ModelWeights = maps.Clone(row.ModelWeights)
	return row
}
