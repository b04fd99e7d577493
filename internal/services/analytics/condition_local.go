package analytics

import (
	"context"

	"RiskGate/internal/domain/models"
	domsvc "RiskGate/internal/domain/service"
	"RiskGate/internal/services/features"
)

const (
	// defaultTrendThresholdPct is the absolute window-over-window price change,
	// in percent, above which the market counts as trending.
	defaultTrendThresholdPct = 2.0

	// defaultVolatileThresholdPct splits the calm and volatile variants of each
	// condition, in annualized volatility percent.
	defaultVolatileThresholdPct = 25.0
)

// LocalConditionDetector is a self-contained fallback for deployments without
// a trend sidecar. It classifies the condition from two cheap features: the
// window's price slope and its realized volatility.
type LocalConditionDetector struct {
	trendPct    float64
	volatilePct float64
	lookback    int
}

// LocalOption configures LocalConditionDetector.
type LocalOption func(*LocalConditionDetector)

// WithTrendThreshold sets the trending cutoff in percent.
func WithTrendThreshold(pct float64) LocalOption {
	return func(d *LocalConditionDetector) {
		if pct > 0 {
			d.trendPct = pct
		}
	}
}

// WithVolatileThreshold sets the volatile cutoff in annualized percent.
func WithVolatileThreshold(pct float64) LocalOption {
	return func(d *LocalConditionDetector) {
		if pct > 0 {
			d.volatilePct = pct
		}
	}
}

func NewLocalConditionDetector(opts ...LocalOption) *LocalConditionDetector {
	d := &LocalConditionDetector{
		trendPct:    defaultTrendThresholdPct,
		volatilePct: defaultVolatileThresholdPct,
		lookback:    20,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *LocalConditionDetector) Detect(_ context.Context, _ string, window models.PriceWindow) (models.MarketCondition, error) {
	returns := features.ComputeSimpleReturns(window)
	if len(returns) < 2 {
		return models.ConditionUnknown, nil
	}

	slope := features.SlopePercent(window)
	volatile := features.AnnualizedVolatilityPercent(returns, d.lookback) >= d.volatilePct

	switch {
	case slope >= d.trendPct:
		if volatile {
			return models.ConditionBullVolatile, nil
		}
		return models.ConditionBullTrending, nil
	case slope <= -d.trendPct:
		if volatile {
			return models.ConditionBearVolatile, nil
		}
		return models.ConditionBearTrending, nil
	default:
		if volatile {
			return models.ConditionRangeVolatile, nil
		}
		return models.ConditionRangeBound, nil
	}
}

var _ domsvc.ConditionDetector = (*LocalConditionDetector)(nil)
