package risk

import "RiskGate/internal/domain/models"

// Static policy tables. The regime rows are the base layer; the condition
// layer refines them and the breaker status caps the final sizing. Weights
// are multipliers applied to each model's configured base weight.

var regimeParameters = map[models.VolatilityRegime]models.RegimeParameters{
	models.RegimeLow: {
		ConfidenceThreshold: 0.60,
		PredictionHorizon:   12,
		LookbackPeriods:     20,
		ModelWeights:        map[string]float64{"lstm": 1.1, "xgboost": 1.0, "transformer": 0.9},
	},
	models.RegimeNormal: {
		ConfidenceThreshold: 0.65,
		PredictionHorizon:   8,
		LookbackPeriods:     20,
		ModelWeights:        map[string]float64{"lstm": 1.0, "xgboost": 1.0, "transformer": 1.0},
	},
	models.RegimeHigh: {
		ConfidenceThreshold: 0.75,
		PredictionHorizon:   5,
		LookbackPeriods:     30,
		ModelWeights:        map[string]float64{"lstm": 0.9, "xgboost": 1.1, "transformer": 1.0},
	},
	models.RegimeExtreme: {
		ConfidenceThreshold: 0.85,
		PredictionHorizon:   3,
		LookbackPeriods:     40,
		ModelWeights:        map[string]float64{"lstm": 0.7, "xgboost": 1.2, "transformer": 0.8},
		CircuitBreaker:      true,
	},
}

// regimeSizingBaseline is the regime-only position-sizing row, used when the
// market condition is unknown or unrecognized.
var regimeSizingBaseline = map[models.VolatilityRegime]float64{
	models.RegimeLow:     1.0,
	models.RegimeNormal:  0.8,
	models.RegimeHigh:    0.5,
	models.RegimeExtreme: 0.25,
}

// conditionPolicy refines a regime row for one market condition.
type conditionPolicy struct {
	SizingFactor    float64 // multiplies the regime baseline
	ConfidenceDelta float64 // added to the regime confidence threshold
}

// conditionPolicies is the second dimension of the (regime, condition) table.
// Factors never exceed 1.0: a favorable condition cannot size above the
// regime baseline, only adverse ones reduce it.
var conditionPolicies = map[models.MarketCondition]conditionPolicy{
	models.ConditionBullTrending:  {SizingFactor: 1.0, ConfidenceDelta: 0},
	models.ConditionBullVolatile:  {SizingFactor: 0.85, ConfidenceDelta: 0.05},
	models.ConditionRangeBound:    {SizingFactor: 0.9, ConfidenceDelta: 0},
	models.ConditionRangeVolatile: {SizingFactor: 0.75, ConfidenceDelta: 0.05},
	models.ConditionBearTrending:  {SizingFactor: 0.7, ConfidenceDelta: 0.05},
	models.ConditionBearVolatile:  {SizingFactor: 0.6, ConfidenceDelta: 0.10},
}

// statusSizingCap maps breaker status to the sizing fraction it enforces.
// The status is the final authority: it caps the regime/condition baseline
// and never raises it. Distinct from the transition multipliers returned by
// ProcessVolatility, which express the immediate reaction to a volatility
// reading (CAUTIOUS there still allows full size).
var statusSizingCap = map[models.BreakerStatus]float64{
	models.StatusClosed:     1.0,
	models.StatusCautious:   0.75,
	models.StatusRestricted: 0.5,
	models.StatusOpen:       0.0,
}

// baselineSizing resolves the (regime, condition) sizing row with the
// regime-only fallback for unknown conditions.
func baselineSizing(regime models.VolatilityRegime, condition models.MarketCondition) float64 {
	base := regimeSizingBaseline[regime]
	if cp, ok := conditionPolicies[condition]; ok {
		return base * cp.SizingFactor
	}
	return base
}
