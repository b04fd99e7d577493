package models

import "time"

// RegimeParameters is the static policy row for one volatility regime.
type RegimeParameters struct {
	ConfidenceThreshold float64            `json:"confidence_threshold"`
	PredictionHorizon   int                `json:"prediction_horizon"`
	LookbackPeriods     int                `json:"lookback_periods"`
	ModelWeights        map[string]float64 `json:"model_weights"`
	CircuitBreaker      bool               `json:"circuit_breaker"`
}

// RegimeInfo carries the classification behind a parameter recommendation.
type RegimeInfo struct {
	Regime      VolatilityRegime `json:"regime"`
	Condition   MarketCondition  `json:"condition"`
	Volatility  float64          `json:"volatility"` // annualized percent
	Description string           `json:"description"`
	DetectedAt  time.Time        `json:"detected_at"`
}

// OptimizedParameters is the full recommendation for one evaluation: trading
// parameters plus the baseline sizing fraction before breaker composition.
type OptimizedParameters struct {
	ConfidenceThreshold    float64            `json:"confidence_threshold"`
	PredictionHorizon      int                `json:"prediction_horizon"`
	LookbackPeriods        int                `json:"lookback_periods"`
	ModelWeights           map[string]float64 `json:"model_weights"`
	PositionSizingBaseline float64            `json:"position_sizing_baseline"`
	RegimeInfo             RegimeInfo         `json:"regime_info"`
}

// TradeDecision is what the execution pipeline consumes: whether an order may
// be submitted at all and at what fraction of normal size.
type TradeDecision struct {
	Symbol        string              `json:"symbol"`
	Allowed       bool                `json:"allowed"`
	BreakerStatus BreakerStatus       `json:"breaker_status"`
	SizingFactor  float64             `json:"sizing_factor"`
	Parameters    OptimizedParameters `json:"parameters"`
	EvaluatedAt   time.Time           `json:"evaluated_at"`
}
