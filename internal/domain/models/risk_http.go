package models

// Requests for the risk HTTP endpoints. Defined in domain for consistency and reuse.

type EvaluateRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"120" validate:"gte=2,lte=5000"`
}

type SizingRequest struct {
	Regime    string `query:"regime" json:"regime" validate:"required,oneof=LOW NORMAL HIGH EXTREME"`
	Condition string `query:"condition" json:"condition" default:"UNKNOWN"`
	Type      string `query:"type" json:"type" default:"VOLATILITY"`
	Scope     string `query:"scope" json:"scope" default:""`
}

type BreakersRequest struct {
	Scope string `query:"scope" json:"scope" default:""`
	Since string `query:"since" json:"since" default:""` // RFC3339 or unix seconds
}

type TripRequest struct {
	Type       string `json:"type" validate:"required"`
	Scope      string `json:"scope" default:""`
	Reason     string `json:"reason" validate:"required"`
	Status     string `json:"status" default:"OPEN" validate:"oneof=CAUTIOUS RESTRICTED OPEN"`
	ResetAfter int    `json:"reset_after" validate:"gte=0"` // seconds, advisory
}

type ResetRequest struct {
	Type  string `json:"type" validate:"required"`
	Scope string `json:"scope" default:""`
}

type PerformanceRequest struct {
	Symbol string  `json:"symbol" validate:"required"`
	Model  string  `json:"model" validate:"required"`
	Score  float64 `json:"score" validate:"gte=0,lte=1"`
}
