package analytics

import (
	"context"
	"fmt"

	"RiskGate/internal/domain/models"
	domsvc "RiskGate/internal/domain/service"
	"RiskGate/internal/services/features"
	"RiskGate/pkg/config"
)

// HTTPConditionDetector classifies the market condition by delegating to an
// external trend service over HTTP. The service owns the trend model; this
// client only ships the recent return series and parses the verdict.
type HTTPConditionDetector struct {
	base *HTTPServiceBase
}

func NewHTTPConditionDetector(cfg *config.Config) *HTTPConditionDetector {
	return &HTTPConditionDetector{base: NewHTTPServiceBase(cfg)}
}

type conditionRequest struct {
	Symbol  string    `json:"symbol"`
	Returns []float64 `json:"returns"`
	Slope   float64   `json:"slope"`
}

type conditionResponse struct {
	Condition  string  `json:"condition"`
	Confidence float64 `json:"confidence"`
}

func (d *HTTPConditionDetector) Detect(ctx context.Context, symbol string, window models.PriceWindow) (models.MarketCondition, error) {
	req := conditionRequest{
		Symbol:  symbol,
		Returns: features.ComputeSimpleReturns(window),
		Slope:   features.SlopePercent(window),
	}
	var resp conditionResponse
	if err := d.base.PostJSONWithRetry(ctx, "/trend/classify", req, &resp, 3); err != nil {
		return models.ConditionUnknown, fmt.Errorf("classify trend: %w", err)
	}
	return models.ParseMarketCondition(resp.Condition), nil
}

var _ domsvc.ConditionDetector = (*HTTPConditionDetector)(nil)
