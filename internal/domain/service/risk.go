package service

import (
	"context"

	"RiskGate/internal/domain/models"
)

// ConditionDetector labels the current market condition for a symbol from its
// price history. Implementations may call an external trend service; the risk
// core only consumes the label as a policy lookup key.
type ConditionDetector interface {
	Detect(ctx context.Context, symbol string, window models.PriceWindow) (models.MarketCondition, error)
}
