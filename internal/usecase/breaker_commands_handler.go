package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"RiskGate/internal/domain/models"
	drepo "RiskGate/internal/domain/repository"
	"RiskGate/internal/services/risk"
	pkgkafka "RiskGate/pkg/kafka"
	applogger "RiskGate/pkg/logger"
)

// BreakerCommandsHandler consumes breaker commands from Kafka and applies
// them to the registry. External systems (ops tooling, a risk desk) use this
// topic to trip or reset breakers without going through the HTTP API.
type BreakerCommandsHandler struct {
	topic     string
	evaluator *TradeEvaluator
	metrics   drepo.Metrics
	logger    *applogger.Logger
}

func NewBreakerCommandsHandler(topic string, evaluator *TradeEvaluator, metrics drepo.Metrics, logger *applogger.Logger) *BreakerCommandsHandler {
	return &BreakerCommandsHandler{topic: topic, evaluator: evaluator, metrics: metrics, logger: logger}
}

func (h *BreakerCommandsHandler) Topic() string { return h.topic }

// incoming message schema: {action, type, scope, reason, status, reset_after}
func (h *BreakerCommandsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Action     string `json:"action"` // "trip", "reset", "reset_all"
		Type       string `json:"type"`
		Scope      string `json:"scope"`
		Reason     string `json:"reason"`
		Status     string `json:"status"`
		ResetAfter int64  `json:"reset_after"` // seconds
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("commands_unmarshal")
		return err
	}

	switch m.Action {
	case "trip":
		opts := []risk.TripOption{}
		if m.Status != "" {
			opts = append(opts, risk.WithStatus(models.ParseBreakerStatus(m.Status)))
		}
		if m.ResetAfter > 0 {
			opts = append(opts, risk.WithResetAfter(time.Duration(m.ResetAfter)*time.Second))
		}
		h.evaluator.Trip(models.ParseBreakerType(m.Type), m.Scope, m.Reason, opts...)
	case "reset":
		if !h.evaluator.Reset(models.ParseBreakerType(m.Type), m.Scope) {
			h.logger.Warn("reset command for unknown breaker",
				applogger.String("type", m.Type), applogger.String("scope", m.Scope))
		}
	case "reset_all":
		h.evaluator.ResetAll()
	default:
		h.metrics.RecordError("commands_action")
		return fmt.Errorf("unknown breaker command action %q", m.Action)
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*BreakerCommandsHandler)(nil)
