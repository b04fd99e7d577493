package api

import (
	"encoding/json"
	"time"

	models "RiskGate/internal/domain/models"
	icache "RiskGate/internal/service/cache"
	"RiskGate/internal/service/metrics"
	"RiskGate/internal/service/ratelimit"
	"RiskGate/internal/services/risk"
	"RiskGate/internal/usecase"
	xhttp "RiskGate/pkg/http"
	xlogger "RiskGate/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RiskEchoHandler exposes the risk evaluation and breaker control endpoints.
type RiskEchoHandler struct {
	logger    *xlogger.Logger
	evaluator *usecase.TradeEvaluator
	cache     icache.BytesCache
	rl        *ratelimit.Limiter
}

func NewRiskEchoHandler(logger *xlogger.Logger, evaluator *usecase.TradeEvaluator) *RiskEchoHandler {
	metrics.Register()
	return &RiskEchoHandler{logger: logger, evaluator: evaluator, rl: ratelimit.New()}
}

// SetCache injects a response cache for the evaluate endpoint.
func (h *RiskEchoHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *RiskEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/risk/evaluate", h.Evaluate)
	g.GET("/risk/sizing", h.Sizing)
	g.POST("/risk/performance", h.Performance)
	g.GET("/breakers", h.Breakers)
	g.POST("/breakers/trip", h.Trip)
	g.POST("/breakers/reset", h.Reset)
	g.POST("/breakers/reset_all", h.ResetAll)
}

func (h *RiskEchoHandler) Evaluate(c echo.Context) error {
	start := time.Now()
	endpoint := "evaluate"
	defer func() { metrics.TrendLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.EvaluateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":evaluate", 10, 5) {
		h.logger.Warn("risk.evaluate rate_limited", xlogger.String("remote", c.RealIP()))
		return echo.NewHTTPError(429, "rate limited")
	}

	cacheKey := "evaluate:" + req.Symbol
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
			h.logger.Warn("risk.evaluate cache_get_error", xlogger.Error(err))
		} else if ok {
			var cached models.TradeDecision
			if err := json.Unmarshal(b, &cached); err == nil {
				return xhttp.SuccessResponse(c, &cached)
			}
		}
	}

	res, err := h.evaluator.Evaluate(c.Request().Context(), req.Symbol, req.N)
	if err != nil {
		metrics.TrendErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("risk.evaluate error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	if h.cache != nil {
		if b, err := json.Marshal(res); err == nil {
			if err := h.cache.SetBytes(cacheKey, b, 2*time.Second); err != nil {
				h.logger.Warn("risk.evaluate cache_set_error", xlogger.Error(err))
			}
		}
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *RiskEchoHandler) Sizing(c echo.Context) error {
	req := &models.SizingRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	regime := models.ParseVolatilityRegime(req.Regime)
	condition := models.ParseMarketCondition(req.Condition)
	btype := models.ParseBreakerType(req.Type)

	sizing, status := h.evaluator.Sizing(regime, condition, btype, req.Scope)
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"regime":         regime,
		"condition":      condition,
		"breaker_status": status,
		"sizing_factor":  sizing,
	})
}

func (h *RiskEchoHandler) Performance(c echo.Context) error {
	req := &models.PerformanceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	h.evaluator.RecordPerformance(req.Symbol, req.Model, req.Score)
	return xhttp.NoContentResponse(c)
}

func (h *RiskEchoHandler) Breakers(c echo.Context) error {
	req := &models.BreakersRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	records := h.evaluator.Breakers(req.Scope)
	if since, ok := xhttp.ParseTime(req.Since); ok {
		filtered := records[:0]
		for _, r := range records {
			if !r.TrippedAt.Before(since) {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}
	return xhttp.ListResponse(c, records, int64(len(records)))
}

func (h *RiskEchoHandler) Trip(c echo.Context) error {
	req := &models.TripRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	opts := []risk.TripOption{risk.WithStatus(models.ParseBreakerStatus(req.Status))}
	if req.ResetAfter > 0 {
		opts = append(opts, risk.WithResetAfter(time.Duration(req.ResetAfter)*time.Second))
	}
	rec := h.evaluator.Trip(models.ParseBreakerType(req.Type), req.Scope, req.Reason, opts...)
	h.logger.Warn("breaker tripped via api",
		xlogger.String("type", rec.Type.String()),
		xlogger.String("scope", rec.Scope),
		xlogger.String("status", rec.Status.String()),
	)
	return xhttp.CreatedResponse(c, rec)
}

func (h *RiskEchoHandler) Reset(c echo.Context) error {
	req := &models.ResetRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.evaluator.Reset(models.ParseBreakerType(req.Type), req.Scope) {
		return xhttp.NotFoundResponse(c, map[string]string{
			"message": "no breaker record for type/scope",
		})
	}
	return xhttp.NoContentResponse(c)
}

func (h *RiskEchoHandler) ResetAll(c echo.Context) error {
	h.evaluator.ResetAll()
	h.logger.Warn("all breakers reset via api")
	return xhttp.NoContentResponse(c)
}
