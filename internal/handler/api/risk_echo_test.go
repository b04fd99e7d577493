package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"RiskGate/internal/domain/models"
	icache "RiskGate/internal/service/cache"
	"RiskGate/internal/services/risk"
	"RiskGate/internal/usecase"
	applogger "RiskGate/pkg/logger"
)

type apiEnvelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type listData struct {
	Rows  []models.BreakerRecord `json:"rows"`
	Total int64                  `json:"total"`
}

func newTestHandler(t *testing.T, clock func() time.Time) (*RiskEchoHandler, *usecase.TradeEvaluator) {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	var opts []risk.RegistryOption
	if clock != nil {
		opts = append(opts, risk.WithClock(clock))
	}
	registry := risk.NewBreakerRegistry(opts...)
	optimizer := risk.NewParameterOptimizer(risk.NewVolatilityClassifier(), nil)
	evaluator := usecase.NewTradeEvaluator(optimizer, registry, usecase.NewWindowBuilder(64), nil)
	return NewRiskEchoHandler(l, evaluator), evaluator
}

func doPost(h echo.HandlerFunc, target, body string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func doGet(h echo.HandlerFunc, target string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return env
}

func TestTripDefaultsToOpen(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	rec, err := doPost(h.Trip, "/api/breakers/trip", `{"type":"EXCHANGE","scope":"binance","reason":"outage"}`)
	if err != nil {
		t.Fatalf("trip: %v", err)
	}
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusCreated {
		t.Fatalf("envelope status %d, want 201", env.Status)
	}
	var got models.BreakerRecord
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if got.Status != models.StatusOpen || !got.Active {
		t.Fatalf("manual trip without status must land on active OPEN, got %+v", got)
	}
	if got.Type != models.BreakerExchange || got.Scope != "binance" {
		t.Fatalf("unexpected record key %s/%s", got.Type, got.Scope)
	}
}

func TestTripRejectsClosedStatus(t *testing.T) {
	h, evaluator := newTestHandler(t, nil)

	rec, err := doPost(h.Trip, "/api/breakers/trip", `{"type":"EXCHANGE","reason":"noop","status":"CLOSED"}`)
	if err != nil {
		t.Fatalf("trip: %v", err)
	}
	if env := decodeEnvelope(t, rec); env.Status != http.StatusBadRequest {
		t.Fatalf("envelope status %d, want 400", env.Status)
	}
	if records := evaluator.Breakers(""); len(records) != 0 {
		t.Fatalf("rejected trip must not create a record, got %d", len(records))
	}
}

func TestBreakersSinceFilter(t *testing.T) {
	cur := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	h, _ := newTestHandler(t, func() time.Time { return cur })

	if _, err := doPost(h.Trip, "/api/breakers/trip", `{"type":"EXCHANGE","scope":"early","reason":"first"}`); err != nil {
		t.Fatalf("trip early: %v", err)
	}
	cur = cur.Add(10 * time.Minute)
	if _, err := doPost(h.Trip, "/api/breakers/trip", `{"type":"EXCHANGE","scope":"late","reason":"second"}`); err != nil {
		t.Fatalf("trip late: %v", err)
	}

	cutoff := time.Date(2025, 6, 2, 14, 5, 0, 0, time.UTC).Format(time.RFC3339)
	rec, err := doGet(h.Breakers, "/api/breakers?since="+cutoff)
	if err != nil {
		t.Fatalf("breakers: %v", err)
	}
	var data listData
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &data); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if data.Total != 1 || len(data.Rows) != 1 || data.Rows[0].Scope != "late" {
		t.Fatalf("since filter kept %+v, want only the late record", data)
	}

	// Without the filter both records come back.
	rec, err = doGet(h.Breakers, "/api/breakers")
	if err != nil {
		t.Fatalf("breakers: %v", err)
	}
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &data); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if data.Total != 2 {
		t.Fatalf("unfiltered total %d, want 2", data.Total)
	}
}

func TestResetMissingRecordIs404(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	rec, err := doPost(h.Reset, "/api/breakers/reset", `{"type":"LIQUIDITY","scope":"nope"}`)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if env := decodeEnvelope(t, rec); env.Status != http.StatusNotFound {
		t.Fatalf("envelope status %d, want 404", env.Status)
	}
}

func TestEvaluateServesCachedDecision(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	store := icache.NewTTLCache()
	h.SetCache(store)

	// With no window data the evaluator cannot decide, so a hit proves the
	// cached decision short-circuited the evaluation.
	cached := models.TradeDecision{Symbol: "AAPL", Allowed: true, SizingFactor: 0.42}
	b, err := json.Marshal(cached)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := store.SetBytes("evaluate:AAPL", b, time.Minute); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	rec, err := doGet(h.Evaluate, "/api/risk/evaluate?symbol=AAPL&n=60")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	var got models.TradeDecision
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &got); err != nil {
		t.Fatalf("decode decision: %v", err)
	}
	if !got.Allowed || got.SizingFactor != 0.42 {
		t.Fatalf("expected the cached decision, got %+v", got)
	}
}

func TestEvaluateRateLimited(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	// Exhaust the per-client bucket; the limiter allows a burst of 10.
	var last error
	for i := 0; i < 12; i++ {
		_, last = doGet(h.Evaluate, fmt.Sprintf("/api/risk/evaluate?symbol=AAPL&n=60&i=%d", i))
	}
	httpErr, ok := last.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %v", last)
	}
}
