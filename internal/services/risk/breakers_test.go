package risk

import (
	"testing"
	"time"

	"RiskGate/internal/domain/models"
)

func TestProcessVolatilityMapping(t *testing.T) {
	cases := []struct {
		level      models.VolatilityRegime
		tripped    bool
		status     models.BreakerStatus
		multiplier float64
	}{
		{models.RegimeLow, false, models.StatusClosed, 1.0},
		{models.RegimeNormal, true, models.StatusCautious, 1.0},
		{models.RegimeHigh, true, models.StatusRestricted, 0.5},
		{models.RegimeExtreme, true, models.StatusOpen, 0.25},
	}
	for _, c := range cases {
		r := NewBreakerRegistry()
		tripped, status, mult := r.ProcessVolatility(c.level, 30, "X")
		if tripped != c.tripped || status != c.status || mult != c.multiplier {
			t.Fatalf("%s -> (%v,%s,%v), want (%v,%s,%v)",
				c.level, tripped, status, mult, c.tripped, c.status, c.multiplier)
		}
	}
}

func TestProcessVolatilityIdempotent(t *testing.T) {
	r := NewBreakerRegistry()
	for i := 0; i < 2; i++ {
		tripped, status, mult := r.ProcessVolatility(models.RegimeExtreme, 45.0, "X")
		if !tripped || status != models.StatusOpen || mult != 0.25 {
			t.Fatalf("call %d: got (%v,%s,%v)", i, tripped, status, mult)
		}
	}
	records := r.Status()
	if len(records) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(records))
	}
	rec := records[0]
	if rec.Type != models.BreakerVolatility || rec.Scope != "X" {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestProcessVolatilityHighThenCheck(t *testing.T) {
	r := NewBreakerRegistry()
	tripped, status, mult := r.ProcessVolatility(models.RegimeHigh, 30.0, "AAPL")
	if !tripped || status != models.StatusRestricted || mult != 0.5 {
		t.Fatalf("got (%v,%s,%v)", tripped, status, mult)
	}
	allowed, status := r.Check(models.BreakerVolatility, "AAPL")
	if !allowed {
		t.Fatalf("RESTRICTED must still allow trading")
	}
	if status != models.StatusRestricted {
		t.Fatalf("check status %s, want RESTRICTED", status)
	}
}

func TestProcessVolatilityExtremeBlocks(t *testing.T) {
	r := NewBreakerRegistry()
	_, status, _ := r.ProcessVolatility(models.RegimeExtreme, 45.0, "AAPL")
	if status != models.StatusOpen {
		t.Fatalf("status %s, want OPEN", status)
	}
	allowed, status := r.Check(models.BreakerVolatility, "AAPL")
	if allowed {
		t.Fatalf("OPEN must block trading")
	}
	if status != models.StatusOpen {
		t.Fatalf("check status %s, want OPEN", status)
	}
}

func TestProcessVolatilityLowClearsPriorTrip(t *testing.T) {
	r := NewBreakerRegistry()
	r.ProcessVolatility(models.RegimeExtreme, 45.0, "AAPL")
	r.ProcessVolatility(models.RegimeLow, 10.0, "AAPL")
	allowed, status := r.Check(models.BreakerVolatility, "AAPL")
	if !allowed || status != models.StatusClosed {
		t.Fatalf("calm reading must clear the trip: (%v,%s)", allowed, status)
	}
	if got := len(r.Status()); got != 0 {
		t.Fatalf("cleared record must not be listed as active, got %d", got)
	}
}

func TestCheckAbsentRecordIsClosed(t *testing.T) {
	r := NewBreakerRegistry()
	allowed, status := r.Check(models.BreakerMarket, "TSLA")
	if !allowed || status != models.StatusClosed {
		t.Fatalf("absent record: (%v,%s), want (true,CLOSED)", allowed, status)
	}
}

func TestTripDefaultsAndOptions(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r := NewBreakerRegistry(WithClock(func() time.Time { return now }))

	rec := r.Trip(models.BreakerExchange, "", "exchange outage")
	if rec.Status != models.StatusOpen {
		t.Fatalf("manual trip defaults to OPEN, got %s", rec.Status)
	}
	if rec.Scope != DefaultScope {
		t.Fatalf("empty scope must normalize to %q, got %q", DefaultScope, rec.Scope)
	}
	if !rec.TrippedAt.Equal(now) {
		t.Fatalf("tripped_at %v, want %v", rec.TrippedAt, now)
	}

	rec = r.Trip(models.BreakerLiquidity, "BTC-USD", "thin book",
		WithStatus(models.StatusRestricted), WithResetAfter(30*time.Minute))
	if rec.Status != models.StatusRestricted {
		t.Fatalf("explicit status ignored: %s", rec.Status)
	}
	if rec.ResetAfter == nil || *rec.ResetAfter != 30*time.Minute {
		t.Fatalf("reset_after not recorded: %v", rec.ResetAfter)
	}
}

func TestTripIdempotentPerKey(t *testing.T) {
	r := NewBreakerRegistry()
	r.Trip(models.BreakerAnomaly, "ETH-USD", "first")
	r.Trip(models.BreakerAnomaly, "ETH-USD", "second")
	records := r.Status()
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	if records[0].Reason != "second" {
		t.Fatalf("re-trip must update reason, got %q", records[0].Reason)
	}
}

func TestResetMissingRecord(t *testing.T) {
	r := NewBreakerRegistry()
	if r.Reset(models.BreakerAPIError, "nope") {
		t.Fatalf("reset on missing record must return false")
	}
}

func TestRoundTripAcrossScopes(t *testing.T) {
	r := NewBreakerRegistry()
	scopes := []string{"AAPL", "MSFT", "GOOG", "AMZN", "NVDA"}
	for _, s := range scopes {
		r.Trip(models.BreakerVolatility, s, "vol spike "+s)
	}

	records := r.Status()
	if len(records) != len(scopes) {
		t.Fatalf("expected %d records, got %d", len(scopes), len(records))
	}
	for _, rec := range records {
		if rec.Reason != "vol spike "+rec.Scope {
			t.Fatalf("record %s does not match its trip: %q", rec.Scope, rec.Reason)
		}
	}

	if !r.Reset(models.BreakerVolatility, "MSFT") {
		t.Fatalf("reset of existing record must return true")
	}
	records = r.Status()
	if len(records) != len(scopes)-1 {
		t.Fatalf("expected %d active records after reset, got %d", len(scopes)-1, len(records))
	}
	for _, rec := range records {
		if rec.Scope == "MSFT" {
			t.Fatalf("reset record still listed as active")
		}
		if !rec.Active {
			t.Fatalf("other records must be untouched")
		}
	}
}

func TestResetAll(t *testing.T) {
	r := NewBreakerRegistry()
	r.Trip(models.BreakerMarket, "A", "x")
	r.Trip(models.BreakerTechnical, "B", "y")
	r.ResetAll()
	if got := len(r.Status()); got != 0 {
		t.Fatalf("expected no active records, got %d", got)
	}
	allowed, _ := r.Check(models.BreakerMarket, "A")
	if !allowed {
		t.Fatalf("reset breaker must allow trading")
	}
}

func TestEventSinkObservesTransitions(t *testing.T) {
	var events []models.BreakerEvent
	r := NewBreakerRegistry(WithEventSink(func(ev models.BreakerEvent) {
		events = append(events, ev)
	}))

	r.Trip(models.BreakerVolatility, "AAPL", "spike")
	r.Reset(models.BreakerVolatility, "AAPL")

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if !events[0].Active || events[1].Active {
		t.Fatalf("event activity sequence wrong: %+v", events)
	}
}
