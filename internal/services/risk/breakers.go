package risk

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"RiskGate/internal/domain/models"
	applogger "RiskGate/pkg/logger"
)

// DefaultScope is the registry-wide key used when a trip or check names no
// symbol.
const DefaultScope = "global"

type breakerKey struct {
	Type  models.BreakerType
	Scope string
}

// BreakerRegistry tracks one state machine per (breaker type, scope). It is
// explicitly constructed and injectable - no package-level state - so each
// portfolio or test gets its own isolated registry.
type BreakerRegistry struct {
	mu      sync.RWMutex
	records map[breakerKey]*models.BreakerRecord
	now     func() time.Time
	logger  *applogger.Logger
	onEvent func(models.BreakerEvent)
}

// RegistryOption configures BreakerRegistry.
type RegistryOption func(*BreakerRegistry)

// WithRegistryLogger injects a structured logger.
func WithRegistryLogger(l *applogger.Logger) RegistryOption {
	return func(r *BreakerRegistry) { r.logger = l }
}

// WithClock overrides the time source, for deterministic tests.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *BreakerRegistry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithEventSink registers a callback invoked on every state transition. The
// callback runs outside the registry lock and must not call back in.
func WithEventSink(fn func(models.BreakerEvent)) RegistryOption {
	return func(r *BreakerRegistry) { r.onEvent = fn }
}

// NewBreakerRegistry creates an empty registry.
func NewBreakerRegistry(opts ...RegistryOption) *BreakerRegistry {
	r := &BreakerRegistry{
		records: make(map[breakerKey]*models.BreakerRecord),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TripOption configures a single Trip call.
type TripOption func(*tripConfig)

type tripConfig struct {
	status     models.BreakerStatus
	resetAfter *time.Duration
}

// WithStatus trips into an explicit status instead of the default OPEN.
func WithStatus(s models.BreakerStatus) TripOption {
	return func(c *tripConfig) { c.status = s }
}

// WithResetAfter records an advisory reset duration on the record. The
// registry never auto-resets; the duration is surfaced for operators.
func WithResetAfter(d time.Duration) TripOption {
	return func(c *tripConfig) {
		if d > 0 {
			c.resetAfter = &d
		}
	}
}

func normalizeScope(scope string) string {
	if scope == "" {
		return DefaultScope
	}
	return scope
}

// Trip forces the (type, scope) record into an elevated status, OPEN unless
// overridden. Re-tripping an existing key updates reason and timestamp in
// place; a key never accumulates more than one record.
func (r *BreakerRegistry) Trip(btype models.BreakerType, scope, reason string, opts ...TripOption) models.BreakerRecord {
	cfg := tripConfig{status: models.StatusOpen}
	for _, opt := range opts {
		opt(&cfg)
	}
	scope = normalizeScope(scope)
	key := breakerKey{Type: btype, Scope: scope}

	r.mu.Lock()
	rec, ok := r.records[key]
	if !ok {
		rec = &models.BreakerRecord{Type: btype, Scope: scope}
		r.records[key] = rec
	}
	rec.Status = cfg.status
	rec.Reason = reason
	rec.TrippedAt = r.now()
	rec.ResetAfter = cfg.resetAfter
	rec.Active = true
	out := *rec
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.Warn("breaker tripped",
			applogger.String("type", btype.String()),
			applogger.String("scope", scope),
			applogger.String("status", out.Status.String()),
			applogger.String("reason", reason))
	}
	r.emit(out)
	return out
}

// Reset deactivates the (type, scope) record, keeping it for audit. Returns
// false without side effects when no record exists.
func (r *BreakerRegistry) Reset(btype models.BreakerType, scope string) bool {
	scope = normalizeScope(scope)
	key := breakerKey{Type: btype, Scope: scope}

	r.mu.Lock()
	rec, ok := r.records[key]
	if !ok {
		r.mu.Unlock()
		return false
	}
	rec.Active = false
	out := *rec
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.Info("breaker reset",
			applogger.String("type", btype.String()),
			applogger.String("scope", scope))
	}
	r.emit(out)
	return true
}

// ResetAll deactivates every tracked record. Used for operational recovery
// and test isolation.
func (r *BreakerRegistry) ResetAll() {
	r.mu.Lock()
	outs := make([]models.BreakerRecord, 0, len(r.records))
	for _, rec := range r.records {
		if rec.Active {
			rec.Active = false
			outs = append(outs, *rec)
		}
	}
	r.mu.Unlock()

	for _, out := range outs {
		r.emit(out)
	}
}

// ProcessVolatility converts a volatility classification into a breaker
// transition for the scope and returns the immediate sizing multiplier for
// that reading. The mapping is fixed:
//
//	LOW     -> (false, CLOSED,     1.0)
//	NORMAL  -> (true,  CAUTIOUS,   1.0)
//	HIGH    -> (true,  RESTRICTED, 0.5)
//	EXTREME -> (true,  OPEN,       0.25)
//
// Repeated calls for the same (scope, level) converge to a single record with
// stable status.
func (r *BreakerRegistry) ProcessVolatility(level models.VolatilityRegime, value float64, scope string) (bool, models.BreakerStatus, float64) {
	var (
		status     models.BreakerStatus
		multiplier float64
	)
	switch level {
	case models.RegimeLow:
		status, multiplier = models.StatusClosed, 1.0
	case models.RegimeNormal:
		status, multiplier = models.StatusCautious, 1.0
	case models.RegimeHigh:
		status, multiplier = models.StatusRestricted, 0.5
	case models.RegimeExtreme:
		status, multiplier = models.StatusOpen, 0.25
	default:
		status, multiplier = models.StatusCautious, 1.0
	}

	if status == models.StatusClosed {
		// A calm reading clears any prior volatility trip for the scope.
		r.Reset(models.BreakerVolatility, scope)
		return false, models.StatusClosed, multiplier
	}

	reason := fmt.Sprintf("volatility %s at %.1f%%", level, value)
	r.Trip(models.BreakerVolatility, scope, reason, WithStatus(status))
	return true, status, multiplier
}

// Check reports whether trading is allowed for the (type, scope) breaker.
// Only OPEN blocks; CAUTIOUS and RESTRICTED permit trading and leave size
// reduction to the position-sizing path. Absent or inactive records count as
// CLOSED.
func (r *BreakerRegistry) Check(btype models.BreakerType, scope string) (bool, models.BreakerStatus) {
	scope = normalizeScope(scope)

	r.mu.RLock()
	rec, ok := r.records[breakerKey{Type: btype, Scope: scope}]
	var status models.BreakerStatus
	if ok && rec.Active {
		status = rec.Status
	}
	r.mu.RUnlock()

	return status != models.StatusOpen, status
}

// Status returns a snapshot of every active record, ordered by type then
// scope for stable audit output.
func (r *BreakerRegistry) Status() []models.BreakerRecord {
	r.mu.RLock()
	out := make([]models.BreakerRecord, 0, len(r.records))
	for _, rec := range r.records {
		if rec.Active {
			out = append(out, *rec)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Scope < out[j].Scope
	})
	return out
}

// Records returns every record including reset ones, ordered like Status.
// Reset records keep their trip history, which is what the audit trail wants.
func (r *BreakerRegistry) Records() []models.BreakerRecord {
	r.mu.RLock()
	out := make([]models.BreakerRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Scope < out[j].Scope
	})
	return out
}

func (r *BreakerRegistry) emit(rec models.BreakerRecord) {
	if r.onEvent == nil {
		return
	}
	r.onEvent(models.BreakerEvent{
		Type:      rec.Type,
		Scope:     rec.Scope,
		Status:    rec.Status,
		Reason:    rec.Reason,
		Active:    rec.Active,
		Timestamp: r.now(),
	})
}
