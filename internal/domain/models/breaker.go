package models

import "time"

// BreakerType is an independent category of safety trigger. Each type is
// tripped and reset separately per scope.
type BreakerType int

const (
	BreakerMarket BreakerType = iota
	BreakerTechnical
	BreakerVolatility
	BreakerAnomaly
	BreakerLiquidity
	BreakerExchange
	BreakerAPIError
	BreakerCustom
)

func (t BreakerType) String() string {
	switch t {
	case BreakerMarket:
		return "MARKET"
	case BreakerTechnical:
		return "TECHNICAL"
	case BreakerVolatility:
		return "VOLATILITY"
	case BreakerAnomaly:
		return "ANOMALY"
	case BreakerLiquidity:
		return "LIQUIDITY"
	case BreakerExchange:
		return "EXCHANGE"
	case BreakerAPIError:
		return "API_ERROR"
	case BreakerCustom:
		return "CUSTOM"
	default:
		return "CUSTOM"
	}
}

// ParseBreakerType converts a wire name to a type; unrecognized names map to
// CUSTOM so externally submitted trips are never silently dropped.
func ParseBreakerType(s string) BreakerType {
	switch s {
	case "MARKET":
		return BreakerMarket
	case "TECHNICAL":
		return BreakerTechnical
	case "VOLATILITY":
		return BreakerVolatility
	case "ANOMALY":
		return BreakerAnomaly
	case "LIQUIDITY":
		return BreakerLiquidity
	case "EXCHANGE":
		return BreakerExchange
	case "API_ERROR":
		return BreakerAPIError
	default:
		return BreakerCustom
	}
}

func (t BreakerType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *BreakerType) UnmarshalText(b []byte) error {
	*t = ParseBreakerType(string(b))
	return nil
}

// BreakerStatus is the state of one breaker, totally ordered by severity:
// CLOSED < CAUTIOUS < RESTRICTED < OPEN. Higher severity never yields a larger
// position-sizing multiplier than lower severity.
type BreakerStatus int

const (
	StatusClosed BreakerStatus = iota
	StatusCautious
	StatusRestricted
	StatusOpen
)

func (s BreakerStatus) String() string {
	switch s {
	case StatusClosed:
		return "CLOSED"
	case StatusCautious:
		return "CAUTIOUS"
	case StatusRestricted:
		return "RESTRICTED"
	case StatusOpen:
		return "OPEN"
	default:
		return "CLOSED"
	}
}

// Severity exposes the total order for comparisons and audit output.
func (s BreakerStatus) Severity() int { return int(s) }

// ParseBreakerStatus converts a wire name to a status; unrecognized input
// maps to CLOSED, the unrestricted state.
func ParseBreakerStatus(s string) BreakerStatus {
	switch s {
	case "CAUTIOUS":
		return StatusCautious
	case "RESTRICTED":
		return StatusRestricted
	case "OPEN":
		return StatusOpen
	default:
		return StatusClosed
	}
}

func (s BreakerStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *BreakerStatus) UnmarshalText(b []byte) error {
	*s = ParseBreakerStatus(string(b))
	return nil
}

// BreakerRecord is the live state of one (type, scope) breaker. A record is
// created on first trip and mutated in place afterwards; reset only flips
// Active to false so the history of the last trip survives for audit.
type BreakerRecord struct {
	Type       BreakerType    `json:"type"`
	Scope      string         `json:"scope"`
	Status     BreakerStatus  `json:"status"`
	Reason     string         `json:"reason"`
	TrippedAt  time.Time      `json:"tripped_at"`
	ResetAfter *time.Duration `json:"reset_after,omitempty"` // advisory only
	Active     bool           `json:"active"`
}

// BreakerEvent is published on every breaker transition so downstream
// consumers (dashboards, the execution pipeline) can react without polling.
type BreakerEvent struct {
	Type      BreakerType   `json:"type"`
	Scope     string        `json:"scope"`
	Status    BreakerStatus `json:"status"`
	Reason    string        `json:"reason"`
	Active    bool          `json:"active"`
	Timestamp time.Time     `json:"timestamp"`
}
