package models

// MarketCondition is a trend-plus-volatility label produced by a companion
// trend detector. The risk core consumes it only as a policy lookup key.
type MarketCondition int

const (
	ConditionUnknown MarketCondition = iota
	ConditionBullTrending
	ConditionBullVolatile
	ConditionBearTrending
	ConditionBearVolatile
	ConditionRangeBound
	ConditionRangeVolatile
)

func (c MarketCondition) String() string {
	switch c {
	case ConditionBullTrending:
		return "BULL_TRENDING"
	case ConditionBullVolatile:
		return "BULL_VOLATILE"
	case ConditionBearTrending:
		return "BEAR_TRENDING"
	case ConditionBearVolatile:
		return "BEAR_VOLATILE"
	case ConditionRangeBound:
		return "RANGE_BOUND"
	case ConditionRangeVolatile:
		return "RANGE_VOLATILE"
	default:
		return "UNKNOWN"
	}
}

// ParseMarketCondition converts a wire name to a condition. Anything
// unrecognized maps to ConditionUnknown, which policy lookups treat as
// "use the regime-only row".
func ParseMarketCondition(s string) MarketCondition {
	switch s {
	case "BULL_TRENDING":
		return ConditionBullTrending
	case "BULL_VOLATILE":
		return ConditionBullVolatile
	case "BEAR_TRENDING":
		return ConditionBearTrending
	case "BEAR_VOLATILE":
		return ConditionBearVolatile
	case "RANGE_BOUND":
		return ConditionRangeBound
	case "RANGE_VOLATILE":
		return ConditionRangeVolatile
	default:
		return ConditionUnknown
	}
}

func (c MarketCondition) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *MarketCondition) UnmarshalText(b []byte) error {
	*c = ParseMarketCondition(string(b))
	return nil
}
