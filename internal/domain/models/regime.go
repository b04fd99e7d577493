package models

// VolatilityRegime classifies annualized volatility into a fixed severity band.
// The bands are contiguous and exhaustive: every non-negative volatility value
// maps to exactly one regime.
type VolatilityRegime int

const (
	RegimeLow VolatilityRegime = iota
	RegimeNormal
	RegimeHigh
	RegimeExtreme
)

// Band boundaries in annualized volatility percent.
const (
	RegimeLowUpper    = 15.0
	RegimeNormalUpper = 25.0
	RegimeHighUpper   = 40.0
)

func (r VolatilityRegime) String() string {
	switch r {
	case RegimeLow:
		return "LOW"
	case RegimeNormal:
		return "NORMAL"
	case RegimeHigh:
		return "HIGH"
	case RegimeExtreme:
		return "EXTREME"
	default:
		return "UNKNOWN"
	}
}

// ClassifyVolatility maps an annualized volatility percent to its regime band.
func ClassifyVolatility(pct float64) VolatilityRegime {
	switch {
	case pct < RegimeLowUpper:
		return RegimeLow
	case pct < RegimeNormalUpper:
		return RegimeNormal
	case pct < RegimeHighUpper:
		return RegimeHigh
	default:
		return RegimeExtreme
	}
}

// ParseVolatilityRegime converts a wire name to a regime. Unrecognized input
// falls back to NORMAL, the middle band.
func ParseVolatilityRegime(s string) VolatilityRegime {
	switch s {
	case "LOW":
		return RegimeLow
	case "NORMAL":
		return RegimeNormal
	case "HIGH":
		return RegimeHigh
	case "EXTREME":
		return RegimeExtreme
	default:
		return RegimeNormal
	}
}

func (r VolatilityRegime) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *VolatilityRegime) UnmarshalText(b []byte) error {
	*r = ParseVolatilityRegime(string(b))
	return nil
}
