package features

import (
	"math"

	"RiskGate/internal/domain/models"
)

// TradingDaysPerYear is the annualization base for daily close series.
const TradingDaysPerYear = 252

// ComputeSimpleReturns computes r_t = C_t/C_{t-1} - 1 from consecutive closes.
// It returns a slice of length len(window)-1, or nil if insufficient data.
func ComputeSimpleReturns(window models.PriceWindow) []float64 {
	if len(window) < 2 {
		return nil
	}
	out := make([]float64, 0, len(window)-1)
	for i := 1; i < len(window); i++ {
		prev := window[i-1].Close
		cur := window[i].Close
		if prev <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, cur/prev-1)
	}
	return out
}

// AnnualizedVolatilityPercent computes the sample standard deviation of the
// most recent `lookback` returns, annualized by sqrt(252) and scaled to
// percent. Fewer returns than the lookback use all of them.
func AnnualizedVolatilityPercent(returns []float64, lookback int) float64 {
	n := len(returns)
	if n < 2 {
		return 0
	}
	if lookback > 0 && n > lookback {
		returns = returns[n-lookback:]
		n = lookback
	}
	sum := 0.0
	sum2 := 0.0
	for _, r := range returns {
		sum += r
		sum2 += r * r
	}
	fn := float64(n)
	mean := sum / fn
	variance := (sum2 - fn*mean*mean) / (fn - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance) * math.Sqrt(TradingDaysPerYear) * 100
}

// SlopePercent returns the relative change between the first and last close
// of the window, a cheap trend proxy for the local condition heuristic.
func SlopePercent(window models.PriceWindow) float64 {
	if len(window) < 2 {
		return 0
	}
	first := window[0].Close
	last := window[len(window)-1].Close
	if first <= 0 {
		return 0
	}
	return (last/first - 1) * 100
}
