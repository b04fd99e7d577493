package models

import "time"

// Tick is a single trade print from the market-data stream.
type Tick struct {
	Symbol    string
	Timestamp int64 // unix seconds
	Price     float64
	Volume    float64
}

// PricePoint is one observation of a caller-owned price series.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Close     float64   `json:"close"`
}

// PriceWindow is an ordered close-price history. The risk core treats it as
// a read-only input; it never mutates or retains the slice.
type PriceWindow []PricePoint

// Closes returns the close values in order.
func (w PriceWindow) Closes() []float64 {
	out := make([]float64, len(w))
	for i, p := range w {
		out[i] = p.Close
	}
	return out
}

// Latest returns the most recent point and true, or a zero point and false
// for an empty window.
func (w PriceWindow) Latest() (PricePoint, bool) {
	if len(w) == 0 {
		return PricePoint{}, false
	}
	return w[len(w)-1], true
}
