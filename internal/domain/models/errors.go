package models

import "errors"

// ErrInsufficientData is returned when a price window holds fewer than two
// points, so no return can be computed. Not recoverable locally; it must
// propagate to the caller.
var ErrInsufficientData = errors.New("insufficient price data")
