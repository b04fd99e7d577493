package usecase

import (
	"sync"
	"time"

	"RiskGate/internal/domain/models"
)

// DefaultWindowSize bounds the per-symbol rolling price window.
const DefaultWindowSize = 256

// WindowBuilder folds the tick stream into per-symbol rolling price windows.
// Ticks inside the same second replace the previous close, so the window is
// a one-second close series rather than raw trades.
type WindowBuilder struct {
	mu      sync.RWMutex
	size    int
	windows map[string]models.PriceWindow
}

// NewWindowBuilder creates a builder with the given window size.
func NewWindowBuilder(size int) *WindowBuilder {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &WindowBuilder{
		size:    size,
		windows: make(map[string]models.PriceWindow),
	}
}

// Add folds one tick into its symbol's window.
func (b *WindowBuilder) Add(t *models.Tick) {
	if t == nil || t.Symbol == "" || t.Price <= 0 {
		return
	}
	ts := time.Unix(t.Timestamp, 0).UTC().Truncate(time.Second)

	b.mu.Lock()
	defer b.mu.Unlock()

	w := b.windows[t.Symbol]
	if n := len(w); n > 0 && w[n-1].Timestamp.Equal(ts) {
		w[n-1].Close = t.Price
	} else {
		w = append(w, models.PricePoint{Timestamp: ts, Close: t.Price})
		if len(w) > b.size {
			w = w[len(w)-b.size:]
		}
	}
	b.windows[t.Symbol] = w
}

// Window returns a copy of the symbol's window, newest last.
func (b *WindowBuilder) Window(symbol string) models.PriceWindow {
	b.mu.RLock()
	defer b.mu.RUnlock()
	w := b.windows[symbol]
	out := make(models.PriceWindow, len(w))
	copy(out, w)
	return out
}

// Tail returns a copy of the last n points of the symbol's window.
func (b *WindowBuilder) Tail(symbol string, n int) models.PriceWindow {
	w := b.Window(symbol)
	if n > 0 && len(w) > n {
		w = w[len(w)-n:]
	}
	return w
}

// Symbols lists symbols with at least one recorded point.
func (b *WindowBuilder) Symbols() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.windows))
	for s := range b.windows {
		out = append(out, s)
	}
	return out
}

// Len reports the current window length for a symbol.
func (b *WindowBuilder) Len(symbol string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.windows[symbol])
}
