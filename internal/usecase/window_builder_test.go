package usecase

import (
	"testing"
	"time"

	"RiskGate/internal/domain/models"
)

func tick(symbol string, ts int64, price float64) *models.Tick {
	return &models.Tick{Symbol: symbol, Timestamp: ts, Price: price, Volume: 1}
}

func TestWindowBuilderFoldsPerSecond(t *testing.T) {
	b := NewWindowBuilder(10)
	base := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC).Unix()

	b.Add(tick("AAPL", base, 100))
	b.Add(tick("AAPL", base, 100.5)) // same second replaces the close
	b.Add(tick("AAPL", base+1, 101))

	w := b.Window("AAPL")
	if len(w) != 2 {
		t.Fatalf("expected 2 points, got %d", len(w))
	}
	if w[0].Close != 100.5 || w[1].Close != 101 {
		t.Fatalf("unexpected closes: %v %v", w[0].Close, w[1].Close)
	}
}

func TestWindowBuilderCapsSize(t *testing.T) {
	b := NewWindowBuilder(5)
	base := time.Now().UTC().Truncate(time.Second).Unix()
	for i := 0; i < 20; i++ {
		b.Add(tick("AAPL", base+int64(i), 100+float64(i)))
	}
	w := b.Window("AAPL")
	if len(w) != 5 {
		t.Fatalf("expected window capped at 5, got %d", len(w))
	}
	if w[4].Close != 119 {
		t.Fatalf("newest close must survive the cap, got %v", w[4].Close)
	}
}

func TestWindowBuilderTail(t *testing.T) {
	b := NewWindowBuilder(50)
	base := time.Now().UTC().Truncate(time.Second).Unix()
	for i := 0; i < 30; i++ {
		b.Add(tick("AAPL", base+int64(i), 100+float64(i)))
	}
	tail := b.Tail("AAPL", 10)
	if len(tail) != 10 {
		t.Fatalf("expected 10 points, got %d", len(tail))
	}
	if tail[9].Close != 129 {
		t.Fatalf("tail must end at the newest point, got %v", tail[9].Close)
	}
}

func TestWindowBuilderIgnoresBadTicks(t *testing.T) {
	b := NewWindowBuilder(10)
	b.Add(nil)
	b.Add(tick("", 100, 1))
	b.Add(tick("AAPL", 100, 0))
	if got := b.Len("AAPL"); got != 0 {
		t.Fatalf("bad ticks must be ignored, got %d points", got)
	}
}

func TestWindowBuilderCopyIsolation(t *testing.T) {
	b := NewWindowBuilder(10)
	base := time.Now().UTC().Truncate(time.Second).Unix()
	b.Add(tick("AAPL", base, 100))

	w := b.Window("AAPL")
	w[0].Close = 999

	if got := b.Window("AAPL")[0].Close; got != 100 {
		t.Fatalf("caller mutation leaked into the builder: %v", got)
	}
}
