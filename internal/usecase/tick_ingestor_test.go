package usecase

import (
	"context"
	"testing"

	"RiskGate/internal/domain/models"
)

func TestIngestorIgnoresInvalidTicks(t *testing.T) {
	windows := NewWindowBuilder(16)
	ing := NewTickIngestor(windows, nil, nil)

	if err := ing.Process(context.Background(), nil); err != nil {
		t.Fatalf("nil tick: %v", err)
	}
	if err := ing.Process(context.Background(), &models.Tick{Price: 100, Timestamp: 1}); err != nil {
		t.Fatalf("empty symbol: %v", err)
	}
	if got := windows.Len("AAPL"); got != 0 {
		t.Fatalf("window grew to %d from invalid ticks", got)
	}
}

func TestIngestorFoldsTickIntoWindow(t *testing.T) {
	windows := NewWindowBuilder(16)
	ing := NewTickIngestor(windows, nil, nil)

	if err := ing.Process(context.Background(), tick("AAPL", 1, 101.5)); err != nil {
		t.Fatalf("process: %v", err)
	}
	w := windows.Window("AAPL")
	if len(w) != 1 || w[0].Close != 101.5 {
		t.Fatalf("unexpected window %+v", w)
	}
}
