package usecase

import (
	"context"
	"sync"
	"time"

	"RiskGate/internal/domain/models"
	drepo "RiskGate/internal/domain/repository"
	applogger "RiskGate/pkg/logger"
)

// TickIngestor is the downstream processor of the realtime pipeline. It folds
// each tick into the window builder and re-evaluates the symbol at most once
// per evaluation interval, so the breaker registry tracks the stream without
// an evaluation per tick.
type TickIngestor struct {
	windows   *WindowBuilder
	evaluator *TradeEvaluator
	metrics   drepo.Metrics
	logger    *applogger.Logger

	interval  time.Duration
	evalN     int
	mu        sync.Mutex
	lastEvals map[string]time.Time
}

// IngestorOption configures TickIngestor.
type IngestorOption func(*TickIngestor)

// WithEvaluationInterval sets the per-symbol re-evaluation cadence.
func WithEvaluationInterval(d time.Duration) IngestorOption {
	return func(i *TickIngestor) {
		if d > 0 {
			i.interval = d
		}
	}
}

// WithEvaluationWindow sets how many points each evaluation consumes.
func WithEvaluationWindow(n int) IngestorOption {
	return func(i *TickIngestor) {
		if n > 0 {
			i.evalN = n
		}
	}
}

// WithIngestorLogger injects a structured logger.
func WithIngestorLogger(l *applogger.Logger) IngestorOption {
	return func(i *TickIngestor) { i.logger = l }
}

// NewTickIngestor creates the pipeline processor.
func NewTickIngestor(windows *WindowBuilder, evaluator *TradeEvaluator, metrics drepo.Metrics, opts ...IngestorOption) *TickIngestor {
	i := &TickIngestor{
		windows:   windows,
		evaluator: evaluator,
		metrics:   metrics,
		interval:  5 * time.Second,
		evalN:     120,
		lastEvals: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Process folds one tick and re-evaluates the symbol when due.
func (i *TickIngestor) Process(ctx context.Context, t *models.Tick) error {
	if t == nil || t.Symbol == "" {
		return nil
	}
	i.windows.Add(t)
	if i.metrics != nil {
		i.metrics.RecordLastPrice(t.Symbol, t.Price)
	}

	if i.evaluator == nil || !i.due(t.Symbol) {
		return nil
	}
	if _, err := i.evaluator.Evaluate(ctx, t.Symbol, i.evalN); err != nil {
		// Short windows are expected at startup; everything else is logged
		// and absorbed so one symbol cannot stall the stream.
		if i.logger != nil {
			i.logger.Debug("stream evaluation skipped",
				applogger.String("symbol", t.Symbol), applogger.Error(err))
		}
	}
	return nil
}

func (i *TickIngestor) due(symbol string) bool {
	now := time.Now()
	i.mu.Lock()
	defer i.mu.Unlock()
	if last, ok := i.lastEvals[symbol]; ok && now.Sub(last) < i.interval {
		return false
	}
	i.lastEvals[symbol] = now
	return true
}
