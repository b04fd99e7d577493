package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"RiskGate/internal/domain/repository"
	"RiskGate/internal/handler/api"
	icache "RiskGate/internal/service/cache"
	"RiskGate/internal/usecase"
	pkgch "RiskGate/pkg/clickhouse"
	"RiskGate/pkg/config"
	xhttp "RiskGate/pkg/http"
	pkgkafka "RiskGate/pkg/kafka"
	applogger "RiskGate/pkg/logger"
	"RiskGate/pkg/queue"
)

// AuditQueues is the redis queue pair behind the audit snapshotter: the
// publisher side enqueues breaker snapshots, the consumer side drains them
// into the audit store.
type AuditQueues struct {
	Publisher *queue.RedisQueue
	Consumer  *queue.RedisQueue
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	collector   *usecase.StreamCollector
	evaluator   *usecase.TradeEvaluator
	consumer    *pkgkafka.Consumer
	commands    pkgkafka.MessageHandler
	chClient    *pkgch.Client
	publisher   repository.EventPublisher
	snapshotter *usecase.AuditSnapshotter
	queues      *AuditQueues
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	collector *usecase.StreamCollector,
	evaluator *usecase.TradeEvaluator,
	consumer *pkgkafka.Consumer,
	commands *usecase.BreakerCommandsHandler,
	chClient *pkgch.Client,
	publisher repository.EventPublisher,
	snapshotter *usecase.AuditSnapshotter,
	queues *AuditQueues,
) *App {
	a := &App{
		cfg:         cfg,
		logger:      logger,
		collector:   collector,
		evaluator:   evaluator,
		consumer:    consumer,
		chClient:    chClient,
		publisher:   publisher,
		snapshotter: snapshotter,
		queues:      queues,
	}
	if commands != nil {
		a.commands = commands
	}
	return a
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger

	// Setup Echo HTTP server with the risk routes
	httpHandler := a.httpHandler
	if httpHandler == nil {
		rh := api.NewRiskEchoHandler(l, a.evaluator)
		rh.SetCache(icache.NewTTLCache())
		httpHandler = rh
	}

	a.httpServer = xhttp.NewServer(httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start the audit queue pair and the snapshot loop
	if a.queues != nil {
		if err := a.queues.Consumer.Start(); err != nil {
			l.Error("audit queue consumer start error", applogger.Error(err))
			return err
		}
		a.queues.Consumer.StartRetryProcessor()
		if err := a.queues.Publisher.Start(); err != nil {
			l.Error("audit queue publisher start error", applogger.Error(err))
			return err
		}
	}
	if a.snapshotter != nil {
		go a.snapshotter.Run(ctx)
		l.Info("audit snapshotter started")
	}

	// Start the market data collector
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	l.Info("collector started", applogger.Strings("symbols", a.cfg.Stream.Symbols))

	// Start the breaker commands consumer if configured
	if a.consumer != nil && a.commands != nil {
		a.consumer.RegisterHandler(a.commands)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("breaker commands consumer started", applogger.String("topic", a.commands.Topic()))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.logger
	l.Info("shutting down...")

	// Stop the collector first so no new ticks arrive
	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop the commands consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Drain the audit queues
	if a.queues != nil {
		if err := a.queues.Publisher.Stop(shutdownCtx); err != nil {
			l.Warn("audit queue publisher stop error", applogger.Error(err))
		}
		if err := a.queues.Consumer.Stop(shutdownCtx); err != nil {
			l.Warn("audit queue consumer stop error", applogger.Error(err))
		}
	}

	// Close the event publisher (flushes the Kafka producer)
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			l.Warn("event publisher close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
