package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"RiskGate/internal/domain/models"
	"RiskGate/internal/domain/repository"
	domsvc "RiskGate/internal/domain/service"
	mid "RiskGate/internal/middleware"
	internalrepo "RiskGate/internal/repository"
	icache "RiskGate/internal/service/cache"
	"RiskGate/internal/service/marketdata"
	"RiskGate/internal/services/analytics"
	"RiskGate/internal/services/risk"
	"RiskGate/internal/usecase"
	pkgcache "RiskGate/pkg/cache"
	pkgch "RiskGate/pkg/clickhouse"
	"RiskGate/pkg/config"
	pkgkafka "RiskGate/pkg/kafka"
	applogger "RiskGate/pkg/logger"
	"RiskGate/pkg/metrics"
	"RiskGate/pkg/queue"
	"RiskGate/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	format := "json"
	if cfg.Environment == "development" {
		level = "debug"
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client, nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideAuditStore creates the breaker audit store, nil without ClickHouse.
func ProvideAuditStore(chClient *pkgch.Client) (repository.AuditStore, error) {
	if chClient == nil {
		return nil, nil
	}
	store := internalrepo.NewClickHouseAuditStore(chClient, "risk_breaker_audit")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("audit store init: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer, nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPublisher creates the breaker event publisher, nil without Kafka.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.EventsTopic)
}

// ProvideKafkaConsumer creates the breaker commands consumer, nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Commands.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Commands.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Commands.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Commands.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Commands.RetryMax, cfg.Kafka.Commands.BackoffMin, cfg.Kafka.Commands.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Commands.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Commands.MinBytes, cfg.Kafka.Commands.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideRedisClient creates a redis client, nil when disabled.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideMarketStream creates the WebSocket market stream.
func ProvideMarketStream(cfg *config.Config, l *applogger.Logger) repository.MarketStream {
	return marketdata.New(
		cfg.Stream.APIKey,
		cfg.Stream.WebSocketURL,
		cfg.Stream.Symbols,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
		marketdata.WithClientLogger(l),
	)
}

// ProvideConditionDetector picks the trend detector: an HTTP sidecar client
// or the local heuristic, with a short per-symbol cache in front of either.
func ProvideConditionDetector(cfg *config.Config, rdb *redis.Client) domsvc.ConditionDetector {
	var inner domsvc.ConditionDetector
	if cfg.Trend.Mode == "http" {
		inner = analytics.NewHTTPConditionDetector(cfg)
	} else {
		inner = analytics.NewLocalConditionDetector()
	}

	var store icache.BytesCache
	if rdb != nil {
		store = icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	} else {
		store = icache.NewTTLCache()
	}
	return analytics.NewCachedConditionDetector(inner, store, cfg.Trend.CacheTTL)
}

// ProvideClassifier creates the volatility classifier.
func ProvideClassifier(cfg *config.Config, l *applogger.Logger) *risk.VolatilityClassifier {
	opts := []risk.ClassifierOption{risk.WithClassifierLogger(l)}
	if cfg.Risk.Lookback > 0 {
		opts = append(opts, risk.WithLookback(cfg.Risk.Lookback))
	}
	if cfg.Risk.BlendWeight > 0 {
		opts = append(opts, risk.WithBlendWeight(cfg.Risk.BlendWeight))
	}
	if cfg.Risk.NearExtremePct > 0 {
		opts = append(opts, risk.WithNearExtremeThreshold(cfg.Risk.NearExtremePct))
	}
	return risk.NewVolatilityClassifier(opts...)
}

// ProvideOptimizer creates the parameter optimizer.
func ProvideOptimizer(classifier *risk.VolatilityClassifier, detector domsvc.ConditionDetector, cfg *config.Config, l *applogger.Logger) *risk.ParameterOptimizer {
	opts := []risk.OptimizerOption{
		risk.WithOptimizerLogger(l),
		risk.WithOnlineLearning(cfg.Risk.OnlineLearning),
	}
	if cfg.Risk.AdaptationSpeed > 0 {
		opts = append(opts, risk.WithAdaptationSpeed(cfg.Risk.AdaptationSpeed))
	}
	if cfg.Risk.HistoryWindow > 0 {
		opts = append(opts, risk.WithHistoryWindow(cfg.Risk.HistoryWindow))
	}
	return risk.NewParameterOptimizer(classifier, detector, opts...)
}

// ProvideBreakerRegistry creates the breaker registry, wired to publish
// transitions to the event bus when one is configured.
func ProvideBreakerRegistry(publisher repository.EventPublisher, mt repository.Metrics, l *applogger.Logger) *risk.BreakerRegistry {
	opts := []risk.RegistryOption{risk.WithRegistryLogger(l)}
	if publisher != nil {
		opts = append(opts, risk.WithEventSink(func(ev models.BreakerEvent) {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := publisher.PublishEvent(ctx, &ev); err != nil {
					mt.RecordError("event_publish")
					l.Warn("publish breaker event", applogger.Error(err))
				}
			}()
		}))
	}
	return risk.NewBreakerRegistry(opts...)
}

// ProvideWindowBuilder creates the rolling window builder.
func ProvideWindowBuilder(cfg *config.Config) *usecase.WindowBuilder {
	return usecase.NewWindowBuilder(cfg.Risk.WindowSize)
}

// ProvideTradeEvaluator creates the evaluation use case.
func ProvideTradeEvaluator(
	optimizer *risk.ParameterOptimizer,
	registry *risk.BreakerRegistry,
	windows *usecase.WindowBuilder,
	mt repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.TradeEvaluator {
	return usecase.NewTradeEvaluator(optimizer, registry, windows, mt,
		usecase.WithReferenceSymbol(cfg.Stream.ReferenceIndex),
		usecase.WithEvaluatorLogger(l),
	)
}

// ProvideStreamCollector creates the stream collector with its pipeline.
func ProvideStreamCollector(
	stream repository.MarketStream,
	evaluator *usecase.TradeEvaluator,
	windows *usecase.WindowBuilder,
	mt repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.StreamCollector {
	ingestorOpts := []usecase.IngestorOption{usecase.WithIngestorLogger(l)}
	if cfg.Risk.EvaluationInterval > 0 {
		ingestorOpts = append(ingestorOpts, usecase.WithEvaluationInterval(cfg.Risk.EvaluationInterval))
	}
	if cfg.Risk.WindowSize > 0 {
		ingestorOpts = append(ingestorOpts, usecase.WithEvaluationWindow(cfg.Risk.WindowSize))
	}
	ingestor := usecase.NewTickIngestor(windows, evaluator, mt, ingestorOpts...)

	pipe := mid.NewRealtimePipeline(ingestor, mt,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewStreamCollector(stream, ingestor, mt, pipe)
}

// ProvideBreakerCommandsHandler registers the handler for the commands topic.
func ProvideBreakerCommandsHandler(evaluator *usecase.TradeEvaluator, mt repository.Metrics, cfg *config.Config, l *applogger.Logger) *usecase.BreakerCommandsHandler {
	return usecase.NewBreakerCommandsHandler(cfg.Kafka.Commands.Topic, evaluator, mt, l)
}

// ProvideAuditSnapshotter builds the snapshot loop plus its queue pair.
// Returns nils when auditing is disabled or its dependencies are missing.
func ProvideAuditSnapshotter(
	registry *risk.BreakerRegistry,
	store repository.AuditStore,
	rdb *redis.Client,
	mt repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) (*usecase.AuditSnapshotter, *server.AuditQueues) {
	if !cfg.Audit.Enabled || store == nil || rdb == nil {
		return nil, nil
	}

	workers := cfg.Audit.Workers
	if workers <= 0 {
		workers = 2
	}
	consumer := queue.NewRedisConsumer(l, &queue.QueueConfig{
		Workers:    workers,
		QueueSize:  256,
		RetryLimit: 3,
		RetryDelay: 5 * time.Second,
	}, rdb, []queue.Job{usecase.NewAuditSnapshotJob(store, l)}, queue.WithKeyPrefix("riskgate"))

	publisher := queue.NewRedisPublisher(l, rdb, queue.WithKeyPrefix("riskgate"))

	// The leader lock rides on the cache layer. When the redis cache cannot
	// be reached the lock degrades to in-process, which only matters when the
	// service runs scaled out.
	var locker pkgcache.Service
	host, port := splitRedisAddr(cfg.Redis.Addr)
	lockCache, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		l.Warn("audit lock cache unavailable, using in-process lock", applogger.Error(err))
		locker = pkgcache.NewMemoryCache()
	} else {
		locker = lockCache
	}

	snapshotter := usecase.NewAuditSnapshotter(registry, publisher, locker, mt, l,
		usecase.WithSnapshotInterval(cfg.Audit.Interval),
		usecase.WithLockTTL(cfg.Audit.LockTTL),
	)
	return snapshotter, &server.AuditQueues{Publisher: publisher, Consumer: consumer}
}

// splitRedisAddr splits "host:port" with sane fallbacks.
func splitRedisAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "localhost", 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.StreamCollector,
	evaluator *usecase.TradeEvaluator,
	consumer *pkgkafka.Consumer,
	commands *usecase.BreakerCommandsHandler,
	chClient *pkgch.Client,
	publisher repository.EventPublisher,
	snapshotter *usecase.AuditSnapshotter,
	queues *server.AuditQueues,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	return server.New(cfg, l, collector, evaluator, consumer, commands, chClient, publisher, snapshotter, queues)
}
