//go:build wireinject
// +build wireinject

package di

import (
	"RiskGate/pkg/config"
	"RiskGate/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisClient,

		// Repositories
		ProvideAuditStore,
		ProvideEventPublisher,
		ProvideMarketStream,

		// Risk services
		ProvideConditionDetector,
		ProvideClassifier,
		ProvideOptimizer,
		ProvideBreakerRegistry,

		// Use cases
		ProvideWindowBuilder,
		ProvideTradeEvaluator,
		ProvideStreamCollector,
		ProvideBreakerCommandsHandler,
		ProvideAuditSnapshotter,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
