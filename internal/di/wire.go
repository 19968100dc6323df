//go:build wireinject
// +build wireinject

package di

import (
	"Zephyr/pkg/config"
	"Zephyr/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideTickStorage,
		ProvideQuotePublisher,
		ProvideSnapshotStore,
		ProvideQuoteStream,
		ProvidePolymarketClient,
		ProvideKalshiClient,
		ProvideForecaster,
		ProvideQuoteCache,
		ProvidePaperExecutor,
		ProvideUniverse,
		ProvideRiskConfig,

		// Use cases
		ProvideQuoteProcessor,
		ProvideQuoteCollector,
		ProvideKafkaQuotesHandler,
		ProvideSnapshotLogger,
		ProvideSignalService,
		ProvideBacktestService,

		// HTTP and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
