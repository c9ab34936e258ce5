//go:build wireinject
// +build wireinject

package di

import (
	"StockMind/internal/scheduler"
	"StockMind/pkg/config"
	"StockMind/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient infrastructure
		ProvideLogger,
		ProvideMetrics,
		ProvideClickHouseClient,
		ProvideRedisCache,
		ProvideCache,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideMarketStore,
		ProvideResultStore,
		ProvidePublisher,

		// Domain services
		ProvideQuoteProvider,
		ProvideIndicatorBackend,
		ProvideForecaster,

		// Use cases
		ProvideBatchRunner,
		ProvideResolver,
		ProvideFetcher,
		ProvideIndicatorService,
		ProvideScanner,
		ProvideForecastService,
		ProvideNewsSentiment,
		ProvideCleanupService,
		ProvideTickProcessor,
		ProvideStreamCollector,
		ProvideTicksHandler,

		// Scheduled jobs
		scheduler.NewQuotesJob,
		scheduler.NewIndicatorsJob,
		scheduler.NewScanJob,
		scheduler.NewForecastJob,
		scheduler.NewNewsJob,
		scheduler.NewCleanupJob,
		ProvideJobQueue,
		ProvideScheduler,

		// HTTP and application server
		ProvideMarketHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
