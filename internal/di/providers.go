package di

import (
	"context"
	"fmt"
	"time"

	"StockMind/internal/domain/repository"
	domservice "StockMind/internal/domain/service"
	"StockMind/internal/handler/api"
	mid "StockMind/internal/middleware"
	internalrepo "StockMind/internal/repository"
	"StockMind/internal/scheduler"
	"StockMind/internal/service/gemini"
	"StockMind/internal/service/newsapi"
	"StockMind/internal/service/sentiment"
	"StockMind/internal/service/stream"
	"StockMind/internal/service/yahoo"
	"StockMind/internal/services/forecast"
	"StockMind/internal/services/indicators"
	"StockMind/internal/usecase"
	pkgcache "StockMind/pkg/cache"
	pkgch "StockMind/pkg/clickhouse"
	"StockMind/pkg/config"
	pkgkafka "StockMind/pkg/kafka"
	applogger "StockMind/pkg/logger"
	"StockMind/pkg/metrics"
	"StockMind/pkg/queue"
	"StockMind/pkg/server"
)

// ProvideLogger creates the zerolog-backed application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	log, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return log, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and applies the
// schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.SchemaStatements(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideRedisCache creates the Redis cache layer. Returns nil when
// Redis is disabled, everything downstream degrades to in-process.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix("stockmind"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideCache picks layered memory+Redis when Redis is up, memory only
// otherwise.
func ProvideCache(rc *pkgcache.RedisCache) pkgcache.Service {
	if rc != nil {
		return pkgcache.NewLayeredCache(rc)
	}
	return pkgcache.NewMemoryCache()
}

// ProvideMarketStore creates the ClickHouse symbol and bar store.
func ProvideMarketStore(chClient *pkgch.Client, log *applogger.Logger) repository.MarketStore {
	store := internalrepo.NewCHMarketStore(chClient)
	store.SetLogger(log)
	return store
}

// ProvideResultStore creates the ClickHouse store for derived data.
func ProvideResultStore(chClient *pkgch.Client, log *applogger.Logger) repository.ResultStore {
	store := internalrepo.NewCHResultStore(chClient)
	store.SetLogger(log)
	return store
}

// ProvideKafkaProducer creates a Kafka producer, nil when Kafka is
// disabled.
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

// ProvidePublisher creates the market event publisher, nil without a
// producer.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.EventsTopic)
}

// ProvideKafkaConsumer creates a Kafka consumer when both Kafka and its
// consumer side are enabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideQuoteProvider creates the Yahoo Finance client.
func ProvideQuoteProvider(cfg *config.Config) domservice.QuoteProvider {
	return yahoo.New(cfg)
}

// ProvideIndicatorBackend probes the fast backend against the portable
// reference at startup and keeps whichever is safe.
func ProvideIndicatorBackend(log *applogger.Logger) indicators.Backend {
	return indicators.Probe(log, indicators.NewFastBackend(), indicators.NewPortableBackend())
}

// ProvideForecaster builds the drift forecaster from the configured
// horizons.
func ProvideForecaster(cfg *config.Config) *forecast.Forecaster {
	return forecast.New([]forecast.Horizon{
		{Name: "short", Days: cfg.Forecast.ShortHorizon},
		{Name: "medium", Days: cfg.Forecast.MediumHorizon},
		{Name: "long", Days: cfg.Forecast.LongHorizon},
	})
}

// ProvideBatchRunner creates the shared worker pool for scheduled
// tasks.
func ProvideBatchRunner(cfg *config.Config, m repository.Metrics, log *applogger.Logger) *usecase.BatchRunner {
	return usecase.NewBatchRunner(cfg.Batch.Workers, cfg.Batch.UnitTimeout, m, log)
}

// ProvideResolver creates the symbol resolver use case.
func ProvideResolver(store repository.MarketStore, provider domservice.QuoteProvider,
	c pkgcache.Service, m repository.Metrics, log *applogger.Logger) *usecase.Resolver {
	return usecase.NewResolver(store, provider, c, m, log)
}

// ProvideFetcher creates the market data fetcher use case.
func ProvideFetcher(provider domservice.QuoteProvider, store repository.MarketStore,
	c pkgcache.Service, pub repository.Publisher, m repository.Metrics, log *applogger.Logger) *usecase.Fetcher {
	return usecase.NewFetcher(provider, store, c, pub, m, log)
}

// ProvideIndicatorService creates the indicator engine use case.
func ProvideIndicatorService(store repository.MarketStore, results repository.ResultStore,
	backend indicators.Backend, pub repository.Publisher, runner *usecase.BatchRunner,
	log *applogger.Logger) *usecase.IndicatorService {
	return usecase.NewIndicatorService(store, results, backend, pub, runner, log)
}

// ProvideScanner creates the market scanner use case.
func ProvideScanner(store repository.MarketStore, results repository.ResultStore,
	pub repository.Publisher, runner *usecase.BatchRunner, cfg *config.Config,
	log *applogger.Logger) *usecase.Scanner {
	return usecase.NewScanner(store, results, pub, runner, usecase.ScannerConfig{
		GainerThreshold:    cfg.Scanner.GainerThreshold,
		LoserThreshold:     cfg.Scanner.LoserThreshold,
		UnusualVolumeRatio: cfg.Scanner.UnusualVolumeRatio,
		BreakoutThreshold:  cfg.Scanner.BreakoutThreshold,
		AvgVolumeSessions:  cfg.Scanner.AvgVolumeSessions,
	}, log)
}

// ProvideForecastService creates the forecast use case.
func ProvideForecastService(store repository.MarketStore, results repository.ResultStore,
	pub repository.Publisher, fc *forecast.Forecaster, cfg *config.Config,
	runner *usecase.BatchRunner, log *applogger.Logger) *usecase.ForecastService {
	return usecase.NewForecastService(store, results, pub, fc, cfg.Forecast.MinBars, runner, log)
}

// ProvideNewsSentiment wires the news pipeline. The model analyzer is
// optional, the lexicon fallback always works.
func ProvideNewsSentiment(cfg *config.Config, results repository.ResultStore, pub repository.Publisher,
	runner *usecase.BatchRunner, m repository.Metrics, log *applogger.Logger) *usecase.NewsSentimentService {
	var model domservice.SentimentAnalyzer
	if cfg.Sentiment.APIKey != "" {
		model = gemini.New(cfg)
	}
	return usecase.NewNewsSentimentService(
		newsapi.New(cfg),
		model,
		sentiment.NewLexicon(),
		results,
		pub,
		runner,
		cfg.News.DaysBack,
		cfg.News.PageSize,
		m,
		log,
	)
}

// ProvideCleanupService creates the symbol cleanup use case.
func ProvideCleanupService(store repository.MarketStore, provider domservice.QuoteProvider,
	c pkgcache.Service, runner *usecase.BatchRunner, log *applogger.Logger) *usecase.CleanupService {
	return usecase.NewCleanupService(store, provider, c, runner, log)
}

// ProvideTickProcessor creates the tick to session bar folder.
func ProvideTickProcessor(store repository.MarketStore, m repository.Metrics) *usecase.TickProcessor {
	return usecase.NewTickProcessor(store, m)
}

// ProvideStreamCollector creates the realtime tick collector, nil when
// the stream is disabled.
func ProvideStreamCollector(cfg *config.Config, proc *usecase.TickProcessor,
	m repository.Metrics) *usecase.StreamCollector {
	if !cfg.Stream.Enabled {
		return nil
	}
	src := stream.New(cfg.Stream.APIKey, cfg.Stream.URL, cfg.Symbols,
		cfg.Stream.ReconnectDelay, cfg.Stream.PingInterval)
	pipe := mid.NewIngestPipeline(proc, m,
		mid.WithMaxRPS(cfg.Stream.MaxRPS),
		mid.WithBufferSize(cfg.Stream.BufferSize),
	)
	return usecase.NewStreamCollector(src, proc, m, pipe)
}

// ProvideTicksHandler creates the handler for the raw ticks topic.
func ProvideTicksHandler(cfg *config.Config, proc *usecase.TickProcessor,
	m repository.Metrics) pkgkafka.MessageHandler {
	return usecase.NewKafkaTicksHandler(cfg.Kafka.TicksTopic, proc, m)
}

// ProvideJobQueue creates the Redis-backed job queue with every
// scheduled task registered. Nil without Redis, the scheduler then runs
// tasks inline.
func ProvideJobQueue(cfg *config.Config, log *applogger.Logger, rc *pkgcache.RedisCache,
	quotes *scheduler.QuotesJob, inds *scheduler.IndicatorsJob, scan *scheduler.ScanJob,
	fc *scheduler.ForecastJob, news *scheduler.NewsJob, cleanup *scheduler.CleanupJob) *queue.RedisQueue {
	if rc == nil {
		return nil
	}
	jobs := []queue.Job{quotes, inds, scan, fc, news, cleanup}
	return queue.NewRedisConsumer(log, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, rc.Client(), jobs)
}

// ProvideScheduler creates the cron scheduler with every task bound to
// its configured expression.
func ProvideScheduler(cfg *config.Config, jobQueue *queue.RedisQueue, store repository.MarketStore,
	log *applogger.Logger, quotes *scheduler.QuotesJob, inds *scheduler.IndicatorsJob,
	scan *scheduler.ScanJob, fc *scheduler.ForecastJob, news *scheduler.NewsJob,
	cleanup *scheduler.CleanupJob) (*scheduler.Scheduler, error) {
	sched := scheduler.New(jobQueue, store, cfg.Symbols, cfg.Batch.MaxSymbols, log)
	err := sched.RegisterAll(scheduler.Schedules{
		Quotes:     cfg.Schedule.Quotes,
		Indicators: cfg.Schedule.Indicators,
		ScanDaily:  cfg.Schedule.ScanDaily,
		ScanWeekly: cfg.Schedule.ScanWeekly,
		Forecast:   cfg.Schedule.Forecast,
		News:       cfg.Schedule.News,
		Cleanup:    cfg.Schedule.Cleanup,
	}, quotes, inds, scan, fc, news, cleanup)
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	return sched, nil
}

// ProvideMarketHandler creates the HTTP handler.
func ProvideMarketHandler(log *applogger.Logger, resolver *usecase.Resolver, fetcher *usecase.Fetcher,
	inds *usecase.IndicatorService, scanner *usecase.Scanner, fc *usecase.ForecastService,
	news *usecase.NewsSentimentService) *api.MarketHandler {
	return api.NewMarketHandler(log, resolver, fetcher, inds, scanner, fc, news)
}

// ProvideApp assembles the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	sched *scheduler.Scheduler,
	jobQueue *queue.RedisQueue,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	streamCollector *usecase.StreamCollector,
	chClient *pkgch.Client,
	handler *api.MarketHandler,
) *server.App {
	app := server.New(cfg, log, sched, jobQueue, consumer, kh, streamCollector, chClient)
	app.SetHTTPHandler(handler)
	return app
}
