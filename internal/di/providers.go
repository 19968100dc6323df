package di

import (
	"context"
	"fmt"
	"time"

	"Zephyr/internal/domain/models"
	"Zephyr/internal/domain/repository"
	domsvc "Zephyr/internal/domain/service"
	"Zephyr/internal/execution"
	"Zephyr/internal/forecast/gefs"
	"Zephyr/internal/handler/api"
	"Zephyr/internal/market"
	mid "Zephyr/internal/middleware"
	internalrepo "Zephyr/internal/repository"
	"Zephyr/internal/risk"
	"Zephyr/internal/service/cache"
	"Zephyr/internal/service/polymarket"
	"Zephyr/internal/usecase"
	pkgch "Zephyr/pkg/clickhouse"
	"Zephyr/pkg/config"
	xhttp "Zephyr/pkg/http"
	pkgkafka "Zephyr/pkg/kafka"
	applogger "Zephyr/pkg/logger"
	"Zephyr/pkg/metrics"
	"Zephyr/pkg/server"

	kafkago "github.com/segmentio/kafka-go"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client and runs the schema.
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ddl := []string{fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", cfg.ClickHouse.Database)}
	ddl = append(ddl, internalrepo.SnapshotSchema()...)
	ddl = append(ddl, internalrepo.TickSchema()...)
	if err := client.InitSchema(ctx, ddl); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
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

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideTickStorage creates ClickHouse tick storage.
func ProvideTickStorage(chClient *pkgch.Client, cfg *config.Config) repository.TickStorage {
	table := cfg.ClickHouse.Database + ".quote_ticks"
	return internalrepo.NewClickHouseTickStorage(chClient.DB(), table, "polymarket")
}

// ProvideQuotePublisher creates the Kafka tick publisher.
func ProvideQuotePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaQuotePublisher(producer, cfg.Kafka.Topic)
}

// ProvideSnapshotStore creates the ClickHouse snapshot store.
func ProvideSnapshotStore(chClient *pkgch.Client) repository.SnapshotStore {
	return internalrepo.NewClickHouseSnapshotStore(chClient.DB())
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
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

// ProvideKafkaQuotesHandler registers the handler for the ticks topic.
func ProvideKafkaQuotesHandler(store repository.TickStorage, m repository.Metrics, cfg *config.Config) *usecase.KafkaQuotesHandler {
	return usecase.NewKafkaQuotesHandler(cfg.Kafka.Topic, store, m)
}

// ProvideQuoteStream creates the Polymarket CLOB WebSocket stream.
func ProvideQuoteStream(cfg *config.Config, l *applogger.Logger) repository.QuoteStream {
	return polymarket.New(
		cfg.Polymarket.WebSocketURL,
		cfg.Polymarket.AssetIDs,
		cfg.Polymarket.ReconnectDelay,
		cfg.Polymarket.PingInterval,
		l,
	)
}

// ProvideQuoteProcessor creates the tick routing use case.
func ProvideQuoteProcessor(
	pub repository.Publisher,
	store repository.TickStorage,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.QuoteProcessor {
	return usecase.NewQuoteProcessor(pub, store, m, cfg.Backend.Type)
}

// ProvideQuoteCollector creates the streaming collector.
func ProvideQuoteCollector(
	stream repository.QuoteStream,
	processor *usecase.QuoteProcessor,
	m repository.Metrics,
) *usecase.QuoteCollector {
	pipe := mid.NewQuotePipeline(processor, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewQuoteCollector(stream, processor, m, pipe)
}

// ProvideForecaster creates the GEFS OPeNDAP forecaster.
func ProvideForecaster(cfg *config.Config, m repository.Metrics, l *applogger.Logger) domsvc.Forecaster {
	opts := []gefs.ClientOption{
		gefs.WithLogger(l),
		gefs.WithMetrics(m),
	}
	if cfg.GEFS.BaseURL != "" {
		opts = append(opts, gefs.WithBaseURL(cfg.GEFS.BaseURL))
	}
	if cfg.GEFS.RequestTimeout > 0 {
		opts = append(opts, gefs.WithFetchTimeout(cfg.GEFS.RequestTimeout))
	}
	return gefs.NewClient(opts...)
}

// ProvidePolymarketClient creates the Gamma REST client.
func ProvidePolymarketClient(cfg *config.Config, l *applogger.Logger) *market.PolymarketClient {
	opts := []market.PolymarketOption{market.WithPolymarketLogger(l)}
	if cfg.Polymarket.GammaBaseURL != "" {
		opts = append(opts, market.WithPolymarketBaseURL(cfg.Polymarket.GammaBaseURL))
	}
	return market.NewPolymarketClient(opts...)
}

// ProvideKalshiClient creates the Kalshi REST client.
func ProvideKalshiClient(cfg *config.Config, l *applogger.Logger) *market.KalshiClient {
	opts := []market.KalshiOption{market.WithKalshiLogger(l)}
	if cfg.Kalshi.BaseURL != "" {
		opts = append(opts, market.WithKalshiBaseURL(cfg.Kalshi.BaseURL))
	}
	return market.NewKalshiClient(opts...)
}

// ProvideUniverse maps the config universe into the selection filters.
func ProvideUniverse(cfg *config.Config) market.UniverseConfig {
	cities := make([]models.CitySpec, 0, len(cfg.Universe.Cities))
	for _, c := range cfg.Universe.Cities {
		cities = append(cities, models.CitySpec{
			Label:    c.Label,
			Name:     c.Name,
			Aliases:  c.Aliases,
			Lat:      c.Lat,
			Lon:      c.Lon,
			Timezone: c.Timezone,
		})
	}
	return market.UniverseConfig{
		Cities:              cities,
		MinVolumeUSD:        cfg.Universe.MinVolumeUSD,
		WindowDaysMin:       cfg.Universe.WindowDaysMin,
		WindowDaysMax:       cfg.Universe.WindowDaysMax,
		MaxMarkets:          cfg.Universe.MaxMarkets,
		SupportedEventTypes: cfg.Universe.EventTypes,
		YesLabel:            cfg.Universe.YesLabel,
	}
}

// ProvideSnapshotLogger creates the discovery and snapshot pass.
func ProvideSnapshotLogger(
	pm *market.PolymarketClient,
	forecaster domsvc.Forecaster,
	store repository.SnapshotStore,
	m repository.Metrics,
	l *applogger.Logger,
	universe market.UniverseConfig,
	cfg *config.Config,
) *usecase.SnapshotLogger {
	return usecase.NewSnapshotLogger(pm, forecaster, store, m, l, universe, 0, 0, cfg.GEFS.LookbackDays)
}

// ProvideQuoteCache picks Redis when configured, in-process TTL otherwise.
func ProvideQuoteCache(cfg *config.Config) cache.BytesCache {
	if cfg.Cache.Redis.Enabled {
		return cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	}
	return cache.NewTTLCache()
}

// ProvidePaperExecutor creates the CSV paper trading ledger.
func ProvidePaperExecutor(cfg *config.Config, l *applogger.Logger) (*execution.PaperExecutor, error) {
	return execution.NewPaperExecutor(cfg.Paper.LedgerPath, execution.WithPaperLogger(l))
}

// ProvideRiskConfig maps config risk limits onto the sizer.
func ProvideRiskConfig(cfg *config.Config) risk.Config {
	rc := risk.DefaultConfig()
	if cfg.Risk.MaxFractionPerContract > 0 {
		rc.MaxFractionPerContract = cfg.Risk.MaxFractionPerContract
	}
	if cfg.Risk.KellyScale > 0 {
		rc.KellyScale = cfg.Risk.KellyScale
	}
	if cfg.Risk.MinFractionIfTrade > 0 {
		rc.MinFractionIfTrade = cfg.Risk.MinFractionIfTrade
	}
	return rc
}

// ProvideSignalService creates the live signal use case.
func ProvideSignalService(
	forecaster domsvc.Forecaster,
	pm *market.PolymarketClient,
	kalshi *market.KalshiClient,
	executor *execution.PaperExecutor,
	quoteCache cache.BytesCache,
	riskCfg risk.Config,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.SignalService {
	return usecase.NewSignalService(
		forecaster,
		&market.PolymarketQuoteFetcher{Client: pm, YesLabel: cfg.Universe.YesLabel},
		&market.KalshiQuoteFetcher{Client: kalshi},
		executor,
		quoteCache,
		cfg.Cache.QuoteTTL,
		riskCfg,
		m,
		l,
	)
}

// ProvideBacktestService creates the replay use case.
func ProvideBacktestService(store repository.SnapshotStore, riskCfg risk.Config, l *applogger.Logger) *usecase.BacktestService {
	return usecase.NewBacktestService(store, riskCfg, l)
}

// ProvideHTTPHandler creates the Echo route group.
func ProvideHTTPHandler(
	l *applogger.Logger,
	forecaster domsvc.Forecaster,
	signals *usecase.SignalService,
	backtests *usecase.BacktestService,
	snapshots *usecase.SnapshotLogger,
) xhttp.Handler {
	return api.NewWeatherEchoHandler(l, forecaster, signals, backtests, snapshots)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.QuoteCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaQuotesHandler,
	chClient *pkgch.Client,
	l *applogger.Logger,
	handler xhttp.Handler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(consumerHooks(l))
	}
	app := server.New(cfg, collector, consumer, kh, chClient, l)
	app.SetHTTPHandler(handler)
	if collector != nil {
		app.QuoteProc = collector.Processor()
	}
	return app
}

// consumerHooks stamps start time and trace id on each message and logs
// handler failures before they reach the DLQ.
func consumerHooks(l *applogger.Logger) pkgkafka.ConsumerHook {
	return pkgkafka.NewHookChain(pkgkafka.HookFuncs{
		Before: func(ctx context.Context, topic string, km kafkago.Message, data []byte) (context.Context, kafkago.Message, []byte, error) {
			ctx = pkgkafka.WithStartTime(ctx, time.Now())
			ctx = pkgkafka.WithTraceID(ctx, pkgkafka.ExtractTraceID(km))
			return ctx, km, data, nil
		},
		Err: func(ctx context.Context, topic string, km kafkago.Message, data []byte, err error) {
			if l == nil {
				return
			}
			l.Warn("consumer message failed",
				applogger.String("topic", topic),
				applogger.Int("partition", km.Partition),
				applogger.Error(err),
			)
		},
	})
}
