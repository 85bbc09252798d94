package di

import (
	"context"
	"fmt"
	"time"

	"SignalDesk/internal/domain/repository"
	"SignalDesk/internal/handler/api"
	internalrepo "SignalDesk/internal/repository"
	"SignalDesk/internal/service/jupiter"
	"SignalDesk/internal/service/ratelimit"
	"SignalDesk/internal/service/solana"
	"SignalDesk/internal/service/stream"
	"SignalDesk/internal/usecase"
	"SignalDesk/pkg/cache"
	pkgch "SignalDesk/pkg/clickhouse"
	"SignalDesk/pkg/config"
	xhttp "SignalDesk/pkg/http"
	pkgkafka "SignalDesk/pkg/kafka"
	applogger "SignalDesk/pkg/logger"
	"SignalDesk/pkg/metrics"
	pkgpg "SignalDesk/pkg/postgres"
	"SignalDesk/pkg/server"
)

// ProvideLogger builds the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:           cfg.Log.Level,
		Format:          cfg.Log.Format,
		Output:          cfg.Log.Output,
		CollectWarnings: cfg.Log.Collect.Warnings,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New()
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled. When log
// collection is on, aggregated errors are shipped through the same producer.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, error) {
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

	if cfg.Log.Collect.Enabled {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Log.Collect.Interval,
			CountThreshold: cfg.Log.Collect.Threshold,
			Topic:          cfg.Log.Collect.Topic,
			Publisher:      producer,
		})
	}
	return producer, nil
}

// ProvideRedisCache connects to Redis when the store or the quote cache needs it; nil otherwise.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if cfg.Store.Backend != config.BackendRedis && cfg.Jupiter.QuoteCache != "redis" {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
		cache.WithRedisPingTimeout(cfg.Redis.PingTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rc, nil
}

// ProvideSignalStore opens the configured backend and prepares its schema.
func ProvideSignalStore(cfg *config.Config, l *applogger.Logger, rc *cache.RedisCache) (repository.SignalStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cfg.Store.Backend {
	case config.BackendMemory:
		return internalrepo.NewMemorySignalStore(cfg.Store.Capacity), nil

	case config.BackendPostgres:
		client, err := pkgpg.NewClient(ctx,
			pkgpg.WithDSN(cfg.Postgres.DSN),
			pkgpg.WithPoolSize(cfg.Postgres.MaxConns, cfg.Postgres.MinConns),
			pkgpg.WithMaxConnLifetime(cfg.Postgres.MaxConnLifetime),
			pkgpg.WithConnectTimeout(cfg.Postgres.ConnectTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("postgres client: %w", err)
		}
		store := internalrepo.NewPostgresSignalStore(client)
		store.SetLogger(l)
		if err := store.Init(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		return store, nil

	case config.BackendClickHouse:
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithCompression(cfg.ClickHouse.Compress),
			pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}
		store := internalrepo.NewClickHouseSignalStore(client)
		store.SetLogger(l)
		if err := store.Init(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		return store, nil

	case config.BackendRedis:
		if rc == nil {
			return nil, fmt.Errorf("redis store: no redis connection")
		}
		return internalrepo.NewRedisSignalStore(rc.Client(), cfg.Redis.Prefix, cfg.Store.Capacity), nil
	}
	return nil, fmt.Errorf("%w: %s", repository.ErrUnknownBackend, cfg.Store.Backend)
}

// ProvidePublisher announces created signals on Kafka, or does nothing when Kafka is off.
func ProvidePublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.Publisher {
	if producer == nil {
		return internalrepo.NopPublisher{}
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topics.Created)
}

// ProvideStreamHub creates the websocket hub, or nil when streaming is disabled.
func ProvideStreamHub(cfg *config.Config, l *applogger.Logger) *stream.Hub {
	if !cfg.Stream.Enabled {
		return nil
	}
	h := stream.NewHub(
		stream.WithSendBuffer(cfg.Stream.SendBuffer),
		stream.WithPingInterval(cfg.Stream.PingInterval),
	)
	h.SetLogger(l)
	return h
}

// ProvideSignalService creates the ingestion use case.
func ProvideSignalService(
	cfg *config.Config,
	store repository.SignalStore,
	m repository.Metrics,
	pub repository.Publisher,
	hub *stream.Hub,
	l *applogger.Logger,
) *usecase.SignalService {
	opts := []usecase.ServiceOption{
		usecase.WithPublisher(pub),
		usecase.WithListLimit(cfg.Store.ListLimit),
	}
	if hub != nil {
		opts = append(opts, usecase.WithBroadcaster(hub))
	}
	svc := usecase.NewSignalService(store, m, cfg.Store.Backend, opts...)
	svc.SetLogger(l)
	return svc
}

// ProvideIngestHandler routes the ingest topic into the signal service.
func ProvideIngestHandler(cfg *config.Config, svc *usecase.SignalService, m repository.Metrics, l *applogger.Logger) *usecase.SignalIngestHandler {
	h := usecase.NewSignalIngestHandler(cfg.Kafka.Topics.Ingest, svc, m)
	h.SetLogger(l)
	return h
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML, or nil when Kafka is off.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerStartOffset(cfg.Kafka.Consumer.StartOffset),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.SetLogger(l)
	consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.TraceHook{}, pkgkafka.LoggingHook{L: l, Slow: time.Second}))
	return consumer, nil
}

// ProvideQuoteCache picks the short-lived quote cache.
func ProvideQuoteCache(cfg *config.Config, rc *cache.RedisCache) cache.BytesCache {
	switch cfg.Jupiter.QuoteCache {
	case "memory":
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(1000))
	case "redis":
		return cache.NewLayeredCache(rc, cache.WithLayeredMemoryTTL(cfg.Jupiter.QuoteTTL))
	}
	return nil
}

// ProvideJupiterClient creates the aggregator client.
func ProvideJupiterClient(cfg *config.Config, qc cache.BytesCache, m repository.Metrics, l *applogger.Logger) *jupiter.Client {
	c := jupiter.New(
		jupiter.WithBaseURL(cfg.Jupiter.BaseURL),
		jupiter.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.Jupiter.Timeout))),
		jupiter.WithRateLimit(cfg.Jupiter.RateLimit, cfg.Jupiter.Burst),
		jupiter.WithQuoteCache(qc, cfg.Jupiter.QuoteTTL),
		jupiter.WithMetrics(m),
	)
	c.SetLogger(l)
	return c
}

// ProvideSolanaClient creates the RPC client used for submission.
func ProvideSolanaClient(cfg *config.Config, l *applogger.Logger) *solana.Client {
	c := solana.NewClient(
		solana.WithURL(cfg.Solana.RPCURL),
		solana.WithCommitment(cfg.Solana.Commitment),
		solana.WithPollInterval(cfg.Solana.PollInterval),
	)
	c.SetLogger(l)
	return c
}

// ProvideRateLimiter creates the per-client limiter for the quick-buy endpoints.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if cfg.RateLimit.PerSecond <= 0 {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst, cfg.RateLimit.Idle)
}

// ProvideSignalsHandler creates the ingestion/listing HTTP handler.
func ProvideSignalsHandler(svc *usecase.SignalService, hub *stream.Hub, l *applogger.Logger) *api.SignalsHandler {
	var ss api.StreamServer
	if hub != nil {
		ss = hub
	}
	h := api.NewSignalsHandler(svc, ss)
	h.SetLogger(l)
	return h
}

// ProvideQuoteHandler creates the quick-buy HTTP handler.
func ProvideQuoteHandler(
	cfg *config.Config,
	jc *jupiter.Client,
	sc *solana.Client,
	lim *ratelimit.Limiter,
	l *applogger.Logger,
) *api.QuoteHandler {
	var sub api.Submitter
	if cfg.Solana.SubmitEnabled {
		sub = sc
	}
	timeout := cfg.Solana.ConfirmTimeout
	if cfg.Jupiter.Timeout > timeout {
		timeout = cfg.Jupiter.Timeout
	}
	h := api.NewQuoteHandler(jc, sub, lim, timeout)
	h.SetLogger(l)
	return h
}

// ProvideHTTPServer builds the Echo server with every handler registered.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, sh *api.SignalsHandler, qh *api.QuoteHandler) *xhttp.Server {
	return xhttp.NewServer([]xhttp.Handler{sh, qh},
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetrics(cfg.Metrics.Enabled, cfg.Metrics.SlowThreshold),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server and registers shutdown order.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	ingest *usecase.SignalIngestHandler,
	store repository.SignalStore,
	producer *pkgkafka.Producer,
	hub *stream.Hub,
	rc *cache.RedisCache,
	qc cache.BytesCache,
) *server.App {
	var mh pkgkafka.MessageHandler
	if consumer != nil {
		mh = ingest
	}
	app := server.New(cfg, l, srv, consumer, mh)

	if rc != nil {
		app.OnShutdown(server.Closer{Name: "redis", Close: rc.Close})
	}
	if producer != nil {
		app.OnShutdown(server.Closer{Name: "kafka producer", Close: func() error {
			l.RemoveCollector()
			return producer.Close()
		}})
	}
	app.OnShutdown(server.Closer{Name: "signal store", Close: store.Close})
	// a redis-backed quote cache shares the redis client closed above
	if qc != nil && cfg.Jupiter.QuoteCache == "memory" {
		app.OnShutdown(server.Closer{Name: "quote cache", Close: qc.Close})
	}
	if hub != nil {
		app.OnShutdown(server.Closer{Name: "stream hub", Close: hub.Close})
	}
	return app
}
