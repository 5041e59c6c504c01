package di

import (
	"fmt"

	"HemoPulse/internal/domain/repository"
	domsvc "HemoPulse/internal/domain/service"
	"HemoPulse/internal/handler/api"
	"HemoPulse/internal/handler/ws"
	mid "HemoPulse/internal/middleware"
	internalrepo "HemoPulse/internal/repository"
	"HemoPulse/internal/services/demand"
	"HemoPulse/internal/usecase"
	"HemoPulse/pkg/cache"
	"HemoPulse/pkg/config"
	pkgkafka "HemoPulse/pkg/kafka"
	applogger "HemoPulse/pkg/logger"
	"HemoPulse/pkg/metrics"
	pkgqueue "HemoPulse/pkg/queue"
	"HemoPulse/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the response cache. With Redis enabled the cache is
// layered (memory in front of Redis), otherwise it is in-process only.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if cfg.Cache.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Cache.Redis.Addr),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return cache.NewLayeredCache(redisCache), nil
	}
	return cache.NewMemoryCache(cache.WithMemoryDefaultTTL(cfg.Cache.TTL)), nil
}

// ProvideKafkaProducer creates a Kafka producer when anything publishes
// through it. Returns nil when neither snapshots nor logs go to Kafka.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Publisher.Type != "kafka" && !cfg.LogShipping.Enabled {
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

// ProvideSnapshotStore creates the in-memory snapshot store.
func ProvideSnapshotStore() repository.SnapshotStore {
	return internalrepo.NewMemorySnapshotStore()
}

// ProvideSnapshotPublisher picks the publisher backend from config.
func ProvideSnapshotPublisher(cfg *config.Config, producer *pkgkafka.Producer) (repository.SnapshotPublisher, error) {
	switch cfg.Publisher.Type {
	case "kafka":
		if producer == nil {
			return nil, fmt.Errorf("kafka publisher requires a producer")
		}
		return internalrepo.NewKafkaSnapshotPublisher(producer, cfg.Kafka.Topic), nil
	case "webhook":
		return internalrepo.NewWebhookSnapshotPublisher(cfg.Publisher.WebhookURL, cfg.Publisher.Timeout, cfg.Publisher.RetryMax), nil
	default:
		return internalrepo.NewNoopPublisher(), nil
	}
}

// ProvideGenerator creates the demand history source.
func ProvideGenerator(cfg *config.Config) domsvc.HistorySource {
	return demand.NewGenerator(
		demand.WithDays(cfg.Demand.HistoryDays),
		demand.WithShape(cfg.Demand.Baseline, cfg.Demand.SeasonalAmp, cfg.Demand.TrendSlope, cfg.Demand.NoiseAmp),
		demand.WithSeed(cfg.Demand.Seed),
	)
}

// ProvideForecaster creates the demand forecaster.
func ProvideForecaster(cfg *config.Config) domsvc.Forecaster {
	return demand.NewForecaster(
		demand.WithLookback(cfg.Demand.Lookback),
		demand.WithHorizon(cfg.Demand.Horizon),
		demand.WithFitConfig(demand.FitConfig{
			Epochs:       cfg.Training.Epochs,
			LearningRate: cfg.Training.LearningRate,
		}),
	)
}

// ProvideEventHub creates the run event hub for live subscribers.
func ProvideEventHub(m repository.Metrics) *mid.EventHub {
	return mid.NewEventHub(m)
}

// ProvideSnapshotUseCase creates the snapshot use case.
func ProvideSnapshotUseCase(
	source domsvc.HistorySource,
	fc domsvc.Forecaster,
	store repository.SnapshotStore,
	pub repository.SnapshotPublisher,
	m repository.Metrics,
	hub *mid.EventHub,
) *usecase.SnapshotUseCase {
	return usecase.NewSnapshotUseCase(source, fc, store, pub, m, hub)
}

// ProvideDemandHandler creates the HTTP API handler.
func ProvideDemandHandler(
	logger *applogger.Logger,
	snapshots *usecase.SnapshotUseCase,
	store cache.Service,
	jobs *pkgqueue.RedisQueue,
	cfg *config.Config,
) *api.DemandEchoHandler {
	// A nil *RedisQueue must become a nil interface, not a typed nil.
	var jobSvc pkgqueue.QueueService
	if jobs != nil {
		jobSvc = jobs
	}
	return api.NewDemandEchoHandler(
		logger,
		snapshots,
		store,
		jobSvc,
		cfg.RateLimit.RefreshCapacity,
		cfg.RateLimit.RefreshRefill,
		cfg.Cache.TTL,
	)
}

// ProvideLiveHandler creates the websocket handler.
func ProvideLiveHandler(logger *applogger.Logger, hub *mid.EventHub) *ws.LiveHandler {
	return ws.NewLiveHandler(logger, hub)
}

// ProvideQueue creates the Redis-backed job queue when enabled.
func ProvideQueue(
    cfg *config.Config,
    logger *applogger.Logger,
    snapshots *usecase.SnapshotUseCase,
) (*pkgqueue.RedisQueue, error) {
    if !cfg.Queue.Enabled {
        return nil, nil
    }
    addr := cfg.Cache.Redis.Addr
    if addr == "" {
        addr = "localhost:6379"
    }
    client := redis.NewClient(&redis.Options{
        Addr:     addr,
        Password: cfg.Cache.Redis.Password,
        DB:       cfg.Cache.Redis.DB,
    })
    q := pkgqueue.NewRedisQueue(logger, &pkgqueue.QueueConfig{
        Workers:    cfg.Queue.Workers,
        RetryLimit: cfg.Queue.RetryLimit,
        RetryDelay: cfg.Queue.RetryDelay,
    }, client)
    q.RegisterJob(usecase.NewRebuildJob(snapshots))
    return q, nil
}

// ProvideApp creates the application server.
func ProvideApp(
    cfg *config.Config,
    logger *applogger.Logger,
    snapshots *usecase.SnapshotUseCase,
    hub *mid.EventHub,
    store cache.Service,
    jobs *pkgqueue.RedisQueue,
    producer *pkgkafka.Producer,
    apiHandler *api.DemandEchoHandler,
    wsHandler *ws.LiveHandler,
) *server.App {
    return server.New(cfg, logger, snapshots, hub, store, jobs, producer, apiHandler, wsHandler)
}
