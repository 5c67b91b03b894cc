package factory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"soc-audit/internal/client"
	"soc-audit/internal/config"
	"soc-audit/internal/detect"
	"soc-audit/internal/engine"
	"soc-audit/internal/repository/clickhouse"
	"soc-audit/internal/repository/elastic"
	"soc-audit/internal/repository/redis"
	"soc-audit/internal/service"
	"soc-audit/internal/util"
)

// Factory manages the lifecycle of all application dependencies
type Factory struct {
	config *config.Config
	policy *config.Policy

	// Clients
	redisClient      *client.RedisClient
	clickhouseClient *client.ClickHouseClient
	esClient         *client.ESClient
	kafkaProducer    *client.KafkaProducer

	// Repositories and engine
	auditStore  *clickhouse.AuditStore
	eventStore  *elastic.EventStore
	reportCache *redis.ReportCache

	auditService *service.AuditService

	closeOnce sync.Once
	closed    chan struct{}
}

// NewFactory creates and initializes all application dependencies
func NewFactory() (*Factory, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)

	factory := &Factory{
		config: cfg,
		closed: make(chan struct{}),
	}

	if err := factory.loadPolicy(); err != nil {
		return nil, err
	}

	if err := factory.initializeClients(); err != nil {
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}

	util.Info("Factory initialized successfully",
		util.String("environment", cfg.Environment),
		util.Int("toxic_combinations", len(factory.policy.ToxicCombinations)),
	)

	return factory, nil
}

// loadPolicy reads the detection policy file. Outside production a missing
// file falls back to the built-in defaults.
func (f *Factory) loadPolicy() error {
	policy, err := config.LoadPolicy(f.config.Detection.PolicyFile)
	if err != nil {
		if f.config.IsProduction() {
			return fmt.Errorf("failed to load detection policy: %w", err)
		}
		util.Warn("Detection policy file unavailable, using built-in defaults",
			util.String("path", f.config.Detection.PolicyFile),
			util.ErrorField(err),
		)
		policy = config.DefaultPolicy()
	}
	f.policy = policy
	return nil
}

// initializeClients initializes all external service clients with health checks
func (f *Factory) initializeClients() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var initErrors []error

	// Redis
	if rc, err := client.NewRedisClient(f.config, util.Get()); err != nil {
		initErrors = append(initErrors, fmt.Errorf("redis: %w", err))
	} else {
		f.redisClient = rc
		if err := f.redisClient.HealthCheck(ctx); err != nil {
			initErrors = append(initErrors, fmt.Errorf("redis health check: %w", err))
		} else {
			util.Info("Redis client initialized and healthy")
		}
	}

	// ClickHouse
	if ch, err := client.NewClickHouseClient(f.config, util.Get()); err != nil {
		initErrors = append(initErrors, fmt.Errorf("clickhouse: %w", err))
	} else {
		f.clickhouseClient = ch
		if err := f.clickhouseClient.HealthCheck(ctx); err != nil {
			initErrors = append(initErrors, fmt.Errorf("clickhouse health check: %w", err))
		} else {
			util.Info("ClickHouse client initialized and healthy")
		}
	}

	// Elasticsearch
	if es, err := client.NewElasticsearchClient(f.config, util.Get()); err != nil {
		initErrors = append(initErrors, fmt.Errorf("elasticsearch: %w", err))
	} else {
		f.esClient = es
		if err := f.esClient.HealthCheck(); err != nil {
			initErrors = append(initErrors, fmt.Errorf("elasticsearch health check: %w", err))
		} else {
			util.Info("Elasticsearch client initialized and healthy")
		}
	}

	// Kafka
	if producer, err := client.NewKafkaProducer(f.config, util.Get()); err != nil {
		util.Warn("Kafka producer initialization failed - proceeding without Kafka", util.ErrorField(err))
	} else {
		f.kafkaProducer = producer
	}

	if len(initErrors) > 0 {
		if f.config.IsProduction() {
			return fmt.Errorf("critical service initialization failed: %v", initErrors)
		}
		for _, err := range initErrors {
			util.Warn("Service initialization warning", util.ErrorField(err))
		}
	}

	return nil
}

// AuditStore returns the relational adapter over ClickHouse.
func (f *Factory) AuditStore() *clickhouse.AuditStore {
	if f.auditStore == nil {
		f.auditStore = clickhouse.NewAuditStore(f.clickhouseClient, util.Get())
	}
	return f.auditStore
}

// EventStore returns the document adapter over Elasticsearch.
func (f *Factory) EventStore() *elastic.EventStore {
	if f.eventStore == nil {
		f.eventStore = elastic.NewEventStore(f.esClient, f.config.Elasticsearch.PageSize, util.Get())
	}
	return f.eventStore
}

// ReportCache returns the Redis-backed report cache, or nil when Redis is
// unavailable.
func (f *Factory) ReportCache() *redis.ReportCache {
	if f.reportCache == nil && f.redisClient != nil {
		f.reportCache = redis.NewReportCache(
			f.redisClient,
			f.config.Redis.ReportTTL,
			f.config.Redis.RunLockTTL,
			util.Get(),
		)
	}
	return f.reportCache
}

// AuditService wires the full audit pipeline.
func (f *Factory) AuditService() *service.AuditService {
	if f.auditService == nil {
		loader := engine.NewLoader(f.AuditStore(), f.EventStore(), f.config.Fetch, util.Get())
		aggregator := engine.NewAggregator(util.Get())
		detectCfg := detect.BuildConfig(f.config.Detection, f.policy)

		var cache service.ReportCache
		if rc := f.ReportCache(); rc != nil {
			cache = rc
		}
		var publisher service.FindingPublisher
		if f.kafkaProducer != nil {
			publisher = f.kafkaProducer
		}

		f.auditService = service.NewAuditService(
			loader,
			aggregator,
			detectCfg,
			cache,
			publisher,
			f.config.Kafka.FindingsTopic,
			util.Get(),
		)
	}
	return f.auditService
}

// HealthCheck reports per-dependency health. Kafka is optional and only
// checked when configured.
func (f *Factory) HealthCheck(ctx context.Context) map[string]error {
	healthErrors := make(map[string]error)

	if f.redisClient != nil {
		if err := f.redisClient.HealthCheck(ctx); err != nil {
			healthErrors["redis"] = err
		}
	} else {
		healthErrors["redis"] = fmt.Errorf("redis client not initialized")
	}

	if f.clickhouseClient != nil {
		if err := f.clickhouseClient.HealthCheck(ctx); err != nil {
			healthErrors["clickhouse"] = err
		}
	} else {
		healthErrors["clickhouse"] = fmt.Errorf("clickhouse client not initialized")
	}

	if f.esClient != nil {
		if err := f.esClient.HealthCheck(); err != nil {
			healthErrors["elasticsearch"] = err
		}
	} else {
		healthErrors["elasticsearch"] = fmt.Errorf("elasticsearch client not initialized")
	}

	if f.kafkaProducer != nil {
		if err := f.kafkaProducer.HealthCheck(ctx); err != nil {
			healthErrors["kafka"] = err
		}
	}

	return healthErrors
}

func (f *Factory) IsHealthy(ctx context.Context) bool {
	healthErrors := f.HealthCheck(ctx)
	delete(healthErrors, "kafka")
	return len(healthErrors) == 0
}

func (f *Factory) Close() error {
	f.closeOnce.Do(func() {
		close(f.closed)
		util.Info("Shutting down factory...")

		if f.kafkaProducer != nil {
			if err := f.kafkaProducer.Close(); err != nil {
				util.Error("Failed to close Kafka producer", util.ErrorField(err))
			}
		}

		if f.clickhouseClient != nil {
			if err := f.clickhouseClient.Close(); err != nil {
				util.Error("Failed to close ClickHouse client", util.ErrorField(err))
			} else {
				util.Info("ClickHouse client closed")
			}
		}

		if f.esClient != nil {
			f.esClient.Close()
			util.Info("Elasticsearch client closed")
		}

		if f.redisClient != nil {
			if err := f.redisClient.Close(); err != nil {
				util.Error("Failed to close Redis client", util.ErrorField(err))
			} else {
				util.Info("Redis client closed")
			}
		}

		util.Sync()
		util.Info("Factory shutdown completed")
	})

	return nil
}

func (f *Factory) WaitForClose() {
	<-f.closed
}

func (f *Factory) Config() *config.Config {
	return f.config
}

func (f *Factory) Policy() *config.Policy {
	return f.policy
}
