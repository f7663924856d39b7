package factory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lead-intake/internal/bucketing"
	"lead-intake/internal/client"
	"lead-intake/internal/config"
	"lead-intake/internal/handler"
	"lead-intake/internal/notify"
	"lead-intake/internal/repository/memory"
	rediscache "lead-intake/internal/repository/redis"
	"lead-intake/internal/service"
	"lead-intake/internal/tls"
	"lead-intake/internal/util"
)

// Factory manages the lifecycle of all application dependencies
type Factory struct {
	config     *config.Config
	tlsManager *tls.TLSManager

	// Clients
	redisClient    *client.RedisClient
	kafkaProducer  *client.KafkaProducer
	telegramClient *client.TelegramClient

	bucketingManager *bucketing.BucketingManager

	// Rate limiting: exactly one of memoryStore / redisCache is set
	memoryStore *memory.RateLimitStore
	redisCache  *rediscache.RateLimitCache

	notifier       service.Notifier
	serviceFactory *service.ServiceFactory

	closeOnce sync.Once
}

// NewFactory loads config and initializes every dependency
func NewFactory() (*Factory, error) {
	return New(config.LoadConfig())
}

// New builds a factory from an already loaded config
func New(cfg *config.Config) (*Factory, error) {
	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)

	f := &Factory{config: cfg}

	if cfg.Server.EnableTLS {
		f.tlsManager = tls.NewTLSManager(cfg.Server)
	}

	if err := f.initializeRateLimiter(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to initialize rate limiter: %w", err)
	}

	if err := f.initializeNotifier(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to initialize notifier: %w", err)
	}

	f.serviceFactory = service.NewServiceFactory(
		f.RateLimiter(),
		f.notifier,
		service.PolicyFromConfig(cfg.Validation),
		util.Get(),
	)

	util.Info("Factory initialized successfully",
		util.String("environment", cfg.Environment),
		util.String("rate_limit_backend", cfg.RateLimit.Backend),
		util.Duration("rate_limit_window", cfg.RateLimit.Window),
		util.Int("rate_limit_max", cfg.RateLimit.MaxRequests),
		util.String("delivery_backend", f.notifier.Name()),
		util.Bool("delivery_configured", f.notifier.Configured()),
		util.Bool("tls_enabled", cfg.Server.EnableTLS),
	)

	if !f.notifier.Configured() {
		util.Error("Lead delivery is not configured; submissions will fail with a server error",
			util.String("delivery_backend", f.notifier.Name()))
	}

	return f, nil
}

func (f *Factory) initializeRateLimiter() error {
	rl := f.config.RateLimit

	switch rl.Backend {
	case config.RateLimitBackendRedis:
		redisClient, err := client.NewRedisClient(f.config.Redis, util.Get())
		if err != nil {
			if f.config.IsProduction() {
				return fmt.Errorf("redis: %w", err)
			}
			util.Warn("Redis unavailable, falling back to in-memory rate limiting", util.ErrorField(err))
			break
		}
		f.redisClient = redisClient
		f.bucketingManager = bucketing.NewBucketingManager(64)
		f.redisCache = rediscache.NewRateLimitCache(redisClient, f.bucketingManager, rl.Window, rl.MaxRequests)
		return nil
	case config.RateLimitBackendMemory:
	default:
		util.Warn("Unknown rate limit backend, using memory", util.String("backend", rl.Backend))
	}

	f.memoryStore = memory.NewRateLimitStore(rl.Window, rl.MaxRequests, rl.MaxIdentifiers)
	return nil
}

func (f *Factory) initializeNotifier() error {
	switch f.config.Delivery.Backend {
	case config.DeliveryBackendKafka:
		producer, err := client.NewKafkaProducer(f.config.Kafka, util.Get())
		if err != nil {
			return fmt.Errorf("kafka: %w", err)
		}
		f.kafkaProducer = producer
		f.notifier = notify.NewKafkaNotifier(producer, f.config.Kafka.Topic, "website")
	case config.DeliveryBackendTelegram:
		f.telegramClient = client.NewTelegramClient(f.config.Telegram, util.Get())
		f.notifier = notify.NewTelegramNotifier(f.telegramClient)
	default:
		return fmt.Errorf("unknown delivery backend %q", f.config.Delivery.Backend)
	}
	return nil
}

// RateLimiter returns the configured store behind the service interface
func (f *Factory) RateLimiter() service.RateLimiter {
	if f.redisCache != nil {
		return f.redisCache
	}
	return f.memoryStore
}

// RunBackground runs periodic maintenance until ctx is cancelled
func (f *Factory) RunBackground(ctx context.Context) error {
	if f.memoryStore == nil {
		<-ctx.Done()
		return nil
	}
	return f.memoryStore.Run(ctx, f.config.RateLimit.SweepInterval)
}

// LeadHandler builds the HTTP handler for the contact endpoint
func (f *Factory) LeadHandler() *handler.LeadHandler {
	return handler.NewLeadHandler(f.serviceFactory.LeadService(), util.Get(), f.config.Server.MaxBodyBytes)
}

// HealthCheck returns one error per unhealthy dependency
func (f *Factory) HealthCheck(ctx context.Context) map[string]error {
	healthErrors := make(map[string]error)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if f.redisCache != nil {
		if err := f.redisCache.HealthCheck(ctx); err != nil {
			healthErrors["redis"] = err
		}
	}

	if f.kafkaProducer != nil {
		if err := f.kafkaProducer.HealthCheck(ctx); err != nil {
			healthErrors["kafka"] = err
		}
	}

	if f.notifier == nil || !f.notifier.Configured() {
		healthErrors["delivery"] = errors.New("delivery backend not configured")
	}

	return healthErrors
}

func (f *Factory) Close() error {
	f.closeOnce.Do(func() {
		util.Info("Shutting down factory...")

		if f.kafkaProducer != nil {
			if err := f.kafkaProducer.Close(); err != nil {
				util.Error("Failed to close Kafka producer", util.ErrorField(err))
			} else {
				util.Info("Kafka producer closed")
			}
		}

		if f.redisClient != nil {
			if err := f.redisClient.Close(); err != nil {
				util.Error("Failed to close Redis client", util.ErrorField(err))
			} else {
				util.Info("Redis client closed")
			}
		}

		util.Info("Factory shutdown completed")
		util.Sync()
	})

	return nil
}

func (f *Factory) Config() *config.Config {
	return f.config
}

func (f *Factory) TLSManager() *tls.TLSManager {
	return f.tlsManager
}

func (f *Factory) ServiceFactory() *service.ServiceFactory {
	return f.serviceFactory
}
