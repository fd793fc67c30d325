package container

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/config"
	"github.com/serroba/shortlink/internal/events"
	"github.com/serroba/shortlink/internal/handlers"
	"github.com/serroba/shortlink/internal/health"
	"github.com/serroba/shortlink/internal/logging"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/middleware"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
	"github.com/serroba/shortlink/internal/telemetry"
	"go.uber.org/zap"
)

const requestIDLength = 21

type Options struct {
	ConfigDir string `default:"config" help:"Directory holding default.yaml, <APP_ENV>.yaml and local.yaml" short:"c"`
	Port      int    `default:"0"      help:"Port to listen on, overrides http.listen_port when non-zero"    short:"p"`
}

// RedisClient owns the shared Redis connection so the injector closes it on shutdown.
type RedisClient struct {
	*redis.Client
}

func (c *RedisClient) Shutdown() error {
	return c.Close()
}

// ConfigPackage loads configuration from Options.ConfigDir and the environment.
func ConfigPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*config.Config, error) {
		opts := do.MustInvoke[*Options](i)

		cfg, err := config.Load(opts.ConfigDir)
		if err != nil {
			return nil, err
		}

		if opts.Port != 0 {
			cfg.HTTP.ListenPort = opts.Port
		}

		return cfg, nil
	})
}

func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		cfg := do.MustInvoke[*config.Config](i)

		return logging.New(logging.Format(cfg.Telemetry.LogFormat), cfg.Telemetry.LogLevel)
	})
}

// PostgresPackage opens the pool and, when enabled, applies migrations before
// the store is handed out.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*store.PostgresStore, error) {
		cfg := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*zap.Logger](i)

		pool, err := store.NewPool(context.Background(), cfg.Database)
		if err != nil {
			return nil, err
		}

		if cfg.Database.Migrate {
			if err := store.Migrate(pool, logger); err != nil {
				pool.Close()

				return nil, err
			}
		}

		return store.NewPostgresStore(pool, cfg.Database.AcquireTimeout, cfg.Database.QueryTimeout, logger), nil
	})
}

func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*RedisClient, error) {
		cfg := do.MustInvoke[*config.Config](i)

		return &RedisClient{Client: redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})}, nil
	})
}

func CachePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*store.LinkCache, error) {
		cfg := do.MustInvoke[*config.Config](i)
		client := do.MustInvoke[*RedisClient](i)

		return store.NewLinkCache(client.Client, cfg.Redis.CacheTTL), nil
	})
}

// RepositoryPackage provides the PostgreSQL store, behind the Redis cache when enabled.
func RepositoryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (shortener.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		pg := do.MustInvoke[*store.PostgresStore](i)

		if !cfg.Redis.CacheEnabled {
			return pg, nil
		}

		links := do.MustInvoke[*store.LinkCache](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return store.NewRedisCache(pg, links, logger), nil
	})
}

func ServicePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*shortener.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[shortener.Repository](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return shortener.NewService(repo, logger, shortener.WithMaxHashAttempts(cfg.Shortener.MaxHashAttempts)), nil
	})
}

// PublisherGroupPackage provides the Redis stream publisher used for link events.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*RedisClient](i)
		logger := do.MustInvoke[*zap.Logger](i)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client:     client.Client,
				Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
			},
			logging.NewWatermillAdapter(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("create publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

// TelemetryPackage provides the tracer provider. The injector flushes and
// stops it on shutdown.
func TelemetryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*telemetry.Tracing, error) {
		cfg := do.MustInvoke[*config.Config](i)

		return telemetry.New(context.Background(), cfg.Telemetry)
	})
}

// HTTPPackage builds the router with every route registered.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*chi.Mux, error) {
		logger := do.MustInvoke[*zap.Logger](i)
		service := do.MustInvoke[*shortener.Service](i)
		pg := do.MustInvoke[*store.PostgresStore](i)
		client := do.MustInvoke[*RedisClient](i)
		publishers := do.MustInvoke[*messaging.PublisherGroup](i)
		tracing := do.MustInvoke[*telemetry.Tracing](i)

		newRequestID, err := nanoid.Standard(requestIDLength)
		if err != nil {
			return nil, fmt.Errorf("create request id generator: %w", err)
		}

		router := chi.NewMux()
		router.Use(chimiddleware.Recoverer)

		api := humachi.New(router, huma.DefaultConfig("Shortlink", "1.0.0"))
		api.UseMiddleware(middleware.RequestLog(logger, newRequestID, tracing.Tracer()))

		publish := messaging.NewPublishFunc[events.LinkCreated](publishers.Publisher(), events.TopicLinkCreated)
		handlers.RegisterRoutes(api, handlers.NewLinkHandler(service, publish, logger))

		checks := health.NewHandler().
			Add("postgres", pg).
			Add("redis", health.NewRedisChecker(client.Client))
		health.RegisterRoutes(api, checks)

		return router, nil
	})
}

// ConsumerGroupPackage provides the cache warmer consuming link events.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		cfg := do.MustInvoke[*config.Config](i)
		client := do.MustInvoke[*RedisClient](i)
		links := do.MustInvoke[*store.LinkCache](i)
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(
			redisstream.SubscriberConfig{
				Client:        client.Client,
				Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
				ConsumerGroup: cfg.Redis.ConsumerGroup,
			},
			logging.NewWatermillAdapter(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("create subscriber: %w", err)
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(
			subscriber,
			events.TopicLinkCreated,
			events.NewCacheWarmer(links, logger),
			logger,
		))

		return group, nil
	})
}

// ServerPackages registers everything the HTTP server needs.
func ServerPackages(i *do.Injector, opts *Options) {
	do.ProvideValue(i, opts)
	ConfigPackage(i)
	LoggerPackage(i)
	PostgresPackage(i)
	RedisPackage(i)
	CachePackage(i)
	RepositoryPackage(i)
	ServicePackage(i)
	PublisherGroupPackage(i)
	TelemetryPackage(i)
	HTTPPackage(i)
}

// ConsumerPackages registers everything the cache warmer needs.
func ConsumerPackages(i *do.Injector, opts *Options) {
	do.ProvideValue(i, opts)
	ConfigPackage(i)
	LoggerPackage(i)
	RedisPackage(i)
	CachePackage(i)
	ConsumerGroupPackage(i)
}
