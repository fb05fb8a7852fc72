package main

import (
	"context"
	"log"
	"os"

	"github.com/hilthontt/proctor/internal/application/incidents"
	"github.com/hilthontt/proctor/internal/application/session"
	"github.com/hilthontt/proctor/internal/domain"
	"github.com/hilthontt/proctor/internal/infrastructure/configs"
	"github.com/hilthontt/proctor/internal/infrastructure/events"
	"github.com/hilthontt/proctor/internal/infrastructure/logging"
	"github.com/hilthontt/proctor/internal/infrastructure/messaging"
	"github.com/hilthontt/proctor/internal/infrastructure/metrics"
	"github.com/hilthontt/proctor/internal/infrastructure/ratelimiter"
	"github.com/hilthontt/proctor/internal/infrastructure/repository"
	"github.com/hilthontt/proctor/internal/infrastructure/tracing"
	"github.com/hilthontt/proctor/internal/infrastructure/ws"
	"github.com/hilthontt/proctor/internal/persistence/db"
	mongoRepository "github.com/hilthontt/proctor/internal/persistence/repository"
	"github.com/hilthontt/proctor/internal/presentation/api"
	healthHandler "github.com/hilthontt/proctor/internal/presentation/handler/health"
	roomHandler "github.com/hilthontt/proctor/internal/presentation/handler/rooms"
	socketHandler "github.com/hilthontt/proctor/internal/presentation/handler/socket"
)

const serviceName = "proctor"

func main() {
	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(logging.NewConfig(cfg.Logger))
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if configPath == "" {
		logger.Warn(logging.General, logging.Startup, "no config file found, using defaults and environment", nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer := tracing.Noop()
	if cfg.Tracing.Enabled {
		shutdownTracer, err = tracing.InitTracer(tracing.NewConfig(serviceName, cfg.Tracing))
		if err != nil {
			logger.Fatal(logging.General, logging.Startup, "failed to init tracer", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
		}
	}
	defer shutdownTracer(context.Background())

	var (
		store        domain.RoomStore
		incidentRepo domain.IncidentRepository
		auditRepo    domain.RoomAuditRepository
	)

	switch cfg.Storage.Backend {
	case configs.StorageMongo:
		mongoCfg := db.NewMongoConfig(cfg.Storage.Mongo)
		client, err := db.NewMongoClient(ctx, mongoCfg, logger)
		if err != nil {
			logger.Fatal(logging.MongoDB, logging.Startup, "failed to connect to mongodb", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
		}
		defer db.DisconnectMongo(context.Background(), client)

		database := db.GetDatabase(client, mongoCfg)
		roomStore := mongoRepository.NewRoomStore(database)
		incidentStore := mongoRepository.NewIncidentRepository(database)
		auditStore := mongoRepository.NewRoomAuditLogRepository(database)

		for name, ensure := range map[string]func(context.Context) error{
			db.RoomsCollection:         roomStore.EnsureIndexes,
			db.IncidentsCollection:     incidentStore.EnsureIndexes,
			db.RoomAuditLogsCollection: auditStore.EnsureIndexes,
		} {
			if err := ensure(ctx); err != nil {
				logger.Fatal(logging.MongoDB, logging.Startup, "failed to create indexes", map[logging.ExtraKey]any{
					"collection":         name,
					logging.ErrorMessage: err.Error(),
				})
			}
		}

		store, incidentRepo, auditRepo = roomStore, incidentStore, auditStore
	default:
		store = repository.NewRoomStore()
		incidentRepo = repository.NewIncidentRepository()
		auditRepo = repository.NewRoomAuditRepository()
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Messaging.Enabled {
		rabbitmq, err := messaging.NewRabbitMQ(cfg.Messaging.URI)
		if err != nil {
			logger.Fatal(logging.RabbitMQ, logging.Startup, "failed to connect to rabbitmq", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
		}
		defer rabbitmq.Close()

		publisher = events.NewRoomPublisher(rabbitmq)
		if err := events.NewAuditConsumer(rabbitmq, auditRepo, logger).Listen(); err != nil {
			logger.Fatal(logging.RabbitMQ, logging.Startup, "failed to start audit consumer", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
		}
	}

	var cache ratelimiter.GetterSetter
	switch cfg.RateLimiter.Backend {
	case configs.CacheRedis:
		cache, err = ratelimiter.NewRedis(ctx, ratelimiter.RedisOptions{
			Addr:     cfg.RateLimiter.RedisAddr,
			Password: cfg.RateLimiter.RedisPassword,
			DB:       cfg.RateLimiter.RedisDB,
		})
		if err != nil {
			logger.Fatal(logging.Redis, logging.Startup, "failed to connect to redis", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
		}
	default:
		cache = ratelimiter.NewInMemory()
	}
	defer cache.Close()

	limiter := ratelimiter.New(ratelimiter.Options{
		MaxRatePerSecond: cfg.RateLimiter.MaxRatePerSecond,
		MaxBurst:         cfg.RateLimiter.MaxBurst,
		Cache:            cache,
		CacheTTL:         cfg.RateLimiter.CacheTTL,
		SourceHeaderKey:  cfg.RateLimiter.SourceHeaderKey,
	})

	m := metrics.New()
	registry := ws.NewRegistry()
	incidentLogger := incidents.NewLogger(incidentRepo)
	coordinator := session.NewCoordinator(registry, store, incidentLogger, publisher, m, logger)

	app := api.NewApplication(
		*cfg,
		roomHandler.NewHandler(store, incidentLogger, auditRepo, registry, logger),
		healthHandler.NewHandler(registry),
		socketHandler.NewHandler(
			ctx,
			ws.NewUpgrader(cfg.WebSocket, cfg.HTTP.AllowedOrigins),
			coordinator,
			ws.NewClientOptions(cfg.WebSocket),
			logger,
		),
		m.Handler(),
		logger,
		limiter,
	)

	if err := app.Run(app.Mount()); err != nil {
		logger.Error(logging.General, logging.Shutdown, "server stopped with error", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
		cancel()
		os.Exit(1)
	}
}
