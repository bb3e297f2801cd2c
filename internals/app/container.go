package app

import (
	"context"
	"routepulse/config"
	middle "routepulse/internals/middleware"
	"routepulse/internals/modules/baseline"
	"routepulse/internals/modules/holiday"
	"routepulse/internals/modules/poll"
	"routepulse/internals/modules/provider"
	"routepulse/internals/modules/quota"
	"routepulse/internals/modules/retention"
	"routepulse/internals/modules/route"
	"routepulse/internals/modules/session"
	"routepulse/internals/modules/tripletest"
	"routepulse/internals/security"
	"routepulse/pkg/clock"
	"routepulse/pkg/httpclient"
	"routepulse/pkg/rabbitmq"
	"routepulse/pkg/redisstore"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type Container struct {
	DB          *pgxpool.Pool
	RedisClient *redisstore.Client
	RabbitConn  *amqp091.Connection
	Publisher   *rabbitmq.Publisher
	Logger      *zerolog.Logger

	routeHandler      *route.Handler
	pollHandler       *poll.Handler
	baselineHandler   *baseline.Handler
	quotaHandler      *quota.Handler
	tripleTestHandler *tripletest.Handler
	retentionHandler  *retention.Handler
	authMW            *middle.AuthMiddleware

	routeSvc *route.Service

	Scheduler *poll.Scheduler
	Executor  *poll.Executor
	Reclaimer *poll.Reclaimer
	PruneLoop *retention.Loop
}

func NewContainer(ctx context.Context, dbPool *pgxpool.Pool, cfg *config.Config, logger *zerolog.Logger) (*Container, error) {

	redisClient, err := redisstore.New(&cfg.Redis)
	if err != nil {
		return nil, err
	}

	rabbitConn, err := rabbitmq.NewConnection(&cfg.RabbitMQ)
	if err != nil {
		return nil, err
	}
	// the exchange must exist before the first confirm-mode publish
	if err := rabbitmq.SetupTopology(rabbitConn, &cfg.RabbitMQ); err != nil {
		return nil, err
	}
	publisher, err := rabbitmq.NewPublisher(rabbitConn, cfg.RabbitMQ.ExchangeName)
	if err != nil {
		return nil, err
	}

	holidayCal, err := holiday.NewCalendar(cfg.Holiday.Dates)
	if err != nil {
		return nil, err
	}

	validator := validator.New()
	sysClock := clock.System()

	providerClient := httpclient.NewHttpClient()
	fetchers := make([]provider.Fetcher, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		fetchers = append(fetchers, provider.NewHTTPFetcher(p.Name, p.BaseURL, p.APIKey, providerClient))
	}
	registry := provider.NewRegistry(fetchers...)

	routeRepo := route.NewRepository(dbPool, logger)
	sessionRepo := session.NewRepository(dbPool, logger)
	quotaRepo := quota.NewRepository(dbPool, logger)
	baselineRepo := baseline.NewRepository(dbPool, logger)
	tripleTestRepo := tripletest.NewRepository(dbPool, logger)
	retentionRepo := retention.NewRepository(dbPool, logger)

	routeSvc := route.NewService(routeRepo, redisClient, sysClock, logger)
	sessionSvc := session.NewService(sessionRepo, logger)
	quotaSvc := quota.NewService(quotaRepo, cfg.Quota.DailyLimit)
	baselineSvc := baseline.NewService(baselineRepo, routeSvc, sysClock, cfg.Baseline.MinSessions, cfg.Retention.MaxAge)
	retentionSvc := retention.NewService(retentionRepo, sysClock, cfg.Retention.MaxAge, cfg.Retention.BatchSize, logger)

	pollSvc := poll.NewService(
		dbPool,
		routeSvc,
		sessionSvc,
		sessionRepo,
		quotaSvc,
		registry,
		holidayCal,
		publisher,
		sysClock,
		cfg.Poll.Interval,
		cfg.Poll.ProviderTimeout,
		logger,
	)

	coordinator := tripletest.NewCoordinator(tripleTestRepo, registry, publisher, sysClock, cfg.TripleTest.ShotTimeout, logger)

	jobChan := make(chan poll.JobPayload, 1000)
	scheduler := poll.NewScheduler(ctx, &cfg.Scheduler, jobChan, redisClient, logger)
	executor := poll.NewExecutor(ctx, cfg.Scheduler.WorkerCount, jobChan, pollSvc, redisClient, cfg.Poll.RetryBudget, logger)
	reclaimer := poll.NewReclaimer(ctx, &cfg.Reclaimer, redisClient, logger)
	pruneLoop := retention.NewLoop(ctx, retentionSvc, cfg.Retention.Interval, logger)

	tokenSvc := security.NewTokenService(&cfg.Auth)
	authMW := middle.NewAuthMiddleware(tokenSvc)

	pollHandler := poll.NewHandler(pollSvc)
	baselineHandler := baseline.NewHandler(baselineSvc)

	return &Container{
		DB:          dbPool,
		RedisClient: redisClient,
		RabbitConn:  rabbitConn,
		Publisher:   publisher,
		Logger:      logger,

		routeHandler:      route.NewHandler(routeSvc, validator),
		pollHandler:       pollHandler,
		baselineHandler:   baselineHandler,
		quotaHandler:      quota.NewHandler(quotaSvc, sysClock),
		tripleTestHandler: tripletest.NewHandler(coordinator, validator, cfg.TripleTest.ShotCount, cfg.TripleTest.ShotSpacing),
		retentionHandler:  retention.NewHandler(retentionSvc),
		authMW:            authMW,

		routeSvc: routeSvc,

		Scheduler: scheduler,
		Executor:  executor,
		Reclaimer: reclaimer,
		PruneLoop: pruneLoop,
	}, nil
}

// SeedSchedules backfills schedule entries for active routes, so a
// fresh or wiped schedule set starts polling without waiting for
// route writes.
func (c *Container) SeedSchedules(ctx context.Context) (int, error) {
	return c.routeSvc.SeedSchedules(ctx)
}

func (c *Container) Shutdown() error {
	if c.Publisher != nil {
		_ = c.Publisher.Close()
	}
	if c.RabbitConn != nil {
		_ = c.RabbitConn.Close()
	}
	if c.RedisClient != nil {
		_ = c.RedisClient.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
	return nil
}
