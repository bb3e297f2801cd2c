package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os/signal"
	"routepulse/config"
	"routepulse/internals/app"
	"routepulse/internals/server"
	"routepulse/pkg/db"
	"routepulse/pkg/logger"
	"syscall"
)

func main() {
	cfg, err := config.LoadConfig("env.yaml")
	if err != nil {
		stdlog.Fatalf("failed to load config: %v", err)
	}

	// Done channel of ctx closes on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.Init(cfg)
	log.Info().Msg("logger initialized")

	dbPool, err := db.ConnectToDB(ctx, &cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize db pool")
	}
	log.Info().Msg("database pool initialized")

	container, err := app.NewContainer(ctx, dbPool, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize dependencies")
	}
	log.Info().Msg("dependencies initialized")

	if seeded, err := container.SeedSchedules(ctx); err != nil {
		log.Error().Err(err).Msg("failed to seed poll schedules")
	} else {
		log.Info().Int("routes", seeded).Msg("poll schedules seeded")
	}

	// background loops
	go container.Reclaimer.Run()
	go container.Scheduler.Run()
	go container.PruneLoop.Run()
	container.Executor.StartWorkers()
	log.Info().Msg("background loops started")

	router := app.RegisterRoutes(container)
	log.Info().Msg("routes registered")

	srv := server.New(fmt.Sprintf(":%d", cfg.Port), router, log)
	srv.Start()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	// stop accepting requests first, then release infra
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	if err := container.Shutdown(); err != nil {
		log.Error().Err(err).Msg("dependencies shutdown failed")
	}

	log.Info().Msg("graceful shutdown complete")
}
