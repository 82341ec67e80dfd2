package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Vankh007/tv4u-sub002/internal/cache"
	"github.com/Vankh007/tv4u-sub002/internal/catalog"
	"github.com/Vankh007/tv4u-sub002/internal/config"
	"github.com/Vankh007/tv4u-sub002/internal/database"
	"github.com/Vankh007/tv4u-sub002/internal/handlers"
	"github.com/Vankh007/tv4u-sub002/internal/jobs"
	"github.com/Vankh007/tv4u-sub002/internal/log"
	"github.com/Vankh007/tv4u-sub002/internal/repository"
	"github.com/Vankh007/tv4u-sub002/internal/server"
	"github.com/Vankh007/tv4u-sub002/internal/service"
	"github.com/Vankh007/tv4u-sub002/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	var presigner service.SourcePresigner
	if cfg.Storage.Endpoint != "" {
		objectStore, err := storage.NewObjectStore(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init object store")
		}
		presigner = objectStore
	} else {
		logger.Warn().Msg("no object store configured, source descriptors pass through unsigned")
	}

	var catalogProvider catalog.Provider
	if cfg.Catalog.BaseURL != "" {
		catalogProvider = catalog.NewHTTPProvider(cfg.Catalog.BaseURL, cfg.Catalog.Timeout)
	} else {
		logger.Warn().Msg("no catalog configured, playback requests must inline access policies")
	}

	handlerSet := handlers.NewHandlerSet(logger, dbPool, redisClient, presigner, catalogProvider, cfg)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	sessionRepo := repository.NewDeviceSessionRepository(dbPool)
	scheduler := jobs.NewScheduler(sessionRepo, cfg.Lease.StaleRetention, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	scheduler.Stop()

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
