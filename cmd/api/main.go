// Package main is the entrypoint for the taskvault API server.
//
// @title                       taskvault API
// @version                     1.0
// @description                 Authenticated task-record service.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Bearer token from POST /login
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskvault/taskvault/internal/api"
	"github.com/taskvault/taskvault/internal/core/ports"
	"github.com/taskvault/taskvault/internal/core/service"
	"github.com/taskvault/taskvault/internal/core/validation"
	mongostore "github.com/taskvault/taskvault/internal/infrastructure/db/mongo"
	redisstore "github.com/taskvault/taskvault/internal/infrastructure/db/redis"
	"github.com/taskvault/taskvault/internal/infrastructure/http/handlers"
	"github.com/taskvault/taskvault/internal/pkg/config"
	"github.com/taskvault/taskvault/internal/pkg/telemetry"
	"github.com/taskvault/taskvault/internal/pkg/token"
	"github.com/taskvault/taskvault/pkg/logger"
)

const (
	serviceName     = "taskvault"
	shutdownTimeout = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.New(logger.Options{})
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTel.Endpoint)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown failed")
		}
	}()

	store, err := mongostore.Open(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  serviceName,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(sctx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}()
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

	if err := store.EnsureIndexes(ctx); err != nil {
		return err
	}
	db := store.DB()

	checks := map[string]handlers.Checker{
		"mongodb": func(ctx context.Context) error { return store.Ping(ctx) },
	}

	cache, closeCache, err := openCache(ctx, cfg.Redis, checks)
	if err != nil {
		return err
	}
	defer closeCache()
	if cache != nil {
		log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
	} else {
		log.Info().Msg("task cache disabled")
	}

	tokens := token.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService := service.NewAuthService(
		mongostore.NewAuthRepository(db, cfg.Store.Timeout),
		tokens,
		validation.New(),
		log,
	)
	taskService := service.NewTaskService(mongostore.NewTaskRepository(db, cfg.Store.Timeout), cache, log)

	e := api.NewRouter(api.Dependencies{
		AuthService:      authService,
		TaskService:      taskService,
		Tokens:           tokens,
		Logger:           log,
		TasksRequireAuth: cfg.Auth.TasksRequireAuth,
		HealthChecks:     checks,
	})

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

// openCache connects to Redis and registers its readiness check only when
// the task cache is enabled. With CACHE_TTL=0 it returns a nil cache and
// never dials.
func openCache(ctx context.Context, cfg config.RedisConfig, checks map[string]handlers.Checker) (ports.TaskCache, func(), error) {
	if cfg.CacheTTL <= 0 {
		return nil, func() {}, nil
	}

	rdb, err := redisstore.Open(ctx, redisstore.Config{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		return nil, nil, err
	}

	checks["redis"] = func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }
	return redisstore.NewTaskCache(rdb, cfg.CacheTTL), func() { _ = rdb.Close() }, nil
}
