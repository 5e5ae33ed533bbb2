package main

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"

	"github.com/evertill/pos-api/internal/catalog"
	"github.com/evertill/pos-api/internal/config"
	"github.com/evertill/pos-api/internal/event"
	"github.com/evertill/pos-api/internal/export"
	"github.com/evertill/pos-api/internal/lock"
	"github.com/evertill/pos-api/internal/obs"
	"github.com/evertill/pos-api/internal/resilience"
	"github.com/evertill/pos-api/internal/session"
	"github.com/evertill/pos-api/internal/transaction"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(envOrDefault("OBS_LOG_FORMAT", "json"), envOrDefault("OBS_LOG_LEVEL", "info")).
		With().Str("env", cfg.AppEnv).Str("component", "worker").Logger()
	obs.MustRegisterDomainMetrics(envOrDefault("OBS_METRICS_NAMESPACE", "pos"), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()

	catalogSvc := catalog.NewService(pool, catalog.NewCache(redisClient, cfg.CatalogCacheTTL))
	eventSvc := event.NewService(pool, catalog.NewCache(redisClient, cfg.EventCacheTTL))
	sessionStore := &session.Store{R: redisClient, TTL: cfg.SessionTTL}
	txnSvc := &transaction.Service{
		Pool:     pool,
		Sessions: sessionStore,
		Totals:   &session.TotalsService{Store: sessionStore, Catalog: catalogSvc, Events: eventSvc},
		Catalog:  catalogSvc,
		Events:   eventSvc,
		Locker:   lock.Locker{R: redisClient},
		Logger:   logger,
	}

	breaker := resilience.NewBreaker(5, 0.5, 30*time.Second).
		WithTarget("sheet").
		WithLogger(logger)
	worker := &export.Worker{
		Source: txnSvc,
		Sheet: &export.SheetClient{
			URL:   cfg.ExportSheetURL,
			Token: cfg.ExportSheetToken,
			Client: resilience.HTTPClient{
				Client:      export.NewHTTPClient(10 * time.Second),
				Breaker:     breaker,
				MaxAttempts: 2,
				BaseBackoff: 500 * time.Millisecond,
				Jitter:      0.2,
			},
		},
		Logger: logger,
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisOpts.Addr, Password: redisOpts.Password, DB: redisOpts.DB},
		asynq.Config{Concurrency: envInt("WORKER_CONCURRENCY", 4)},
	)
	mux := asynq.NewServeMux()
	worker.Register(mux)

	logger.Info().Msg("export worker starting")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker exited unexpectedly")
	}
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}
