package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	httpAdapter "github.com/custodia/ledger/internal/adapter/http"
	"github.com/custodia/ledger/internal/adapter/http/handler"
	memoryStore "github.com/custodia/ledger/internal/adapter/store/memory"
	postgresStore "github.com/custodia/ledger/internal/adapter/store/postgres"
	redisStore "github.com/custodia/ledger/internal/adapter/store/redis"
	"github.com/custodia/ledger/internal/infrastructure/config"
	"github.com/custodia/ledger/internal/infrastructure/logger"
	"github.com/custodia/ledger/internal/infrastructure/metrics"
	"github.com/custodia/ledger/internal/infrastructure/postgres"
	"github.com/custodia/ledger/internal/infrastructure/redis"
	"github.com/custodia/ledger/internal/ledger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx := context.Background()

	store, healthChecks, cleanup, err := buildStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer cleanup()

	idemStore, idemCheck, idemCleanup, err := buildIdempotencyStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize idempotency store")
	}
	defer idemCleanup()

	if idemCheck != nil {
		healthChecks = append(healthChecks, *idemCheck)
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	engine := ledger.NewEngine(store, idemStore, ledger.NewULIDGenerator(), log, m, ledger.Config{
		MaxAttempts:    cfg.MaxAttempts,
		StoreTimeout:   cfg.StoreTimeout,
		IdempotencyTTL: cfg.IdempotencyTTL,
	})

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:  handler.NewAccountHandler(engine),
		WalletHandler:   handler.NewWalletHandler(engine),
		TransferHandler: handler.NewTransferHandler(engine),
		EntryHandler:    handler.NewEntryHandler(engine),
		HealthHandler:   handler.NewHealthHandler(healthChecks...),
		Logger:          log,
		Metrics:         m,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("store", cfg.Store).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func buildStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ledger.Store, []handler.HealthCheck, func(), error) {
	if cfg.Store == "memory" {
		log.Warn().Msg("using in-memory store; data will not survive restarts")
		return memoryStore.NewStore(), nil, func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		URL:               cfg.DatabaseURL,
		MaxConns:          cfg.DatabaseMaxConns,
		MinConns:          cfg.DatabaseMinConns,
		MaxConnLifetime:   cfg.DatabaseMaxConnLifetime,
		HealthCheckPeriod: cfg.DatabaseHealthCheckPeriod,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	log.Info().Msg("connected to postgres")

	check := handler.HealthCheck{
		Name:  "postgres",
		Check: func(ctx context.Context) error { return pool.Ping(ctx) },
	}

	return postgresStore.NewStore(pool, log), []handler.HealthCheck{check}, pool.Close, nil
}

func buildIdempotencyStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ledger.IdempotencyStore, *handler.HealthCheck, func(), error) {
	if cfg.Store == "memory" {
		return memoryStore.NewIdempotencyStore(), nil, func() {}, nil
	}

	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to redis: %w", err)
	}

	log.Info().Msg("connected to redis")

	check := &handler.HealthCheck{
		Name:  "redis",
		Check: func(ctx context.Context) error { return client.Ping(ctx).Err() },
	}

	return redisStore.NewIdempotencyStore(client), check, func() { client.Close() }, nil
}
