package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"handle-ledger/config"
	httpHandler "handle-ledger/internal/adapter/http/handler"
	"handle-ledger/internal/adapter/storage/memory"
	pgStorage "handle-ledger/internal/adapter/storage/postgres"
	redisStorage "handle-ledger/internal/adapter/storage/redis"
	"handle-ledger/internal/core/ports"
	"handle-ledger/internal/service"
	"handle-ledger/pkg/logger"
	"handle-ledger/pkg/retry"

	"github.com/rs/zerolog"
)

// backend is the storage wiring selected by storage.driver.
type backend struct {
	transactor ports.Transactor
	auditRepo  ports.AuditRepository
	health     []ports.HealthChecker
	close      func()
}

func main() {
	configPath := flag.String("config", "", "path to a config file (default: ./config.yaml or ./config/config.yaml)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("storage", cfg.Storage.Driver).
		Str("currency", cfg.Ledger.Currency).
		Msg("Starting Handle Ledger")

	ctx := context.Background()

	policy := retry.Policy{
		MaxAttempts: cfg.Ledger.MaxTxAttempts,
		BaseDelay:   cfg.Ledger.RetryBackoff,
		MaxDelay:    cfg.Ledger.RetryMaxBackoff,
	}

	store, err := openBackend(ctx, cfg, policy, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to open storage")
	}
	defer store.close()

	// Redis idempotency fast path (optional)
	var idempCache ports.IdempotencyCache
	healthCheckers := store.health
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		log.Info().Msg("Redis connected")

		idempCache = redisStorage.NewIdempotencyCache(rdb)
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
	}

	// Initialize services
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	accountSvc := service.NewAccountService(store.transactor, cfg.Ledger.Currency, log)
	directorySvc := service.NewDirectoryService(store.transactor, log)
	ledgerSvc := service.NewLedgerService(store.transactor, directorySvc, idempCache, service.LedgerConfig{
		Currency:          cfg.Ledger.Currency,
		AllowSelfTransfer: cfg.Ledger.AllowSelfTransfer,
		IdempotencyTTL:    cfg.Idempotency.TTL,
	}, log)
	querySvc := service.NewTransactionQueryService(store.transactor, cfg.Ledger.ListDefaultLimit, cfg.Ledger.ListMaxLimit, log)
	auditSvc := service.NewAuditService(store.auditRepo, log)

	// Load OpenAPI spec for Swagger UI
	specBytes, err := os.ReadFile(cfg.Server.OpenAPIPath)
	if err == nil {
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AccountSvc:     accountSvc,
		DirectorySvc:   directorySvc,
		LedgerSvc:      ledgerSvc,
		QuerySvc:       querySvc,
		TokenSvc:       tokenSvc,
		AuditSvc:       auditSvc,
		HealthCheckers: healthCheckers,
		OpenAPISpec:    specBytes,
		Mode:           cfg.Server.Mode,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownWait)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func openBackend(ctx context.Context, cfg *config.Config, policy retry.Policy, log zerolog.Logger) (*backend, error) {
	if cfg.Storage.Driver == config.DriverMemory {
		log.Warn().Msg("Using in-memory storage, state is lost on exit")
		store := memory.NewStore(policy, log)
		return &backend{
			transactor: store,
			auditRepo:  memory.NewAuditRepo(store),
			health:     []ports.HealthChecker{store},
			close:      func() {},
		}, nil
	}

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	log.Info().Msg("PostgreSQL connected")

	if cfg.Storage.Migrate {
		if err := pgStorage.Migrate(ctx, pool, log); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	return &backend{
		transactor: pgStorage.NewTransactor(pool, policy, log),
		auditRepo:  pgStorage.NewAuditRepo(pool),
		health:     []ports.HealthChecker{pgStorage.NewHealthCheck(pool)},
		close:      pool.Close,
	}, nil
}
