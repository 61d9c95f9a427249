package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"invite-escrow-ledger/config"
	"invite-escrow-ledger/internal/adapter/extern"
	httpHandler "invite-escrow-ledger/internal/adapter/http/handler"
	pgStorage "invite-escrow-ledger/internal/adapter/storage/postgres"
	redisStorage "invite-escrow-ledger/internal/adapter/storage/redis"
	"invite-escrow-ledger/internal/core/ports"
	"invite-escrow-ledger/internal/service"
	"invite-escrow-ledger/pkg/logger"

	sdkmath "cosmossdk.io/math"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Invite Escrow Ledger")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	eventRepo := pgStorage.NewEventRepo(pool)
	if err := eventRepo.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure journal schema")
	}
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	nonceStore := redisStorage.NewNonceStore(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize ambient services
	sigSvc := service.NewHMACSignatureService()
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Initialize external collaborators
	identityClient := extern.NewIdentityClient(
		cfg.Identity.BaseURL,
		cfg.Identity.APIKey,
		&http.Client{Timeout: cfg.Identity.Timeout},
		log,
	)
	moverClient := extern.NewMoverClient(
		cfg.Mover.BaseURL,
		cfg.Mover.APIKey,
		&http.Client{Timeout: cfg.Mover.Timeout},
		log,
	)

	// Initialize the demurrage schedule (day clock + decay function)
	dayZero, err := time.Parse(time.RFC3339, cfg.Escrow.DayZero)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid escrow.day_zero")
	}
	schedule, err := service.NewDemurrageSchedule(cfg.Escrow.Gamma, dayZero)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid escrow.gamma")
	}

	minAmount, ok := sdkmath.NewIntFromString(cfg.Escrow.MinAmount)
	if !ok {
		log.Fatal().Str("value", cfg.Escrow.MinAmount).Msg("Invalid escrow.min_amount")
	}
	maxAmount, ok := sdkmath.NewIntFromString(cfg.Escrow.MaxAmount)
	if !ok {
		log.Fatal().Str("value", cfg.Escrow.MaxAmount).Msg("Invalid escrow.max_amount")
	}

	// Initialize business services
	escrowSvc := service.NewEscrowService(
		identityClient,
		moverClient,
		schedule,
		schedule,
		eventRepo,
		transactor,
		minAmount,
		maxAmount,
		log,
	)
	authSvc := service.NewAuthService(cfg.Admin.Username, cfg.Admin.PasswordHash, hashSvc, tokenSvc)
	reportingSvc := service.NewReportingService(eventRepo)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		EscrowSvc:      escrowSvc,
		AuthSvc:        authSvc,
		ReportingSvc:   reportingSvc,
		SigSvc:         sigSvc,
		NonceStore:     nonceStore,
		TokenSvc:       tokenSvc,
		HookSecret:     cfg.Hook.Secret,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
