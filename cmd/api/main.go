package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/servostack/paydesk/internal/infra/postgres"
	infraRedis "github.com/servostack/paydesk/internal/infra/redis"
	"github.com/servostack/paydesk/internal/module/payment"
	"github.com/servostack/paydesk/internal/module/renewal"
	"github.com/servostack/paydesk/internal/module/verification"
	"github.com/servostack/paydesk/internal/platform/user"
	"github.com/servostack/paydesk/internal/platform/wallet"
	"github.com/servostack/paydesk/internal/platform/watch"
	"github.com/servostack/paydesk/internal/transport/httpapi"
	"github.com/servostack/paydesk/internal/transport/httpapi/handler"
	"github.com/servostack/paydesk/internal/transport/httpapi/middleware"
	"github.com/servostack/paydesk/pkg/config"
	"github.com/servostack/paydesk/pkg/logger"
)

func main() {
	// Create context that listens for termination signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env if present, then configuration from the environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewDefault(cfg.Env)
	log.Info("Starting PayDesk API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	// Initialize database connection pool
	db, err := postgres.NewPool(ctx, postgres.Config{URL: cfg.DatabaseURL})
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("Database connection established")

	// Initialize Redis client for the pending snapshot
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Redis connection established")

	// Load UPI channel configuration
	channels, err := config.LoadChannelsConfig(cfg.ChannelsConfigPath)
	if err != nil {
		log.Error("Failed to load channels config", "error", err, "path", cfg.ChannelsConfigPath)
		os.Exit(1)
	}
	log.Info("Channel configuration loaded", "channels", len(channels.UPI))

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db.Pool)
	walletRepo := postgres.NewWalletRepository(db.Pool)
	planRepo := postgres.NewPlanRepository(db.Pool)
	transactionRepo := postgres.NewTransactionRepository(db.Pool)
	snapshotStore := infraRedis.NewSnapshotStore(redisClient, log)

	// Initialize services
	userSvc := user.NewService(userRepo, log)
	jwtSvc := middleware.NewJWTService(cfg.JWTSecret)
	walletSvc := wallet.NewService(walletRepo)
	verificationSvc := verification.NewService(transactionRepo, log)
	renewalSvc := renewal.NewService(transactionRepo, walletSvc, planRepo, log)

	sessionStore := payment.NewSessionStore(payment.DefaultSessionTTL)
	paymentSvc := payment.NewService(planRepo, walletSvc, renewalSvc, channels, sessionStore, log)

	// Initialize the pending queue watcher
	watcher := watch.NewWatcher(&watch.Config{
		Enabled:      true,
		PollInterval: cfg.PendingPollInterval,
	}, transactionRepo, snapshotStore, log)

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(userSvc, jwtSvc)
	walletHandler := handler.NewWalletHandler(verificationSvc, walletSvc, snapshotStore)
	renewalHandler := handler.NewRenewalHandler(paymentSvc, renewalSvc)
	planHandler := handler.NewPlanHandler(planRepo)
	healthHandler := handler.NewHealthHandler(db)

	jwtMiddleware := middleware.JWTMiddleware(jwtSvc)

	// Determine allowed origins for CORS
	allowedOrigins := []string{"http://localhost:5173", "http://localhost:5174"}
	if cfg.IsProduction() {
		if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
			allowedOrigins = []string{origins}
		}
	}

	r := httpapi.NewRouter(httpapi.Config{
		Logger:         log,
		AllowedOrigins: allowedOrigins,
		AuthHandler:    authHandler,
		WalletHandler:  walletHandler,
		RenewalHandler: renewalHandler,
		PlanHandler:    planHandler,
		HealthHandler:  healthHandler,
		JWTMiddleware:  jwtMiddleware,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background workers
	go watcher.Run(ctx)
	log.Info("Pending watcher started", "poll_interval", cfg.PendingPollInterval)

	go sessionStore.Sweep(ctx)

	// Start server in a goroutine
	go func() {
		log.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for termination signal
	<-ctx.Done()
	log.Info("Shutdown signal received")

	watcher.Stop()
	log.Info("Pending watcher stopped")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("Server stopped gracefully")
}
