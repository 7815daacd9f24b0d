package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/branch-workshop/service-booking/internal/application"
	"github.com/branch-workshop/service-booking/internal/common/auth"
	"github.com/branch-workshop/service-booking/internal/common/database"
	"github.com/branch-workshop/service-booking/internal/common/health"
	"github.com/branch-workshop/service-booking/internal/common/kafka"
	"github.com/branch-workshop/service-booking/internal/common/logger"
	"github.com/branch-workshop/service-booking/internal/common/middleware"
	"github.com/branch-workshop/service-booking/internal/common/tracing"
	"github.com/branch-workshop/service-booking/internal/config"
	"github.com/branch-workshop/service-booking/internal/directory"
	bookingEvents "github.com/branch-workshop/service-booking/internal/events"
	"github.com/branch-workshop/service-booking/internal/handler"
	"github.com/branch-workshop/service-booking/internal/repository"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and directory event consumer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.String("version", version),
	)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	// Initialize tracing
	shutdownTracing, err := tracing.Init(ctx, serviceName, version, cfg.TracingConfig)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("failed to flush traces", zap.Error(err))
		}
	}()

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		return err
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.BayModel{},
			&repository.ServiceAdvisorModel{},
			&repository.StoppageReasonModel{},
			&repository.BookingModel{},
			&repository.ProcessEventModel{},
		); err != nil {
			return fmt.Errorf("failed to run auto-migration: %w", err)
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DBConfig.DatabaseURL(), cfg.MigrationsPath, log); err != nil {
			return err
		}
	}

	// Initialize JWT verifier
	verifier := auth.NewJWTVerifier(cfg.JWTConfig.Secret, cfg.JWTConfig.Issuer)

	// Initialize Kafka producer
	var publisher application.EventPublisher
	if len(cfg.KafkaConfig.Brokers) > 0 {
		kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = kafkaProducer.Close() }()
		publisher = kafkaProducer
	} else {
		log.Warn("no kafka brokers configured, booking events will not be published")
	}

	// Initialize directory with its cache
	var cache directory.Cache = directory.NoopCache{}
	if cfg.RedisConfig.Enabled {
		redisCache, err := directory.NewRedisCache(cfg.RedisConfig)
		if err != nil {
			log.Warn("redis unavailable, directory lookups are uncached", zap.Error(err))
		} else {
			defer func() { _ = redisCache.Close() }()
			cache = redisCache
		}
	}
	dir := directory.NewCached(
		repository.NewGormDirectory(db),
		cache,
		cfg.DirectoryConfig.CacheTTL,
		cfg.DirectoryConfig.LookupTimeout,
		log,
	)

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	ledger := repository.NewGormProcessLedger(db).WithPageSize(cfg.LedgerPageSize)
	uow := repository.NewGormUnitOfWork(db)

	// Initialize application service
	bookingService := application.NewBookingService(bookingRepo, ledger, uow, dir, publisher, log)

	// Start directory event consumer in a goroutine
	if len(cfg.KafkaConfig.Brokers) > 0 {
		groupID := cfg.KafkaConfig.GroupPrefix + "booking-service"
		directoryConsumer := bookingEvents.NewDirectoryEventConsumer(
			cfg.KafkaConfig.Brokers,
			groupID,
			dir,
			log,
		)
		defer func() { _ = directoryConsumer.Close() }()

		go func() {
			log.Info("starting directory event consumer")
			if err := directoryConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("directory event consumer error", zap.Error(err))
			}
		}()
	}

	// Initialize HTTP handlers
	if err := handler.RegisterValidators(); err != nil {
		return err
	}
	bookingHandler := handler.NewBookingHandler(bookingService)
	adminBookingHandler := handler.NewAdminBookingHandler(bookingService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins...))
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, serviceName)
	healthHandler.RegisterRoutes(router)

	// Register routes
	bookingHandler.RegisterRoutes(&router.RouterGroup, verifier)
	adminBookingHandler.RegisterRoutes(&router.RouterGroup, verifier)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case <-ctx.Done():
	case err := <-serverErr:
		log.Error("HTTP server error", zap.Error(err))
		return err
	}

	log.Info("shutting down service-booking...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
	return nil
}
