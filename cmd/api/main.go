package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"discount-codes/internal/cache"
	"discount-codes/internal/config"
	"discount-codes/internal/coupon"
	"discount-codes/internal/database"
	"discount-codes/internal/handler"
	"discount-codes/internal/notify"
	"discount-codes/internal/repository"
	"discount-codes/internal/router"
	"discount-codes/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting discount code server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Database
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	// Cache
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer redisClient.Close()
	}

	codeCache, err := cache.New(cfg.Cache, redisClient, cache.NewMetrics(registry), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	defer codeCache.Close()
	logger.Info().Str("mode", cfg.Cache.Mode).Msg("cache initialized")

	// Reserved codes
	reserved, err := loadReserved(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to load reserved codes: %w", err)
	}

	// Services
	codeRepo := repository.NewCodeRepository(pool, codeCache, cfg.Cache.TTLDuration(), logger)
	uows := repository.NewUnitOfWorkFactory(pool, logger)
	generator := coupon.NewRandomGenerator(coupon.WithMaxAttemptsFactor(cfg.Generation.MaxAttemptsFactor))
	codeService := service.NewCodeService(codeRepo, uows, generator, logger,
		service.WithReserved(reserved),
		service.WithMaxBatchAttempts(cfg.Generation.MaxBatchAttempts),
		service.WithMetrics(service.NewMetrics(registry)),
	)

	// Notifications
	hub := notify.NewHub(logger)
	go hub.Run(ctx)

	publishers := []notify.Publisher{hub}
	if cfg.Kafka.Enabled {
		kafkaPublisher := notify.NewKafkaPublisher(notify.NewKafkaWriter(cfg.Kafka), logger)
		defer func() {
			if err := kafkaPublisher.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close kafka publisher")
			}
		}()
		publishers = append(publishers, kafkaPublisher)
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka publishing enabled")
	}

	codeHandler := handler.NewCodeHandler(codeService, notify.NewMultiPublisher(publishers...), hub, logger)
	metrics := promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	mux := router.New(codeHandler, metrics, cfg.Auth.APIKey, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// stop the hub first so websocket connections do not hold up Shutdown
		cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// loadReserved reads the reserved code files, from S3 when enabled with the
// local file system as fallback.
func loadReserved(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (coupon.CouponSet, error) {
	fileLoader := coupon.NewFileLoader(logger)

	var s3Loader coupon.Loader
	if cfg.S3.Enabled {
		var err error
		s3Loader, err = coupon.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		}
	}

	loader := coupon.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, cfg.S3.Enabled, logger)

	reserved, err := coupon.LoadReserved(ctx, coupon.ReservedConfig{FilePaths: cfg.Reserved.Files}, loader, logger)
	if err != nil {
		return nil, err
	}

	logger.Info().Int("count", reserved.Size()).Msg("reserved codes loaded")
	return reserved, nil
}
