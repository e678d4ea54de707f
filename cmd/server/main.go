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

	"github.com/nutrilog/backend/config"
	httpDelivery "github.com/nutrilog/backend/internal/delivery/http"
	"github.com/nutrilog/backend/internal/domain"
	"github.com/nutrilog/backend/internal/infrastructure/cache"
	"github.com/nutrilog/backend/internal/infrastructure/estimator"
	"github.com/nutrilog/backend/internal/infrastructure/store"
	"github.com/nutrilog/backend/internal/infrastructure/usda"
	"github.com/nutrilog/backend/internal/logger"
	"github.com/nutrilog/backend/internal/usecase"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "nutrilog: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.Server.Environment)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync(log)

	log.Info("starting NutriLog backend",
		zap.String("version", "1.0.0"),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("cache", cfg.Cache.Type),
		zap.Duration("cacheTTL", cfg.Cache.TTL))

	// Initialize infrastructure dependencies
	db, err := store.Open(cfg.Database.Path, log)
	if err != nil {
		return err
	}
	defer db.Close()

	memoryCache := cache.NewMemoryCache()
	defer memoryCache.Close()

	var usdaClient domain.USDAClient
	if cfg.USDA.APIKey != "" {
		client := usda.NewClient(cfg.USDA.APIKey, cfg.USDA.BaseURL, log)
		client.SetRateLimit(cfg.RateLimit.USDA)
		if cfg.Server.Environment == "development" {
			client.SetDebug(true)
		}
		usdaClient = client
		log.Info("USDA provider configured",
			zap.String("baseURL", cfg.USDA.BaseURL),
			zap.String("key", maskKey(cfg.USDA.APIKey)))
	} else {
		log.Warn("USDA provider not configured, lookups with source=usda will fail")
	}

	var estimatorClient domain.NutritionEstimator
	if cfg.Estimator.Enabled {
		estimatorClient = estimator.NewClient(estimator.Config{
			APIKey:    cfg.Estimator.APIKey,
			BaseURL:   cfg.Estimator.BaseURL,
			Model:     cfg.Estimator.Model,
			Timeout:   cfg.Estimator.Timeout,
			PerMinute: cfg.RateLimit.Estimator,
		}, log)
		log.Info("estimator provider configured",
			zap.String("baseURL", cfg.Estimator.BaseURL),
			zap.String("model", cfg.Estimator.Model),
			zap.String("key", maskKey(cfg.Estimator.APIKey)))
	}

	// Initialize usecase layer
	lookupService := usecase.NewLookupService(
		memoryCache,
		usdaClient,
		estimatorClient,
		usecase.LookupServiceConfig{
			CacheTTL:               cfg.Cache.TTL,
			MinConfidenceThreshold: cfg.Matching.MinConfidenceThreshold,
			EnableFuzzyMatching:    cfg.Matching.EnableFuzzyMatching,
			EnableDebugLogging:     cfg.Matching.EnableDebugLogging,
			DefaultSource:          cfg.DefaultSource(),
		},
		log,
	)
	importService := usecase.NewImportService(db, lookupService, usecase.ImportServiceConfig{
		Timeout: cfg.Import.Timeout,
	}, log)
	trackingService := usecase.NewTrackingService(db, db, log)

	log.Info("matching configured",
		zap.Float64("minConfidence", cfg.Matching.MinConfidenceThreshold),
		zap.Bool("fuzzy", cfg.Matching.EnableFuzzyMatching),
		zap.String("defaultSource", cfg.DefaultSource()))

	handler := httpDelivery.NewHandler(lookupService, importService, trackingService, log)
	router := httpDelivery.SetupRouter(cfg, handler, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// maskKey keeps only enough of a credential to tell keys apart in logs
func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****"
}
