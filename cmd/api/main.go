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

	"github.com/redis/go-redis/v9"

	"pennywise/internal/assistant"
	"pennywise/internal/config"
	"pennywise/internal/database"
	"pennywise/internal/extraction"
	"pennywise/internal/handlers"
	"pennywise/internal/imports"
	"pennywise/internal/logger"
	"pennywise/internal/router"
	"pennywise/internal/services"
	"pennywise/internal/validator"
)

// @title           Pennywise API
// @version         1.0
// @description     Pennywise turns bank statements into budget transactions and answers questions about spending.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// importLockTTL bounds how long a crashed instance can hold a budget's import lock.
const importLockTTL = 30 * time.Second

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	validator.Register()

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Shared state lives in redis when configured so several API instances
	// see the same cache versions and import locks.
	var (
		cache  assistant.Cache
		locker imports.Locker
	)
	if appConfig.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     appConfig.RedisAddr,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis at %s: %w", appConfig.RedisAddr, err)
		}
		cache = assistant.NewRedisCache(rdb, appConfig.AssistantCacheTTL)
		locker = imports.NewRedisLocker(rdb, importLockTTL)
		log.Infow("Using redis for assistant cache and import locks", "addr", appConfig.RedisAddr)
	} else {
		cache = assistant.NewMemoryCache(appConfig.AssistantCacheTTL)
		locker = imports.NewMemoryLocker()
		log.Info("REDIS_ADDR not set, assistant cache and import locks are in-process")
	}

	// Initialize services
	db := dbManager.DB()
	budgetService := services.NewBudgetService(db)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db)
	auditService := services.NewAuditService(db)

	runner, err := extraction.NewRunner(appConfig.ExtractionWorkers, appConfig.ExtractionTimeout)
	if err != nil {
		return fmt.Errorf("failed to create extraction pool: %w", err)
	}
	defer runner.Release()

	importer := imports.NewImporter(
		services.NewImportStore(categoryService, transactionService),
		imports.WithLocker(locker),
		imports.WithInvalidator(cache),
		imports.WithAuditor(auditService),
		imports.WithDedupWindow(appConfig.ImportDedupWindow),
	)
	orchestrator := assistant.NewOrchestrator(
		services.NewLedger(budgetService, categoryService, transactionService),
		assistant.WithCache(cache),
		assistant.WithDisplayCap(appConfig.AssistantDisplayCap),
	)

	engine := router.New(router.Deps{
		Documents: handlers.NewDocumentHandler(budgetService, categoryService, runner),
		Imports:   handlers.NewImportHandler(budgetService, importer),
		Assistant: handlers.NewAssistantHandler(orchestrator),
		Health:    dbManager,
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Pennywise API on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
