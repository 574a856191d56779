package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/supplysync/catalog_api/internal/cache"
	"github.com/supplysync/catalog_api/internal/config"
	"github.com/supplysync/catalog_api/internal/database"
	"github.com/supplysync/catalog_api/internal/extractor"
	"github.com/supplysync/catalog_api/internal/handler"
	"github.com/supplysync/catalog_api/internal/matching"
	"github.com/supplysync/catalog_api/internal/middleware"
	"github.com/supplysync/catalog_api/internal/queue"
	"github.com/supplysync/catalog_api/internal/repository"
	"github.com/supplysync/catalog_api/internal/service"
	"github.com/supplysync/catalog_api/internal/sse"
	"github.com/supplysync/catalog_api/internal/utils"
	"github.com/supplysync/catalog_api/internal/worker"
)

// main is the application entrypoint for the catalog matching API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting catalog api")
	utils.SetJWTSecret(cfg.JWTSecret)

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 3c. Task queue and stats cache on the same Redis connection
	taskQueue := queue.NewRedisQueue(redisClient.Client())
	statsCache := cache.NewStatsCache(redisClient, 30*time.Second)

	// 4. Initialize repositories
	itemRepo := repository.NewSupplierItemRepository(db)
	productRepo := repository.NewProductRepository(db)
	reviewRepo := repository.NewReviewQueueRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	txRunner := repository.NewTxRunner(db)

	// 5. Matching strategies and extractors
	strategies := matching.NewRegistry()
	strategies.Register(matching.NewTokenStrategy())
	strategy := strategies.Get(cfg.Match.Strategy)
	if strategy == nil {
		log.Fatal().Str("strategy", cfg.Match.Strategy).Msg("Unknown matching strategy")
	}
	extractors := extractor.NewRegistry()

	// 5a. SSE hub for the review dashboard
	hub := sse.NewHub()
	notifier := sse.NewHubNotifier(hub)

	// 6. Initialize services
	matchSvc := service.NewMatchService(itemRepo, productRepo, reviewRepo, auditRepo, txRunner, strategy, taskQueue, notifier, cfg.Match, cfg.Worker.MaxRetries)
	enrichSvc := service.NewEnrichService(itemRepo, extractors, db)
	aggregateSvc := service.NewAggregateService(productRepo, db)
	overrideSvc := service.NewOverrideService(itemRepo, productRepo, reviewRepo, auditRepo, txRunner, taskQueue, cfg.Worker.MaxRetries)
	reviewSvc := service.NewReviewService(reviewRepo, itemRepo, auditRepo, overrideSvc, statsCache, notifier, db)
	itemSvc := service.NewItemService(itemRepo, auditRepo, db)

	// 7. Initialize handlers
	handlers := &Handlers{
		Health:   handler.NewHealthHandler(db, redisClient),
		Override: handler.NewOverrideHandler(overrideSvc),
		Review:   handler.NewReviewHandler(reviewSvc),
		Item:     handler.NewItemHandler(itemSvc),
		Queue:    handler.NewQueueHandler(taskQueue),
		Ingest:   handler.NewIngestHandler(taskQueue, cfg.IngestSecret, cfg.Worker.MaxRetries),
		Category: handler.NewCategoryHandler(categoryRepo),
		SSE:      handler.NewSSEHandler(hub),
	}

	// 8. Initialize middleware
	jwtMw := middleware.NewJWTMiddleware()

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, jwtMw)

	// 10. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 11. Start workers
	handlerMap := worker.NewHandlerMap(matchSvc, enrichSvc, aggregateSvc, overrideSvc, reviewSvc, &cfg.Match)
	go worker.NewDispatcher(taskQueue, handlerMap, cfg.Worker.Concurrency).Start(ctx)
	go worker.NewPromoter(taskQueue, time.Second).Start(ctx)
	go worker.NewScheduler(taskQueue, cfg.Worker.MatchInterval, cfg.Worker.ExpireSweepInterval, cfg.Worker.MaxRetries).Start(ctx)

	// 12. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 14. Cancel context to stop workers
	cancel()

	// 15. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health   *handler.HealthHandler
	Override *handler.OverrideHandler
	Review   *handler.ReviewHandler
	Item     *handler.ItemHandler
	Queue    *handler.QueueHandler
	Ingest   *handler.IngestHandler
	Category *handler.CategoryHandler
	SSE      *handler.SSEHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	// Ingestion-facing endpoints (HMAC-signed, no bearer token)
	internal := router.Group("/v1/internal")
	{
		internal.POST("/price-change", handlers.Ingest.PriceChange)
		internal.POST("/match/run", handlers.Ingest.RunMatch)
	}

	// Admin routes
	admin := router.Group("/v1/admin")
	// EventSource cannot set headers; the SSE endpoint validates its token itself.
	admin.GET("/review-queue/events", handlers.SSE.Stream)
	admin.Use(jwtMiddleware.Handle())
	{
		admin.POST("/match/override", handlers.Override.ApplyOverride)

		admin.GET("/review-queue", handlers.Review.ListPending)
		admin.GET("/review-queue/stats", handlers.Review.GetStats)
		admin.GET("/review-queue/candidates", handlers.Review.SearchCandidates)
		admin.POST("/review-queue/:id/approve", handlers.Review.Approve)
		admin.POST("/review-queue/:id/reject", handlers.Review.Reject)
		admin.POST("/review-queue/:id/skip", handlers.Review.Skip)

		admin.GET("/items/:id", handlers.Item.GetItem)
		admin.GET("/categories", handlers.Category.ListCategories)
		admin.GET("/queue/dead-letters", handlers.Queue.ListDeadLetters)
	}
}

func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
