package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	invapp "github.com/openpos/backend/internal/application/inventory"
	paymentapp "github.com/openpos/backend/internal/application/payment"
	posapp "github.com/openpos/backend/internal/application/pos"
	"github.com/openpos/backend/internal/infrastructure/cache"
	"github.com/openpos/backend/internal/infrastructure/config"
	"github.com/openpos/backend/internal/infrastructure/event"
	"github.com/openpos/backend/internal/infrastructure/logger"
	"github.com/openpos/backend/internal/infrastructure/persistence"
	"github.com/openpos/backend/internal/interfaces/http/handler"
	"github.com/openpos/backend/internal/interfaces/http/middleware"
	"github.com/openpos/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting POS Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection
	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Low stock summary cache is optional; the service falls back to
	// recomputing the summary when Redis is unavailable.
	var summaryCache *cache.RedisLowStockCache
	if c, err := cache.NewRedisLowStockCache(cfg.Redis, cfg.Report.CacheTTL); err != nil {
		log.Warn("Redis unavailable, low stock summary caching disabled", zap.Error(err))
	} else {
		summaryCache = c
		defer func() {
			if err := summaryCache.Close(); err != nil {
				log.Error("Error closing Redis connection", zap.Error(err))
			}
		}()
	}

	// Initialize repositories
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	saleRepo.SetNumberPrefix(cfg.Sale.NumberPrefix)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	stockRepo := persistence.NewGormStockLevelRepository(db.DB)

	// Initialize application services
	saleService := posapp.NewSaleServiceWithConfig(saleRepo, paymentRepo, posapp.SaleServiceConfig{
		DefaultTaxRate:    decimal.NewFromFloat(cfg.Sale.DefaultTaxRate),
		PaymentMaxRetries: cfg.Payment.MaxRetries,
	})
	paymentService := paymentapp.NewPaymentService(paymentRepo)
	stockService := invapp.NewStockService(stockRepo, log)
	if summaryCache != nil {
		stockService.SetSummaryCache(summaryCache)
	}

	// Initialize event bus and cross-context handlers
	eventBus := event.NewInMemoryEventBus(log)

	// Sale completed -> stock decrement
	saleCompletedHandler := invapp.NewSaleCompletedHandler(stockService, log)
	eventBus.Subscribe(saleCompletedHandler)

	// Sale refunded -> stock restoration
	saleRefundedHandler := invapp.NewSaleRefundedHandler(stockService, log)
	eventBus.Subscribe(saleRefundedHandler)

	log.Info("Event handlers registered",
		zap.Strings("sale_completed_events", saleCompletedHandler.EventTypes()),
		zap.Strings("sale_refunded_events", saleRefundedHandler.EventTypes()),
	)

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Inject event bus into services that publish events
	saleService.SetEventPublisher(eventBus)
	paymentService.SetEventPublisher(eventBus)
	stockService.SetEventPublisher(eventBus)

	// Initialize HTTP handlers
	saleHandler := handler.NewSaleHandler(saleService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	stockHandler := handler.NewStockHandler(stockService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order: request ID first so recovery and logging can tag entries
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery(log))
	engine.Use(middleware.Logger(log))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(saleHandler).
		Register(paymentHandler).
		Register(stockHandler)
	r.Setup()

	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports process and database health
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
