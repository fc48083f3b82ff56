package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsettlement "github.com/retailos/backoffice/internal/application/settlement"
	"github.com/retailos/backoffice/internal/infrastructure/cache"
	"github.com/retailos/backoffice/internal/infrastructure/config"
	"github.com/retailos/backoffice/internal/infrastructure/logger"
	"github.com/retailos/backoffice/internal/infrastructure/persistence"
	"github.com/retailos/backoffice/internal/infrastructure/telemetry"
	"github.com/retailos/backoffice/internal/interfaces/http/handler"
	"github.com/retailos/backoffice/internal/interfaces/http/middleware"
	"github.com/retailos/backoffice/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting backoffice settlement service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories outside the transactional unit of work
	obligationRepo := persistence.NewGormObligationRepository(db.DB)
	creditStatsRepo := persistence.NewGormCreditStatsRepository(db.DB)
	auditRepo := persistence.NewGormAuditRepository(db.DB)
	txManager := persistence.NewGormTransactionManager(db)

	allocator := appsettlement.NewAllocationService(txManager,
		appsettlement.WithCreditTracker(creditStatsRepo),
		appsettlement.WithAuditRecorder(auditRepo),
		appsettlement.WithLogger(log),
	)
	customers := appsettlement.NewCustomerPaymentService(allocator, obligationRepo)
	suppliers := appsettlement.NewSupplierPaymentService(allocator, obligationRepo)

	idempotencyStore := newIdempotencyStore(cfg, log)
	defer func() {
		_ = idempotencyStore.Close()
	}()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsCfg))
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	settlementHandler := handler.NewSettlementHandler(customers, suppliers)
	systemHandler := handler.NewSystemHandler(handler.DatabasePinger{PingFunc: db.Ping})

	dedup := middleware.Idempotency(idempotencyStore, cfg.HTTP.IdempotencyTTL, log)

	settlementRoutes := router.NewDomainGroup("settlement", "/settlements").Use(dedup)
	settlementRoutes.POST("/customer-payments", settlementHandler.ReceiveCustomerPayment)
	settlementRoutes.POST("/supplier-payments", settlementHandler.MakeSupplierPayment)
	settlementRoutes.POST("/obligations/:id/pay", settlementHandler.PayObligation)

	obligationRoutes := router.NewDomainGroup("obligations", "/obligations")
	obligationRoutes.POST("", settlementHandler.CreateObligation)

	payerRoutes := router.NewDomainGroup("payers", "/payers")
	payerRoutes.GET("/:id/obligations", settlementHandler.ListObligations)
	payerRoutes.GET("/:id/obligations/summary", settlementHandler.ObligationSummary)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(settlementRoutes).
		Register(obligationRoutes).
		Register(payerRoutes)
	r.Setup()

	engine.GET("/health", systemHandler.Health)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newIdempotencyStore prefers Redis so duplicate detection survives
// restarts and works across replicas, falling back to the in-process
// store when Redis is unreachable.
func newIdempotencyStore(cfg *config.Config, log *zap.Logger) cache.IdempotencyStore {
	store, err := cache.NewRedisIdempotencyStore(cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory idempotency store",
			zap.String("addr", cfg.Redis.Addr()),
			zap.Error(err),
		)
		return cache.NewInMemoryIdempotencyStore()
	}
	log.Info("Idempotency store connected", zap.String("addr", cfg.Redis.Addr()))
	return store
}
