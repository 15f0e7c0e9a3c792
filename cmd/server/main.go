package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	costingapp "github.com/erp/costing/internal/application/costing"
	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/erp/costing/internal/infrastructure/cache"
	"github.com/erp/costing/internal/infrastructure/config"
	"github.com/erp/costing/internal/infrastructure/logger"
	"github.com/erp/costing/internal/infrastructure/persistence"
	"github.com/erp/costing/internal/infrastructure/telemetry"
	"github.com/erp/costing/internal/interfaces/http/handler"
	"github.com/erp/costing/internal/interfaces/http/middleware"
	"github.com/erp/costing/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Process Costing API
//	@version		1.0
//	@description	Process costing for manufacturing orders: cost breakdowns, variance and process stage WIP.

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		TimeFormat:  "2006-01-02T15:04:05.000Z07:00",
		ServiceName: cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting process costing service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	tel, err := setupTelemetry(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer tel.shutdown(log, cfg.HTTP.ShutdownTimeout)
	log = tel.logger

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Database.LogLevel),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
	)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	dbSystem := "postgresql"
	if cfg.Database.Driver == config.DriverSQLite {
		dbSystem = "sqlite"
		// postgres schemas are managed by cmd/migrate
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to create sqlite schema", zap.Error(err))
		}
	}
	tracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem,
	}, log)
	if err := tracing.Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	metrics, err := telemetry.NewCostingMetrics(tel.meter.Meter("costing"))
	if err != nil {
		log.Warn("Costing metrics unavailable", zap.Error(err))
	}

	var costData costing.CostDataRepository = persistence.NewGormCostDataRepository(db.DB, cfg.Costing.QueryTimeout)
	if cfg.Costing.CacheTTL > 0 {
		store, err := cache.NewStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore()
		if err != nil {
			log.Fatal("Failed to create cost data cache", zap.Error(err))
		}
		defer func() {
			_ = store.Close()
		}()
		costData = cache.NewCachingCostDataRepository(costData, store, cfg.Costing.CacheTTL, log)
	}

	currency := valueobject.Currency(cfg.Costing.DefaultCurrency)

	processCost := costingapp.NewCalculateProcessCostUseCase(costData, log)
	processCost.SetMetrics(metrics)
	processCost.SetDefaultCurrency(currency)

	stageService := costingapp.NewProcessStageService(persistence.NewGormProcessStageRepository(db.DB), log)
	stageService.SetMetrics(metrics)
	stageService.SetDefaultCurrency(currency)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanEnricher(),
		middleware.HTTPMetrics(tel.httpMeter(), log),
		middleware.Profiling(cfg.Telemetry.ProfilingEnabled),
		middleware.Secure(),
		middleware.BodyLimit(middleware.DefaultMaxBodyBytes),
	)

	costingRoutes := router.NewCostingRoutes(
		handler.NewProcessCostHandler(processCost),
		handler.NewProcessStageHandler(stageService),
	)
	router.NewRouter(engine).
		Register(costingRoutes).
		RegisterRoot(router.NewSystemRoutes(handler.NewSystemHandler(version, db))).
		Setup()

	for _, route := range costingRoutes.Routes() {
		log.Debug("Route registered", zap.String("method", route.Method), zap.String("path", "/api/v1"+route.Path))
	}

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("Server exited gracefully")
}
