package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	salestaxapp "github.com/erp/salestax/internal/application/salestax"
	"github.com/erp/salestax/internal/domain/shared"
	"github.com/erp/salestax/internal/domain/shared/valueobject"
	"github.com/erp/salestax/internal/infrastructure/auth"
	"github.com/erp/salestax/internal/infrastructure/cache"
	"github.com/erp/salestax/internal/infrastructure/config"
	"github.com/erp/salestax/internal/infrastructure/currency"
	"github.com/erp/salestax/internal/infrastructure/event"
	"github.com/erp/salestax/internal/infrastructure/logger"
	"github.com/erp/salestax/internal/infrastructure/persistence"
	"github.com/erp/salestax/internal/infrastructure/taxjar"
	"github.com/erp/salestax/internal/infrastructure/telemetry"
	"github.com/erp/salestax/internal/interfaces/http/handler"
	"github.com/erp/salestax/internal/interfaces/http/middleware"
	"github.com/erp/salestax/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	baseLog, err := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.Telemetry.ServiceName,
		Env:     cfg.App.Env,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Telemetry.ProfilingEnabled,
		ServerAddress:     cfg.Telemetry.ProfilingServer,
		ApplicationName:   cfg.Telemetry.ServiceName,
		BasicAuthUser:     cfg.Telemetry.ProfilingUser,
		BasicAuthPassword: cfg.Telemetry.ProfilingPassword,
		ProfileTypes:      cfg.Telemetry.ProfilingTypes,
	}, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to start profiler", zap.Error(err))
	}

	// OpenTelemetry providers. Disabled providers fall back to no-ops.
	collector := telemetry.Collector{
		Endpoint:    cfg.Telemetry.CollectorEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
		ServiceName: cfg.Telemetry.ServiceName,
	}
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.TraceConfig{
		Collector:     collector,
		Enabled:       cfg.Telemetry.Enabled,
		SamplingRatio: cfg.Telemetry.SamplingRatio,
		SpanProfiles:  cfg.Telemetry.SpanProfiles,
	}, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Collector:      collector,
		Enabled:        cfg.Telemetry.MetricsEnabled,
		ExportInterval: cfg.Telemetry.MetricsInterval,
	}, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Collector: collector,
		Enabled:   cfg.Telemetry.LogsEnabled,
		MinLevel:  cfg.Telemetry.LogsMinLevel,
	}, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize logger provider", zap.Error(err))
	}

	log := loggerProvider.Bridge(baseLog)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting sales tax service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.Open(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := telemetry.InstrumentDB(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log); err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Redis-backed stores, in-memory outside production
	cacheFactory := cache.NewFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	idempotencyStore, err := cacheFactory.IdempotencyStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	rateCache, err := cacheFactory.RateCache()
	if err != nil {
		log.Fatal("Failed to create rate cache", zap.Error(err))
	}

	// Repositories
	configRepo := persistence.NewGormConfigurationRepository(db.DB)
	salesOrderRepo := persistence.NewGormSalesOrderRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB, salesOrderRepo)
	partnerRepo := persistence.NewGormPartnerRepository(db.DB)
	taxRepo := persistence.NewGormTaxRepository(db.DB)
	taxCodeRepo := persistence.NewGormProductTaxCodeRepository(db.DB)
	rateRepo := persistence.NewGormCurrencyRateRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	if err := telemetry.RegisterPoolMetrics(meterProvider.Meter("salestax.db"), db.Stats); err != nil {
		log.Fatal("Failed to register pool metrics", zap.Error(err))
	}
	if err := telemetry.RegisterQueueMetrics(meterProvider.Meter("salestax"), func(ctx context.Context) (map[string]int64, error) {
		counts, err := outboxRepo.CountByStatus(ctx)
		if err != nil {
			return nil, err
		}
		byStatus := make(map[string]int64, len(counts))
		for status, n := range counts {
			byStatus[string(status)] = n
		}
		return byStatus, nil
	}); err != nil {
		log.Fatal("Failed to register queue metrics", zap.Error(err))
	}

	// Currency conversion into the reporting currency
	reportingCurrency, err := valueobject.ParseCurrency(cfg.TaxJar.ReportingCurrency)
	if err != nil {
		log.Fatal("Invalid reporting currency", zap.Error(err))
	}
	rates := currency.NewCachedRateProvider(
		currency.NewStoredRateProvider(rateRepo), rateCache, cfg.TaxJar.RateCacheTTL, log)
	converter := currency.NewConverter(rates)

	// Tax service client and metrics
	taxMetrics, err := telemetry.NewTaxMetrics(meterProvider.Meter("salestax"))
	if err != nil {
		log.Fatal("Failed to create tax metrics", zap.Error(err))
	}
	gateway := taxjar.NewClient(log,
		taxjar.WithBaseURLs(cfg.TaxJar.ProductionURL, cfg.TaxJar.SandboxURL),
		taxjar.WithMetrics(taxMetrics),
	)

	// Task queue: commits and cancellations go through the outbox
	serializer := event.NewEventSerializer()
	event.RegisterSalesTaxTasks(serializer)
	taskQueue := event.NewOutboxTaskQueue(outboxRepo, serializer, cfg.Event.MaxRetries)

	// Application services
	configService := salestaxapp.NewConfigurationService(configRepo).WithLogger(log)
	reconciler := salestaxapp.NewReconciler(configService, taxRepo, gateway, log).WithMetrics(taxMetrics)
	transactions := salestaxapp.NewTransactionService(configService, gateway, converter, reportingCurrency, log).
		WithMetrics(taxMetrics)
	documentService := salestaxapp.NewDocumentService(salesOrderRepo, invoiceRepo, reconciler, taskQueue, log)
	addressService := salestaxapp.NewAddressValidationService(partnerRepo, configService, gateway, log)
	categoryService := salestaxapp.NewCategoryImportService(configService, taxCodeRepo, gateway, log)

	// Task dispatch
	dispatcher := event.NewDispatcher(log)
	taskOutcomes, err := telemetry.NewCounter(meterProvider.Meter("salestax"), "salestax.tasks.handled", "Transaction tasks handled by outcome", "{task}")
	if err != nil {
		log.Fatal("Failed to create task outcome counter", zap.Error(err))
	}
	taskHandler := event.NewIdempotentHandler(
		salestaxapp.NewTransactionTaskHandler(salestaxapp.NewDocumentLoader(salesOrderRepo, invoiceRepo), transactions, log),
		idempotencyStore,
		log,
		event.WithIdempotencyConfig(shared.IdempotencyConfig{TTL: cfg.Event.IdempotencyTTL, Enabled: true}),
		event.WithOutcomeCounter(taskOutcomes),
	)
	dispatcher.Subscribe(taskHandler)
	log.Info("Task handlers registered", zap.Strings("task_types", taskHandler.EventTypes()))

	if err := dispatcher.Start(ctx); err != nil {
		log.Fatal("Failed to start task dispatcher", zap.Error(err))
	}

	var outboxProcessor *event.OutboxProcessor
	if cfg.Event.ProcessorEnabled {
		processorConfig := event.DefaultOutboxProcessorConfig()
		processorConfig.BatchSize = cfg.Event.BatchSize
		processorConfig.PollInterval = cfg.Event.PollInterval
		processorConfig.CleanupEnabled = cfg.Event.CleanupEnabled
		processorConfig.CleanupRetention = cfg.Event.CleanupRetention
		processorConfig.ClaimTimeout = cfg.Event.ClaimTimeout
		outboxProcessor = event.NewOutboxProcessor(outboxRepo, dispatcher, serializer, processorConfig, log)
		if err := outboxProcessor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
	} else {
		log.Warn("Outbox processor disabled, queued transactions will not be reported")
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order:
	// 1. Tracing - span per request, so request logs carry trace IDs
	// 2. Logger - request ID and access log
	// 3. Recovery - catch panics
	// 4. Security headers, CORS and body limit
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, tracerProvider.IsEnabled()))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TraceAttributes())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.HTTPMetrics(meterProvider.Meter("salestax.http")))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(middleware.CORSConfigFrom(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	healthHandler := handler.NewHealthHandler(map[string]handler.HealthCheck{
		"database": db.Ping,
		"redis":    cacheFactory.Ping,
	}, 0)
	engine.GET("/health", healthHandler.Health)

	var apiMiddleware []gin.HandlerFunc
	if cfg.Auth.Enabled {
		apiMiddleware = append(apiMiddleware, middleware.Authenticate(auth.NewTokenService(cfg.Auth)))
	} else {
		log.Warn("API authentication disabled")
	}
	apiMiddleware = append(apiMiddleware,
		middleware.Organization(),
		middleware.Timeout(cfg.HTTP.RequestTimeout),
	)
	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	salesTaxHandler := handler.NewSalesTaxHandler(documentService, addressService, categoryService, configService)
	r := router.NewRouter(engine, router.WithAPIVersion("v1"), router.WithMiddleware(apiMiddleware...))
	r.Register(handler.SalesTaxRoutes(salesTaxHandler))
	r.Register(handler.TaskRoutes(handler.NewTaskHandler(salestaxapp.NewTaskService(outboxRepo, log))))
	r.Setup()

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

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if rateLimiter != nil {
		rateLimiter.Close()
	}
	if outboxProcessor != nil {
		if err := outboxProcessor.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping outbox processor", zap.Error(err))
		}
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping task dispatcher", zap.Error(err))
	}
	if err := cacheFactory.Close(); err != nil {
		log.Error("Error closing cache", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down logger provider", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
