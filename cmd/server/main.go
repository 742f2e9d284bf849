package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	appactivity "github.com/assetflow/backend/internal/application/activity"
	appassistant "github.com/assetflow/backend/internal/application/assistant"
	appcatalog "github.com/assetflow/backend/internal/application/catalog"
	identityapp "github.com/assetflow/backend/internal/application/identity"
	appnotification "github.com/assetflow/backend/internal/application/notification"
	appreminder "github.com/assetflow/backend/internal/application/reminder"
	appreport "github.com/assetflow/backend/internal/application/report"
	appworkflow "github.com/assetflow/backend/internal/application/workflow"
	"github.com/assetflow/backend/internal/domain/activity"
	infraactivity "github.com/assetflow/backend/internal/infrastructure/activity"
	infraassistant "github.com/assetflow/backend/internal/infrastructure/assistant"
	"github.com/assetflow/backend/internal/infrastructure/auth"
	"github.com/assetflow/backend/internal/infrastructure/config"
	"github.com/assetflow/backend/internal/infrastructure/event"
	"github.com/assetflow/backend/internal/infrastructure/feed"
	"github.com/assetflow/backend/internal/infrastructure/logger"
	infranotification "github.com/assetflow/backend/internal/infrastructure/notification"
	"github.com/assetflow/backend/internal/infrastructure/persistence"
	"github.com/assetflow/backend/internal/infrastructure/scheduler"
	"github.com/assetflow/backend/internal/infrastructure/storage"
	"github.com/assetflow/backend/internal/infrastructure/telemetry"
	"github.com/assetflow/backend/internal/interfaces/http/handler"
	"github.com/assetflow/backend/internal/interfaces/http/middleware"
	"github.com/assetflow/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting AssetFlow backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	telCfg := telemetry.ConfigFrom(cfg.Telemetry, version)
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() { _ = tracerProvider.Shutdown(context.Background()) }()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()
	meter := meterProvider.Meter(cfg.Telemetry.ServiceName)

	// Database
	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	if cfg.Database.Driver == "sqlite" {
		dbTracing.DBSystem = "sqlite"
	}
	if err := telemetry.NewDBTracingPlugin(dbTracing, log).RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Redis backs token revocation and the cross-instance feed relay
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err), zap.String("addr", cfg.Redis.Addr()))
		}
		defer redisClient.Close()
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	// Repositories
	scope := persistence.NewGormTransactionScope(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	employeeRepo := persistence.NewGormEmployeeRepository(db.DB)
	departmentRepo := persistence.NewGormDepartmentRepository(db.DB)
	monitorRepo := persistence.NewGormMonitorAssignmentRepository(db.DB)
	registrationRepo := persistence.NewGormRegistrationRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	stockHistoryRepo := persistence.NewGormStockHistoryRepository(db.DB)
	attachmentRepo := persistence.NewGormProductAttachmentRepository(db.DB)
	requestRepo := persistence.NewGormRequestRepository(db.DB)
	assignmentRepo := persistence.NewGormAssignmentRepository(db.DB)
	reportRepo := persistence.NewGormReportRepository(db.DB)

	// Identity
	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	}
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, employeeRepo, jwtService, blacklist, log)
	userService := identityapp.NewUserService(scope.Identity(), userRepo, employeeRepo, log)
	userService.SetSessionRevoker(blacklist, cfg.JWT.AccessTokenExpiration)
	registrationService := identityapp.NewRegistrationService(scope.Identity(), registrationRepo, log)
	departmentService := identityapp.NewDepartmentService(scope.Identity(), departmentRepo, monitorRepo, log)

	if err := userService.EnsureAdmin(ctx, cfg.Bootstrap); err != nil {
		log.Fatal("Failed to bootstrap admin account", zap.Error(err))
	}

	// Catalog and workflow
	productService := appcatalog.NewProductService(scope.Catalog(), productRepo, stockHistoryRepo, log)
	workflowService := appworkflow.NewService(scope.Workflow(), requestRepo, assignmentRepo, productRepo, employeeRepo)
	reportService := appreport.NewReportService(reportRepo, log)

	objectStorage, err := storage.New(ctx, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize attachment storage", zap.Error(err))
	}
	attachmentService := appcatalog.NewAttachmentService(productRepo, attachmentRepo, objectStorage, appcatalog.AttachmentServiceConfig{
		DownloadURLExpiry: cfg.Storage.PresignExpiry,
	}, log)

	workflowMetrics, err := telemetry.NewWorkflowMetrics(meter, reportRepo, log)
	if err != nil {
		log.Fatal("Failed to register workflow metrics", zap.Error(err))
	}
	workflowService.SetTransitionRecorder(workflowMetrics)
	if meterProvider.IsEnabled() {
		workflowMetrics.StartPeriodicCollection(ctx, cfg.Telemetry.MetricsInterval)
		defer workflowMetrics.Stop()
	}

	// Event bus: post-commit side effects
	eventBus := event.NewInMemoryEventBus(log)
	workflowService.SetEventPublisher(eventBus)
	productService.SetEventPublisher(eventBus)
	registrationService.SetEventPublisher(eventBus)
	userService.SetEventPublisher(eventBus)

	notifier, err := infranotification.New(cfg.Notification, log)
	if err != nil {
		log.Fatal("Failed to initialize notifier", zap.Error(err))
	}
	directory := appnotification.NewDirectory(userRepo, employeeRepo, monitorRepo)
	eventNotifier := appnotification.NewEventNotifier(notifier, directory, productRepo, log)
	eventBus.Subscribe(eventNotifier)

	hub := feed.NewHub(cfg.Feed.BufferSize, log)
	defer hub.Close()
	var broadcaster feed.Broadcaster = hub
	if cfg.Feed.Backend == "redis" {
		if redisClient == nil {
			log.Fatal("Feed backend redis requires redis.enabled")
		}
		relay := feed.NewRedisRelay(redisClient, cfg.Feed.Channel, hub, log)
		if err := relay.Start(ctx); err != nil {
			log.Fatal("Failed to start feed relay", zap.Error(err))
		}
		defer func() { _ = relay.Stop(context.Background()) }()
		broadcaster = relay
	}
	feedForwarder := feed.NewEventForwarder(broadcaster)
	eventBus.Subscribe(feedForwarder)

	activityStore, closeActivity, err := openActivityStore(ctx, cfg.Activity, db, log)
	if err != nil {
		log.Fatal("Failed to open activity store", zap.Error(err))
	}
	defer closeActivity()
	var activityService *appactivity.Service
	if activityStore != nil {
		recorder := appactivity.NewRecorder(activityStore, log)
		eventBus.Subscribe(recorder)
		activityService = appactivity.NewService(activityStore)
	}

	log.Info("Event handlers registered",
		zap.Strings("notifier_events", eventNotifier.EventTypes()),
		zap.Strings("feed_events", feedForwarder.EventTypes()),
		zap.String("activity_sink", cfg.Activity.Sink),
	)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Reminder job
	if cfg.Reminder.Enabled {
		reminderService := appreminder.NewService(departmentRepo, requestRepo, assignmentRepo, directory, notifier, cfg.Reminder.OverdueWindow, log)
		trigger, err := scheduler.NewReminderTrigger(triggerConfig(cfg.Reminder, log), reminderService, log)
		if err != nil {
			log.Fatal("Invalid reminder schedule", zap.Error(err))
		}
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start reminder trigger", zap.Error(err))
		}
		defer func() {
			if err := trigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping reminder trigger", zap.Error(err))
			}
		}()
	}

	// Assistant: rules first, Gemini for the rest when configured
	var responder appassistant.Responder
	gemini, err := infraassistant.NewGeminiResponder(ctx, cfg.Assistant, log)
	switch {
	case err == nil:
		responder = gemini
		defer gemini.Close()
	case errors.Is(err, infraassistant.ErrNotConfigured):
		log.Info("Assistant model fallback not configured; rule answers only")
	default:
		log.Warn("Assistant model unavailable; rule answers only", zap.Error(err))
	}
	assistantService := appassistant.NewService(requestRepo, assignmentRepo, productRepo, responder, log)

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

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFrom(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		rateLimiter.StartCleanup(ctx)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	engine.Use(middleware.HTTPMetrics(meter))

	jwtConfig := middleware.DefaultJWTConfig(authService)
	jwtConfig.Logger = log
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))
	engine.Use(middleware.TracingAttributeInjector())

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version).
		AddCheck("database", func(context.Context) error { return db.Ping() })
	if redisClient != nil {
		systemHandler.AddCheck("redis", func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	}

	handlers := router.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Registration: handler.NewRegistrationHandler(registrationService),
		Department:   handler.NewDepartmentHandler(departmentService),
		User:         handler.NewUserHandler(userService, workflowService),
		Request:      handler.NewRequestHandler(workflowService),
		Assignment:   handler.NewAssignmentHandler(workflowService),
		Product:      handler.NewProductHandler(productService),
		Attachment:   handler.NewAttachmentHandler(attachmentService, cfg.Storage.MaxUploadSize),
		Report:       handler.NewReportHandler(reportService),
		Assistant:    handler.NewAssistantHandler(assistantService),
		System:       systemHandler,
		Feed: handler.NewFeedHandler(hub,
			handler.WithFeedLogger(log),
			handler.WithFeedHeartbeat(cfg.Feed.HeartbeatInterval),
			handler.WithFeedAllowedOrigins(cfg.HTTP.CORSAllowOrigins),
		),
	}
	if activityService != nil {
		handlers.Activity = handler.NewActivityHandler(activityService)
	}

	router.RegisterProbes(engine, systemHandler)
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	for _, group := range router.APIGroups(handlers, log) {
		r.Register(group)
	}
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

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	// open feed streams only end when their listeners close
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// openActivityStore selects the activity sink. A nil store disables the log.
func openActivityStore(ctx context.Context, cfg config.ActivityConfig, db *persistence.Database, log *zap.Logger) (activity.Store, func(), error) {
	switch cfg.Sink {
	case "none":
		log.Info("Activity log disabled")
		return nil, func() {}, nil
	case "mongo":
		store, err := infraactivity.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Activity log stored in MongoDB",
			zap.String("database", cfg.MongoDatabase),
			zap.String("collection", cfg.MongoCollection))
		return store, func() { _ = store.Close(context.Background()) }, nil
	default:
		return persistence.NewGormActivityStore(db.DB), func() {}, nil
	}
}

func triggerConfig(cfg config.ReminderConfig, log *zap.Logger) scheduler.TriggerConfig {
	tc := scheduler.DefaultTriggerConfig()
	if cfg.Interval > 0 {
		tc.Interval = cfg.Interval
	}
	tc.StartHour = cfg.StartHour
	tc.EndHour = cfg.EndHour
	tc.WeekdaysOnly = cfg.WeekdaysOnly
	if cfg.Location != "" {
		loc, err := time.LoadLocation(cfg.Location)
		if err != nil {
			log.Warn("Unknown reminder time zone, using local time", zap.String("location", cfg.Location), zap.Error(err))
		} else {
			tc.Location = loc
		}
	}
	return tc
}
