package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/portal-cidadao/api/handler"
	"github.com/fastygo/portal-cidadao/internal/config"
	"github.com/fastygo/portal-cidadao/internal/infrastructure/monitor"
	"github.com/fastygo/portal-cidadao/internal/infrastructure/outbox"
	pgInfra "github.com/fastygo/portal-cidadao/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/portal-cidadao/internal/infrastructure/redis"
	"github.com/fastygo/portal-cidadao/internal/infrastructure/storage"
	"github.com/fastygo/portal-cidadao/internal/metrics"
	"github.com/fastygo/portal-cidadao/internal/middleware"
	"github.com/fastygo/portal-cidadao/internal/router"
	"github.com/fastygo/portal-cidadao/internal/services"
	"github.com/fastygo/portal-cidadao/internal/services/lifecycle"
	"github.com/fastygo/portal-cidadao/pkg/httpcontext"
	"github.com/fastygo/portal-cidadao/pkg/logger"
	"github.com/fastygo/portal-cidadao/repository"
	"github.com/fastygo/portal-cidadao/repository/postgres"
	redisRepo "github.com/fastygo/portal-cidadao/repository/redis"
	analyticsUC "github.com/fastygo/portal-cidadao/usecase/analytics"
	authUC "github.com/fastygo/portal-cidadao/usecase/auth"
	notificationUC "github.com/fastygo/portal-cidadao/usecase/notification"
	occurrenceUC "github.com/fastygo/portal-cidadao/usecase/occurrence"
	profileUC "github.com/fastygo/portal-cidadao/usecase/profile"
	referenceUC "github.com/fastygo/portal-cidadao/usecase/reference"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Service:  cfg.AppName,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pgInfra.Close(pool, zapLogger)
		return nil
	})

	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.RegisterCloser("redis", redisClient.Close)

	outboxStore, err := outbox.Open(cfg.Outbox.Path, cfg.Outbox.MaxSize)
	if err != nil {
		zapLogger.Fatal("failed to open outbox", zap.Error(err))
	}
	manager.RegisterCloser("outbox", outboxStore.Close)

	photos, err := storage.NewLocal(cfg.Uploads.Dir)
	if err != nil {
		zapLogger.Fatal("failed to prepare upload dir", zap.Error(err))
	}

	appMetrics := metrics.New("portal")

	mon := monitor.New(monitor.Checks{
		Postgres: pool.Ping,
		Redis:    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		Outbox:   outboxStore,
	}, 10*time.Second, func(status monitor.Status) {
		appMetrics.SetOutboxSize(status.OutboxSize)
		stat := pool.Stat()
		appMetrics.RecordDBPoolStats(stat.TotalConns(), stat.AcquiredConns(), stat.IdleConns(),
			stat.EmptyAcquireCount(), stat.AcquireDuration())
	}, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	tx := postgres.NewTransactor(pool, zapLogger)
	store := postgres.NewStore(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.JWT.RefreshTTL)
	var limiter repository.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = redisRepo.NewRateLimiter(redisClient, "ratelimit:", cfg.RateLimit.Limit, cfg.RateLimit.Window)
	}

	tokens := authUC.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTTL)
	authUseCase := authUC.New(store.Users(), sessionRepo, tokens, cfg.JWT.RefreshTTL, zapLogger)
	notificationUseCase := notificationUC.New(tx, store, zapLogger)
	bridge := services.NewNotificationBridge(outboxStore, zapLogger)

	occurrenceManager := occurrenceUC.NewManager(tx, photos, bridge, appMetrics, zapLogger,
		occurrenceUC.WithMaxPhotoBytes(int64(cfg.Uploads.MaxBytes)))
	queries := occurrenceUC.NewQueries(store, zapLogger)

	processor, err := services.NewOutboxProcessor(outboxStore, notificationUseCase, mon, appMetrics.SetOutboxSize, zapLogger,
		services.ProcessorConfig{
			Schedule:     cfg.Outbox.DrainEvery,
			BatchSize:    cfg.Outbox.BatchSize,
			Concurrency:  cfg.Outbox.Concurrency,
			MaxRetries:   cfg.Outbox.MaxRetry,
			RetryBackoff: cfg.Outbox.RetryBackoff,
			MaxAge:       cfg.Outbox.MaxAge,
		})
	if err != nil {
		zapLogger.Fatal("outbox processor setup failed", zap.Error(err))
	}
	processor.Start()
	manager.Register("outbox_processor", func(ctx context.Context) error {
		processor.Stop(ctx)
		return nil
	})

	if cfg.Admin.Email != "" {
		if _, created, err := authUseCase.EnsureAdmin(appCtx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			zapLogger.Error("bootstrap admin failed", zap.Error(err))
		} else if created {
			zapLogger.Info("bootstrap admin ready", zap.String("email", cfg.Admin.Email))
		}
	}

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:         apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Profile:      apiHandler.NewProfileHandler(profileUC.New(store, zapLogger), ctxAdapter, zapLogger),
		Occurrence:   apiHandler.NewOccurrenceHandler(occurrenceManager, queries, int64(cfg.Uploads.MaxBytes), ctxAdapter, zapLogger),
		Reference:    apiHandler.NewReferenceHandler(referenceUC.New(store, zapLogger), ctxAdapter, zapLogger),
		Analytics:    apiHandler.NewAnalyticsHandler(analyticsUC.New(store.Analytics(), zapLogger), ctxAdapter, zapLogger),
		Notification: apiHandler.NewNotificationHandler(notificationUseCase, ctxAdapter, zapLogger),
		Health:       apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}
	if cfg.HTTP.EnableMetrics {
		handlers.Metrics = appMetrics.Handler()
	}

	handler := router.New(handlers, router.Options{
		Auth:        middleware.JWTAuth(tokens, zapLogger),
		RateLimiter: limiter,
		Observer:    appMetrics,
		UploadsDir:  photos.Dir(),
		Pprof:       cfg.HTTP.EnablePprof,
		Logger:      zapLogger,
	})

	server := &fasthttp.Server{
		Handler:            handler,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		Concurrency:        cfg.HTTP.MaxConn,
		MaxRequestBodySize: cfg.Uploads.MaxBytes + 1<<20,
		Name:               cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()), zap.String("env", cfg.Environment))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
