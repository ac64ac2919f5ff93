package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/fishda/fishda/internal/access"
	"github.com/fishda/fishda/internal/alerts"
	"github.com/fishda/fishda/internal/analytics"
	"github.com/fishda/fishda/internal/app"
	"github.com/fishda/fishda/internal/auth"
	"github.com/fishda/fishda/internal/observability"
	"github.com/fishda/fishda/internal/platform/cache"
	"github.com/fishda/fishda/internal/platform/db"
	"github.com/fishda/fishda/internal/sensors"
	"github.com/fishda/fishda/internal/shared"
	"github.com/fishda/fishda/internal/thresholds"
	"github.com/fishda/fishda/internal/users"
	"github.com/fishda/fishda/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "fishda_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("create job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, logger)
	gate := access.NewGate(usersService, sessionManager, logger)
	accessHandler := access.NewHandler(gate)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, jobClient, logger)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	usersHandler := users.NewHandler(logger, usersService, gate)

	thresholdsRepo := thresholds.NewRepository(dbpool)
	thresholdsService := thresholds.NewService(thresholdsRepo, logger)
	if err := thresholdsService.Seed(ctx); err != nil {
		logger.Error("seed thresholds", slog.Any("error", err))
		os.Exit(1)
	}
	thresholdsHandler := thresholds.NewHandler(logger, thresholdsService, gate)

	analyticsCache := analytics.NewCache(redisClient, cfg.AnalyticsCacheTTL)
	hub := sensors.NewHub(logger)
	feed := sensors.NewFeed(redisClient, logger)
	sensorsRepo := sensors.NewRepository(dbpool)
	sensorsService := sensors.NewService(sensorsRepo, feed, analyticsCache, logger)
	sensorsHandler := sensors.NewHandler(logger, sensorsService, gate, hub, metrics, cfg.DeviceKey)

	alertsRepo := alerts.NewRepository(dbpool)
	notifier := alerts.NewFanoutNotifier(hub, jobClient, logger)
	alertsService := alerts.NewService(alertsRepo, notifier, logger)
	alertsHandler := alerts.NewHandler(logger, alertsService, gate)
	engine := alerts.NewEngine(thresholdsService, alertsService, logger)

	analyticsService := analytics.NewService(sensorsRepo, analyticsCache, logger)
	analyticsHandler := analytics.NewHandler(logger, analyticsService, gate)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		Gate:              gate,
		AccessHandler:     accessHandler,
		AuthHandler:       authHandler,
		UsersHandler:      usersHandler,
		ThresholdsHandler: thresholdsHandler,
		SensorsHandler:    sensorsHandler,
		AlertsHandler:     alertsHandler,
		AnalyticsHandler:  analyticsHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		// Forward live readings to connected dashboards and keep the
		// websocket gauge current.
		return feed.Subscribe(groupCtx, func(reading sensors.Reading) {
			hub.Broadcast(sensors.Event{Kind: "reading", Payload: reading})
			metrics.SetWSClients(hub.ClientCount())
		})
	})

	group.Go(func() error {
		return engine.Run(groupCtx, sensors.NewFeed(redisClient, logger))
	})

	group.Go(func() error {
		return analyticsCache.ListenForInvalidation(groupCtx, "")
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		logger.Error("runtime error", slog.Any("error", err))
		os.Exit(1)
	}
}
