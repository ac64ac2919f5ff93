package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/fishda/fishda/internal/app"
	jobmetrics "github.com/fishda/fishda/internal/jobs"
	"github.com/fishda/fishda/internal/platform/db"
	"github.com/fishda/fishda/internal/sensors"
	"github.com/fishda/fishda/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := jobmetrics.NewMetrics(nil)
	sensorsRepo := sensors.NewRepository(pool)

	notifyJob := jobs.NewNotifyDispatchJob(logger, metrics)
	cleanupJob := jobs.NewSignupCleanupJob(pool, logger, metrics)
	retentionJob := jobs.NewSensorRetentionJob(sensorsRepo, logger, metrics)
	anomalyJob := jobs.NewAnomalyScanJob(sensorsRepo, logger, metrics)

	cleanupTask, err := jobs.NewSignupCleanupTask(jobs.SignupCleanupPayload{MaxAgeHours: cfg.SignupMaxAgeHours})
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}
	retentionTask, err := jobs.NewSensorRetentionTask(jobs.SensorRetentionPayload{RetentionDays: cfg.SensorRetentionDays})
	if err != nil {
		logger.Error("build retention task", slog.Any("error", err))
		os.Exit(1)
	}
	anomalyTask, err := jobs.NewAnomalyScanTask(jobs.AnomalyScanPayload{WindowHours: 72, Z: 2.5})
	if err != nil {
		logger.Error("build anomaly task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAlertNotify, Handler: notifyJob.Handle},
			{Type: jobs.TaskVerifyEmail, Handler: jobs.HandleVerifyEmailTask},
			{Type: jobs.TaskSignupCleanup, Handler: cleanupJob.Handle},
			{Type: jobs.TaskSensorRetention, Handler: retentionJob.Handle},
			{Type: jobs.TaskAnomalyScan, Handler: anomalyJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 * * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 3 * * *", Task: retentionTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "*/15 * * * *", Task: anomalyTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
