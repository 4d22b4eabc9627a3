package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/giftwavehq/giftwave-backend/internal/activity"
	"github.com/giftwavehq/giftwave-backend/internal/notifications"
	"github.com/giftwavehq/giftwave-backend/internal/realtime"
	"github.com/giftwavehq/giftwave-backend/pkg/config"
	"github.com/giftwavehq/giftwave-backend/pkg/db"
	"github.com/giftwavehq/giftwave-backend/pkg/logger"
	"github.com/giftwavehq/giftwave-backend/pkg/metrics"
	"github.com/giftwavehq/giftwave-backend/pkg/migrate"
	"github.com/giftwavehq/giftwave-backend/pkg/queue"
	"github.com/giftwavehq/giftwave-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	hub, err := realtime.NewHub(logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create realtime hub", err)
		os.Exit(1)
	}

	activityHandler, err := activity.NewHandler(activity.HandlerParams{
		Repo:   activity.NewRepository(dbClient.DB()),
		Hub:    hub,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create activity handler", err)
		os.Exit(1)
	}
	notificationsHandler, err := notifications.NewHandler(notifications.HandlerParams{
		Repo:   notifications.NewRepository(dbClient.DB()),
		Hub:    hub,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications handler", err)
		os.Exit(1)
	}

	queueMetrics := metrics.NewQueueMetrics(prometheus.DefaultRegisterer)
	activityWorker, err := queue.NewWorker(queue.WorkerParams{
		Queue:   activity.QueueName,
		Store:   redisClient,
		Config:  cfg.Queue,
		Logger:  logg,
		Metrics: queueMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create activity worker", err)
		os.Exit(1)
	}
	activityWorker.Register(activity.JobRecord, activityHandler.HandleRecord)

	notificationsWorker, err := queue.NewWorker(queue.WorkerParams{
		Queue:   notifications.QueueName,
		Store:   redisClient,
		Config:  cfg.Queue,
		Logger:  logg,
		Metrics: queueMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications worker", err)
		os.Exit(1)
	}
	notificationsWorker.Register(notifications.JobCreate, notificationsHandler.HandleCreate)

	service, err := NewService(ServiceParams{
		Config:  cfg,
		Logger:  logg,
		DB:      dbClient,
		Redis:   redisClient,
		Hub:     hub,
		Workers: []*queue.Worker{activityWorker, notificationsWorker},
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting queue worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "queue worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "queue worker shutting down gracefully")
}
