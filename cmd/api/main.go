package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/giftwavehq/giftwave-backend/api/routes"
	"github.com/giftwavehq/giftwave-backend/internal/activity"
	"github.com/giftwavehq/giftwave-backend/internal/auth"
	"github.com/giftwavehq/giftwave-backend/internal/giftcards"
	"github.com/giftwavehq/giftwave-backend/internal/merchants"
	"github.com/giftwavehq/giftwave-backend/internal/notifications"
	"github.com/giftwavehq/giftwave-backend/internal/realtime"
	"github.com/giftwavehq/giftwave-backend/pkg/auth/session"
	"github.com/giftwavehq/giftwave-backend/pkg/config"
	"github.com/giftwavehq/giftwave-backend/pkg/db"
	"github.com/giftwavehq/giftwave-backend/pkg/logger"
	"github.com/giftwavehq/giftwave-backend/pkg/metrics"
	"github.com/giftwavehq/giftwave-backend/pkg/migrate"
	"github.com/giftwavehq/giftwave-backend/pkg/queue"
	"github.com/giftwavehq/giftwave-backend/pkg/redis"
)

// The API process hosts the realtime hub and the queue workers alongside the
// HTTP server so that fan-out reaches the websocket clients connected here.
func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	activityQueue, err := queue.New(activity.QueueName, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create activity queue", err)
		os.Exit(1)
	}
	notificationsQueue, err := queue.New(notifications.QueueName, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications queue", err)
		os.Exit(1)
	}

	recorder, err := activity.NewRecorder(activityQueue, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create activity recorder", err)
		os.Exit(1)
	}
	creator, err := notifications.NewCreator(notificationsQueue, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification creator", err)
		os.Exit(1)
	}

	hub, err := realtime.NewHub(logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create realtime hub", err)
		os.Exit(1)
	}

	activityRepo := activity.NewRepository(dbClient.DB())
	notificationsRepo := notifications.NewRepository(dbClient.DB())
	usersRepo := auth.NewRepository(dbClient.DB())
	merchantsRepo := merchants.NewRepository(dbClient.DB())
	giftCardsRepo := giftcards.NewRepository(dbClient.DB())

	merchantsService, err := merchants.NewService(merchants.ServiceParams{
		Repo:     merchantsRepo,
		Admins:   usersRepo,
		Recorder: recorder,
		Notifier: creator,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create merchants service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Repo:      usersRepo,
		Merchants: merchantsRepo,
		Sessions:  sessionManager,
		Recorder:  recorder,
		JWT:       cfg.JWT,
		Password:  cfg.Password,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	giftCardsService, err := giftcards.NewService(giftcards.ServiceParams{
		DB:        dbClient.DB(),
		Repo:      giftCardsRepo,
		Merchants: merchantsRepo,
		Recorder:  recorder,
		Notifier:  creator,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create gift card service", err)
		os.Exit(1)
	}

	activityService, err := activity.NewService(activityRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create activity service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	activityHandler, err := activity.NewHandler(activity.HandlerParams{
		Repo:   activityRepo,
		Hub:    hub,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create activity handler", err)
		os.Exit(1)
	}
	notificationsHandler, err := notifications.NewHandler(notifications.HandlerParams{
		Repo:   notificationsRepo,
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "realtime hub stopped unexpectedly", err)
		}
	}()
	go activityWorker.Run(ctx)
	go notificationsWorker.Run(ctx)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Sessions:      sessionManager,
			Hub:           hub,
			Auth:          authService,
			Merchants:     merchantsService,
			GiftCards:     giftCardsService,
			Activity:      activityService,
			Notifications: notificationsService,
		}),
	}

	go func() {
		<-ctx.Done()
		if err := server.Shutdown(context.Background()); err != nil {
			logg.Error(ctx, "error shutting down api server", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shutting down gracefully")
}
