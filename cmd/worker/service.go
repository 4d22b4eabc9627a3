package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/giftwavehq/giftwave-backend/internal/realtime"
	"github.com/giftwavehq/giftwave-backend/pkg/config"
	"github.com/giftwavehq/giftwave-backend/pkg/db"
	"github.com/giftwavehq/giftwave-backend/pkg/logger"
	"github.com/giftwavehq/giftwave-backend/pkg/queue"
	"github.com/giftwavehq/giftwave-backend/pkg/redis"
)

// ServiceParams wires the standalone queue worker process.
type ServiceParams struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      *db.Client
	Redis   *redis.Client
	Hub     *realtime.Hub
	Workers []*queue.Worker
}

// Service drains the activity and notification queues outside the API
// process. Fan-out from here only reaches websocket clients connected to this
// process; deployments that need realtime pushes keep the workers in the API
// binary and use this one for backfills and drain jobs.
type Service struct {
	cfg     *config.Config
	logg    *logger.Logger
	db      *db.Client
	redis   *redis.Client
	hub     *realtime.Hub
	workers []*queue.Worker
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	if params.Hub == nil {
		return nil, errors.New("realtime hub is required")
	}
	if len(params.Workers) == 0 {
		return nil, errors.New("at least one queue worker is required")
	}

	return &Service{
		cfg:     params.Config,
		logg:    params.Logger,
		db:      params.DB,
		redis:   params.Redis,
		hub:     params.Hub,
		workers: params.Workers,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "redis", s.redis.Ping); err != nil {
		return err
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

// Run blocks until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	go func() {
		if err := s.hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logg.Error(ctx, "realtime hub stopped unexpectedly", err)
		}
	}()

	done := make(chan struct{}, len(s.workers))
	for _, worker := range s.workers {
		worker := worker
		go func() {
			worker.Run(ctx)
			done <- struct{}{}
		}()
	}

	for range s.workers {
		<-done
	}
	s.logg.Info(ctx, "all queue workers stopped")
	return ctx.Err()
}
