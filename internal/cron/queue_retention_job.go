package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/giftwavehq/giftwave-backend/pkg/logger"
)

// The worker caps archives on every push, so this job is a backstop for
// retention config changes and lists written before a cap was lowered.

type queueTrimmer interface {
	TrimList(ctx context.Context, key string, keep int64) error
	ListLen(ctx context.Context, key string) (int64, error)
	QueueKey(queue, part string) string
}

// QueueRetentionJobParams configures the archive trim job.
type QueueRetentionJobParams struct {
	Logger    *logger.Logger
	Redis     queueTrimmer
	Queues    []string
	Retention int64
}

// NewQueueRetentionJob constructs the job trimming completed/failed job
// archives to the configured bound.
func NewQueueRetentionJob(params QueueRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Redis == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if len(params.Queues) == 0 {
		return nil, fmt.Errorf("at least one queue required")
	}
	if params.Retention <= 0 {
		return nil, fmt.Errorf("retention must be positive")
	}
	return &queueRetentionJob{
		logg:      params.Logger,
		redis:     params.Redis,
		queues:    params.Queues,
		retention: params.Retention,
	}, nil
}

type queueRetentionJob struct {
	logg      *logger.Logger
	redis     queueTrimmer
	queues    []string
	retention int64
}

func (j *queueRetentionJob) Name() string { return "queue-retention" }

func (j *queueRetentionJob) Run(ctx context.Context) error {
	var errs []error
	for _, queue := range j.queues {
		for _, part := range []string{"completed", "failed"} {
			key := j.redis.QueueKey(queue, part)
			if err := j.redis.TrimList(ctx, key, j.retention); err != nil {
				errs = append(errs, fmt.Errorf("trim %s: %w", key, err))
				continue
			}
			length, err := j.redis.ListLen(ctx, key)
			if err != nil {
				errs = append(errs, fmt.Errorf("measure %s: %w", key, err))
				continue
			}
			logCtx := j.logg.WithFields(ctx, map[string]any{
				"key":       key,
				"kept":      length,
				"retention": j.retention,
			})
			j.logg.Info(logCtx, "queue archive trimmed")
		}
	}
	return multierr.Combine(errs...)
}
