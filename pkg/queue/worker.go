package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/giftwavehq/giftwave-backend/pkg/config"
	"github.com/giftwavehq/giftwave-backend/pkg/logger"
	"github.com/giftwavehq/giftwave-backend/pkg/metrics"
	pkgredis "github.com/giftwavehq/giftwave-backend/pkg/redis"
)

// Result tells the worker how a handler finished.
type Result int

const (
	// Done means the job was processed and should be archived as completed.
	Done Result = iota
	// Skipped means the handler intentionally declined the job. Skips are
	// terminal: no retry, no failure record.
	Skipped
)

// Handler processes a single job. Returning an error schedules a retry until
// the attempt budget runs out.
type Handler func(ctx context.Context, job Job) (Result, error)

// WorkerParams wires the dependencies for a queue worker pool.
type WorkerParams struct {
	Queue   string
	Store   redisStore
	Config  config.QueueConfig
	Logger  *logger.Logger
	Metrics *metrics.QueueMetrics
}

// Worker polls the named queue and dispatches jobs to registered handlers
// with bounded concurrency.
type Worker struct {
	queue    string
	store    redisStore
	cfg      config.QueueConfig
	logg     *logger.Logger
	metrics  *metrics.QueueMetrics
	handlers map[string]Handler
	mu       sync.RWMutex
}

// NewWorker builds a worker pool for the named queue.
func NewWorker(params WorkerParams) (*Worker, error) {
	if params.Queue == "" {
		return nil, fmt.Errorf("queue name required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("redis store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Config.Concurrency <= 0 {
		return nil, fmt.Errorf("concurrency must be positive")
	}
	if params.Config.MaxAttempts <= 0 {
		return nil, fmt.Errorf("max attempts must be positive")
	}
	return &Worker{
		queue:    params.Queue,
		store:    params.Store,
		cfg:      params.Config,
		logg:     params.Logger,
		metrics:  params.Metrics,
		handlers: make(map[string]Handler),
	}, nil
}

// Register binds a handler to a job name. Jobs without a handler are archived
// as failed immediately.
func (w *Worker) Register(jobName string, handler Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobName] = handler
}

func (w *Worker) handler(jobName string) (Handler, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	h, ok := w.handlers[jobName]
	return h, ok
}

// Run blocks until ctx is cancelled. It starts one promoter goroutine that
// moves due retries back onto the wait list and Concurrency poller goroutines
// that execute jobs.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.promoteLoop(ctx)
	}()

	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.pollLoop(ctx)
		}()
	}

	wg.Wait()
}

func (w *Worker) promoteLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.promoteDue(ctx); err != nil {
				w.logg.Error(ctx, "failed to promote delayed jobs", err)
			}
		}
	}
}

func (w *Worker) promoteDue(ctx context.Context) error {
	return w.promoteDueAt(ctx, time.Now())
}

func (w *Worker) promoteDueAt(ctx context.Context, now time.Time) error {
	due, err := w.store.PopDue(ctx, w.store.QueueKey(w.queue, partDelayed), now)
	if err != nil {
		return err
	}
	for _, raw := range due {
		if err := w.store.PushList(ctx, w.store.QueueKey(w.queue, partWait), raw); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		processed, err := w.processNext(ctx)
		if err != nil {
			w.logg.Error(ctx, "queue poll failed", err)
		}
		if processed {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// processNext pops and executes at most one job. It reports whether a job was
// available.
func (w *Worker) processNext(ctx context.Context) (bool, error) {
	raw, err := w.store.PopList(ctx, w.store.QueueKey(w.queue, partWait))
	if err != nil {
		if errors.Is(err, pkgredis.Nil) {
			return false, nil
		}
		return false, err
	}

	job, err := decodeJob(raw)
	if err != nil {
		w.logg.Error(ctx, "dropping undecodable job", err)
		return true, nil
	}
	w.execute(ctx, job)
	return true, nil
}

func (w *Worker) execute(ctx context.Context, job Job) {
	logCtx := w.logg.WithFields(ctx, map[string]any{
		"queue":    w.queue,
		"job_id":   job.ID,
		"job_name": job.Name,
		"attempt":  job.Attempts + 1,
	})

	handler, ok := w.handler(job.Name)
	if !ok {
		w.logg.Error(logCtx, "no handler registered for job", fmt.Errorf("unknown job %s", job.Name))
		w.archiveFailed(logCtx, job, fmt.Sprintf("no handler registered for %s", job.Name))
		return
	}

	job.Attempts++
	started := time.Now()
	result, err := w.invoke(ctx, handler, job)
	w.metrics.ObserveDuration(w.queue, job.Name, time.Since(started))

	switch {
	case err != nil:
		w.retryOrFail(logCtx, job, err)
	case result == Skipped:
		w.metrics.IncSkipped(w.queue, job.Name)
		w.logg.Info(logCtx, "job skipped")
		w.archive(logCtx, partCompleted, record{Job: job, Status: "skipped", FinishedAt: time.Now().UTC()})
	default:
		w.metrics.IncProcessed(w.queue, job.Name)
		w.logg.Info(logCtx, "job completed")
		w.archive(logCtx, partCompleted, record{Job: job, Status: "completed", FinishedAt: time.Now().UTC()})
	}
}

// invoke runs the handler, converting a panic into an ordinary error so one
// bad job follows the retry-or-fail path instead of killing the pool and the
// process hosting it.
func (w *Worker) invoke(ctx context.Context, handler Handler, job Job) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, job)
}

func (w *Worker) retryOrFail(ctx context.Context, job Job, cause error) {
	if job.Attempts >= w.cfg.MaxAttempts {
		w.metrics.IncFailed(w.queue, job.Name)
		w.logg.Error(ctx, "job exhausted retry budget", cause)
		w.archiveFailed(ctx, job, cause.Error())
		return
	}

	delay := w.backoff(job.Attempts)
	encoded, err := encodeJob(job)
	if err != nil {
		w.logg.Error(ctx, "failed to encode job for retry", err)
		w.archiveFailed(ctx, job, cause.Error())
		return
	}
	if err := w.store.ScheduleAt(ctx, w.store.QueueKey(w.queue, partDelayed), encoded, time.Now().Add(delay)); err != nil {
		w.logg.Error(ctx, "failed to schedule retry", err)
		w.archiveFailed(ctx, job, cause.Error())
		return
	}
	w.metrics.IncRetried(w.queue, job.Name)
	retryCtx := w.logg.WithFields(ctx, map[string]any{
		"delay": delay.String(),
		"cause": cause.Error(),
	})
	w.logg.Warn(retryCtx, "job failed, retry scheduled")
}

// backoff doubles per attempt: base, 2*base, 4*base, ...
func (w *Worker) backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	return w.cfg.BackoffBase << (attempts - 1)
}

func (w *Worker) archiveFailed(ctx context.Context, job Job, cause string) {
	w.archive(ctx, partFailed, record{Job: job, Status: "failed", Error: cause, FinishedAt: time.Now().UTC()})
}

func (w *Worker) archive(ctx context.Context, part string, rec record) {
	encoded, err := encodeRecord(rec)
	if err != nil {
		w.logg.Error(ctx, "failed to encode job record", err)
		return
	}
	if err := w.store.PushListCapped(ctx, w.store.QueueKey(w.queue, part), encoded, w.cfg.Retention); err != nil {
		w.logg.Error(ctx, "failed to archive job record", err)
	}
}
