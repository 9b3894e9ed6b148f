package scheduler

import (
	"context"
	"fmt"

	"places_backend/platform/config"
	"places_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Resyncer re-persists the in-memory history of one key.
type Resyncer interface {
	Key() string
	Resync(ctx context.Context) error
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	target Resyncer
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, target Resyncer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 1
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	w := &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
		target: target,
		log:    log,
	}
	w.mux.HandleFunc(TaskHistoryPersistRetry, w.handleHistoryPersistRetry)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleHistoryPersistRetry returns the write error so asynq retries with
// backoff until the store recovers or attempts run out.
func (w *Worker) handleHistoryPersistRetry(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseHistoryPersistRetryPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if payload.Key != w.target.Key() {
		w.log.Warn("persist retry for unknown history key", "key", payload.Key)
		return nil
	}

	if err := w.target.Resync(ctx); err != nil {
		w.log.PersistenceFailure("retry", payload.Key, err)
		return err
	}

	w.log.Info("history persisted after retry", "key", payload.Key, "requestedAt", payload.RequestedAt)
	return nil
}
