package bootstrap

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/eventdraw/drawbot/internal/config"
	"github.com/eventdraw/drawbot/internal/repository"
	"github.com/eventdraw/drawbot/internal/scheduler"
	"github.com/eventdraw/drawbot/internal/worker"
)

// JobRunner is the full lifecycle surface of a job runner
type JobRunner interface {
	scheduler.Runner
	Register(kind string, handler scheduler.HandlerFunc)
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// NewJobRunner selects the job runner backend. With REDIS_URL set the
// Redis queue is used, which allows multiple replicas to share the job
// load; otherwise jobs are persisted in Postgres and fired by local
// timers.
func NewJobRunner(cfg *config.Config, jobs repository.Job, pool *worker.Pool) (JobRunner, error) {
	if cfg.RedisURL == "" {
		slog.Info(LogMsgRunnerInitTimer)
		return scheduler.NewTimerRunner(jobs, pool), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	slog.Info(LogMsgRunnerInitRedis)
	return scheduler.NewRedisRunner(redis.NewClient(opts), pool), nil
}
