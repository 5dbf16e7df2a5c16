package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/eventdraw/drawbot/internal/logger"
	"github.com/eventdraw/drawbot/internal/worker"
)

const (
	defaultQueueKey     = "drawbot:jobs"
	defaultPollInterval = time.Second
	claimBatchSize      = 16
)

// redisEnvelope is the member stored in the delayed-job sorted set
type redisEnvelope struct {
	ID      uuid.UUID       `json:"id"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// RedisRunner is a Runner backed by a Redis sorted set scored by fire
// time. Multiple processes can poll the same queue; ZREM is the claim,
// so each job is dispatched by exactly one poller per delivery. A
// poller crashing after ZREM but before the handler finishes loses the
// job, which matches the at-least-once contract only when paired with
// idempotent handlers, same as the timer runner.
type RedisRunner struct {
	client       *redis.Client
	pool         *worker.Pool
	queueKey     string
	pollInterval time.Duration
	mu           sync.Mutex
	handlers     map[string]HandlerFunc
	shutdown     chan struct{}
	wg           sync.WaitGroup
}

// NewRedisRunner creates a new RedisRunner
func NewRedisRunner(client *redis.Client, pool *worker.Pool) *RedisRunner {
	return &RedisRunner{
		client:       client,
		pool:         pool,
		queueKey:     defaultQueueKey,
		pollInterval: defaultPollInterval,
		handlers:     make(map[string]HandlerFunc),
		shutdown:     make(chan struct{}),
	}
}

// Register installs the handler for a job kind
func (r *RedisRunner) Register(kind string, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = handler
}

// Start launches the poll loop
func (r *RedisRunner) Start(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	r.wg.Add(1)
	go r.pollLoop()
	return nil
}

// ScheduleAt stores the job in the sorted set scored by fire time
func (r *RedisRunner) ScheduleAt(ctx context.Context, at time.Time, kind string, payload any) error {
	data, err := encodePayload(payload)
	if err != nil {
		return err
	}

	member, err := json.Marshal(redisEnvelope{
		ID:      uuid.New(),
		Kind:    kind,
		Payload: data,
	})
	if err != nil {
		return fmt.Errorf("failed to encode job envelope: %w", err)
	}

	err = r.client.ZAdd(ctx, r.queueKey, redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: string(member),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to enqueue delayed job: %w", err)
	}

	logger.FromContext(ctx).Info("Scheduled job",
		"kind", kind, "run_at", at, "queue", r.queueKey)
	return nil
}

// ScheduleNow stores the job with an immediate fire time
func (r *RedisRunner) ScheduleNow(ctx context.Context, kind string, payload any) error {
	return r.ScheduleAt(ctx, time.Now(), kind, payload)
}

func (r *RedisRunner) pollLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.claimDue()
		case <-r.shutdown:
			return
		}
	}
}

// claimDue pops every job whose fire time has passed and dispatches it
func (r *RedisRunner) claimDue() {
	ctx := context.Background()
	log := logger.FromContext(ctx)

	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	members, err := r.client.ZRangeByScore(ctx, r.queueKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   now,
		Count: claimBatchSize,
	}).Result()
	if err != nil {
		log.Error("Failed to poll delayed jobs", "error", err)
		return
	}

	for _, member := range members {
		removed, err := r.client.ZRem(ctx, r.queueKey, member).Result()
		if err != nil {
			log.Error("Failed to claim delayed job", "error", err)
			continue
		}
		if removed == 0 {
			// Another poller claimed it first
			continue
		}

		var env redisEnvelope
		if err := json.Unmarshal([]byte(member), &env); err != nil {
			log.Error("Failed to decode job envelope", "error", err)
			continue
		}

		r.dispatch(env)
	}
}

func (r *RedisRunner) dispatch(env redisEnvelope) {
	r.mu.Lock()
	handler, ok := r.handlers[env.Kind]
	r.mu.Unlock()

	r.wg.Add(1)
	r.pool.Enqueue(worker.JobFunc(func(ctx context.Context) error {
		defer r.wg.Done()

		if !ok {
			return fmt.Errorf("no handler registered for job kind %q", env.Kind)
		}

		logger.FromContext(ctx).Info("Executing job", "job_id", env.ID, "kind", env.Kind)
		if err := handler(ctx, env.Payload); err != nil {
			return fmt.Errorf("job %s (%s): %w", env.ID, env.Kind, err)
		}
		return nil
	}))
}

// Shutdown stops the poll loop and waits for in-flight executions
func (r *RedisRunner) Shutdown(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info("Shutting down redis job runner")

	close(r.shutdown)

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("Redis job runner shutdown complete")
		return nil
	case <-ctx.Done():
		log.Warn("Redis job runner shutdown timeout")
		return ctx.Err()
	}
}
