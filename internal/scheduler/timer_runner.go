package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eventdraw/drawbot/internal/domain"
	"github.com/eventdraw/drawbot/internal/logger"
	"github.com/eventdraw/drawbot/internal/repository"
	"github.com/eventdraw/drawbot/internal/worker"
)

// TimerRunner is a Runner that persists jobs to the job store and fires
// them with in-process timers. Pending jobs are reloaded on Start, so a
// restart re-arms everything scheduled before the crash.
type TimerRunner struct {
	jobs     repository.Job
	pool     *worker.Pool
	mu       sync.Mutex
	handlers map[string]HandlerFunc
	timers   map[uuid.UUID]*time.Timer
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// NewTimerRunner creates a new TimerRunner
func NewTimerRunner(jobs repository.Job, pool *worker.Pool) *TimerRunner {
	return &TimerRunner{
		jobs:     jobs,
		pool:     pool,
		handlers: make(map[string]HandlerFunc),
		timers:   make(map[uuid.UUID]*time.Timer),
		shutdown: make(chan struct{}),
	}
}

// Register installs the handler for a job kind. Must be called before
// Start so reloaded jobs of that kind can fire.
func (r *TimerRunner) Register(kind string, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = handler
}

// Start reloads pending jobs from the store and arms their timers
func (r *TimerRunner) Start(ctx context.Context) error {
	pending, err := r.jobs.ListPendingJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload pending jobs: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info("Rearming pending jobs", "count", len(pending))

	for _, job := range pending {
		r.arm(job)
	}
	return nil
}

// ScheduleAt persists a job and arms a timer for its fire time
func (r *TimerRunner) ScheduleAt(ctx context.Context, at time.Time, kind string, payload any) error {
	data, err := encodePayload(payload)
	if err != nil {
		return err
	}

	job := domain.ScheduledJob{
		ID:      uuid.New(),
		Kind:    kind,
		Payload: data,
		RunAt:   at,
		State:   domain.JobStatePending,
	}

	if err := r.jobs.CreateJob(ctx, &job); err != nil {
		return fmt.Errorf("failed to persist job: %w", err)
	}

	logger.FromContext(ctx).Info("Scheduled job",
		"job_id", job.ID, "kind", kind, "run_at", at)

	r.arm(job)
	return nil
}

// ScheduleNow persists a job and dispatches it immediately
func (r *TimerRunner) ScheduleNow(ctx context.Context, kind string, payload any) error {
	return r.ScheduleAt(ctx, time.Now(), kind, payload)
}

// arm schedules the job's timer, firing immediately when the fire time
// has already passed (restart after downtime).
func (r *TimerRunner) arm(job domain.ScheduledJob) {
	duration := time.Until(job.RunAt)
	if duration <= 0 {
		r.execute(job)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.timers[job.ID]; ok {
		existing.Stop()
		delete(r.timers, job.ID)
	}

	timer := time.AfterFunc(duration, func() {
		select {
		case <-r.shutdown:
			return
		default:
		}

		r.execute(job)

		r.mu.Lock()
		delete(r.timers, job.ID)
		r.mu.Unlock()
	})

	r.timers[job.ID] = timer
}

// execute hands the job off to the worker pool. The pending->executing
// transition arbitrates duplicate firings; the handler's outcome decides
// done vs failed. Handler errors fail only this job, never the pool.
func (r *TimerRunner) execute(job domain.ScheduledJob) {
	r.wg.Add(1)
	r.pool.Enqueue(worker.JobFunc(func(ctx context.Context) error {
		defer r.wg.Done()

		log := logger.FromContext(ctx)

		won, err := r.jobs.MarkJobExecuting(ctx, job.ID)
		if err != nil {
			return fmt.Errorf("job %s: %w", job.ID, err)
		}
		if !won {
			log.Debug("Job already claimed, skipping", "job_id", job.ID)
			return nil
		}

		r.mu.Lock()
		handler, ok := r.handlers[job.Kind]
		r.mu.Unlock()

		if !ok {
			markErr := r.jobs.MarkJobFailed(ctx, job.ID, domain.ErrMsgUnknownJobKind)
			if markErr != nil {
				log.Error("Failed to mark job failed", "job_id", job.ID, "error", markErr)
			}
			return fmt.Errorf("%w: %s", domain.ErrUnknownJobKind, job.Kind)
		}

		log.Info("Executing job", "job_id", job.ID, "kind", job.Kind)

		if err := handler(ctx, job.Payload); err != nil {
			if markErr := r.jobs.MarkJobFailed(ctx, job.ID, err.Error()); markErr != nil {
				log.Error("Failed to mark job failed", "job_id", job.ID, "error", markErr)
			}
			return fmt.Errorf("job %s (%s): %w", job.ID, job.Kind, err)
		}

		if err := r.jobs.MarkJobDone(ctx, job.ID); err != nil {
			log.Error("Failed to mark job done", "job_id", job.ID, "error", err)
		}
		return nil
	}))
}

// Shutdown stops pending timers and waits for in-flight executions
func (r *TimerRunner) Shutdown(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info("Shutting down job runner")

	close(r.shutdown)

	r.mu.Lock()
	for id, timer := range r.timers {
		timer.Stop()
		log.Info("Disarmed pending job timer", "job_id", id)
	}
	r.timers = make(map[uuid.UUID]*time.Timer)
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("Job runner shutdown complete")
		return nil
	case <-ctx.Done():
		log.Warn("Job runner shutdown timeout")
		return ctx.Err()
	}
}
