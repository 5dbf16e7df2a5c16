package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventdraw/drawbot/internal/domain"
)

// JobRepository implements the scheduled job store for PostgreSQL
type JobRepository struct {
	db *pgxpool.Pool
}

// NewJobRepository creates a new JobRepository
func NewJobRepository(db *pgxpool.Pool) *JobRepository {
	return &JobRepository{db: db}
}

// CreateJob persists a new pending job
func (r *JobRepository) CreateJob(ctx context.Context, job *domain.ScheduledJob) error {
	query := `
		INSERT INTO scheduled_jobs (job_id, kind, payload, run_at, state)
		VALUES ($1, $2, $3, $4, $5)
	`

	if job.State == "" {
		job.State = domain.JobStatePending
	}

	_, err := r.db.Exec(ctx, query, job.ID, job.Kind, job.Payload, job.RunAt, job.State)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// ListPendingJobs retrieves all pending jobs ordered by fire time.
// Used on startup to rebuild timers after a restart; jobs left in
// "executing" by a crash stay put and count as the at-least-once cost.
func (r *JobRepository) ListPendingJobs(ctx context.Context) ([]domain.ScheduledJob, error) {
	query := `
		SELECT job_id, kind, payload, run_at, state, last_error, created_at
		FROM scheduled_jobs
		WHERE state = 'pending'
		ORDER BY run_at
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.ScheduledJob
	for rows.Next() {
		var j domain.ScheduledJob
		if err := rows.Scan(&j.ID, &j.Kind, &j.Payload, &j.RunAt, &j.State, &j.LastError, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return jobs, nil
}

// MarkJobExecuting transitions pending -> executing. The conditional
// update arbitrates between replicas firing the same job: only the
// caller that flips the row proceeds.
func (r *JobRepository) MarkJobExecuting(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE scheduled_jobs SET state = 'executing' WHERE job_id = $1 AND state = 'pending'`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark job executing: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkJobDone transitions executing -> done
func (r *JobRepository) MarkJobDone(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE scheduled_jobs SET state = 'done' WHERE job_id = $1`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark job done: %w", err)
	}
	return nil
}

// MarkJobFailed transitions executing -> failed and records the cause.
// Failed jobs are not retried automatically; they stay queryable for
// an operator-triggered re-run.
func (r *JobRepository) MarkJobFailed(ctx context.Context, id uuid.UUID, cause string) error {
	query := `UPDATE scheduled_jobs SET state = 'failed', last_error = $2 WHERE job_id = $1`

	if _, err := r.db.Exec(ctx, query, id, cause); err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	return nil
}
